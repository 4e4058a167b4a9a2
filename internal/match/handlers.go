package match

import (
	"strconv"

	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/eventlog"
)

// startingAmmo is the magazine size applied on deploy when the unlimited
// starting ammo flag is set
const startingAmmo = 9999

var _ engine.Callbacks = (*Controller)(nil)

// OnPlayerJoinGame allocates zeroed stats and a scoreboard row
func (c *Controller) OnPlayerJoinGame(p engine.PlayerID) {
	c.mu.Lock()
	c.eng.SetRedeployTime(p, 0)
	st := c.stats.Join(p)
	c.updateScoreboardLocked(p, st)
	c.emitLocked(eventlog.EventTypePlayerJoin, p, eventlog.PlayerPayload{Team: c.eng.PlayerTeam(p)})
	c.mu.Unlock()

	if c.switcher != nil {
		c.switcher.Join(p)
	}
}

// OnPlayerLeaveGame drops the player's stats and team switch state
func (c *Controller) OnPlayerLeaveGame(p engine.PlayerID) {
	c.mu.Lock()
	c.stats.Leave(p)
	c.emitLocked(eventlog.EventTypePlayerLeave, p, nil)
	c.mu.Unlock()

	if c.switcher != nil {
		c.switcher.Leave(p)
	}
}

// OnPlayerDeployed applies the starting ammo override and arms the team
// switch interact point
func (c *Controller) OnPlayerDeployed(p engine.PlayerID) {
	c.mu.Lock()
	if c.cfg.MaxStartingAmmo {
		c.eng.SetMagazineAmmo(p, engine.SlotPrimary, startingAmmo)
		c.eng.SetMagazineAmmo(p, engine.SlotSecondary, startingAmmo)
	}
	c.emitLocked(eventlog.EventTypeDeploy, p, eventlog.PlayerPayload{Team: c.eng.PlayerTeam(p)})
	c.mu.Unlock()

	if c.switcher != nil {
		c.switcher.Deployed(p)
	}
}

// OnPlayerUndeploy counts a death and clears the team switch interact point
func (c *Controller) OnPlayerUndeploy(p engine.PlayerID) {
	c.mu.Lock()
	if !c.ended {
		if st, ok := c.stats.AddDeath(p); ok {
			c.updateScoreboardLocked(p, st)
		} else {
			c.log.Debugw("Undeploy for untracked player", "player", p)
		}
	}
	c.emitLocked(eventlog.EventTypeUndeploy, p, nil)
	c.mu.Unlock()

	if c.switcher != nil {
		c.switcher.Undeployed(p)
	}
}

// OnPlayerEnterAreaTrigger teleports players entering the respawn area to
// the spawn point farthest from living enemies
func (c *Controller) OnPlayerEnterAreaTrigger(p engine.PlayerID, area engine.AreaID) {
	if area != c.cfg.RespawnArea {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := SelectSpawnPoint(c.eng, p, c.spawns)
	if !ok {
		c.log.Debugw("No spawn points to respawn at", "player", p)
		return
	}
	c.eng.Teleport(p, pos, 0)
}

// countedKill reports whether a kill scores, and why not otherwise
func countedKill(killer, victim engine.PlayerID, death engine.DeathType) (bool, string) {
	if killer == victim {
		return false, "self"
	}
	switch death {
	case engine.DeathSuicide, engine.DeathDeserting, engine.DeathDrowning, engine.DeathRedeploy:
		return false, "death_type"
	}
	return true, ""
}

// OnPlayerEarnedKill credits the killer and their team, then checks the
// target score or announces progress
func (c *Controller) OnPlayerEarnedKill(killer, victim engine.PlayerID, death engine.DeathType) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		killsIgnored.WithLabelValues("ended").Inc()
		return
	}
	if ok, reason := countedKill(killer, victim, death); !ok {
		killsIgnored.WithLabelValues(reason).Inc()
		return
	}

	st, ok := c.stats.AddKill(killer, death == engine.DeathHeadshot)
	if !ok {
		killsIgnored.WithLabelValues("unknown_player").Inc()
		c.log.Warnw("Kill credited to untracked player", "killer", killer, "victim", victim)
		return
	}
	c.updateScoreboardLocked(killer, st)
	killsTotal.WithLabelValues(death.String()).Inc()

	team := c.eng.PlayerTeam(killer)
	if team != c.cfg.Team1 && team != c.cfg.Team2 {
		c.log.Warnw("Killer has no match team", "killer", killer, "team", team)
		return
	}
	score := c.eng.GameModeScore(team) + 1
	c.eng.SetGameModeScore(team, score)
	teamScore.WithLabelValues(strconv.Itoa(int(team))).Set(float64(score))
	c.updateScoreTextLocked()

	c.emitLocked(eventlog.EventTypeKill, killer, eventlog.KillPayload{
		Victim:      victim,
		Death:       death.String(),
		Team:        team,
		TeamScore:   score,
		KillerKills: st.Kills,
	})

	if score >= c.cfg.TargetScore {
		c.endMatchLocked(EndReasonScore)
		return
	}
	c.announceProgressLocked()
}

// OnPlayerEarnedKillAssist counts an assist
func (c *Controller) OnPlayerEarnedKillAssist(p, other engine.PlayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return
	}
	st, ok := c.stats.AddAssist(p)
	if !ok {
		c.log.Debugw("Assist for untracked player", "player", p)
		return
	}
	c.updateScoreboardLocked(p, st)
	c.emitLocked(eventlog.EventTypeAssist, p, nil)
}

// OnPlayerInteract forwards interact point activations to the team switch
func (c *Controller) OnPlayerInteract(p engine.PlayerID, point engine.ObjectID) {
	if c.switcher != nil {
		c.switcher.Interact(p, point)
	}
}

// OngoingPlayer restricts input for living players outside the active
// round, then runs the team switch expiry checks
func (c *Controller) OngoingPlayer(p engine.PlayerID) {
	c.mu.Lock()
	locked := !c.started || c.ended
	c.mu.Unlock()

	c.eng.EnableInputRestrictions(p, locked && !c.eng.IsDead(p))

	if c.switcher != nil {
		c.switcher.Tick(p)
	}
}
