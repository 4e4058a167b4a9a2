package host

import (
	"math"
	"time"

	"team-deathmatch/internal/engine"
)

// ============================================================================
// Players
// ============================================================================

func (e *Engine) AllPlayers() []engine.PlayerID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.playerIDsLocked()
}

func (e *Engine) PlayerTeam(p engine.PlayerID) engine.TeamID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if pl, ok := e.players[p]; ok {
		return pl.Team
	}
	return engine.NoTeam
}

func (e *Engine) SetPlayerTeam(p engine.PlayerID, t engine.TeamID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok {
		pl.Team = t
	}
}

// IsDead reports true for unknown and undeployed players
func (e *Engine) IsDead(p engine.PlayerID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pl, ok := e.players[p]
	return !ok || !pl.Deployed
}

func (e *Engine) IsOnGround(p engine.PlayerID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pl, ok := e.players[p]
	return ok && pl.Deployed && pl.OnGround
}

func (e *Engine) Position(p engine.PlayerID) engine.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if pl, ok := e.players[p]; ok {
		return pl.Position
	}
	return engine.Vec3{}
}

func (e *Engine) FacingDirection(p engine.PlayerID) engine.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if pl, ok := e.players[p]; ok {
		return pl.Facing
	}
	return engine.Vec3{}
}

func (e *Engine) LinearVelocity(p engine.PlayerID) engine.Vec3 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if pl, ok := e.players[p]; ok {
		return pl.Velocity
	}
	return engine.Vec3{}
}

// Teleport moves a player and points them along yaw (radians around Y)
func (e *Engine) Teleport(p engine.PlayerID, pos engine.Vec3, yaw float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok {
		pl.Position = pos
		pl.Facing = engine.V(math.Sin(yaw), 0, math.Cos(yaw))
		pl.Velocity = engine.Vec3{}
	}
}

// UndeployPlayer delivers OnPlayerUndeploy synchronously when the player was
// deployed.
func (e *Engine) UndeployPlayer(p engine.PlayerID) {
	if err := e.Undeploy(p); err != nil {
		e.log.Debugw("Undeploy ignored", "player", p, "error", err)
	}
}

func (e *Engine) SetRedeployTime(p engine.PlayerID, seconds int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok {
		pl.RedeployTime = seconds
	}
}

func (e *Engine) EnableInputRestrictions(p engine.PlayerID, restricted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok {
		pl.Restricted = restricted
	}
}

func (e *Engine) EnableAllPlayerDeploy(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deployEnabled = enabled
}

func (e *Engine) SetMagazineAmmo(p engine.PlayerID, slot engine.InventorySlot, amount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok && int(slot) < len(pl.Ammo) {
		pl.Ammo[slot] = amount
	}
}

// ============================================================================
// Scoring
// ============================================================================

func (e *Engine) GameModeScore(t engine.TeamID) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scores[t]
}

func (e *Engine) SetGameModeScore(t engine.TeamID, score int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scores[t] = score
}

func (e *Engine) SetTargetScore(score int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targetScore = score
}

// SetTimeLimit restarts the match clock
func (e *Engine) SetTimeLimit(limit time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeLimit = limit
	e.elapsed = 0
	e.clockRunning = true
}

func (e *Engine) MatchTimeRemaining() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.remainingLocked()
}

func (e *Engine) MatchTimeElapsed() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.elapsed.Seconds()
}

func (e *Engine) remainingLocked() float64 {
	if e.elapsed >= e.timeLimit {
		return 0
	}
	return (e.timeLimit - e.elapsed).Seconds()
}

// ============================================================================
// World
// ============================================================================

func (e *Engine) SpatialObject(id engine.ObjectID) (engine.Vec3, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, ok := e.objects[id]
	if !ok {
		return engine.Vec3{}, false
	}
	return o.pos, true
}

func (e *Engine) MoveObject(id engine.ObjectID, pos engine.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.objects[id]; ok {
		o.pos = pos
	}
}

func (e *Engine) SpawnInteractPoint(pos engine.Vec3) engine.ObjectID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextObject++
	e.objects[e.nextObject] = &object{pos: pos, interact: true}
	return e.nextObject
}

func (e *Engine) EnableInteractPoint(id engine.ObjectID, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if o, ok := e.objects[id]; ok && o.interact {
		o.enabled = enabled
	}
}

func (e *Engine) UnspawnObject(id engine.ObjectID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.objects, id)
}

func (e *Engine) EnableHQ(id engine.HQID, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hqs[id] = enabled
}

// ============================================================================
// Audio
// ============================================================================

func (e *Engine) PlayVO(vo engine.VoiceOver, to engine.Audience) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vos = append(e.vos, VOPlay{VO: vo, Audience: to, Tick: e.tickCount})
	if len(e.vos) > recentVOs {
		e.vos = e.vos[len(e.vos)-recentVOs:]
	}
}

func (e *Engine) PlaySFX(engine.SFX) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sfx++
}

// ============================================================================
// UI
// ============================================================================

func (e *Engine) AddWidget(w engine.Widget) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.widgets[w.Name] = w
	e.colors[w.Name] = w.Color
}

func (e *Engine) WidgetExists(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.widgets[name]
	return ok
}

func (e *Engine) SetWidgetText(name string, label engine.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if w, ok := e.widgets[name]; ok {
		w.Label = label
		e.widgets[name] = w
	}
}

func (e *Engine) SetWidgetTextColor(name string, c engine.Color) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.widgets[name]; ok {
		e.colors[name] = c
	}
}

// DeleteWidget removes a widget and all of its descendants
func (e *Engine) DeleteWidget(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleteWidgetLocked(name)
}

func (e *Engine) deleteWidgetLocked(name string) {
	if _, ok := e.widgets[name]; !ok {
		return
	}
	delete(e.widgets, name)
	delete(e.colors, name)
	for child, w := range e.widgets {
		if w.Parent == name {
			e.deleteWidgetLocked(child)
		}
	}
}

func (e *Engine) ShowNotification(p engine.PlayerID, m engine.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pl, ok := e.players[p]
	if !ok {
		return
	}
	pl.notices = append(pl.notices, m)
	if len(pl.notices) > recentNotices {
		pl.notices = pl.notices[len(pl.notices)-recentNotices:]
	}
}

func (e *Engine) EnableUIInputMode(p engine.PlayerID, enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok {
		pl.UIInputMode = enabled
	}
}

// ============================================================================
// Scoreboard
// ============================================================================

func (e *Engine) SetScoreboardColumns(names []engine.Message, widths []int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.columns = append([]engine.Message(nil), names...)
	e.widths = append([]int(nil), widths...)
}

func (e *Engine) SetScoreboardHeader(team1, team2 engine.Message) {}

func (e *Engine) SetScoreboardSorting(column int, ascending bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sortCol = column
	e.sortAsc = ascending
}

func (e *Engine) SetScoreboardRow(p engine.PlayerID, values []int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pl, ok := e.players[p]; ok {
		pl.Scoreboard = append([]int(nil), values...)
	}
}
