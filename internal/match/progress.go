package match

import (
	"team-deathmatch/internal/config"
	"team-deathmatch/internal/engine"
)

// announceProgressLocked plays score-progress voice-overs after a counted
// kill. A stage fires once per match when the leading score lands exactly
// on it; a lead change is acknowledged only when no stage fired.
func (c *Controller) announceProgressLocked() {
	score1 := c.eng.GameModeScore(c.cfg.Team1)
	score2 := c.eng.GameModeScore(c.cfg.Team2)
	if score1 == score2 {
		return
	}

	winner, loser, top := c.cfg.Team1, c.cfg.Team2, score1
	if score2 > score1 {
		winner, loser, top = c.cfg.Team2, c.cfg.Team1, score2
	}

	stageFired := false
	for i, stage := range c.cfg.Stages {
		if stage.Score == top && !c.stageAnnounced[i] {
			c.stageAnnounced[i] = true
			c.playPairLocked(stage.VO, winner, loser)
			stageFired = true
		}
	}

	if !c.hasLeader || c.leader != winner {
		c.leader = winner
		c.hasLeader = true
		if !stageFired {
			c.playPairLocked(c.cfg.LeadChange, winner, loser)
		}
	}
}

func (c *Controller) playPairLocked(pair config.VOPair, winner, loser engine.TeamID) {
	c.playVOLocked(pair.Winning, engine.ToTeam(winner))
	c.playVOLocked(pair.Losing, engine.ToTeam(loser))
}
