package match

import "team-deathmatch/internal/engine"

// Phase is the lifecycle state of a match
type Phase uint8

const (
	PhaseIdle   Phase = iota // Constructed, Start not called
	PhaseSetup               // Building spawns, UI, scoreboard
	PhaseFreeze              // Players locked in until the freeze elapses
	PhaseActive              // Round running
	PhaseEnding              // Win or timeout observed, settling
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSetup:
		return "setup"
	case PhaseFreeze:
		return "freeze"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EndReason says which win condition ended the match
type EndReason string

const (
	EndReasonScore EndReason = "score"
	EndReasonTime  EndReason = "time"
)

// Result is recorded once when the match enters Ending
type Result struct {
	Reason EndReason     `json:"reason"`
	Winner engine.TeamID `json:"winner"` // NoTeam on a draw
	Draw   bool          `json:"draw"`
	Team1  int           `json:"team1Score"`
	Team2  int           `json:"team2Score"`
}
