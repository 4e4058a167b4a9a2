// Package eventlog records match events in a bounded, rate-limited,
// append-only log and fans flushed batches out to sinks.
package eventlog

import (
	"encoding/json"
	"time"

	"team-deathmatch/internal/engine"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePhase             // Lifecycle transition
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeDeploy
	EventTypeUndeploy
	EventTypeKill
	EventTypeAssist
	EventTypeVoiceOver
	EventTypeTeamSwitch
	EventTypeMatchEnd
)

// EventVersion for backwards compatibility of the JSONL stream
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	MatchID   string          `json:"matchId"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic, assigned on emit
	Tick      uint64          `json:"tick"`      // Global tick this occurred in
	PlayerID  engine.PlayerID `json:"playerId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypePhase:
		return "phase"
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeDeploy:
		return "deploy"
	case EventTypeUndeploy:
		return "undeploy"
	case EventTypeKill:
		return "kill"
	case EventTypeAssist:
		return "assist"
	case EventTypeVoiceOver:
		return "voice_over"
	case EventTypeTeamSwitch:
		return "team_switch"
	case EventTypeMatchEnd:
		return "match_end"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// PhasePayload records a lifecycle transition
type PhasePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PlayerPayload carries the team of a joining or deploying player
type PlayerPayload struct {
	Team engine.TeamID `json:"team"`
}

// KillPayload contains kill event details
type KillPayload struct {
	Victim      engine.PlayerID `json:"victim"`
	Death       string          `json:"death"`
	Team        engine.TeamID   `json:"team"`
	TeamScore   int             `json:"teamScore"`
	KillerKills int             `json:"killerKills"`
}

// VoiceOverPayload records a played voice-over
type VoiceOverPayload struct {
	VO       engine.VoiceOver `json:"vo"`
	Audience engine.Audience  `json:"audience"`
}

// TeamSwitchPayload records one team switch interact point outcome
type TeamSwitchPayload struct {
	Outcome string        `json:"outcome"` // armed, consumed, expired, cleared
	From    engine.TeamID `json:"from,omitempty"`
	To      engine.TeamID `json:"to,omitempty"`
}

// MatchEndPayload records the final result
type MatchEndPayload struct {
	Reason string        `json:"reason"`
	Winner engine.TeamID `json:"winner"` // NoTeam on a draw
	Team1  int           `json:"team1"`
	Team2  int           `json:"team2"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tick uint64, player engine.PlayerID, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Name:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		PlayerID:  player,
		Payload:   EncodePayload(payload),
	}
}
