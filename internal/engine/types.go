// Package engine describes the contract between the match controller and the
// game engine hosting it: identifiers, vectors, audio and death-type enums,
// the outbound Engine interface and the inbound Callbacks interface.
package engine

import "math"

// PlayerID identifies a joined player (the engine object id)
type PlayerID int

// TeamID identifies a team. Zero is never a valid team.
type TeamID int

// ObjectID identifies a world object (spatial marker, interact point)
type ObjectID int

// HQID identifies a headquarters spawn anchor
type HQID int

// AreaID identifies an area trigger volume
type AreaID int

// NoTeam is returned for players without a team assignment
const NoTeam TeamID = 0

// Vec3 is a world-space vector
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// V builds a Vec3
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Distance returns the euclidean distance between v and o
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// AbsSum returns |x| + |y| + |z|, the cheap speed measure used for
// movement cancellation
func (v Vec3) AbsSum() float64 {
	return math.Abs(v.X) + math.Abs(v.Y) + math.Abs(v.Z)
}

// DeathType classifies how a kill happened
type DeathType uint8

const (
	DeathNormal DeathType = iota
	DeathHeadshot
	DeathSuicide
	DeathDeserting
	DeathDrowning
	DeathRedeploy
)

// String returns the engine name of the death type
func (d DeathType) String() string {
	switch d {
	case DeathNormal:
		return "normal"
	case DeathHeadshot:
		return "headshot"
	case DeathSuicide:
		return "suicide"
	case DeathDeserting:
		return "deserting"
	case DeathDrowning:
		return "drowning"
	case DeathRedeploy:
		return "redeploy"
	default:
		return "unknown"
	}
}

// ParseDeathType maps an engine name back to a DeathType
func ParseDeathType(s string) (DeathType, bool) {
	for d := DeathNormal; d <= DeathRedeploy; d++ {
		if d.String() == s {
			return d, true
		}
	}
	return DeathNormal, false
}

// InventorySlot selects a weapon slot
type InventorySlot uint8

const (
	SlotPrimary InventorySlot = iota
	SlotSecondary
)

// VoiceOver names a 2D voice-over event
type VoiceOver string

const (
	VORoundStartGeneric      VoiceOver = "RoundStartGeneric"
	VOTime120Left            VoiceOver = "Time120Left"
	VOTime60Left             VoiceOver = "Time60Left"
	VOTime30Left             VoiceOver = "Time30Left"
	VOProgressEarlyWinning   VoiceOver = "ProgressEarlyWinning"
	VOProgressEarlyLosing    VoiceOver = "ProgressEarlyLosing"
	VOProgressMidWinning     VoiceOver = "ProgressMidWinning"
	VOProgressMidLosing      VoiceOver = "ProgressMidLosing"
	VOProgressLateWinning    VoiceOver = "ProgressLateWinning"
	VOProgressLateLosing     VoiceOver = "ProgressLateLosing"
	VOPlayerCountEnemyLow    VoiceOver = "PlayerCountEnemyLow"
	VOPlayerCountFriendlyLow VoiceOver = "PlayerCountFriendlyLow"
)

// SFX names a one-shot 2D sound
type SFX string

const SFXCountdownAlert SFX = "SFX_Gadgets_C4_Activate_OneShot2D"

// Audience selects who hears a voice-over
type Audience struct {
	All  bool   `json:"all"`
	Team TeamID `json:"team,omitempty"`
}

// Everyone targets all players
func Everyone() Audience {
	return Audience{All: true}
}

// ToTeam targets a single team
func ToTeam(t TeamID) Audience {
	return Audience{Team: t}
}

// Message is an opaque localized string reference with arguments
type Message struct {
	Key  string `json:"key"`
	Args []any  `json:"args,omitempty"`
}

// Msg builds a Message
func Msg(key string, args ...any) Message {
	return Message{Key: key, Args: args}
}

// Color is an RGB triple in [0,1]
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Anchor positions a widget relative to its parent
type Anchor uint8

const (
	AnchorCenter Anchor = iota
	AnchorTopCenter
	AnchorBottomCenter
	AnchorCenterLeft
	AnchorCenterRight
	AnchorBottomLeft
	AnchorBottomRight
)

// WidgetKind distinguishes UI widget types
type WidgetKind uint8

const (
	WidgetContainer WidgetKind = iota
	WidgetText
	WidgetButton
)

// Widget describes a UI widget to create. Layout fields are passed through
// to the engine untouched.
type Widget struct {
	Name     string     `json:"name"`
	Kind     WidgetKind `json:"kind"`
	Parent   string     `json:"parent,omitempty"` // empty = UI root
	Position Vec3       `json:"position"`
	Size     Vec3       `json:"size"`
	Anchor   Anchor     `json:"anchor"`
	Label    Message    `json:"label"`
	TextSize int        `json:"textSize,omitempty"`
	Color    Color      `json:"color"`
	Owner    PlayerID   `json:"owner,omitempty"` // zero = visible to everyone
}
