package engine

import (
	"context"
	"time"
)

// Players covers soldier state queries and player-level commands
type Players interface {
	AllPlayers() []PlayerID
	PlayerTeam(p PlayerID) TeamID
	SetPlayerTeam(p PlayerID, t TeamID)
	IsDead(p PlayerID) bool
	IsOnGround(p PlayerID) bool
	Position(p PlayerID) Vec3
	FacingDirection(p PlayerID) Vec3
	LinearVelocity(p PlayerID) Vec3
	Teleport(p PlayerID, pos Vec3, yaw float64)
	// UndeployPlayer may deliver OnPlayerUndeploy synchronously; callers
	// must not hold locks the callback path takes.
	UndeployPlayer(p PlayerID)
	SetRedeployTime(p PlayerID, seconds int)
	EnableInputRestrictions(p PlayerID, restricted bool)
	EnableAllPlayerDeploy(enabled bool)
	SetMagazineAmmo(p PlayerID, slot InventorySlot, amount int)
}

// Scoring covers team scores and the engine match clock
type Scoring interface {
	GameModeScore(t TeamID) int
	SetGameModeScore(t TeamID, score int)
	SetTargetScore(score int)
	SetTimeLimit(limit time.Duration)
	// MatchTimeRemaining returns seconds left; sub-second precision is not
	// guaranteed.
	MatchTimeRemaining() float64
	MatchTimeElapsed() float64
}

// World covers placed and runtime-spawned objects
type World interface {
	// SpatialObject reports the position of a placed object and whether it
	// exists at all.
	SpatialObject(id ObjectID) (Vec3, bool)
	MoveObject(id ObjectID, pos Vec3)
	SpawnInteractPoint(pos Vec3) ObjectID
	EnableInteractPoint(id ObjectID, enabled bool)
	UnspawnObject(id ObjectID)
	EnableHQ(id HQID, enabled bool)
}

// Audio plays fire-and-forget sounds
type Audio interface {
	PlayVO(vo VoiceOver, to Audience)
	PlaySFX(sfx SFX)
}

// UI manages named widgets and notifications
type UI interface {
	AddWidget(w Widget)
	WidgetExists(name string) bool
	SetWidgetText(name string, label Message)
	SetWidgetTextColor(name string, c Color)
	DeleteWidget(name string)
	ShowNotification(p PlayerID, m Message)
	EnableUIInputMode(p PlayerID, enabled bool)
}

// Scoreboard drives the engine scoreboard
type Scoreboard interface {
	SetScoreboardColumns(names []Message, widths []int)
	SetScoreboardHeader(team1, team2 Message)
	SetScoreboardSorting(column int, ascending bool)
	SetScoreboardRow(p PlayerID, values []int)
}

// Engine is everything the game mode calls out to
type Engine interface {
	Players
	Scoring
	World
	Audio
	UI
	Scoreboard
}

// Callbacks is the set of events the engine delivers to a game mode
type Callbacks interface {
	OnGameModeStarted(ctx context.Context) error
	OnPlayerJoinGame(p PlayerID)
	OnPlayerLeaveGame(p PlayerID)
	OnPlayerDeployed(p PlayerID)
	OnPlayerUndeploy(p PlayerID)
	OnPlayerEnterAreaTrigger(p PlayerID, area AreaID)
	OnPlayerEarnedKill(killer, victim PlayerID, death DeathType)
	OnPlayerEarnedKillAssist(p, other PlayerID)
	OnPlayerInteract(p PlayerID, point ObjectID)
	OngoingGlobal()
	OngoingPlayer(p PlayerID)
}

// Waiter suspends the calling goroutine. It stands in for the engine's
// cooperative wait: other callbacks keep running while it blocks.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// WallClock waits on real time
type WallClock struct{}

// Wait blocks for d or until ctx is done
func (WallClock) Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
