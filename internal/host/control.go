package host

import (
	"context"
	"errors"
	"fmt"

	"team-deathmatch/internal/engine"
)

// Teams the host auto-balances joins across
const (
	team1 engine.TeamID = 1
	team2 engine.TeamID = 2
)

var errNoGameMode = errors.New("no game mode installed")

// StartMatch delivers OnGameModeStarted. It blocks until the game mode's
// setup returns; the freeze runs in the background.
func (e *Engine) StartMatch(ctx context.Context) error {
	cb := e.game()
	if cb == nil {
		return errNoGameMode
	}
	e.log.Infow("Starting game mode")
	return cb.OnGameModeStarted(ctx)
}

// Join adds a player. A zero team is auto-balanced across teams 1 and 2.
func (e *Engine) Join(name string, team engine.TeamID) (Player, error) {
	e.mu.Lock()
	if e.cfg.MaxPlayers > 0 && len(e.players) >= e.cfg.MaxPlayers {
		e.mu.Unlock()
		return Player{}, fmt.Errorf("%w (%d)", ErrGameFull, e.cfg.MaxPlayers)
	}
	if team == engine.NoTeam {
		team = e.smallerTeamLocked()
	}
	e.nextPlayer++
	id := e.nextPlayer
	if name == "" {
		name = fmt.Sprintf("Player%d", id)
	}
	pl := &Player{
		ID:     id,
		Name:   name,
		Team:   team,
		Facing: engine.V(0, 0, 1),
	}
	e.players[id] = pl
	snapshot := *pl
	count := len(e.players)
	cb := e.callbacks
	e.mu.Unlock()

	playerCount.Set(float64(count))
	e.log.Infow("Player joined", "player", id, "name", name, "team", team)

	if cb != nil {
		cb.OnPlayerJoinGame(id)
	}
	return snapshot, nil
}

func (e *Engine) smallerTeamLocked() engine.TeamID {
	var n1, n2 int
	for _, p := range e.players {
		switch p.Team {
		case team1:
			n1++
		case team2:
			n2++
		}
	}
	if n2 < n1 {
		return team2
	}
	return team1
}

// Leave removes a player
func (e *Engine) Leave(p engine.PlayerID) error {
	e.mu.Lock()
	if _, ok := e.players[p]; !ok {
		e.mu.Unlock()
		return ErrUnknownPlayer
	}
	delete(e.players, p)
	count := len(e.players)
	cb := e.callbacks
	e.mu.Unlock()

	playerCount.Set(float64(count))
	e.log.Infow("Player left", "player", p)

	if cb != nil {
		cb.OnPlayerLeaveGame(p)
	}
	return nil
}

// Deploy spawns a player in the air; they land a few ticks later
func (e *Engine) Deploy(p engine.PlayerID) error {
	e.mu.Lock()
	pl, ok := e.players[p]
	switch {
	case !ok:
		e.mu.Unlock()
		return ErrUnknownPlayer
	case !e.deployEnabled:
		e.mu.Unlock()
		return ErrDeployDisabled
	case pl.Deployed:
		e.mu.Unlock()
		return ErrAlreadyDeployed
	}
	pl.Deployed = true
	pl.OnGround = false
	pl.landing = landingTicks
	pl.Position.Y = deployHeight
	pl.Velocity = engine.Vec3{}
	cb := e.callbacks
	e.mu.Unlock()

	if cb != nil {
		cb.OnPlayerDeployed(p)
	}
	return nil
}

// Undeploy returns a deployed player to the deploy screen
func (e *Engine) Undeploy(p engine.PlayerID) error {
	e.mu.Lock()
	if err := e.undeployLocked(p); err != nil {
		e.mu.Unlock()
		return err
	}
	cb := e.callbacks
	e.mu.Unlock()

	if cb != nil {
		cb.OnPlayerUndeploy(p)
	}
	return nil
}

func (e *Engine) undeployLocked(p engine.PlayerID) error {
	pl, ok := e.players[p]
	if !ok {
		return ErrUnknownPlayer
	}
	if !pl.Deployed {
		return ErrNotDeployed
	}
	pl.Deployed = false
	pl.OnGround = false
	pl.Velocity = engine.Vec3{}
	return nil
}

// Kill credits killer with victim's death and undeploys the victim. The
// kill callback is delivered before the undeploy.
func (e *Engine) Kill(killer, victim engine.PlayerID, death engine.DeathType) error {
	e.mu.Lock()
	if _, ok := e.players[killer]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("killer %d: %w", killer, ErrUnknownPlayer)
	}
	if err := e.undeployLocked(victim); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("victim %d: %w", victim, err)
	}
	cb := e.callbacks
	e.mu.Unlock()

	if cb != nil {
		cb.OnPlayerEarnedKill(killer, victim, death)
		cb.OnPlayerUndeploy(victim)
	}
	return nil
}

// Assist credits p with an assist on other
func (e *Engine) Assist(p, other engine.PlayerID) error {
	if !e.known(p) || !e.known(other) {
		return ErrUnknownPlayer
	}
	if cb := e.game(); cb != nil {
		cb.OnPlayerEarnedKillAssist(p, other)
	}
	return nil
}

// Interact uses an enabled interact point
func (e *Engine) Interact(p engine.PlayerID, point engine.ObjectID) error {
	e.mu.RLock()
	_, known := e.players[p]
	o, ok := e.objects[point]
	usable := ok && o.interact && o.enabled
	cb := e.callbacks
	e.mu.RUnlock()

	if !known {
		return ErrUnknownPlayer
	}
	if !usable {
		return ErrUnknownObject
	}
	if cb != nil {
		cb.OnPlayerInteract(p, point)
	}
	return nil
}

// EnterArea reports p walking into an area trigger
func (e *Engine) EnterArea(p engine.PlayerID, area engine.AreaID) error {
	if !e.known(p) {
		return ErrUnknownPlayer
	}
	if cb := e.game(); cb != nil {
		cb.OnPlayerEnterAreaTrigger(p, area)
	}
	return nil
}

// Move sets a player's position, facing and velocity. The velocity holds
// for the next tick only.
func (e *Engine) Move(p engine.PlayerID, pos, facing, velocity engine.Vec3) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pl, ok := e.players[p]
	if !ok {
		return ErrUnknownPlayer
	}
	pl.Position = pos
	if facing != (engine.Vec3{}) {
		pl.Facing = facing
	}
	pl.Velocity = velocity
	pl.velocityFresh = true
	return nil
}

func (e *Engine) known(p engine.PlayerID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.players[p]
	return ok
}

// ============================================================================
// Inspection
// ============================================================================

// State is a point-in-time view of the host
type State struct {
	Tick          uint64                `json:"tick"`
	Elapsed       float64               `json:"elapsed"`
	Remaining     float64               `json:"remaining"`
	TargetScore   int                   `json:"targetScore"`
	Scores        map[engine.TeamID]int `json:"scores"`
	DeployEnabled bool                  `json:"deployEnabled"`
	HQs           map[engine.HQID]bool  `json:"hqs"`
	Widgets       int                   `json:"widgets"`
	InteractPts   int                   `json:"interactPoints"`
	RecentVOs     []VOPlay              `json:"recentVoiceOvers"`
	SFXPlayed     int                   `json:"sfxPlayed"`
	Players       int                   `json:"players"`
}

// GetState returns a copy of the host state
func (e *Engine) GetState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := State{
		Tick:          e.tickCount,
		Elapsed:       e.elapsed.Seconds(),
		Remaining:     e.remainingLocked(),
		TargetScore:   e.targetScore,
		Scores:        make(map[engine.TeamID]int, len(e.scores)),
		DeployEnabled: e.deployEnabled,
		HQs:           make(map[engine.HQID]bool, len(e.hqs)),
		Widgets:       len(e.widgets),
		RecentVOs:     append([]VOPlay(nil), e.vos...),
		SFXPlayed:     e.sfx,
		Players:       len(e.players),
	}
	for t, v := range e.scores {
		s.Scores[t] = v
	}
	for id, v := range e.hqs {
		s.HQs[id] = v
	}
	for _, o := range e.objects {
		if o.interact {
			s.InteractPts++
		}
	}
	return s
}

// GetPlayer returns a copy of one player
func (e *Engine) GetPlayer(p engine.PlayerID) (Player, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pl, ok := e.players[p]
	if !ok {
		return Player{}, false
	}
	return copyPlayer(pl), true
}

// Players returns copies of all players ordered by id
func (e *Engine) Players() []Player {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Player, 0, len(e.players))
	for _, id := range e.playerIDsLocked() {
		out = append(out, copyPlayer(e.players[id]))
	}
	return out
}

// Notifications returns the recent notifications shown to p
func (e *Engine) Notifications(p engine.PlayerID) []engine.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if pl, ok := e.players[p]; ok {
		return append([]engine.Message(nil), pl.notices...)
	}
	return nil
}

// Widget returns a widget and its current text color
func (e *Engine) Widget(name string) (engine.Widget, engine.Color, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.widgets[name]
	return w, e.colors[name], ok
}

// InteractPoints returns the live interact points and whether each is enabled
func (e *Engine) InteractPoints() map[engine.ObjectID]bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[engine.ObjectID]bool)
	for id, o := range e.objects {
		if o.interact {
			out[id] = o.enabled
		}
	}
	return out
}

func copyPlayer(pl *Player) Player {
	c := *pl
	c.Scoreboard = append([]int(nil), pl.Scoreboard...)
	c.notices = nil
	return c
}
