// Package teamswitch lets a freshly deployed player change team through a
// short-lived, player-local interact point spawned in front of them.
//
// Per player: NoInteract -> PendingGround -> Armed -> NoInteract. Armed ends
// when the point is consumed, expires (lifetime or movement) or is cleared
// by an undeploy or leave.
package teamswitch

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"team-deathmatch/internal/config"
	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/eventlog"
)

// Outcome labels how an interact point left the Armed state
type Outcome string

const (
	OutcomeArmed    Outcome = "armed"
	OutcomeConsumed Outcome = "consumed"
	OutcomeMoved    Outcome = "moved"
	OutcomeExpired  Outcome = "expired"
	OutcomeCleared  Outcome = "cleared"
)

var outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "team_switch_outcomes_total",
	Help: "Team switch interact point transitions",
}, []string{"outcome"})

// State is a player's position in the team switch lifecycle
type State uint8

const (
	StateNoInteract State = iota
	StatePendingGround
	StateArmed
)

func (s State) String() string {
	switch s {
	case StatePendingGround:
		return "pending_ground"
	case StateArmed:
		return "armed"
	default:
		return "no_interact"
	}
}

// Engine is the slice of the engine the team switch needs
type Engine interface {
	engine.Players
	engine.World
	engine.UI
	MatchTimeElapsed() float64
}

type playerState struct {
	interactPoint  engine.ObjectID
	live           bool
	lastDeployTime float64
	dontShowAgain  bool // reserved, never read

	pending bool
	seq     uint64 // bumped per arm; a stale arm never completes
	cancel  context.CancelFunc
	panel   bool
}

// Options carries optional collaborators
type Options struct {
	Waiter  engine.Waiter // Defaults to engine.WallClock
	Events  eventlog.Emitter
	MatchID string
}

// Manager tracks team switch state for every joined player
type Manager struct {
	mu      sync.Mutex
	cfg     config.TeamSwitchConfig
	other   func(engine.TeamID) engine.TeamID
	eng     Engine
	waiter  engine.Waiter
	events  eventlog.Emitter
	matchID string
	log     *zap.SugaredLogger

	players map[engine.PlayerID]*playerState
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a manager that moves a player from team t to otherTeam(t)
func New(cfg config.TeamSwitchConfig, otherTeam func(engine.TeamID) engine.TeamID, eng Engine, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Waiter == nil {
		opts.Waiter = engine.WallClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:     cfg,
		other:   otherTeam,
		eng:     eng,
		waiter:  opts.Waiter,
		events:  opts.Events,
		matchID: opts.MatchID,
		log:     logger.Sugar().Named("teamswitch"),
		players: make(map[engine.PlayerID]*playerState),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Join creates empty state for p
func (m *Manager) Join(p engine.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.players[p]; ok {
		m.clearLocked(p, old)
	}
	m.players[p] = &playerState{}
}

// Leave clears and drops p's state
func (m *Manager) Leave(p engine.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.players[p]
	if !ok {
		return
	}
	m.clearLocked(p, st)
	if st.panel {
		m.deletePanelLocked(p)
		st.panel = false
	}
	delete(m.players, p)
}

// Undeployed cancels a pending arm and destroys any live point
func (m *Manager) Undeployed(p engine.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.players[p]; ok {
		m.clearLocked(p, st)
	}
}

// Deployed starts waiting for p to land, then arms the interact point.
// A deploy while a point is live or pending is ignored.
func (m *Manager) Deployed(p engine.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Enabled || m.closed {
		return
	}
	st, ok := m.players[p]
	if !ok {
		m.log.Debugw("Deploy for untracked player", "player", p)
		return
	}
	if st.panel {
		m.deletePanelLocked(p)
		m.eng.EnableUIInputMode(p, false)
		st.panel = false
	}
	if st.live || st.pending {
		return
	}

	st.seq++
	ctx, cancel := context.WithCancel(m.ctx)
	st.pending = true
	st.cancel = cancel

	m.wg.Add(1)
	go m.arm(ctx, p, st.seq)
}

// arm polls until p is on the ground, then spawns the interact point unless
// the arm was superseded, cancelled or p left meanwhile
func (m *Manager) arm(ctx context.Context, p engine.PlayerID, seq uint64) {
	defer m.wg.Done()

	for !m.eng.IsOnGround(p) {
		if err := m.waiter.Wait(ctx, m.cfg.PollInterval); err != nil {
			return
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.players[p]
	if !ok || !st.pending || st.seq != seq || ctx.Err() != nil {
		return
	}
	st.pending = false
	st.cancel()
	st.cancel = nil

	pos := m.eng.Position(p).
		Add(m.eng.FacingDirection(p)).
		Add(engine.V(0, m.cfg.VerticalOffset, 0))
	id := m.eng.SpawnInteractPoint(pos)
	m.eng.EnableInteractPoint(id, true)
	st.interactPoint = id
	st.live = true
	st.lastDeployTime = m.eng.MatchTimeElapsed()

	m.recordLocked(p, OutcomeArmed, engine.NoTeam, engine.NoTeam)
}

// Tick expires a live point when p moves too fast or it outlived its
// maximum lifetime
func (m *Manager) Tick(p engine.PlayerID) {
	if !m.cfg.Enabled || m.eng.IsDead(p) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.players[p]
	if !ok || !st.live {
		return
	}

	lifetime := m.eng.MatchTimeElapsed() - st.lastDeployTime
	switch {
	case m.eng.LinearVelocity(p).AbsSum() > m.cfg.VelocityThreshold:
		m.destroyLocked(st)
		m.recordLocked(p, OutcomeMoved, engine.NoTeam, engine.NoTeam)
	case lifetime > m.cfg.MaxLifetime.Seconds():
		m.destroyLocked(st)
		m.recordLocked(p, OutcomeExpired, engine.NoTeam, engine.NoTeam)
	}
}

// Interact consumes p's point when point is the one tracked for p: p moves
// to the other team and is undeployed. Stale or foreign points are ignored.
func (m *Manager) Interact(p engine.PlayerID, point engine.ObjectID) bool {
	m.mu.Lock()
	st, ok := m.players[p]
	if !ok || !st.live || st.interactPoint != point {
		m.mu.Unlock()
		return false
	}

	m.eng.EnableUIInputMode(p, true)
	m.showPanelLocked(p)
	st.panel = true
	m.eng.ShowNotification(p, engine.Msg("NOTIFICATION_TEAM_SWITCH"))

	from := m.eng.PlayerTeam(p)
	to := m.other(from)
	m.eng.SetPlayerTeam(p, to)

	if m.destroyLocked(st) {
		m.recordLocked(p, OutcomeConsumed, from, to)
	}
	m.log.Infow("Player switched team", "player", p, "from", from, "to", to)
	m.mu.Unlock()

	// The engine may call back into Undeployed synchronously
	m.eng.UndeployPlayer(p)
	return true
}

// State returns p's lifecycle state and live point, if tracked
func (m *Manager) State(p engine.PlayerID) (State, engine.ObjectID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.players[p]
	switch {
	case !ok:
		return StateNoInteract, 0, false
	case st.live:
		return StateArmed, st.interactPoint, true
	case st.pending:
		return StatePendingGround, 0, true
	default:
		return StateNoInteract, 0, true
	}
}

// Close cancels every pending arm and waits for the pollers to exit
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *Manager) clearLocked(p engine.PlayerID, st *playerState) {
	if st.pending {
		st.cancel()
		st.cancel = nil
		st.pending = false
	}
	if m.destroyLocked(st) {
		m.recordLocked(p, OutcomeCleared, engine.NoTeam, engine.NoTeam)
	}
}

// destroyLocked disables and unspawns the live point. It reports false when
// nothing was live.
func (m *Manager) destroyLocked(st *playerState) bool {
	if !st.live {
		return false
	}
	m.eng.EnableInteractPoint(st.interactPoint, false)
	m.eng.UnspawnObject(st.interactPoint)
	st.interactPoint = 0
	st.live = false
	return true
}

func (m *Manager) recordLocked(p engine.PlayerID, outcome Outcome, from, to engine.TeamID) {
	outcomesTotal.WithLabelValues(string(outcome)).Inc()
	m.log.Debugw("Team switch point", "player", p, "outcome", outcome)
	if m.events == nil {
		return
	}
	ev := eventlog.NewEvent(eventlog.EventTypeTeamSwitch, 0, p, eventlog.TeamSwitchPayload{
		Outcome: string(outcome),
		From:    from,
		To:      to,
	})
	ev.MatchID = m.matchID
	m.events.Emit(ev)
}
