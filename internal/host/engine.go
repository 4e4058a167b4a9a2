// Package host is an in-process simulated game engine. It keeps player,
// object, score and UI state, drives the global and per-player ticks at a
// fixed rate, and delivers engine callbacks to a game mode. Callbacks are
// never invoked while the host's own lock is held.
package host

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"team-deathmatch/internal/config"
	"team-deathmatch/internal/engine"
)

var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrUnknownObject   = errors.New("unknown interact point")
	ErrGameFull        = errors.New("player limit reached")
	ErrDeployDisabled  = errors.New("deploy disabled")
	ErrAlreadyDeployed = errors.New("player already deployed")
	ErrNotDeployed     = errors.New("player not deployed")
)

const (
	interactPointBase = 100000 // Runtime-spawned objects start here
	landingTicks      = 6      // Ticks a fresh deploy spends airborne
	deployHeight      = 10
	recentVOs         = 32
	recentNotices     = 8
)

// Player is the host-side soldier state
type Player struct {
	ID           engine.PlayerID `json:"id"`
	Name         string          `json:"name"`
	Team         engine.TeamID   `json:"team"`
	Deployed     bool            `json:"deployed"`
	OnGround     bool            `json:"onGround"`
	Position     engine.Vec3     `json:"position"`
	Facing       engine.Vec3     `json:"facing"`
	Velocity     engine.Vec3     `json:"velocity"`
	Restricted   bool            `json:"restricted"`
	UIInputMode  bool            `json:"uiInputMode"`
	RedeployTime int             `json:"redeployTime"`
	Ammo         [2]int          `json:"ammo"`
	Scoreboard   []int           `json:"scoreboard,omitempty"`

	landing       int
	velocityFresh bool
	notices       []engine.Message
}

type object struct {
	pos      engine.Vec3
	interact bool
	enabled  bool
}

// VOPlay is one voice-over the host played
type VOPlay struct {
	VO       engine.VoiceOver `json:"vo"`
	Audience engine.Audience  `json:"audience"`
	Tick     uint64           `json:"tick"`
}

// Engine is the simulated host
type Engine struct {
	mu        sync.RWMutex
	cfg       config.HostConfig
	log       *zap.SugaredLogger
	callbacks engine.Callbacks

	players    map[engine.PlayerID]*Player
	nextPlayer engine.PlayerID
	objects    map[engine.ObjectID]*object
	nextObject engine.ObjectID
	hqs        map[engine.HQID]bool

	scores        map[engine.TeamID]int
	targetScore   int
	timeLimit     time.Duration
	elapsed       time.Duration
	clockRunning  bool
	deployEnabled bool

	widgets map[string]engine.Widget
	colors  map[string]engine.Color
	vos     []VOPlay
	sfx     int

	columns []engine.Message
	widths  []int
	sortCol int
	sortAsc bool

	tickCount uint64
	running   bool
	ticker    *time.Ticker
	stopChan  chan struct{}
	doneChan  chan struct{}
}

var _ engine.Engine = (*Engine)(nil)

// New creates a host with spawn markers placed at spawnBase, spawnBase+1, ...
func New(cfg config.HostConfig, spawnBase engine.ObjectID, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 30
	}

	e := &Engine{
		cfg:           cfg,
		log:           logger.Sugar().Named("host"),
		players:       make(map[engine.PlayerID]*Player),
		objects:       make(map[engine.ObjectID]*object),
		nextObject:    interactPointBase,
		hqs:           make(map[engine.HQID]bool),
		scores:        make(map[engine.TeamID]int),
		deployEnabled: true,
		widgets:       make(map[string]engine.Widget),
		colors:        make(map[string]engine.Color),
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
	for i, pos := range cfg.SpawnMarkers {
		e.objects[spawnBase+engine.ObjectID(i)] = &object{pos: pos}
	}
	return e
}

// SetCallbacks installs the game mode. Must be called before Start.
func (e *Engine) SetCallbacks(cb engine.Callbacks) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callbacks = cb
}

func (e *Engine) game() engine.Callbacks {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.callbacks
}

// Start begins the tick loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(e.TickInterval())
	e.mu.Unlock()

	go func() {
		defer close(e.doneChan)
		for {
			select {
			case <-e.ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	e.log.Infow("Host engine started", "tickRate", e.cfg.TickRate)
}

// Stop ends the tick loop and waits for the in-flight tick
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	e.mu.Unlock()

	<-e.doneChan
	e.log.Infow("Host engine stopped", "ticks", e.TickCount())
}

// Run starts the loop and blocks until ctx is done
func (e *Engine) Run(ctx context.Context) error {
	e.Start()
	<-ctx.Done()
	e.Stop()
	return nil
}

// TickInterval is the wall time between ticks
func (e *Engine) TickInterval() time.Duration {
	return time.Second / time.Duration(e.cfg.TickRate)
}

// TickCount returns the number of ticks run
func (e *Engine) TickCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tickCount
}

// Tick advances the simulation one frame and runs the ongoing callbacks
func (e *Engine) Tick() {
	start := time.Now()

	e.mu.Lock()
	e.tickCount++
	if e.clockRunning {
		e.elapsed += e.TickInterval()
	}
	for _, p := range e.players {
		if p.velocityFresh {
			p.velocityFresh = false
		} else {
			p.Velocity = engine.Vec3{}
		}
		if p.Deployed && !p.OnGround {
			p.landing--
			if p.landing <= 0 {
				p.OnGround = true
				p.Position.Y = 0
			}
		}
	}
	ids := e.playerIDsLocked()
	cb := e.callbacks
	e.mu.Unlock()

	if cb != nil {
		cb.OngoingGlobal()
		for _, id := range ids {
			cb.OngoingPlayer(id)
		}
	}

	tickDuration.Observe(time.Since(start).Seconds())
}

func (e *Engine) playerIDsLocked() []engine.PlayerID {
	ids := make([]engine.PlayerID, 0, len(e.players))
	for id := range e.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
