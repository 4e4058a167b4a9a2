// Package match implements the team deathmatch controller: the lifecycle
// state machine, the timer and progress tracker, per-player stats with their
// scoreboard projection, and spawn selection away from living enemies.
//
// The Controller implements engine.Callbacks. All match state is confined
// behind one mutex; suspensions (freeze, settle) run in goroutines that
// re-check state when they resume.
package match

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"team-deathmatch/internal/config"
	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/eventlog"
)

var (
	// ErrAlreadyStarted is returned when the game mode is started twice
	ErrAlreadyStarted = errors.New("match already started")
	// ErrClosed is returned when starting a closed controller
	ErrClosed = errors.New("match controller closed")
)

// TeamSwitcher receives the per-player events the team switch subsystem
// needs. Calls are made without the controller lock held.
type TeamSwitcher interface {
	Join(p engine.PlayerID)
	Leave(p engine.PlayerID)
	Deployed(p engine.PlayerID)
	Undeployed(p engine.PlayerID)
	Interact(p engine.PlayerID, point engine.ObjectID) bool
	Tick(p engine.PlayerID)
}

// Options carries optional collaborators
type Options struct {
	Waiter     engine.Waiter    // Defaults to engine.WallClock
	Events     eventlog.Emitter // Optional
	TeamSwitch TeamSwitcher     // Optional
	Rand       *rand.Rand       // Cosmetic millisecond jitter
	MatchID    string           // Defaults to a random UUID
}

// Controller owns the state of one match
type Controller struct {
	mu       sync.Mutex
	cfg      config.MatchConfig
	eng      engine.Engine
	waiter   engine.Waiter
	events   eventlog.Emitter
	switcher TeamSwitcher
	log      *zap.SugaredLogger
	rng      *rand.Rand
	matchID  string

	phase          Phase
	started        bool
	ended          bool
	closed         bool
	tick           uint64
	leader         engine.TeamID
	hasLeader      bool
	stageAnnounced []bool
	timeWarned     [len(timeWarnings)]bool
	spawns         []engine.Vec3
	stats          *StatsStore
	result         *Result

	ctx       context.Context
	cancel    context.CancelFunc
	stopAfter func() bool
	wg        sync.WaitGroup
	done      chan struct{}
}

// New creates a controller in the Idle phase
func New(cfg config.MatchConfig, eng engine.Engine, logger *zap.Logger, opts Options) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Waiter == nil {
		opts.Waiter = engine.WallClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.MatchID == "" {
		opts.MatchID = uuid.NewString()
	}

	log := logger.Sugar().Named("match").With("match", opts.MatchID)
	if reachable := cfg.ReachableStages(); len(reachable) < len(cfg.Stages) {
		log.Warnw("Progress stages at or above target will never fire",
			"target", cfg.TargetScore, "stages", len(cfg.Stages), "reachable", len(reachable))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:            cfg,
		eng:            eng,
		waiter:         opts.Waiter,
		events:         opts.Events,
		switcher:       opts.TeamSwitch,
		log:            log,
		rng:            opts.Rand,
		matchID:        opts.MatchID,
		stageAnnounced: make([]bool, len(cfg.Stages)),
		stats:          NewStatsStore(),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
}

// MatchID returns the id stamped on every event of this match
func (c *Controller) MatchID() string {
	return c.matchID
}

// Done is closed once the match reaches the Ended phase
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// OnGameModeStarted runs Setup and schedules the end of the freeze. ctx
// bounds the freeze and settle suspensions.
func (c *Controller) OnGameModeStarted(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.phase != PhaseIdle {
		return ErrAlreadyStarted
	}

	c.setPhaseLocked(PhaseSetup)

	c.spawns = DiscoverSpawnPoints(c.eng, c.cfg.SpawnPointBase)
	if len(c.spawns) == 0 {
		c.log.Warnw("No spawn markers found", "base", c.cfg.SpawnPointBase)
	}
	c.buildScoreUILocked()
	c.buildCountdownUILocked()

	c.eng.EnableHQ(c.cfg.HQInProgressTeam1, false)
	c.eng.EnableHQ(c.cfg.HQInProgressTeam2, false)
	c.eng.SetTargetScore(c.cfg.TargetScore)
	c.eng.SetTimeLimit(c.cfg.TimeLimit)
	c.initScoreboardLocked()

	c.setPhaseLocked(PhaseFreeze)
	c.log.Infow("Match set up",
		"spawnPoints", len(c.spawns),
		"players", c.stats.Len(),
		"freeze", c.cfg.FreezeTime,
		"timeLimit", c.cfg.TimeLimit,
	)

	c.stopAfter = context.AfterFunc(ctx, c.cancel)
	c.wg.Add(1)
	go c.runFreeze()
	return nil
}

func (c *Controller) runFreeze() {
	defer c.wg.Done()

	if err := c.waiter.Wait(c.ctx, c.cfg.FreezeTime); err != nil {
		c.log.Infow("Freeze interrupted", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended || c.phase != PhaseFreeze {
		return
	}

	c.started = true
	c.eng.EnableHQ(c.cfg.HQRoundStartTeam1, false)
	c.eng.EnableHQ(c.cfg.HQRoundStartTeam2, false)
	c.eng.EnableHQ(c.cfg.HQInProgressTeam1, true)
	c.eng.EnableHQ(c.cfg.HQInProgressTeam2, true)
	c.playVOLocked(engine.VORoundStartGeneric, engine.Everyone())
	c.removeWidgetLocked(WidgetCountdown)
	c.setPhaseLocked(PhaseActive)
}

// endMatchLocked runs the end sequence once
func (c *Controller) endMatchLocked(reason EndReason) {
	if c.ended {
		return
	}
	c.ended = true

	if !c.started {
		// Ended during the freeze; runFreeze will not clear the countdown.
		c.removeWidgetLocked(WidgetCountdown)
	}
	c.removeWidgetLocked(WidgetScore)
	c.eng.EnableAllPlayerDeploy(false)

	score1 := c.eng.GameModeScore(c.cfg.Team1)
	score2 := c.eng.GameModeScore(c.cfg.Team2)
	res := &Result{Reason: reason, Team1: score1, Team2: score2}
	switch {
	case score1 > score2:
		res.Winner = c.cfg.Team1
	case score2 > score1:
		res.Winner = c.cfg.Team2
	default:
		res.Draw = true
	}
	c.result = res

	c.setPhaseLocked(PhaseEnding)
	matchesEnded.WithLabelValues(string(reason)).Inc()
	c.emitLocked(eventlog.EventTypeMatchEnd, 0, eventlog.MatchEndPayload{
		Reason: string(reason),
		Winner: res.Winner,
		Team1:  score1,
		Team2:  score2,
	})
	c.log.Infow("Match ending", "reason", reason, "winner", res.Winner, "team1", score1, "team2", score2)

	if c.closed {
		c.setPhaseLocked(PhaseEnded)
		return
	}
	c.wg.Add(1)
	go c.runSettle()
}

func (c *Controller) runSettle() {
	defer c.wg.Done()

	if err := c.waiter.Wait(c.ctx, c.cfg.SettleDelay); err != nil {
		c.log.Infow("Settle interrupted", "error", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPhaseLocked(PhaseEnded)
}

func (c *Controller) setPhaseLocked(next Phase) {
	prev := c.phase
	if prev == next {
		return
	}
	c.phase = next
	matchPhase.Set(float64(next))
	c.emitLocked(eventlog.EventTypePhase, 0, eventlog.PhasePayload{From: prev.String(), To: next.String()})
	c.log.Debugw("Phase changed", "from", prev, "to", next)

	if next == PhaseEnded {
		close(c.done)
	}
}

func (c *Controller) playVOLocked(vo engine.VoiceOver, to engine.Audience) {
	c.eng.PlayVO(vo, to)
	voicePlays.WithLabelValues(string(vo)).Inc()
	c.emitLocked(eventlog.EventTypeVoiceOver, 0, eventlog.VoiceOverPayload{VO: vo, Audience: to})
}

func (c *Controller) emitLocked(t eventlog.EventType, p engine.PlayerID, payload interface{}) {
	if c.events == nil {
		return
	}
	ev := eventlog.NewEvent(t, c.tick, p, payload)
	ev.MatchID = c.matchID
	c.events.Emit(ev)
}

// Close cancels in-flight suspensions and waits for them to return
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	stop := c.stopAfter
	c.mu.Unlock()

	c.cancel()
	if stop != nil {
		stop()
	}
	c.wg.Wait()
}

// Snapshot is a copy of the match state for observers
type Snapshot struct {
	MatchID         string        `json:"matchId"`
	Phase           string        `json:"phase"`
	Started         bool          `json:"started"`
	Ended           bool          `json:"ended"`
	Tick            uint64        `json:"tick"`
	Team1Score      int           `json:"team1Score"`
	Team2Score      int           `json:"team2Score"`
	TargetScore     int           `json:"targetScore"`
	Leader          engine.TeamID `json:"leader,omitempty"`
	StagesAnnounced []int         `json:"stagesAnnounced"`
	TimeWarnings    []int         `json:"timeWarnings"`
	Remaining       float64       `json:"remaining"`
	SpawnPoints     int           `json:"spawnPoints"`
	Players         int           `json:"players"`
	Result          *Result       `json:"result,omitempty"`
}

// Snapshot returns the current match state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		MatchID:         c.matchID,
		Phase:           c.phase.String(),
		Started:         c.started,
		Ended:           c.ended,
		Tick:            c.tick,
		TargetScore:     c.cfg.TargetScore,
		StagesAnnounced: []int{},
		TimeWarnings:    []int{},
		SpawnPoints:     len(c.spawns),
		Players:         c.stats.Len(),
	}
	if c.phase != PhaseIdle {
		s.Team1Score = c.eng.GameModeScore(c.cfg.Team1)
		s.Team2Score = c.eng.GameModeScore(c.cfg.Team2)
		s.Remaining = c.eng.MatchTimeRemaining()
	}
	if c.hasLeader {
		s.Leader = c.leader
	}
	for i, stage := range c.cfg.Stages {
		if c.stageAnnounced[i] {
			s.StagesAnnounced = append(s.StagesAnnounced, stage.Score)
		}
	}
	for i, w := range timeWarnings {
		if c.timeWarned[i] {
			s.TimeWarnings = append(s.TimeWarnings, w.below)
		}
	}
	if c.result != nil {
		r := *c.result
		s.Result = &r
	}
	return s
}

// Scoreboard returns one row per joined player, ordered by player id
func (c *Controller) Scoreboard() []ScoreboardRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]ScoreboardRow, 0, c.stats.Len())
	for _, p := range c.stats.IDs() {
		st, _ := c.stats.Get(p)
		rows = append(rows, ScoreboardRow{
			Player: p,
			Team:   c.eng.PlayerTeam(p),
			Stats:  st,
			Values: ScoreboardValues(st),
		})
	}
	return rows
}

// Stats returns a copy of p's counters
func (c *Controller) Stats(p engine.PlayerID) (PlayerStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats.Get(p)
}
