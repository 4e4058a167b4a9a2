// Package enginetest provides an in-memory engine.Engine and controllable
// waiters for tests.
package enginetest

import (
	"context"
	"sync"
	"time"

	"team-deathmatch/internal/engine"
)

// VOPlay records one PlayVO call
type VOPlay struct {
	VO       engine.VoiceOver
	Audience engine.Audience
}

// Teleport records one Teleport call
type Teleport struct {
	Player engine.PlayerID
	Pos    engine.Vec3
}

// Fake records every outbound call and answers queries from its maps.
// All methods are safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	players    []engine.PlayerID
	teams      map[engine.PlayerID]engine.TeamID
	dead       map[engine.PlayerID]bool
	ground     map[engine.PlayerID]bool
	positions  map[engine.PlayerID]engine.Vec3
	facing     map[engine.PlayerID]engine.Vec3
	velocity   map[engine.PlayerID]engine.Vec3
	restricted map[engine.PlayerID]bool
	uiInput    map[engine.PlayerID]bool
	redeploy   map[engine.PlayerID]int
	ammo       map[engine.PlayerID]map[engine.InventorySlot]int

	objects    map[engine.ObjectID]engine.Vec3
	interacts  map[engine.ObjectID]bool // enabled state of spawned points
	nextObject engine.ObjectID
	hqs        map[engine.HQID]bool

	scores        map[engine.TeamID]int
	target        int
	limit         time.Duration
	remaining     float64
	elapsed       float64
	deployEnabled bool

	widgets       map[string]engine.Widget
	colors        map[string]engine.Color
	vos           []VOPlay
	sfx           []engine.SFX
	notifications map[engine.PlayerID][]engine.Message
	teleports     []Teleport
	undeployed    []engine.PlayerID

	columns []engine.Message
	widths  []int
	sortCol int
	sortAsc bool
	rows    map[engine.PlayerID][]int

	// OnUndeploy, when set, is called after UndeployPlayer records the call
	// and without the fake's lock held, like an engine delivering the
	// undeploy callback synchronously.
	OnUndeploy func(p engine.PlayerID)
}

var _ engine.Engine = (*Fake)(nil)

// NewFake returns an empty world with deploys enabled
func NewFake() *Fake {
	return &Fake{
		teams:         make(map[engine.PlayerID]engine.TeamID),
		dead:          make(map[engine.PlayerID]bool),
		ground:        make(map[engine.PlayerID]bool),
		positions:     make(map[engine.PlayerID]engine.Vec3),
		facing:        make(map[engine.PlayerID]engine.Vec3),
		velocity:      make(map[engine.PlayerID]engine.Vec3),
		restricted:    make(map[engine.PlayerID]bool),
		uiInput:       make(map[engine.PlayerID]bool),
		redeploy:      make(map[engine.PlayerID]int),
		ammo:          make(map[engine.PlayerID]map[engine.InventorySlot]int),
		objects:       make(map[engine.ObjectID]engine.Vec3),
		interacts:     make(map[engine.ObjectID]bool),
		nextObject:    50000,
		hqs:           make(map[engine.HQID]bool),
		scores:        make(map[engine.TeamID]int),
		deployEnabled: true,
		widgets:       make(map[string]engine.Widget),
		colors:        make(map[string]engine.Color),
		notifications: make(map[engine.PlayerID][]engine.Message),
		rows:          make(map[engine.PlayerID][]int),
	}
}

// ---- setup helpers ----

// AddPlayer places a living, grounded player facing +Z
func (f *Fake) AddPlayer(p engine.PlayerID, team engine.TeamID, pos engine.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.players = append(f.players, p)
	f.teams[p] = team
	f.positions[p] = pos
	f.facing[p] = engine.V(0, 0, 1)
	f.ground[p] = true
}

// RemovePlayer drops p from AllPlayers
func (f *Fake) RemovePlayer(p engine.PlayerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range f.players {
		if id == p {
			f.players = append(f.players[:i], f.players[i+1:]...)
			break
		}
	}
}

// AddObject places a spatial marker
func (f *Fake) AddObject(id engine.ObjectID, pos engine.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[id] = pos
}

// SetDead flags p dead or alive
func (f *Fake) SetDead(p engine.PlayerID, dead bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead[p] = dead
}

// SetOnGround sets p's ground state
func (f *Fake) SetOnGround(p engine.PlayerID, onGround bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ground[p] = onGround
}

// SetPosition moves p
func (f *Fake) SetPosition(p engine.PlayerID, pos engine.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[p] = pos
}

// SetVelocity sets p's linear velocity
func (f *Fake) SetVelocity(p engine.PlayerID, v engine.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.velocity[p] = v
}

// SetRemaining sets the match clock remaining seconds
func (f *Fake) SetRemaining(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaining = seconds
}

// SetElapsed sets the match clock elapsed seconds
func (f *Fake) SetElapsed(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapsed = seconds
}

// ---- inspection helpers ----

// VOs returns a copy of every voice-over played
func (f *Fake) VOs() []VOPlay {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]VOPlay(nil), f.vos...)
}

// CountVO counts plays of vo to the given audience
func (f *Fake) CountVO(vo engine.VoiceOver, to engine.Audience) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.vos {
		if v.VO == vo && v.Audience == to {
			n++
		}
	}
	return n
}

// SFX returns a copy of every sound played
func (f *Fake) SFX() []engine.SFX {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.SFX(nil), f.sfx...)
}

// Widget returns a widget by name
func (f *Fake) Widget(name string) (engine.Widget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.widgets[name]
	return w, ok
}

// TextColor returns the last color set on a widget
func (f *Fake) TextColor(name string) engine.Color {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.colors[name]
}

// HQEnabled reports an HQ's enabled state
func (f *Fake) HQEnabled(id engine.HQID) (enabled, set bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	enabled, set = f.hqs[id]
	return enabled, set
}

// DeployEnabled reports the global deploy gate
func (f *Fake) DeployEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deployEnabled
}

// Restricted reports p's input restriction state
func (f *Fake) Restricted(p engine.PlayerID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restricted[p]
}

// UIInputMode reports p's UI input mode
func (f *Fake) UIInputMode(p engine.PlayerID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uiInput[p]
}

// Ammo returns p's magazine ammo in slot
func (f *Fake) Ammo(p engine.PlayerID, slot engine.InventorySlot) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ammo[p][slot]
}

// RedeployTime returns the last redeploy time set for p
func (f *Fake) RedeployTime(p engine.PlayerID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.redeploy[p]
	return v, ok
}

// Row returns p's scoreboard values
func (f *Fake) Row(p engine.PlayerID) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.rows[p]...)
}

// ScoreboardLayout returns the configured columns, widths and sorting
func (f *Fake) ScoreboardLayout() ([]engine.Message, []int, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.columns, f.widths, f.sortCol, f.sortAsc
}

// Rules returns the configured target score and time limit
func (f *Fake) Rules() (int, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target, f.limit
}

// Teleports returns a copy of every teleport
func (f *Fake) Teleports() []Teleport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Teleport(nil), f.teleports...)
}

// Undeployed returns every player UndeployPlayer was called for
func (f *Fake) Undeployed() []engine.PlayerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.PlayerID(nil), f.undeployed...)
}

// Notifications returns the notifications shown to p
func (f *Fake) Notifications(p engine.PlayerID) []engine.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Message(nil), f.notifications[p]...)
}

// LiveInteractPoints returns the spawned, enabled interact points
func (f *Fake) LiveInteractPoints() map[engine.ObjectID]engine.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[engine.ObjectID]engine.Vec3)
	for id, enabled := range f.interacts {
		if enabled {
			out[id] = f.objects[id]
		}
	}
	return out
}

// SpawnedInteractPoints counts interact points still spawned
func (f *Fake) SpawnedInteractPoints() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.interacts)
}

// ---- engine.Players ----

func (f *Fake) AllPlayers() []engine.PlayerID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.PlayerID(nil), f.players...)
}

func (f *Fake) PlayerTeam(p engine.PlayerID) engine.TeamID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teams[p]
}

func (f *Fake) SetPlayerTeam(p engine.PlayerID, t engine.TeamID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teams[p] = t
}

func (f *Fake) IsDead(p engine.PlayerID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dead[p]
}

func (f *Fake) IsOnGround(p engine.PlayerID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ground[p]
}

func (f *Fake) Position(p engine.PlayerID) engine.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.positions[p]
}

func (f *Fake) FacingDirection(p engine.PlayerID) engine.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.facing[p]
}

func (f *Fake) LinearVelocity(p engine.PlayerID) engine.Vec3 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.velocity[p]
}

func (f *Fake) Teleport(p engine.PlayerID, pos engine.Vec3, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[p] = pos
	f.teleports = append(f.teleports, Teleport{Player: p, Pos: pos})
}

func (f *Fake) UndeployPlayer(p engine.PlayerID) {
	f.mu.Lock()
	f.undeployed = append(f.undeployed, p)
	hook := f.OnUndeploy
	f.mu.Unlock()

	if hook != nil {
		hook(p)
	}
}

func (f *Fake) SetRedeployTime(p engine.PlayerID, seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redeploy[p] = seconds
}

func (f *Fake) EnableInputRestrictions(p engine.PlayerID, restricted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restricted[p] = restricted
}

func (f *Fake) EnableAllPlayerDeploy(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployEnabled = enabled
}

func (f *Fake) SetMagazineAmmo(p engine.PlayerID, slot engine.InventorySlot, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ammo[p] == nil {
		f.ammo[p] = make(map[engine.InventorySlot]int)
	}
	f.ammo[p][slot] = amount
}

// ---- engine.Scoring ----

func (f *Fake) GameModeScore(t engine.TeamID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[t]
}

func (f *Fake) SetGameModeScore(t engine.TeamID, score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[t] = score
}

func (f *Fake) SetTargetScore(score int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = score
}

func (f *Fake) SetTimeLimit(limit time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limit = limit
}

func (f *Fake) MatchTimeRemaining() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining
}

func (f *Fake) MatchTimeElapsed() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed
}

// ---- engine.World ----

func (f *Fake) SpatialObject(id engine.ObjectID) (engine.Vec3, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos, ok := f.objects[id]
	return pos, ok
}

func (f *Fake) MoveObject(id engine.ObjectID, pos engine.Vec3) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[id]; ok {
		f.objects[id] = pos
	}
}

func (f *Fake) SpawnInteractPoint(pos engine.Vec3) engine.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextObject++
	f.objects[f.nextObject] = pos
	f.interacts[f.nextObject] = false
	return f.nextObject
}

func (f *Fake) EnableInteractPoint(id engine.ObjectID, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.interacts[id]; ok {
		f.interacts[id] = enabled
	}
}

func (f *Fake) UnspawnObject(id engine.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, id)
	delete(f.interacts, id)
}

func (f *Fake) EnableHQ(id engine.HQID, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hqs[id] = enabled
}

// ---- engine.Audio ----

func (f *Fake) PlayVO(vo engine.VoiceOver, to engine.Audience) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vos = append(f.vos, VOPlay{VO: vo, Audience: to})
}

func (f *Fake) PlaySFX(sfx engine.SFX) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sfx = append(f.sfx, sfx)
}

// ---- engine.UI ----

func (f *Fake) AddWidget(w engine.Widget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.widgets[w.Name] = w
}

func (f *Fake) WidgetExists(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.widgets[name]
	return ok
}

func (f *Fake) SetWidgetText(name string, label engine.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.widgets[name]; ok {
		w.Label = label
		f.widgets[name] = w
	}
}

func (f *Fake) SetWidgetTextColor(name string, c engine.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.widgets[name]; ok {
		f.colors[name] = c
	}
}

// DeleteWidget removes name and its descendants
func (f *Fake) DeleteWidget(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteLocked(name)
}

func (f *Fake) deleteLocked(name string) {
	delete(f.widgets, name)
	delete(f.colors, name)
	for child, w := range f.widgets {
		if w.Parent == name {
			f.deleteLocked(child)
		}
	}
}

func (f *Fake) ShowNotification(p engine.PlayerID, m engine.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[p] = append(f.notifications[p], m)
}

func (f *Fake) EnableUIInputMode(p engine.PlayerID, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uiInput[p] = enabled
}

// ---- engine.Scoreboard ----

func (f *Fake) SetScoreboardColumns(names []engine.Message, widths []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns = names
	f.widths = widths
}

func (f *Fake) SetScoreboardHeader(_, _ engine.Message) {}

func (f *Fake) SetScoreboardSorting(column int, ascending bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sortCol = column
	f.sortAsc = ascending
}

func (f *Fake) SetScoreboardRow(p engine.PlayerID, values []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[p] = append([]int(nil), values...)
}

// ---- waiters ----

// Instant returns immediately unless ctx is already done
type Instant struct{}

// Wait implements engine.Waiter
func (Instant) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Gate blocks every Wait until Release hands it a token or ctx ends
type Gate struct {
	release chan struct{}
	entered chan time.Duration
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{
		release: make(chan struct{}),
		entered: make(chan time.Duration, 256),
	}
}

// Wait implements engine.Waiter
func (g *Gate) Wait(ctx context.Context, d time.Duration) error {
	select {
	case g.entered <- d:
	default:
	}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Entered blocks until some goroutine is suspended in Wait and returns the
// duration it asked for. It fails after timeout.
func (g *Gate) Entered(timeout time.Duration) (time.Duration, bool) {
	select {
	case d := <-g.entered:
		return d, true
	case <-time.After(timeout):
		return 0, false
	}
}

// Release resumes one suspended Wait, blocking until one takes the token
// or timeout passes.
func (g *Gate) Release(timeout time.Duration) bool {
	select {
	case g.release <- struct{}{}:
		return true
	case <-time.After(timeout):
		return false
	}
}
