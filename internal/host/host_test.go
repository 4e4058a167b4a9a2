package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"team-deathmatch/internal/config"
	"team-deathmatch/internal/engine"
)

// recorder is a game mode that logs every callback it receives
type recorder struct {
	mu     sync.Mutex
	host   *Engine
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) OnGameModeStarted(ctx context.Context) error {
	r.add("started")
	return nil
}
func (r *recorder) OnPlayerJoinGame(p engine.PlayerID)  { r.add("join %d", p) }
func (r *recorder) OnPlayerLeaveGame(p engine.PlayerID) { r.add("leave %d", p) }
func (r *recorder) OnPlayerDeployed(p engine.PlayerID)  { r.add("deploy %d", p) }
func (r *recorder) OnPlayerUndeploy(p engine.PlayerID) {
	// Re-entering the host proves no lock is held during delivery
	r.add("undeploy %d dead=%v", p, r.host.IsDead(p))
}
func (r *recorder) OnPlayerEnterAreaTrigger(p engine.PlayerID, a engine.AreaID) {
	r.add("area %d %d", p, a)
}
func (r *recorder) OnPlayerEarnedKill(k, v engine.PlayerID, d engine.DeathType) {
	r.add("kill %d %d %s", k, v, d)
}
func (r *recorder) OnPlayerEarnedKillAssist(p, o engine.PlayerID) { r.add("assist %d %d", p, o) }
func (r *recorder) OnPlayerInteract(p engine.PlayerID, o engine.ObjectID) {
	r.add("interact %d %d", p, o)
}
func (r *recorder) OngoingGlobal()                  { r.add("global") }
func (r *recorder) OngoingPlayer(p engine.PlayerID) { r.add("player %d", p) }

func newTestHost(t *testing.T, maxPlayers int) (*Engine, *recorder) {
	t.Helper()
	cfg := config.HostConfig{
		TickRate:     30,
		MaxPlayers:   maxPlayers,
		SpawnMarkers: []engine.Vec3{engine.V(0, 0, 0), engine.V(50, 0, 50)},
	}
	h := New(cfg, 9001, nil)
	r := &recorder{host: h}
	h.SetCallbacks(r)
	return h, r
}

func mustJoin(t *testing.T, h *Engine, team engine.TeamID) engine.PlayerID {
	t.Helper()
	p, err := h.Join("", team)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return p.ID
}

func TestSpawnMarkersSeeded(t *testing.T) {
	h, _ := newTestHost(t, 0)

	pos, ok := h.SpatialObject(9002)
	if !ok || pos != engine.V(50, 0, 50) {
		t.Errorf("marker 9002 = %+v, %v", pos, ok)
	}
	if _, ok := h.SpatialObject(9003); ok {
		t.Error("marker 9003 should not exist")
	}
}

func TestJoinBalancesTeamsAndCaps(t *testing.T) {
	h, r := newTestHost(t, 3)

	a := mustJoin(t, h, engine.NoTeam)
	b := mustJoin(t, h, engine.NoTeam)
	c := mustJoin(t, h, 2)

	if h.PlayerTeam(a) != 1 || h.PlayerTeam(b) != 2 || h.PlayerTeam(c) != 2 {
		t.Errorf("teams = %d %d %d", h.PlayerTeam(a), h.PlayerTeam(b), h.PlayerTeam(c))
	}
	if _, err := h.Join("late", 1); !errors.Is(err, ErrGameFull) {
		t.Errorf("fourth join err = %v, want ErrGameFull", err)
	}
	if got := len(r.log()); got != 3 {
		t.Errorf("callbacks = %d, want 3 joins", got)
	}
}

func TestDeployLandsAfterTicks(t *testing.T) {
	h, _ := newTestHost(t, 0)
	p := mustJoin(t, h, 1)

	if !h.IsDead(p) {
		t.Error("undeployed player should report dead")
	}
	if err := h.Deploy(p); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if h.IsDead(p) || h.IsOnGround(p) {
		t.Fatal("fresh deploy should be alive and airborne")
	}
	if err := h.Deploy(p); !errors.Is(err, ErrAlreadyDeployed) {
		t.Errorf("second deploy err = %v", err)
	}

	for i := 0; i < landingTicks; i++ {
		h.Tick()
	}
	if !h.IsOnGround(p) {
		t.Error("player should have landed")
	}
	if h.Position(p).Y != 0 {
		t.Errorf("landed at Y=%v", h.Position(p).Y)
	}
}

func TestDeployDisabled(t *testing.T) {
	h, _ := newTestHost(t, 0)
	p := mustJoin(t, h, 1)

	h.EnableAllPlayerDeploy(false)
	if err := h.Deploy(p); !errors.Is(err, ErrDeployDisabled) {
		t.Errorf("Deploy err = %v, want ErrDeployDisabled", err)
	}
}

func TestKillDeliversKillThenUndeploy(t *testing.T) {
	h, r := newTestHost(t, 0)
	a := mustJoin(t, h, 1)
	b := mustJoin(t, h, 2)
	if err := h.Deploy(b); err != nil {
		t.Fatal(err)
	}

	if err := h.Kill(a, b, engine.DeathHeadshot); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	log := r.log()
	want := []string{"kill 1 2 headshot", "undeploy 2 dead=true"}
	got := log[len(log)-2:]
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}

	if err := h.Kill(a, b, engine.DeathNormal); !errors.Is(err, ErrNotDeployed) {
		t.Errorf("killing an undeployed victim err = %v", err)
	}
}

func TestUndeployPlayerIsSynchronous(t *testing.T) {
	h, r := newTestHost(t, 0)
	p := mustJoin(t, h, 1)
	_ = h.Deploy(p)

	h.UndeployPlayer(p)
	log := r.log()
	if log[len(log)-1] != "undeploy 1 dead=true" {
		t.Errorf("last event = %q", log[len(log)-1])
	}

	// Second call is a no-op
	before := len(r.log())
	h.UndeployPlayer(p)
	if len(r.log()) != before {
		t.Error("undeploying an undeployed player should not call back")
	}
}

func TestTickRunsGlobalThenPlayers(t *testing.T) {
	h, r := newTestHost(t, 0)
	mustJoin(t, h, 1)
	mustJoin(t, h, 2)
	before := len(r.log())

	h.Tick()

	got := r.log()[before:]
	want := []string{"global", "player 1", "player 2"}
	if len(got) != len(want) {
		t.Fatalf("events = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClockAdvancesOnlyAfterTimeLimit(t *testing.T) {
	h, _ := newTestHost(t, 0)

	h.Tick()
	if h.MatchTimeElapsed() != 0 {
		t.Errorf("elapsed before limit = %v", h.MatchTimeElapsed())
	}

	h.SetTimeLimit(time.Second)
	for i := 0; i < 15; i++ {
		h.Tick()
	}
	if got := h.MatchTimeRemaining(); got < 0.49 || got > 0.51 {
		t.Errorf("remaining = %v, want ~0.5", got)
	}
	for i := 0; i < 30; i++ {
		h.Tick()
	}
	if h.MatchTimeRemaining() != 0 {
		t.Errorf("remaining should floor at 0, got %v", h.MatchTimeRemaining())
	}
}

func TestVelocityLastsOneTick(t *testing.T) {
	h, _ := newTestHost(t, 0)
	p := mustJoin(t, h, 1)

	if err := h.Move(p, engine.V(1, 0, 1), engine.Vec3{}, engine.V(4, 0, 0)); err != nil {
		t.Fatal(err)
	}
	h.Tick()
	if h.LinearVelocity(p) != engine.V(4, 0, 0) {
		t.Errorf("velocity after first tick = %+v", h.LinearVelocity(p))
	}
	h.Tick()
	if h.LinearVelocity(p) != (engine.Vec3{}) {
		t.Errorf("velocity after second tick = %+v", h.LinearVelocity(p))
	}
	if h.FacingDirection(p) != engine.V(0, 0, 1) {
		t.Error("zero facing should keep the previous direction")
	}
}

func TestInteractRequiresEnabledPoint(t *testing.T) {
	h, r := newTestHost(t, 0)
	p := mustJoin(t, h, 1)

	id := h.SpawnInteractPoint(engine.V(0, 1, 2))
	if err := h.Interact(p, id); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("disabled point err = %v", err)
	}

	h.EnableInteractPoint(id, true)
	if err := h.Interact(p, id); err != nil {
		t.Fatalf("Interact: %v", err)
	}
	log := r.log()
	if want := fmt.Sprintf("interact %d %d", p, id); log[len(log)-1] != want {
		t.Errorf("last event = %q, want %q", log[len(log)-1], want)
	}

	if err := h.Interact(p, 9001); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("spawn marker should not be interactable, err = %v", err)
	}
}

func TestDeleteWidgetIsRecursive(t *testing.T) {
	h, _ := newTestHost(t, 0)
	h.AddWidget(engine.Widget{Name: "root"})
	h.AddWidget(engine.Widget{Name: "child", Parent: "root"})
	h.AddWidget(engine.Widget{Name: "grandchild", Parent: "child"})
	h.AddWidget(engine.Widget{Name: "other"})

	h.DeleteWidget("root")

	for _, name := range []string{"root", "child", "grandchild"} {
		if h.WidgetExists(name) {
			t.Errorf("%s should be deleted", name)
		}
	}
	if !h.WidgetExists("other") {
		t.Error("unrelated widget deleted")
	}
}

func TestTeleportFacesYaw(t *testing.T) {
	h, _ := newTestHost(t, 0)
	p := mustJoin(t, h, 1)

	h.Teleport(p, engine.V(3, 0, 4), 0)
	if h.Position(p) != engine.V(3, 0, 4) {
		t.Errorf("position = %+v", h.Position(p))
	}
	if h.FacingDirection(p) != engine.V(0, 0, 1) {
		t.Errorf("facing = %+v", h.FacingDirection(p))
	}
}

func TestStartStop(t *testing.T) {
	h, _ := newTestHost(t, 0)
	h.Start()
	h.Start()

	deadline := time.Now().Add(2 * time.Second)
	for h.TickCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	h.Stop()
	h.Stop()

	if h.TickCount() < 3 {
		t.Errorf("ticks = %d, want at least 3", h.TickCount())
	}
	n := h.TickCount()
	time.Sleep(100 * time.Millisecond)
	if h.TickCount() != n {
		t.Error("ticks advanced after Stop")
	}
}

func TestLeaveUnknownPlayer(t *testing.T) {
	h, _ := newTestHost(t, 0)
	if err := h.Leave(42); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("Leave err = %v", err)
	}
	if err := h.EnterArea(42, 1000); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("EnterArea err = %v", err)
	}
}
