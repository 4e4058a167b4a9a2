package host_test

import (
	"context"
	"testing"
	"time"

	"team-deathmatch/internal/config"
	"team-deathmatch/internal/engine"
	"team-deathmatch/internal/engine/enginetest"
	"team-deathmatch/internal/host"
	"team-deathmatch/internal/match"
	"team-deathmatch/internal/teamswitch"
)

type rig struct {
	host       *host.Engine
	controller *match.Controller
	switcher   *teamswitch.Manager
}

func newRig(t *testing.T) *rig {
	t.Helper()

	mcfg := config.DefaultMatch()
	mcfg.TargetScore = 3
	mcfg.Stages = []config.ProgressStage{{Score: 2, VO: mcfg.Stages[0].VO}}

	hcfg := config.DefaultHost()
	h := host.New(hcfg, mcfg.SpawnPointBase, nil)

	tcfg := config.DefaultTeamSwitch()
	tcfg.PollInterval = 5 * time.Millisecond
	sw := teamswitch.New(tcfg, mcfg.OtherTeam, h, nil, teamswitch.Options{})

	c := match.New(mcfg, h, nil, match.Options{
		Waiter:     enginetest.Instant{},
		TeamSwitch: sw,
		MatchID:    "integration",
	})
	h.SetCallbacks(c)

	t.Cleanup(func() {
		c.Close()
		sw.Close()
	})
	return &rig{host: h, controller: c, switcher: sw}
}

func (r *rig) join(t *testing.T, team engine.TeamID) engine.PlayerID {
	t.Helper()
	p, err := r.host.Join("", team)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return p.ID
}

func (r *rig) deployAndLand(t *testing.T, p engine.PlayerID) {
	t.Helper()
	if err := r.host.Deploy(p); err != nil {
		t.Fatalf("Deploy %d: %v", p, err)
	}
	for i := 0; i < 10 && !r.host.IsOnGround(p); i++ {
		r.host.Tick()
	}
	if !r.host.IsOnGround(p) {
		t.Fatalf("player %d never landed", p)
	}
}

func (r *rig) start(t *testing.T) {
	t.Helper()
	if err := r.host.StartMatch(context.Background()); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for r.controller.Snapshot().Phase != match.PhaseActive.String() {
		if time.Now().After(deadline) {
			t.Fatalf("phase = %s, want active", r.controller.Snapshot().Phase)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMatchPlaysToTargetOnHost(t *testing.T) {
	r := newRig(t)
	alice := r.join(t, 1)
	bob := r.join(t, 2)
	r.start(t)

	r.deployAndLand(t, alice)
	for i := 0; i < 3; i++ {
		r.deployAndLand(t, bob)
		if err := r.host.Kill(alice, bob, engine.DeathHeadshot); err != nil {
			t.Fatalf("Kill %d: %v", i, err)
		}
	}

	select {
	case <-r.controller.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("match did not end, phase = %s", r.controller.Snapshot().Phase)
	}

	snap := r.controller.Snapshot()
	if snap.Result == nil || snap.Result.Winner != 1 || snap.Result.Team1 != 3 {
		t.Errorf("result = %+v", snap.Result)
	}
	if got := r.host.GameModeScore(1); got != 3 {
		t.Errorf("host team 1 score = %d", got)
	}
	state := r.host.GetState()
	if state.DeployEnabled {
		t.Error("deploy should be disabled after the match")
	}
	if err := r.host.Deploy(bob); err == nil {
		t.Error("deploy after the match should fail")
	}

	stats, ok := r.controller.Stats(alice)
	if !ok || stats.Kills != 3 || stats.Headshots != 3 {
		t.Errorf("alice stats = %+v", stats)
	}
	// The winning kill ends the match before its undeploy is delivered
	bobStats, _ := r.controller.Stats(bob)
	if bobStats.Deaths != 2 {
		t.Errorf("bob deaths = %d", bobStats.Deaths)
	}
}

func TestTeamSwitchOnHost(t *testing.T) {
	r := newRig(t)
	alice := r.join(t, 1)
	r.start(t)

	r.deployAndLand(t, alice)

	var point engine.ObjectID
	deadline := time.Now().Add(2 * time.Second)
	for {
		state, id, _ := r.switcher.State(alice)
		if state == teamswitch.StateArmed {
			point = id
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("switch point never armed, state = %s", state)
		}
		time.Sleep(time.Millisecond)
	}

	want := r.host.Position(alice).Add(r.host.FacingDirection(alice)).Add(engine.V(0, 1.5, 0))
	if pos, ok := r.host.SpatialObject(point); !ok || pos != want {
		t.Errorf("point at %+v (%v), want %+v", pos, ok, want)
	}

	if err := r.host.Interact(alice, point); err != nil {
		t.Fatalf("Interact: %v", err)
	}

	if got := r.host.PlayerTeam(alice); got != 2 {
		t.Errorf("team after switch = %d, want 2", got)
	}
	if !r.host.IsDead(alice) {
		t.Error("switching team should undeploy the player")
	}
	if _, ok := r.host.SpatialObject(point); ok {
		t.Error("consumed point should be unspawned")
	}
	pl, _ := r.host.GetPlayer(alice)
	if !pl.UIInputMode {
		t.Error("team switch panel should enable UI input mode")
	}
}

func TestRespawnAreaTeleportsOnHost(t *testing.T) {
	r := newRig(t)
	alice := r.join(t, 1)
	bob := r.join(t, 2)
	r.start(t)

	r.deployAndLand(t, alice)
	r.deployAndLand(t, bob)
	if err := r.host.Move(bob, engine.V(0, 0, 0), engine.Vec3{}, engine.Vec3{}); err != nil {
		t.Fatal(err)
	}

	if err := r.host.EnterArea(alice, config.DefaultMatch().RespawnArea); err != nil {
		t.Fatalf("EnterArea: %v", err)
	}
	if r.host.Position(alice) == (engine.Vec3{}) {
		t.Error("alice should be teleported to a spawn point")
	}
}
