package config

import (
	"strconv"
	"testing"
	"time"

	"team-deathmatch/internal/engine"
)

func TestDefaultMatchIsValid(t *testing.T) {
	cfg := DefaultMatch()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default match config invalid: %v", err)
	}
	if cfg.TimeLimit != 615*time.Second {
		t.Errorf("TimeLimit = %v, want 10m15s", cfg.TimeLimit)
	}
	if len(cfg.Stages) != 3 {
		t.Fatalf("expected 3 progress stages, got %d", len(cfg.Stages))
	}
	if cfg.Stages[1].VO.Winning != engine.VOProgressLateWinning {
		t.Errorf("mid stage winning VO = %s", cfg.Stages[1].VO.Winning)
	}
}

func TestMatchValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MatchConfig)
	}{
		{"zero target", func(c *MatchConfig) { c.TargetScore = 0 }},
		{"freeze longer than limit", func(c *MatchConfig) { c.FreezeTime = c.TimeLimit }},
		{"same teams", func(c *MatchConfig) { c.Team2 = c.Team1 }},
		{"no team", func(c *MatchConfig) { c.Team1 = engine.NoTeam }},
		{"zero stage", func(c *MatchConfig) { c.Stages[0].Score = 0 }},
		{"duplicate stage", func(c *MatchConfig) { c.Stages[1].Score = c.Stages[0].Score }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMatch()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOtherTeam(t *testing.T) {
	cfg := DefaultMatch()
	if got := cfg.OtherTeam(cfg.Team1); got != cfg.Team2 {
		t.Errorf("OtherTeam(team1) = %d", got)
	}
	if got := cfg.OtherTeam(cfg.Team2); got != cfg.Team1 {
		t.Errorf("OtherTeam(team2) = %d", got)
	}
}

func TestMatchFromEnv(t *testing.T) {
	t.Setenv("MATCH_TARGET_SCORE", "100")
	t.Setenv("MATCH_FREEZE_TIME", "0s")
	t.Setenv("MATCH_MAX_STARTING_AMMO", "false")

	cfg, err := MatchFromEnv()
	if err != nil {
		t.Fatalf("MatchFromEnv: %v", err)
	}
	if cfg.TargetScore != 100 {
		t.Errorf("TargetScore = %d", cfg.TargetScore)
	}
	if cfg.FreezeTime != 0 {
		t.Errorf("FreezeTime = %v", cfg.FreezeTime)
	}
	if cfg.MaxStartingAmmo {
		t.Error("MaxStartingAmmo should be disabled")
	}
}

func TestMatchFromEnvDropsUnreachableStages(t *testing.T) {
	tests := []struct {
		target int
		want   []int
	}{
		{50, []int{20, 40}},
		{65, []int{20, 40}},
		{66, []int{20, 40, 65}},
		{10, []int{}},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.target), func(t *testing.T) {
			t.Setenv("MATCH_TARGET_SCORE", strconv.Itoa(tt.target))

			cfg, err := MatchFromEnv()
			if err != nil {
				t.Fatalf("MatchFromEnv: %v", err)
			}
			if len(cfg.Stages) != len(tt.want) {
				t.Fatalf("stages = %+v, want scores %v", cfg.Stages, tt.want)
			}
			for i, score := range tt.want {
				if cfg.Stages[i].Score != score {
					t.Errorf("stage %d = %d, want %d", i, cfg.Stages[i].Score, score)
				}
			}
		})
	}
}

func TestLoadLowTargetScore(t *testing.T) {
	t.Setenv("MATCH_TARGET_SCORE", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Match.TargetScore != 50 || len(cfg.Match.Stages) != 2 {
		t.Errorf("match = target %d, %d stages", cfg.Match.TargetScore, len(cfg.Match.Stages))
	}
}

func TestMatchFromEnvRejectsBadRules(t *testing.T) {
	t.Setenv("MATCH_TIME_LIMIT", "10s")
	t.Setenv("MATCH_FREEZE_TIME", "30s")

	if _, err := MatchFromEnv(); err == nil {
		t.Error("expected error for freeze longer than the time limit")
	}
}

func TestParseVectors(t *testing.T) {
	got, err := ParseVectors("1,2,3; -4.5, 0, 6 ;")
	if err != nil {
		t.Fatalf("ParseVectors: %v", err)
	}
	want := []engine.Vec3{engine.V(1, 2, 3), engine.V(-4.5, 0, 6)}
	if len(got) != len(want) {
		t.Fatalf("got %d vectors, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("vector %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	for _, bad := range []string{"1,2", "a,b,c"} {
		if _, err := ParseVectors(bad); err == nil {
			t.Errorf("ParseVectors(%q) should fail", bad)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("HOST_SPAWN_MARKERS", "0,1,0;5,1,5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8088 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if len(cfg.Host.SpawnMarkers) != 2 {
		t.Errorf("SpawnMarkers = %v", cfg.Host.SpawnMarkers)
	}
	if !cfg.TeamSwitch.Enabled {
		t.Error("team switch should default to enabled")
	}
}
