package match

import (
	"reflect"
	"testing"

	"team-deathmatch/internal/engine"
)

func TestStatsStoreLifecycle(t *testing.T) {
	s := NewStatsStore()

	if _, ok := s.AddKill(1, false); ok {
		t.Error("untracked player should not be credited")
	}

	s.Join(1)
	s.AddKill(1, true)
	s.AddKill(1, false)
	s.AddDeath(1)
	s.AddAssist(1)

	got, ok := s.Get(1)
	if !ok {
		t.Fatal("player missing after join")
	}
	want := PlayerStats{Kills: 2, Deaths: 1, Assists: 1, Headshots: 1}
	if got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}

	// Re-join resets to zero
	if st := s.Join(1); st != (PlayerStats{}) {
		t.Errorf("rejoin stats = %+v", st)
	}

	s.Join(5)
	s.Join(3)
	if ids := s.IDs(); !reflect.DeepEqual(ids, []engine.PlayerID{1, 3, 5}) {
		t.Errorf("IDs = %v", ids)
	}

	s.Leave(1)
	if _, ok := s.Get(1); ok || s.Len() != 2 {
		t.Error("leave should drop the entry")
	}
}

func TestScoreboardValues(t *testing.T) {
	tests := []struct {
		name  string
		stats PlayerStats
		want  []int
	}{
		{"fresh", PlayerStats{}, []int{0, 0, 0, 0, 0}},
		{"no deaths divides by one", PlayerStats{Kills: 3, Headshots: 1}, []int{3000, 3, 0, 0, 33}},
		{"ratio floors", PlayerStats{Kills: 2, Deaths: 3, Assists: 4}, []int{666, 2, 3, 4, 0}},
		{"all headshots", PlayerStats{Kills: 4, Deaths: 4, Headshots: 4}, []int{1000, 4, 4, 0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreboardValues(tt.stats); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScoreboardValues(%+v) = %v, want %v", tt.stats, got, tt.want)
			}
		})
	}
}
