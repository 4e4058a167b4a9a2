package match

import (
	"sort"

	"team-deathmatch/internal/engine"
)

// PlayerStats are the per-player counters behind the scoreboard
type PlayerStats struct {
	Kills     int `json:"kills"`
	Deaths    int `json:"deaths"`
	Assists   int `json:"assists"`
	Headshots int `json:"headshots"`
}

// StatsStore maps joined players to their counters. It is not safe for
// concurrent use; the controller confines it behind its mutex.
type StatsStore struct {
	players map[engine.PlayerID]*PlayerStats
}

// NewStatsStore creates an empty store
func NewStatsStore() *StatsStore {
	return &StatsStore{players: make(map[engine.PlayerID]*PlayerStats)}
}

// Join resets p to all-zero counters
func (s *StatsStore) Join(p engine.PlayerID) PlayerStats {
	st := &PlayerStats{}
	s.players[p] = st
	return *st
}

// Leave drops p
func (s *StatsStore) Leave(p engine.PlayerID) {
	delete(s.players, p)
}

// Get returns a copy of p's counters
func (s *StatsStore) Get(p engine.PlayerID) (PlayerStats, bool) {
	st, ok := s.players[p]
	if !ok {
		return PlayerStats{}, false
	}
	return *st, true
}

// AddKill credits a kill, and a headshot when the death type says so
func (s *StatsStore) AddKill(p engine.PlayerID, headshot bool) (PlayerStats, bool) {
	return s.update(p, func(st *PlayerStats) {
		st.Kills++
		if headshot {
			st.Headshots++
		}
	})
}

// AddDeath counts an undeploy
func (s *StatsStore) AddDeath(p engine.PlayerID) (PlayerStats, bool) {
	return s.update(p, func(st *PlayerStats) { st.Deaths++ })
}

// AddAssist counts a kill assist
func (s *StatsStore) AddAssist(p engine.PlayerID) (PlayerStats, bool) {
	return s.update(p, func(st *PlayerStats) { st.Assists++ })
}

func (s *StatsStore) update(p engine.PlayerID, fn func(*PlayerStats)) (PlayerStats, bool) {
	st, ok := s.players[p]
	if !ok {
		return PlayerStats{}, false
	}
	fn(st)
	return *st, true
}

// Len returns the number of tracked players
func (s *StatsStore) Len() int {
	return len(s.players)
}

// IDs returns tracked players in ascending order
func (s *StatsStore) IDs() []engine.PlayerID {
	ids := make([]engine.PlayerID, 0, len(s.players))
	for id := range s.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
