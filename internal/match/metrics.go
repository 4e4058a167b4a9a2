package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match metrics. Labels are bounded: death types, VO names, phases and
// end reasons are closed sets; no per-player labels.
var (
	killsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_kills_total",
		Help: "Counted kills by death type",
	}, []string{"death"})

	killsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_kills_ignored_total",
		Help: "Kill events that did not score",
	}, []string{"reason"}) // Bounded: "self", "death_type", "ended", "unknown_player"

	teamScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "match_team_score",
		Help: "Current game mode score per team slot",
	}, []string{"team"}) // Bounded: "1", "2"

	matchPhase = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "match_phase",
		Help: "Current lifecycle phase (0 idle .. 5 ended)",
	})

	voicePlays = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_voice_over_total",
		Help: "Voice-over events played",
	}, []string{"vo"})

	matchesEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_ended_total",
		Help: "Matches ended by reason",
	}, []string{"reason"})
)
