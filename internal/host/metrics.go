package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "host_tick_duration_seconds",
		Help:    "Duration of a host tick including game mode callbacks",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05},
	})

	playerCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "host_player_count",
		Help: "Players currently joined to the host",
	})
)
