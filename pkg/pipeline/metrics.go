package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cursorGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mlb_pipeline_cursor",
		Help: "Index of the next team whose roster has not been requested",
	})

	playersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mlb_pipeline_players",
		Help: "Number of players in the aggregate set",
	})

	phaseGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mlb_pipeline_phase",
		Help: "Current pipeline phase (1 for the active phase)",
	}, []string{"phase"})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlb_pipeline_refreshes_total",
		Help: "Total number of refreshes",
	})

	staleResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlb_pipeline_stale_results_total",
		Help: "Total number of fetch results dropped because a refresh replaced their generation",
	})
)

func recordPhase(current Phase) {
	for p := PhaseIdle; p <= PhaseError; p++ {
		v := 0.0
		if p == current {
			v = 1
		}
		phaseGauge.WithLabelValues(p.String()).Set(v)
	}
}
