package qec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// runsTotal counts executed runs by final status
	// Labels: "completed", "failed"
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qec_runs_total",
		Help: "Total correction runs by final status",
	}, []string{"status"})

	// trialsTotal counts trials by outcome
	// Labels: "recovered", "logical_error", "unknown_syndrome"
	trialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qec_trials_total",
		Help: "Total correction trials by outcome",
	}, []string{"outcome"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qec_run_duration_seconds",
		Help:    "Run execution duration",
		Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
	})

	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "qec_runs_active",
		Help: "Runs currently held by the run manager",
	})
)
