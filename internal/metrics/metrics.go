package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boa_runs_enqueued_total",
		Help: "Total number of runs placed on the run queue.",
	})

	RunsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boa_runs_dropped_total",
		Help: "Total number of runs rejected due to a full queue.",
	})

	RunsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boa_runs_finished_total",
		Help: "Total number of finished runs, labelled by status and termination reason.",
	}, []string{"status", "reason"})

	Generations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "boa_generations_total",
		Help: "Total number of generations performed across all runs.",
	})

	OperatorsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boa_model_operators_total",
		Help: "Total number of structure-search operators, labelled by outcome.",
	}, []string{"kind"})

	FitnessEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boa_fitness_evaluations_total",
		Help: "Total number of fitness evaluations, labelled by function.",
	}, []string{"function"})

	ModelBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "boa_model_build_duration_ms",
		Help:    "Structure learning latency per generation in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "boa_run_duration_seconds",
		Help:    "Wall-clock duration of complete runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "boa_queue_utilization_ratio",
		Help: "Current run queue utilization (0–1).",
	})
)
