package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgekit_executions_total",
			Help: "Total number of code executions",
		},
		[]string{"language", "backend", "outcome"}, // outcome: "success", "failure", "rejected", "error"
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "judgekit_execution_duration_ms",
			Help:    "Wall-clock duration of a single backend execution in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 15000},
		},
		[]string{"language", "backend"},
	)

	BackendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgekit_backend_errors_total",
			Help: "Execution failures by error kind, including requests rejected before the backend",
		},
		[]string{"backend", "kind"},
	)

	Judge0Polls = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judgekit_judge0_polls",
			Help:    "Number of status polls issued per Judge0 submission",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	TestCasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgekit_test_cases_total",
			Help: "Graded test cases by result",
		},
		[]string{"language", "result"}, // result: "passed", "failed"
	)

	InFlightExecutions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "judgekit_inflight_executions",
			Help: "Executions currently holding an engine slot",
		},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judgekit_jobs_processed_total",
			Help: "Background jobs processed by final status",
		},
		[]string{"status"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "judgekit_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiter",
		},
	)
)
