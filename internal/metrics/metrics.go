// Package metrics exposes Prometheus collectors for the HTTP layer and the
// calculation engine.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "bondfolio/internal/errors"
)

// ResultOK labels a calculation that succeeded.
const ResultOK = "ok"

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondfolio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bondfolio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Calculation metrics
	CalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondfolio_calculations_total",
			Help: "Total number of engine calculations by operation and result",
		},
		[]string{"operation", "result"},
	)

	YieldSolverIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bondfolio_yield_solver_iterations",
			Help:    "Newton-Raphson iterations needed to solve a yield",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 50, 100},
		},
	)

	PortfolioEvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bondfolio_portfolio_evaluation_duration_seconds",
			Help:    "Time taken to evaluate all holdings of a portfolio",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
	)

	// Snapshot job metrics
	SnapshotsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bondfolio_snapshots_recorded_total",
			Help: "Total number of portfolio snapshots recorded",
		},
	)

	SnapshotRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bondfolio_snapshot_runs_total",
			Help: "Total number of snapshot runs by result",
		},
		[]string{"result"},
	)
)

// Result maps an error to a low-cardinality label: ResultOK for nil, the
// AppError code when there is one, and "error" otherwise.
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "error"
}

// RecordCalculation counts one engine call.
func RecordCalculation(operation string, err error) {
	CalculationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

// ObserveSolverIterations records how many iterations a converged solve took.
func ObserveSolverIterations(n int) {
	YieldSolverIterations.Observe(float64(n))
}
