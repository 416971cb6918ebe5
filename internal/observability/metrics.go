// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Launch metrics
	ProjectsCreated      prometheus.Counter
	PhaseTransitions     *prometheus.CounterVec
	ContributionsTotal   prometheus.Counter
	ContributionErrors   *prometheus.CounterVec
	ClaimsTotal          prometheus.Counter
	RefundsTotal         prometheus.Counter
	FinalizationsTotal   *prometheus.CounterVec

	// Pool metrics
	SwapsExecuted      prometheus.Counter
	SwapErrors         *prometheus.CounterVec
	LiquidityAdds      prometheus.Counter
	LiquidityRemovals  prometheus.Counter
	PoolsCreated       prometheus.Counter
	LocksCreated       prometheus.Counter
	LocksReleased      prometheus.Counter
	ProtocolFeeSweeps  prometheus.Counter

	// Latency metrics
	OperationDuration *prometheus.HistogramVec
	HTTPDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	UptimeSeconds prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_launchpad"
	}

	return &Metrics{
		// Launch metrics
		ProjectsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "projects_created_total",
			Help:      "Total number of launch projects created",
		}),
		PhaseTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "phase_transitions_total",
			Help:      "Total number of project phase transitions by target phase",
		}, []string{"to"}),
		ContributionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "contributions_total",
			Help:      "Total number of accepted contributions",
		}),
		ContributionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "contribution_errors_total",
			Help:      "Total number of rejected contributions by reason",
		}, []string{"reason"}),
		ClaimsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "claims_total",
			Help:      "Total number of successful token claims",
		}),
		RefundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "refunds_total",
			Help:      "Total number of processed refunds",
		}),
		FinalizationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "launch",
			Name:      "finalizations_total",
			Help:      "Total number of liquidity finalizations by outcome",
		}, []string{"outcome"}),

		// Pool metrics
		SwapsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "swaps_executed_total",
			Help:      "Total number of executed swaps",
		}),
		SwapErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "swap_errors_total",
			Help:      "Total number of rejected swaps by reason",
		}, []string{"reason"}),
		LiquidityAdds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "liquidity_adds_total",
			Help:      "Total number of liquidity deposits",
		}),
		LiquidityRemovals: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "liquidity_removals_total",
			Help:      "Total number of liquidity withdrawals",
		}),
		PoolsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "pools_created_total",
			Help:      "Total number of pools created",
		}),
		LocksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "locks_created_total",
			Help:      "Total number of liquidity locks created",
		}),
		LocksReleased: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "locks_released_total",
			Help:      "Total number of liquidity locks released",
		}),
		ProtocolFeeSweeps: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "amm",
			Name:      "protocol_fee_sweeps_total",
			Help:      "Total number of protocol fee collections",
		}),

		// Latency metrics
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "operation_duration_seconds",
			Help:      "Duration of core operations by name",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries by database and operation",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordProjectCreated increments the projects created counter.
func RecordProjectCreated() {
	DefaultMetrics.ProjectsCreated.Inc()
}

// RecordPhaseTransition records a project phase transition.
func RecordPhaseTransition(to string) {
	DefaultMetrics.PhaseTransitions.WithLabelValues(to).Inc()
}

// RecordContribution increments the accepted contributions counter.
func RecordContribution() {
	DefaultMetrics.ContributionsTotal.Inc()
}

// RecordContributionError records a rejected contribution.
func RecordContributionError(reason string) {
	DefaultMetrics.ContributionErrors.WithLabelValues(reason).Inc()
}

// RecordClaim increments the successful claims counter.
func RecordClaim() {
	DefaultMetrics.ClaimsTotal.Inc()
}

// RecordRefund increments the processed refunds counter.
func RecordRefund() {
	DefaultMetrics.RefundsTotal.Inc()
}

// RecordFinalization records a liquidity finalization outcome.
func RecordFinalization(outcome string) {
	DefaultMetrics.FinalizationsTotal.WithLabelValues(outcome).Inc()
}

// RecordSwap increments the executed swaps counter.
func RecordSwap() {
	DefaultMetrics.SwapsExecuted.Inc()
}

// RecordSwapError records a rejected swap.
func RecordSwapError(reason string) {
	DefaultMetrics.SwapErrors.WithLabelValues(reason).Inc()
}

// RecordLiquidityAdd increments the liquidity deposits counter.
func RecordLiquidityAdd() {
	DefaultMetrics.LiquidityAdds.Inc()
}

// RecordLiquidityRemoval increments the liquidity withdrawals counter.
func RecordLiquidityRemoval() {
	DefaultMetrics.LiquidityRemovals.Inc()
}

// RecordPoolCreated increments the pools created counter.
func RecordPoolCreated() {
	DefaultMetrics.PoolsCreated.Inc()
}

// RecordLockCreated increments the locks created counter.
func RecordLockCreated() {
	DefaultMetrics.LocksCreated.Inc()
}

// RecordLockReleased increments the locks released counter.
func RecordLockReleased() {
	DefaultMetrics.LocksReleased.Inc()
}

// RecordProtocolFeeSweep increments the protocol fee collections counter.
func RecordProtocolFeeSweep() {
	DefaultMetrics.ProtocolFeeSweeps.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordUptimeTick adds one second to the uptime counter.
func RecordUptimeTick() {
	DefaultMetrics.UptimeSeconds.Inc()
}

// RecordHTTPRequest records one HTTP request's duration.
func RecordHTTPRequest(route, status string, seconds float64) {
	DefaultMetrics.HTTPDuration.WithLabelValues(route, status).Observe(seconds)
}

// RecordOperation records one core operation's duration.
func RecordOperation(operation string, seconds float64) {
	DefaultMetrics.OperationDuration.WithLabelValues(operation).Observe(seconds)
}
