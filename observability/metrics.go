package observability

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type moduleMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttles *prometheus.CounterVec
}

var (
	moduleMetricsOnce sync.Once
	moduleRegistry    *moduleMetrics

	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics

	exportMetricsOnce sync.Once
	exportRegistry    *ExportMetrics
)

// ModuleMetrics returns the lazily-initialised module metrics registry used to
// record RPC module activity.
func ModuleMetrics() *moduleMetrics {
	moduleMetricsOnce.Do(func() {
		moduleRegistry = &moduleMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "module",
				Name:      "requests_total",
				Help:      "Total JSON-RPC module requests segmented by module and method.",
			}, []string{"module", "method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "module",
				Name:      "errors_total",
				Help:      "Total JSON-RPC module errors segmented by module, method, and status code.",
			}, []string{"module", "method", "status"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rotex",
				Subsystem: "module",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC module handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"module", "method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "module",
				Name:      "throttles_total",
				Help:      "Count of module requests rejected due to throttling policies.",
			}, []string{"module", "reason"}),
		}
		prometheus.MustRegister(
			moduleRegistry.requests,
			moduleRegistry.errors,
			moduleRegistry.latency,
			moduleRegistry.throttles,
		)
	})
	return moduleRegistry
}

// Observe records the outcome of a module request. The status code should be
// the HTTP status that was ultimately written to the response writer.
func (m *moduleMetrics) Observe(module, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if status >= 400 {
		outcome = "error"
	}
	m.requests.WithLabelValues(module, method, outcome).Inc()
	if status >= 400 {
		m.errors.WithLabelValues(module, method, fmt.Sprintf("%d", status)).Inc()
	}
	m.latency.WithLabelValues(module, method).Observe(duration.Seconds())
}

// RecordThrottle increments the throttle counter for the supplied module and
// reason. Reasons should be stable strings such as "rate_limit" or
// "quota_exceeded" so dashboards and alerts remain consistent.
func (m *moduleMetrics) RecordThrottle(module, reason string) {
	if m == nil {
		return
	}
	if module == "" {
		module = "unknown"
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(module, reason).Inc()
}

// LedgerMetrics captures metrics for ledger host operations.
type LedgerMetrics struct {
	operations     *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	rollovers      prometheus.Counter
	events         *prometheus.CounterVec
	released       *prometheus.CounterVec
	activeAuctions prometheus.Gauge
	participants   prometheus.Gauge
}

// Ledger returns the singleton metrics registry for ledger entry points.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Count of ledger operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Count of ledger operation failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
			rollovers: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "day_rollovers_total",
				Help:      "Count of daily stats rollovers archived by the ledger.",
			}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "events_total",
				Help:      "Count of committed ledger events segmented by event type.",
			}, []string{"type"}),
			released: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "released_settlement_total",
				Help:      "Settlement paid out by committed flows segmented by direction.",
			}, []string{"direction"}),
			activeAuctions: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "active_auctions",
				Help:      "Number of auction windows open at the last committed operation.",
			}),
			participants: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "rotex",
				Subsystem: "ledger",
				Name:      "day_participants",
				Help:      "Unique swap participants recorded for the running stats day.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.operations,
			ledgerRegistry.latency,
			ledgerRegistry.errors,
			ledgerRegistry.rollovers,
			ledgerRegistry.events,
			ledgerRegistry.released,
			ledgerRegistry.activeAuctions,
			ledgerRegistry.participants,
		)
	})
	return ledgerRegistry
}

// Observe records the execution metrics for one ledger operation.
func (m *LedgerMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		reason := strings.TrimSpace(err.Error())
		if reason == "" {
			reason = "unknown"
		}
		m.errors.WithLabelValues(op, reason).Inc()
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRollover counts an archived stats day.
func (m *LedgerMetrics) RecordRollover() {
	if m == nil {
		return
	}
	m.rollovers.Inc()
}

// RecordEvent counts a committed event by its type string.
func (m *LedgerMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.events.WithLabelValues(normalized).Inc()
}

// RecordRelease adds committed settlement payout to the direction's running
// total. Base-unit precision loss past float64 is acceptable for dashboards.
func (m *LedgerMetrics) RecordRelease(direction string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	label := strings.ToLower(strings.TrimSpace(direction))
	if label == "" {
		label = "unknown"
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.released.WithLabelValues(label).Add(value)
}

// SetActiveAuctions publishes the number of currently open auction windows.
func (m *LedgerMetrics) SetActiveAuctions(count int) {
	if m == nil {
		return
	}
	m.activeAuctions.Set(float64(count))
}

// SetDayParticipants publishes the running day's unique participant tally.
func (m *LedgerMetrics) SetDayParticipants(count uint64) {
	if m == nil {
		return
	}
	m.participants.Set(float64(count))
}

// ExportMetrics wraps collectors tracking the stats export pipeline.
type ExportMetrics struct {
	exports *prometheus.CounterVec
	rows    *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// Exports returns the metrics registry for the stats export pipeline.
func Exports() *ExportMetrics {
	exportMetricsOnce.Do(func() {
		exportRegistry = &ExportMetrics{
			exports: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "exports",
				Name:      "runs_total",
				Help:      "Count of export runs segmented by format and outcome.",
			}, []string{"format", "outcome"}),
			rows: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "rotex",
				Subsystem: "exports",
				Name:      "rows_total",
				Help:      "Count of rows written by export runs segmented by format.",
			}, []string{"format"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "rotex",
				Subsystem: "exports",
				Name:      "run_duration_seconds",
				Help:      "Latency distribution for export runs.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"format"}),
		}
		prometheus.MustRegister(
			exportRegistry.exports,
			exportRegistry.rows,
			exportRegistry.latency,
		)
	})
	return exportRegistry
}

// Observe records the outcome of one export run.
func (m *ExportMetrics) Observe(format string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	label := strings.ToLower(strings.TrimSpace(format))
	if label == "" {
		label = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.exports.WithLabelValues(label, outcome).Inc()
	if rows > 0 {
		m.rows.WithLabelValues(label).Add(float64(rows))
	}
	m.latency.WithLabelValues(label).Observe(duration.Seconds())
}
