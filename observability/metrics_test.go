package observability

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamilies(t *testing.T) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, fam := range families {
		byName[fam.GetName()] = fam
	}
	return byName
}

func findMetric(fam *dto.MetricFamily, want map[string]string) *dto.Metric {
	if fam == nil {
		return nil
	}
	for _, metric := range fam.Metric {
		labels := make(map[string]string, len(metric.GetLabel()))
		for _, pair := range metric.GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		matched := true
		for k, v := range want {
			if labels[k] != v {
				matched = false
				break
			}
		}
		if matched {
			return metric
		}
	}
	return nil
}

func counterValue(t *testing.T, fam *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	metric := findMetric(fam, labels)
	if metric == nil || metric.Counter == nil {
		t.Fatalf("counter %v not found in %s", labels, fam.GetName())
	}
	return metric.Counter.GetValue()
}

func TestLedgerMetricsObserve(t *testing.T) {
	ledger := Ledger()
	ledger.Observe("metrics_test_burn", 25*time.Millisecond, nil)
	ledger.Observe("metrics_test_burn", 30*time.Millisecond, nil)
	ledger.Observe("metrics_test_burn", 5*time.Millisecond, errors.New("claim record missing"))
	ledger.RecordEvent("exchange.burned.test")

	families := gatherFamilies(t)

	ops := families["rotex_ledger_operations_total"]
	if got := counterValue(t, ops, map[string]string{"operation": "metrics_test_burn", "outcome": "success"}); got != 2 {
		t.Fatalf("unexpected success count: %.0f", got)
	}
	if got := counterValue(t, ops, map[string]string{"operation": "metrics_test_burn", "outcome": "error"}); got != 1 {
		t.Fatalf("unexpected error count: %.0f", got)
	}

	errFam := families["rotex_ledger_errors_total"]
	if got := counterValue(t, errFam, map[string]string{"operation": "metrics_test_burn", "reason": "claim record missing"}); got != 1 {
		t.Fatalf("unexpected error reason count: %.0f", got)
	}

	latency := findMetric(families["rotex_ledger_operation_duration_seconds"], map[string]string{"operation": "metrics_test_burn"})
	if latency == nil || latency.Histogram == nil {
		t.Fatalf("latency histogram not recorded")
	}
	if latency.Histogram.GetSampleCount() != 3 {
		t.Fatalf("unexpected latency samples: %d", latency.Histogram.GetSampleCount())
	}

	events := families["rotex_ledger_events_total"]
	if got := counterValue(t, events, map[string]string{"type": "exchange.burned.test"}); got != 1 {
		t.Fatalf("unexpected event count: %.0f", got)
	}
}

func TestLedgerMetricsRollover(t *testing.T) {
	before := float64(0)
	if fam := gatherFamilies(t)["rotex_ledger_day_rollovers_total"]; fam != nil && len(fam.Metric) > 0 && fam.Metric[0].Counter != nil {
		before = fam.Metric[0].Counter.GetValue()
	}

	Ledger().RecordRollover()
	Ledger().RecordRollover()

	fam := gatherFamilies(t)["rotex_ledger_day_rollovers_total"]
	if fam == nil || len(fam.Metric) == 0 || fam.Metric[0].Counter == nil {
		t.Fatalf("rollover counter not registered")
	}
	if got := fam.Metric[0].Counter.GetValue(); got != before+2 {
		t.Fatalf("unexpected rollover count: %.0f (before %.0f)", got, before)
	}
}

func TestLedgerMetricsReleaseAndGauges(t *testing.T) {
	ledger := Ledger()
	ledger.RecordRelease("Normal", big.NewInt(11940))
	ledger.RecordRelease("normal", big.NewInt(60))
	ledger.RecordRelease("reverse", big.NewInt(5000))
	ledger.RecordRelease("reverse", nil)
	ledger.RecordRelease("reverse", big.NewInt(0))
	ledger.SetActiveAuctions(1)
	ledger.SetDayParticipants(7)

	families := gatherFamilies(t)

	released := families["rotex_ledger_released_settlement_total"]
	if got := counterValue(t, released, map[string]string{"direction": "normal"}); got != 12000 {
		t.Fatalf("unexpected normal released: %.0f", got)
	}
	if got := counterValue(t, released, map[string]string{"direction": "reverse"}); got != 5000 {
		t.Fatalf("unexpected reverse released: %.0f", got)
	}

	active := families["rotex_ledger_active_auctions"]
	if active == nil || len(active.Metric) == 0 || active.Metric[0].Gauge == nil {
		t.Fatalf("active auction gauge not registered")
	}
	if got := active.Metric[0].Gauge.GetValue(); got != 1 {
		t.Fatalf("unexpected active gauge: %.0f", got)
	}

	participants := families["rotex_ledger_day_participants"]
	if participants == nil || len(participants.Metric) == 0 || participants.Metric[0].Gauge == nil {
		t.Fatalf("participant gauge not registered")
	}
	if got := participants.Metric[0].Gauge.GetValue(); got != 7 {
		t.Fatalf("unexpected participant gauge: %.0f", got)
	}
}

func TestModuleMetricsObserve(t *testing.T) {
	modules := ModuleMetrics()
	modules.Observe("exchange_test", "exchange_burn", 200, 10*time.Millisecond)
	modules.Observe("exchange_test", "exchange_burn", 429, 2*time.Millisecond)
	modules.RecordThrottle("exchange_test", "rate_limit")

	families := gatherFamilies(t)

	requests := families["rotex_module_requests_total"]
	if got := counterValue(t, requests, map[string]string{"module": "exchange_test", "method": "exchange_burn", "outcome": "success"}); got != 1 {
		t.Fatalf("unexpected success requests: %.0f", got)
	}
	if got := counterValue(t, requests, map[string]string{"module": "exchange_test", "method": "exchange_burn", "outcome": "error"}); got != 1 {
		t.Fatalf("unexpected error requests: %.0f", got)
	}

	moduleErrors := families["rotex_module_errors_total"]
	if got := counterValue(t, moduleErrors, map[string]string{"module": "exchange_test", "status": "429"}); got != 1 {
		t.Fatalf("unexpected module errors: %.0f", got)
	}

	throttles := families["rotex_module_throttles_total"]
	if got := counterValue(t, throttles, map[string]string{"module": "exchange_test", "reason": "rate_limit"}); got != 1 {
		t.Fatalf("unexpected throttles: %.0f", got)
	}
}

func TestExportMetricsObserve(t *testing.T) {
	exports := Exports()
	exports.Observe("CSV", 12, 5*time.Millisecond, nil)
	exports.Observe("parquet-test", 0, 3*time.Millisecond, errors.New("write failed"))

	families := gatherFamilies(t)

	runs := families["rotex_exports_runs_total"]
	if got := counterValue(t, runs, map[string]string{"format": "csv", "outcome": "success"}); got != 1 {
		t.Fatalf("unexpected csv runs: %.0f", got)
	}
	if got := counterValue(t, runs, map[string]string{"format": "parquet-test", "outcome": "error"}); got != 1 {
		t.Fatalf("unexpected parquet runs: %.0f", got)
	}

	rows := families["rotex_exports_rows_total"]
	if got := counterValue(t, rows, map[string]string{"format": "csv"}); got != 12 {
		t.Fatalf("unexpected csv rows: %.0f", got)
	}
	if findMetric(rows, map[string]string{"format": "parquet-test"}) != nil {
		t.Fatalf("zero-row export should not create a rows series")
	}
}
