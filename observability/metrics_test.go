package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func TestNewMetrics_RegistersWithoutPanic(t *testing.T) {
	m := newTestMetrics()
	if m == nil {
		t.Fatal("expected metrics to be created")
	}

	// Exercise every recorder once; a mislabeled metric would panic here.
	m.RecordReportRun("ok", time.Second)
	m.RecordTickerAnalyzed()
	m.RecordTickerSkipped("short_series")
	m.RecordScreenerRow("kept")
	m.RecordLLMCall("ok")
	m.RecordThrottleRetry()
	m.RecordBatchFallback("throttled")
	m.RecordExternalAPIRequest("finviz", "screen")
	m.RecordExternalAPIError("finviz", "screen")
	m.RecordReportWrite("report", 10*time.Millisecond)
	m.SetCircuitBreakerState("gemini", 2)
	m.RecordCircuitBreakerTrip("gemini")
}

func TestSetMetrics_OverridesGlobal(t *testing.T) {
	original := globalMetrics
	defer SetMetrics(original)

	m := newTestMetrics()
	SetMetrics(m)

	if GetMetrics() != m {
		t.Error("expected GetMetrics to return the override")
	}
}

func TestTimer_Duration(t *testing.T) {
	m := newTestMetrics()
	timer := m.NewTimer()
	time.Sleep(5 * time.Millisecond)

	if d := timer.Duration(); d < 5*time.Millisecond {
		t.Errorf("expected at least 5ms, got %v", d)
	}
}

func TestTimer_Observers(t *testing.T) {
	m := newTestMetrics()

	m.NewTimer().ObserveRun("ok")
	m.NewTimer().ObserveExternalAPI("alpaca", "daily_bars")
	m.NewTimer().ObserveWrite("chart")
}
