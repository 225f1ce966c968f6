package insights

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"marketbrief/config"
	"marketbrief/models"
	"marketbrief/services"
)

func testInsightsConfig() *config.InsightsConfig {
	return &config.InsightsConfig{
		Mode:                  "live",
		BatchSize:             2,
		CooldownSeconds:       30,
		MaxRetries:            2,
		InitialBackoffSeconds: 60,
		MaxBackoffSeconds:     300,
	}
}

func newTestOrchestrator(llm LLMClient, rec *sleepRecorder) *Orchestrator {
	o := New(llm, testInsightsConfig())
	o.sleep = rec.sleep
	return o
}

func TestPartition(t *testing.T) {
	batches := Partition(testRows("A", "B", "C", "D", "E"), 2)

	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	sizes := []int{2, 2, 1}
	for i, want := range sizes {
		if len(batches[i]) != want {
			t.Errorf("batch %d: expected size %d, got %d", i, want, len(batches[i]))
		}
	}
	if batches[0][0].Ticker != "A" || batches[2][0].Ticker != "E" {
		t.Error("expected partition to preserve row order")
	}
}

func TestPartition_EdgeCases(t *testing.T) {
	if batches := Partition(nil, 2); batches != nil {
		t.Errorf("expected nil for no rows, got %v", batches)
	}
	if batches := Partition(testRows("A"), 0); batches != nil {
		t.Errorf("expected nil for zero batch size, got %v", batches)
	}
	if batches := Partition(testRows("A", "B"), 5); len(batches) != 1 {
		t.Errorf("expected single short batch, got %d", len(batches))
	}
}

func TestBuildPrompt_CarriesTickersAndMetrics(t *testing.T) {
	rows := testRows("AAPL", "MSFT")
	analyses := map[string]*models.TickerAnalysis{
		"AAPL": {
			Ticker:           "AAPL",
			TrendAboveSMA200: true,
			DailyIndicators:  &models.IndicatorSet{RSI14: []float64{50, 61.5}},
		},
	}

	prompt := BuildPrompt(rows, analyses)

	if !strings.Contains(prompt, "Tickers: AAPL, MSFT") {
		t.Error("expected prompt to carry the ticker list header")
	}
	if !strings.Contains(prompt, "RSI14 61.5") {
		t.Error("expected prompt to carry the latest RSI value")
	}
	if !strings.Contains(prompt, "SMA200 之上") {
		t.Error("expected prompt to carry the trend state")
	}
	if !strings.Contains(prompt, "JSON") {
		t.Error("expected prompt to pin the output format")
	}
}

func TestRun_FullCoverageOnSuccess(t *testing.T) {
	llm := &scriptedLLM{script: []scriptedReply{
		{response: `{"A": "短評A", "B": "短評B"}`},
		{response: `{"C": "短評C"}`},
	}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B", "C"), nil)

	if len(out) != 3 {
		t.Fatalf("expected 3 narratives, got %d", len(out))
	}
	for _, ticker := range []string{"A", "B", "C"} {
		if out[ticker] == "" || out[ticker] == Placeholder {
			t.Errorf("expected real narrative for %s, got %q", ticker, out[ticker])
		}
	}
}

func TestRun_CooldownOnlyBetweenSuccessfulBatches(t *testing.T) {
	llm := &scriptedLLM{script: []scriptedReply{
		{response: `{"A": "短評A", "B": "短評B"}`},
		{response: `{"C": "短評C"}`},
	}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	o.Run(context.Background(), testRows("A", "B", "C"), nil)

	if len(rec.slept) != 1 {
		t.Fatalf("expected exactly one cooldown sleep, got %v", rec.slept)
	}
	if rec.slept[0] != 30*time.Second {
		t.Errorf("expected 30s cooldown, got %v", rec.slept[0])
	}
}

func TestRun_ThrottleRetriesThenSucceeds(t *testing.T) {
	llm := &scriptedLLM{script: []scriptedReply{
		{err: fmt.Errorf("%w: quota", services.ErrThrottled)},
		{response: `{"A": "短評A", "B": "短評B"}`},
	}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B"), nil)

	if llm.calls != 2 {
		t.Errorf("expected 2 calls (throttle + retry), got %d", llm.calls)
	}
	if out["A"] != "短評A" {
		t.Errorf("expected retry to recover the narrative, got %q", out["A"])
	}
	if len(rec.slept) != 1 || rec.slept[0] != 60*time.Second {
		t.Errorf("expected a single 60s backoff sleep, got %v", rec.slept)
	}
}

func TestRun_FiveTickersThrottledMidRun(t *testing.T) {
	llm := &scriptedLLM{script: []scriptedReply{
		{response: `{"A": "短評A", "B": "短評B"}`},
		{err: fmt.Errorf("%w: quota", services.ErrThrottled)},
		{response: `{"C": "短評C", "D": "短評D"}`},
		{response: `{"E": "短評E"}`},
	}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B", "C", "D", "E"), nil)

	if len(out) != 5 {
		t.Fatalf("expected full coverage of 5 tickers, got %d", len(out))
	}
	for _, ticker := range []string{"A", "B", "C", "D", "E"} {
		if out[ticker] != "短評"+ticker {
			t.Errorf("expected retried narrative for %s, got %q", ticker, out[ticker])
		}
	}
	if llm.calls != 4 {
		t.Errorf("expected 4 calls (3 batches + 1 retry), got %d", llm.calls)
	}
}

func TestRun_ThrottleExhaustionFallsBackToPlaceholders(t *testing.T) {
	throttled := scriptedReply{err: fmt.Errorf("%w: quota", services.ErrThrottled)}
	llm := &scriptedLLM{script: []scriptedReply{throttled}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B"), nil)

	// initial call + MaxRetries
	if llm.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", llm.calls)
	}
	for _, ticker := range []string{"A", "B"} {
		if out[ticker] != Placeholder {
			t.Errorf("expected placeholder for %s, got %q", ticker, out[ticker])
		}
	}
}

func TestRun_BackoffGrowsAndPersistsAcrossBatches(t *testing.T) {
	throttled := scriptedReply{err: fmt.Errorf("%w: quota", services.ErrThrottled)}
	llm := &scriptedLLM{script: []scriptedReply{throttled}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B", "C", "D"), nil)

	if len(out) != 4 {
		t.Fatalf("expected full coverage despite throttling, got %d narratives", len(out))
	}

	// Batch 1 sleeps 60s then 120s; batch 2 inherits the grown backoff and
	// sleeps 240s then the 300s cap.
	want := []time.Duration{60 * time.Second, 120 * time.Second, 240 * time.Second, 300 * time.Second}
	if len(rec.slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), rec.slept)
	}
	for i, d := range want {
		if rec.slept[i] != d {
			t.Errorf("sleep %d: expected %v, got %v", i, d, rec.slept[i])
		}
	}
}

func TestRun_ParseFailureSkipsRetries(t *testing.T) {
	llm := &scriptedLLM{script: []scriptedReply{
		{response: "我無法回答這個問題。"},
	}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B"), nil)

	if llm.calls != 1 {
		t.Errorf("expected no retry on parse failure, got %d calls", llm.calls)
	}
	if out["A"] != Placeholder || out["B"] != Placeholder {
		t.Errorf("expected placeholders after parse failure, got %v", out)
	}
	if len(rec.slept) != 0 {
		t.Errorf("expected no sleeps after parse failure, got %v", rec.slept)
	}
}

func TestRun_MissingTickerGetsPlaceholder(t *testing.T) {
	llm := &scriptedLLM{script: []scriptedReply{
		{response: `{"A": "短評A"}`},
	}}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), testRows("A", "B"), nil)

	if out["A"] != "短評A" {
		t.Errorf("expected narrative for A, got %q", out["A"])
	}
	if out["B"] != Placeholder {
		t.Errorf("expected placeholder for missing B, got %q", out["B"])
	}
}

func TestRun_EmptyRows(t *testing.T) {
	llm := &scriptedLLM{}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(context.Background(), nil, nil)
	if len(out) != 0 {
		t.Errorf("expected empty result, got %v", out)
	}
	if llm.calls != 0 {
		t.Errorf("expected no LLM calls, got %d", llm.calls)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := &scriptedLLM{}
	rec := &sleepRecorder{}
	o := newTestOrchestrator(llm, rec)

	out := o.Run(ctx, testRows("A", "B"), nil)

	if llm.calls != 0 {
		t.Errorf("expected no LLM calls after cancellation, got %d", llm.calls)
	}
	for _, ticker := range []string{"A", "B"} {
		if out[ticker] != Placeholder {
			t.Errorf("expected placeholder for %s, got %q", ticker, out[ticker])
		}
	}
}
