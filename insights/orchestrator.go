package insights

import (
	"context"
	"errors"
	"time"

	"marketbrief/config"
	"marketbrief/models"
	"marketbrief/observability"
	"marketbrief/services"
)

// Placeholder is the narrative substituted when a batch could not produce a
// commentary for a ticker. The report renders it like any other narrative.
const Placeholder = "分析暫時無法提供"

// LLMClient is the completion surface the orchestrator drives. Both the live
// Gemini client and the simulated client satisfy it.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Orchestrator turns screened rows into per-ticker narratives in batches,
// pacing calls with a cooldown and backing off when the provider throttles.
// Every input ticker is guaranteed a narrative; failures degrade to
// Placeholder rather than aborting the run.
type Orchestrator struct {
	llm   LLMClient
	cfg   *config.InsightsConfig
	sleep func(time.Duration)
}

// New creates an Orchestrator backed by the given client
func New(llm LLMClient, cfg *config.InsightsConfig) *Orchestrator {
	return &Orchestrator{
		llm:   llm,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// Partition splits rows into consecutive batches of at most size, preserving
// order. The last batch may be short.
func Partition(rows []models.ScreenedRow, size int) [][]models.ScreenedRow {
	if size <= 0 || len(rows) == 0 {
		return nil
	}

	batches := make([][]models.ScreenedRow, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, rows[start:end])
	}
	return batches
}

// Run produces a narrative for every row. The returned map has exactly one
// entry per input ticker.
//
// The throttle backoff grows across retries and carries over between batches
// within a run, so a provider that throttled batch 2 starts batch 3's first
// retry at the grown interval instead of resetting.
func (o *Orchestrator) Run(ctx context.Context, rows []models.ScreenedRow, analyses map[string]*models.TickerAnalysis) map[string]string {
	out := make(map[string]string, len(rows))
	if len(rows) == 0 {
		return out
	}

	metrics := observability.GetMetrics()
	backoff := time.Duration(o.cfg.InitialBackoffSeconds) * time.Second
	maxBackoff := time.Duration(o.cfg.MaxBackoffSeconds) * time.Second
	cooldown := time.Duration(o.cfg.CooldownSeconds) * time.Second

	batches := Partition(rows, o.cfg.BatchSize)
	for i, batch := range batches {
		log := observability.WithBatch(i + 1)

		narratives, nextBackoff := o.runBatch(ctx, batch, analyses, backoff, maxBackoff)
		backoff = nextBackoff

		succeeded := narratives != nil
		for _, row := range batch {
			if narrative, ok := narratives[row.Ticker]; ok && narrative != "" {
				out[row.Ticker] = narrative
			} else {
				out[row.Ticker] = Placeholder
				if succeeded {
					log.Warn("Model response missing ticker, using placeholder", "ticker", row.Ticker)
					metrics.RecordBatchFallback("missing_ticker")
				}
			}
		}

		// Pace the provider between successful batches. No point cooling
		// down after a failed batch (the backoff already slept) or after
		// the final one.
		if succeeded && i < len(batches)-1 {
			log.Debug("Cooling down before next batch", "cooldown", cooldown)
			o.sleep(cooldown)
		}
	}

	return out
}

// runBatch drives one batch through the client with throttle retries. It
// returns the parsed narratives (nil when the batch ultimately failed) and
// the backoff to carry into the next batch.
func (o *Orchestrator) runBatch(ctx context.Context, batch []models.ScreenedRow, analyses map[string]*models.TickerAnalysis, backoff, maxBackoff time.Duration) (map[string]string, time.Duration) {
	metrics := observability.GetMetrics()
	prompt := BuildPrompt(batch, analyses)

	for attempt := 0; attempt <= o.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			observability.Warn("Insight run cancelled", "error", err)
			metrics.RecordBatchFallback("cancelled")
			return nil, backoff
		}

		raw, err := o.llm.Complete(ctx, prompt)
		if err != nil {
			if errors.Is(err, services.ErrThrottled) {
				metrics.RecordLLMCall("throttled")
				if attempt == o.cfg.MaxRetries {
					observability.Warn("Batch still throttled after retries, using placeholders", "attempts", attempt+1)
					metrics.RecordBatchFallback("throttled")
					return nil, backoff
				}
				observability.Warn("Provider throttled, backing off", "backoff", backoff, "attempt", attempt+1)
				metrics.RecordThrottleRetry()
				o.sleep(backoff)
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}

			// Non-throttle errors are not worth retrying; the breaker
			// already saw them.
			observability.Error("Batch completion failed, using placeholders", "error", err)
			metrics.RecordLLMCall("error")
			metrics.RecordBatchFallback("error")
			return nil, backoff
		}

		narratives, err := ParseInsightResponse(raw)
		if err != nil {
			observability.Warn("Unparseable model response, using placeholders", "error", err)
			metrics.RecordLLMCall("parse_error")
			metrics.RecordBatchFallback("parse_error")
			return nil, backoff
		}

		metrics.RecordLLMCall("ok")
		return narratives, backoff
	}

	return nil, backoff
}
