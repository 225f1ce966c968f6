package analysis

import (
	"context"

	"marketbrief/config"
	"marketbrief/models"
	"marketbrief/observability"
)

// BarProvider supplies OHLCV history for a ticker. Unknown tickers yield an
// empty slice, not an error.
type BarProvider interface {
	DailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error)
	MinuteBars(ctx context.Context, symbol string) ([]models.Bar, error)
}

// Assembler materializes a complete TickerAnalysis per ticker, or nil when
// the ticker cannot be analyzed. Callers must treat nil as "skip this
// ticker", never as a fatal error; this is what keeps a partial report
// possible when individual tickers are delisted, halted, or rate limited.
type Assembler struct {
	provider BarProvider
	cfg      *config.AnalysisConfig
}

// NewAssembler creates a new Assembler
func NewAssembler(provider BarProvider, cfg *config.AnalysisConfig) *Assembler {
	return &Assembler{
		provider: provider,
		cfg:      cfg,
	}
}

// Assemble fetches history for one ticker and derives its analytics.
// One daily fetch covers the extended lookback; the rendered daily view is
// the trailing DailyWindowBars of that same fetch with indicators recomputed
// over the window so overlays align with the visible bars. Intraday failure
// degrades to a daily-only analysis with no spike events.
func (a *Assembler) Assemble(ctx context.Context, ticker string) *models.TickerAnalysis {
	log := observability.WithSymbol(ticker)
	metrics := observability.GetMetrics()

	extended, err := a.provider.DailyBars(ctx, ticker, a.cfg.ExtendedLookbackDays)
	if err != nil {
		log.Warn("daily bars fetch failed, skipping ticker", "error", err)
		metrics.RecordTickerSkipped("fetch_error")
		return nil
	}
	if len(extended) == 0 {
		log.Warn("no daily bars returned, skipping ticker")
		metrics.RecordTickerSkipped("empty_series")
		return nil
	}
	if len(extended) < a.cfg.MinDailyBars {
		log.Warn("insufficient daily history, skipping ticker",
			"bars", len(extended),
			"required", a.cfg.MinDailyBars)
		metrics.RecordTickerSkipped("short_series")
		return nil
	}

	daily := extended
	if len(daily) > a.cfg.DailyWindowBars {
		daily = daily[len(daily)-a.cfg.DailyWindowBars:]
	}

	dailyInd := ComputeIndicators(daily, a.cfg)
	extendedInd := ComputeIndicators(extended, a.cfg)

	intraday, err := a.provider.MinuteBars(ctx, ticker)
	if err != nil {
		log.Warn("intraday bars fetch failed, continuing without spikes", "error", err)
		intraday = nil
	}

	var spikes []models.SpikeEvent
	if len(intraday) > 0 {
		volAvg := SMASeries(Volumes(intraday), a.cfg.SpikeWindow)
		spikes = DetectSpikes(intraday, volAvg, a.cfg.SpikeThreshold, a.cfg.SpikeTopK)
	}

	closes := Closes(daily)
	metrics.RecordTickerAnalyzed()

	return &models.TickerAnalysis{
		Ticker:             ticker,
		Daily:              daily,
		DailyIndicators:    dailyInd,
		Extended:           extended,
		ExtendedIndicators: extendedInd,
		Intraday:           intraday,
		Spikes:             spikes,
		TrendAboveSMA200:   TrendAboveLongAverage(closes, dailyInd.SMA200),
		LastClose:          daily[len(daily)-1].Close,
	}
}
