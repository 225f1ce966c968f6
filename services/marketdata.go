package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"marketbrief/config"
	"marketbrief/models"
	"marketbrief/observability"
)

// AlpacaMarketData supplies daily and minute OHLCV bars via Alpaca.
// Unknown tickers come back as empty slices, which the assembler treats as
// "skip this ticker".
type AlpacaMarketData struct {
	client *marketdata.Client
	feed   marketdata.Feed
}

// NewAlpacaMarketData creates a new AlpacaMarketData instance
func NewAlpacaMarketData(cfg *config.AlpacaConfig) *AlpacaMarketData {
	feed := marketdata.IEX
	if cfg.Feed == "sip" {
		feed = marketdata.SIP
	}

	return &AlpacaMarketData{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
		}),
		feed: feed,
	}
}

// DailyBars returns daily bars covering the trailing number of calendar days
func (s *AlpacaMarketData) DailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return s.getBars(ctx, symbol, "daily_bars", marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      s.feed,
	})
}

// MinuteBars returns 1-minute bars for the current session day. The window
// starts at 04:00 Eastern so pre-market extension is included; Alpaca minute
// bars carry post-market trades up to the request end.
func (s *AlpacaMarketData) MinuteBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("failed to load exchange timezone: %w", err)
	}

	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 4, 0, 0, 0, loc)
	return s.getBars(ctx, symbol, "minute_bars", marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneMin,
		Start:     start,
		End:       now,
		Feed:      s.feed,
	})
}

func (s *AlpacaMarketData) getBars(ctx context.Context, symbol, operation string, req marketdata.GetBarsRequest) ([]models.Bar, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("alpaca", operation)
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("alpaca", operation)

	bars, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]marketdata.Bar, error) {
		return s.client.GetBars(symbol, req)
	})
	if err != nil {
		metrics.RecordExternalAPIError("alpaca", operation)
		return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
	}

	result := make([]models.Bar, 0, len(bars))
	for _, bar := range bars {
		result = append(result, models.Bar{
			Symbol:    symbol,
			Timestamp: bar.Timestamp,
			Open:      decimal.NewFromFloat(bar.Open),
			High:      decimal.NewFromFloat(bar.High),
			Low:       decimal.NewFromFloat(bar.Low),
			Close:     decimal.NewFromFloat(bar.Close),
			Volume:    int64(bar.Volume),
		})
	}

	return result, nil
}
