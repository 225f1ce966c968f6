package services

import (
	"context"

	"marketbrief/models"
)

// ScreenerService supplies candidate rows from a market screener
type ScreenerService interface {
	FetchRows(ctx context.Context) ([]models.ScreenedRow, error)
}

// MarketDataService supplies OHLCV history
type MarketDataService interface {
	DailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error)
	MinuteBars(ctx context.Context, symbol string) ([]models.Bar, error)
}

// LLMService produces a completion for a prompt. Implementations return an
// error wrapping ErrThrottled when the provider signals rate limiting, so
// callers can retry with backoff instead of failing.
type LLMService interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
