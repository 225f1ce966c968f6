package services

import (
	"context"

	"marketbrief/models"
)

// DisabledMarketData stands in when no market data credentials are present.
// Every ticker yields an empty history, which downstream code treats as
// "skip", so a run still produces a report with the screener table and
// placeholder narratives.
type DisabledMarketData struct{}

// NewDisabledMarketData creates a new DisabledMarketData
func NewDisabledMarketData() *DisabledMarketData {
	return &DisabledMarketData{}
}

// DailyBars returns an empty history
func (s *DisabledMarketData) DailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	return nil, nil
}

// MinuteBars returns an empty history
func (s *DisabledMarketData) MinuteBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	return nil, nil
}
