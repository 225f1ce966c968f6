package main

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"marketbrief/models"
)

type mockScreener struct {
	rows []models.ScreenedRow
	err  error
}

func (m *mockScreener) FetchRows(ctx context.Context) ([]models.ScreenedRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}

type mockMarketData struct {
	daily       []models.Bar
	dailyErr    error
	intraday    []models.Bar
	intradayErr error
}

func (m *mockMarketData) DailyBars(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	if m.dailyErr != nil {
		return nil, m.dailyErr
	}
	return m.daily, nil
}

func (m *mockMarketData) MinuteBars(ctx context.Context, symbol string) ([]models.Bar, error) {
	if m.intradayErr != nil {
		return nil, m.intradayErr
	}
	return m.intraday, nil
}

func mockRow(ticker, company string) models.ScreenedRow {
	return models.ScreenedRow{
		Ticker:    ticker,
		Company:   company,
		Sector:    "Technology",
		Industry:  "Software",
		MarketCap: "1B",
		PERatio:   "20.0",
		Price:     decimal.NewFromFloat(50),
		Change:    10.5,
		Volume:    "1,000,000",
	}
}

func mockDailyBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 100.0 + float64(i)*0.25
		bars[i] = models.Bar{
			Symbol:    "TEST",
			Timestamp: base.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat(price - 0.5),
			High:      decimal.NewFromFloat(price + 1),
			Low:       decimal.NewFromFloat(price - 1),
			Close:     decimal.NewFromFloat(price),
			Volume:    100000,
		}
	}
	return bars
}
