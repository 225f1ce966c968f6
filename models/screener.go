package models

import (
	"github.com/shopspring/decimal"
)

// ScreenedRow is one candidate row returned by the market screener.
// Ticker is the unique key within a run; display-only columns (market cap,
// P/E, volume) keep the screener's formatting and are never parsed.
type ScreenedRow struct {
	Ticker    string          `json:"ticker"`
	Company   string          `json:"company"`
	Sector    string          `json:"sector"`
	Industry  string          `json:"industry"`
	MarketCap string          `json:"market_cap"`
	PERatio   string          `json:"pe_ratio"`
	Price     decimal.Decimal `json:"price"`
	Change    float64         `json:"change"` // percent, signed
	Volume    string          `json:"volume"`
}
