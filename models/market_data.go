package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents OHLCV price data for a time period
type Bar struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// IndicatorSet holds per-bar indicator series aligned 1:1 with a bar
// sequence. Series shorter than their window are computed over the bars
// available so far (shrinking window), so every slice here has the same
// length as the source bars.
type IndicatorSet struct {
	SMA20         []float64 `json:"sma_20"`
	SMA50         []float64 `json:"sma_50"`
	SMA200        []float64 `json:"sma_200"`
	MACD          []float64 `json:"macd"`
	MACDSignal    []float64 `json:"macd_signal"`
	MACDHistogram []float64 `json:"macd_histogram"`
	RSI14         []float64 `json:"rsi_14"`
	VolumeAvg     []float64 `json:"volume_avg"`
}

// SpikeDirection labels an intraday volume spike as buying or selling
// pressure based on the bar's close relative to its open.
type SpikeDirection string

const (
	SpikeBuy  SpikeDirection = "buy"
	SpikeSell SpikeDirection = "sell"
)

// SpikeEvent is one anomalous intraday bar whose volume exceeded the
// rolling baseline by more than the configured threshold.
type SpikeEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	BarIndex  int            `json:"bar_index"`
	Direction SpikeDirection `json:"direction"`
	Ratio     float64        `json:"ratio"` // volume / rolling baseline
	Volume    int64          `json:"volume"`
}

// TickerAnalysis is the complete analytics record for one ticker. It is
// created by the assembler and consumed read-only afterwards; a nil
// TickerAnalysis means the ticker is skipped, never that the run failed.
type TickerAnalysis struct {
	Ticker             string          `json:"ticker"`
	Daily              []Bar           `json:"daily"`
	DailyIndicators    *IndicatorSet   `json:"daily_indicators"`
	Extended           []Bar           `json:"extended"`
	ExtendedIndicators *IndicatorSet   `json:"extended_indicators"`
	Intraday           []Bar           `json:"intraday"`
	Spikes             []SpikeEvent    `json:"spikes"`
	TrendAboveSMA200   bool            `json:"trend_above_sma200"`
	LastClose          decimal.Decimal `json:"last_close"`
}
