package analysis

import (
	"marketbrief/config"
	"marketbrief/models"
)

// SMASeries computes the simple moving average of values over a trailing
// window. For indices with fewer than window prior values the average is
// taken over whatever is available (shrinking window), so the output always
// has the same length as the input and overlay lines stay continuous from
// the first bar.
func SMASeries(values []float64, window int) []float64 {
	if window <= 0 || len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// EMASeries computes the exponential moving average with alpha = 2/(span+1),
// seeded with the first value.
func EMASeries(values []float64, span int) []float64 {
	if span <= 0 || len(values) == 0 {
		return nil
	}
	alpha := 2.0 / float64(span+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// MACD computes the MACD line (EMA12 - EMA26), the signal line (EMA9 of the
// MACD line), and the histogram (MACD - signal) for each index.
func MACD(closes []float64) (macd, signal, histogram []float64) {
	if len(closes) == 0 {
		return nil, nil, nil
	}
	ema12 := EMASeries(closes, 12)
	ema26 := EMASeries(closes, 26)
	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = ema12[i] - ema26[i]
	}
	signal = EMASeries(macd, 9)
	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}

// RSISeries computes the Relative Strength Index per bar over a trailing
// window of close deltas. The first value (no delta yet) is neutral 50;
// a window with zero average loss saturates to exactly 100, never NaN.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 || len(closes) == 0 {
		return nil
	}
	out := make([]float64, len(closes))
	out[0] = 50
	for i := 1; i < len(closes); i++ {
		start := i - period
		if start < 0 {
			start = 0
		}
		var gains, losses float64
		for j := start + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gains += change
			} else {
				losses -= change
			}
		}
		n := float64(i - start)
		avgGain := gains / n
		avgLoss := losses / n
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Closes extracts close prices as float64 for indicator math
func Closes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i], _ = b.Close.Float64()
	}
	return out
}

// Volumes extracts volumes as float64
func Volumes(bars []models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = float64(b.Volume)
	}
	return out
}

// ComputeIndicators derives the full indicator set for a bar sequence.
// Every series in the result is aligned 1:1 with bars.
func ComputeIndicators(bars []models.Bar, cfg *config.AnalysisConfig) *models.IndicatorSet {
	if len(bars) == 0 {
		return nil
	}
	closes := Closes(bars)
	macd, signal, histogram := MACD(closes)
	return &models.IndicatorSet{
		SMA20:         SMASeries(closes, 20),
		SMA50:         SMASeries(closes, 50),
		SMA200:        SMASeries(closes, 200),
		MACD:          macd,
		MACDSignal:    signal,
		MACDHistogram: histogram,
		RSI14:         RSISeries(closes, cfg.RSIPeriod),
		VolumeAvg:     SMASeries(Volumes(bars), cfg.SpikeWindow),
	}
}

// TrendAboveLongAverage reports whether the last close sits above the last
// value of the long moving average (shrinking-window value on short series).
func TrendAboveLongAverage(closes, sma200 []float64) bool {
	if len(closes) == 0 || len(sma200) == 0 {
		return false
	}
	return closes[len(closes)-1] > sma200[len(sma200)-1]
}
