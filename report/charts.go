package report

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"marketbrief/models"
)

// ChartSet names the chart artifacts generated for one ticker. Empty fields
// mean the chart was not produced (no intraday data, for example).
type ChartSet struct {
	Daily    string
	Extended string
	Intraday string
}

// ChartFileName builds the artifact name for one chart. The date key prefix
// keeps every dated report pointing at the charts of its own run.
func ChartFileName(dateKey, ticker, kind string) string {
	return fmt.Sprintf("%s_%s_%s.html", dateKey, ticker, kind)
}

// BuildCharts renders the chart artifacts for one analyzed ticker. It
// returns the artifact bytes keyed by file name plus the ChartSet to embed
// in the report.
func BuildCharts(dateKey string, a *models.TickerAnalysis) (map[string][]byte, ChartSet, error) {
	artifacts := make(map[string][]byte)
	var set ChartSet

	daily, err := renderDailyChart(a.Ticker+" 日線 (近一年)", a.Daily, a.DailyIndicators)
	if err != nil {
		return nil, set, fmt.Errorf("failed to render daily chart for %s: %w", a.Ticker, err)
	}
	set.Daily = ChartFileName(dateKey, a.Ticker, "daily")
	artifacts[set.Daily] = daily

	extended, err := renderDailyChart(a.Ticker+" 日線 (兩年)", a.Extended, a.ExtendedIndicators)
	if err != nil {
		return nil, set, fmt.Errorf("failed to render extended chart for %s: %w", a.Ticker, err)
	}
	set.Extended = ChartFileName(dateKey, a.Ticker, "extended")
	artifacts[set.Extended] = extended

	if len(a.Intraday) > 0 {
		intraday, err := renderIntradayChart(a.Ticker+" 1 分鐘", a.Intraday, a.Spikes)
		if err != nil {
			return nil, set, fmt.Errorf("failed to render intraday chart for %s: %w", a.Ticker, err)
		}
		set.Intraday = ChartFileName(dateKey, a.Ticker, "intraday")
		artifacts[set.Intraday] = intraday
	}

	return artifacts, set, nil
}

func newKLine(title string) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30"}),
		charts.WithXAxisOpts(opts.XAxis{SplitNumber: 12}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
	)
	return kline
}

// renderDailyChart draws daily candles with the moving averages overlaid and
// volume as a bar series on a secondary axis.
func renderDailyChart(title string, bars []models.Bar, ind *models.IndicatorSet) ([]byte, error) {
	x := make([]string, len(bars))
	candles := make([]opts.KlineData, len(bars))
	volumes := make([]opts.BarData, len(bars))
	for i, b := range bars {
		x[i] = b.Timestamp.Format("2006-01-02")
		candles[i] = opts.KlineData{Value: [4]float64{
			b.Open.InexactFloat64(),
			b.Close.InexactFloat64(),
			b.Low.InexactFloat64(),
			b.High.InexactFloat64(),
		}}
		volumes[i] = opts.BarData{Value: b.Volume}
	}

	kline := newKLine(title)
	kline.SetXAxis(x).AddSeries("K線", candles)

	if ind != nil {
		kline.Overlap(smaLine(x, "SMA20", ind.SMA20))
		kline.Overlap(smaLine(x, "SMA50", ind.SMA50))
		kline.Overlap(smaLine(x, "SMA200", ind.SMA200))
	}

	kline.ExtendYAxis(opts.YAxis{Type: "value", Show: opts.Bool(false)})
	bar := charts.NewBar()
	bar.SetXAxis(x).AddSeries("成交量", volumes, charts.WithBarChartOpts(opts.BarChart{YAxisIndex: 1}))
	kline.Overlap(bar)

	return renderChart(kline)
}

// renderIntradayChart draws minute candles with volume and marks each
// detected spike with a directional annotation at the bar's high.
func renderIntradayChart(title string, bars []models.Bar, spikes []models.SpikeEvent) ([]byte, error) {
	x := make([]string, len(bars))
	candles := make([]opts.KlineData, len(bars))
	volumes := make([]opts.BarData, len(bars))
	for i, b := range bars {
		x[i] = b.Timestamp.Format("15:04")
		candles[i] = opts.KlineData{Value: [4]float64{
			b.Open.InexactFloat64(),
			b.Close.InexactFloat64(),
			b.Low.InexactFloat64(),
			b.High.InexactFloat64(),
		}}
		volumes[i] = opts.BarData{Value: b.Volume}
	}

	marks := make([]charts.SeriesOpts, 0, len(spikes))
	for _, s := range spikes {
		if s.BarIndex < 0 || s.BarIndex >= len(bars) {
			continue
		}
		name := "▲ BUY"
		color := "#d62728"
		if s.Direction == models.SpikeSell {
			name = "▼ SELL"
			color = "#2ca02c"
		}
		marks = append(marks, charts.WithMarkPointNameCoordItemOpts(opts.MarkPointNameCoordItem{
			Name:       name,
			Coordinate: []interface{}{x[s.BarIndex], bars[s.BarIndex].High.InexactFloat64()},
			Label:      &opts.Label{Show: opts.Bool(true), Formatter: name, Color: color},
			ItemStyle:  &opts.ItemStyle{Color: color},
		}))
	}

	kline := newKLine(title)
	kline.SetXAxis(x).AddSeries("K線", candles, marks...)

	kline.ExtendYAxis(opts.YAxis{Type: "value", Show: opts.Bool(false)})
	bar := charts.NewBar()
	bar.SetXAxis(x).AddSeries("成交量", volumes, charts.WithBarChartOpts(opts.BarChart{YAxisIndex: 1}))
	kline.Overlap(bar)

	return renderChart(kline)
}

func smaLine(x []string, name string, values []float64) *charts.Line {
	points := make([]opts.LineData, len(values))
	for i, v := range values {
		points[i] = opts.LineData{Value: v}
	}
	line := charts.NewLine()
	line.SetXAxis(x).AddSeries(name, points,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}))
	return line
}

func renderChart(kline *charts.Kline) ([]byte, error) {
	var buf bytes.Buffer
	if err := kline.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
