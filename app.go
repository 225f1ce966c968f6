package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketbrief/analysis"
	"marketbrief/config"
	"marketbrief/insights"
	"marketbrief/models"
	"marketbrief/observability"
	"marketbrief/report"
	"marketbrief/services"
)

// App wires the pipeline stages together and owns one report run end to end:
// screen, analyze, narrate, render, persist.
type App struct {
	cfg          *config.Config
	screener     services.ScreenerService
	assembler    *analysis.Assembler
	orchestrator *insights.Orchestrator
	archive      *report.Archive
	now          func() time.Time

	mu         sync.Mutex
	lastRun    time.Time
	lastStatus string
}

// NewApp creates a new App instance
func NewApp(cfg *config.Config, screener services.ScreenerService, assembler *analysis.Assembler, orchestrator *insights.Orchestrator, archive *report.Archive) *App {
	return &App{
		cfg:          cfg,
		screener:     screener,
		assembler:    assembler,
		orchestrator: orchestrator,
		archive:      archive,
		now:          time.Now,
	}
}

// RunReport executes one full report run. Individual tickers and narratives
// degrade gracefully; only a persistence failure makes the run itself fail.
func (a *App) RunReport(ctx context.Context) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	observability.Info("Report run started")

	rows := a.screenedRows(ctx)

	analyses := make(map[string]*models.TickerAnalysis, len(rows))
	for _, row := range rows {
		if result := a.assembler.Assemble(ctx, row.Ticker); result != nil {
			analyses[row.Ticker] = result
		}
	}
	observability.Info("Analytics assembled", "candidates", len(rows), "analyzed", len(analyses))

	narratives := a.orchestrator.Run(ctx, rows, analyses)

	dateKey := report.DateKey(a.now())
	snapshot := &models.ReportSnapshot{
		ID:           uuid.New(),
		DateKey:      dateKey,
		GeneratedAt:  a.now(),
		Entries:      buildEntries(rows, analyses, narratives),
		ArchiveDates: a.priorDates(dateKey),
	}

	chartSets := a.writeCharts(dateKey, snapshot)

	html, err := report.RenderSnapshot(snapshot, chartSets)
	if err != nil {
		a.finish(timer, "error")
		return err
	}
	if err := a.archive.Write(dateKey, html); err != nil {
		a.finish(timer, "error")
		return err
	}

	a.finish(timer, "ok")
	observability.Info("Report run finished",
		"date_key", dateKey,
		"entries", len(snapshot.Entries),
		"duration", timer.Duration())
	return nil
}

// screenedRows fetches the candidate table, falling back to a single known
// ticker when the screener is fully unavailable so the run still produces a
// renderable report.
func (a *App) screenedRows(ctx context.Context) []models.ScreenedRow {
	rows, err := a.screener.FetchRows(ctx)
	if err != nil {
		observability.Error("Screener unavailable, using fallback candidate", "error", err)
		return []models.ScreenedRow{fallbackRow()}
	}
	if len(rows) == 0 {
		observability.Warn("Screener returned no rows, using fallback candidate")
		return []models.ScreenedRow{fallbackRow()}
	}
	return rows
}

// fallbackRow is the stand-in candidate used when the screener fails. The
// display columns are deliberately marked so a reader can tell the screener
// data is missing.
func fallbackRow() models.ScreenedRow {
	return models.ScreenedRow{
		Ticker:    "AAPL",
		Company:   "Apple Inc. (fallback)",
		Sector:    "Technology",
		Industry:  "Consumer Electronics",
		MarketCap: "-",
		PERatio:   "-",
		Price:     decimal.Zero,
		Change:    0,
		Volume:    "-",
	}
}

func buildEntries(rows []models.ScreenedRow, analyses map[string]*models.TickerAnalysis, narratives map[string]string) []models.ReportEntry {
	entries := make([]models.ReportEntry, 0, len(rows))
	for _, row := range rows {
		narrative := narratives[row.Ticker]
		if narrative == "" {
			narrative = insights.Placeholder
		}
		entries = append(entries, models.ReportEntry{
			Row:       row,
			Analysis:  analyses[row.Ticker],
			Narrative: narrative,
		})
	}
	return entries
}

// priorDates lists the archived date keys excluding the current run's, so a
// same-day rerun does not link the report to itself.
func (a *App) priorDates(dateKey string) []string {
	dates, err := a.archive.ListDates()
	if err != nil {
		observability.Warn("Failed to list archived reports", "error", err)
		return nil
	}
	out := dates[:0]
	for _, d := range dates {
		if d != dateKey {
			out = append(out, d)
		}
	}
	return out
}

// writeCharts renders and persists chart artifacts per analyzed ticker. A
// chart failure drops that ticker's charts, never the run.
func (a *App) writeCharts(dateKey string, snapshot *models.ReportSnapshot) map[string]report.ChartSet {
	sets := make(map[string]report.ChartSet)
	for _, entry := range snapshot.AnalyzedEntries() {
		artifacts, set, err := report.BuildCharts(dateKey, entry.Analysis)
		if err != nil {
			observability.Warn("Chart rendering failed, report card will have no charts",
				"ticker", entry.Row.Ticker,
				"error", err)
			continue
		}

		ok := true
		for name, data := range artifacts {
			if err := a.archive.WriteChart(name, data); err != nil {
				observability.Warn("Chart write failed", "chart", name, "error", err)
				ok = false
			}
		}
		if ok {
			sets[entry.Row.Ticker] = set
		}
	}
	return sets
}

func (a *App) finish(timer *observability.Timer, status string) {
	timer.ObserveRun(status)
	a.mu.Lock()
	a.lastRun = a.now()
	a.lastStatus = status
	a.mu.Unlock()
}

// LastRun reports when the most recent run finished and its status. The zero
// time means no run has completed yet.
func (a *App) LastRun() (time.Time, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRun, a.lastStatus
}
