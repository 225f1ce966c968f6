package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"marketbrief/config"
	"marketbrief/models"
	"marketbrief/observability"
)

// browserUserAgent is required by the screener, which rejects default Go
// client requests.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// FinvizService scrapes the finviz screener into typed rows
type FinvizService struct {
	client       *http.Client
	url          string
	maxRows      int
	maxAbsChange float64
}

// NewFinvizService creates a new FinvizService
func NewFinvizService(cfg *config.ScreenerConfig) *FinvizService {
	return &FinvizService{
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		url:          cfg.URL,
		maxRows:      cfg.MaxRows,
		maxAbsChange: cfg.MaxAbsChange,
	}
}

// FetchRows fetches the screener page and returns the typed, deduplicated
// candidate table. Rows that fail numeric parsing are dropped; rows whose
// |percent change| exceeds the configured cutoff are rejected as
// pump-and-dump noise; the result is truncated to MaxRows.
func (s *FinvizService) FetchRows(ctx context.Context) ([]models.ScreenedRow, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest("finviz", "screen")
	timer := metrics.NewTimer()
	defer timer.ObserveExternalAPI("finviz", "screen")

	var body []byte
	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		var ferr error
		body, ferr = WithCircuitBreaker(ctx, BreakerFinviz, func() ([]byte, error) {
			return s.fetch(ctx)
		})
		return ferr
	})
	if err != nil {
		metrics.RecordExternalAPIError("finviz", "screen")
		return nil, fmt.Errorf("failed to fetch screener page: %w", err)
	}

	rows, err := s.parse(body)
	if err != nil {
		metrics.RecordExternalAPIError("finviz", "screen")
		return nil, err
	}

	observability.Info("screener rows fetched", "rows", len(rows))
	return rows, nil
}

func (s *FinvizService) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build screener request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", "https://finviz.com/")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screener request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screener returned HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// parse extracts screener rows from the overview table. The row selector
// has changed across finviz revisions, so three shapes are probed in order.
func (s *FinvizService) parse(body []byte) ([]models.ScreenedRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse screener HTML: %w", err)
	}

	sel := doc.Find(`tr[valign="top"]`)
	if sel.Length() == 0 {
		sel = doc.Find("tr.screener-body-table-nw")
	}
	if sel.Length() == 0 {
		sel = doc.Find("table.table-light tr")
	}

	metrics := observability.GetMetrics()
	seen := make(map[string]bool)
	rows := make([]models.ScreenedRow, 0, s.maxRows)

	sel.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		if len(rows) >= s.maxRows {
			return false
		}

		tds := tr.Find("td")
		if tds.Length() < 11 {
			return true
		}

		cell := func(i int) string {
			return strings.TrimSpace(tds.Eq(i).Text())
		}

		ticker := cell(1)
		if ticker == "" {
			metrics.RecordScreenerRow("malformed")
			return true
		}
		if seen[ticker] {
			metrics.RecordScreenerRow("duplicate")
			return true
		}

		price, err := decimal.NewFromString(cell(8))
		if err != nil || price.IsNegative() {
			metrics.RecordScreenerRow("malformed")
			return true
		}

		change, err := strconv.ParseFloat(strings.TrimSuffix(cell(9), "%"), 64)
		if err != nil {
			metrics.RecordScreenerRow("malformed")
			return true
		}
		if change > s.maxAbsChange || change < -s.maxAbsChange {
			observability.Warn("screener row rejected by change cutoff",
				"ticker", ticker,
				"change", change)
			metrics.RecordScreenerRow("rejected")
			return true
		}

		seen[ticker] = true
		metrics.RecordScreenerRow("kept")
		rows = append(rows, models.ScreenedRow{
			Ticker:    ticker,
			Company:   cell(2),
			Sector:    cell(3),
			Industry:  cell(4),
			MarketCap: cell(6),
			PERatio:   cell(7),
			Price:     price,
			Change:    change,
			Volume:    cell(10),
		})
		return true
	})

	return rows, nil
}
