package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"marketbrief/observability"
)

const (
	currentReportName = "report.html"
	datedReportPrefix = "report_"
	chartsSubdir      = "charts"
)

// Archive manages the report output directory: the current report, dated
// snapshots, and chart artifacts. Writes go through a temp file and rename
// so a reader never sees a half-written report.
type Archive struct {
	dir string
}

// NewArchive creates the output directory (and its charts/ subdirectory) if
// needed and returns an Archive rooted there.
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Join(dir, chartsSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Dir returns the archive root directory
func (a *Archive) Dir() string {
	return a.dir
}

// ChartsDir returns the directory holding chart artifacts
func (a *Archive) ChartsDir() string {
	return filepath.Join(a.dir, chartsSubdir)
}

// DateKey formats a time as the YYYYMMDD archive key
func DateKey(t time.Time) string {
	return t.Format("20060102")
}

// CurrentPath returns the path of the always-latest report
func (a *Archive) CurrentPath() string {
	return filepath.Join(a.dir, currentReportName)
}

// DatedPath returns the path of the snapshot for the given date key
func (a *Archive) DatedPath(dateKey string) string {
	return filepath.Join(a.dir, datedReportPrefix+dateKey+".html")
}

// ListDates returns the date keys of all archived snapshots, most recent
// first. Files that do not match the report_YYYYMMDD.html shape are ignored.
func (a *Archive) ListDates() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, datedReportPrefix) || !strings.HasSuffix(name, ".html") {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, datedReportPrefix), ".html")
		if _, err := time.Parse("20060102", key); err != nil {
			continue
		}
		dates = append(dates, key)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Write persists the rendered report to both the current location and the
// dated snapshot for dateKey. Running twice on the same day overwrites the
// snapshot in place rather than accumulating duplicates.
func (a *Archive) Write(dateKey string, html []byte) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveWrite("report")

	if err := a.writeAtomic(a.DatedPath(dateKey), html); err != nil {
		return fmt.Errorf("failed to write dated report %s: %w", dateKey, err)
	}
	if err := a.writeAtomic(a.CurrentPath(), html); err != nil {
		return fmt.Errorf("failed to write current report: %w", err)
	}

	observability.Info("Report written", "date_key", dateKey, "bytes", len(html))
	return nil
}

// WriteChart persists one chart artifact under charts/. The name should come
// from ChartFileName so dated reports keep resolving their own charts.
func (a *Archive) WriteChart(name string, html []byte) error {
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	defer timer.ObserveWrite("chart")

	if err := a.writeAtomic(filepath.Join(a.ChartsDir(), name), html); err != nil {
		return fmt.Errorf("failed to write chart %s: %w", name, err)
	}
	return nil
}

func (a *Archive) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Chmod(path, 0o644)
}
