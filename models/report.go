package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportEntry pairs a screened row with its analytics and narrative.
// Analysis may be nil when the assembler skipped the ticker; Narrative is
// always non-empty (a placeholder at worst).
type ReportEntry struct {
	Row       ScreenedRow     `json:"row"`
	Analysis  *TickerAnalysis `json:"analysis,omitempty"`
	Narrative string          `json:"narrative"`
}

// ReportSnapshot is one run's complete report payload. It is written once
// to the current location and once to a dated archive location and never
// mutated afterwards.
type ReportSnapshot struct {
	ID           uuid.UUID     `json:"id"`
	DateKey      string        `json:"date_key"` // YYYYMMDD
	GeneratedAt  time.Time     `json:"generated_at"`
	Entries      []ReportEntry `json:"entries"`
	ArchiveDates []string      `json:"archive_dates"` // prior snapshots, most recent first
}

// AnalyzedEntries returns the entries whose assembler produced a full
// analysis; only these get chart cards in the rendered report.
func (s *ReportSnapshot) AnalyzedEntries() []ReportEntry {
	out := make([]ReportEntry, 0, len(s.Entries))
	for _, e := range s.Entries {
		if e.Analysis != nil {
			out = append(out, e)
		}
	}
	return out
}
