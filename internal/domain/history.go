package domain

import "time"

// RunEntry is one line of the audit history.
type RunEntry struct {
	Timestamp      string `json:"timestamp"`
	Manifest       string `json:"manifest"`
	SourceRevision string `json:"source_revision,omitempty"`
	Rows           int    `json:"rows"`
	OK             int    `json:"ok"`
	Flagged        int    `json:"flagged"`
	Skipped        int    `json:"skipped"`
	Report         string `json:"report,omitempty"`
}

// NewRunEntry condenses a summary into a history entry stamped with at.
func NewRunEntry(s *RunSummary, at time.Time) RunEntry {
	skipped := 0
	for _, n := range s.Skipped {
		skipped += n
	}
	return RunEntry{
		Timestamp:      at.UTC().Format(time.RFC3339),
		Manifest:       s.Manifest,
		SourceRevision: s.SourceRevision,
		Rows:           s.RowsRead - s.RowsDropped,
		OK:             s.OK,
		Flagged:        s.Flagged,
		Skipped:        skipped,
		Report:         s.ReportPath,
	}
}
