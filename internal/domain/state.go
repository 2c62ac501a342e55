package domain

// RowState is a step of the per-row verification state machine.
type RowState string

const (
	StatePending           RowState = "pending"
	StateCheckingExistence RowState = "checking_existence"
	StateSkipped           RowState = "skipped"
	StateFetchingSource    RowState = "fetching_source"
	StateClassifying       RowState = "classifying"
	StateRendering         RowState = "rendering"
	StateConfirming        RowState = "confirming"
	StateOK                RowState = "ok"
	StateFlagged           RowState = "flagged"
	StateDone              RowState = "done"
)

// SkipReason explains why a row produced no verdict.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipUnreachable   SkipReason = "unreachable"
	SkipSourceMissing SkipReason = "source_not_found"
	SkipAmbiguous     SkipReason = "source_ambiguous"
	SkipNoExpectation SkipReason = "no_expectation"
	SkipFailed        SkipReason = "failed"
)

// RowOutcome is the result of verifying one manifest row.
type RowOutcome struct {
	Row      ManifestRow  `json:"row"`
	Path     []RowState   `json:"path"`
	Skip     SkipReason   `json:"skip,omitempty"`
	Expected Variant      `json:"expected,omitempty"`
	Actual   Variant      `json:"actual,omitempty"`
	Record   *Discrepancy `json:"record,omitempty"`
	Err      error        `json:"-"`
}

// Enter records a transition.
func (o *RowOutcome) Enter(s RowState) {
	o.Path = append(o.Path, s)
}

// Verdict is the last decisive state: skipped, ok or flagged.
func (o RowOutcome) Verdict() RowState {
	switch {
	case o.Record != nil:
		return StateFlagged
	case o.Skip != SkipNone:
		return StateSkipped
	default:
		return StateOK
	}
}

// RunSummary aggregates a whole run.
type RunSummary struct {
	Manifest       string         `json:"manifest"`
	SourceRevision string         `json:"source_revision,omitempty"`
	RowsRead       int            `json:"rows_read"`
	RowsDropped    int            `json:"rows_dropped"`
	OK             int            `json:"ok"`
	Flagged        int            `json:"flagged"`
	Skipped        map[string]int `json:"skipped"`
	Discrepancies  []Discrepancy  `json:"discrepancies"`
	ReportPath     string         `json:"report_path,omitempty"`
}

// Tally folds a row outcome into the summary. Records are appended in call
// order, so feeding outcomes in manifest order keeps the report ordered.
func (s *RunSummary) Tally(o RowOutcome) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	switch {
	case o.Record != nil:
		s.Flagged++
		s.Discrepancies = append(s.Discrepancies, *o.Record)
	case o.Skip != SkipNone:
		s.Skipped[string(o.Skip)]++
	default:
		s.OK++
	}
}
