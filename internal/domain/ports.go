package domain

import (
	"context"
	"time"
)

// ManifestReader reads the audit manifest. Incomplete rows are already
// dropped; Dropped counts them.
type ManifestReader interface {
	Read(path string) (*Manifest, error)
}

// Manifest is the authoritative list of rows for one run.
type Manifest struct {
	Source  string        `json:"source"`
	Rows    []ManifestRow `json:"rows"`
	Dropped int           `json:"dropped"`
}

// ExistenceResult is the outcome of a HEAD-style existence check.
type ExistenceResult struct {
	Reachable  bool  `json:"reachable"`
	StatusCode int   `json:"status_code"`
	Err        error `json:"-"`
}

// ExistenceChecker probes published pages over a pooled, retrying transport.
// CheckExists never returns an error: failures are reported as unreachable.
type ExistenceChecker interface {
	CheckExists(ctx context.Context, url string) ExistenceResult
	Close()
}

// SourceDocument is the raw markup exported for a page.
type SourceDocument struct {
	Path    string `json:"path"`
	Content string `json:"-"`
}

// SourceStore locates the raw source of a page by identifier.
type SourceStore interface {
	Lookup(id string) (*SourceDocument, error)
}

// Renderer opens render sessions.
type Renderer interface {
	// Open loads origin, injects cookies and reloads so that they apply to
	// every later navigation.
	Open(ctx context.Context, origin string, cookies []Cookie) (RenderSession, error)
}

// RenderSession is one authenticated, stateful browsing context. It is not
// safe for concurrent use.
type RenderSession interface {
	Navigate(ctx context.Context, url string) error
	// ReadMarkerClass returns the class tokens of the anchor node, or
	// ErrAnchorNotFound.
	ReadMarkerClass(ctx context.Context, anchorSelector string) ([]string, error)
	// WaitForMarker reports whether a node carrying the marker class appears
	// within timeout.
	WaitForMarker(ctx context.Context, marker Variant, timeout time.Duration) (bool, error)
	// Close is idempotent.
	Close() error
}

// ReportSink serializes discrepancies. It reports whether anything was
// written; an empty list writes nothing.
type ReportSink interface {
	Write(path string, records []Discrepancy) (bool, error)
}

// GitInfo reads revision metadata of the raw-source tree.
type GitInfo interface {
	IsGitRepo(path string) bool
	CommitHash(path string) (string, error)
}

// RunHistory persists past run entries.
type RunHistory interface {
	Save(dir string, entry RunEntry) error
	Load(dir string) ([]RunEntry, error)
}
