package domain

import "errors"

var (
	// ErrUnreachable means the existence check failed after its retry budget
	// or returned a non-200 status. The row is skipped.
	ErrUnreachable = errors.New("page unreachable")

	// ErrSourceNotFound means no local raw-source file matched the row ID.
	ErrSourceNotFound = errors.New("raw source not found")

	// ErrAmbiguousSource means several files matched the row ID and the
	// lookup policy forbids picking one.
	ErrAmbiguousSource = errors.New("raw source is ambiguous")

	// ErrAnchorNotFound means the anchor node used to read the actual marker
	// is absent from the rendered page.
	ErrAnchorNotFound = errors.New("anchor element not found")

	// ErrSessionUnavailable means the render session could not be opened.
	// No row can proceed, so the run aborts.
	ErrSessionUnavailable = errors.New("render session unavailable")

	// ErrSessionClosed is returned by render operations after Close.
	ErrSessionClosed = errors.New("render session closed")
)
