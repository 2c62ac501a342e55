package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/domain"
	"github.com/openkraft/headeraudit/internal/domain/classify"
)

// VerifierOptions configures the per-row render step.
type VerifierOptions struct {
	AnchorSelector string
	ConfirmTimeout time.Duration
}

// Verifier runs one manifest row through the verification state machine:
// existence -> source -> classify -> render -> confirm.
type Verifier struct {
	urls       *domain.PageURLBuilder
	existence  domain.ExistenceChecker
	sources    domain.SourceStore
	classifier *classify.Classifier
	opts       VerifierOptions
	log        *zap.Logger
}

func NewVerifier(
	urls *domain.PageURLBuilder,
	existence domain.ExistenceChecker,
	sources domain.SourceStore,
	classifier *classify.Classifier,
	opts VerifierOptions,
	log *zap.Logger,
) *Verifier {
	if opts.AnchorSelector == "" {
		opts.AnchorSelector = domain.DefaultAnchorSelector
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = domain.DefaultConfirmTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		urls:       urls,
		existence:  existence,
		sources:    sources,
		classifier: classifier,
		opts:       opts,
		log:        log,
	}
}

// Verify processes one row. When checked is non-nil the existence step reuses
// that prefetched result instead of probing again. session is borrowed for
// the duration of the call only. Every failure is folded into the outcome;
// Verify never returns an error.
func (v *Verifier) Verify(
	ctx context.Context,
	row domain.ManifestRow,
	session domain.RenderSession,
	checked *domain.ExistenceResult,
) (out domain.RowOutcome) {
	out.Row = row
	out.Enter(domain.StatePending)

	pageURL := v.urls.Build(row.ID)
	log := v.log.With(zap.String("id", row.ID), zap.String("url", domain.Redact(pageURL)))

	defer func() {
		if r := recover(); r != nil {
			out.Skip = domain.SkipFailed
			out.Record = nil
			out.Err = fmt.Errorf("row %s: panic: %v", row.ID, r)
			log.Error("row aborted", zap.Any("panic", r))
		}
		out.Enter(domain.StateDone)
	}()

	// 1. Existence
	out.Enter(domain.StateCheckingExistence)
	res := v.checkExists(ctx, pageURL, checked)
	if !res.Reachable {
		out.Enter(domain.StateSkipped)
		out.Skip = domain.SkipUnreachable
		out.Err = fmt.Errorf("row %s: %w (status %d)", row.ID, domain.ErrUnreachable, res.StatusCode)
		if res.Err != nil {
			out.Err = fmt.Errorf("row %s: %w: %v", row.ID, domain.ErrUnreachable, res.Err)
		}
		log.Info("page unreachable, skipping", zap.Int("status", res.StatusCode), zap.NamedError("cause", res.Err))
		return out
	}

	// 2. Raw source
	out.Enter(domain.StateFetchingSource)
	doc, err := v.sources.Lookup(row.ID)
	if err != nil {
		out.Enter(domain.StateSkipped)
		out.Err = fmt.Errorf("row %s: %w", row.ID, err)
		switch {
		case errors.Is(err, domain.ErrSourceNotFound):
			out.Skip = domain.SkipSourceMissing
			log.Warn("raw source not found, skipping")
		case errors.Is(err, domain.ErrAmbiguousSource):
			out.Skip = domain.SkipAmbiguous
			log.Warn("raw source ambiguous, skipping", zap.Error(err))
		default:
			out.Skip = domain.SkipFailed
			log.Error("reading raw source failed", zap.Error(err))
		}
		return out
	}

	// 3. Classify
	out.Enter(domain.StateClassifying)
	expected, ok := v.classifier.Expected(row.Template, doc.Content)
	if !ok {
		out.Skip = domain.SkipNoExpectation
		log.Debug("no expectation for declared template", zap.String("template", string(row.Template)))
		return out
	}
	out.Expected = expected

	// 4. Render
	out.Enter(domain.StateRendering)
	if err := session.Navigate(ctx, pageURL); err != nil {
		out.Enter(domain.StateSkipped)
		out.Skip = domain.SkipFailed
		out.Err = fmt.Errorf("row %s: navigating: %w", row.ID, err)
		log.Error("navigation failed, skipping", zap.Error(err))
		return out
	}
	tokens, err := session.ReadMarkerClass(ctx, v.opts.AnchorSelector)
	switch {
	case errors.Is(err, domain.ErrAnchorNotFound):
		log.Debug("anchor not found, actual variant unknown", zap.String("anchor", v.opts.AnchorSelector))
	case err != nil:
		out.Enter(domain.StateSkipped)
		out.Skip = domain.SkipFailed
		out.Err = fmt.Errorf("row %s: reading anchor: %w", row.ID, err)
		log.Error("reading anchor failed, skipping", zap.Error(err))
		return out
	default:
		out.Actual, _ = domain.VariantFromTokens(tokens)
	}

	// 5. Confirm
	out.Enter(domain.StateConfirming)
	found, err := session.WaitForMarker(ctx, expected, v.opts.ConfirmTimeout)
	if err != nil {
		out.Enter(domain.StateSkipped)
		out.Skip = domain.SkipFailed
		out.Err = fmt.Errorf("row %s: confirming marker: %w", row.ID, err)
		log.Error("confirmation failed, skipping", zap.Error(err))
		return out
	}
	if found {
		out.Enter(domain.StateOK)
		log.Info("rendered as expected", zap.String("expected", string(expected)))
		return out
	}

	out.Enter(domain.StateFlagged)
	rec := domain.NewDiscrepancy(row.ID, out.Actual, expected)
	out.Record = &rec
	log.Warn("expected marker never appeared",
		zap.String("expected", string(expected)),
		zap.String("actual", string(out.Actual)),
		zap.Duration("timeout", v.opts.ConfirmTimeout))
	return out
}

// CheckExists exposes the existence step for prefetching.
func (v *Verifier) CheckExists(ctx context.Context, id string) domain.ExistenceResult {
	return v.existence.CheckExists(ctx, v.urls.Build(id))
}

func (v *Verifier) checkExists(ctx context.Context, pageURL string, checked *domain.ExistenceResult) domain.ExistenceResult {
	if checked != nil {
		return *checked
	}
	return v.existence.CheckExists(ctx, pageURL)
}
