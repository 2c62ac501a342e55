package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openkraft/headeraudit/internal/domain"
)

// AuditOptions configures one run.
type AuditOptions struct {
	// Origin is loaded before cookies are injected into the render session.
	Origin  string
	Cookies []domain.Cookie
	// Prefetch fans existence checks out ahead of the render loop, at most
	// Workers at a time.
	Prefetch bool
	Workers  int
	// SourceRoot is stamped with its git revision when it is a repository.
	SourceRoot string
}

// AuditService orchestrates the audit pipeline:
// read manifest -> (prefetch existence) -> open session -> verify rows in order -> close.
type AuditService struct {
	manifests domain.ManifestReader
	renderer  domain.Renderer
	verifier  *Verifier
	existence domain.ExistenceChecker
	git       domain.GitInfo
	log       *zap.Logger
}

func NewAuditService(
	manifests domain.ManifestReader,
	renderer domain.Renderer,
	verifier *Verifier,
	existence domain.ExistenceChecker,
	git domain.GitInfo,
	log *zap.Logger,
) *AuditService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditService{
		manifests: manifests,
		renderer:  renderer,
		verifier:  verifier,
		existence: existence,
		git:       git,
		log:       log,
	}
}

// Run audits every row of the manifest at manifestPath. The returned summary
// lists discrepancies in manifest order. Only manifest and session
// acquisition failures are returned as errors; per-row failures are folded
// into the summary.
func (s *AuditService) Run(ctx context.Context, manifestPath string, opts AuditOptions) (*domain.RunSummary, error) {
	defer s.existence.Close()

	manifest, err := s.manifests.Read(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	summary := &domain.RunSummary{
		Manifest:      manifest.Source,
		RowsRead:      len(manifest.Rows) + manifest.Dropped,
		RowsDropped:   manifest.Dropped,
		Skipped:       make(map[string]int),
		Discrepancies: []domain.Discrepancy{},
	}
	if manifest.Dropped > 0 {
		s.log.Info("dropped incomplete manifest rows", zap.Int("dropped", manifest.Dropped))
	}
	s.stampRevision(summary, opts.SourceRoot)

	if len(manifest.Rows) == 0 {
		return summary, nil
	}

	var checked []domain.ExistenceResult
	if opts.Prefetch {
		checked, err = s.prefetch(ctx, manifest.Rows, opts.Workers)
		if err != nil {
			return nil, err
		}
	}

	session, err := s.renderer.Open(ctx, opts.Origin, opts.Cookies)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSessionUnavailable, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.log.Warn("closing render session", zap.Error(cerr))
		}
	}()

	for i, row := range manifest.Rows {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("audit interrupted after %d rows: %w", i, err)
		}
		var pre *domain.ExistenceResult
		if checked != nil {
			pre = &checked[i]
		}
		out := s.verifier.Verify(ctx, row, session, pre)
		summary.Tally(out)
	}

	s.log.Info("audit finished",
		zap.Int("rows", len(manifest.Rows)),
		zap.Int("ok", summary.OK),
		zap.Int("flagged", summary.Flagged))
	return summary, nil
}

// prefetch runs existence checks concurrently, bounded by workers. Results are
// indexed by row so the render loop keeps manifest order.
func (s *AuditService) prefetch(ctx context.Context, rows []domain.ManifestRow, workers int) ([]domain.ExistenceResult, error) {
	if workers <= 0 {
		workers = domain.DefaultPoolSize
	}
	results := make([]domain.ExistenceResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, row := range rows {
		g.Go(func() error {
			results[i] = s.verifier.CheckExists(gctx, row.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prefetching existence: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prefetching existence: %w", err)
	}
	return results, nil
}

func (s *AuditService) stampRevision(summary *domain.RunSummary, root string) {
	if s.git == nil || root == "" || !s.git.IsGitRepo(root) {
		return
	}
	hash, err := s.git.CommitHash(root)
	if err != nil {
		s.log.Debug("reading source revision", zap.Error(err))
		return
	}
	summary.SourceRevision = hash
}

// IsFatal reports whether err aborted the whole run rather than a single row.
func IsFatal(err error) bool {
	return errors.Is(err, domain.ErrSessionUnavailable)
}
