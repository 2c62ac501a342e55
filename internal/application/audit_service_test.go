package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/openkraft/headeraudit/internal/application"
	"github.com/openkraft/headeraudit/internal/domain"
	"github.com/openkraft/headeraudit/internal/domain/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type auditFixture struct {
	manifest  *fakeManifest
	existence *fakeExistence
	sources   *fakeSources
	session   *fakeSession
	renderer  *fakeRenderer
	svc       *application.AuditService
}

func newAuditFixture(t *testing.T, rows ...domain.ManifestRow) *auditFixture {
	t.Helper()
	urls, err := domain.NewPageURLBuilder(pageURLTemplate, "")
	require.NoError(t, err)

	f := &auditFixture{
		manifest:  &fakeManifest{manifest: &domain.Manifest{Rows: rows}},
		existence: newFakeExistence(),
		sources:   &fakeSources{docs: map[string]string{}, errs: map[string]error{}},
		session:   &fakeSession{pages: map[string]page{}},
	}
	f.renderer = &fakeRenderer{session: f.session}
	verifier := application.NewVerifier(
		urls, f.existence, f.sources,
		classify.New(domain.PatternHeader, domain.VariantTextBar),
		application.VerifierOptions{ConfirmTimeout: time.Second},
		nil,
	)
	f.svc = application.NewAuditService(f.manifest, f.renderer, verifier, f.existence, fakeGit{repo: true, hash: "abc123"}, nil)
	return f
}

func row(id string, tpl domain.DeclaredTemplate) domain.ManifestRow {
	return domain.ManifestRow{ID: id, Template: tpl}
}

func ids(records []domain.Discrepancy) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestAuditService_ReportFollowsManifestOrder(t *testing.T) {
	var rows []domain.ManifestRow
	for i := 0; i < 30; i++ {
		rows = append(rows, row(fmt.Sprint(i), domain.TemplateFull))
	}
	f := newAuditFixture(t, rows...)
	for i := 0; i < 30; i++ {
		id := fmt.Sprint(i)
		f.sources.docs[id] = plainSource
		// every third page renders correctly, the rest are flagged
		f.session.pages[pageURL(id)] = page{
			markers: map[domain.Variant]bool{domain.VariantFullHeader: i%3 == 0},
		}
	}

	for _, prefetch := range []bool{false, true} {
		t.Run(fmt.Sprintf("prefetch=%v", prefetch), func(t *testing.T) {
			f.session.closes = 0
			summary, err := f.svc.Run(context.Background(), "manifest.xlsx", application.AuditOptions{
				Prefetch: prefetch,
				Workers:  4,
			})
			require.NoError(t, err)

			var want []string
			for i := 0; i < 30; i++ {
				if i%3 != 0 {
					want = append(want, fmt.Sprint(i))
				}
			}
			if diff := cmp.Diff(want, ids(summary.Discrepancies)); diff != "" {
				t.Errorf("discrepancy order mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 10, summary.OK)
			assert.Equal(t, 20, summary.Flagged)
			assert.False(t, f.session.overlap, "rows must never render concurrently")
			assert.Equal(t, 1, f.session.closes)
		})
	}
}

func TestAuditService_PrefetchChecksEachRowOnce(t *testing.T) {
	f := newAuditFixture(t, row("1", domain.TemplateFull), row("2", domain.TemplateFull))
	f.sources.docs["1"] = plainSource
	f.sources.docs["2"] = plainSource

	_, err := f.svc.Run(context.Background(), "m.csv", application.AuditOptions{Prefetch: true, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, f.existence.totalCalls())
	assert.Equal(t, 1, f.existence.closed)
}

func TestAuditService_SessionReleasedOnceWhenEveryRowFails(t *testing.T) {
	f := newAuditFixture(t,
		row("a", domain.TemplateFull),
		row("b", domain.TemplateBlack),
		row("c", domain.TemplateFull),
	)
	f.existence.status[pageURL("a")] = 500
	f.existence.failing[pageURL("b")] = errors.New("dial tcp: timeout")
	// c has no raw source

	summary, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{})
	require.NoError(t, err)

	assert.Empty(t, summary.Discrepancies)
	assert.Equal(t, 2, summary.Skipped[string(domain.SkipUnreachable)])
	assert.Equal(t, 1, summary.Skipped[string(domain.SkipSourceMissing)])
	assert.Equal(t, 1, f.renderer.opened)
	assert.Equal(t, 1, f.session.closes)
}

func TestAuditService_OneRowFailureDoesNotAbortBatch(t *testing.T) {
	f := newAuditFixture(t, row("1", domain.TemplateFull), row("2", domain.TemplateFull))
	f.sources.docs["1"] = plainSource
	f.sources.docs["2"] = plainSource
	f.session.pages[pageURL("1")] = page{panicNav: true}

	summary, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, ids(summary.Discrepancies))
	assert.Equal(t, 1, summary.Skipped[string(domain.SkipFailed)])
	assert.Equal(t, 1, f.session.closes)
}

func TestAuditService_SessionFailureIsFatal(t *testing.T) {
	f := newAuditFixture(t, row("1", domain.TemplateFull))
	f.renderer.err = errors.New("chrome not found")

	_, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{})

	require.Error(t, err)
	assert.True(t, application.IsFatal(err))
	assert.Contains(t, err.Error(), "chrome not found")
	assert.Equal(t, 1, f.existence.closed, "transport pool must be released on fatal errors")
}

func TestAuditService_ManifestError(t *testing.T) {
	f := newAuditFixture(t)
	f.manifest.err = errors.New("no such sheet")

	_, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{})

	require.Error(t, err)
	assert.False(t, application.IsFatal(err))
	assert.Zero(t, f.renderer.opened)
}

func TestAuditService_EmptyManifestOpensNoSession(t *testing.T) {
	f := newAuditFixture(t)
	f.manifest.manifest.Dropped = 2

	summary, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{})
	require.NoError(t, err)

	assert.Zero(t, f.renderer.opened)
	assert.Equal(t, 2, summary.RowsRead)
	assert.Equal(t, 2, summary.RowsDropped)
	assert.Empty(t, summary.Discrepancies)
	assert.NotNil(t, summary.Discrepancies, "clean runs encode an empty list, not null")
}

func TestAuditService_PrimesSessionWithCookies(t *testing.T) {
	f := newAuditFixture(t, row("1", domain.TemplateFull))
	f.sources.docs["1"] = plainSource
	cookies := domain.ParseCookieHeader("consent=1; theme=dark")

	_, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{
		Origin:  "https://pages.example.org/",
		Cookies: cookies,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pages.example.org/", f.renderer.origin)
	assert.Equal(t, cookies, f.renderer.cookies)
}

func TestAuditService_StampsSourceRevision(t *testing.T) {
	f := newAuditFixture(t)

	summary, err := f.svc.Run(context.Background(), "m.xlsx", application.AuditOptions{SourceRoot: "."})
	require.NoError(t, err)

	assert.Equal(t, "abc123", summary.SourceRevision)
	assert.Equal(t, "m.xlsx", summary.Manifest)
}

func TestAuditService_CancelledContextStopsLoop(t *testing.T) {
	f := newAuditFixture(t, row("1", domain.TemplateFull), row("2", domain.TemplateFull))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Run(ctx, "m.xlsx", application.AuditOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.session.closes)
}
