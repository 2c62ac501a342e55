package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openkraft/headeraudit/internal/adapters/outbound/browser"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/config"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/gitinfo"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/history"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/httpcheck"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/manifest"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/report"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/scanner"
	"github.com/openkraft/headeraudit/internal/adapters/outbound/tui"
	"github.com/openkraft/headeraudit/internal/application"
	"github.com/openkraft/headeraudit/internal/domain"
	"github.com/openkraft/headeraudit/internal/domain/classify"
)

// newRenderer is swapped out in tests to avoid launching Chrome.
var newRenderer = func(cfg domain.RenderConfig, log *zap.Logger) domain.Renderer {
	return browser.FromConfig(cfg, log)
}

type auditFlags struct {
	configPath        string
	envFiles          []string
	manifestPath      string
	sheet             string
	pageURL           string
	sourceRoot        string
	out               string
	workers           int
	noPrefetch        bool
	confirmTimeout    time.Duration
	headless          bool
	chromeBin         string
	remoteURL         string
	jsonOutput        bool
	failOnDiscrepancy bool
	showHistory       bool
}

func newAuditCmd(root *rootOptions) *cobra.Command {
	var f auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit every manifest row and write the discrepancy report",
		Long: "Read the manifest, check each page exists, classify its raw source, render it in a " +
			"single authenticated browser session and confirm the expected header marker. Pages whose " +
			"marker never appears are written to the report in manifest order.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger()
			hist := history.New()
			histDir := configDir(f.configPath)

			if f.showHistory {
				entries, err := hist.Load(histDir)
				if err != nil {
					return fmt.Errorf("loading history: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(entries))
				return nil
			}

			cfg, err := config.New().Load(f.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			applyAuditFlags(cmd, &cfg, f)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			secrets, err := config.LoadSecrets(cfg, f.envFiles...)
			if err != nil {
				return err
			}
			urls, err := domain.NewPageURLBuilder(cfg.PageURL, secrets.Credential)
			if err != nil {
				return fmt.Errorf("page_url: %w", err)
			}

			existence := httpcheck.FromConfig(cfg.Existence, log)
			verifier := application.NewVerifier(
				urls,
				existence,
				scanner.FromConfig(cfg.Source, log),
				classify.FromConfig(cfg.Classify),
				application.VerifierOptions{
					AnchorSelector: cfg.Render.AnchorSelector,
					ConfirmTimeout: cfg.Render.ConfirmTimeout,
				},
				log,
			)
			svc := application.NewAuditService(
				manifest.New(cfg.Manifest),
				newRenderer(cfg.Render, log),
				verifier,
				existence,
				gitinfo.New(),
				log,
			)

			summary, err := svc.Run(cmd.Context(), cfg.Manifest.Path, application.AuditOptions{
				Origin:     urls.Origin(),
				Cookies:    secrets.Cookies(),
				Prefetch:   cfg.Existence.Prefetch,
				Workers:    cfg.Existence.PoolSize,
				SourceRoot: cfg.Source.Root,
			})
			if err != nil && summary == nil {
				return fmt.Errorf("audit failed: %w", err)
			}
			// An interrupted run still reports what it verified so far.
			if ferr := finishAudit(cmd, f, cfg, summary, hist, histDir, log); ferr != nil {
				return ferr
			}
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			if f.failOnDiscrepancy && summary.Flagged > 0 {
				return fmt.Errorf("%d page(s) render a different header than declared", summary.Flagged)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", ".", "Config file, or directory containing "+config.FileName)
	fl.StringSliceVar(&f.envFiles, "env-file", nil, "Env files to load before reading secrets (default .env)")
	fl.StringVarP(&f.manifestPath, "manifest", "m", "", "Manifest file (.xlsx or .csv)")
	fl.StringVar(&f.sheet, "sheet", "", "Manifest sheet name")
	fl.StringVar(&f.pageURL, "page-url", "", "Published page URL template containing {id}")
	fl.StringVar(&f.sourceRoot, "source-root", "", "Directory holding the raw page sources")
	fl.StringVarP(&f.out, "out", "o", "", "Report path (.xlsx or .csv)")
	fl.IntVar(&f.workers, "workers", 0, "Existence-check pool size")
	fl.BoolVar(&f.noPrefetch, "no-prefetch", false, "Check existence inline instead of ahead of rendering")
	fl.DurationVar(&f.confirmTimeout, "confirm-timeout", 0, "How long to wait for the expected marker")
	fl.BoolVar(&f.headless, "headless", true, "Run Chrome headless")
	fl.StringVar(&f.chromeBin, "chrome-bin", "", "Chrome binary to launch")
	fl.StringVar(&f.remoteURL, "remote-url", "", "DevTools WebSocket URL of a running Chrome")
	fl.BoolVar(&f.jsonOutput, "json", false, "Print the run summary as JSON")
	fl.BoolVar(&f.failOnDiscrepancy, "fail-on-discrepancy", false, "Exit non-zero when any page is flagged")
	fl.BoolVar(&f.showHistory, "history", false, "Show past runs instead of auditing")

	return cmd
}

// finishAudit writes the report, records the run and prints the summary.
func finishAudit(cmd *cobra.Command, f auditFlags, cfg domain.AuditConfig, summary *domain.RunSummary, hist *history.FileHistory, histDir string, log *zap.Logger) error {
	written, err := report.New().Write(cfg.Report.Path, summary.Discrepancies)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if written {
		summary.ReportPath = cfg.Report.Path
		log.Info("report written", zap.String("path", cfg.Report.Path), zap.Int("records", len(summary.Discrepancies)))
	}

	if err := hist.Save(histDir, domain.NewRunEntry(summary, time.Now())); err != nil {
		log.Warn("saving run history", zap.Error(err))
	}

	if f.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderSummary(summary))
	return nil
}

// applyAuditFlags overlays flags the user set explicitly on the loaded config.
func applyAuditFlags(cmd *cobra.Command, cfg *domain.AuditConfig, f auditFlags) {
	changed := cmd.Flags().Changed
	if changed("manifest") {
		cfg.Manifest.Path = f.manifestPath
	}
	if changed("sheet") {
		cfg.Manifest.Sheet = f.sheet
	}
	if changed("page-url") {
		cfg.PageURL = f.pageURL
	}
	if changed("source-root") {
		cfg.Source.Root = f.sourceRoot
	}
	if changed("out") {
		cfg.Report.Path = f.out
	}
	if changed("workers") {
		cfg.Existence.PoolSize = f.workers
	}
	if changed("no-prefetch") {
		cfg.Existence.Prefetch = !f.noPrefetch
	}
	if changed("confirm-timeout") {
		cfg.Render.ConfirmTimeout = f.confirmTimeout
	}
	if changed("headless") {
		h := f.headless
		cfg.Render.Headless = &h
	}
	if changed("chrome-bin") {
		cfg.Render.Bin = f.chromeBin
	}
	if changed("remote-url") {
		cfg.Render.RemoteURL = f.remoteURL
	}
}

// configDir is where run history is kept: the config directory, or the
// directory holding an explicit config file.
func configDir(configPath string) string {
	if configPath == "" {
		return "."
	}
	if info, err := os.Stat(configPath); err == nil && info.IsDir() {
		return configPath
	}
	return filepath.Dir(configPath)
}
