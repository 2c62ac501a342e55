package domain

import (
	"fmt"
	"time"
)

// HeaderPattern selects the structural test used to classify BLACK pages.
type HeaderPattern string

const (
	// PatternHeader matches a leading <header>…</header> block.
	PatternHeader HeaderPattern = "header"
	// PatternHeaderOrFigure also accepts a paragraph wrapping an image.
	PatternHeaderOrFigure HeaderPattern = "header_or_figure"
)

// AmbiguityPolicy decides what happens when several source files match a row.
type AmbiguityPolicy string

const (
	// AmbiguityFirst picks the lexicographically first matching path.
	AmbiguityFirst AmbiguityPolicy = "first"
	// AmbiguityError fails the row.
	AmbiguityError AmbiguityPolicy = "error"
)

// AuditConfig holds run configuration loaded from .headeraudit.yaml.
type AuditConfig struct {
	Manifest  ManifestConfig  `yaml:"manifest"   json:"manifest"`
	PageURL   string          `yaml:"page_url"   json:"page_url"`
	AuthEnv   string          `yaml:"auth_env"   json:"auth_env"`
	CookieEnv string          `yaml:"cookie_env" json:"cookie_env"`
	Source    SourceConfig    `yaml:"source"     json:"source"`
	Classify  ClassifyConfig  `yaml:"classify"   json:"classify"`
	Render    RenderConfig    `yaml:"render"     json:"render"`
	Existence ExistenceConfig `yaml:"existence"  json:"existence"`
	Report    ReportConfig    `yaml:"report"     json:"report"`
}

// ManifestConfig addresses the manifest columns.
type ManifestConfig struct {
	Path           string `yaml:"path"            json:"path"`
	Sheet          string `yaml:"sheet"           json:"sheet,omitempty"`
	IDColumn       string `yaml:"id_column"       json:"id_column"`
	TemplateColumn string `yaml:"template_column" json:"template_column"`
	// HeaderRow is a pointer so that an explicit false survives defaults.
	HeaderRow *bool `yaml:"header_row,omitempty" json:"header_row,omitempty"`
}

// HasHeader reports whether the first manifest row is a header.
func (m ManifestConfig) HasHeader() bool {
	return m.HeaderRow == nil || *m.HeaderRow
}

type SourceConfig struct {
	Root      string          `yaml:"root"      json:"root"`
	Ambiguity AmbiguityPolicy `yaml:"ambiguity" json:"ambiguity"`
}

type ClassifyConfig struct {
	Pattern       HeaderPattern `yaml:"pattern"        json:"pattern"`
	BlackFallback Variant       `yaml:"black_fallback" json:"black_fallback"`
}

type RenderConfig struct {
	AnchorSelector    string        `yaml:"anchor_selector"    json:"anchor_selector"`
	ConfirmTimeout    time.Duration `yaml:"confirm_timeout"    json:"confirm_timeout"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	Headless          *bool         `yaml:"headless,omitempty" json:"headless,omitempty"`
	Bin               string        `yaml:"bin,omitempty"        json:"bin,omitempty"`
	RemoteURL         string        `yaml:"remote_url,omitempty" json:"remote_url,omitempty"`
}

// IsHeadless defaults to true.
func (r RenderConfig) IsHeadless() bool {
	return r.Headless == nil || *r.Headless
}

type ExistenceConfig struct {
	PoolSize int           `yaml:"pool_size" json:"pool_size"`
	Retries  int           `yaml:"retries"   json:"retries"`
	Backoff  time.Duration `yaml:"backoff"   json:"backoff"`
	Timeout  time.Duration `yaml:"timeout"   json:"timeout"`
	// Prefetch fans existence checks out ahead of the render loop.
	Prefetch bool `yaml:"prefetch" json:"prefetch"`
}

type ReportConfig struct {
	Path string `yaml:"path" json:"path"`
}

const (
	DefaultAnchorSelector = ".show-icon"
	DefaultConfirmTimeout = 10 * time.Second
	DefaultPoolSize       = 20
	DefaultRetries        = 3
	DefaultBackoff        = 300 * time.Millisecond
	DefaultReportPath     = "Landing-pages-with-issues.xlsx"
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() AuditConfig {
	return AuditConfig{
		Manifest: ManifestConfig{
			Path:           "file.xlsx",
			Sheet:          "Landing Page PH",
			IDColumn:       "A",
			TemplateColumn: "X",
		},
		AuthEnv:   "UNICC_AUTH",
		CookieEnv: "COOKIE_CONSENT",
		Source: SourceConfig{
			Root:      ".",
			Ambiguity: AmbiguityFirst,
		},
		Classify: ClassifyConfig{
			Pattern:       PatternHeader,
			BlackFallback: VariantTextBar,
		},
		Render: RenderConfig{
			AnchorSelector:    DefaultAnchorSelector,
			ConfirmTimeout:    DefaultConfirmTimeout,
			NavigationTimeout: 30 * time.Second,
		},
		Existence: ExistenceConfig{
			PoolSize: DefaultPoolSize,
			Retries:  DefaultRetries,
			Backoff:  DefaultBackoff,
			Timeout:  15 * time.Second,
			Prefetch: true,
		},
		Report: ReportConfig{Path: DefaultReportPath},
	}
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c AuditConfig) Validate() error {
	if c.Manifest.Path == "" {
		return fmt.Errorf("manifest.path is required")
	}
	if c.Manifest.IDColumn == "" || c.Manifest.TemplateColumn == "" {
		return fmt.Errorf("manifest.id_column and manifest.template_column are required")
	}
	if c.Manifest.IDColumn == c.Manifest.TemplateColumn {
		return fmt.Errorf("manifest.id_column and manifest.template_column must differ (both %q)", c.Manifest.IDColumn)
	}

	switch c.Source.Ambiguity {
	case AmbiguityFirst, AmbiguityError:
	default:
		return fmt.Errorf("unknown source.ambiguity %q (valid: first, error)", c.Source.Ambiguity)
	}

	switch c.Classify.Pattern {
	case PatternHeader, PatternHeaderOrFigure:
	default:
		return fmt.Errorf("unknown classify.pattern %q (valid: header, header_or_figure)", c.Classify.Pattern)
	}
	if c.Classify.BlackFallback != VariantTextBar && c.Classify.BlackFallback != VariantNoMedia {
		return fmt.Errorf("classify.black_fallback must be %q or %q (got %q)",
			VariantTextBar, VariantNoMedia, c.Classify.BlackFallback)
	}

	if c.Render.AnchorSelector == "" {
		return fmt.Errorf("render.anchor_selector is required")
	}
	if c.Render.ConfirmTimeout <= 0 {
		return fmt.Errorf("render.confirm_timeout must be > 0 (got %s)", c.Render.ConfirmTimeout)
	}

	if c.Existence.PoolSize <= 0 {
		return fmt.Errorf("existence.pool_size must be > 0 (got %d)", c.Existence.PoolSize)
	}
	if c.Existence.Retries < 0 {
		return fmt.Errorf("existence.retries must be >= 0 (got %d)", c.Existence.Retries)
	}
	if c.Existence.Backoff < 0 {
		return fmt.Errorf("existence.backoff must be >= 0 (got %s)", c.Existence.Backoff)
	}

	return nil
}
