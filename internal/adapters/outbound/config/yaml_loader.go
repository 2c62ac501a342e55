package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openkraft/headeraudit/internal/domain"
)

// FileName is the config file looked up in the working directory.
const FileName = ".headeraudit.yaml"

// YAMLLoader reads .headeraudit.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads the config at path. A directory is resolved to FileName inside
// it. A missing file yields DefaultConfig. Values present in the file are
// overlaid on the defaults and the result is validated.
func (l *YAMLLoader) Load(path string) (domain.AuditConfig, error) {
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	cfg := domain.DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return domain.AuditConfig{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.AuditConfig{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.AuditConfig{}, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Secrets are the values read from the environment variables named in the
// config. They never live in the config file itself.
type Secrets struct {
	// Credential is embedded in page URLs as user:password.
	Credential string
	// CookieHeader is a "name=value; name2=value2" string.
	CookieHeader string
}

// Cookies parses CookieHeader.
func (s Secrets) Cookies() []domain.Cookie {
	return domain.ParseCookieHeader(s.CookieHeader)
}

// LoadSecrets loads envFiles (".env" when none are given) without overriding
// variables already set, then reads the configured variable names. Missing
// env files are ignored.
func LoadSecrets(cfg domain.AuditConfig, envFiles ...string) (Secrets, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Secrets{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var s Secrets
	if cfg.AuthEnv != "" {
		s.Credential = os.Getenv(cfg.AuthEnv)
	}
	if cfg.CookieEnv != "" {
		s.CookieHeader = os.Getenv(cfg.CookieEnv)
	}
	return s, nil
}

// DefaultYAML is written by `headeraudit init`.
const DefaultYAML = `# headeraudit configuration
manifest:
  path: file.xlsx
  sheet: Landing Page PH
  id_column: A          # page identifier
  template_column: X    # declared template (FULL / BLACK)
  header_row: true

# {id} is replaced by the manifest identifier. Credentials are taken from
# auth_env and embedded as URL userinfo.
page_url: https://example.org/pages/{id}
auth_env: UNICC_AUTH
cookie_env: COOKIE_CONSENT

source:
  root: .
  ambiguity: first      # first | error

classify:
  pattern: header       # header | header_or_figure
  black_fallback: bar   # bar | without-media-news

render:
  anchor_selector: .show-icon
  confirm_timeout: 10s
  navigation_timeout: 30s
  headless: true

existence:
  pool_size: 20
  retries: 3
  backoff: 300ms
  timeout: 15s
  prefetch: true

report:
  path: Landing-pages-with-issues.xlsx
`
