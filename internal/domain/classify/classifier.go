// Package classify predicts which rendered marker a page should carry, given
// its declared template and its raw exported markup. It performs no I/O.
package classify

import (
	"regexp"

	"github.com/openkraft/headeraudit/internal/domain"
)

// Both patterns are non-greedy and dot-all: they match across newlines and
// stop at the first closing tag.
var (
	headerBlock = regexp.MustCompile(`(?is)<header\b[^>]*>.*?</header>`)
	figureBlock = regexp.MustCompile(`(?is)<p\b[^>]*>\s*<img\b[^>]*>.*?</p>`)
)

// Classifier maps (declared template, raw source) to the expected variant.
// The zero value is not usable; use New.
type Classifier struct {
	pattern  domain.HeaderPattern
	fallback domain.Variant
}

// New creates a Classifier. fallback is the variant expected for BLACK pages
// without a leading header block.
func New(pattern domain.HeaderPattern, fallback domain.Variant) *Classifier {
	return &Classifier{pattern: pattern, fallback: fallback}
}

// FromConfig creates a Classifier from the classify section of the config.
func FromConfig(cfg domain.ClassifyConfig) *Classifier {
	return New(cfg.Pattern, cfg.BlackFallback)
}

// HasLeadingHeader reports whether raw contains the structural block the
// configured pattern looks for, scanning from the start of the document.
func (c *Classifier) HasLeadingHeader(raw string) bool {
	if headerBlock.MatchString(raw) {
		return true
	}
	return c.pattern == domain.PatternHeaderOrFigure && figureBlock.MatchString(raw)
}

// Expected returns the variant the rendered page should carry. The second
// return value is false when the declared template carries no expectation.
func (c *Classifier) Expected(template domain.DeclaredTemplate, raw string) (domain.Variant, bool) {
	switch template {
	case domain.TemplateFull:
		return domain.VariantFullHeader, true
	case domain.TemplateBlack:
		if c.HasLeadingHeader(raw) {
			return domain.VariantInset, true
		}
		return c.fallback, true
	default:
		return "", false
	}
}
