package classify_test

import (
	"testing"

	"github.com/openkraft/headeraudit/internal/domain"
	"github.com/openkraft/headeraudit/internal/domain/classify"
	"github.com/stretchr/testify/assert"
)

const (
	withHeader = `<header class="hero">
  <h1>Title</h1>
</header>
<p>Body</p>`
	withFigure = `<p class="lead"><img src="a.jpg" alt="">Caption</p><p>Body</p>`
	plainText  = `<p>Just text</p><div>more</div>`
)

func defaultClassifier() *classify.Classifier {
	return classify.New(domain.PatternHeader, domain.VariantTextBar)
}

func TestExpected_FullIgnoresSource(t *testing.T) {
	c := defaultClassifier()
	for _, src := range []string{"", withHeader, withFigure, plainText} {
		v, ok := c.Expected(domain.TemplateFull, src)
		assert.True(t, ok)
		assert.Equal(t, domain.VariantFullHeader, v, "source %q", src)
	}
}

func TestExpected_BlackWithHeader(t *testing.T) {
	v, ok := defaultClassifier().Expected(domain.TemplateBlack, withHeader)
	assert.True(t, ok)
	assert.Equal(t, domain.VariantInset, v)
}

func TestExpected_BlackWithoutHeaderUsesFallback(t *testing.T) {
	v, ok := defaultClassifier().Expected(domain.TemplateBlack, plainText)
	assert.True(t, ok)
	assert.Equal(t, domain.VariantTextBar, v)

	c := classify.New(domain.PatternHeader, domain.VariantNoMedia)
	v, ok = c.Expected(domain.TemplateBlack, plainText)
	assert.True(t, ok)
	assert.Equal(t, domain.VariantNoMedia, v)
}

func TestExpected_UnknownTemplateHasNoExpectation(t *testing.T) {
	_, ok := defaultClassifier().Expected(domain.DeclaredTemplate("GREEN"), withHeader)
	assert.False(t, ok)

	_, ok = defaultClassifier().Expected("", withHeader)
	assert.False(t, ok)
}

func TestExpected_BlackIsDeterministic(t *testing.T) {
	c := defaultClassifier()
	first, _ := c.Expected(domain.TemplateBlack, withHeader)
	for i := 0; i < 5; i++ {
		v, _ := c.Expected(domain.TemplateBlack, withHeader)
		assert.Equal(t, first, v)
	}
}

func TestHasLeadingHeader(t *testing.T) {
	tests := []struct {
		name    string
		pattern domain.HeaderPattern
		src     string
		want    bool
	}{
		{"multiline header", domain.PatternHeader, withHeader, true},
		{"header with attributes", domain.PatternHeader, `<header id="x" data-a='1'>x</header>`, true},
		{"uppercase tags", domain.PatternHeader, `<HEADER>x</HEADER>`, true},
		{"unclosed header", domain.PatternHeader, `<header><h1>x</h1>`, false},
		{"headers tag is not header", domain.PatternHeader, `<headers>x</headers>`, false},
		{"figure ignored by header pattern", domain.PatternHeader, withFigure, false},
		{"figure accepted by second form", domain.PatternHeaderOrFigure, withFigure, true},
		{"header accepted by second form", domain.PatternHeaderOrFigure, withHeader, true},
		{"plain text", domain.PatternHeaderOrFigure, plainText, false},
		{"paragraph without image", domain.PatternHeaderOrFigure, `<p>text<img src="a"></p>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := classify.New(tt.pattern, domain.VariantTextBar)
			assert.Equal(t, tt.want, c.HasLeadingHeader(tt.src))
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := domain.DefaultConfig().Classify
	cfg.BlackFallback = domain.VariantNoMedia
	v, ok := classify.FromConfig(cfg).Expected(domain.TemplateBlack, plainText)
	assert.True(t, ok)
	assert.Equal(t, domain.VariantNoMedia, v)
}
