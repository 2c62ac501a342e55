package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantLabels(t *testing.T) {
	assert.Equal(t, "FULL width header", VariantFullHeader.Label())
	assert.Equal(t, "Rectangle no overlap", VariantInset.Label())
	assert.Equal(t, "Blue bar", VariantTextBar.Label())
	assert.Equal(t, "Text only news", VariantNoMedia.Label())
	assert.Equal(t, "", Variant("media-unknown").Label())
}

func TestKnownVariantsAllLabelled(t *testing.T) {
	for _, v := range KnownVariants {
		assert.True(t, v.Known(), "%s", v)
		assert.NotEmpty(t, v.Label(), "%s", v)
	}
	assert.Len(t, KnownVariants, len(variantLabels))
}

func TestVariantFromTokens(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   Variant
		found  bool
	}{
		{"at index four", []string{"a", "b", "c", "d", "media-inside", "f"}, VariantInset, true},
		{"at index five", []string{"a", "b", "c", "d", "e", "media-full-l"}, VariantFullHeader, true},
		{"first known wins", []string{"bar", "media-inside"}, VariantTextBar, true},
		{"none known", []string{"show-icon", "node"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := VariantFromTokens(tt.tokens)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestParseDeclaredTemplate(t *testing.T) {
	assert.Equal(t, TemplateFull, ParseDeclaredTemplate(" full "))
	assert.Equal(t, TemplateBlack, ParseDeclaredTemplate("BLACK"))
	assert.Equal(t, DeclaredTemplate(""), ParseDeclaredTemplate("  "))
}

func TestManifestRow_Complete(t *testing.T) {
	assert.True(t, ManifestRow{ID: "1234", Template: TemplateFull}.Complete())
	assert.False(t, ManifestRow{ID: "1234"}.Complete())
	assert.False(t, ManifestRow{ID: "  ", Template: TemplateBlack}.Complete())
}

func TestNewDiscrepancy(t *testing.T) {
	d := NewDiscrepancy("1234", VariantInset, VariantFullHeader)
	require.NotNil(t, d.ActualLabel)
	assert.Equal(t, "Rectangle no overlap", d.Actual())
	assert.Equal(t, "FULL width header", d.ExpectedLabel)

	d = NewDiscrepancy("1234", "", VariantFullHeader)
	assert.Nil(t, d.ActualLabel)
	assert.Equal(t, "", d.Actual())
}
