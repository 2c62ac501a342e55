package domain

import "strings"

// DeclaredTemplate is the page-layout category a manifest claims a page was
// authored with.
type DeclaredTemplate string

const (
	TemplateFull  DeclaredTemplate = "FULL"
	TemplateBlack DeclaredTemplate = "BLACK"
)

// ParseDeclaredTemplate normalizes a raw manifest cell. Unknown values are
// returned as-is; the classifier decides whether they carry an expectation.
func ParseDeclaredTemplate(raw string) DeclaredTemplate {
	return DeclaredTemplate(strings.ToUpper(strings.TrimSpace(raw)))
}

// Variant is a rendered-marker identifier: the CSS class a page carries for
// its header/media layout.
type Variant string

const (
	VariantFullHeader Variant = "media-full-l"
	VariantInset      Variant = "media-inside"
	VariantTextBar    Variant = "bar"
	VariantNoMedia    Variant = "without-media-news"
)

// variantLabels is the process-wide label table used in reports.
var variantLabels = map[Variant]string{
	VariantFullHeader: "FULL width header",
	VariantInset:      "Rectangle no overlap",
	VariantTextBar:    "Blue bar",
	VariantNoMedia:    "Text only news",
}

// KnownVariants lists every variant in a stable order.
var KnownVariants = []Variant{
	VariantFullHeader,
	VariantInset,
	VariantTextBar,
	VariantNoMedia,
}

// Label returns the human-readable name of the variant, or "" when the
// variant is not in the table.
func (v Variant) Label() string { return variantLabels[v] }

// Known reports whether v is one of the recognized marker tokens.
func (v Variant) Known() bool {
	_, ok := variantLabels[v]
	return ok
}

// VariantFromTokens returns the first token of a class list that names a
// known variant. The rendered markup does not keep a stable class order, so
// membership is used instead of a positional index.
func VariantFromTokens(tokens []string) (Variant, bool) {
	for _, t := range tokens {
		if v := Variant(t); v.Known() {
			return v, true
		}
	}
	return "", false
}

// ManifestRow is one unit of work: a page identifier and the template the
// manifest declares for it.
type ManifestRow struct {
	// Line is the 1-based position in the manifest source, for diagnostics.
	Line     int              `json:"line"`
	ID       string           `json:"id"`
	Template DeclaredTemplate `json:"template"`
}

// Complete reports whether every required field is present.
func (r ManifestRow) Complete() bool {
	return strings.TrimSpace(r.ID) != "" && strings.TrimSpace(string(r.Template)) != ""
}

// Discrepancy is a row whose expected marker never materialized on the
// rendered page.
type Discrepancy struct {
	ID            string  `json:"id"`
	ActualLabel   *string `json:"actual_label"`
	ExpectedLabel string  `json:"expected_label"`
}

// NewDiscrepancy builds a record from the observed and expected variants.
// A missing or unlabelled actual variant is reported as null.
func NewDiscrepancy(id string, actual Variant, expected Variant) Discrepancy {
	d := Discrepancy{ID: id, ExpectedLabel: expected.Label()}
	if label := actual.Label(); label != "" {
		d.ActualLabel = &label
	}
	return d
}

// Actual returns the actual label or "" when it is unknown.
func (d Discrepancy) Actual() string {
	if d.ActualLabel == nil {
		return ""
	}
	return *d.ActualLabel
}
