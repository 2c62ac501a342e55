package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// IDPlaceholder is replaced by the row ID in the page URL template.
const IDPlaceholder = "{id}"

// PageURLBuilder turns a row ID into the published page URL, embedding the
// credential in the authority component when one is configured.
type PageURLBuilder struct {
	template   string
	credential string
}

// NewPageURLBuilder validates the template once so that per-row building
// cannot fail on configuration mistakes.
func NewPageURLBuilder(template, credential string) (*PageURLBuilder, error) {
	if !strings.Contains(template, IDPlaceholder) {
		return nil, fmt.Errorf("page_url %q must contain %s", template, IDPlaceholder)
	}
	u, err := url.Parse(strings.ReplaceAll(template, IDPlaceholder, "x"))
	if err != nil {
		return nil, fmt.Errorf("parsing page_url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("page_url %q must be absolute", template)
	}
	return &PageURLBuilder{template: template, credential: credential}, nil
}

// Build returns the page URL for id.
func (b *PageURLBuilder) Build(id string) string {
	raw := strings.ReplaceAll(b.template, IDPlaceholder, url.PathEscape(id))
	if b.credential == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if user, pass, ok := strings.Cut(b.credential, ":"); ok {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(b.credential)
	}
	return u.String()
}

// Origin returns scheme://host of the page URL, without credentials. The
// render session loads it first so cookies can be bound to the site.
func (b *PageURLBuilder) Origin() string {
	u, _ := url.Parse(strings.ReplaceAll(b.template, IDPlaceholder, "x"))
	return u.Scheme + "://" + u.Host + "/"
}

// Redact strips userinfo from a URL for logging.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}
