package domain

import "strings"

// Cookie is a name/value pair injected into the render session.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseCookieHeader splits a raw "k=v; k=v" header string. Entries without
// an "=" are ignored; values keep any "=" after the first one.
func ParseCookieHeader(raw string) []Cookie {
	var cookies []Cookie
	for _, entry := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies = append(cookies, Cookie{Name: name, Value: strings.TrimSpace(value)})
	}
	return cookies
}
