package valueobjects

import (
	"regexp"
	"strings"
)

// Slug is the normalized unique identifier for a document.
// All graph resolution happens in slug space: raw document identifiers and
// raw link targets are normalized before any comparison.
type Slug string

var dashRuns = regexp.MustCompile(`-+`)

// NormalizeSlug converts a raw identifier or link target into canonical slug
// form: lowercase, spaces replaced by hyphens, anything that is not a letter,
// digit, hyphen or underscore stripped, dash runs collapsed.
func NormalizeSlug(raw string) Slug {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || r == '_' ||
			('a' <= r && r <= 'z') || ('0' <= r && r <= '9') ||
			r > 127 { // non-ASCII letters pass through untouched
			b.WriteRune(r)
		}
	}

	s = dashRuns.ReplaceAllString(b.String(), "-")
	s = strings.Trim(s, "-")
	return Slug(s)
}

// String returns the slug as a plain string
func (s Slug) String() string {
	return string(s)
}

// IsEmpty reports whether the slug carries no identifier at all
func (s Slug) IsEmpty() bool {
	return s == ""
}
