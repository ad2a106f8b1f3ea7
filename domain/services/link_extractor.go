package services

import (
	"regexp"
	"strings"

	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

// contextWindow is the number of characters of surrounding text captured per
// reference, for diagnostics.
const contextWindow = 100

// linkPattern matches both supported cross-reference syntaxes in one pass so
// scanning is strictly left-to-right and non-overlapping. The wiki
// alternative comes first: at any position the first well-formed match wins.
//
//	[[target]] / [[target|label]]  — groups 1 (target)
//	[label](target)               — groups 2 (label), 3 (target)
var linkPattern = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|[^\[\]]*)?\]\]|\[([^\]]*)\]\(([^()\s]*)\)`)

// schemePattern recognizes external targets: anything with a URI scheme
// prefix, or protocol-relative //host forms.
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// LinkExtractor scans document bodies for cross-references. It holds no
// per-document state; scanners created from it are independent and
// restartable.
type LinkExtractor struct{}

// NewLinkExtractor creates a link extractor
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// Scan returns a lazy scanner over the body. Scanning the same body twice
// yields the same sequence.
func (e *LinkExtractor) Scan(body string) *LinkScanner {
	return &LinkScanner{body: body}
}

// ExtractLinks collects every reference in the body eagerly
func (e *LinkExtractor) ExtractLinks(body string) []entities.LinkReference {
	var refs []entities.LinkReference
	scanner := e.Scan(body)
	for {
		ref, ok := scanner.Next()
		if !ok {
			break
		}
		refs = append(refs, ref)
	}
	return refs
}

// LinkScanner walks a document body one reference at a time. External
// (scheme-prefixed) targets are skipped entirely; malformed tokens that still
// parse as a reference shape come out with an empty target slug so the caller
// can diagnose them.
type LinkScanner struct {
	body string
	pos  int
}

// Reset rewinds the scanner to the start of the body
func (s *LinkScanner) Reset() {
	s.pos = 0
}

// Next yields the next internal reference, or ok=false at end of body
func (s *LinkScanner) Next() (entities.LinkReference, bool) {
	for s.pos < len(s.body) {
		base := s.pos
		loc := linkPattern.FindStringSubmatchIndex(s.body[base:])
		if loc == nil {
			s.pos = len(s.body)
			return entities.LinkReference{}, false
		}

		start := base + loc[0]
		end := base + loc[1]
		s.pos = end

		var raw string
		var kind entities.LinkKind
		if loc[2] >= 0 { // wiki alternative matched
			raw = s.body[base+loc[2] : base+loc[3]]
			kind = entities.LinkKindWiki
		} else {
			raw = s.body[base+loc[6] : base+loc[7]]
			kind = entities.LinkKindInline
		}

		if kind == entities.LinkKindInline && isExternalTarget(raw) {
			// External links are not part of the document graph at all.
			continue
		}

		return entities.LinkReference{
			TargetSlug: valueobjects.NormalizeSlug(raw),
			RawTarget:  raw,
			Kind:       kind,
			Context:    contextAround(s.body, start, end),
			ByteOffset: start,
		}, true
	}
	return entities.LinkReference{}, false
}

// isExternalTarget reports whether an inline target points outside the
// document set
func isExternalTarget(target string) bool {
	return strings.HasPrefix(target, "//") || schemePattern.MatchString(target)
}

// contextAround extracts up to contextWindow characters centered on the
// match, aligned to rune boundaries
func contextAround(body string, start, end int) string {
	half := contextWindow / 2

	lo := start
	for n := 0; lo > 0 && n < half; n++ {
		lo--
		for lo > 0 && !isRuneStart(body[lo]) {
			lo--
		}
	}

	hi := end
	for n := 0; hi < len(body) && n < half; n++ {
		hi++
		for hi < len(body) && !isRuneStart(body[hi]) {
			hi++
		}
	}

	return body[lo:hi]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
