package entities

import (
	"notegraph/domain/core/valueobjects"
)

// LinkKind identifies which cross-reference syntax produced a reference
type LinkKind string

const (
	// LinkKindWiki is the double-bracket form: [[target]] or [[target|label]]
	LinkKindWiki LinkKind = "wiki"
	// LinkKindInline is the bracket-parenthesis form: [label](target)
	LinkKindInline LinkKind = "inline"
)

// LinkReference is one cross-reference found in a document body. References
// are ephemeral: they are recomputed on every pipeline run and never stored.
type LinkReference struct {
	// TargetSlug is the normalized resolution candidate. Empty when the
	// token parsed but carried no usable target (malformed).
	TargetSlug valueobjects.Slug
	// RawTarget is the target text exactly as authored, for diagnostics.
	RawTarget string
	Kind      LinkKind
	// Context is a window of up to 100 characters around the match.
	Context string
	// ByteOffset is the position of the match in the original body.
	ByteOffset int
}

// IsMalformed reports whether the reference cannot name a target at all
func (r LinkReference) IsMalformed() bool {
	return r.TargetSlug.IsEmpty()
}
