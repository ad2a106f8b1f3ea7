package entities

import (
	"notegraph/domain/core/valueobjects"
)

// DefaultImportance is assumed when a document does not declare one.
const DefaultImportance = 3

// DocumentRecord is the read-only input the ingestion collaborator hands to
// the graph pipeline. The pipeline never mutates a record; normalization
// produces derived values instead.
type DocumentRecord struct {
	Slug         string   `json:"slug" yaml:"slug" validate:"required"`
	Title        string   `json:"title" yaml:"title"`
	Body         string   `json:"body" yaml:"body"`
	Importance   int      `json:"importance" yaml:"importance" validate:"omitempty,min=1,max=5"`
	HomeDisplay  bool     `json:"home_display" yaml:"home_display"`
	Category     string   `json:"category,omitempty" yaml:"category,omitempty"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Related      []string `json:"related,omitempty" yaml:"related,omitempty"`
	AuthorMarker string   `json:"author_marker,omitempty" yaml:"author_marker,omitempty"`
}

// NormalizedSlug returns the canonical identity of the document
func (d DocumentRecord) NormalizedSlug() valueobjects.Slug {
	return valueobjects.NormalizeSlug(d.Slug)
}

// EffectiveImportance returns the declared importance or the default when the
// record omits it
func (d DocumentRecord) EffectiveImportance() int {
	if d.Importance < 1 || d.Importance > 5 {
		return DefaultImportance
	}
	return d.Importance
}

// HasAuthorMarker reports whether the document carries an author asset
// reference and is therefore a candidate for the author node
func (d DocumentRecord) HasAuthorMarker() bool {
	return d.AuthorMarker != ""
}
