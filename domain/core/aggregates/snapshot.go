package aggregates

import (
	"sort"
	"time"

	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

// DocumentConnections holds the resolved link surface of one document.
// Connections are sorted by target slug so a rebuild from the same input is
// always byte-identical.
type DocumentConnections struct {
	Connections []entities.ConnectionEdge `json:"connections"`
	// InboundCount counts every resolved reference targeting this document,
	// duplicates included.
	InboundCount int `json:"inbound_count"`
	// OutboundCount counts distinct resolved targets, ignoring duplicate
	// multiplicity.
	OutboundCount int `json:"outbound_count"`
}

// GraphSnapshot is the pipeline boundary artifact: the whole resolved link
// graph plus aggregate totals. It is built fresh on every pipeline run and is
// never mutated afterwards, so any number of readers may share it.
type GraphSnapshot struct {
	GeneratedAt        time.Time                                     `json:"generated_at"`
	Documents          map[valueobjects.Slug]DocumentConnections     `json:"documents"`
	TotalConnections   int                                           `json:"total_connections"`
	BidirectionalPairs int                                           `json:"bidirectional_pairs"`
	DirectLinks        int                                           `json:"direct_links"`
}

// Document returns the connection record for a slug
func (s *GraphSnapshot) Document(slug valueobjects.Slug) (DocumentConnections, bool) {
	dc, ok := s.Documents[slug]
	return dc, ok
}

// Slugs returns every known slug in sorted order
func (s *GraphSnapshot) Slugs() []valueobjects.Slug {
	slugs := make([]valueobjects.Slug, 0, len(s.Documents))
	for slug := range s.Documents {
		slugs = append(slugs, slug)
	}
	sort.Slice(slugs, func(i, j int) bool { return slugs[i] < slugs[j] })
	return slugs
}

// Connected reports whether a resolved connection exists between two slugs in
// either direction
func (s *GraphSnapshot) Connected(a, b valueobjects.Slug) bool {
	return s.hasEdge(a, b) || s.hasEdge(b, a)
}

// ConnectionBetween returns the ordered edge a→b if it resolved
func (s *GraphSnapshot) ConnectionBetween(a, b valueobjects.Slug) (entities.ConnectionEdge, bool) {
	dc, ok := s.Documents[a]
	if !ok {
		return entities.ConnectionEdge{}, false
	}
	for _, conn := range dc.Connections {
		if conn.Target == b {
			return conn, true
		}
	}
	return entities.ConnectionEdge{}, false
}

// InboundCount returns the resolved inbound reference total for a slug
func (s *GraphSnapshot) InboundCount(slug valueobjects.Slug) int {
	return s.Documents[slug].InboundCount
}

// OutboundCount returns the distinct resolved target count for a slug
func (s *GraphSnapshot) OutboundCount(slug valueobjects.Slug) int {
	return s.Documents[slug].OutboundCount
}

func (s *GraphSnapshot) hasEdge(from, to valueobjects.Slug) bool {
	_, ok := s.ConnectionBetween(from, to)
	return ok
}
