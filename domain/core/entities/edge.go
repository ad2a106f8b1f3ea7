package entities

import (
	"notegraph/domain/core/valueobjects"
)

// ConnectionType classifies a resolved ordered edge
type ConnectionType string

const (
	// ConnectionDirect is a one-way resolved link A→B
	ConnectionDirect ConnectionType = "direct_link"
	// ConnectionBidirectional marks an ordered edge whose reverse edge also
	// resolved; both directions of a pair carry this type
	ConnectionBidirectional ConnectionType = "bidirectional"
)

// ConnectionEdge is one resolved ordered edge of the link graph. Duplicate
// references from the same source to the same target collapse into a single
// edge with LinkCount incremented.
type ConnectionEdge struct {
	Source        valueobjects.Slug `json:"-"`
	Target        valueobjects.Slug `json:"target"`
	Type          ConnectionType    `json:"connection_type"`
	Bidirectional bool              `json:"bidirectional"`
	LinkCount     int               `json:"link_count"`
}
