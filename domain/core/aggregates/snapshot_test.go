package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

func testSnapshot() *GraphSnapshot {
	return &GraphSnapshot{
		Documents: map[valueobjects.Slug]DocumentConnections{
			"alpha": {
				Connections: []entities.ConnectionEdge{
					{Source: "alpha", Target: "beta", Type: entities.ConnectionDirect, LinkCount: 2},
				},
				OutboundCount: 1,
			},
			"beta":  {InboundCount: 2},
			"gamma": {},
		},
		TotalConnections: 1,
		DirectLinks:      1,
	}
}

func TestGraphSnapshot_Connected(t *testing.T) {
	s := testSnapshot()

	assert.True(t, s.Connected("alpha", "beta"))
	assert.True(t, s.Connected("beta", "alpha"), "connectivity is direction-agnostic")
	assert.False(t, s.Connected("alpha", "gamma"))
	assert.False(t, s.Connected("alpha", "unknown"))
}

func TestGraphSnapshot_ConnectionBetweenIsOrdered(t *testing.T) {
	s := testSnapshot()

	conn, ok := s.ConnectionBetween("alpha", "beta")
	require.True(t, ok)
	assert.Equal(t, 2, conn.LinkCount)

	_, ok = s.ConnectionBetween("beta", "alpha")
	assert.False(t, ok, "the ordered lookup only sees the stored direction")
}

func TestGraphSnapshot_SlugsSorted(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, []valueobjects.Slug{"alpha", "beta", "gamma"}, s.Slugs())
}

func TestGraphSnapshot_Counts(t *testing.T) {
	s := testSnapshot()
	assert.Equal(t, 2, s.InboundCount("beta"))
	assert.Equal(t, 1, s.OutboundCount("alpha"))
	assert.Equal(t, 0, s.InboundCount("missing"))
}
