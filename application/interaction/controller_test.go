package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"notegraph/application/registry"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/domain/services"
)

func testArena(t *testing.T) *registry.Registry {
	t.Helper()
	docs := []entities.DocumentRecord{
		{Slug: "first", Title: "first", HomeDisplay: true},
		{Slug: "second", Title: "second", HomeDisplay: true},
	}
	snapshot, _, err := services.NewGraphBuilder(nil, nil).Build(docs)
	require.NoError(t, err)
	return registry.NewRegistry(snapshot, docs, 1200, 800, registry.DefaultConfig(), nil)
}

func TestController_ClickWithinThreshold(t *testing.T) {
	arena := testArena(t)

	var events []Event
	ctrl := NewController(arena, func(ev Event) { events = append(events, ev) }, nil)

	node, _ := arena.NodeByID("first")
	ctrl.PointerDown("first", node.Position)
	assert.Equal(t, StatePressArmed, ctrl.State())

	// Travel of exactly the threshold is still a click.
	ctrl.PointerMove(r2.Add(node.Position, r2.Vec{X: DragThreshold}))
	assert.Equal(t, StatePressArmed, ctrl.State())

	after, _ := arena.NodeByID("first")
	assert.False(t, after.Kinematic)
	assert.Equal(t, node.Position, after.Position, "a press never moves the node")

	ctrl.PointerUp()
	assert.Equal(t, StateIdle, ctrl.State())

	require.Len(t, events, 1)
	assert.Equal(t, EventNodeActivated, events[0].Kind)
	assert.Equal(t, valueobjects.Slug("first"), events[0].Slug)
}

func TestController_DragBeyondThreshold(t *testing.T) {
	arena := testArena(t)

	var events []Event
	ctrl := NewController(arena, func(ev Event) { events = append(events, ev) }, nil)

	node, _ := arena.NodeByID("first")
	grab := r2.Add(node.Position, r2.Vec{X: 3, Y: -2})

	ctrl.PointerDown("first", grab)
	ctrl.PointerMove(r2.Add(grab, r2.Vec{X: 10}))
	assert.Equal(t, StateDragging, ctrl.State())

	dragged, _ := arena.NodeByID("first")
	assert.True(t, dragged.Kinematic)
	// The grab offset keeps the node from snapping its center under the
	// pointer.
	assert.Equal(t, r2.Add(node.Position, r2.Vec{X: 10}), dragged.Position)

	ctrl.PointerMove(r2.Add(grab, r2.Vec{X: 40, Y: 25}))
	dragged, _ = arena.NodeByID("first")
	assert.Equal(t, r2.Add(node.Position, r2.Vec{X: 40, Y: 25}), dragged.Position)

	ctrl.PointerUp()
	assert.Equal(t, StateIdle, ctrl.State())
	assert.Empty(t, events, "a drag release is not a click")

	released, _ := arena.NodeByID("first")
	assert.False(t, released.Kinematic)
	assert.Equal(t, r2.Vec{}, released.Velocity)
	assert.Equal(t, r2.Add(node.Position, r2.Vec{X: 40, Y: 25}), released.Position)
}

func TestController_UnknownNodeIgnored(t *testing.T) {
	arena := testArena(t)
	ctrl := NewController(arena, nil, nil)

	ctrl.PointerDown("nobody", r2.Vec{X: 1, Y: 1})
	assert.Equal(t, StateIdle, ctrl.State())

	// Moves and releases with no armed press are no-ops.
	ctrl.PointerMove(r2.Vec{X: 500, Y: 500})
	ctrl.PointerUp()
	assert.Equal(t, StateIdle, ctrl.State())
}

func TestController_SetArenaResetsPress(t *testing.T) {
	arena := testArena(t)

	var events []Event
	ctrl := NewController(arena, func(ev Event) { events = append(events, ev) }, nil)

	node, _ := arena.NodeByID("first")
	ctrl.PointerDown("first", node.Position)
	require.Equal(t, StatePressArmed, ctrl.State())

	ctrl.SetArena(testArena(t))
	assert.Equal(t, StateIdle, ctrl.State())

	ctrl.PointerUp()
	assert.Empty(t, events, "a press does not survive an arena swap")
}
