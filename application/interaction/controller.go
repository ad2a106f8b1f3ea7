package interaction

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"notegraph/application/registry"
	"notegraph/domain/core/valueobjects"
)

// DragThreshold is the pointer travel, in layout units, that turns a press
// into a drag.
const DragThreshold = 5.0

// State is the per-press interaction state
type State int

const (
	// StateIdle means no node is pressed
	StateIdle State = iota
	// StatePressArmed means a node is pressed but the pointer has not
	// traveled past the drag threshold; releasing now is a click
	StatePressArmed
	// StateDragging means the pressed node is kinematic and follows the
	// pointer
	StateDragging
)

func (s State) String() string {
	switch s {
	case StatePressArmed:
		return "press_armed"
	case StateDragging:
		return "dragging"
	default:
		return "idle"
	}
}

// EventKind tags events emitted toward external collaborators
type EventKind string

// EventNodeActivated is a click on a node; the navigation collaborator
// decides what activation means.
const EventNodeActivated EventKind = "node_activated"

// Event is an outbound interaction event
type Event struct {
	Kind EventKind         `json:"kind"`
	Slug valueobjects.Slug `json:"slug"`
}

// Controller translates pointer input into node state transitions and arena
// mutations. It runs on the session goroutine, so its writes are visible to
// the very next physics step with no race window.
type Controller struct {
	arena      *registry.Registry
	state      State
	active     valueobjects.Slug
	origin     r2.Vec
	grabOffset r2.Vec
	onEvent    func(Event)
	logger     *zap.Logger
}

// NewController creates a controller over an arena. onEvent receives click
// activations; it may be nil.
func NewController(arena *registry.Registry, onEvent func(Event), logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		arena:   arena,
		onEvent: onEvent,
		logger:  logger,
	}
}

// SetArena repoints the controller at a freshly rebuilt arena and resets any
// in-flight press
func (c *Controller) SetArena(arena *registry.Registry) {
	c.arena = arena
	c.state = StateIdle
	c.active = ""
}

// State returns the current interaction state
func (c *Controller) State() State {
	return c.state
}

// PointerDown arms a press on a node. Unknown ids are ignored.
func (c *Controller) PointerDown(id valueobjects.Slug, pos r2.Vec) {
	node, ok := c.arena.NodeByID(id)
	if !ok {
		return
	}
	c.state = StatePressArmed
	c.active = id
	c.origin = pos
	c.grabOffset = r2.Sub(node.Position, pos)
}

// PointerMove advances a press into a drag once the pointer travels past the
// threshold, and drives the dragged node's position directly
func (c *Controller) PointerMove(pos r2.Vec) {
	switch c.state {
	case StatePressArmed:
		if r2.Norm(r2.Sub(pos, c.origin)) <= DragThreshold {
			return
		}
		// The node leaves the simulation for the duration of the drag.
		c.arena.SetKinematic(c.active, true)
		c.state = StateDragging
		c.arena.SetPosition(c.active, r2.Add(pos, c.grabOffset))
	case StateDragging:
		c.arena.SetPosition(c.active, r2.Add(pos, c.grabOffset))
	}
}

// PointerUp ends the press: a click emits a node-activated event, a drag
// releases the node back into the simulation
func (c *Controller) PointerUp() {
	switch c.state {
	case StatePressArmed:
		if c.onEvent != nil {
			c.onEvent(Event{Kind: EventNodeActivated, Slug: c.active})
		}
		c.logger.Debug("node activated", zap.String("slug", c.active.String()))
	case StateDragging:
		// Release: dynamic again, integration resumes from the last
		// externally set position with zero velocity.
		c.arena.SetKinematic(c.active, false)
	}
	c.state = StateIdle
	c.active = ""
}
