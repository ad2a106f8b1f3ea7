package registry

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
)

// NodeKind is the closed set of node variants. The two kinds differ in data
// (sizing and placement), not behavior.
type NodeKind string

const (
	KindAuthor NodeKind = "author"
	KindText   NodeKind = "text"
)

// Node is one simulation body. While Kinematic is set its position is
// authoritative and the integrator must leave it alone.
type Node struct {
	ID        valueobjects.Slug
	Kind      NodeKind
	Position  r2.Vec
	Velocity  r2.Vec
	Radius    float64
	Mass      float64
	Kinematic bool
}

// Edge is one collapsed visual/spring connection between two arena indices.
// A bidirectional pair yields exactly one Edge.
type Edge struct {
	A          int
	B          int
	RestLength float64
	Stiffness  float64
}

// Config controls node sizing and placement
type Config struct {
	BaseRadius     float64 `json:"base_radius" yaml:"base_radius"`
	MinRadius      float64 `json:"min_radius" yaml:"min_radius"`
	MaxRadius      float64 `json:"max_radius" yaml:"max_radius"`
	AuthorRadius   float64 `json:"author_radius" yaml:"author_radius"`
	ImportanceStep float64 `json:"importance_step" yaml:"importance_step"`
	PopularityStep float64 `json:"popularity_step" yaml:"popularity_step"`
	// CircleFraction is the placement circle radius as a fraction of the
	// container's minimum dimension.
	CircleFraction float64 `json:"circle_fraction" yaml:"circle_fraction"`
	RestLength     float64 `json:"rest_length" yaml:"rest_length"`
	// BidirectionalStiffness multiplies spring stiffness on edges backed by
	// a bidirectional pair.
	BidirectionalStiffness float64 `json:"bidirectional_stiffness" yaml:"bidirectional_stiffness"`
}

// DefaultConfig returns the sizing defaults
func DefaultConfig() Config {
	return Config{
		BaseRadius:             40,
		MinRadius:              24,
		MaxRadius:              96,
		AuthorRadius:           70,
		ImportanceStep:         6,
		PopularityStep:         4,
		CircleFraction:         0.3,
		RestLength:             180,
		BidirectionalStiffness: 1.5,
	}
}

// Registry owns the node/edge arena for one visualization session. Only the
// physics world and the interaction controller write into it, never
// concurrently: all mutation happens on the session goroutine.
type Registry struct {
	nodes  []Node
	edges  []Edge
	index  map[valueobjects.Slug]int
	width  float64
	height float64
	cfg    Config
	logger *zap.Logger
}

// NewRegistry derives the renderable arena from a graph snapshot, the
// document set and the container dimensions. Zero displayed documents is not
// an error; it produces an empty arena.
func NewRegistry(
	snapshot *aggregates.GraphSnapshot,
	docs []entities.DocumentRecord,
	width, height float64,
	cfg Config,
	logger *zap.Logger,
) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if snapshot == nil {
		snapshot = &aggregates.GraphSnapshot{}
	}

	r := &Registry{
		index:  make(map[valueobjects.Slug]int),
		width:  width,
		height: height,
		cfg:    cfg,
		logger: logger,
	}

	displayed := make([]entities.DocumentRecord, 0, len(docs))
	for _, doc := range docs {
		if doc.HomeDisplay {
			displayed = append(displayed, doc)
		}
	}
	sort.Slice(displayed, func(i, j int) bool {
		return displayed[i].NormalizedSlug() < displayed[j].NormalizedSlug()
	})

	// Exactly one displayed document with an author marker becomes the
	// author node; with zero or several candidates every document is laid
	// out as a text node.
	authorIdx := -1
	for i, doc := range displayed {
		if doc.HasAuthorMarker() {
			if authorIdx >= 0 {
				authorIdx = -1
				break
			}
			authorIdx = i
		}
	}

	center := r.Center()
	if authorIdx >= 0 {
		doc := displayed[authorIdx]
		r.addNode(Node{
			ID:       doc.NormalizedSlug(),
			Kind:     KindAuthor,
			Position: center,
			Radius:   cfg.AuthorRadius,
			Mass:     cfg.AuthorRadius / cfg.BaseRadius,
		})
	}

	circleRadius := cfg.CircleFraction * math.Min(width, height)
	ringCount := len(displayed)
	if authorIdx >= 0 {
		ringCount--
	}

	placed := 0
	for i, doc := range displayed {
		if i == authorIdx {
			continue
		}
		// Text nodes sit evenly on the circle; the first in slug order
		// occupies angle 0.
		angle := 0.0
		if ringCount > 0 {
			angle = 2 * math.Pi * float64(placed) / float64(ringCount)
		}
		slug := doc.NormalizedSlug()
		radius := r.textRadius(doc, snapshot.InboundCount(slug))
		r.addNode(Node{
			ID:   slug,
			Kind: KindText,
			Position: r2.Vec{
				X: center.X + circleRadius*math.Cos(angle),
				Y: center.Y + circleRadius*math.Sin(angle),
			},
			Radius: radius,
			Mass:   radius / cfg.BaseRadius,
		})
		placed++
	}

	r.buildEdges(snapshot)

	logger.Info("node registry initialized",
		zap.Int("nodes", len(r.nodes)),
		zap.Int("edges", len(r.edges)),
		zap.Bool("author_node", authorIdx >= 0),
	)

	return r
}

// textRadius sizes a text node from importance and inbound popularity
func (r *Registry) textRadius(doc entities.DocumentRecord, inboundCount int) float64 {
	radius := r.cfg.BaseRadius +
		float64(doc.EffectiveImportance()-entities.DefaultImportance)*r.cfg.ImportanceStep +
		math.Sqrt(float64(inboundCount))*r.cfg.PopularityStep
	return math.Min(math.Max(radius, r.cfg.MinRadius), r.cfg.MaxRadius)
}

func (r *Registry) addNode(n Node) {
	r.index[n.ID] = len(r.nodes)
	r.nodes = append(r.nodes, n)
}

// buildEdges materializes one collapsed edge per connected displayed pair
func (r *Registry) buildEdges(snapshot *aggregates.GraphSnapshot) {
	for i := range r.nodes {
		for j := i + 1; j < len(r.nodes); j++ {
			a, b := r.nodes[i].ID, r.nodes[j].ID
			if !snapshot.Connected(a, b) {
				continue
			}
			stiffness := 1.0
			if conn, ok := snapshot.ConnectionBetween(a, b); ok && conn.Bidirectional {
				stiffness = r.cfg.BidirectionalStiffness
			}
			r.edges = append(r.edges, Edge{
				A:          i,
				B:          j,
				RestLength: r.cfg.RestLength,
				Stiffness:  stiffness,
			})
		}
	}
}

// Center returns the container center point
func (r *Registry) Center() r2.Vec {
	return r2.Vec{X: r.width / 2, Y: r.height / 2}
}

// Len returns the number of nodes in the arena
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Node returns a copy of the node at an arena index
func (r *Registry) Node(i int) Node {
	return r.nodes[i]
}

// NodeByID returns a copy of the node for a slug
func (r *Registry) NodeByID(id valueobjects.Slug) (Node, bool) {
	i, ok := r.index[id]
	if !ok {
		return Node{}, false
	}
	return r.nodes[i], true
}

// Edges returns the arena's edge list. Callers must treat it as read-only.
func (r *Registry) Edges() []Edge {
	return r.edges
}

// Integrate writes the integrator's result for one dynamic node. Writes to
// kinematic nodes are refused: while dragged, the externally set position is
// authoritative.
func (r *Registry) Integrate(i int, pos, vel r2.Vec) {
	if r.nodes[i].Kinematic {
		return
	}
	r.nodes[i].Position = pos
	r.nodes[i].Velocity = vel
}

// SetKinematic flips a node between externally driven and simulated. On
// release the node resumes dynamic integration from its last externally set
// position with zero velocity.
func (r *Registry) SetKinematic(id valueobjects.Slug, kinematic bool) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.nodes[i].Kinematic = kinematic
	if !kinematic {
		r.nodes[i].Velocity = r2.Vec{}
	}
}

// SetPosition moves a node to an externally supplied position
func (r *Registry) SetPosition(id valueobjects.Slug, pos r2.Vec) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.nodes[i].Position = pos
}

// HitTest returns the node containing the point, preferring the closest
// center when overlapping
func (r *Registry) HitTest(p r2.Vec) (valueobjects.Slug, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, n := range r.nodes {
		d := r2.Norm(r2.Sub(p, n.Position))
		if d <= n.Radius && d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return "", false
	}
	return r.nodes[best].ID, true
}

// Point is a renderer-facing coordinate pair
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutNode is the per-node render export
type LayoutNode struct {
	ID        string   `json:"id"`
	Kind      NodeKind `json:"kind"`
	Position  Point    `json:"position"`
	Radius    float64  `json:"radius"`
	Kinematic bool     `json:"kinematic"`
}

// LayoutEdge is a line to draw between two node ids
type LayoutEdge struct {
	A string `json:"a"`
	B string `json:"b"`
}

// LayoutFrame is the per-tick export consumed by the external renderer
type LayoutFrame struct {
	Nodes []LayoutNode `json:"nodes"`
	Edges []LayoutEdge `json:"edges"`
}

// Frame exports the current arena state
func (r *Registry) Frame() LayoutFrame {
	frame := LayoutFrame{
		Nodes: make([]LayoutNode, len(r.nodes)),
		Edges: make([]LayoutEdge, len(r.edges)),
	}
	for i, n := range r.nodes {
		frame.Nodes[i] = LayoutNode{
			ID:        n.ID.String(),
			Kind:      n.Kind,
			Position:  Point{X: n.Position.X, Y: n.Position.Y},
			Radius:    n.Radius,
			Kinematic: n.Kinematic,
		}
	}
	for i, e := range r.edges {
		frame.Edges[i] = LayoutEdge{
			A: r.nodes[e.A].ID.String(),
			B: r.nodes[e.B].ID.String(),
		}
	}
	return frame
}
