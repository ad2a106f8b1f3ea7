package physics

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"notegraph/application/registry"
	pkgerrors "notegraph/pkg/errors"
)

// ForceSettings are the tunable constants of the fixed force model. They can
// be swapped at runtime between ticks.
type ForceSettings struct {
	// RepulsionStrength scales the pairwise 1/d² repulsion.
	RepulsionStrength float64 `json:"repulsion_strength" yaml:"repulsion_strength"`
	// RepulsionMinDistance floors the distance used in the repulsion
	// denominator so coincident nodes never produce a singularity.
	RepulsionMinDistance float64 `json:"repulsion_min_distance" yaml:"repulsion_min_distance"`
	// SpringStiffness scales the Hookean pull of every edge toward its rest
	// length; per-edge stiffness multiplies it.
	SpringStiffness float64 `json:"spring_stiffness" yaml:"spring_stiffness"`
	// CenterStrength scales the linear pull toward the container center.
	CenterStrength float64 `json:"center_strength" yaml:"center_strength"`
	// VelocityDamping multiplies every dynamic node's velocity once per
	// tick; values below 1 model energy loss.
	VelocityDamping float64 `json:"velocity_damping" yaml:"velocity_damping"`
}

// DefaultForceSettings returns constants under which positions stay bounded
// for all supported node counts at dt ≤ 1/60s
func DefaultForceSettings() ForceSettings {
	return ForceSettings{
		RepulsionStrength:    800000,
		RepulsionMinDistance: 30,
		SpringStiffness:      2.0,
		CenterStrength:       1.5,
		VelocityDamping:      0.88,
	}
}

// Validate rejects settings that would destabilize the integrator
func (fs ForceSettings) Validate() error {
	if fs.RepulsionStrength < 0 {
		return pkgerrors.NewValidation("repulsion_strength cannot be negative")
	}
	if fs.RepulsionMinDistance <= 0 {
		return pkgerrors.NewValidation("repulsion_min_distance must be positive")
	}
	if fs.SpringStiffness < 0 {
		return pkgerrors.NewValidation("spring_stiffness cannot be negative")
	}
	if fs.CenterStrength < 0 {
		return pkgerrors.NewValidation("center_strength cannot be negative")
	}
	if fs.VelocityDamping <= 0 || fs.VelocityDamping >= 1 {
		return pkgerrors.NewValidation("velocity_damping must be in (0, 1)")
	}
	return nil
}

// World advances the node arena one tick at a time with a fixed force model:
// pairwise repulsion, Hookean springs along edges, a linear centering force,
// multiplicative velocity damping and semi-implicit Euler integration.
//
// World never runs concurrently with the interaction controller; both are
// driven from the single session goroutine.
type World struct {
	arena    *registry.Registry
	settings ForceSettings
	logger   *zap.Logger
	forces   []r2.Vec
}

// NewWorld creates a physics world over an arena
func NewWorld(arena *registry.Registry, settings ForceSettings, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &World{
		arena:    arena,
		settings: settings,
		logger:   logger,
		forces:   make([]r2.Vec, arena.Len()),
	}
}

// Settings returns the active force constants
func (w *World) Settings() ForceSettings {
	return w.settings
}

// SetSettings swaps the force constants; takes effect on the next Step
func (w *World) SetSettings(settings ForceSettings) {
	w.settings = settings
}

// SetArena repoints the world at a freshly rebuilt arena
func (w *World) SetArena(arena *registry.Registry) {
	w.arena = arena
	w.forces = make([]r2.Vec, arena.Len())
}

// Step advances every dynamic node by dt seconds and returns the number of
// node updates discarded because a force or integration result went
// non-finite. Kinematic nodes are never touched: their position is
// authoritative, but they still repel their neighbors.
func (w *World) Step(dt float64) int {
	n := w.arena.Len()
	if n == 0 {
		return 0
	}
	if len(w.forces) != n {
		w.forces = make([]r2.Vec, n)
	}
	for i := range w.forces {
		w.forces[i] = r2.Vec{}
	}

	w.accumulateRepulsion()
	w.accumulateSprings()
	w.accumulateCentering()

	faults := 0
	for i := 0; i < n; i++ {
		node := w.arena.Node(i)
		if node.Kinematic {
			continue
		}

		force := w.forces[i]
		if !finiteVec(force) {
			w.discard(node.ID.String(), "force")
			faults++
			continue
		}

		// Semi-implicit Euler: velocity first, then position from the new
		// velocity.
		vel := r2.Scale(w.settings.VelocityDamping, r2.Add(node.Velocity, r2.Scale(dt/node.Mass, force)))
		pos := r2.Add(node.Position, r2.Scale(dt, vel))

		if !finiteVec(vel) || !finiteVec(pos) {
			w.discard(node.ID.String(), "integration")
			faults++
			continue
		}

		w.arena.Integrate(i, pos, vel)
	}
	return faults
}

// accumulateRepulsion applies 1/max(d, minDist)² repulsion between every
// node pair, directed along the separating vector
func (w *World) accumulateRepulsion() {
	n := w.arena.Len()
	for i := 0; i < n; i++ {
		a := w.arena.Node(i)
		for j := i + 1; j < n; j++ {
			b := w.arena.Node(j)

			sep := r2.Sub(a.Position, b.Position)
			dist := r2.Norm(sep)

			dir := separationDirection(sep, dist, i, j)
			eff := math.Max(dist, w.settings.RepulsionMinDistance)
			magnitude := w.settings.RepulsionStrength / (eff * eff)

			push := r2.Scale(magnitude, dir)
			w.forces[i] = r2.Add(w.forces[i], push)
			w.forces[j] = r2.Sub(w.forces[j], push)
		}
	}
}

// accumulateSprings applies the Hookean pull of each edge toward rest length
func (w *World) accumulateSprings() {
	for _, edge := range w.arena.Edges() {
		a := w.arena.Node(edge.A)
		b := w.arena.Node(edge.B)

		sep := r2.Sub(b.Position, a.Position)
		dist := r2.Norm(sep)
		if dist == 0 {
			continue // spring has no defined direction; repulsion separates them
		}

		displacement := dist - edge.RestLength
		magnitude := w.settings.SpringStiffness * edge.Stiffness * displacement
		pull := r2.Scale(magnitude/dist, sep)

		w.forces[edge.A] = r2.Add(w.forces[edge.A], pull)
		w.forces[edge.B] = r2.Sub(w.forces[edge.B], pull)
	}
}

// accumulateCentering applies the linear pull toward the container center
func (w *World) accumulateCentering() {
	center := w.arena.Center()
	for i := 0; i < w.arena.Len(); i++ {
		node := w.arena.Node(i)
		w.forces[i] = r2.Add(w.forces[i], r2.Scale(w.settings.CenterStrength, r2.Sub(center, node.Position)))
	}
}

func (w *World) discard(id, stage string) {
	w.logger.Warn("non-finite result discarded for tick",
		zap.String("node", id),
		zap.String("stage", stage),
	)
}

// separationDirection returns a unit vector pushing i away from j. For
// coincident nodes it falls back to a deterministic index-derived direction
// so the pair separates instead of producing NaN.
func separationDirection(sep r2.Vec, dist float64, i, j int) r2.Vec {
	if dist > 1e-9 {
		return r2.Scale(1/dist, sep)
	}
	angle := float64(i*31+j*17) * 0.1
	return r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
}

func finiteVec(v r2.Vec) bool {
	return finite(v.X) && finite(v.Y)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
