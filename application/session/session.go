package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"notegraph/application/interaction"
	"notegraph/application/physics"
	"notegraph/application/registry"
	"notegraph/domain/core/aggregates"
	"notegraph/domain/core/entities"
	"notegraph/domain/core/valueobjects"
	"notegraph/domain/services"
	"notegraph/pkg/observability"
)

// Options configures a visualization session
type Options struct {
	TickInterval    time.Duration
	ContainerWidth  float64
	ContainerHeight float64
	Node            registry.Config
	Forces          physics.ForceSettings
}

// DefaultOptions returns the session defaults: an 8ms tick over a 1200×800
// container
func DefaultOptions() Options {
	return Options{
		TickInterval:    8 * time.Millisecond,
		ContainerWidth:  1200,
		ContainerHeight: 800,
		Node:            registry.DefaultConfig(),
		Forces:          physics.DefaultForceSettings(),
	}
}

// Subscriber receives per-tick layout frames and interaction events. Slow
// subscribers lose frames rather than stalling the tick.
type Subscriber struct {
	Frames chan registry.LayoutFrame
	Events chan interaction.Event
}

// Session owns the node arena for its lifetime and drives the simulation
// from a single goroutine: each tick drains queued interaction commands,
// runs one physics step, then exports one layout frame. Because every arena
// write happens on that goroutine, controller mutations are visible to the
// very next step with no race window and no locks around the arena.
type Session struct {
	id      uuid.UUID
	opts    Options
	builder *services.GraphBuilder
	logger  *zap.Logger
	metrics *observability.Collector

	// Arena and its two writers; touched only on the session goroutine
	// after Run starts.
	arena      *registry.Registry
	world      *physics.World
	controller *interaction.Controller

	commands chan func()

	mu          sync.RWMutex
	snapshot    *aggregates.GraphSnapshot
	diagnostics []services.Diagnostic
	subs        map[*Subscriber]struct{}
}

// NewSession creates a session with an empty arena
func NewSession(
	opts Options,
	builder *services.GraphBuilder,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = services.NewGraphBuilder(nil, logger)
	}

	s := &Session{
		id:       uuid.New(),
		opts:     opts,
		builder:  builder,
		logger:   logger,
		metrics:  metrics,
		commands: make(chan func(), 256),
		subs:     make(map[*Subscriber]struct{}),
	}

	s.arena = registry.NewRegistry(nil, nil, opts.ContainerWidth, opts.ContainerHeight, opts.Node, logger)
	s.world = physics.NewWorld(s.arena, opts.Forces, logger)
	s.controller = interaction.NewController(s.arena, s.broadcastEvent, logger)
	return s
}

// ID returns the session identity
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Run drives the tick loop until the context is canceled. Teardown only
// happens between ticks: a tick always runs step+export to completion, and
// time.Ticker drops redundant firings so ticks never overlap.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	dt := s.opts.TickInterval.Seconds()
	s.logger.Info("session started",
		zap.String("session_id", s.id.String()),
		zap.Duration("tick_interval", s.opts.TickInterval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", zap.String("session_id", s.id.String()))
			return
		case fn := <-s.commands:
			fn()
		case <-ticker.C:
			start := time.Now()
			s.drainCommands()
			faults := s.world.Step(dt)
			frame := s.arena.Frame()
			s.broadcastFrame(frame)
			if s.metrics != nil {
				s.metrics.ObserveTick(time.Since(start), faults)
			}
		}
	}
}

func (s *Session) drainCommands() {
	for {
		select {
		case fn := <-s.commands:
			fn()
		default:
			return
		}
	}
}

// dispatch queues work for the session goroutine between ticks
func (s *Session) dispatch(fn func()) {
	s.commands <- fn
}

// LoadDocuments rebuilds the pipeline from a fresh document set: extract,
// build, then swap in a new arena between ticks. A duplicate slug aborts the
// build and leaves the running session untouched.
func (s *Session) LoadDocuments(docs []entities.DocumentRecord) (*aggregates.GraphSnapshot, error) {
	snapshot, diagnostics, err := s.builder.Build(docs)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.GraphBuilds.Inc()
		for _, d := range diagnostics {
			s.metrics.DiagnosticsTotal.WithLabelValues(string(d.Reason)).Inc()
		}
	}

	arena := registry.NewRegistry(snapshot, docs,
		s.opts.ContainerWidth, s.opts.ContainerHeight, s.opts.Node, s.logger)

	s.mu.Lock()
	s.snapshot = snapshot
	s.diagnostics = diagnostics
	s.mu.Unlock()

	s.dispatch(func() {
		s.arena = arena
		s.world.SetArena(arena)
		s.controller.SetArena(arena)
	})

	return snapshot, nil
}

// Snapshot returns the current graph snapshot; nil before the first load.
// The snapshot is immutable and safe for concurrent readers.
func (s *Session) Snapshot() *aggregates.GraphSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Diagnostics returns the diagnostics of the last pipeline run
func (s *Session) Diagnostics() []services.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diagnostics
}

// UpdateForces swaps the force constants between ticks
func (s *Session) UpdateForces(settings physics.ForceSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.dispatch(func() {
		s.world.SetSettings(settings)
		s.logger.Info("force settings updated")
	})
	return nil
}

// PointerDown queues a press on a node for the next tick
func (s *Session) PointerDown(id valueobjects.Slug, x, y float64) {
	s.dispatch(func() { s.controller.PointerDown(id, r2.Vec{X: x, Y: y}) })
}

// PointerMove queues pointer travel for the next tick
func (s *Session) PointerMove(x, y float64) {
	s.dispatch(func() { s.controller.PointerMove(r2.Vec{X: x, Y: y}) })
}

// PointerUp queues a release for the next tick
func (s *Session) PointerUp() {
	s.dispatch(func() { s.controller.PointerUp() })
}

// Subscribe registers a layout frame consumer
func (s *Session) Subscribe() *Subscriber {
	sub := &Subscriber{
		Frames: make(chan registry.LayoutFrame, 1),
		Events: make(chan interaction.Event, 8),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// Unsubscribe removes a consumer and closes its channels
func (s *Session) Unsubscribe(sub *Subscriber) {
	s.mu.Lock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.Frames)
		close(sub.Events)
	}
	s.mu.Unlock()
}

func (s *Session) broadcastFrame(frame registry.LayoutFrame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs {
		select {
		case sub.Frames <- frame:
			if s.metrics != nil {
				s.metrics.FramesSent.Inc()
			}
		default:
			if s.metrics != nil {
				s.metrics.FramesDropped.Inc()
			}
		}
	}
}

func (s *Session) broadcastEvent(ev interaction.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs {
		select {
		case sub.Events <- ev:
		default:
		}
	}
}
