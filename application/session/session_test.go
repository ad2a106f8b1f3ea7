package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notegraph/application/interaction"
	"notegraph/application/physics"
	"notegraph/application/registry"
	"notegraph/domain/core/entities"
	pkgerrors "notegraph/pkg/errors"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.TickInterval = 2 * time.Millisecond
	return opts
}

func testDocs() []entities.DocumentRecord {
	return []entities.DocumentRecord{
		{Slug: "first", Title: "first", Body: "[[second]]", HomeDisplay: true},
		{Slug: "second", Title: "second", Body: "[[first]]", HomeDisplay: true},
	}
}

// waitForFrame receives frames until one satisfies the predicate
func waitForFrame(t *testing.T, sub *Subscriber, match func(registry.LayoutFrame) bool) registry.LayoutFrame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case frame, ok := <-sub.Frames:
			require.True(t, ok, "frame channel closed while waiting")
			if match(frame) {
				return frame
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching frame")
		}
	}
}

func TestSession_LoadDocumentsAndStream(t *testing.T) {
	sess := NewSession(testOptions(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	snapshot, err := sess.LoadDocuments(testDocs())
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.BidirectionalPairs)
	assert.Same(t, snapshot, sess.Snapshot())

	frame := waitForFrame(t, sub, func(f registry.LayoutFrame) bool {
		return len(f.Nodes) == 2
	})
	assert.Len(t, frame.Edges, 1)

	ids := map[string]bool{}
	for _, n := range frame.Nodes {
		ids[n.ID] = true
	}
	assert.True(t, ids["first"])
	assert.True(t, ids["second"])
}

func TestSession_LoadDocumentsRejectsDuplicates(t *testing.T) {
	sess := NewSession(testOptions(), nil, nil, nil)

	_, err := sess.LoadDocuments([]entities.DocumentRecord{
		{Slug: "My Doc", HomeDisplay: true},
		{Slug: "my-doc", HomeDisplay: true},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Nil(t, sess.Snapshot(), "a failed build leaves the session untouched")
}

func TestSession_ClickEmitsNodeActivated(t *testing.T) {
	sess := NewSession(testOptions(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	_, err := sess.LoadDocuments(testDocs())
	require.NoError(t, err)

	frame := waitForFrame(t, sub, func(f registry.LayoutFrame) bool {
		return len(f.Nodes) == 2
	})

	var pos registry.Point
	for _, n := range frame.Nodes {
		if n.ID == "first" {
			pos = n.Position
		}
	}

	sess.PointerDown("first", pos.X, pos.Y)
	sess.PointerUp()

	select {
	case ev := <-sub.Events:
		assert.Equal(t, interaction.EventNodeActivated, ev.Kind)
		assert.Equal(t, "first", ev.Slug.String())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for activation event")
	}
}

func TestSession_DragPinsNode(t *testing.T) {
	sess := NewSession(testOptions(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sess.Run(ctx)

	sub := sess.Subscribe()
	defer sess.Unsubscribe(sub)

	_, err := sess.LoadDocuments(testDocs())
	require.NoError(t, err)

	frame := waitForFrame(t, sub, func(f registry.LayoutFrame) bool {
		return len(f.Nodes) == 2
	})
	var pos registry.Point
	for _, n := range frame.Nodes {
		if n.ID == "first" {
			pos = n.Position
		}
	}

	sess.PointerDown("first", pos.X, pos.Y)
	sess.PointerMove(pos.X+50, pos.Y)

	dragged := waitForFrame(t, sub, func(f registry.LayoutFrame) bool {
		for _, n := range f.Nodes {
			if n.ID == "first" {
				return n.Kinematic
			}
		}
		return false
	})
	// The node may drift a little between the sampled frame and the press
	// being applied; the grab offset keeps it anchored near the pointer.
	for _, n := range dragged.Nodes {
		if n.ID == "first" {
			assert.InDelta(t, pos.X+50, n.Position.X, 10)
		}
	}

	sess.PointerUp()
	waitForFrame(t, sub, func(f registry.LayoutFrame) bool {
		for _, n := range f.Nodes {
			if n.ID == "first" {
				return !n.Kinematic
			}
		}
		return false
	})
}

func TestSession_UpdateForcesValidates(t *testing.T) {
	sess := NewSession(testOptions(), nil, nil, nil)

	bad := physics.DefaultForceSettings()
	bad.VelocityDamping = 2
	err := sess.UpdateForces(bad)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))

	assert.NoError(t, sess.UpdateForces(physics.DefaultForceSettings()))
}

func TestSession_UnsubscribeClosesChannels(t *testing.T) {
	sess := NewSession(testOptions(), nil, nil, nil)

	sub := sess.Subscribe()
	sess.Unsubscribe(sub)

	_, ok := <-sub.Frames
	assert.False(t, ok)
	_, ok2 := <-sub.Events
	assert.False(t, ok2)

	// A second unsubscribe of the same consumer is harmless.
	sess.Unsubscribe(sub)
}
