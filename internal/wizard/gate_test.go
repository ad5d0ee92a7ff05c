package wizard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/model"
)

func TestCompletionGate_Complete(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	session := newTestSession("s-1", 2)
	require.NoError(t, st.CreateSession(ctx, session))

	gate := NewCompletionGate(st, nil)
	handle, err := gate.Complete(ctx, session)
	require.NoError(t, err)
	assert.NotEmpty(t, handle.ID)
	assert.Equal(t, "s-1", handle.SessionID)

	snap, err := st.LoadSession(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, snap.Session.Status)
}

func TestCompletionGate_Complete_repeatIsSignal(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	session := newTestSession("s-1", 2)
	require.NoError(t, st.CreateSession(ctx, session))

	gate := NewCompletionGate(st, nil)
	_, err := gate.Complete(ctx, session)
	require.NoError(t, err)

	// The caller's copy is stale (still in_progress); the store catches it.
	_, err = gate.Complete(ctx, session)
	assert.True(t, model.IsCode(err, model.ErrAlreadyCompleted), "err = %v", err)

	// A fresh copy is caught locally without a store round trip.
	session.Status = model.SessionStatusCompleted
	_, err = gate.Complete(ctx, session)
	assert.True(t, model.IsCode(err, model.ErrAlreadyCompleted), "err = %v", err)
}

func TestCompletionGate_Complete_notFound(t *testing.T) {
	gate := NewCompletionGate(store.NewMemoryStore(), nil)
	_, err := gate.Complete(context.Background(), newTestSession("nonexistent", 0))
	assert.True(t, model.IsCode(err, model.ErrNotFound), "err = %v", err)
}

func TestCompletionGate_CompleteController_seals(t *testing.T) {
	c, st := newTestController(t, newTestSession("s-1", 2), nil)
	ctx := context.Background()

	gate := NewCompletionGate(st, nil)
	handle, err := gate.CompleteController(ctx, c)
	require.NoError(t, err)
	assert.NotEmpty(t, handle.ID)

	// The sealed controller rejects further mutations.
	err = c.SetField(ctx, "a", "x", "too late")
	assert.True(t, model.IsCode(err, model.ErrSessionCompleted), "err = %v", err)
	assert.Equal(t, 2, c.Next(ctx))
	c.Wait()
}

func TestCompletionGate_CompleteController_sealsOnRepeat(t *testing.T) {
	c, st := newTestController(t, newTestSession("s-1", 0), nil)
	ctx := context.Background()

	// Another surface completed the session between hydration and now.
	_, err := st.CompleteSession(ctx, "s-1")
	require.NoError(t, err)

	gate := NewCompletionGate(st, nil)
	_, err = gate.CompleteController(ctx, c)
	assert.True(t, model.IsCode(err, model.ErrAlreadyCompleted), "err = %v", err)

	// Still sealed locally despite the signal.
	err = c.SetField(ctx, "a", "x", "v")
	assert.True(t, model.IsCode(err, model.ErrSessionCompleted), "err = %v", err)
}
