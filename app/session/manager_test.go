package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/geobot/app/dialog"
	"github.com/m3rciful/geobot/app/session"
)

func TestManager_ApplySerializesTransitions(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemory())
	require.NoError(t, m.Reset(ctx, dialog.NewSession(1)))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.Apply(ctx, 1, func(_ context.Context, cur *dialog.Session) (*dialog.Session, error) {
				next := cur.Clone()
				time.Sleep(time.Millisecond)
				next.NewsIndex++
				return next, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, writers, got.NewsIndex)
}

func TestManager_ApplyHooksRunInCommitOrder(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemory())

	var seen []int
	require.NoError(t, m.Reset(ctx, dialog.NewSession(1), func() { seen = append(seen, 0) }))

	const writers = 30
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var index int
			err := m.Apply(ctx, 1, func(_ context.Context, cur *dialog.Session) (*dialog.Session, error) {
				next := cur.Clone()
				next.NewsIndex++
				index = next.NewsIndex
				return next, nil
			}, func() {
				// Hooks run under the session's commit lock, one at a time.
				seen = append(seen, index)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	want := make([]int, 0, writers+1)
	for i := 0; i <= writers; i++ {
		want = append(want, i)
	}
	assert.Equal(t, want, seen)
}

func TestManager_ApplyUnknownSession(t *testing.T) {
	m := session.NewManager(session.NewMemory())
	err := m.Apply(context.Background(), 42, func(_ context.Context, cur *dialog.Session) (*dialog.Session, error) {
		t.Fatal("fn must not run for unknown session")
		return cur, nil
	})
	assert.ErrorIs(t, err, dialog.ErrNoSession)
}

func TestManager_DiscardDropsInFlightResult(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemory())
	s := dialog.NewSession(7)
	name := "Анна"
	s.Username = &name
	require.NoError(t, m.Reset(ctx, s))

	started := make(chan struct{})
	done := make(chan error, 1)
	hooked := make(chan struct{}, 1)
	go func() {
		done <- m.Apply(ctx, 7, func(runCtx context.Context, cur *dialog.Session) (*dialog.Session, error) {
			close(started)
			<-runCtx.Done()
			next := cur.Clone()
			next.State = dialog.StateLocation
			return next, nil
		}, func() { hooked <- struct{}{} })
	}()

	<-started
	prev, err := m.Discard(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Анна", prev.Name())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, dialog.ErrSessionDiscarded)
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight transition was not cancelled")
	}
	assert.Empty(t, hooked, "dropped result must not run its hook")

	ok, err := m.Exists(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_ResetPreemptsInFlight(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemory())
	require.NoError(t, m.Reset(ctx, dialog.NewSession(3)))

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- m.Apply(ctx, 3, func(runCtx context.Context, cur *dialog.Session) (*dialog.Session, error) {
			close(started)
			<-runCtx.Done()
			next := cur.Clone()
			next.State = dialog.StateIdle
			return next, nil
		})
	}()

	<-started
	require.NoError(t, m.Reset(ctx, dialog.NewSession(3)))
	assert.ErrorIs(t, <-done, dialog.ErrSessionDiscarded)

	got, err := m.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, dialog.StateEnterName, got.State)
}

func TestManager_DiscardUnknown(t *testing.T) {
	m := session.NewManager(session.NewMemory())
	prev, err := m.Discard(context.Background(), 9)
	assert.Nil(t, prev)
	assert.ErrorIs(t, err, dialog.ErrNoSession)
}

func TestManager_Count(t *testing.T) {
	ctx := context.Background()
	m := session.NewManager(session.NewMemory())
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, m.Reset(ctx, dialog.NewSession(id)))
	}
	_, err := m.Discard(ctx, 2)
	require.NoError(t, err)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
