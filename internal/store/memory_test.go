package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielnylander/minnet/internal/deck"
	"github.com/danielnylander/minnet/internal/game"
)

func newSession(t *testing.T, id string) *game.Session {
	t.Helper()
	s, err := game.FromDeck(deck.Deck{"X", "Y", "Y", "X"}, game.WithID(id))
	require.NoError(t, err)
	return s
}

func TestSaveUpdateView(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Save(ctx, newSession(t, "g1")))

	err := st.Update(ctx, "g1", func(s *game.Session) error {
		s.Reveal(0)
		return nil
	})
	require.NoError(t, err)

	var state game.State
	require.NoError(t, st.View(ctx, "g1", func(s *game.Session) error {
		state = s.State()
		return nil
	}))
	assert.Equal(t, game.StateOneRevealed, state)
}

func TestUnknownID(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	noop := func(*game.Session) error { return nil }

	assert.ErrorIs(t, st.Update(ctx, "missing", noop), ErrNotFound)
	assert.ErrorIs(t, st.View(ctx, "missing", noop), ErrNotFound)
	assert.NoError(t, st.Delete(ctx, "missing"))
}

func TestUpdatePropagatesError(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Save(ctx, newSession(t, "g1")))

	boom := errors.New("boom")
	assert.ErrorIs(t, st.Update(ctx, "g1", func(*game.Session) error { return boom }), boom)
}

func TestSaveRejectsEmptyID(t *testing.T) {
	st := NewMemoryStore()
	assert.Error(t, st.Save(context.Background(), &game.Session{}))
	assert.Error(t, st.Save(context.Background(), nil))
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &memory{sessions: map[string]*entry{}, now: func() time.Time { return clock }}

	require.NoError(t, m.Save(ctx, newSession(t, "old")))
	clock = clock.Add(time.Hour)
	require.NoError(t, m.Save(ctx, newSession(t, "new")))

	assert.Equal(t, 1, m.Sweep(ctx, clock.Add(-time.Minute)))
	assert.ErrorIs(t, m.View(ctx, "old", func(*game.Session) error { return nil }), ErrNotFound)
	assert.NoError(t, m.View(ctx, "new", func(*game.Session) error { return nil }))
}

func TestConcurrentRevealsCountOnce(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	require.NoError(t, st.Save(ctx, newSession(t, "g1")))

	// Many racing clicks on the same two cards must still yield one move.
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = st.Update(ctx, "g1", func(s *game.Session) error {
				s.Reveal(i % 2)
				return nil
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, st.View(ctx, "g1", func(s *game.Session) error {
		assert.Equal(t, 1, s.Moves)
		assert.Equal(t, game.StateResolving, s.State())
		return nil
	}))
}
