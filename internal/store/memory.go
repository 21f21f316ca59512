// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Sessions live only as long as the process; finished games are recorded in
// the results log and the database, not here.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - A game.Session is not goroutine-safe, so every read or mutation goes
//     through Update/View while the store lock is held. Concurrent HTTP
//     requests for one game are serialized.
//   - Idle sessions are evicted by Sweep (driven by the server's janitor).

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/danielnylander/minnet/internal/game"
)

// ErrNotFound is returned for unknown (or evicted) session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for live game sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Update runs fn with exclusive access to the session.
	Update(ctx context.Context, id string, fn func(*game.Session) error) error

	// View runs fn with read access to the session.
	View(ctx context.Context, id string, fn func(*game.Session) error) error

	// Delete removes a session; unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Sweep evicts sessions untouched since before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) int
}

type entry struct {
	s       *game.Session
	touched time.Time
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.Mutex        // guards sessions and every session's state
	sessions map[string]*entry // keyed by Session.ID
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*entry), now: time.Now}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("session without id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{s: s, touched: m.now()}
	return nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(*game.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	e.touched = m.now()
	return fn(e.s)
}

func (m *memory) View(ctx context.Context, id string, fn func(*game.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	return fn(e.s)
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.touched.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
