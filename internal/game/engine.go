// internal/game/engine.go
//
// Core game engine for a single memory-matching session.
// Responsibilities:
//   - Create new sessions from a freshly built deck.
//   - Apply reveals: first card pends, second card counts a move and either
//     matches or leaves the pair face-up for the caller to resolve.
//   - Hide a mismatched pair on request (ResolvePending).
//   - Track state transitions: idle → one_revealed → (idle | resolving) … → won.
//
// Notes:
//   - The engine never schedules timers. Whoever drives it decides how long
//     a mismatched pair stays visible before calling ResolvePending.
//   - Time only enters through the session clock (WithClock), so tests do
//     not need a real clock.

package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielnylander/minnet/internal/deck"
	"github.com/danielnylander/minnet/internal/results"
)

// ErrInvalidState is returned when an operation is not allowed in the
// session's current state. The session is left unchanged.
var ErrInvalidState = errors.New("invalid session state")

// Option customizes a new Session.
type Option func(*Session)

// WithClock replaces time.Now as the session clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID sets the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.ID = id }
}

// New deals a fresh deck of `pairs` pairs from pool and starts a session.
// It fails with deck.ErrInvalidConfiguration when the deck cannot be built.
func New(pairs int, pool []deck.Symbol, rng deck.Rand, opts ...Option) (*Session, error) {
	d, err := deck.Build(pairs, pool, rng)
	if err != nil {
		return nil, err
	}
	return FromDeck(d, opts...)
}

// FromDeck starts a session over an already-built deck. The deck must be
// non-empty with every symbol exactly twice, as deck.Build produces.
func FromDeck(d deck.Deck, opts ...Option) (*Session, error) {
	if err := checkDeck(d); err != nil {
		return nil, err
	}
	s := &Session{
		Pairs:   len(d) / 2,
		Cards:   make([]Card, len(d)),
		Pending: make([]int, 0, 2),
		state:   StateIdle,
		now:     time.Now,
	}
	for i, sym := range d {
		s.Cards[i] = Card{Symbol: sym}
	}
	for _, o := range opts {
		o(s)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.StartedAt = s.now()
	return s, nil
}

func checkDeck(d deck.Deck) error {
	if len(d) == 0 || len(d)%2 != 0 {
		return fmt.Errorf("%w: deck of %d cards", deck.ErrInvalidConfiguration, len(d))
	}
	counts := make(map[deck.Symbol]int, len(d)/2)
	for _, sym := range d {
		counts[sym]++
	}
	for sym, n := range counts {
		if n != 2 {
			return fmt.Errorf("%w: symbol %q appears %d times", deck.ErrInvalidConfiguration, sym, n)
		}
	}
	return nil
}

// State reports the session's current state.
func (s *Session) State() State { return s.state }

// IsWon reports whether every card has been matched.
func (s *Session) IsWon() bool { return s.state == StateWon }

// Reveal turns card idx face-up and applies the match rules.
//
// Ignored (no state change) when:
//   - idx is out of range, already matched, or already face-up;
//   - two mismatched cards are still waiting for ResolvePending;
//   - the session is already won.
//
// On the second card of an attempt, Moves is incremented once, whatever
// the result.
func (s *Session) Reveal(idx int) RevealResult {
	if !s.canReveal(idx) {
		return RevealResult{Outcome: OutcomeIgnored}
	}

	s.Cards[idx].Revealed = true
	s.Pending = append(s.Pending, idx)

	if len(s.Pending) == 1 {
		s.state = StateOneRevealed
		return RevealResult{Outcome: OutcomePending}
	}

	s.Moves++
	a, b := s.Pending[0], s.Pending[1]
	if s.Cards[a].Symbol != s.Cards[b].Symbol {
		s.state = StateResolving
		return RevealResult{Outcome: OutcomeMismatched}
	}

	s.Cards[a].Matched = true
	s.Cards[b].Matched = true
	s.Pending = s.Pending[:0]
	s.MatchedCount += 2
	if s.MatchedCount == len(s.Cards) {
		s.state = StateWon
		s.FinishedAt = s.now()
		return RevealResult{Outcome: OutcomeMatched, Won: true}
	}
	s.state = StateIdle
	return RevealResult{Outcome: OutcomeMatched}
}

// ResolvePending turns a mismatched pair face-down again. Outside the
// resolving state it does nothing and returns ErrInvalidState.
func (s *Session) ResolvePending() error {
	if s.state != StateResolving {
		return ErrInvalidState
	}
	for _, i := range s.Pending {
		s.Cards[i].Revealed = false
	}
	s.Pending = s.Pending[:0]
	s.state = StateIdle
	return nil
}

// PendingPair returns the two face-up mismatched cards while resolving.
func (s *Session) PendingPair() (a, b int, ok bool) {
	if s.state != StateResolving {
		return 0, 0, false
	}
	return s.Pending[0], s.Pending[1], true
}

// Stats reports moves and elapsed whole seconds. Once the session is won
// the elapsed time stops at the winning reveal.
func (s *Session) Stats() Stats {
	end := s.now()
	if s.state == StateWon {
		end = s.FinishedAt
	}
	elapsed := int(end.Sub(s.StartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return Stats{Moves: s.Moves, ElapsedSeconds: elapsed}
}

// Result returns the record to log for a won session.
func (s *Session) Result() (results.Result, bool) {
	if s.state != StateWon {
		return results.Result{}, false
	}
	st := s.Stats()
	return results.Result{
		Date:           s.FinishedAt,
		Pairs:          s.Pairs,
		Moves:          st.Moves,
		ElapsedSeconds: st.ElapsedSeconds,
		Won:            true,
	}, true
}

// View returns the player-visible state of every card.
func (s *Session) View() []CardView {
	out := make([]CardView, len(s.Cards))
	for i, c := range s.Cards {
		v := CardView{Index: i, Revealed: c.Revealed, Matched: c.Matched}
		if c.Revealed || c.Matched {
			v.Symbol = c.Symbol
		}
		out[i] = v
	}
	return out
}

// canReveal applies the ignore rules for Reveal.
func (s *Session) canReveal(idx int) bool {
	if s.state == StateResolving || s.state == StateWon {
		return false
	}
	if idx < 0 || idx >= len(s.Cards) {
		return false
	}
	c := s.Cards[idx]
	return !c.Matched && !c.Revealed
}
