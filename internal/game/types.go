// internal/game/types.go
//
// Core type definitions for the memory game engine.
// Defines:
//   - State: where a session is in its reveal/match cycle.
//   - Outcome: what a single Reveal call did.
//   - Card: one deck position.
//   - Session: state for a single in-progress or finished game.

package game

import (
	"time"

	"github.com/danielnylander/minnet/internal/deck"
)

// State is the session's position in the reveal/match cycle.
//   - "idle":         no face-up unmatched cards.
//   - "one_revealed": one card is face-up waiting for its partner.
//   - "resolving":    two mismatched cards are face-up until ResolvePending.
//   - "won":          every card is matched (terminal).
type State string

const (
	StateIdle        State = "idle"
	StateOneRevealed State = "one_revealed"
	StateResolving   State = "resolving"
	StateWon         State = "won"
)

// Outcome is the result of a single Reveal call.
type Outcome string

const (
	OutcomeIgnored    Outcome = "ignored"
	OutcomePending    Outcome = "pending"
	OutcomeMatched    Outcome = "matched"
	OutcomeMismatched Outcome = "mismatched"
)

// RevealResult reports the outcome of Reveal. Won is only ever true
// alongside OutcomeMatched, on the reveal that finished the game.
type RevealResult struct {
	Outcome Outcome
	Won     bool
}

// Card is one deck position, identified by its index.
type Card struct {
	Symbol   deck.Symbol
	Revealed bool
	Matched  bool
}

// CardView is what a player may see of a card: the symbol is omitted
// while the card is face-down.
type CardView struct {
	Index    int         `json:"index"`
	Symbol   deck.Symbol `json:"symbol,omitempty"`
	Revealed bool        `json:"revealed"`
	Matched  bool        `json:"matched"`
}

// Stats is the read-only progress summary shown while playing.
type Stats struct {
	Moves          int `json:"moves"`
	ElapsedSeconds int `json:"elapsedSeconds"`
}

// Session holds the state of a single memory game.
// A Session is not safe for concurrent use; callers serialize access.
type Session struct {
	ID           string    // Unique session identifier (uuid).
	Pairs        int       // Number of pairs dealt.
	Cards        []Card    // Deck in play; index is the card id.
	Pending      []int     // Face-up unmatched cards awaiting a match check (≤2).
	MatchedCount int       // Cards matched so far; always even.
	Moves        int       // Completed two-card attempts.
	StartedAt    time.Time // When the session was created.
	FinishedAt   time.Time // When the last pair was matched; zero until won.

	state State
	now   func() time.Time
}
