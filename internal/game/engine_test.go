package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielnylander/minnet/internal/deck"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func sessionOf(t *testing.T, faces string, clk *fakeClock) *Session {
	t.Helper()
	d := make(deck.Deck, 0, len(faces))
	for _, r := range faces {
		d = append(d, deck.Symbol(r))
	}
	s, err := FromDeck(d, WithClock(clk.now), WithID("test"))
	require.NoError(t, err)
	return s
}

func TestNewDealsDeck(t *testing.T) {
	pool := []deck.Symbol{"a", "b", "c", "d", "e", "f"}
	s, err := New(4, pool, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)

	assert.Len(t, s.Cards, 8)
	assert.Equal(t, 4, s.Pairs)
	assert.Equal(t, StateIdle, s.State())
	assert.Zero(t, s.Moves)
	assert.Zero(t, s.MatchedCount)
	assert.NotEmpty(t, s.ID)
	for _, c := range s.Cards {
		assert.False(t, c.Revealed)
		assert.False(t, c.Matched)
	}
}

func TestNewInvalidConfiguration(t *testing.T) {
	_, err := New(3, []deck.Symbol{"a", "b"}, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, deck.ErrInvalidConfiguration)
}

func TestFromDeckRejectsMalformedDecks(t *testing.T) {
	cases := map[string]deck.Deck{
		"empty":      {},
		"odd length": {"X", "X", "Y"},
		"single":     {"X", "Y"},
		"quadruple":  {"X", "X", "X", "X", "Y", "Y"},
		"nil":        nil,
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := FromDeck(d)
			assert.ErrorIs(t, err, deck.ErrInvalidConfiguration)
			assert.Nil(t, s)
		})
	}
}

// Scenario A: a first pair is matched straight away.
func TestScenarioMatch(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())

	assert.Equal(t, RevealResult{Outcome: OutcomePending}, s.Reveal(0))
	assert.Equal(t, StateOneRevealed, s.State())

	assert.Equal(t, RevealResult{Outcome: OutcomeMatched}, s.Reveal(2))
	assert.Equal(t, 1, s.Moves)
	assert.Equal(t, 2, s.MatchedCount)
	assert.True(t, s.Cards[0].Matched)
	assert.True(t, s.Cards[2].Matched)
	assert.Empty(t, s.Pending)
	assert.Equal(t, StateIdle, s.State())
}

// Scenario B: continuing A, a mismatch stays visible until resolved.
func TestScenarioMismatchThenResolve(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())
	s.Reveal(0)
	s.Reveal(2)

	assert.Equal(t, OutcomePending, s.Reveal(1).Outcome)
	assert.Equal(t, OutcomeMismatched, s.Reveal(4).Outcome)
	assert.Equal(t, 2, s.Moves)
	assert.True(t, s.Cards[1].Revealed)
	assert.True(t, s.Cards[4].Revealed)
	assert.Equal(t, StateResolving, s.State())

	a, b, ok := s.PendingPair()
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 4}, [2]int{a, b})

	require.NoError(t, s.ResolvePending())
	assert.False(t, s.Cards[1].Revealed)
	assert.False(t, s.Cards[4].Revealed)
	assert.False(t, s.Cards[1].Matched)
	assert.False(t, s.Cards[4].Matched)
	assert.Empty(t, s.Pending)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, 2, s.Moves, "resolving is not a move")
}

// Scenario C: a full two-pair game, including re-revealing a hidden card.
func TestScenarioFullGame(t *testing.T) {
	clk := newClock()
	s := sessionOf(t, "XYYX", clk)

	assert.Equal(t, OutcomePending, s.Reveal(0).Outcome)
	clk.advance(2 * time.Second)
	assert.Equal(t, OutcomeMismatched, s.Reveal(1).Outcome)
	assert.Equal(t, 1, s.Moves)
	require.NoError(t, s.ResolvePending())

	// Index 0 is face-down again, so revealing it is allowed.
	assert.Equal(t, OutcomePending, s.Reveal(0).Outcome)
	assert.Equal(t, RevealResult{Outcome: OutcomeMatched}, s.Reveal(3))
	assert.False(t, s.IsWon())

	assert.Equal(t, OutcomePending, s.Reveal(1).Outcome)
	clk.advance(5 * time.Second)
	assert.Equal(t, RevealResult{Outcome: OutcomeMatched, Won: true}, s.Reveal(2))
	assert.True(t, s.IsWon())
	assert.Equal(t, 3, s.Moves)
	assert.Equal(t, 4, s.MatchedCount)

	r, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 2, r.Pairs)
	assert.Equal(t, 3, r.Moves)
	assert.Equal(t, 7, r.ElapsedSeconds)
	assert.True(t, r.Won)
}

// The short form from the game rules: X at 0 and 3, Y at 1 and 2.
func TestScenarioTwoMoveWin(t *testing.T) {
	s := sessionOf(t, "XYYX", newClock())

	assert.Equal(t, OutcomePending, s.Reveal(0).Outcome)
	assert.Equal(t, OutcomeMatched, s.Reveal(3).Outcome)
	assert.Equal(t, OutcomePending, s.Reveal(1).Outcome)
	res := s.Reveal(2)
	assert.Equal(t, OutcomeMatched, res.Outcome)
	assert.True(t, res.Won)
	assert.Equal(t, 2, s.Moves)
	assert.Equal(t, 4, s.MatchedCount)
	assert.True(t, s.IsWon())

	r, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 2, r.Moves)
}

func TestRevealIgnored(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())
	s.Reveal(0)
	s.Reveal(2) // matched

	cases := []struct {
		name string
		idx  int
	}{
		{"matched card", 0},
		{"other matched card", 2},
		{"negative index", -1},
		{"past the end", 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, OutcomeIgnored, s.Reveal(tc.idx).Outcome)
			assert.Equal(t, 1, s.Moves)
			assert.Equal(t, 2, s.MatchedCount)
		})
	}
}

func TestRevealSamePendingCardTwice(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())
	s.Reveal(1)

	assert.Equal(t, OutcomeIgnored, s.Reveal(1).Outcome)
	assert.Equal(t, 0, s.Moves, "double click never counts a move")
	assert.Equal(t, []int{1}, s.Pending)
	assert.Equal(t, StateOneRevealed, s.State())
}

func TestRevealWhileResolvingIsIgnored(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())
	s.Reveal(0)
	s.Reveal(1) // mismatch

	assert.Equal(t, OutcomeIgnored, s.Reveal(3).Outcome)
	assert.False(t, s.Cards[3].Revealed)
	assert.Equal(t, 1, s.Moves)
	assert.Len(t, s.Pending, 2)
}

func TestResolvePendingOutsideResolving(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())
	assert.ErrorIs(t, s.ResolvePending(), ErrInvalidState)

	s.Reveal(0)
	assert.ErrorIs(t, s.ResolvePending(), ErrInvalidState)
	assert.True(t, s.Cards[0].Revealed, "pending single card stays face-up")
	assert.Equal(t, StateOneRevealed, s.State())

	_, _, ok := s.PendingPair()
	assert.False(t, ok)
}

func TestOneMovePerAttempt(t *testing.T) {
	// Play a random game to the end, checking move accounting at every step.
	s, err := New(8, []deck.Symbol{"a", "b", "c", "d", "e", "f", "g", "h"}, rand.New(rand.NewPCG(9, 9)))
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(4, 4))

	wonTransitions := 0
	for steps := 0; !s.IsWon() && steps < 10000; steps++ {
		before := s.Moves
		pendingBefore := len(s.Pending)
		res := s.Reveal(rng.IntN(len(s.Cards)))

		switch res.Outcome {
		case OutcomeIgnored, OutcomePending:
			assert.Equal(t, before, s.Moves)
		case OutcomeMatched, OutcomeMismatched:
			assert.Equal(t, 1, pendingBefore)
			assert.Equal(t, before+1, s.Moves)
		}
		if res.Outcome == OutcomeMismatched {
			require.NoError(t, s.ResolvePending())
		}
		if res.Won {
			wonTransitions++
		}
		assert.Equal(t, 0, s.MatchedCount%2)
		for _, i := range s.Pending {
			assert.True(t, s.Cards[i].Revealed)
			assert.False(t, s.Cards[i].Matched)
		}
		assert.Equal(t, s.MatchedCount == len(s.Cards), s.IsWon())
	}
	require.True(t, s.IsWon())
	assert.Equal(t, 1, wonTransitions)

	// Nothing moves a won session.
	assert.Equal(t, OutcomeIgnored, s.Reveal(0).Outcome)
	assert.ErrorIs(t, s.ResolvePending(), ErrInvalidState)
}

func TestStatsElapsed(t *testing.T) {
	clk := newClock()
	s := sessionOf(t, "XYYX", clk)

	clk.advance(1500 * time.Millisecond)
	assert.Equal(t, Stats{Moves: 0, ElapsedSeconds: 1}, s.Stats())

	s.Reveal(0)
	s.Reveal(3)
	s.Reveal(1)
	clk.advance(3 * time.Second)
	s.Reveal(2)
	require.True(t, s.IsWon())

	clk.advance(time.Minute)
	assert.Equal(t, Stats{Moves: 2, ElapsedSeconds: 4}, s.Stats(), "elapsed stops at the win")
}

func TestResultBeforeWin(t *testing.T) {
	s := sessionOf(t, "XYYX", newClock())
	_, ok := s.Result()
	assert.False(t, ok)
}

func TestViewHidesFaceDownSymbols(t *testing.T) {
	s := sessionOf(t, "ABACBDCD", newClock())
	s.Reveal(0)
	s.Reveal(2)
	s.Reveal(1)

	v := s.View()
	require.Len(t, v, 8)
	assert.Equal(t, CardView{Index: 0, Symbol: "A", Revealed: true, Matched: true}, v[0])
	assert.Equal(t, CardView{Index: 1, Symbol: "B", Revealed: true}, v[1])
	assert.Equal(t, CardView{Index: 3}, v[3])
}

func TestPairsFor(t *testing.T) {
	for d, want := range map[Difficulty]int{Easy: 4, Medium: 6, Hard: 8, " HARD ": 8} {
		got, err := PairsFor(d)
		require.NoError(t, err)
		assert.Equal(t, want, got, string(d))
	}
	_, err := PairsFor("nightmare")
	assert.Error(t, err)
}
