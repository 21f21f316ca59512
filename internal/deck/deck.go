// internal/deck/deck.go
//
// Deck construction for a memory-matching game.
// Responsibilities:
//   - Pick `pairs` distinct symbols from a pool, uniformly without replacement.
//   - Place each chosen symbol twice and shuffle the result (Fisher–Yates).
//
// Notes:
//   - Randomness comes from the caller (Rand), so a seeded source yields a
//     reproducible deck. The daily challenge relies on this.
//   - Build never mutates the pool it is given.
package deck

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when a deck cannot be built from the
// requested pair count and symbol pool.
var ErrInvalidConfiguration = errors.New("invalid deck configuration")

// Symbol is an opaque card face. Only equality is meaningful.
type Symbol string

// Rand is the randomness a deck needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n). n is always > 0.
	IntN(n int) int
}

// Deck is an ordered list of card faces; position i is card index i.
type Deck []Symbol

// Build returns a shuffled deck of 2*pairs cards with every chosen symbol
// appearing exactly twice.
func Build(pairs int, pool []Symbol, rng Rand) (Deck, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfiguration)
	}
	distinct := unique(pool)
	if pairs < 1 {
		return nil, fmt.Errorf("%w: pairs must be at least 1, got %d", ErrInvalidConfiguration, pairs)
	}
	if pairs > len(distinct) {
		return nil, fmt.Errorf("%w: %d pairs requested but only %d distinct symbols",
			ErrInvalidConfiguration, pairs, len(distinct))
	}

	// Partial Fisher–Yates: the first `pairs` slots become a uniform sample.
	for i := 0; i < pairs; i++ {
		j := i + rng.IntN(len(distinct)-i)
		distinct[i], distinct[j] = distinct[j], distinct[i]
	}
	chosen := distinct[:pairs]

	d := make(Deck, 0, 2*pairs)
	d = append(d, chosen...)
	d = append(d, chosen...)
	Shuffle(d, rng)
	return d, nil
}

// Shuffle permutes d in place; every ordering is equally likely.
func Shuffle(d Deck, rng Rand) {
	for i := len(d) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// unique copies pool, keeping the first occurrence of each symbol.
func unique(pool []Symbol) []Symbol {
	seen := make(map[Symbol]struct{}, len(pool))
	out := make([]Symbol, 0, len(pool))
	for _, s := range pool {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
