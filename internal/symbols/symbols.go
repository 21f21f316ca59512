// internal/symbols/symbols.go
//
// Card face pool management.
//
// Load behavior:
//   1. If path is set, read one symbol per line from that file.
//   2. Otherwise use the embedded default pool (assets/symbols.txt).
//
// Either way the pool is de-duplicated and must hold at least MaxPairs
// distinct symbols, so every difficulty preset can be dealt.
package symbols

import (
	"errors"
	"fmt"
	"os"

	"github.com/danielnylander/minnet/assets"
	"github.com/danielnylander/minnet/internal/deck"
)

// MaxPairs is the largest pair count any difficulty preset asks for.
const MaxPairs = 8

// ErrPoolTooSmall means the pool cannot cover the hardest preset.
var ErrPoolTooSmall = errors.New("symbols: pool too small")

// Pool is a set of distinct card faces in load order.
type Pool []deck.Symbol

// Load returns the pool from path, or the embedded default when path is empty.
func Load(path string) (Pool, error) {
	var (
		lines []string
		err   error
	)
	if path != "" {
		lines, err = readFile(path)
	} else {
		lines, err = assets.SymbolList()
	}
	if err != nil {
		return nil, fmt.Errorf("load symbols: %w", err)
	}
	p := fromLines(lines)
	if len(p) < MaxPairs {
		return nil, fmt.Errorf("%w: %d distinct symbols, need %d", ErrPoolTooSmall, len(p), MaxPairs)
	}
	return p, nil
}

// Default returns the embedded pool. It panics only if the binary was built
// without assets/symbols.txt.
func Default() Pool {
	p, err := Load("")
	if err != nil {
		panic(err)
	}
	return p
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return assets.ParseLines(f)
}

// fromLines keeps the first occurrence of each symbol.
func fromLines(lines []string) Pool {
	seen := make(map[string]struct{}, len(lines))
	out := make(Pool, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, deck.Symbol(l))
	}
	return out
}
