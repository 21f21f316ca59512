package game

import (
	"fmt"
	"strings"
)

// Difficulty names a preset pair count.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// DefaultPairs is the pair count of a game started without a preset.
const DefaultPairs = 6

var difficultyPairs = map[Difficulty]int{
	Easy:   4,
	Medium: 6,
	Hard:   8,
}

// PairsFor maps a preset name to its pair count.
func PairsFor(d Difficulty) (int, error) {
	n, ok := difficultyPairs[Difficulty(strings.ToLower(strings.TrimSpace(string(d))))]
	if !ok {
		return 0, fmt.Errorf("unknown difficulty %q", d)
	}
	return n, nil
}
