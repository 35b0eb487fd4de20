// Package playout provides the random move policies that finish simulated
// games below the search tree.
package playout

import (
	"baduk/game"

	"golang.org/x/exp/rand"
)

// Policy picks the next simulation move for color, or Pass when it finds
// nothing worth playing. Implementations must be safe for concurrent use;
// all per-simulation randomness comes from the caller's rng.
type Policy interface {
	Choose(b *game.Board, color game.Color, rng *rand.Rand) game.Coord
}

// Assessor is an optional Policy extension that rates every board point with
// the probability the policy would play it. The root heuristic prior consumes
// this to seed fresh children.
type Assessor interface {
	Assess(b *game.Board, color game.Color, probs []float64)
}

// New builds a policy by name. Unknown names are a configuration error.
func New(name string) (Policy, bool) {
	switch name {
	case "", "light":
		return Light{}, true
	case "local":
		return NewLocal(), true
	}
	return nil, false
}
