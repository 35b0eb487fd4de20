package playout

import (
	"baduk/game"

	"golang.org/x/exp/rand"
)

// Light is the uniformly random policy: any legal move that does not fill
// one of its own one-point eyes. It scans the board from a random start so a
// single pass finds a move without building a move list.
type Light struct{}

func (Light) Choose(b *game.Board, color game.Color, rng *rand.Rand) game.Coord {
	size := b.Size()
	n := size * size
	start := rng.Intn(n)
	for i := 0; i < n; i++ {
		k := (start + i) % n
		c := game.CoordXY(k%size, k/size, size)
		if b.At(c) != game.Empty {
			continue
		}
		if b.IsOnePointEye(c, color) {
			continue
		}
		if b.IsLegal(c, color) {
			return c
		}
	}
	return game.Pass
}

func (Light) Assess(b *game.Board, color game.Color, probs []float64) {
	total := 0
	b.EachPoint(func(c game.Coord) {
		probs[c] = 0
		if b.At(c) == game.Empty && !b.IsOnePointEye(c, color) && b.IsLegal(c, color) {
			probs[c] = 1
			total++
		}
	})
	if total == 0 {
		return
	}
	b.EachPoint(func(c game.Coord) {
		probs[c] /= float64(total)
	})
}
