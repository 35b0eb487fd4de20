package playout

import (
	"baduk/game"

	"golang.org/x/exp/rand"
)

// Local answers near the last move before falling back to Light: with
// probability CaptureProb it captures an adjacent opponent chain left in
// atari, otherwise with probability LocalProb it plays a random legal point
// adjacent to the last move.
type Local struct {
	CaptureProb float64
	LocalProb   float64
	fallback    Light
}

func NewLocal() *Local {
	return &Local{CaptureProb: 0.9, LocalProb: 0.5}
}

func (p *Local) Choose(b *game.Board, color game.Color, rng *rand.Rand) game.Coord {
	last := b.LastMove()
	if last.Coord >= 0 {
		if rng.Float64() < p.CaptureProb {
			if c := p.captureNear(b, last.Coord, color); c != game.Pass {
				return c
			}
		}
		if rng.Float64() < p.LocalProb {
			if c := p.localReply(b, last.Coord, color, rng); c != game.Pass {
				return c
			}
		}
	}
	return p.fallback.Choose(b, color, rng)
}

// captureNear takes an opponent chain around c that has exactly one liberty.
func (p *Local) captureNear(b *game.Board, c game.Coord, color game.Color) game.Coord {
	opponent := color.Opposite()
	for _, n := range neighborsOf(b, c) {
		if b.At(n) != opponent {
			continue
		}
		if lib, only := soleLiberty(b, n); only && b.IsLegal(lib, color) && !b.IsOnePointEye(lib, color) {
			return lib
		}
	}
	return game.Pass
}

func (p *Local) localReply(b *game.Board, c game.Coord, color game.Color, rng *rand.Rand) game.Coord {
	candidates := neighborsOf(b, c)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, n := range candidates {
		if b.At(n) != game.Empty {
			continue
		}
		if b.IsOnePointEye(n, color) {
			continue
		}
		if b.IsLegal(n, color) {
			return n
		}
	}
	return game.Pass
}

func (p *Local) Assess(b *game.Board, color game.Color, probs []float64) {
	// Uniform base from Light, then local replies boosted.
	p.fallback.Assess(b, color, probs)
	last := b.LastMove()
	if last.Coord < 0 {
		return
	}
	for _, n := range neighborsOf(b, last.Coord) {
		if probs[n] > 0 {
			probs[n] *= 4
		}
	}
	total := 0.0
	b.EachPoint(func(c game.Coord) {
		total += probs[c]
	})
	if total == 0 {
		return
	}
	b.EachPoint(func(c game.Coord) {
		probs[c] /= total
	})
}

func neighborsOf(b *game.Board, c game.Coord) []game.Coord {
	w := game.Coord(b.Size() + 2)
	return []game.Coord{c - 1, c + 1, c - w, c + w, c - w - 1, c - w + 1, c + w - 1, c + w + 1}
}

// soleLiberty returns the single liberty of the chain at c, if it has
// exactly one.
func soleLiberty(b *game.Board, c game.Coord) (game.Coord, bool) {
	color := b.At(c)
	w := game.Coord(b.Size() + 2)
	seen := map[game.Coord]bool{c: true}
	stack := []game.Coord{c}
	liberty := game.NoMove
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range []game.Coord{p - 1, p + 1, p - w, p + w} {
			switch b.At(n) {
			case game.Empty:
				if liberty != game.NoMove && liberty != n {
					return game.NoMove, false
				}
				liberty = n
			case color:
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return liberty, liberty != game.NoMove
}
