package searcher

import (
	"baduk/game"
	"baduk/playout"
)

// Prior seeds statistics into freshly expanded children so early selection
// is not pure noise.
type Prior interface {
	Apply(parent *Node, children []*Node, b *game.Board)
}

// EvenPrior gives every child equiv games at an even 0.5 win rate.
type EvenPrior struct {
	Equiv int32
}

func (p EvenPrior) Apply(parent *Node, children []*Node, b *game.Board) {
	if p.Equiv <= 0 {
		return
	}
	for _, child := range children {
		child.SeedStats(p.Equiv, float64(p.Equiv)*0.5)
	}
}

// PolicyPrior asks the playout policy to rate the board and converts the
// per-point probabilities into seeded games. Mode follows root_heuristic:
// 1 uses the raw rating, 2 tempers it around the mean, 3 squashes the
// tempered value quadratically toward 0.5.
type PolicyPrior struct {
	Assessor playout.Assessor
	Equiv    int32
	Mode     int

	even EvenPrior
}

func NewPolicyPrior(assessor playout.Assessor, equiv int32, mode int) *PolicyPrior {
	return &PolicyPrior{Assessor: assessor, Equiv: equiv, Mode: mode, even: EvenPrior{Equiv: equiv}}
}

func (p *PolicyPrior) Apply(parent *Node, children []*Node, b *game.Board) {
	p.even.Apply(parent, children, b)
	if p.Assessor == nil || p.Mode == 0 || len(children) == 0 {
		return
	}
	width := b.Size() + 2
	probs := make([]float64, width*width)
	p.Assessor.Assess(b, parent.Color.Opposite(), probs)

	mean := 1.0 / float64(len(children))
	for _, child := range children {
		if child.Coord < 0 {
			continue
		}
		rating := probs[child.Coord]
		var value float64
		switch p.Mode {
		case 1:
			value = rating
		case 2:
			value = 0.5 + (rating-mean)/2
		default:
			d := rating - mean
			if d < 0 {
				value = 0.5 - d*d/2
			} else {
				value = 0.5 + d*d/2
			}
		}
		if value < 0 {
			value = 0
		} else if value > 1 {
			value = 1
		}
		child.SeedStats(p.Equiv, float64(p.Equiv)*value)
	}
}
