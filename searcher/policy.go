package searcher

import (
	"math"
)

// Policy selects children during descent and the move candidate once the
// search stops. Implementations are stateless and safe for concurrent use.
type Policy interface {
	// Descend picks the child to walk into during a playout, or nil when n
	// has none. n's children carry the side to move at n, so maximizing
	// their value is always correct.
	Descend(n *Node) *Node
	// Choose picks the move candidate: the most robust child, not the most
	// urgent one.
	Choose(n *Node) *Node
	// Evaluate scores n for stop-gate comparisons.
	Evaluate(n *Node) float64
}

// WinnerPolicy is an optional Policy extension: Winner returns the child
// with the highest evaluation. The search controller only honors a desired
// stop once Choose and Winner agree.
type WinnerPolicy interface {
	Winner(t *Tree, n *Node) *Node
}

func newPolicy(name string, cfg Config) (Policy, error) {
	switch name {
	case "ucb1":
		return &UCB1{Explore: cfg.Explore}, nil
	case "ucb1amaf":
		return &UCB1AMAF{Explore: cfg.Explore, EquivRave: cfg.EquivRave}, nil
	}
	panic("policy name not validated: " + name)
}

// mostPlayed returns the child with the most playouts, value breaking ties.
func mostPlayed(n *Node) *Node {
	var best *Node
	var bestPlayouts int32 = -1
	bestValue := math.Inf(-1)
	for _, child := range n.Children() {
		np, nv := child.Playouts(), child.Value()
		if np > bestPlayouts || (np == bestPlayouts && nv > bestValue) {
			bestPlayouts = np
			bestValue = nv
			best = child
		}
	}
	return best
}

// UCB1 is the classic bandit rule: value plus an exploration bonus shrinking
// with the child's visit count.
type UCB1 struct {
	Explore float64
}

func (p *UCB1) Descend(n *Node) *Node {
	children := n.Children()
	if len(children) == 0 {
		return nil
	}
	parentPlayouts := n.Playouts()
	if parentPlayouts < 1 {
		parentPlayouts = 1
	}
	logParent := math.Log(float64(parentPlayouts))

	var best *Node
	bestScore := math.Inf(-1)
	for _, child := range children {
		np := child.Playouts()
		if np == 0 {
			// First-play urgency: an unvisited child wins outright.
			return child
		}
		score := child.Value() + p.Explore*math.Sqrt(logParent/float64(np))
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

func (p *UCB1) Choose(n *Node) *Node {
	return mostPlayed(n)
}

func (p *UCB1) Evaluate(n *Node) float64 {
	return n.Value()
}
