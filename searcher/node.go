package searcher

import (
	"math"
	"sync/atomic"

	"baduk/game"
)

// Stats is an atomic (playouts, value-sum) pair. Readers may observe the two
// counters from different updates; the selection policies tolerate the noise.
type Stats struct {
	playouts atomic.Int32
	sumBits  atomic.Uint64
}

func addFloatBits(bits *atomic.Uint64, delta float64) {
	for {
		old := bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Add records one game with the given result in [0, 1].
func (s *Stats) Add(result float64) {
	s.playouts.Add(1)
	addFloatBits(&s.sumBits, result)
}

// AddGames folds in several games at once (priors, merging).
func (s *Stats) AddGames(playouts int32, sum float64) {
	s.playouts.Add(playouts)
	addFloatBits(&s.sumBits, sum)
}

func (s *Stats) Playouts() int32 { return s.playouts.Load() }

func (s *Stats) Sum() float64 { return math.Float64frombits(s.sumBits.Load()) }

// Value is the mean result, 0 when no games were recorded.
func (s *Stats) Value() float64 {
	n := s.playouts.Load()
	if n <= 0 {
		return 0
	}
	return s.Sum() / float64(n)
}

func (s *Stats) set(playouts int32, sum float64) {
	s.playouts.Store(playouts)
	s.sumBits.Store(math.Float64bits(sum))
}

// Node is one tree position. Coord is the move leading here from the parent
// and Color the mover of that move, so a node's value is the win rate from
// its own mover's perspective. The parent link exists only for ascent during
// backup; ownership always runs downward from the tree root.
type Node struct {
	Coord  game.Coord
	Color  game.Color
	parent *Node

	children  []*Node
	expanded  atomic.Bool
	expanding atomic.Bool

	stats Stats
	amaf  Stats
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns nil until the node has been expanded.
func (n *Node) Children() []*Node {
	if !n.expanded.Load() {
		return nil
	}
	return n.children
}

func (n *Node) Expanded() bool { return n.expanded.Load() }

func (n *Node) Playouts() int32 { return n.stats.Playouts() }

// Value is the win rate from this node's mover's perspective.
func (n *Node) Value() float64 { return n.stats.Value() }

func (n *Node) AMAF() *Stats { return &n.amaf }

// SeedStats installs initial statistics (priors, book entries).
func (n *Node) SeedStats(playouts int32, sum float64) {
	n.stats.AddGames(playouts, sum)
}

// addVirtualLoss pessimistically books one lost game for this node's mover,
// steering concurrent descents onto other branches.
func (n *Node) addVirtualLoss() {
	n.stats.playouts.Add(1)
}

// removeVirtualLoss undoes addVirtualLoss; backup then records the real
// result.
func (n *Node) removeVirtualLoss() {
	n.stats.playouts.Add(-1)
}
