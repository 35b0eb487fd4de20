package searcher

import (
	"sync/atomic"
	"unsafe"

	"baduk/game"
)

const nodeBytes = int64(unsafe.Sizeof(Node{}))

// Tree is the search tree for one position. The root's mover is the opponent
// of RootColor, so the root's children carry RootColor; alternation holds on
// every edge below.
type Tree struct {
	Root      *Node
	RootColor game.Color

	// ExtraKomi is the dynamic komi offset self-imposed during the opening.
	ExtraKomi float64

	boardSize int

	nodes     atomic.Int64
	nodesSize atomic.Int64
	maxSize   int64

	// fast_alloc arena: nodes are bump-allocated from a preallocated slab
	// and never reclaimed individually.
	arena     []Node
	arenaNext atomic.Int64
}

// NewTree creates a tree rooted at the position of b with rootColor to move.
// budgetBytes > 0 preallocates a fast_alloc arena of that size.
func NewTree(b *game.Board, rootColor game.Color, budgetBytes int64) *Tree {
	t := &Tree{
		RootColor: rootColor,
		boardSize: b.Size(),
		maxSize:   budgetBytes,
	}
	if budgetBytes > 0 {
		t.arena = make([]Node, budgetBytes/nodeBytes)
	}
	t.Root = t.newNode(game.Pass, rootColor.Opposite(), nil)
	return t
}

func (t *Tree) BoardSize() int { return t.boardSize }

// Nodes is the number of live nodes under accounting.
func (t *Tree) Nodes() int64 { return t.nodes.Load() }

// NodesSize is the accounted byte size of the tree.
func (t *Tree) NodesSize() int64 { return t.nodesSize.Load() }

// SetMaxSize installs an advisory byte cap for heap allocation mode.
func (t *Tree) SetMaxSize(bytes int64) { t.maxSize = bytes }

// newNode allocates a node, from the arena when fast_alloc is on. Returns
// nil when the arena is exhausted; expansion then silently fails and the
// existing tree keeps accumulating statistics.
func (t *Tree) newNode(c game.Coord, color game.Color, parent *Node) *Node {
	var n *Node
	if t.arena != nil {
		i := t.arenaNext.Add(1) - 1
		if int(i) >= len(t.arena) {
			return nil
		}
		n = &t.arena[i]
	} else {
		n = &Node{}
	}
	n.Coord = c
	n.Color = color
	n.parent = parent
	t.nodes.Add(1)
	t.nodesSize.Add(nodeBytes)
	return n
}

// full reports whether the advisory size cap forbids further expansion.
func (t *Tree) full() bool {
	return t.maxSize > 0 && t.nodesSize.Load() >= t.maxSize
}

// Expand populates n's children from the legal non-self-eye moves of b,
// which must hold the position n represents. Exactly one concurrent caller
// wins the expansion latch; the others fall through and the caller runs its
// playout from n instead. Returns whether n is expanded on exit.
func (t *Tree) Expand(n *Node, b *game.Board, prior Prior) bool {
	if n.Expanded() {
		return true
	}
	if t.full() {
		return false
	}
	if !n.expanding.CompareAndSwap(false, true) {
		return n.Expanded()
	}
	childColor := n.Color.Opposite()
	moves := b.LegalMoves(childColor)
	children := make([]*Node, 0, len(moves))
	for _, c := range moves {
		child := t.newNode(c, childColor, n)
		if child == nil {
			// Arena exhausted mid-expansion: publish nothing.
			n.expanding.Store(false)
			return false
		}
		children = append(children, child)
	}
	if prior != nil {
		prior.Apply(n, children, b)
	}
	n.children = children
	n.expanded.Store(true)
	return true
}

// SeedChild attaches a child with preset statistics to n, used when loading
// persisted book trees. Returns nil when allocation is refused.
func (t *Tree) SeedChild(n *Node, c game.Coord, playouts int32, sum float64) *Node {
	child := t.newNode(c, n.Color.Opposite(), n)
	if child == nil {
		return nil
	}
	child.stats.set(playouts, sum)
	n.children = append(n.children, child)
	n.expanded.Store(true)
	return child
}

// Promote makes the child of the root matching c the new root. The rest of
// the tree is dropped (heap mode) or left unreferenced (arena mode).
func (t *Tree) Promote(c game.Coord) bool {
	var found *Node
	for _, child := range t.Root.Children() {
		if child.Coord == c {
			found = child
			break
		}
	}
	if found == nil {
		return false
	}
	found.parent = nil
	t.Root = found
	t.RootColor = found.Color.Opposite()
	if t.arena == nil {
		t.recount()
	}
	return true
}

func (t *Tree) recount() {
	var nodes int64
	var walk func(n *Node)
	walk = func(n *Node) {
		nodes++
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.Root)
	t.nodes.Store(nodes)
	t.nodesSize.Store(nodes * nodeBytes)
}

// Copy deep-copies the tree for a root-parallel worker. Arena trees are not
// copyable; fast_alloc is rejected with root parallelization at config time.
func (t *Tree) Copy() *Tree {
	if t.arena != nil {
		panic("cannot copy a fast_alloc tree")
	}
	nt := &Tree{
		RootColor: t.RootColor,
		ExtraKomi: t.ExtraKomi,
		boardSize: t.boardSize,
		maxSize:   t.maxSize,
	}
	nt.Root = nt.copyNode(t.Root, nil)
	return nt
}

func (t *Tree) copyNode(n *Node, parent *Node) *Node {
	nn := t.newNode(n.Coord, n.Color, parent)
	nn.stats.set(n.stats.Playouts(), n.stats.Sum())
	nn.amaf.set(n.amaf.Playouts(), n.amaf.Sum())
	if n.Expanded() {
		nn.children = make([]*Node, len(n.children))
		for i, c := range n.children {
			nn.children[i] = t.copyNode(c, nn)
		}
		nn.expanded.Store(true)
	}
	return nn
}

// Merge folds src into dst: statistics of nodes matching by coordinate are
// added, direct and AMAF alike; children only src has are copied over. Used
// after root-parallel workers join, strictly single-threaded.
func Merge(dst, src *Tree) {
	dst.ExtraKomi = src.ExtraKomi
	mergeNode(dst, dst.Root, src.Root)
}

func mergeNode(t *Tree, dst, src *Node) {
	dst.stats.AddGames(src.stats.Playouts(), src.stats.Sum())
	dst.amaf.AddGames(src.amaf.Playouts(), src.amaf.Sum())
	if !src.Expanded() {
		return
	}
	if !dst.Expanded() {
		dst.children = make([]*Node, 0, len(src.children))
		for _, sc := range src.children {
			dst.children = append(dst.children, t.copyNode(sc, dst))
		}
		dst.expanded.Store(true)
		return
	}
	byCoord := make(map[game.Coord]*Node, len(dst.children))
	for _, dc := range dst.children {
		byCoord[dc.Coord] = dc
	}
	for _, sc := range src.children {
		if dc, ok := byCoord[sc.Coord]; ok {
			mergeNode(t, dc, sc)
		} else {
			dst.children = append(dst.children, t.copyNode(sc, dst))
		}
	}
}

// Normalize divides every node's statistics by k, averaging a merge of k
// equally sized trees.
func (t *Tree) Normalize(k int) {
	if k <= 1 {
		return
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		n.stats.set(n.stats.Playouts()/int32(k), n.stats.Sum()/float64(k))
		n.amaf.set(n.amaf.Playouts()/int32(k), n.amaf.Sum()/float64(k))
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.Root)
}
