package searcher

import (
	"sync"
	"testing"

	"baduk/game"

	"github.com/stretchr/testify/require"
)

func TestNewTree(t *testing.T) {
	t.Run("root mover is the opponent of the side to move", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)

		require.Equal(t, game.Black, tree.RootColor)
		require.Equal(t, game.White, tree.Root.Color)
		require.Equal(t, game.Pass, tree.Root.Coord)
		require.Equal(t, int32(0), tree.Root.Playouts())
	})
}

func TestTreeExpand(t *testing.T) {
	t.Run("children cover the legal moves with alternating colors", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)

		ok := tree.Expand(tree.Root, b, nil)

		require.True(t, ok)
		children := tree.Root.Children()
		require.Len(t, children, 82, "81 points plus pass")
		for _, child := range children {
			require.Equal(t, game.Black, child.Color,
				"Root children move for the side to move")
			require.Equal(t, tree.Root, child.Parent())
		}
	})

	t.Run("prior seeds child statistics", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)

		tree.Expand(tree.Root, b, EvenPrior{Equiv: 10})

		child := tree.Root.Children()[0]
		require.Equal(t, int32(10), child.Playouts())
		require.InDelta(t, 0.5, child.Value(), 0.0001)
	})

	t.Run("exactly one concurrent expander wins", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tree.Expand(tree.Root, b, nil)
			}()
		}
		wg.Wait()

		require.Len(t, tree.Root.Children(), 82,
			"Concurrent expansion should build the child list once")
	})

	t.Run("arena exhaustion fails expansion silently", func(t *testing.T) {
		b := game.NewBoard(9)
		// Budget for a handful of nodes only.
		tree := NewTree(b, game.Black, 10*nodeBytes)

		ok := tree.Expand(tree.Root, b, nil)

		require.False(t, ok, "Expansion needs 82 nodes, arena has room for 9")
		require.Nil(t, tree.Root.Children())
	})
}

func TestTreePromote(t *testing.T) {
	t.Run("promotion keeps the subtree and reroots the colors", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)
		tree.Expand(tree.Root, b, nil)
		target := tree.Root.Children()[3]
		target.SeedStats(7, 3.5)
		c := target.Coord

		require.True(t, tree.Promote(c))

		require.Equal(t, target, tree.Root)
		require.Nil(t, tree.Root.Parent())
		require.Equal(t, game.White, tree.RootColor,
			"After a black move, white is to move")
		require.Equal(t, int32(7), tree.Root.Playouts(),
			"Accumulated statistics survive promotion")
	})

	t.Run("promoting an unknown move fails", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)

		require.False(t, tree.Promote(game.CoordXY(2, 2, 9)),
			"Unexpanded root has no child to promote")
	})
}

func TestTreeMergeNormalize(t *testing.T) {
	t.Run("merging equal trees and normalizing averages the statistics", func(t *testing.T) {
		b := game.NewBoard(9)
		c1 := game.CoordXY(2, 2, 9)
		c2 := game.CoordXY(6, 6, 9)

		makeSource := func(rootPlayouts int32, p1, p2 int32) *Tree {
			src := NewTree(b, game.Black, 0)
			src.Root.SeedStats(rootPlayouts, float64(rootPlayouts)*0.5)
			src.SeedChild(src.Root, c1, p1, float64(p1)*0.6)
			src.SeedChild(src.Root, c2, p2, float64(p2)*0.4)
			return src
		}
		src1 := makeSource(100, 60, 40)
		src2 := makeSource(100, 80, 20)

		dst := NewTree(b, game.Black, 0)
		Merge(dst, src1)
		Merge(dst, src2)
		dst.Normalize(2)

		require.Equal(t, int32(100), dst.Root.Playouts(),
			"Root playouts should equal the source average")
		children := dst.Root.Children()
		require.Len(t, children, 2)
		byCoord := map[game.Coord]*Node{}
		for _, child := range children {
			byCoord[child.Coord] = child
		}
		require.Equal(t, int32(70), byCoord[c1].Playouts())
		require.Equal(t, int32(30), byCoord[c2].Playouts())
		require.InDelta(t, 0.6, byCoord[c1].Value(), 0.0001,
			"Equal-value sources average to the same value")
	})

	t.Run("children present in one source only are halved", func(t *testing.T) {
		b := game.NewBoard(9)
		c1 := game.CoordXY(2, 2, 9)

		src1 := NewTree(b, game.Black, 0)
		src1.Root.SeedStats(10, 5)
		src1.SeedChild(src1.Root, c1, 10, 6)
		src2 := NewTree(b, game.Black, 0)
		src2.Root.SeedStats(10, 5)

		dst := NewTree(b, game.Black, 0)
		Merge(dst, src1)
		Merge(dst, src2)
		dst.Normalize(2)

		require.Equal(t, int32(5), dst.Root.Children()[0].Playouts(),
			"A child seen by one worker carries half weight after averaging")
	})
}

func TestTreeCopy(t *testing.T) {
	t.Run("copies share no nodes", func(t *testing.T) {
		b := game.NewBoard(9)
		tree := NewTree(b, game.Black, 0)
		tree.Expand(tree.Root, b, nil)
		tree.Root.SeedStats(5, 2.5)

		cp := tree.Copy()
		cp.Root.SeedStats(5, 2.5)

		require.Equal(t, int32(5), tree.Root.Playouts(),
			"Original stays untouched")
		require.Equal(t, int32(10), cp.Root.Playouts())
		require.Len(t, cp.Root.Children(), len(tree.Root.Children()))
	})
}
