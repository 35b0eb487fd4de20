package searcher

import (
	"testing"
	"time"

	"baduk/game"

	"github.com/stretchr/testify/require"
)

func gamesInfo(games int) *TimeInfo {
	return &TimeInfo{Period: PeriodMove, Dim: DimGames, Games: games}
}

func newSearcher(t *testing.T, mutate func(*Config)) *Searcher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ForceSeed = 1
	if mutate != nil {
		mutate(&cfg)
	}
	u, err := New(cfg)
	require.NoError(t, err)
	return u
}

func TestSearchGamesBudget(t *testing.T) {
	t.Run("a single-threaded 1000 game search plays exactly 1000 games", func(t *testing.T) {
		u := newSearcher(t, nil)
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)

		games := u.Search(b, gamesInfo(1000), game.Black, tree)

		require.Equal(t, 1000, games)
		require.Equal(t, int32(1000), tree.Root.Playouts(),
			"Every playout backs the root up once")
		require.Equal(t, int32(1000), u.OwnerMap().Playouts(),
			"Every playout feeds the ownership map")

		best := u.Policy().Choose(tree.Root)
		require.NotNil(t, best)
		if best.Coord != game.Pass {
			require.True(t, b.IsLegal(best.Coord, game.Black),
				"The chosen move must be legal for the side to move")
		}
	})

	t.Run("node statistics stay within bounds", func(t *testing.T) {
		u := newSearcher(t, nil)
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)

		u.Search(b, gamesInfo(500), game.Black, tree)

		var walk func(n *Node)
		walk = func(n *Node) {
			v := n.Value()
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
			require.GreaterOrEqual(t, n.Playouts(), int32(0))
			for _, c := range n.Children() {
				walk(c)
			}
		}
		walk(tree.Root)
	})
}

func TestSearchDeterminism(t *testing.T) {
	t.Run("forced seed and one thread reproduce the search exactly", func(t *testing.T) {
		run := func() (game.Coord, int32, float64) {
			u := newSearcher(t, func(c *Config) { c.ForceSeed = 7 })
			b := game.NewBoard(9)
			u.PrepareOwnerMap(b)
			tree := NewTree(b, game.Black, 0)
			u.Search(b, gamesInfo(300), game.Black, tree)
			best := u.Policy().Choose(tree.Root)
			return best.Coord, best.Playouts(), best.Value()
		}

		c1, p1, v1 := run()
		c2, p2, v2 := run()

		require.Equal(t, c1, c2, "Same seed, same chosen move")
		require.Equal(t, p1, p2)
		require.Equal(t, v1, v2)
	})
}

func TestSearchParallel(t *testing.T) {
	t.Run("tree parallel workers agree with the root playout count", func(t *testing.T) {
		u := newSearcher(t, func(c *Config) {
			c.Threads = 4
			c.ThreadModel = ModelTreeVL
		})
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)

		games := u.Search(b, gamesInfo(1000), game.Black, tree)

		require.GreaterOrEqual(t, games, 1000)
		require.Less(t, games, 1000+4, "At most one overshoot game per worker")
		require.Equal(t, int32(games), tree.Root.Playouts(),
			"Total games equals the root playout growth")
	})

	t.Run("root parallel workers merge into an averaged tree", func(t *testing.T) {
		u := newSearcher(t, func(c *Config) {
			c.Threads = 2
			c.ThreadModel = ModelRoot
		})
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)

		games := u.Search(b, gamesInfo(200), game.Black, tree)

		require.Greater(t, games, 0)
		require.Greater(t, tree.Root.Playouts(), int32(0))
		require.LessOrEqual(t, tree.Root.Playouts(), int32(202),
			"Normalization divides the merged statistics by the worker count")
		require.GreaterOrEqual(t, games, int(tree.Root.Playouts()),
			"The average can never exceed the total")
	})
}

func TestSearchEarlyWin(t *testing.T) {
	t.Run("a clearly won position stops reading early", func(t *testing.T) {
		u := newSearcher(t, nil)
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)
		// Seed a dominating candidate beyond the early-win thresholds, heavy
		// enough that fresh playouts cannot dilute it below the threshold
		// before the controller's first poll.
		tree.Root.SeedStats(50000, 25000)
		tree.SeedChild(tree.Root, game.CoordXY(4, 4, 9), 50000, 45000)

		start := time.Now()
		games := u.Search(b, gamesInfo(DefaultGames), game.Black, tree)

		require.Less(t, time.Since(start), 3*time.Second,
			"The controller should break out on the early-win rule")
		require.Less(t, games, 20000)
	})
}

func TestSearchHandle(t *testing.T) {
	t.Run("stop joins every worker and freezes the tree", func(t *testing.T) {
		u := newSearcher(t, func(c *Config) { c.Threads = 2 })
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)

		h := u.SearchStart(b, game.Black, tree, 0)
		time.Sleep(150 * time.Millisecond)

		games := h.Stop()
		require.Greater(t, games, 0, "Workers had time to play")

		after := tree.Root.Playouts()
		time.Sleep(150 * time.Millisecond)
		require.Equal(t, after, tree.Root.Playouts(),
			"No worker keeps running after Stop returns")
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		u := newSearcher(t, nil)
		b := game.NewBoard(9)
		u.PrepareOwnerMap(b)
		tree := NewTree(b, game.Black, 0)

		h := u.SearchStart(b, game.Black, tree, 0)
		time.Sleep(50 * time.Millisecond)

		first := h.Stop()
		second := h.Stop()
		require.Equal(t, first, second)
	})
}

func TestNewSearcher(t *testing.T) {
	t.Run("rejects fast_alloc with root parallelization", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FastAlloc = true
		cfg.ThreadModel = ModelRoot

		_, err := New(cfg)

		require.Error(t, err)
		require.Contains(t, err.Error(), "fast_alloc")
	})

	t.Run("rejects a random policy chance without a policy", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RandomPolicyChance = 100

		_, err := New(cfg)

		require.Error(t, err)
	})

	t.Run("accepts a random policy with a chance", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RandomPolicy = "ucb1"
		cfg.RandomPolicyChance = 100

		_, err := New(cfg)

		require.NoError(t, err)
	})
}
