package engine

import (
	"fmt"
	"strings"
	"testing"

	"baduk/game"
	"baduk/searcher"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Threads = 1
	cfg.ForceSeed = 1
	cfg.NoBook = true
	return cfg
}

func testEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func gamesInfo(games int) *searcher.TimeInfo {
	return &searcher.TimeInfo{
		Period: searcher.PeriodMove,
		Dim:    searcher.DimGames,
		Games:  games,
	}
}

// dominantBlackBoard builds a 9x9 position where black has played stones all
// over while white only passed. Black is far ahead.
func dominantBlackBoard(t *testing.T) *game.Board {
	t.Helper()
	b := game.NewBoard(9)
	points := [][2]int{
		{2, 2}, {4, 2}, {6, 2},
		{2, 4}, {4, 4}, {6, 4},
		{2, 6}, {4, 6}, {6, 6},
		{4, 0},
	}
	for _, p := range points {
		require.NoError(t, b.Play(game.Move{Coord: game.CoordXY(p[0], p[1], 9), Color: game.Black}))
		require.NoError(t, b.Play(game.Move{Coord: game.Pass, Color: game.White}))
	}
	return b
}

func TestGenmove(t *testing.T) {
	t.Run("returns a legal move on an empty board", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)

		c := e.Genmove(b, gamesInfo(1000), game.Black, false)

		require.NotEqual(t, game.Resign, c, "An even position is no reason to resign")
		if c != game.Pass {
			require.True(t, b.IsLegal(c, game.Black),
				"Genmove must return a legal move for the side to move")
		}
	})

	t.Run("passes back when the opponent passed and the position is won", func(t *testing.T) {
		e := testEngine(t, nil)
		b := dominantBlackBoard(t)
		require.True(t, b.LastMoveWasPass())

		c := e.Genmove(b, gamesInfo(600), game.Black, false)

		require.Equal(t, game.Pass, c,
			"Winning the counting after an opponent pass means passing too")
	})

	t.Run("resigns a position that loses nearly every playout", func(t *testing.T) {
		e := testEngine(t, nil)
		b := dominantBlackBoard(t)
		// White's last move was a pass; play one more stone so the
		// pass-safety branch stays out of the way.
		require.NoError(t, b.Play(game.Move{Coord: game.CoordXY(0, 4, 9), Color: game.Black}))

		// White to move. Pre-seed the tree with a well-explored candidate
		// whose value is hopeless, the way a long search would leave it.
		tree := searcher.NewTree(b, game.White, 0)
		tree.SeedChild(tree.Root, game.CoordXY(8, 8, 9), 5000, 250)
		e.tree = tree

		c := e.Genmove(b, gamesInfo(200), game.White, false)

		require.Equal(t, game.Resign, c)
		require.Nil(t, e.Tree(), "Resigning drops the tree")
	})
}

func TestTreeReuse(t *testing.T) {
	t.Run("the chosen move becomes the root and survives its echo", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)

		c := e.Genmove(b, gamesInfo(400), game.Black, false)
		require.NotEqual(t, game.Pass, c)
		require.NotEqual(t, game.Resign, c)

		root := e.Tree().Root
		require.Equal(t, c, root.Coord, "Genmove promotes its own move")
		promoted := root.Playouts()
		require.Greater(t, promoted, int32(0))

		require.NoError(t, b.Play(game.Move{Coord: c, Color: game.Black}))
		e.NotifyPlay(b, game.Move{Coord: c, Color: game.Black})

		require.Equal(t, c, e.Tree().Root.Coord,
			"Echoing the move back must not drop the subtree")
		require.GreaterOrEqual(t, e.Tree().Root.Playouts(), promoted)
	})

	t.Run("an opponent reply promotes the matching subtree", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)

		c := e.Genmove(b, gamesInfo(400), game.Black, false)
		require.NoError(t, b.Play(game.Move{Coord: c, Color: game.Black}))

		children := e.Tree().Root.Children()
		require.NotEmpty(t, children, "A searched move node is expanded")
		reply := children[0]
		replyPlayouts := reply.Playouts()
		require.NoError(t, b.Play(game.Move{Coord: reply.Coord, Color: game.White}))

		e.NotifyPlay(b, game.Move{Coord: reply.Coord, Color: game.White})

		require.Equal(t, reply.Coord, e.Tree().Root.Coord)
		require.GreaterOrEqual(t, e.Tree().Root.Playouts(), replyPlayouts,
			"Accumulated playouts survive the promotion")
	})

	t.Run("a resign notification drops all state", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)
		e.Genmove(b, gamesInfo(100), game.Black, false)

		e.NotifyPlay(b, game.Move{Coord: game.Resign, Color: game.White})

		require.Nil(t, e.Tree())
	})
}

func TestNonAlternatingPlay(t *testing.T) {
	t.Run("two moves of the same color abort", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)
		c := e.Genmove(b, gamesInfo(100), game.Black, false)
		require.NoError(t, b.Play(game.Move{Coord: c, Color: game.Black}))

		other := game.CoordXY(0, 0, 9)
		if other == c {
			other = game.CoordXY(8, 0, 9)
		}
		require.NoError(t, b.Play(game.Move{Coord: other, Color: game.Black}))

		msg := func() (recovered string) {
			defer func() {
				recovered = fmt.Sprint(recover())
			}()
			e.NotifyPlay(b, game.Move{Coord: other, Color: game.Black})
			return ""
		}()

		require.Contains(t, msg, "Non-alternating",
			"A same-color move after our own is a fatal protocol breach")
	})
}

func TestChat(t *testing.T) {
	t.Run("without a game context", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)

		require.Equal(t, "no game context (yet?)", e.Chat(b, "winrate"))
	})

	t.Run("reports the winrate after a search", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(9)
		e.Genmove(b, gamesInfo(200), game.Black, false)

		reply := e.Chat(b, "winrate")

		require.Contains(t, reply, "playouts")
		require.Contains(t, reply, "probability")
	})

	t.Run("ignores unknown commands", func(t *testing.T) {
		e := testEngine(t, nil)
		require.Empty(t, e.Chat(game.NewBoard(9), "dance"))
	})
}

func TestDeadGroupList(t *testing.T) {
	t.Run("judges a hopeless invader dead with transient state", func(t *testing.T) {
		e := testEngine(t, nil)
		b := game.NewBoard(5)
		for _, p := range [][2]int{{1, 1}, {3, 1}, {1, 3}, {2, 2}, {1, 2}, {2, 1}, {3, 3}, {2, 3}} {
			require.NoError(t, b.Play(game.Move{Coord: game.CoordXY(p[0], p[1], 5), Color: game.Black}))
		}
		white := game.CoordXY(4, 4, 5)
		require.NoError(t, b.Play(game.Move{Coord: white, Color: game.White}))

		dead := e.DeadGroupList(b)

		require.Nil(t, e.Tree(), "The mock state is discarded afterwards")
		found := false
		for _, chain := range dead {
			for _, c := range chain {
				if c == white {
					found = true
				}
			}
		}
		require.True(t, found, "The lone white stone cannot live")
	})

	t.Run("pass_all_alive reports nothing dead", func(t *testing.T) {
		e := testEngine(t, func(c *Config) { c.PassAllAlive = true })
		b := game.NewBoard(5)

		require.Nil(t, e.DeadGroupList(b))
	})
}

func TestPrinthook(t *testing.T) {
	t.Run("emits an ownership character per point", func(t *testing.T) {
		e := testEngine(t, nil)
		b := dominantBlackBoard(t)
		e.Genmove(b, gamesInfo(600), game.Black, false)

		var sb strings.Builder
		e.Printhook(b, game.CoordXY(4, 4, 9), &sb)

		require.Len(t, sb.String(), 2)
		require.Contains(t, ":XOx o,", sb.String()[:1])
	})
}

func TestPondering(t *testing.T) {
	t.Run("a search with pondering keeps reading after the move", func(t *testing.T) {
		e := testEngine(t, func(c *Config) { c.Pondering = true })
		b := game.NewBoard(9)

		c := e.Genmove(b, gamesInfo(300), game.Black, false)
		require.NotEqual(t, game.Pass, c)
		require.True(t, e.Pondering(), "Background search runs on the opponent's turn")

		require.NoError(t, b.Play(game.Move{Coord: c, Color: game.Black}))
		reply := e.Tree().Root.Children()[0]
		require.NoError(t, b.Play(game.Move{Coord: reply.Coord, Color: game.White}))
		e.NotifyPlay(b, game.Move{Coord: reply.Coord, Color: game.White})

		require.False(t, e.Pondering(), "The next notification stops pondering")
	})

	t.Run("done tears everything down", func(t *testing.T) {
		e := testEngine(t, func(c *Config) { c.Pondering = true })
		b := game.NewBoard(9)
		e.Genmove(b, gamesInfo(300), game.Black, false)

		e.Done()

		require.False(t, e.Pondering())
		require.Nil(t, e.Tree())
	})
}
