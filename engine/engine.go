// Package engine exposes the search core through the operations a game
// front-end drives: move notifications, move generation, dead-group
// analysis and position chat.
package engine

import (
	"fmt"
	"io"
	"strings"
	"time"

	"baduk/book"
	"baduk/game"
	"baduk/searcher"

	"github.com/rs/zerolog/log"
)

// Engine owns the search tree between moves and runs searches on demand.
// It is not safe for concurrent calls; the front-end serializes.
type Engine struct {
	cfg Config
	u   *searcher.Searcher

	tree *searcher.Tree

	ponder      *searcher.SearchHandle
	ponderBoard *game.Board
}

func New(cfg Config) (*Engine, error) {
	u, err := searcher.New(cfg.Config)
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, u: u}, nil
}

func (e *Engine) Searcher() *searcher.Searcher { return e.u }

// Tree exposes the current search tree; nil between games.
func (e *Engine) Tree() *searcher.Tree { return e.tree }

func (e *Engine) setupState(b *game.Board, color game.Color) {
	var budget int64
	if e.cfg.FastAlloc {
		budget = e.cfg.MaxTreeSize
	}
	e.tree = searcher.NewTree(b, color, budget)
	e.tree.SetMaxSize(e.cfg.MaxTreeSize)
	e.u.ReseedRandom()
	if !e.cfg.NoBook && b.Moves == 0 && color == game.Black {
		path := e.cfg.BookPath
		if path == "" {
			path = book.DefaultPath(b.Size())
		}
		if err := book.Load(e.tree, b, path); err != nil {
			log.Debug().Err(err).Msg("no opening book loaded")
		}
	}
}

func (e *Engine) resetState() {
	e.tree = nil
}

// prepareMove makes sure a sane tree for color-to-move exists and readies
// the ownership map. Non-alternating play is a front-end protocol breach
// and fatal.
func (e *Engine) prepareMove(b *game.Board, color game.Color) {
	if e.tree != nil {
		if color != e.tree.RootColor {
			panic(fmt.Sprintf("Non-alternating play detected: %v to move, tree expects %v",
				color, e.tree.RootColor))
		}
	} else {
		e.setupState(b, color)
	}

	if e.cfg.Dynkomi > b.Moves && e.dynkomiApplies(color) {
		e.tree.ExtraKomi = e.extraKomi(b)
	}

	e.u.PrepareOwnerMap(b)
}

func (e *Engine) dynkomiApplies(color game.Color) bool {
	switch color {
	case game.Black:
		return e.cfg.DynkomiMask&searcher.MaskBlack != 0
	case game.White:
		return e.cfg.DynkomiMask&searcher.MaskWhite != 0
	}
	return false
}

// extraKomi ramps the self-imposed komi down linearly until move Dynkomi.
func (e *Engine) extraKomi(b *game.Board) float64 {
	return e.cfg.DynkomiBase * float64(e.cfg.Dynkomi-b.Moves) / float64(e.cfg.Dynkomi)
}

// NotifyPlay records a move played by either side: pondering stops and the
// matching subtree is promoted to the root. b already has m applied.
func (e *Engine) NotifyPlay(b *game.Board, m game.Move) {
	e.PonderingStop()

	if m.Coord == game.Resign {
		e.resetState()
		return
	}

	if e.tree == nil {
		// Probably the game beginning: start a fresh tree at the position
		// after the move.
		e.setupState(b, m.Color.Opposite())
		return
	}

	// Genmove already promoted its own chosen move; the front-end echoing
	// it back is not a protocol irregularity.
	if e.tree.Root.Coord == m.Coord && e.tree.Root.Color == m.Color {
		return
	}

	if m.Color != e.tree.RootColor {
		panic(fmt.Sprintf("Non-alternating play detected: %v played, tree expects %v",
			m.Color, e.tree.RootColor))
	}

	if !e.tree.Root.Expanded() {
		// Nothing searched yet, so there is no subtree worth keeping;
		// restart at the new position.
		e.setupState(b, m.Color.Opposite())
		return
	}

	if !e.tree.Promote(m.Coord) {
		log.Warn().
			Str("move", game.FormatCoord(m.Coord, b.Size())).
			Msg("cannot promote move node, several play commands in row?")
		e.resetState()
	}
}

// Genmove searches the position and returns the chosen coordinate, Pass, or
// Resign.
func (e *Engine) Genmove(b *game.Board, ti *searcher.TimeInfo, color game.Color, passAllAlive bool) game.Coord {
	startTime := time.Now()

	if b.SuperkoViolation {
		log.Warn().Msg("superko violation occurred before this move; " +
			"ignoring it, but some moves valid under this ruleset may be missed")
		b.SuperkoViolation = false
	}

	e.PonderingStop()
	e.prepareMove(b, color)

	playedGames := e.u.Search(b, ti, color, e.tree)

	best := e.u.Policy().Choose(e.tree.Root)
	if best == nil {
		e.resetState()
		return game.Pass
	}
	log.Info().
		Str("move", game.FormatCoord(best.Coord, b.Size())).
		Float64("value", best.Value()).
		Int32("playouts", best.Playouts()).
		Int32("root_playouts", e.tree.Root.Playouts()).
		Int("games", playedGames).
		Msg("winner chosen")

	// Do not resign on a thin sample; with almost no playouts the best move
	// is nearly random but still better than resigning.
	if best.Value() < e.cfg.ResignRatio && best.Coord != game.Pass &&
		best.Playouts() > searcher.OwnerMinGames {
		e.resetState()
		return game.Resign
	}

	chosen := best.Coord

	// If the opponent just passed and we win the counting, pass as well.
	if b.Moves > 1 && b.LastMoveWasPass() {
		for e.u.OwnerMap().Playouts() < searcher.OwnerMinGames {
			e.u.RunPlayout(b, color, e.tree)
		}
		if e.u.OwnerMap().PassIsSafe(b, color, e.cfg.PassAllAlive || passAllAlive) {
			log.Info().Msg("will rather pass, looks safe enough")
			chosen = game.Pass
		}
	}

	if !e.tree.Promote(chosen) {
		log.Warn().
			Str("move", game.FormatCoord(chosen, b.Size())).
			Msg("cannot promote chosen move, dropping tree")
		e.resetState()
	}

	// After a pass, pondering would keep running past the game end and skew
	// the ownership map once the search starts cutting playouts off.
	if e.cfg.Pondering && chosen != game.Pass && e.tree != nil {
		e.ponderingStart(b, chosen, color)
	}

	elapsed := time.Since(startTime).Seconds() + 1e-9
	log.Debug().
		Float64("seconds", elapsed).
		Float64("games_per_sec", float64(playedGames)/elapsed).
		Msg("genmove finished")
	return chosen
}

// ponderingStart begins a background search on the position after our move,
// with the opponent to play. It is a genmove search in every way except the
// stop trigger, which is the next notification instead of a time budget.
func (e *Engine) ponderingStart(b *game.Board, chosen game.Coord, color game.Color) {
	log.Debug().Str("color", color.Opposite().String()).Msg("starting to ponder")
	nb := b.Copy()
	if err := nb.Play(game.Move{Coord: chosen, Color: color}); err != nil {
		log.Warn().Err(err).Msg("cannot set up ponder board")
		return
	}
	e.ponderBoard = nb
	e.ponder = e.u.SearchStart(nb, color.Opposite(), e.tree, 0)
}

// PonderingStop halts a background search, if one runs.
func (e *Engine) PonderingStop() {
	if e.ponder == nil {
		return
	}
	games := e.ponder.Stop()
	log.Debug().Int("games", games).Msg("pondering stopped")
	e.ponder = nil
	e.ponderBoard = nil
}

// Pondering reports whether a background search is running.
func (e *Engine) Pondering() bool { return e.ponder != nil }

// Chat answers position queries; only "winrate" is understood.
func (e *Engine) Chat(b *game.Board, cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if !strings.HasPrefix(strings.ToLower(cmd), "winrate") {
		return ""
	}
	if e.tree == nil {
		return "no game context (yet?)"
	}
	root := e.tree.Root
	color := e.tree.RootColor
	// The root's stats are from its own mover's perspective, the opponent
	// of the side to move.
	winrate := (1 - root.Value()) * 100
	reply := fmt.Sprintf("In %d playouts at %d threads, %s can win with %.2f%% probability",
		root.Playouts(), e.cfg.Threads, color, winrate)
	if e.tree.ExtraKomi >= 0.5 || e.tree.ExtraKomi <= -0.5 {
		reply += fmt.Sprintf(", while self-imposing extra komi %.1f", e.tree.ExtraKomi)
	}
	return reply + "."
}

// DeadGroupList judges the chains of b from ownership statistics. Without a
// live tree it mocks one up, seeds the ownership map with the minimum game
// count, and discards it again so a following genmove sees clean state.
func (e *Engine) DeadGroupList(b *game.Board) [][]game.Coord {
	// The game is probably over, no use pondering on.
	e.PonderingStop()

	if e.cfg.PassAllAlive {
		return nil // no dead groups
	}

	mockState := false
	if e.tree == nil {
		e.prepareMove(b, game.Black)
		for i := int32(0); i < searcher.OwnerMinGames; i++ {
			e.u.RunPlayout(b, game.Black, e.tree)
		}
		mockState = true
	}

	dead := e.u.OwnerMap().DeadGroups(b, searcher.OwnerThres)

	if mockState {
		e.resetState()
	}
	return dead
}

// Printhook writes the ownership judgement of one point: ':' dame, 'X'
// black, 'O' white, ',' unclear; an unclear point is retried at a lower
// confidence threshold in lowercase.
func (e *Engine) Printhook(b *game.Board, c game.Coord, w io.Writer) {
	const chr = ":XO,"
	const chm = ":xo,"
	m := e.u.OwnerMap()
	if m == nil {
		fmt.Fprint(w, ", ")
		return
	}
	ch := chr[m.Judge(c, searcher.OwnerThres)]
	if ch == ',' { // less precise estimate then?
		ch = chm[m.Judge(c, 0.67)]
	}
	fmt.Fprintf(w, "%c ", ch)
}

// Done tears the engine down: pondering stops and all state is dropped.
func (e *Engine) Done() {
	e.PonderingStop()
	e.resetState()
}

// Genbook extends the opening book by searching the position and saving
// every node with enough playouts.
func (e *Engine) Genbook(b *game.Board, ti *searcher.TimeInfo, color game.Color) error {
	if e.tree == nil {
		e.prepareMove(b, color)
	}
	if ti.Dim == searcher.DimGames {
		// Don't count games that already went into the book.
		ti.Games += int(e.tree.Root.Playouts())
	}
	e.u.Search(b, ti, color, e.tree)

	path := e.cfg.BookPath
	if path == "" {
		path = book.DefaultPath(b.Size())
	}
	return book.Save(e.tree, b, ti.Games/100, path)
}

// Dumpbook logs the opening book for b's board size.
func (e *Engine) Dumpbook(b *game.Board, color game.Color) error {
	t := searcher.NewTree(b, color, 0)
	path := e.cfg.BookPath
	if path == "" {
		path = book.DefaultPath(b.Size())
	}
	if err := book.Load(t, b, path); err != nil {
		return err
	}
	var dump func(n *searcher.Node, depth int)
	dump = func(n *searcher.Node, depth int) {
		log.Info().
			Int("depth", depth).
			Str("move", game.FormatCoord(n.Coord, b.Size())).
			Int32("playouts", n.Playouts()).
			Float64("value", n.Value()).
			Msg("book node")
		for _, c := range n.Children() {
			dump(c, depth+1)
		}
	}
	dump(t.Root, 0)
	return nil
}
