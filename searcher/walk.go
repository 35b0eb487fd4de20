package searcher

import (
	"baduk/game"

	"golang.org/x/exp/rand"
)

// workerCtx is the per-worker state: identity, seeded randomness, the tree
// it searches (private in root-parallel mode) and reusable scratch buffers.
type workerCtx struct {
	tid   int
	seed  uint64
	rng   *rand.Rand
	games int

	tree  *Tree
	board *game.Board
	color game.Color

	path    []*Node
	history []game.Move
}

func newWorkerCtx(tid int, seed uint64, t *Tree, b *game.Board, color game.Color) *workerCtx {
	return &workerCtx{
		tid:   tid,
		seed:  seed,
		rng:   rand.New(rand.NewSource(seed)),
		tree:  t,
		board: b,
		color: color,
	}
}

type amafKey struct {
	coord game.Coord
	color game.Color
}

// uctPlayout runs one descend-expand-simulate-backup cycle and returns the
// number of games added (always 1).
func (u *Searcher) uctPlayout(ctx *workerCtx) int {
	t := ctx.tree
	b := ctx.board.Copy()
	virtualLoss := u.cfg.ThreadModel == ModelTreeVL

	ctx.path = ctx.path[:0]
	ctx.history = ctx.history[:0]

	// Descend.
	node := t.Root
	ctx.path = append(ctx.path, node)
	passes := 0
	if b.LastMoveWasPass() {
		passes = 1
	}
	for passes < 2 {
		if !node.Expanded() {
			if node.Playouts() < int32(u.cfg.ExpandPlayouts) {
				break
			}
			if !t.Expand(node, b, u.prior) {
				break
			}
		}
		policy := u.policy
		if u.cfg.RandomPolicyChance > 0 && ctx.rng.Intn(u.cfg.RandomPolicyChance) == 0 {
			policy = u.randomPolicy
		}
		child := policy.Descend(node)
		if child == nil {
			break
		}
		if err := b.Play(game.Move{Coord: child.Coord, Color: child.Color}); err != nil {
			// The child move went stale (ko bookkeeping differs from the
			// expansion-time position); playout from the current node.
			break
		}
		if virtualLoss {
			child.addVirtualLoss()
		}
		ctx.path = append(ctx.path, child)
		ctx.history = append(ctx.history, game.Move{Coord: child.Coord, Color: child.Color})
		if child.Coord == game.Pass {
			passes++
		} else {
			passes = 0
		}
		node = child
	}

	// Simulate.
	toPlay := node.Color.Opposite()
	startMoves := b.Moves
	mercy := false
	for passes < 2 {
		if b.Moves-startMoves >= u.cfg.Gamelen {
			break
		}
		if u.cfg.Mercymin > 0 && b.CaptureDiff() >= u.cfg.Mercymin {
			mercy = true
			break
		}
		c := u.playoutPolicy.Choose(b, toPlay, ctx.rng)
		if err := b.Play(game.Move{Coord: c, Color: toPlay}); err != nil {
			c = game.Pass
			b.Play(game.Move{Coord: c, Color: toPlay})
		}
		if u.cfg.PlayoutAMAF {
			ctx.history = append(ctx.history, game.Move{Coord: c, Color: toPlay})
		}
		if c == game.Pass {
			passes++
		} else {
			passes = 0
		}
		toPlay = toPlay.Opposite()
	}

	// Score from the perspective of the side to move at the root.
	result := u.scoreResult(b, t, mercy)

	// Backup, undoing virtual loss symmetrically over the recorded path.
	firstPlayed := make(map[amafKey]int, len(ctx.history))
	for i, m := range ctx.history {
		k := amafKey{m.Coord, m.Color}
		if _, ok := firstPlayed[k]; !ok {
			firstPlayed[k] = i
		}
	}
	for depth, n := range ctx.path {
		if virtualLoss && depth > 0 {
			n.removeVirtualLoss()
		}
		n.stats.Add(resultFor(n.Color, t.RootColor, result))
		if !n.Expanded() {
			continue
		}
		for _, child := range n.Children() {
			i, ok := firstPlayed[amafKey{child.Coord, child.Color}]
			if !ok || i < depth {
				continue
			}
			child.amaf.Add(resultFor(child.Color, t.RootColor, result))
		}
	}

	// Ownership statistics from the terminal board.
	if u.ownermap != nil {
		u.ownermap.Record(b.Owners())
	}
	u.metrics.AddGame(mercy)
	return 1
}

// resultFor converts a result from the perspective of rootColor, the side to
// move at the root, into the perspective of color.
func resultFor(color, rootColor game.Color, result float64) float64 {
	if color == rootColor {
		return result
	}
	return 1 - result
}

// scoreResult maps the terminal board score into [0, 1] from the perspective
// of t.RootColor, the side to move at the root, optionally scaled by the
// winning margin.
func (u *Searcher) scoreResult(b *game.Board, t *Tree, mercy bool) float64 {
	score := b.Score() - t.ExtraKomi
	if mercy {
		// Capture difference decides a mercy-stopped game.
		d := b.Captures[game.Black] - b.Captures[game.White]
		score = float64(d)
	}
	if t.RootColor == game.White {
		score = -score
	}
	result := 0.0
	if score > 0 {
		result = 1.0
	}
	if u.cfg.ValScale <= 0 {
		return result
	}
	points := u.cfg.ValPoints
	if points <= 0 {
		points = float64(b.Size() * b.Size())
	}
	margin := score
	if margin < 0 {
		margin = -margin
	}
	if margin > points {
		margin = points
	}
	bonus := u.cfg.ValScale * margin / points
	if u.cfg.ValExtra {
		// The margin coefficient scales the result within a reserved band:
		// wins land in [1-val_scale, 1], losses in [0, val_scale].
		if result == 1 {
			result = 1 - u.cfg.ValScale + bonus
		} else {
			result = u.cfg.ValScale - bonus
		}
	} else {
		// The coefficient is simply added on top and clamped.
		if result == 1 {
			result = 1 - u.cfg.ValScale/2 + bonus
		} else {
			result = u.cfg.ValScale/2 - bonus
		}
	}
	if result < 0 {
		result = 0
	} else if result > 1 {
		result = 1
	}
	return result
}
