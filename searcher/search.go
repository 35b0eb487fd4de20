// Package searcher implements a parallel Monte-Carlo tree search over Go
// positions: the tree and its atomic statistics, the UCB selection policies,
// the worker pool, and the polling controller with its stopping rules.
package searcher

import (
	"time"

	"baduk/game"
	"baduk/playout"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// How often the controller inspects the tree for stop checks and progress.
const busywaitInterval = 100 * time.Millisecond

// Once per how many simulations (per thread) to log a progress line.
const simProgressInterval = 10000

// Early-win break thresholds: stop reading once the best move is this sure.
const (
	earlyWinPlayouts     = 2000
	fastEarlyWinPlayouts = 500
	fastEarlyWinValue    = 0.95
)

// Searcher drives the Monte-Carlo tree search. It owns the selection and
// playout policies, the prior module and the ownership map; the tree itself
// is owned by the engine and passed into every call.
type Searcher struct {
	cfg Config

	policy        Policy
	randomPolicy  Policy
	playoutPolicy playout.Policy
	prior         Prior

	ownermap *OwnerMap
	metrics  Collector

	seedRng *rand.Rand
	mainCtx *workerCtx
}

// New builds a searcher from a fully populated configuration record.
func New(cfg Config) (*Searcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u := &Searcher{cfg: cfg, metrics: NewCollector()}

	var err error
	u.policy, err = newPolicy(cfg.Policy, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RandomPolicy != "" {
		u.randomPolicy, err = newPolicy(cfg.RandomPolicy, cfg)
		if err != nil {
			return nil, err
		}
	}

	pp, ok := playout.New(cfg.PlayoutPolicy)
	if !ok {
		panic("playout policy name not validated: " + cfg.PlayoutPolicy)
	}
	u.playoutPolicy = pp

	if cfg.RootHeuristic > 0 {
		if assessor, ok := pp.(playout.Assessor); ok {
			u.prior = NewPolicyPrior(assessor, int32(cfg.PriorEquiv), cfg.RootHeuristic)
		}
	}
	if u.prior == nil {
		u.prior = EvenPrior{Equiv: int32(cfg.PriorEquiv)}
	}

	seed := cfg.ForceSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	u.seedRng = rand.New(rand.NewSource(seed))
	log.Debug().Uint64("seed", seed).Msg("searcher random seed")
	return u, nil
}

func (u *Searcher) Config() Config { return u.cfg }

func (u *Searcher) Policy() Policy { return u.policy }

func (u *Searcher) Metrics() Collector { return u.metrics }

// ReseedRandom restarts the deterministic seed chain; done whenever a fresh
// tree is set up so forced-seed games replay identically.
func (u *Searcher) ReseedRandom() {
	if u.cfg.ForceSeed != 0 {
		u.seedRng = rand.New(rand.NewSource(u.cfg.ForceSeed))
	}
}

func (u *Searcher) nextSeed() uint64 {
	return u.seedRng.Uint64()
}

// OwnerMap returns the current ownership map, never nil after PrepareOwnerMap.
func (u *Searcher) OwnerMap() *OwnerMap { return u.ownermap }

// PrepareOwnerMap resets ownership statistics for a new search on b.
func (u *Searcher) PrepareOwnerMap(b *game.Board) {
	if u.ownermap == nil || u.ownermap.Size() != b.Size() {
		u.ownermap = NewOwnerMap(b.Size())
		return
	}
	u.ownermap.Reset()
}

// RunPlayout performs a single synchronous playout on the caller's
// goroutine, outside any worker pool. Used to top up ownership statistics.
func (u *Searcher) RunPlayout(b *game.Board, color game.Color, t *Tree) {
	if u.mainCtx == nil || u.mainCtx.tree != t || u.mainCtx.board != b {
		u.mainCtx = newWorkerCtx(-1, u.nextSeed(), t, b, color)
	}
	u.uctPlayout(u.mainCtx)
}

// Search runs the full foreground search on t: start the pool, poll the
// tree under the stopping rules, stop the pool. Returns total games played.
func (u *Searcher) Search(b *game.Board, ti *TimeInfo, color game.Color, t *Tree) int {
	stop := u.timePrep(ti, b.Moves, b.Size(), b.EstimatedMovesLeft())
	if pre := t.Root.Playouts(); pre > 0 {
		log.Debug().Int32("games", pre).Msg("pre-simulated games skipped")
	}

	lastPrint := int(t.Root.Playouts())
	printInterval := simProgressInterval
	if u.cfg.ThreadModel != ModelRoot {
		printInterval *= u.cfg.Threads
	}
	printedFullmem := false

	gamesTarget := 0
	if !stop.byTime {
		gamesTarget = stop.worstPlayouts
	}
	h := u.SearchStart(b, color, t, gamesTarget)

	// In root-parallel mode the handle's tree pointer tracks one worker's
	// private copy; always poll through the handle.
	winnerPolicy, hasWinner := u.policy.(WinnerPolicy)
	var best, winner *Node

	for {
		time.Sleep(busywaitInterval)
		lt := h.Tree()
		i := int(lt.Root.Playouts())

		if i-lastPrint > printInterval {
			lastPrint += printInterval // keep the numbers tidy
			u.progressStatus(lt, color, lastPrint)
		}
		if !printedFullmem && lt.NodesSize() > u.cfg.MaxTreeSize {
			log.Debug().
				Int64("size", lt.NodesSize()).
				Int64("limit", u.cfg.MaxTreeSize).
				Msg("memory limit hit")
			printedFullmem = true
		}

		desiredDone := false
		if stop.byTime {
			now := time.Now()
			if now.After(stop.worstStop) {
				break
			}
			desiredDone = now.After(stop.desiredStop)
		} else {
			if i >= stop.worstPlayouts {
				break
			}
			desiredDone = i >= stop.desiredPlayouts
		}

		// Early break in won situation.
		best = u.policy.Choose(lt.Root)
		if best != nil {
			bp, bv := best.Playouts(), best.Value()
			if (bp >= earlyWinPlayouts && bv >= u.cfg.LossThreshold) ||
				(bp >= fastEarlyWinPlayouts && bv >= fastEarlyWinValue) {
				break
			}
		}

		if desiredDone {
			if !hasWinner {
				break
			}
			// Stop only when the best explored is also the highest valued.
			winner = winnerPolicy.Winner(lt, lt.Root)
			if best != nil && best == winner {
				break
			}
		}
	}

	games := h.Stop()
	u.dumpTree(t)
	u.progressStatus(t, color, games)
	return games
}

// dumpTree logs the well-explored root children for post-mortems.
func (u *Searcher) dumpTree(t *Tree) {
	for _, child := range t.Root.Children() {
		if int(child.Playouts()) < u.cfg.DumpThres {
			continue
		}
		log.Debug().
			Str("move", game.FormatCoord(child.Coord, t.BoardSize())).
			Int32("playouts", child.Playouts()).
			Float64("value", child.Value()).
			Msg("tree node")
	}
}

// progressStatus logs one status line: root playouts, the current best move
// and its win rate, and the most explored root children.
func (u *Searcher) progressStatus(t *Tree, color game.Color, games int) {
	best := u.policy.Choose(t.Root)
	if best == nil {
		log.Info().Int("games", games).Msg("no moves explored yet")
		return
	}
	e := log.Info().
		Int("games", games).
		Int32("playouts", t.Root.Playouts()).
		Str("color", color.String()).
		Str("best", game.FormatCoord(best.Coord, t.BoardSize())).
		Float64("winrate", best.Value())
	if t.ExtraKomi != 0 {
		e = e.Float64("extra_komi", t.ExtraKomi)
	}
	e.Msg("search progress")
}
