package searcher

import (
	"sync"
	"sync/atomic"

	"baduk/game"

	"github.com/rs/zerolog/log"
)

// Goroutine structure of a running search:
//
//	caller            Start(), controller polling, Stop()
//	manager           spawns workers, collects completions, merges ROOT trees
//	worker 0..N-1     uctPlayout loop until the halt flag is raised
//
// Workers report completion on a channel to the manager; the manager reports
// the game total back through the handle. Workers are not cancellable
// mid-playout, so halt latency is bounded by one playout.

// SearchHandle tracks one running search. Tree() follows the live search
// tree, which differs from the original only in root-parallel mode where it
// points into one worker's private copy until the merge.
type SearchHandle struct {
	halt atomic.Bool
	tree atomic.Pointer[Tree]

	stopCh   chan struct{}
	doneCh   chan int
	stopOnce sync.Once
	games    int
	target   int
}

// Tree is the tree the controller should poll.
func (h *SearchHandle) Tree() *Tree { return h.tree.Load() }

// Halted reports whether stop has been requested.
func (h *SearchHandle) Halted() bool { return h.halt.Load() }

// Stop signals the workers, waits for every one of them to finish, and
// returns the total number of games played. Idempotent.
func (h *SearchHandle) Stop() int {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		h.games = <-h.doneCh
	})
	return h.games
}

// SearchStart launches the worker pool on tree t for the position b with
// color to move and returns immediately. The caller owns stopping.
// gamesTarget > 0 makes workers wind down once the root reaches that many
// playouts (per private tree in root-parallel mode); 0 means unlimited.
func (u *Searcher) SearchStart(b *game.Board, color game.Color, t *Tree, gamesTarget int) *SearchHandle {
	if u.cfg.Threads <= 0 {
		panic("search started with no worker threads")
	}
	h := &SearchHandle{
		stopCh: make(chan struct{}),
		doneCh: make(chan int, 1),
		target: gamesTarget,
	}
	h.tree.Store(t)
	seedBase := u.nextSeed()
	u.metrics.Start(u.cfg.Threads)
	go u.manageWorkers(h, b, color, t, seedBase)
	return h
}

func (u *Searcher) manageWorkers(h *SearchHandle, b *game.Board, color game.Color, t *Tree, seedBase uint64) {
	rootParallel := u.cfg.ThreadModel == ModelRoot
	finished := make(chan *workerCtx, u.cfg.Threads)

	for tid := 0; tid < u.cfg.Threads; tid++ {
		wt := t
		if rootParallel {
			wt = t.Copy()
			// The controller needs a live tree to poll; point it at the
			// latest private copy until the merge brings everything home.
			h.tree.Store(wt)
		}
		ctx := newWorkerCtx(tid, seedBase+uint64(tid), wt, b, color)
		go func() {
			for !h.halt.Load() {
				if h.target > 0 && int(ctx.tree.Root.Playouts()) >= h.target {
					break
				}
				ctx.games += u.uctPlayout(ctx)
			}
			finished <- ctx
		}()
		log.Debug().Int("worker", tid).Msg("spawned worker")
	}

	total := 0
	joined := 0
	stopCh := h.stopCh
	for joined < u.cfg.Threads {
		select {
		case <-stopCh:
			h.halt.Store(true)
			stopCh = nil
		case ctx := <-finished:
			total += ctx.games
			joined++
			if rootParallel {
				Merge(t, ctx.tree)
			}
			log.Debug().Int("worker", ctx.tid).Int("games", ctx.games).Msg("joined worker")
		}
	}

	if rootParallel {
		t.Normalize(u.cfg.Threads)
		h.tree.Store(t)
	}
	h.doneCh <- total
}
