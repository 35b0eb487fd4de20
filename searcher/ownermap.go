package searcher

import (
	"sync/atomic"

	"baduk/game"
)

// Judging thresholds: a point is sure once one color owns this share of its
// playout endings, and no judgement is made before this many games.
const (
	OwnerThres    = 0.8
	OwnerMinGames = 500
)

// PointJudgement classifies a board point from ownership statistics.
type PointJudgement int

const (
	PointDame PointJudgement = iota
	PointBlack
	PointWhite
	PointUnclear
)

// OwnerMap aggregates, per board point, how often each color owned the point
// at the end of a playout. Workers add with relaxed atomics; the controller
// reads between searches. Its lifetime is the engine's, not the tree's.
type OwnerMap struct {
	size     int
	playouts atomic.Int32
	// counts[c*3+0] empty/shared, +1 black, +2 white endings for point c.
	counts []atomic.Int32
}

func NewOwnerMap(boardSize int) *OwnerMap {
	width := boardSize + 2
	return &OwnerMap{
		size:   boardSize,
		counts: make([]atomic.Int32, width*width*3),
	}
}

func (m *OwnerMap) Size() int { return m.size }

func (m *OwnerMap) Playouts() int32 { return m.playouts.Load() }

// Reset clears all counters; done before every fresh search.
func (m *OwnerMap) Reset() {
	m.playouts.Store(0)
	for i := range m.counts {
		m.counts[i].Store(0)
	}
}

// Record folds in the terminal owners array of one playout.
func (m *OwnerMap) Record(owners []game.Color) {
	for c, owner := range owners {
		switch owner {
		case game.Black:
			m.counts[c*3+1].Add(1)
		case game.White:
			m.counts[c*3+2].Add(1)
		case game.Empty:
			m.counts[c*3].Add(1)
		}
	}
	m.playouts.Add(1)
}

// Judge classifies point c: a color owning more than thres of the endings
// wins the point, a shared share above thres is dame, anything else is
// unclear.
func (m *OwnerMap) Judge(c game.Coord, thres float64) PointJudgement {
	total := float64(m.playouts.Load())
	if total == 0 {
		return PointUnclear
	}
	if float64(m.counts[int(c)*3].Load())/total > thres {
		return PointDame
	}
	if float64(m.counts[int(c)*3+1].Load())/total > thres {
		return PointBlack
	}
	if float64(m.counts[int(c)*3+2].Load())/total > thres {
		return PointWhite
	}
	return PointUnclear
}

// GroupStatus classifies a whole chain by its points' judgements.
type GroupStatus int

const (
	GroupAlive GroupStatus = iota
	GroupDead
	GroupUnknown
)

// JudgeGroup takes the chain's color and points and classifies it by
// majority point status: points judged for the chain's color vote alive,
// points judged for the opponent vote dead.
func (m *OwnerMap) JudgeGroup(color game.Color, points []game.Coord, thres float64) GroupStatus {
	alive, dead := 0, 0
	mine := PointBlack
	theirs := PointWhite
	if color == game.White {
		mine, theirs = theirs, mine
	}
	for _, c := range points {
		switch m.Judge(c, thres) {
		case mine:
			alive++
		case theirs:
			dead++
		}
	}
	if dead > len(points)/2 {
		return GroupDead
	}
	if alive > len(points)/2 {
		return GroupAlive
	}
	return GroupUnknown
}

// DeadGroups lists the chains of b judged dead. Callers must have run at
// least OwnerMinGames playouts for the answer to mean anything.
func (m *OwnerMap) DeadGroups(b *game.Board, thres float64) [][]game.Coord {
	var dead [][]game.Coord
	for _, chain := range b.Chains() {
		color := b.At(chain[0])
		if m.JudgeGroup(color, chain, thres) == GroupDead {
			dead = append(dead, chain)
		}
	}
	return dead
}

// PassIsSafe reports whether color can pass without conceding: score the
// board with the dead chains removed and check color still wins. With
// passAllAlive every stone counts as alive.
func (m *OwnerMap) PassIsSafe(b *game.Board, color game.Color, passAllAlive bool) bool {
	if m.playouts.Load() < OwnerMinGames {
		return false
	}
	scored := b.Copy()
	if !passAllAlive {
		for _, chain := range m.DeadGroups(b, OwnerThres) {
			for _, c := range chain {
				scored.RemoveStone(c)
			}
		}
	}
	score := scored.Score()
	if color == game.White {
		score = -score
	}
	return score > 0
}
