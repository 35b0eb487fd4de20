package game

import (
	"errors"

	"github.com/OneOfOne/xxhash"
)

var (
	ErrOccupied = errors.New("point is occupied")
	ErrKo       = errors.New("ko retake forbidden")
	ErrSuicide  = errors.New("suicide move")
	ErrOffBoard = errors.New("point is off the board")
)

// Board is a Go position on a square board. The playable area is embedded in
// a (size+2) x (size+2) array whose border cells hold Off, so neighbor
// arithmetic never needs bounds checks.
type Board struct {
	size  int
	width int
	cells []Color

	ToPlay Color
	Moves  int
	Komi   float64

	// Captures counts stones captured BY each color, indexed by Black/White.
	Captures [3]int

	ko    Coord
	last  Move
	last2 Move

	// SuperkoViolation is set when a played move recreates the position
	// before the opponent's last move. Diagnostic only, never fatal.
	SuperkoViolation bool

	hash     uint64
	prevHash uint64
	hashBuf  []byte
}

func NewBoard(size int) *Board {
	if size < 2 || size > 19 {
		panic("unsupported board size")
	}
	width := size + 2
	b := &Board{
		size:    size,
		width:   width,
		cells:   make([]Color, width*width),
		ToPlay:  Black,
		Komi:    7.5,
		ko:      NoMove,
		last:    Move{Coord: NoMove},
		last2:   Move{Coord: NoMove},
		hashBuf: make([]byte, width*width+3),
	}
	for i := range b.cells {
		x, y := Coord(i).XY(size)
		if x < 0 || x >= size || y < 0 || y >= size {
			b.cells[i] = Off
		}
	}
	b.hash = b.computeHash()
	return b
}

func (b *Board) Size() int { return b.size }

// At returns the color occupying c, or Off outside the playable area.
func (b *Board) At(c Coord) Color { return b.cells[c] }

// Hash identifies the position (cells, ko point and side to move).
func (b *Board) Hash() uint64 { return b.hash }

// LastMove returns the most recent move, with Coord == NoMove before any.
func (b *Board) LastMove() Move { return b.last }

func (b *Board) LastMoveWasPass() bool { return b.last.Coord == Pass }

func (b *Board) neighbors(c Coord) [4]Coord {
	w := Coord(b.width)
	return [4]Coord{c - 1, c + 1, c - w, c + w}
}

func (b *Board) diagNeighbors(c Coord) [4]Coord {
	w := Coord(b.width)
	return [4]Coord{c - w - 1, c - w + 1, c + w - 1, c + w + 1}
}

// Copy returns an independent copy of the position.
func (b *Board) Copy() *Board {
	nb := *b
	nb.cells = make([]Color, len(b.cells))
	copy(nb.cells, b.cells)
	nb.hashBuf = make([]byte, len(b.hashBuf))
	return &nb
}

// EachPoint calls fn for every on-board point.
func (b *Board) EachPoint(fn func(c Coord)) {
	for y := 0; y < b.size; y++ {
		row := (y + 1) * b.width
		for x := 1; x <= b.size; x++ {
			fn(Coord(row + x))
		}
	}
}

func (b *Board) computeHash() uint64 {
	for i, c := range b.cells {
		b.hashBuf[i] = byte(c)
	}
	n := len(b.cells)
	b.hashBuf[n] = byte(b.ko & 0xff)
	b.hashBuf[n+1] = byte(b.ko >> 8)
	b.hashBuf[n+2] = byte(b.ToPlay)
	return xxhash.Checksum64(b.hashBuf)
}

// groupNoLiberties reports whether the chain at c has no liberty. The scratch
// slice must be zeroed and at least len(cells) long.
func (b *Board) groupNoLiberties(c Coord, scratch []bool) bool {
	color := b.cells[c]
	stack := []Coord{c}
	scratch[c] = true
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range b.neighbors(p) {
			switch b.cells[n] {
			case Empty:
				return false
			case color:
				if !scratch[n] {
					scratch[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return true
}

// removeGroup captures the chain at c and returns the number of stones taken.
func (b *Board) removeGroup(c Coord) int {
	color := b.cells[c]
	stack := []Coord{c}
	b.cells[c] = Empty
	count := 1
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range b.neighbors(p) {
			if b.cells[n] == color {
				b.cells[n] = Empty
				count++
				stack = append(stack, n)
			}
		}
	}
	return count
}

// isEyeish reports whether every on-board neighbor of c is a color stone.
// Weaker than IsOnePointEye: the shape may still be a false eye. Ko
// detection wants exactly this.
func (b *Board) isEyeish(c Coord, color Color) bool {
	if b.cells[c] != Empty {
		return false
	}
	for _, n := range b.neighbors(c) {
		switch b.cells[n] {
		case Off, color:
		default:
			return false
		}
	}
	return true
}

// IsOnePointEye reports whether c is a true one-point eye of color: all
// neighbors are color stones and at most one diagonal (none at the edge)
// belongs to the opponent.
func (b *Board) IsOnePointEye(c Coord, color Color) bool {
	if !b.isEyeish(c, color) {
		return false
	}
	falseCount := 0
	atEdge := false
	for _, n := range b.diagNeighbors(c) {
		switch b.cells[n] {
		case Off:
			atEdge = true
		case color.Opposite():
			falseCount++
		}
	}
	if atEdge {
		falseCount++
	}
	return falseCount < 2
}

// IsLegal reports whether color may play at c. Own-eye filling is legal here;
// LegalMoves filters it out separately.
func (b *Board) IsLegal(c Coord, color Color) bool {
	if c == Pass {
		return true
	}
	if c < 0 || int(c) >= len(b.cells) || b.cells[c] != Empty {
		return false
	}
	if c == b.ko {
		return false
	}
	for _, n := range b.neighbors(c) {
		if b.cells[n] == Empty {
			return true
		}
	}
	// No direct liberty: legal iff the move captures, or connects to a chain
	// that keeps a liberty besides c.
	scratch := make([]bool, len(b.cells))
	b.cells[c] = color
	defer func() { b.cells[c] = Empty }()
	opponent := color.Opposite()
	for _, n := range b.neighbors(c) {
		if b.cells[n] != opponent {
			continue
		}
		clear(scratch)
		if b.groupNoLiberties(n, scratch) {
			return true
		}
	}
	clear(scratch)
	return !b.groupNoLiberties(c, scratch)
}

// LegalMoves enumerates moves for color: every legal point that is not one of
// color's own one-point eyes, plus Pass.
func (b *Board) LegalMoves(color Color) []Coord {
	moves := make([]Coord, 0, b.size*b.size+1)
	b.EachPoint(func(c Coord) {
		if b.cells[c] != Empty || b.IsOnePointEye(c, color) {
			return
		}
		if b.IsLegal(c, color) {
			moves = append(moves, c)
		}
	})
	moves = append(moves, Pass)
	return moves
}

// Play applies m to the board. The board accepts either color; alternation is
// enforced at the engine layer, not here.
func (b *Board) Play(m Move) error {
	if m.Coord == Pass {
		b.pushLast(m)
		b.ko = NoMove
		b.ToPlay = m.Color.Opposite()
		b.Moves++
		b.prevHash = b.hash
		b.hash = b.computeHash()
		return nil
	}
	if m.Coord < 0 || int(m.Coord) >= len(b.cells) || b.cells[m.Coord] == Off {
		return ErrOffBoard
	}
	if b.cells[m.Coord] != Empty {
		return ErrOccupied
	}
	if m.Coord == b.ko {
		return ErrKo
	}

	inEnemyEye := b.isEyeish(m.Coord, m.Color.Opposite())

	b.cells[m.Coord] = m.Color
	opponent := m.Color.Opposite()
	captured := 0
	var singleCapture Coord = NoMove
	scratch := make([]bool, len(b.cells))
	for _, n := range b.neighbors(m.Coord) {
		if b.cells[n] != opponent {
			continue
		}
		clear(scratch)
		if !b.groupNoLiberties(n, scratch) {
			continue
		}
		taken := b.removeGroup(n)
		if taken == 1 {
			singleCapture = n
		}
		captured += taken
	}
	if captured == 0 {
		clear(scratch)
		if b.groupNoLiberties(m.Coord, scratch) {
			b.cells[m.Coord] = Empty
			return ErrSuicide
		}
	}
	b.Captures[m.Color] += captured

	if inEnemyEye && captured == 1 {
		b.ko = singleCapture
	} else {
		b.ko = NoMove
	}

	b.pushLast(m)
	b.ToPlay = m.Color.Opposite()
	b.Moves++

	oldPrev := b.prevHash
	b.prevHash = b.hash
	b.hash = b.computeHash()
	if b.hash == oldPrev {
		b.SuperkoViolation = true
	}
	return nil
}

func (b *Board) pushLast(m Move) {
	b.last2 = b.last
	b.last = m
}

// RemoveStone clears a point outright. Used when scoring a position with
// dead groups lifted off the board.
func (b *Board) RemoveStone(c Coord) {
	if b.cells[c] == Black || b.cells[c] == White {
		b.cells[c] = Empty
		b.hash = b.computeHash()
	}
}

// CaptureDiff is the absolute capture difference, used by the mercy rule.
func (b *Board) CaptureDiff() int {
	d := b.Captures[Black] - b.Captures[White]
	if d < 0 {
		return -d
	}
	return d
}

// EstimatedMovesLeft guesses how many moves remain in the game, floored so
// the time allocator never divides by a tiny number.
func (b *Board) EstimatedMovesLeft() int {
	const minMovesLeft = 30
	empties := 0
	b.EachPoint(func(c Coord) {
		if b.cells[c] == Empty {
			empties++
		}
	})
	left := empties * 2 / 3
	if left < minMovesLeft {
		return minMovesLeft
	}
	return left
}
