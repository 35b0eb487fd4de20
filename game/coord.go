package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Coord is an index into the padded board array, or one of the sentinels.
type Coord int16

const (
	Pass   Coord = -1
	Resign Coord = -2
	NoMove Coord = -3
)

// Column letters skip I, per Go convention.
const colLetters = "ABCDEFGHJKLMNOPQRST"

// CoordXY builds a coordinate from 0-based board coordinates.
func CoordXY(x, y, size int) Coord {
	width := size + 2
	return Coord((y+1)*width + x + 1)
}

// XY is the inverse of CoordXY.
func (c Coord) XY(size int) (x, y int) {
	width := size + 2
	return int(c)%width - 1, int(c)/width - 1
}

// FormatCoord renders a coordinate in "D4" notation.
func FormatCoord(c Coord, size int) string {
	switch c {
	case Pass:
		return "pass"
	case Resign:
		return "resign"
	case NoMove:
		return "none"
	}
	x, y := c.XY(size)
	return fmt.Sprintf("%c%d", colLetters[x], y+1)
}

// ParseCoord parses "D4" notation, "pass" or "resign".
func ParseCoord(s string, size int) (Coord, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "pass":
		return Pass, nil
	case "resign":
		return Resign, nil
	}
	if len(s) < 2 {
		return NoMove, fmt.Errorf("malformed coordinate %q", s)
	}
	x := strings.IndexByte(colLetters, s[0]&^0x20)
	if x < 0 || x >= size {
		return NoMove, fmt.Errorf("column out of range in %q", s)
	}
	y, err := strconv.Atoi(s[1:])
	if err != nil || y < 1 || y > size {
		return NoMove, fmt.Errorf("row out of range in %q", s)
	}
	return CoordXY(x, y-1, size), nil
}

// Move is a coordinate together with the color that plays it.
type Move struct {
	Coord Coord
	Color Color
}
