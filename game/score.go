package game

// Owners assigns every on-board point to Black, White or Empty (shared/seki
// regions) under area counting. Stones own their own points; an empty region
// belongs to a color iff it touches only that color.
func (b *Board) Owners() []Color {
	owners := make([]Color, len(b.cells))
	copy(owners, b.cells)

	visited := make([]bool, len(b.cells))
	var region []Coord
	b.EachPoint(func(c Coord) {
		if b.cells[c] != Empty || visited[c] {
			return
		}
		region = region[:0]
		touchesBlack, touchesWhite := false, false
		stack := []Coord{c}
		visited[c] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			region = append(region, p)
			for _, n := range b.neighbors(p) {
				switch b.cells[n] {
				case Black:
					touchesBlack = true
				case White:
					touchesWhite = true
				case Empty:
					if !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}
		owner := Empty
		if touchesBlack && !touchesWhite {
			owner = Black
		} else if touchesWhite && !touchesBlack {
			owner = White
		}
		for _, p := range region {
			owners[p] = owner
		}
	})
	return owners
}

// OwnerOf is the single-point variant of Owners.
func (b *Board) OwnerOf(c Coord) Color {
	return b.Owners()[c]
}

// Score returns the area score from Black's perspective, komi included.
func (b *Board) Score() float64 {
	owners := b.Owners()
	diff := 0
	b.EachPoint(func(c Coord) {
		switch owners[c] {
		case Black:
			diff++
		case White:
			diff--
		}
	})
	return float64(diff) - b.Komi
}

// Chains groups the stones on the board into chains and returns one
// representative point list per chain.
func (b *Board) Chains() [][]Coord {
	visited := make([]bool, len(b.cells))
	var chains [][]Coord
	b.EachPoint(func(c Coord) {
		color := b.cells[c]
		if (color != Black && color != White) || visited[c] {
			return
		}
		var chain []Coord
		stack := []Coord{c}
		visited[c] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			chain = append(chain, p)
			for _, n := range b.neighbors(p) {
				if b.cells[n] == color && !visited[n] {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}
		chains = append(chains, chain)
	})
	return chains
}
