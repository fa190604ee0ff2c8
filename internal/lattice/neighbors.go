package lattice

// NeighborSum returns the 4-neighbor sum for the cell at (row, col) of
// sublattice c, read entirely from the opposite sublattice with toroidal
// wraparound: the rows above and below, the same position, and a horizontal
// neighbor whose side depends on the cell's color and row parity. Because
// the whole sum comes from the other sublattice, every cell of one color can
// be updated in parallel against a frozen source.
//
// Without neutral cells the sum is always even, in {−4,−2,0,+2,+4}; a
// 0-valued neutral neighbor can make it any integer in [−4,+4].
func (l *Lattice) NeighborSum(c Color, row, col int) int {
	src := l.white
	if c == White {
		src = l.black
	}
	h, hw := l.height, l.halfWidth

	up := row - 1
	if up < 0 {
		up = h - 1
	}
	down := row + 1
	if down == h {
		down = 0
	}

	left := col - 1
	if left < 0 {
		left = hw - 1
	}
	right := col + 1
	if right == hw {
		right = 0
	}

	// Black cells on even rows (and white cells on odd rows) sit to the
	// right of their interleaved partner, so their horizontal neighbor is
	// the column to the left; the other parity mirrors it.
	horiz := right
	if (c == Black) == (row%2 == 0) {
		horiz = left
	}

	return int(src[up*hw+col]) +
		int(src[down*hw+col]) +
		int(src[row*hw+col]) +
		int(src[row*hw+horiz])
}
