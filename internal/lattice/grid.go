package lattice

// Grid reconstructs the full physical grid by interleaving the sublattice
// columns: black spins land in the even physical columns, white in the odd.
// The returned rows are fresh slices; callers may hold them across sweeps.
func (l *Lattice) Grid() [][]int8 {
	grid := make([][]int8, l.height)
	for row := 0; row < l.height; row++ {
		r := make([]int8, l.halfWidth*2)
		for c := 0; c < l.halfWidth; c++ {
			r[2*c] = l.black[row*l.halfWidth+c]
			r[2*c+1] = l.white[row*l.halfWidth+c]
		}
		grid[row] = r
	}
	return grid
}
