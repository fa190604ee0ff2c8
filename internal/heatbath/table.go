// Package heatbath precomputes the flip-probability table for one sweep.
// The table is a pure function of the two scalar couplings and must be
// rebuilt every sweep, because the market coupling depends on that sweep's
// global magnetization.
package heatbath

import "math"

// Table maps (current state, neighbor sum) to the probability that the cell
// ends the sweep at +1:
//
//	p = 1 / (1 + exp(J·sum − M·state))
//
// States run over {−1, 0, +1} and sums over {−4..+4}. A lattice without
// neutral cells only ever indexes states ±1 and even sums, which makes this
// one table serve every model variant.
type Table struct {
	p [3][9]float64
}

// New builds the table from the neighbor coupling J and the sweep's market
// coupling M. Every entry is in [0,1] for finite inputs.
func New(neighborCoupling, marketCoupling float64) Table {
	var t Table
	for si, state := range [3]int{-1, 0, +1} {
		for sum := -4; sum <= 4; sum++ {
			field := neighborCoupling*float64(sum) - marketCoupling*float64(state)
			t.p[si][sum+4] = 1 / (1 + math.Exp(field))
		}
	}
	return t
}

// Prob looks up the flip-to-+1 probability for a cell's current state and
// its neighbor sum.
func (t *Table) Prob(state int8, sum int) float64 {
	return t.p[state+1][sum+4]
}
