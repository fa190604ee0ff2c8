package engine

import (
	"fmt"
	"log/slog"

	"github.com/jbaussand/spin-market/internal/lattice"
)

// ApplyShock forces cells to −1 (sellers), modeling an exogenous crash. It
// may be called at any point between sweeps.
//
// For RegionRandom, fraction × cells are picked independently in each
// sublattice. For the quadrant regions the entire quadrant of both
// sublattices is forced and fraction is ignored — that asymmetry is the
// published behavior of the original model and is kept as-is.
//
// Neutral cells are never overwritten; they stay 0 for the lattice's life.
func (s *Session) ApplyShock(fraction float64, region lattice.Region) error {
	if fraction < 0 || fraction > 1 {
		return fmt.Errorf("%w: shock fraction %g outside [0,1]", lattice.ErrInvalidConfig, fraction)
	}
	if _, err := lattice.ParseRegion(string(region)); err != nil {
		return err
	}

	h, hw := s.lat.Height(), s.lat.HalfWidth()
	for _, c := range [2]lattice.Color{lattice.Black, lattice.White} {
		if rowLo, rowHi, colLo, colHi, ok := region.Bounds(h, hw); ok {
			for row := rowLo; row < rowHi; row++ {
				for col := colLo; col < colHi; col++ {
					s.forceDown(c, row, col)
				}
			}
			continue
		}

		n := h * hw
		count := int(fraction * float64(n))
		for _, i := range s.rng.Perm(n)[:count] {
			s.forceDown(c, i/hw, i%hw)
		}
	}

	slog.Info("shock applied", "fraction", fraction, "region", region)
	return nil
}

func (s *Session) forceDown(c lattice.Color, row, col int) {
	if s.lat.Neutral(c, row, col) {
		return
	}
	s.lat.SetSpin(c, row, col, -1)
}
