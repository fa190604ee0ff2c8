package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/jbaussand/spin-market/internal/heatbath"
	"github.com/jbaussand/spin-market/internal/lattice"
)

// Result carries one sweep's magnetization sample and the market coupling
// that was in force while both sublattices updated.
type Result struct {
	Magnetization  float64
	MarketCoupling float64
}

// Sweep runs one full update and returns the magnetization sample measured
// at the start of the sweep. The market coupling and the probability table
// are computed once and held fixed for both phases.
//
// The only error path is ExcludeNeutrals with every cell neutral, which
// would divide by zero; that is a configuration error, not a simulation
// state.
func (s *Session) Sweep(p SweepParams) (Result, error) {
	total := s.lat.TotalAgents()
	globalSum := s.lat.GlobalSum()

	denom := total
	if p.ExcludeNeutrals {
		denom = total - s.lat.NeutralCount()
		if denom <= 0 {
			return Result{}, fmt.Errorf("%w: all %d cells are neutral, cannot exclude them from magnetization",
				lattice.ErrDegenerateState, total)
		}
	}

	marketCoupling := p.Alpha * math.Abs(float64(globalSum)) / float64(total)
	table := heatbath.New(p.NeighborCoupling, marketCoupling)

	// Black updates against the frozen white sublattice, then white against
	// the freshly updated black. The order is part of the model's contract.
	s.updatePhase(lattice.Black, &table)
	s.updatePhase(lattice.White, &table)

	return Result{
		Magnetization:  float64(globalSum) / float64(denom),
		MarketCoupling: marketCoupling,
	}, nil
}

// updatePhase evaluates every cell of one color. Cells within a phase are
// independent (their neighbor source and the table are frozen), so rows are
// sharded across workers with only a barrier at the end.
func (s *Session) updatePhase(c lattice.Color, table *heatbath.Table) {
	h := s.lat.Height()
	if s.workers == 1 {
		s.updateRows(c, table, 0, h, s.rng)
		return
	}

	stride := (h + s.workers - 1) / s.workers
	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		lo := i * stride
		if lo >= h {
			break
		}
		hi := lo + stride
		if hi > h {
			hi = h
		}
		wg.Add(1)
		go func(lo, hi int, rng *rand.Rand) {
			defer wg.Done()
			s.updateRows(c, table, lo, hi, rng)
		}(lo, hi, s.workerRNGs[i])
	}
	wg.Wait()
}

func (s *Session) updateRows(c lattice.Color, table *heatbath.Table, rowLo, rowHi int, rng *rand.Rand) {
	hw := s.lat.HalfWidth()
	factor := s.lat.PrivilegedFactor()

	for row := rowLo; row < rowHi; row++ {
		for col := 0; col < hw; col++ {
			if s.lat.Neutral(c, row, col) {
				continue
			}
			p := table.Prob(s.lat.Spin(c, row, col), s.lat.NeighborSum(c, row, col))
			if s.lat.Privileged(c, row, col) {
				p = min(p*factor, 1)
			}
			if rng.Float64() < p {
				s.lat.SetSpin(c, row, col, +1)
			} else {
				s.lat.SetSpin(c, row, col, -1)
			}
		}
	}
}
