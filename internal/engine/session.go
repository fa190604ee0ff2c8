// Package engine drives the lattice: one Sweep call computes the global
// market coupling, rebuilds the heat-bath table, and updates first the black
// sublattice against the white one, then white against the updated black.
package engine

import (
	"math/rand"

	"github.com/jbaussand/spin-market/internal/entropy"
	"github.com/jbaussand/spin-market/internal/lattice"
)

// Session owns a lattice and its random sources for the duration of a
// simulation run. Callers serialize Sweep and ApplyShock invocations; the
// session takes no locks of its own.
type Session struct {
	lat *lattice.Lattice
	rng *rand.Rand

	workers    int
	workerRNGs []*rand.Rand
}

// SweepParams are the per-sweep inputs. The couplings may change between
// sweeps; the lattice's structural configuration cannot.
type SweepParams struct {
	// NeighborCoupling scales the 4-neighbor sum in the local field
	// (the reduced coupling −2βJ of the underlying model).
	NeighborCoupling float64

	// Alpha scales the global feedback: the market coupling for a sweep is
	// Alpha × |Σ states| / total.
	Alpha float64

	// ExcludeNeutrals divides the returned magnetization by the number of
	// non-neutral cells instead of the full cell count.
	ExcludeNeutrals bool
}

// NewSession wraps a constructed lattice. The seed fixes both the session's
// own stream and the derived per-worker streams; workers ≤ 1 runs each phase
// on the calling goroutine, which is the mode the determinism guarantee
// applies to.
func NewSession(lat *lattice.Lattice, seed int64, workers int) *Session {
	if workers < 1 {
		workers = 1
	}
	s := &Session{
		lat:     lat,
		rng:     entropy.New(seed),
		workers: workers,
	}
	if workers > 1 {
		s.workerRNGs = entropy.Substreams(seed, workers)
	}
	return s
}

// Lattice exposes the session's lattice for read access between sweeps
// (rendering, recording). Callers must not read it while a sweep runs.
func (s *Session) Lattice() *lattice.Lattice { return s.lat }
