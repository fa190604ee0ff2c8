package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/jbaussand/spin-market/internal/entropy"
	"github.com/jbaussand/spin-market/internal/lattice"
)

func mustLattice(t *testing.T, cfg lattice.Config, seed int64) *lattice.Lattice {
	t.Helper()
	lat, err := lattice.New(cfg, entropy.New(seed))
	if err != nil {
		t.Fatal(err)
	}
	return lat
}

func TestSweepStatesRemainValid(t *testing.T) {
	cfg := lattice.Config{
		Height: 16, Width: 16, InitUp: 0.5,
		NeutralFraction: 0.2, NeutralRegion: lattice.RegionRandom,
		PrivilegedFraction: 0.2, PrivilegedFactor: 1.5,
	}
	lat := mustLattice(t, cfg, 31)
	sess := NewSession(lat, 32, 1)
	params := SweepParams{NeighborCoupling: -1, Alpha: 4}

	for i := 0; i < 50; i++ {
		res, err := sess.Sweep(params)
		if err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
		if res.Magnetization < -1 || res.Magnetization > 1 {
			t.Fatalf("sweep %d: magnetization %g outside [-1,1]", i, res.Magnetization)
		}
	}

	for row := 0; row < lat.Height(); row++ {
		for col := 0; col < lat.HalfWidth(); col++ {
			for _, c := range [2]lattice.Color{lattice.Black, lattice.White} {
				s := lat.Spin(c, row, col)
				if lat.Neutral(c, row, col) {
					if s != 0 {
						t.Fatalf("neutral cell (%d,%d,%d) has state %d", c, row, col, s)
					}
					continue
				}
				if s != -1 && s != +1 {
					t.Fatalf("cell (%d,%d,%d) has state %d, want ±1", c, row, col, s)
				}
			}
		}
	}
}

func TestSweepDeterminism(t *testing.T) {
	cfg := lattice.Config{
		Height: 12, Width: 12, InitUp: 0.4,
		NeutralFraction: 0.1, NeutralRegion: lattice.RegionBottomLeft,
		PrivilegedFraction: 0.1, PrivilegedFactor: 2,
	}
	run := func() [][]int8 {
		lat := mustLattice(t, cfg, 77)
		sess := NewSession(lat, 78, 1)
		for i := 0; i < 25; i++ {
			if _, err := sess.Sweep(SweepParams{NeighborCoupling: -0.8, Alpha: 6}); err != nil {
				t.Fatal(err)
			}
		}
		return lat.Grid()
	}

	a, b := run(), run()
	for row := range a {
		for col := range a[row] {
			if a[row][col] != b[row][col] {
				t.Fatalf("equal-seed runs diverged at (%d,%d): %d vs %d", row, col, a[row][col], b[row][col])
			}
		}
	}
}

// Spec scenario: a 2x2 grid with zero couplings makes every flip a fair
// coin, so consecutive magnetization samples are iid with mean 0.
func TestZeroCouplingMeanMagnetization(t *testing.T) {
	lat := mustLattice(t, lattice.Config{Height: 2, Width: 2, InitUp: 0}, 41)
	sess := NewSession(lat, 42, 1)

	const trials = 20000
	sum := 0.0
	// The first sample reflects the all-up initial state; skip it.
	if _, err := sess.Sweep(SweepParams{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < trials; i++ {
		res, err := sess.Sweep(SweepParams{})
		if err != nil {
			t.Fatal(err)
		}
		sum += res.Magnetization
	}

	mean := sum / trials
	// Per-sample sd is 0.5 (four fair ±1 spins), so the sd of the mean is
	// ~0.0035; a 0.05 tolerance is over ten sigma.
	if math.Abs(mean) > 0.05 {
		t.Fatalf("mean magnetization %g over %d trials, want ~0", mean, trials)
	}
}

func TestMarketCouplingComputation(t *testing.T) {
	// All-up 4x4 lattice: |global sum| / total = 1, so the sweep's market
	// coupling equals alpha exactly.
	lat := mustLattice(t, lattice.Config{Height: 4, Width: 4, InitUp: 0}, 1)
	sess := NewSession(lat, 2, 1)

	res, err := sess.Sweep(SweepParams{NeighborCoupling: 0, Alpha: 3.5})
	if err != nil {
		t.Fatal(err)
	}
	if res.MarketCoupling != 3.5 {
		t.Fatalf("market coupling = %g, want 3.5", res.MarketCoupling)
	}
	if res.Magnetization != 1 {
		t.Fatalf("pre-sweep magnetization = %g, want 1", res.Magnetization)
	}
}

func TestExcludeNeutralsScalesDenominator(t *testing.T) {
	cfg := lattice.Config{
		Height: 4, Width: 4, InitUp: 0,
		NeutralFraction: 0.25, NeutralRegion: lattice.RegionRandom,
	}
	lat := mustLattice(t, cfg, 13)
	if lat.NeutralCount() != 4 {
		t.Fatalf("NeutralCount = %d, want 4", lat.NeutralCount())
	}
	sess := NewSession(lat, 14, 1)

	// 12 non-neutral cells all +1: global sum 12, excluded denominator 12.
	res, err := sess.Sweep(SweepParams{ExcludeNeutrals: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Magnetization != 1 {
		t.Fatalf("excluded magnetization = %g, want 1", res.Magnetization)
	}
}

func TestExcludeNeutralsDegenerate(t *testing.T) {
	cfg := lattice.Config{
		Height: 4, Width: 4, InitUp: 0.5,
		NeutralFraction: 1, NeutralRegion: lattice.RegionRandom,
	}
	lat := mustLattice(t, cfg, 19)
	sess := NewSession(lat, 20, 1)

	_, err := sess.Sweep(SweepParams{ExcludeNeutrals: true})
	if !errors.Is(err, lattice.ErrDegenerateState) {
		t.Fatalf("all-neutral exclude: got %v, want ErrDegenerateState", err)
	}
}

func TestPrivilegedMultiplierClips(t *testing.T) {
	// Every cell privileged with an enormous factor: the applied probability
	// clips at 1, so one sweep drives the whole lattice to +1.
	cfg := lattice.Config{
		Height: 8, Width: 8, InitUp: 1,
		PrivilegedFraction: 1, PrivilegedFactor: 1e9,
	}
	lat := mustLattice(t, cfg, 51)
	sess := NewSession(lat, 52, 1)

	if _, err := sess.Sweep(SweepParams{NeighborCoupling: 5, Alpha: 0}); err != nil {
		t.Fatal(err)
	}
	for _, row := range lat.Grid() {
		for _, s := range row {
			if s != +1 {
				t.Fatalf("clipped probability should force +1, found %d", s)
			}
		}
	}
}

func TestParallelSweepValid(t *testing.T) {
	cfg := lattice.Config{
		Height: 33, Width: 32, InitUp: 0.5,
		NeutralFraction: 0.1, NeutralRegion: lattice.RegionRandom,
	}
	lat := mustLattice(t, cfg, 61)
	sess := NewSession(lat, 62, 4)

	for i := 0; i < 20; i++ {
		res, err := sess.Sweep(SweepParams{NeighborCoupling: -1, Alpha: 8})
		if err != nil {
			t.Fatal(err)
		}
		if res.Magnetization < -1 || res.Magnetization > 1 {
			t.Fatalf("magnetization %g outside [-1,1]", res.Magnetization)
		}
	}
	for _, row := range lat.Grid() {
		for _, s := range row {
			if s < -1 || s > 1 {
				t.Fatalf("invalid state %d after parallel sweeps", s)
			}
		}
	}
}
