// Package lattice provides the two-sublattice (checkerboard) spin store for
// the market model: two H×(W/2) int8 grids plus optional neutral and
// privileged masks, with the 4-neighbor toroidal topology between them.
package lattice

import (
	"errors"
	"fmt"
	"math/rand"
)

// Error kinds surfaced by construction and operator calls. All are usage
// errors, detected eagerly and never retried.
var (
	ErrInvalidConfig   = errors.New("invalid lattice configuration")
	ErrInvalidRegion   = errors.New("invalid region")
	ErrDegenerateState = errors.New("degenerate state")
)

// Color identifies one of the two sublattices.
type Color int

const (
	// Black holds the even physical columns, White the odd ones.
	Black Color = iota
	White
)

// Pattern selects how initial spins are laid out.
type Pattern string

const (
	// PatternUniform draws every spin independently.
	PatternUniform Pattern = "uniform"
	// PatternClustered thresholds a smooth noise field so the initial
	// down-spins form spatially correlated domains.
	PatternClustered Pattern = "clustered"
)

// Config describes a lattice at construction time. All fields are fixed for
// the lattice's lifetime.
type Config struct {
	Height int
	Width  int // must be even: columns split alternately between sublattices

	// InitUp is the fraction of spins initialized to −1 (sellers). The name
	// is historical — it comes from the original model's parameter files —
	// and is kept so existing configs keep their meaning.
	InitUp float64

	// InitPattern defaults to PatternUniform when empty.
	InitPattern Pattern

	// NeutralFraction of cells are permanently inert (state 0), placed
	// either anywhere (RegionRandom) or confined to one quadrant.
	NeutralFraction float64
	NeutralRegion   Region

	// PrivilegedFraction of each sublattice's cells get their flip
	// probability multiplied by PrivilegedFactor (capped at 1.0) every
	// sweep. The privileged mask is drawn independently of the neutral one.
	PrivilegedFraction float64
	PrivilegedFactor   float64
}

// Validate checks the configuration eagerly. A nil return guarantees New
// cannot fail.
func (c Config) Validate() error {
	if c.Height <= 0 || c.Width <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidConfig, c.Height, c.Width)
	}
	if c.Width%2 != 0 {
		return fmt.Errorf("%w: width %d must be even", ErrInvalidConfig, c.Width)
	}
	if c.InitUp < 0 || c.InitUp > 1 {
		return fmt.Errorf("%w: init_up %g outside [0,1]", ErrInvalidConfig, c.InitUp)
	}
	switch c.InitPattern {
	case "", PatternUniform, PatternClustered:
	default:
		return fmt.Errorf("%w: unknown init pattern %q", ErrInvalidConfig, c.InitPattern)
	}
	if c.NeutralFraction < 0 || c.NeutralFraction > 1 {
		return fmt.Errorf("%w: neutral fraction %g outside [0,1]", ErrInvalidConfig, c.NeutralFraction)
	}
	if c.NeutralFraction > 0 && c.NeutralRegion != "" {
		if _, err := ParseRegion(string(c.NeutralRegion)); err != nil {
			return err
		}
	}
	if c.PrivilegedFraction < 0 || c.PrivilegedFraction > 1 {
		return fmt.Errorf("%w: privileged fraction %g outside [0,1]", ErrInvalidConfig, c.PrivilegedFraction)
	}
	if c.PrivilegedFraction > 0 && c.PrivilegedFactor < 1 {
		return fmt.Errorf("%w: privileged factor %g must be >= 1", ErrInvalidConfig, c.PrivilegedFactor)
	}
	return nil
}

// Lattice is the sublattice store. Spins are mutated every sweep by the
// engine; the neutral and privileged masks never change after construction.
type Lattice struct {
	height    int
	halfWidth int

	// Flat row-major sublattice arrays, each height*halfWidth long.
	black, white []int8

	// Masks are nil when the corresponding feature is disabled.
	blackNeutral, whiteNeutral []bool
	blackPriv, whitePriv       []bool

	privilegedFactor float64
	neutralCount     int
}

// New builds a lattice from cfg, drawing all randomized placement from rng.
// The same rng state always yields the same lattice.
func New(cfg Config, rng *rand.Rand) (*Lattice, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Lattice{
		height:           cfg.Height,
		halfWidth:        cfg.Width / 2,
		privilegedFactor: cfg.PrivilegedFactor,
	}
	n := l.height * l.halfWidth
	l.black = make([]int8, n)
	l.white = make([]int8, n)

	l.initSpins(cfg, rng)
	if cfg.PrivilegedFraction > 0 {
		l.initPrivileged(cfg.PrivilegedFraction, rng)
	}
	return l, nil
}

// Height returns the number of physical rows.
func (l *Lattice) Height() int { return l.height }

// Width returns the number of physical columns.
func (l *Lattice) Width() int { return l.halfWidth * 2 }

// HalfWidth returns the column count of each sublattice.
func (l *Lattice) HalfWidth() int { return l.halfWidth }

// TotalAgents returns the number of cells across both sublattices.
func (l *Lattice) TotalAgents() int { return 2 * l.height * l.halfWidth }

// NeutralCount returns the exact number of inert cells fixed at construction.
func (l *Lattice) NeutralCount() int { return l.neutralCount }

// PrivilegedFactor returns the flip-probability multiplier for privileged
// cells (1 when the feature is disabled).
func (l *Lattice) PrivilegedFactor() float64 {
	if l.privilegedFactor < 1 {
		return 1
	}
	return l.privilegedFactor
}

func (l *Lattice) sub(c Color) []int8 {
	if c == Black {
		return l.black
	}
	return l.white
}

// Spin returns the state of one sublattice cell.
func (l *Lattice) Spin(c Color, row, col int) int8 {
	return l.sub(c)[row*l.halfWidth+col]
}

// SetSpin overwrites one sublattice cell. Callers must not touch neutral
// cells; the engine and the shock operator both check the mask first.
func (l *Lattice) SetSpin(c Color, row, col int, s int8) {
	l.sub(c)[row*l.halfWidth+col] = s
}

// Neutral reports whether a cell is permanently inert.
func (l *Lattice) Neutral(c Color, row, col int) bool {
	m := l.blackNeutral
	if c == White {
		m = l.whiteNeutral
	}
	return m != nil && m[row*l.halfWidth+col]
}

// Privileged reports whether a cell carries the boosted flip bias.
func (l *Lattice) Privileged(c Color, row, col int) bool {
	m := l.blackPriv
	if c == White {
		m = l.whitePriv
	}
	return m != nil && m[row*l.halfWidth+col]
}

// GlobalSum returns the summed state over both sublattices. Neutral cells
// contribute 0.
func (l *Lattice) GlobalSum() int {
	sum := 0
	for i := range l.black {
		sum += int(l.black[i]) + int(l.white[i])
	}
	return sum
}
