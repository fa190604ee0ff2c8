// Spin, neutral and privileged initialization. Placement order is fixed so a
// given rng state always produces the same lattice: neutrals first, then the
// ±1 draw for the remaining cells, then the privileged masks.
package lattice

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// clusterFreq is the noise sampling frequency for PatternClustered. Lower
// values give larger initial domains.
const clusterFreq = 0.08

func (l *Lattice) initSpins(cfg Config, rng *rand.Rand) {
	h, w := cfg.Height, cfg.Width
	full := make([]int8, h*w)
	var neutral []bool

	if cfg.NeutralFraction > 0 {
		neutral = l.placeNeutrals(cfg, rng)
	}

	var noise opensimplex.Noise
	if cfg.InitPattern == PatternClustered {
		noise = opensimplex.NewNormalized(rng.Int63())
	}

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			if neutral != nil && neutral[i] {
				continue
			}
			down := false
			if noise != nil {
				down = noise.Eval2(float64(col)*clusterFreq, float64(row)*clusterFreq) < cfg.InitUp
			} else {
				down = rng.Float64() < cfg.InitUp
			}
			if down {
				full[i] = -1
			} else {
				full[i] = +1
			}
		}
	}

	// Split the physical grid: black owns the even columns, white the odd.
	for row := 0; row < h; row++ {
		for c := 0; c < l.halfWidth; c++ {
			l.black[row*l.halfWidth+c] = full[row*w+2*c]
			l.white[row*l.halfWidth+c] = full[row*w+2*c+1]
		}
	}
	if neutral != nil {
		n := h * l.halfWidth
		l.blackNeutral = make([]bool, n)
		l.whiteNeutral = make([]bool, n)
		for row := 0; row < h; row++ {
			for c := 0; c < l.halfWidth; c++ {
				l.blackNeutral[row*l.halfWidth+c] = neutral[row*w+2*c]
				l.whiteNeutral[row*l.halfWidth+c] = neutral[row*w+2*c+1]
			}
		}
	}
}

// placeNeutrals marks the inert cells on the physical grid and records their
// exact count. Random placement spans the whole grid; quadrant placement
// confines the same fraction to that quadrant's cells.
func (l *Lattice) placeNeutrals(cfg Config, rng *rand.Rand) []bool {
	h, w := cfg.Height, cfg.Width
	neutral := make([]bool, h*w)

	region := cfg.NeutralRegion
	if region == "" {
		region = RegionRandom
	}

	var candidates []int
	if rowLo, rowHi, colLo, colHi, ok := region.Bounds(h, w); ok {
		candidates = make([]int, 0, (rowHi-rowLo)*(colHi-colLo))
		for row := rowLo; row < rowHi; row++ {
			for col := colLo; col < colHi; col++ {
				candidates = append(candidates, row*w+col)
			}
		}
	} else {
		candidates = make([]int, h*w)
		for i := range candidates {
			candidates[i] = i
		}
	}

	count := int(cfg.NeutralFraction * float64(len(candidates)))
	for _, pi := range rng.Perm(len(candidates))[:count] {
		neutral[candidates[pi]] = true
	}
	l.neutralCount = count
	return neutral
}

// initPrivileged draws an independent mask per sublattice, mirroring the
// original model where the privileged and neutral selections are orthogonal.
func (l *Lattice) initPrivileged(fraction float64, rng *rand.Rand) {
	n := l.height * l.halfWidth
	count := int(fraction * float64(n))

	l.blackPriv = make([]bool, n)
	for _, i := range rng.Perm(n)[:count] {
		l.blackPriv[i] = true
	}
	l.whitePriv = make([]bool, n)
	for _, i := range rng.Perm(n)[:count] {
		l.whitePriv[i] = true
	}
}
