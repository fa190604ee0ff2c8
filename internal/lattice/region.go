package lattice

import "fmt"

// Region names where an operation applies: anywhere at random, or one fixed
// quadrant of the grid.
type Region string

const (
	RegionRandom      Region = "random"
	RegionTopLeft     Region = "top_left"
	RegionTopRight    Region = "top_right"
	RegionBottomLeft  Region = "bottom_left"
	RegionBottomRight Region = "bottom_right"
)

// ParseRegion validates a region tag from configuration or API input.
func ParseRegion(s string) (Region, error) {
	switch Region(s) {
	case RegionRandom, RegionTopLeft, RegionTopRight, RegionBottomLeft, RegionBottomRight:
		return Region(s), nil
	}
	return "", fmt.Errorf("%w: %q (want random, top_left, top_right, bottom_left or bottom_right)", ErrInvalidRegion, s)
}

// Bounds returns the half-open row and column ranges of the quadrant within
// a rows×cols grid. ok is false for RegionRandom, which has no bounds.
// Quadrants use integer halving, so odd dimensions put the extra row/column
// in the bottom/right half.
func (r Region) Bounds(rows, cols int) (rowLo, rowHi, colLo, colHi int, ok bool) {
	halfR, halfC := rows/2, cols/2
	switch r {
	case RegionTopLeft:
		return 0, halfR, 0, halfC, true
	case RegionTopRight:
		return 0, halfR, halfC, cols, true
	case RegionBottomLeft:
		return halfR, rows, 0, halfC, true
	case RegionBottomRight:
		return halfR, rows, halfC, cols, true
	}
	return 0, 0, 0, 0, false
}
