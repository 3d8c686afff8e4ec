package l3value

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
)

// DefaultObservationRadius is the patch half-width used when none is given.
const DefaultObservationRadius = 10

// Observation is one scored view projected onto the map. It is produced
// by an external scorer and consumed immediately by ApplyObservation.
type Observation struct {
	Center      l1grid.Cell `json:"center"`
	Score       float64     `json:"score"`        // relevance in [0,1]
	Confidence  float64     `json:"confidence"`   // reliability in [0,1]
	RadiusCells int         `json:"radius_cells"` // patch half-width, >= 0
}

// ObservationPatch builds the value and confidence patches for obs on an
// h×w map. The window is the square of half-width RadiusCells around the
// centre, clipped to the map; (r0, c0) is its top-left corner.
//
// Value follows a Gaussian kernel with sigma² = max(1, (0.6·r)²). The
// confidence is obs.Confidence over the whole window, not kernel-weighted,
// so far cells take near-zero values at full weight.
//
// ok is false when the clipped window is empty.
func ObservationPatch(h, w int, obs Observation) (r0, c0 int, value, conf *mat.Dense, ok bool, err error) {
	rad := obs.RadiusCells
	if rad < 0 {
		return 0, 0, nil, nil, false, fmt.Errorf("%w: observation radius must be non-negative, got %d", ErrInvalidArgument, rad)
	}
	cr, cc := obs.Center.Row, obs.Center.Col

	r0, r1 := max(0, cr-rad), min(h, cr+rad+1)
	c0, c1 := max(0, cc-rad), min(w, cc+rad+1)
	if r1 <= r0 || c1 <= c0 {
		return r0, c0, nil, nil, false, nil
	}

	ph, pw := r1-r0, c1-c0
	sigma2 := math.Max(1.0, math.Pow(float64(rad)*0.6, 2))
	value = mat.NewDense(ph, pw, nil)
	conf = mat.NewDense(ph, pw, nil)
	for i := 0; i < ph; i++ {
		dr := float64(r0 + i - cr)
		for j := 0; j < pw; j++ {
			dc := float64(c0 + j - cc)
			kernel := math.Exp(-(dr*dr + dc*dc) / (2.0 * sigma2))
			value.Set(i, j, obs.Score*kernel)
			conf.Set(i, j, obs.Confidence)
		}
	}
	return r0, c0, value, conf, true, nil
}

// ApplyObservation converts obs into a Gaussian patch and fuses it into
// vm. An observation whose window falls entirely off the map is a no-op.
func ApplyObservation(vm *ValueMap, obs Observation) error {
	if vm == nil {
		return fmt.Errorf("%w: nil value map", ErrInvalidArgument)
	}
	h, w := vm.Dims()
	r0, c0, value, conf, ok, err := ObservationPatch(h, w, obs)
	if err != nil {
		return err
	}
	if !ok {
		diagf("observation at %v radius %d lies outside %dx%d map, skipped", obs.Center, obs.RadiusCells, h, w)
		return nil
	}
	return vm.Fuse(r0, c0, value, conf)
}
