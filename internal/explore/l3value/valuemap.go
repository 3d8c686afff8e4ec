package l3value

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
)

var (
	// ErrBounds indicates a fusion patch does not fit inside the map.
	ErrBounds = errors.New("l3value: patch exceeds map bounds")
	// ErrShape is shared with l1grid so callers can test a single sentinel.
	ErrShape = l1grid.ErrShape
	// ErrInvalidArgument is shared with l1grid.
	ErrInvalidArgument = l1grid.ErrInvalidArgument
)

// Fusion defaults.
const (
	DefaultFusionEpsilon = 1e-6
	DefaultConfidenceCap = 1.0
)

// FusionParams controls the confidence-weighted update.
type FusionParams struct {
	// Epsilon is the minimum combined confidence for a weighted update.
	// Below it the old value is kept.
	Epsilon float64 `json:"epsilon"`
	// ConfidenceCap saturates the stored confidence after every update.
	// Once a cell reaches the cap the map no longer records how much
	// evidence beyond it has been fused.
	ConfidenceCap float64 `json:"confidence_cap"`
}

// DefaultFusionParams returns eps=1e-6 and a unit confidence cap.
func DefaultFusionParams() FusionParams {
	return FusionParams{Epsilon: DefaultFusionEpsilon, ConfidenceCap: DefaultConfidenceCap}
}

// Validate checks the parameters keep both layers inside [0,1].
func (p FusionParams) Validate() error {
	if !(p.Epsilon >= 0) {
		return fmt.Errorf("%w: fusion epsilon must be non-negative, got %v", ErrInvalidArgument, p.Epsilon)
	}
	if !(p.ConfidenceCap > 0 && p.ConfidenceCap <= 1) {
		return fmt.Errorf("%w: confidence cap must be in (0,1], got %v", ErrInvalidArgument, p.ConfidenceCap)
	}
	return nil
}

// ValueMap is a pair of co-indexed H×W layers: value and confidence, both
// in [0,1]. A cell's value is meaningful only where its confidence is > 0.
type ValueMap struct {
	mu     sync.RWMutex
	value  *mat.Dense
	conf   *mat.Dense
	height int
	width  int
	params FusionParams

	clampEvents       uint64
	enableDiagnostics bool
}

// NewValueMap returns a zero-initialised h×w map.
func NewValueMap(h, w int, params FusionParams) (*ValueMap, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: value map shape %dx%d", ErrShape, h, w)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &ValueMap{
		value:  mat.NewDense(h, w, nil),
		conf:   mat.NewDense(h, w, nil),
		height: h,
		width:  w,
		params: params,
	}, nil
}

// Dims returns (height, width).
func (vm *ValueMap) Dims() (int, int) { return vm.height, vm.width }

// Params returns the fusion parameters the map was built with.
func (vm *ValueMap) Params() FusionParams { return vm.params }

// SetEnableDiagnostics toggles logging of clamp events. Fusion results are
// identical either way.
func (vm *ValueMap) SetEnableDiagnostics(v bool) {
	vm.mu.Lock()
	vm.enableDiagnostics = v
	vm.mu.Unlock()
}

// ClampEvents returns how many incoming patch entries were outside [0,1]
// (or NaN) and had to be clamped.
func (vm *ValueMap) ClampEvents() uint64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.clampEvents
}

// Fuse merges a patch into the map with its top-left corner at
// (originRow, originCol). Incoming values and confidences are clamped to
// [0,1]; then for every covered cell:
//
//	denom = c_old + c_new
//	v     = denom > eps ? (c_old*v_old + c_new*v_new) / denom : v_old
//	c     = min(denom, cap)
//
// Cells outside the patch are untouched. The patch must fit entirely.
func (vm *ValueMap) Fuse(originRow, originCol int, patchValue, patchConfidence mat.Matrix) error {
	if patchValue == nil || patchConfidence == nil {
		return fmt.Errorf("%w: nil patch", ErrInvalidArgument)
	}
	ph, pw := patchValue.Dims()
	ch, cw := patchConfidence.Dims()
	if ph != ch || pw != cw {
		return fmt.Errorf("%w: value patch %dx%d, confidence patch %dx%d", ErrShape, ph, pw, ch, cw)
	}
	if originRow < 0 || originCol < 0 || originRow+ph > vm.height || originCol+pw > vm.width {
		return fmt.Errorf("%w: %dx%d patch at (%d,%d) on %dx%d map",
			ErrBounds, ph, pw, originRow, originCol, vm.height, vm.width)
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	eps, capC := vm.params.Epsilon, vm.params.ConfidenceCap
	var clamped uint64
	for i := 0; i < ph; i++ {
		r := originRow + i
		for j := 0; j < pw; j++ {
			c := originCol + j
			vNew, vc := clampUnit(patchValue.At(i, j))
			cNew, cc := clampUnit(patchConfidence.At(i, j))
			if vc {
				clamped++
			}
			if cc {
				clamped++
			}

			vOld := vm.value.At(r, c)
			cOld := vm.conf.At(r, c)
			denom := cOld + cNew
			fused := vOld
			if denom > eps {
				fused = (cOld*vOld + cNew*vNew) / denom
			}
			vm.value.Set(r, c, fused)
			vm.conf.Set(r, c, math.Min(math.Max(denom, 0), capC))
		}
	}

	if clamped > 0 {
		vm.clampEvents += clamped
		if vm.enableDiagnostics {
			diagf("clamped %d out-of-range patch entries in %dx%d patch at (%d,%d)", clamped, ph, pw, originRow, originCol)
		}
	}
	return nil
}

// clampUnit clamps v into [0,1] and reports whether it had to. NaN maps to 0.
func clampUnit(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return 0, true
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	default:
		return v, false
	}
}

// Value returns the value at (row, col).
func (vm *ValueMap) Value(row, col int) float64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.value.At(row, col)
}

// Confidence returns the confidence at (row, col).
func (vm *ValueMap) Confidence(row, col int) float64 {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conf.At(row, col)
}

// Values returns a copy of the whole value layer.
func (vm *ValueMap) Values() *mat.Dense {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return mat.DenseCopyOf(vm.value)
}

// Confidences returns a copy of the whole confidence layer.
func (vm *ValueMap) Confidences() *mat.Dense {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return mat.DenseCopyOf(vm.conf)
}

// ValueWindow returns a copy of the value layer over rows [r0,r1) and
// columns [c0,c1), clipped to the map. ok is false when the clipped
// window is empty.
func (vm *ValueMap) ValueWindow(r0, r1, c0, c1 int) (window *mat.Dense, ok bool) {
	r0, c0 = max(r0, 0), max(c0, 0)
	r1, c1 = min(r1, vm.height), min(c1, vm.width)
	if r1 <= r0 || c1 <= c0 {
		return nil, false
	}
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return mat.DenseCopyOf(vm.value.Slice(r0, r1, c0, c1)), true
}
