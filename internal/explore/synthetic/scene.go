// Package synthetic builds reproducible occupancy scenes and value blobs
// for demos, ablations and end-to-end tests.
package synthetic

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
)

// Rect is a half-open block [R0,R1)×[C0,C1) painted with State.
type Rect struct {
	R0, R1, C0, C1 int
	State          l1grid.CellState
}

// SceneSpec describes a synthetic scene: a background state plus blocks
// painted in order.
type SceneSpec struct {
	Height, Width int
	Background    l1grid.CellState
	Blocks        []Rect
	Resolution    float64
	Origin        l1grid.Point
}

// Build paints the scene into a GridMap. Blocks are clipped to the grid.
func (s SceneSpec) Build() (*l1grid.GridMap, error) {
	h, w := s.Height, s.Width
	if h <= 0 || w <= 0 {
		return nil, l1grid.ErrShape
	}
	cells := make([]l1grid.CellState, h*w)
	for i := range cells {
		cells[i] = s.Background
	}
	for _, b := range s.Blocks {
		for r := max(b.R0, 0); r < min(b.R1, h); r++ {
			for c := max(b.C0, 0); c < min(b.C1, w); c++ {
				cells[r*w+c] = b.State
			}
		}
	}
	res := s.Resolution
	if res == 0 {
		res = l1grid.DefaultResolution
	}
	return l1grid.NewFromStates(cells, h, w, res, s.Origin)
}

// RoomAndCorridor is the 120×160 evaluation scene: an explored room
// (rows 20-89, cols 20-119), a corridor (rows 45-54, cols 120-149) and
// three obstacle blocks, everything else unknown.
func RoomAndCorridor() SceneSpec {
	return SceneSpec{
		Height:     120,
		Width:      160,
		Background: l1grid.Unknown,
		Resolution: l1grid.DefaultResolution,
		Blocks: []Rect{
			{20, 90, 20, 120, l1grid.Free},
			{45, 55, 120, 150, l1grid.Free},
			{35, 40, 40, 95, l1grid.Occupied},
			{60, 65, 30, 80, l1grid.Occupied},
			{25, 80, 100, 103, l1grid.Occupied},
		},
	}
}

// EvidenceScene is the variant used for evidence runs: a wider room with
// a lower corridor.
func EvidenceScene() SceneSpec {
	return SceneSpec{
		Height:     120,
		Width:      160,
		Background: l1grid.Unknown,
		Resolution: l1grid.DefaultResolution,
		Blocks: []Rect{
			{20, 95, 20, 130, l1grid.Free},
			{55, 65, 130, 150, l1grid.Free},
			{35, 40, 40, 110, l1grid.Occupied},
			{25, 85, 95, 98, l1grid.Occupied},
			{70, 75, 35, 80, l1grid.Occupied},
		},
	}
}

// GaussianBlob returns an h×w matrix exp(-d²/(2σ²)) centred on (r, c).
func GaussianBlob(h, w, r, c int, sigma float64) *mat.Dense {
	m := mat.NewDense(h, w, nil)
	s2 := 2 * sigma * sigma
	for i := 0; i < h; i++ {
		dr := float64(i - r)
		for j := 0; j < w; j++ {
			dc := float64(j - c)
			m.Set(i, j, math.Exp(-(dr*dr+dc*dc)/s2))
		}
	}
	return m
}

// Constant returns an h×w matrix filled with v.
func Constant(h, w int, v float64) *mat.Dense {
	data := make([]float64, h*w)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(h, w, data)
}
