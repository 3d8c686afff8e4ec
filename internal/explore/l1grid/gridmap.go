package l1grid

import "fmt"

// DefaultResolution is the grid resolution in metres per cell used when
// callers do not supply one.
const DefaultResolution = 0.05

// GridMap is a dense row-major occupancy grid.
// Origin is the world coordinate of the lower-left corner of cell (0,0).
type GridMap struct {
	Cells      []CellState
	Height     int
	Width      int
	Resolution float64
	Origin     Point
}

// New builds a GridMap from a 2D numeric occupancy array. Every value is
// coerced with CoerceState. Empty or ragged input fails with ErrShape.
func New[T ~int | ~int8 | ~int16 | ~int32 | ~int64](rows [][]T, resolution float64, origin Point) (*GridMap, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: got %d rows", ErrShape, len(rows))
	}
	h, w := len(rows), len(rows[0])
	cells := make([]CellState, 0, h*w)
	for r, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, r, len(row), w)
		}
		for _, v := range row {
			cells = append(cells, CoerceState(int(v)))
		}
	}
	return newGrid(cells, h, w, resolution, origin)
}

// NewFromStates wraps an existing row-major cell slice. The slice is
// copied so later writes by the caller do not leak into the snapshot.
func NewFromStates(cells []CellState, h, w int, resolution float64, origin Point) (*GridMap, error) {
	if h <= 0 || w <= 0 || len(cells) != h*w {
		return nil, fmt.Errorf("%w: %d cells for shape %dx%d", ErrShape, len(cells), h, w)
	}
	cp := make([]CellState, len(cells))
	for i, s := range cells {
		cp[i] = CoerceState(int(s))
	}
	return newGrid(cp, h, w, resolution, origin)
}

// Fill returns an h×w grid with every cell set to state, coerced like
// any other input.
func Fill(h, w int, state CellState, resolution float64, origin Point) (*GridMap, error) {
	if h <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: shape %dx%d", ErrShape, h, w)
	}
	state = CoerceState(int(state))
	cells := make([]CellState, h*w)
	for i := range cells {
		cells[i] = state
	}
	return newGrid(cells, h, w, resolution, origin)
}

func newGrid(cells []CellState, h, w int, resolution float64, origin Point) (*GridMap, error) {
	if !(resolution > 0) {
		return nil, fmt.Errorf("%w: resolution must be positive, got %v", ErrInvalidArgument, resolution)
	}
	return &GridMap{Cells: cells, Height: h, Width: w, Resolution: resolution, Origin: origin}, nil
}

// Idx returns the row-major index of (row, col): row*Width + col.
func (g *GridMap) Idx(row, col int) int { return row*g.Width + col }

// Shape returns (Height, Width).
func (g *GridMap) Shape() (int, int) { return g.Height, g.Width }

// InBounds reports whether (row, col) lies inside the grid.
func (g *GridMap) InBounds(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

// At returns the state of (row, col). Out-of-bounds cells read as Unknown.
func (g *GridMap) At(row, col int) CellState {
	if !g.InBounds(row, col) {
		return Unknown
	}
	return g.Cells[g.Idx(row, col)]
}

// Neighbors returns every in-bounds neighbour of (row, col) under the
// given connectivity, axis-aligned neighbours first.
func (g *GridMap) Neighbors(row, col, connectivity int) ([]Cell, error) {
	offsets, err := Offsets(connectivity)
	if err != nil {
		return nil, err
	}
	out := make([]Cell, 0, len(offsets))
	for _, d := range offsets {
		rr, cc := row+d[0], col+d[1]
		if g.InBounds(rr, cc) {
			out = append(out, Cell{Row: rr, Col: cc})
		}
	}
	return out, nil
}

// WorldXY maps a cell to the world coordinate of its centre.
func (g *GridMap) WorldXY(row, col int) Point {
	return Point{
		X: g.Origin.X + (float64(col)+0.5)*g.Resolution,
		Y: g.Origin.Y + (float64(row)+0.5)*g.Resolution,
	}
}

// Clamp pulls (row, col) into the grid bounds.
func (g *GridMap) Clamp(row, col int) Cell {
	return Cell{Row: clampInt(row, 0, g.Height-1), Col: clampInt(col, 0, g.Width-1)}
}

// Count returns how many cells hold state.
func (g *GridMap) Count(state CellState) int {
	n := 0
	for _, s := range g.Cells {
		if s == state {
			n++
		}
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
