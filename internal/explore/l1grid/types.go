package l1grid

import "fmt"

// CellState is the tri-state occupancy of a single grid cell.
type CellState int8

const (
	Unknown  CellState = -1
	Free     CellState = 0
	Occupied CellState = 1
)

func (s CellState) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Free:
		return "free"
	case Occupied:
		return "occupied"
	default:
		return fmt.Sprintf("CellState(%d)", int8(s))
	}
}

// CoerceState maps a numeric occupancy value onto the tri-state enum.
// 0 is free, positive values are occupied and negative values are unknown,
// so probability-style grids (0..100, -1 unknown) coerce sensibly.
func CoerceState(v int) CellState {
	switch {
	case v == 0:
		return Free
	case v > 0:
		return Occupied
	default:
		return Unknown
	}
}

// Cell is a (row, col) grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// Point is a world-frame coordinate in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connectivity values accepted by neighbour queries.
const (
	Conn4 = 4
	Conn8 = 8
)

// neighborOffsets holds (dRow, dCol) pairs. The first four are the
// axis-aligned neighbours, the last four the diagonals.
var neighborOffsets = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

// Offsets returns a fresh copy of the neighbour offsets for the given
// connectivity. Callers may modify the result.
func Offsets(connectivity int) ([][2]int, error) {
	switch connectivity {
	case Conn4:
		return append([][2]int(nil), neighborOffsets[:4]...), nil
	case Conn8:
		return append([][2]int(nil), neighborOffsets[:]...), nil
	default:
		return nil, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidArgument, connectivity)
	}
}
