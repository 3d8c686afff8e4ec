package l2frontier

import (
	"fmt"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
)

// FindFrontierCells returns the frontier cells of g in row-major order.
//
// Candidates are Free cells when requireFree is set, otherwise every
// non-Occupied cell. A candidate is a frontier cell when at least one of
// its connectivity-neighbours is Unknown.
//
// Cost: O(H·W·connectivity).
func FindFrontierCells(g *l1grid.GridMap, connectivity int, requireFree bool) ([]l1grid.Cell, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", l1grid.ErrInvalidArgument)
	}
	offsets, err := l1grid.Offsets(connectivity)
	if err != nil {
		return nil, err
	}

	var frontier []l1grid.Cell
	for r := 0; r < g.Height; r++ {
		for c := 0; c < g.Width; c++ {
			s := g.Cells[g.Idx(r, c)]
			if requireFree && s != l1grid.Free {
				continue
			}
			if !requireFree && s == l1grid.Occupied {
				continue
			}
			for _, d := range offsets {
				rr, cc := r+d[0], c+d[1]
				if !g.InBounds(rr, cc) {
					continue
				}
				if g.Cells[g.Idx(rr, cc)] == l1grid.Unknown {
					frontier = append(frontier, l1grid.Cell{Row: r, Col: c})
					break
				}
			}
		}
	}
	return frontier, nil
}
