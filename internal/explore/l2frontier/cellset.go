package l2frontier

import "github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"

// CellSet is an insertion-ordered set of grid cells. Iteration follows the
// order of first insertion, which keeps component discovery reproducible.
type CellSet struct {
	order []l1grid.Cell
	index map[l1grid.Cell]int
}

// NewCellSet builds a set from cells, dropping repeats after the first.
func NewCellSet(cells []l1grid.Cell) *CellSet {
	s := &CellSet{
		order: make([]l1grid.Cell, 0, len(cells)),
		index: make(map[l1grid.Cell]int, len(cells)),
	}
	for _, c := range cells {
		s.Add(c)
	}
	return s
}

// Add inserts c and reports whether it was new.
func (s *CellSet) Add(c l1grid.Cell) bool {
	if _, ok := s.index[c]; ok {
		return false
	}
	s.index[c] = len(s.order)
	s.order = append(s.order, c)
	return true
}

// Contains reports membership.
func (s *CellSet) Contains(c l1grid.Cell) bool {
	_, ok := s.index[c]
	return ok
}

// Len returns the number of distinct cells.
func (s *CellSet) Len() int { return len(s.order) }

// Cells returns the members in insertion order. The slice is shared; do
// not modify it.
func (s *CellSet) Cells() []l1grid.Cell { return s.order }

// position returns the insertion index of c, used for dense visited flags.
func (s *CellSet) position(c l1grid.Cell) (int, bool) {
	i, ok := s.index[c]
	return i, ok
}
