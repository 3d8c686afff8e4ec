// Package l1grid owns Layer 1 (Grid) of the exploration data model.
//
// Responsibilities: the tri-state occupancy grid, numeric cell-state
// coercion, neighbour queries and the cell-to-world transform.
// Key types: GridMap, CellState, Cell.
//
// Dependency rule: L1 depends on nothing else in internal/explore.
// A GridMap is an immutable snapshot; rebuild it when new occupancy data
// arrives rather than mutating it.
package l1grid
