// Package l2frontier owns Layer 2 (Frontier) of the exploration data model.
//
// Responsibilities: frontier-cell detection on an occupancy grid and
// connected-component clustering of those cells into FrontierClusters.
// Key types: FrontierCluster, ClusterParams, CellSet.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
//
// Every output here is deterministic. Detection emits cells in row-major
// scan order and clustering seeds components in first-seen order, so
// equal-size clusters tie-break as "first discovered in scan order".
package l2frontier
