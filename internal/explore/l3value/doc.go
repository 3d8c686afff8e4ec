// Package l3value owns Layer 3 (Value) of the exploration data model.
//
// Responsibilities: the per-cell value/confidence map, confidence-weighted
// fusion, and conversion of scored observations into fusion patches.
// Key types: ValueMap, FusionParams, Observation.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
// No SQL/database code is allowed in this package.
//
// A ValueMap is created once per episode and owned by the exploration
// loop. Fuse is its only mutator; it holds the write lock for the whole
// read-modify-write so readers never observe a half-applied patch.
package l3value
