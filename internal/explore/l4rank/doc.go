// Package l4rank owns Layer 4 (Ranking) of the exploration data model.
//
// Responsibilities: scoring frontier clusters against a value map and
// producing the descending-ranked target list handed to goal selection.
// Key types: RankedFrontier, RankMode.
//
// Dependency rule: L4 may depend on L1-L3.
package l4rank
