package l2frontier

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
)

// Constants for clustering configuration
const (
	// DefaultClusterConnectivity joins diagonal frontier cells into one cluster.
	DefaultClusterConnectivity = 8
	// DefaultMinClusterSize is the smallest component that survives clustering.
	DefaultMinClusterSize = 5
	// DefaultDetectConnectivity is the neighbour relation for the frontier predicate.
	DefaultDetectConnectivity = 4
)

// FrontierCluster is a connected group of frontier cells summarised by a
// centroid. It is recomputed every planning cycle and never mutated.
type FrontierCluster struct {
	Cells []l1grid.Cell
	// CentroidRC is the arithmetic mean of member (row, col) coordinates.
	CentroidRC [2]float64
	// CentroidXY is the world centre of the rounded, bounds-clamped
	// centroid cell, not of the raw float mean.
	CentroidXY l1grid.Point
}

// Size returns the number of member cells.
func (c FrontierCluster) Size() int { return len(c.Cells) }

// CentroidCell returns the integer lookup cell for CentroidRC, unclamped.
// Rounding is half-to-even so x.5 centroids resolve the same way on every
// platform.
func (c FrontierCluster) CentroidCell() l1grid.Cell {
	return RoundCell(c.CentroidRC)
}

// RoundCell rounds a float (row, col) half-to-even.
func RoundCell(rc [2]float64) l1grid.Cell {
	return l1grid.Cell{
		Row: int(math.RoundToEven(rc[0])),
		Col: int(math.RoundToEven(rc[1])),
	}
}

// ClusterParams holds clustering algorithm parameters.
type ClusterParams struct {
	Connectivity   int // 4 or 8
	MinClusterSize int // components smaller than this are discarded
}

// DefaultClusterParams returns production-default clustering parameters.
func DefaultClusterParams() ClusterParams {
	return ClusterParams{
		Connectivity:   DefaultClusterConnectivity,
		MinClusterSize: DefaultMinClusterSize,
	}
}

// ClusterFrontiers groups frontier cells into connected components under
// the grid's neighbour relation restricted to set membership.
//
// The input is de-duplicated in first-seen order and components are
// seeded in that order. Components below MinClusterSize are dropped. The
// result is sorted by descending size; equal sizes keep discovery order.
func ClusterFrontiers(g *l1grid.GridMap, frontierCells []l1grid.Cell, params ClusterParams) ([]FrontierCluster, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", l1grid.ErrInvalidArgument)
	}
	offsets, err := l1grid.Offsets(params.Connectivity)
	if err != nil {
		return nil, err
	}

	set := NewCellSet(frontierCells)
	comps := bfsComponents(g, set, offsets)

	clusters := make([]FrontierCluster, 0, len(comps))
	dropped := 0
	for _, comp := range comps {
		if len(comp) < params.MinClusterSize {
			dropped++
			continue
		}
		clusters = append(clusters, summarise(g, comp))
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return len(clusters[i].Cells) > len(clusters[j].Cells)
	})

	diagf("clustered %d frontier cells into %d components (%d kept, %d below min size %d)",
		set.Len(), len(comps), len(clusters), dropped, params.MinClusterSize)
	return clusters, nil
}

// bfsComponents returns the connected components of set. Seeds follow
// set order; each component lists cells in BFS visit order.
func bfsComponents(g *l1grid.GridMap, set *CellSet, offsets [][2]int) [][]l1grid.Cell {
	cells := set.Cells()
	seen := make([]bool, len(cells))
	var comps [][]l1grid.Cell

	for i0, seed := range cells {
		if seen[i0] {
			continue
		}
		seen[i0] = true
		queue := []l1grid.Cell{seed}
		for qi := 0; qi < len(queue); qi++ {
			u := queue[qi]
			for _, d := range offsets {
				v := l1grid.Cell{Row: u.Row + d[0], Col: u.Col + d[1]}
				if !g.InBounds(v.Row, v.Col) {
					continue
				}
				vi, ok := set.position(v)
				if !ok || seen[vi] {
					continue
				}
				seen[vi] = true
				queue = append(queue, v)
			}
		}
		comps = append(comps, queue)
	}
	return comps
}

func summarise(g *l1grid.GridMap, comp []l1grid.Cell) FrontierCluster {
	rs := make([]float64, len(comp))
	cs := make([]float64, len(comp))
	for i, c := range comp {
		rs[i] = float64(c.Row)
		cs[i] = float64(c.Col)
	}
	centroid := [2]float64{stat.Mean(rs, nil), stat.Mean(cs, nil)}
	lookup := RoundCell(centroid)
	lookup = g.Clamp(lookup.Row, lookup.Col)

	return FrontierCluster{
		Cells:      comp,
		CentroidRC: centroid,
		CentroidXY: g.WorldXY(lookup.Row, lookup.Col),
	}
}

// Params bundles detection and clustering settings for one planning cycle.
type Params struct {
	DetectConnectivity int
	RequireFree        bool
	Cluster            ClusterParams
}

// DefaultParams returns the production defaults: 4-connected detection on
// free cells, 8-connected clustering with a minimum of 5 cells.
func DefaultParams() Params {
	return Params{
		DetectConnectivity: DefaultDetectConnectivity,
		RequireFree:        true,
		Cluster:            DefaultClusterParams(),
	}
}

// DetectAndCluster runs FindFrontierCells followed by ClusterFrontiers.
// The raw frontier cells are returned alongside the clusters.
func DetectAndCluster(g *l1grid.GridMap, p Params) ([]l1grid.Cell, []FrontierCluster, error) {
	cells, err := FindFrontierCells(g, p.DetectConnectivity, p.RequireFree)
	if err != nil {
		return nil, nil, fmt.Errorf("frontier detection: %w", err)
	}
	clusters, err := ClusterFrontiers(g, cells, p.Cluster)
	if err != nil {
		return cells, nil, fmt.Errorf("frontier clustering: %w", err)
	}
	return cells, clusters, nil
}
