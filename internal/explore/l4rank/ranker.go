package l4rank

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l2frontier"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
)

// RankMode selects the window statistic used to score a cluster.
type RankMode string

const (
	ModeMean RankMode = "mean"
	ModeMax  RankMode = "max"
)

// DefaultRadiusCells is the scoring window half-width used when none is given.
const DefaultRadiusCells = 3

// ParseRankMode accepts "mean" or "max" (case-insensitive).
func ParseRankMode(s string) (RankMode, error) {
	m := RankMode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeMean, ModeMax:
		return m, nil
	default:
		return "", fmt.Errorf("%w: rank mode must be %q or %q, got %q", l1grid.ErrInvalidArgument, ModeMean, ModeMax, s)
	}
}

// RankedFrontier pairs a cluster with its score for one ranking call.
type RankedFrontier struct {
	Cluster l2frontier.FrontierCluster
	Score   float64
}

// ScoreCluster scores cluster by the value-map window within radiusCells
// (Chebyshev) of its rounded centroid, clipped to the map. ModeMean
// averages the window and ModeMax takes its maximum. An empty window
// scores 0.
func ScoreCluster(vm *l3value.ValueMap, cluster l2frontier.FrontierCluster, radiusCells int, mode RankMode) (float64, error) {
	if mode != ModeMean && mode != ModeMax {
		return 0, fmt.Errorf("%w: rank mode must be %q or %q, got %q", l1grid.ErrInvalidArgument, ModeMean, ModeMax, mode)
	}
	if vm == nil {
		return 0, fmt.Errorf("%w: nil value map", l1grid.ErrInvalidArgument)
	}

	center := cluster.CentroidCell()
	window, ok := vm.ValueWindow(
		center.Row-radiusCells, center.Row+radiusCells+1,
		center.Col-radiusCells, center.Col+radiusCells+1,
	)
	if !ok {
		return 0, nil
	}

	if mode == ModeMax {
		return mat.Max(window), nil
	}
	r, c := window.Dims()
	return mat.Sum(window) / float64(r*c), nil
}

// RankFrontiers scores every cluster independently and stable-sorts the
// result by descending score. Equal scores keep input order.
func RankFrontiers(vm *l3value.ValueMap, clusters []l2frontier.FrontierCluster, radiusCells int, mode RankMode) ([]RankedFrontier, error) {
	ranked := make([]RankedFrontier, 0, len(clusters))
	for i, cl := range clusters {
		s, err := ScoreCluster(vm, cl, radiusCells, mode)
		if err != nil {
			return nil, fmt.Errorf("score cluster %d: %w", i, err)
		}
		ranked = append(ranked, RankedFrontier{Cluster: cl, Score: s})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked, nil
}

// Top returns at most k leading entries of ranked. k <= 0 returns all.
func Top(ranked []RankedFrontier, k int) []RankedFrontier {
	if k <= 0 || k >= len(ranked) {
		return ranked
	}
	return ranked[:k]
}

// Waypoint is the flattened form of a RankedFrontier handed to goal
// selection or written to disk.
type Waypoint struct {
	Rank        int        `json:"rank"`
	Score       float64    `json:"score"`
	CentroidRC  [2]float64 `json:"centroid_rc"`
	CentroidXY  [2]float64 `json:"centroid_xy"`
	ClusterSize int        `json:"cluster_size"`
}

// Waypoints flattens ranked into 1-based ranked waypoints.
func Waypoints(ranked []RankedFrontier) []Waypoint {
	out := make([]Waypoint, len(ranked))
	for i, rf := range ranked {
		out[i] = Waypoint{
			Rank:        i + 1,
			Score:       rf.Score,
			CentroidRC:  rf.Cluster.CentroidRC,
			CentroidXY:  [2]float64{rf.Cluster.CentroidXY.X, rf.Cluster.CentroidXY.Y},
			ClusterSize: rf.Cluster.Size(),
		}
	}
	return out
}
