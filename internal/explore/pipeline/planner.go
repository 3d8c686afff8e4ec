// Package pipeline wires the exploration layers into a planning cycle:
// detect frontiers on an occupancy grid, cluster them, and rank the
// clusters against a value map that observations keep fusing into.
package pipeline

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/SeekSense-AI/seeksense-core/internal/config"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l2frontier"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l4rank"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/scorer"
	"github.com/SeekSense-AI/seeksense-core/internal/monitoring"
)

// Plan is the output of one planning cycle.
type Plan struct {
	RunID         string
	CreatedAt     time.Time
	FrontierCells []l1grid.Cell
	Clusters      []l2frontier.FrontierCluster
	Ranked        []l4rank.RankedFrontier
}

// Waypoints returns the top k ranked clusters as waypoints. k <= 0 returns all.
func (p Plan) Waypoints(k int) []l4rank.Waypoint {
	return l4rank.Waypoints(l4rank.Top(p.Ranked, k))
}

// Planner owns the value map for one map frame and turns grids and
// observations into ranked frontier waypoints. It is not safe for
// concurrent Plan calls with a changing config; the value map itself is.
type Planner struct {
	cfg    *config.ExplorationConfig
	vm     *l3value.ValueMap
	scorer scorer.Scorer
	mode   l4rank.RankMode
	logf   func(format string, v ...interface{})
}

// FrontierParams maps the exploration config onto detector and clusterer
// parameters.
func FrontierParams(cfg *config.ExplorationConfig) l2frontier.Params {
	return l2frontier.Params{
		DetectConnectivity: cfg.GetFrontierConnectivity(),
		RequireFree:        cfg.GetRequireFree(),
		Cluster: l2frontier.ClusterParams{
			Connectivity:   cfg.GetClusterConnectivity(),
			MinClusterSize: cfg.GetMinClusterSize(),
		},
	}
}

// FusionParams maps the exploration config onto value map fusion parameters.
func FusionParams(cfg *config.ExplorationConfig) l3value.FusionParams {
	return l3value.FusionParams{
		Epsilon:       cfg.GetFusionEpsilon(),
		ConfidenceCap: cfg.GetConfidenceCap(),
	}
}

// NewPlanner builds a planner with an empty h×w value map. A nil cfg uses
// defaults; a nil scorer is built from the config's scorer backend.
func NewPlanner(cfg *config.ExplorationConfig, h, w int, s scorer.Scorer) (*Planner, error) {
	if cfg == nil {
		cfg = config.EmptyExplorationConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", l1grid.ErrInvalidArgument, err)
	}
	mode, err := l4rank.ParseRankMode(cfg.GetRankMode())
	if err != nil {
		return nil, err
	}
	vm, err := l3value.NewValueMap(h, w, FusionParams(cfg))
	if err != nil {
		return nil, err
	}
	vm.SetEnableDiagnostics(cfg.GetEnableDiagnostics())

	if s == nil {
		s, err = scorer.New(cfg.GetScorerBackend(), cfg.GetScorerSeed())
		if err != nil {
			return nil, err
		}
	}

	return &Planner{
		cfg:    cfg,
		vm:     vm,
		scorer: s,
		mode:   mode,
		logf:   monitoring.Logf,
	}, nil
}

// SetLogger replaces the planner's progress logger. nil mutes it.
func (p *Planner) SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	p.logf = f
}

// ValueMap exposes the planner's value map for direct patch fusion,
// snapshots and plotting.
func (p *Planner) ValueMap() *l3value.ValueMap { return p.vm }

// RestoreValueMap replaces the value map with one rebuilt from snap, for
// example the latest snapshot of an earlier run. The snapshot must match
// the planner's map shape; fusion parameters come from the planner config.
func (p *Planner) RestoreValueMap(snap l3value.Snapshot) error {
	h, w := p.vm.Dims()
	if snap.Height != h || snap.Width != w {
		return fmt.Errorf("%w: snapshot %dx%d, value map %dx%d", l1grid.ErrShape, snap.Height, snap.Width, h, w)
	}
	snap.Params = FusionParams(p.cfg)
	vm, err := l3value.Restore(snap)
	if err != nil {
		return err
	}
	vm.SetEnableDiagnostics(p.cfg.GetEnableDiagnostics())
	p.vm = vm
	p.logf("[pipeline] restored %dx%d value map", h, w)
	return nil
}

// Config returns the configuration the planner was built with.
func (p *Planner) Config() *config.ExplorationConfig { return p.cfg }

// Plan runs detection, clustering and ranking on g. The grid must have
// the same shape as the value map.
func (p *Planner) Plan(g *l1grid.GridMap) (Plan, error) {
	if g == nil {
		return Plan{}, fmt.Errorf("%w: nil grid", l1grid.ErrInvalidArgument)
	}
	gh, gw := g.Shape()
	vh, vw := p.vm.Dims()
	if gh != vh || gw != vw {
		return Plan{}, fmt.Errorf("%w: grid %dx%d does not match value map %dx%d",
			l1grid.ErrShape, gh, gw, vh, vw)
	}

	start := time.Now()
	cells, clusters, err := l2frontier.DetectAndCluster(g, FrontierParams(p.cfg))
	if err != nil {
		return Plan{}, fmt.Errorf("frontier detection: %w", err)
	}
	ranked, err := l4rank.RankFrontiers(p.vm, clusters, p.cfg.GetRankRadiusCells(), p.mode)
	if err != nil {
		return Plan{}, fmt.Errorf("frontier ranking: %w", err)
	}

	plan := Plan{
		RunID:         uuid.NewString(),
		CreatedAt:     start,
		FrontierCells: cells,
		Clusters:      clusters,
		Ranked:        ranked,
	}
	p.logf("[pipeline] plan %s: %d frontier cells, %d clusters ranked (%s mode, radius %d) in %v",
		plan.RunID, len(cells), len(clusters), p.mode, p.cfg.GetRankRadiusCells(), time.Since(start))
	return plan, nil
}

// Observe scores img against prompt and fuses the result around center
// using the configured observation radius. A scorer failure leaves the
// value map untouched.
func (p *Planner) Observe(img image.Image, prompt string, center l1grid.Cell) (l3value.Observation, error) {
	obs, err := scorer.Observe(p.scorer, img, prompt, center, p.cfg.GetObservationRadiusCells())
	if err != nil {
		return l3value.Observation{}, err
	}
	if err := l3value.ApplyObservation(p.vm, obs); err != nil {
		return l3value.Observation{}, err
	}
	p.logf("[pipeline] observed %q at %s: score=%.3f confidence=%.3f",
		prompt, center, obs.Score, obs.Confidence)
	return obs, nil
}
