package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/pflag"

	"github.com/SeekSense-AI/seeksense-core/internal/config"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l2frontier"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l4rank"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/pipeline"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/plotting"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/scorer"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/storage/sqlite"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/synthetic"
	"github.com/SeekSense-AI/seeksense-core/internal/monitoring"
)

// Scorer input images are fitted into this square before scoring.
const scoreImageSize = 224

// newScorer builds the score command's backend. Tests replace it.
var newScorer = scorer.New

// parseFlags parses args into fs, treating --help as success.
func parseFlags(fs *pflag.FlagSet, args []string) (help bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// loadConfig reads path, or returns the built-in defaults when path is empty.
func loadConfig(path string) (*config.ExplorationConfig, error) {
	if path == "" {
		return config.DefaultExplorationConfig(), nil
	}
	return config.LoadExplorationConfig(path)
}

func applyDiagnostics(cfg *config.ExplorationConfig) {
	if cfg.GetEnableDiagnostics() {
		l2frontier.SetDiagWriter(os.Stderr)
		l3value.SetLogWriters(os.Stderr, os.Stderr)
	}
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// rankOutput is the JSON document written by the rank command.
type rankOutput struct {
	RunID            string            `json:"run_id"`
	NumFrontierCells int               `json:"num_frontier_cells"`
	NumClusters      int               `json:"num_clusters"`
	TopWaypoints     []l4rank.Waypoint `json:"top_waypoints"`
}

// sceneByName returns the synthetic scene for the rank command.
func sceneByName(name string) (synthetic.SceneSpec, error) {
	switch name {
	case "room":
		return synthetic.RoomAndCorridor(), nil
	case "evidence":
		return synthetic.EvidenceScene(), nil
	default:
		return synthetic.SceneSpec{}, fmt.Errorf("unknown scene %q (want room or evidence)", name)
	}
}

func runRank(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("rank", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	configPath := fs.String("config", "", "Exploration config (.json/.yaml); defaults apply when empty")
	dbPath := fs.String("db", "", "SQLite database to persist the run into (optional)")
	outDir := fs.String("out", "results", "Output directory")
	top := fs.Int("top", 10, "Number of waypoints to write (0 writes all)")
	sceneName := fs.String("scene", "room", "Synthetic scene: room or evidence")
	minCluster := fs.Int("min-cluster-size", 20, "Smallest frontier cluster kept; overrides --config only when set")
	rankRadius := fs.Int("rank-radius", 6, "Ranking window half-width in cells; overrides --config only when set")
	rankMode := fs.String("rank-mode", "mean", "Ranking statistic (mean or max); overrides --config only when set")
	resume := fs.String("resume", "", "Run ID whose latest value snapshot in --db seeds the value map")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if *resume != "" && *dbPath == "" {
		return fmt.Errorf("--resume requires --db")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	// Without a config file the example runs with the demo's own clustering
	// and ranking settings.
	override := func(name string) bool { return *configPath == "" || fs.Changed(name) }
	if override("min-cluster-size") {
		cfg.MinClusterSize = minCluster
	}
	if override("rank-radius") {
		cfg.RankRadiusCells = rankRadius
	}
	if override("rank-mode") {
		cfg.RankMode = rankMode
	}
	applyDiagnostics(cfg)

	spec, err := sceneByName(*sceneName)
	if err != nil {
		return err
	}
	spec.Resolution = cfg.GetResolution()
	g, err := spec.Build()
	if err != nil {
		return err
	}
	h, w := g.Shape()

	planner, err := pipeline.NewPlanner(cfg, h, w, nil)
	if err != nil {
		return err
	}

	var store *sqlite.Store
	if *dbPath != "" {
		store, err = sqlite.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	ctx := context.Background()

	if *resume != "" {
		snap, err := store.LatestValueSnapshot(ctx, *resume)
		if err != nil {
			return fmt.Errorf("failed to load value snapshot for run %s: %w", *resume, err)
		}
		if err := planner.RestoreValueMap(snap); err != nil {
			return err
		}
	} else {
		// Seed the value map with a hotspot beyond the corridor.
		if err := planner.ValueMap().Fuse(0, 0,
			synthetic.GaussianBlob(h, w, 50, 145, 18), synthetic.Constant(h, w, 0.8)); err != nil {
			return err
		}
	}

	plan, err := planner.Plan(g)
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(*outDir, "frontier_waypoints.json")
	if err := writeJSON(jsonPath, rankOutput{
		RunID:            plan.RunID,
		NumFrontierCells: len(plan.FrontierCells),
		NumClusters:      len(plan.Clusters),
		TopWaypoints:     plan.Waypoints(*top),
	}); err != nil {
		return err
	}

	pngPath := filepath.Join(*outDir, "frontier_map_example.png")
	if err := plotting.SaveFrontierPlot(pngPath, "Synthetic occupancy + frontiers + ranked waypoints",
		plotting.OccupancyLayer(g), plan.FrontierCells, plotting.RankMarkers("", plan.Ranked, 3)); err != nil {
		return err
	}
	valuePath := filepath.Join(*outDir, "value_map.png")
	if err := plotting.SaveFrontierPlot(valuePath, "Value map + ranked waypoints",
		planner.ValueMap().Values(), nil, plotting.RankMarkers("", plan.Ranked, 3)); err != nil {
		return err
	}
	htmlPath := filepath.Join(*outDir, "frontier_ranking.html")
	if err := plotting.WriteFrontierHTML(htmlPath, "Ranked frontiers",
		plan.FrontierCells, plan.Ranked, planner.ValueMap()); err != nil {
		return err
	}

	if store != nil {
		if err := persistPlan(ctx, store, cfg, plan, planner.ValueMap(), *top); err != nil {
			return err
		}
		monitoring.Logf("persisted run %s to %s", plan.RunID, *dbPath)
	}

	for _, p := range []string{jsonPath, pngPath, valuePath, htmlPath} {
		fmt.Fprintf(stdout, "Wrote: %s\n", p)
	}
	return nil
}

func persistPlan(ctx context.Context, store *sqlite.Store, cfg *config.ExplorationConfig, plan pipeline.Plan, vm *l3value.ValueMap, top int) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := store.InsertRun(ctx, &sqlite.Run{
		RunID:         plan.RunID,
		CreatedAt:     plan.CreatedAt.UnixNano(),
		Mode:          "rank",
		ConfigJSON:    cfgJSON,
		FrontierCells: len(plan.FrontierCells),
		Clusters:      len(plan.Clusters),
	}); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	if err := store.InsertWaypoints(ctx, plan.RunID, "rank", plan.Waypoints(top)); err != nil {
		return fmt.Errorf("failed to persist waypoints: %w", err)
	}
	if _, err := store.InsertValueSnapshot(ctx, plan.RunID, vm.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist value snapshot: %w", err)
	}
	return nil
}

func runAblation(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("ablation", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	defaults := pipeline.DefaultAblationParams()
	seed := fs.Uint64("seed", defaults.Seed, "Random seed for the confidence noise")
	radius := fs.Int("radius", defaults.RadiusCells, "Ranking window half-width in cells")
	mode := fs.String("mode", string(defaults.Mode), "Ranking statistic: mean or max")
	top := fs.Int("top", defaults.TopK, "Number of waypoints per mode")
	outDir := fs.String("out", filepath.Join("results", "ablation"), "Output directory")
	dbPath := fs.String("db", "", "SQLite database to persist the run into (optional)")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}

	rankMode, err := l4rank.ParseRankMode(*mode)
	if err != nil {
		return err
	}
	params := defaults
	params.Seed = *seed
	params.RadiusCells = *radius
	params.Mode = rankMode
	params.TopK = *top

	res, err := pipeline.RunAblation(params)
	if err != nil {
		return err
	}

	jsonPath := filepath.Join(*outDir, "frontier_rankings.json")
	if err := writeJSON(jsonPath, res); err != nil {
		return err
	}

	var markers []plotting.Marker
	for _, m := range pipeline.AblationModes {
		markers = append(markers, plotting.RankMarkers(m, res.Ranked[m], 3)...)
	}
	pngPath := filepath.Join(*outDir, "frontier_ranking_ablation.png")
	if err := plotting.SaveFrontierPlot(pngPath, "Confidence fusion affects frontier ranking",
		plotting.OccupancyLayer(res.Grid), res.FrontierCells, markers); err != nil {
		return err
	}

	if *dbPath != "" {
		if err := persistAblation(*dbPath, params, res); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "Wrote: %s\n", jsonPath)
	fmt.Fprintf(stdout, "Wrote: %s\n", pngPath)
	return nil
}

func persistAblation(dbPath string, params pipeline.AblationParams, res *pipeline.AblationResult) error {
	store, err := sqlite.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return err
	}
	if err := store.InsertRun(ctx, &sqlite.Run{
		RunID:         res.RunID,
		Mode:          "ablation",
		ConfigJSON:    paramsJSON,
		FrontierCells: res.NumFrontierCells,
		Clusters:      res.NumClusters,
	}); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	for _, m := range pipeline.AblationModes {
		if err := store.InsertWaypoints(ctx, res.RunID, m, res.Modes[m]); err != nil {
			return fmt.Errorf("failed to persist %s waypoints: %w", m, err)
		}
	}
	if _, err := store.InsertValueSnapshot(ctx, res.RunID, res.ValueMaps[pipeline.ModeFused].Snapshot()); err != nil {
		return fmt.Errorf("failed to persist value snapshot: %w", err)
	}
	monitoring.Logf("persisted ablation %s to %s", res.RunID, dbPath)
	return nil
}

// scoreOutput is printed by the score command.
type scoreOutput struct {
	Backend     string             `json:"backend"`
	Prompt      string             `json:"prompt"`
	Result      scorer.Result      `json:"result"`
	Observation l3value.Observation `json:"observation"`
	FusedValue  float64            `json:"fused_value"`
	FusedConf   float64            `json:"fused_confidence"`
}

func runScore(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("score", pflag.ContinueOnError)
	fs.SetOutput(stdout)
	imagePath := fs.String("image", "", "Image to score; a blank grey frame when empty")
	prompt := fs.String("prompt", "", "Text prompt (required)")
	seed := fs.Int("seed", 0, "Scorer seed")
	backend := fs.String("backend", scorer.BackendHash, "Scorer backend: hash or blip2")
	row := fs.Int("row", 60, "Observation centre row")
	col := fs.Int("col", 80, "Observation centre column")
	radius := fs.Int("radius", l3value.DefaultObservationRadius, "Observation radius in cells")
	if help, err := parseFlags(fs, args); help || err != nil {
		return err
	}
	if *prompt == "" {
		return fmt.Errorf("--prompt is required")
	}

	img, err := loadScoreImage(*imagePath)
	if err != nil {
		return err
	}

	s, err := newScorer(*backend, *seed)
	if err != nil {
		return err
	}

	cfg := config.DefaultExplorationConfig()
	cfg.ObservationRadiusCells = radius
	planner, err := pipeline.NewPlanner(cfg, 120, 160, s)
	if err != nil {
		return err
	}
	center := l1grid.Cell{Row: *row, Col: *col}
	obs, err := planner.Observe(img, *prompt, center)
	if err != nil {
		return err
	}

	vm := planner.ValueMap()
	out := scoreOutput{
		Backend:     *backend,
		Prompt:      *prompt,
		Result:      scorer.Result{Score: obs.Score, Confidence: obs.Confidence},
		Observation: obs,
	}
	if r, c := vm.Dims(); center.Row >= 0 && center.Row < r && center.Col >= 0 && center.Col < c {
		out.FusedValue = vm.Value(center.Row, center.Col)
		out.FusedConf = vm.Confidence(center.Row, center.Col)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// loadScoreImage opens path with EXIF orientation applied and fits it into
// the scorer input size. An empty path yields a uniform mid-grey frame.
func loadScoreImage(path string) (image.Image, error) {
	if path == "" {
		return imaging.New(scoreImageSize, scoreImageSize, color.Gray{Y: 128}), nil
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return imaging.Fit(img, scoreImageSize, scoreImageSize, imaging.Lanczos), nil
}
