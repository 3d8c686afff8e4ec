package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l1grid"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/pipeline"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/scorer"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/storage/sqlite"
	"github.com/SeekSense-AI/seeksense-core/internal/monitoring"
	"github.com/SeekSense-AI/seeksense-core/internal/version"
)

func quiet(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func TestRun_Dispatch(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Contains(t, out.String(), "Usage: frontier")

	out.Reset()
	assert.Error(t, run([]string{"teleport"}, &out))

	out.Reset()
	require.NoError(t, run([]string{"version"}, &out))
	assert.Contains(t, out.String(), version.Version)

	out.Reset()
	require.NoError(t, run([]string{"rank", "--help"}, &out))
	assert.Contains(t, out.String(), "--config")
}

func TestRank_WritesOutputsAndPersists(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontier.db")

	cfgPath := filepath.Join(dir, "explore.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("min_cluster_size: 20\nrank_radius_cells: 6\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, run([]string{"rank", "--config", cfgPath, "--out", dir, "--db", dbPath, "--top", "5"}, &out))

	for _, name := range []string{"frontier_waypoints.json", "frontier_map_example.png", "value_map.png", "frontier_ranking.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frontier_waypoints.json"))
	require.NoError(t, err)
	var doc rankOutput
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotEmpty(t, doc.RunID)
	require.NotEmpty(t, doc.TopWaypoints)
	assert.LessOrEqual(t, len(doc.TopWaypoints), 5)
	assert.Equal(t, 1, doc.TopWaypoints[0].Rank)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	rec, err := store.GetRun(ctx, doc.RunID)
	require.NoError(t, err)
	assert.Equal(t, "rank", rec.Mode)
	assert.Contains(t, string(rec.ConfigJSON), `"min_cluster_size":20`)

	wps, err := store.ListWaypoints(ctx, doc.RunID, "rank")
	require.NoError(t, err)
	assert.Equal(t, doc.TopWaypoints, wps)

	_, err = store.LatestValueSnapshot(ctx, doc.RunID)
	assert.NoError(t, err)
}

func readRankOutput(t *testing.T, dir string) rankOutput {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "frontier_waypoints.json"))
	require.NoError(t, err)
	var doc rankOutput
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestRank_DefaultsToDemoClusteringAndTopZeroWritesAll(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontier.db")

	require.NoError(t, run([]string{"rank", "--out", dir, "--db", dbPath, "--top", "0"}, &bytes.Buffer{}))
	doc := readRankOutput(t, dir)
	require.NotZero(t, doc.NumClusters)
	assert.Len(t, doc.TopWaypoints, doc.NumClusters)
	for _, wp := range doc.TopWaypoints {
		assert.GreaterOrEqual(t, wp.ClusterSize, 20)
	}

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.GetRun(context.Background(), doc.RunID)
	require.NoError(t, err)
	assert.Contains(t, string(rec.ConfigJSON), `"min_cluster_size":20`)
	assert.Contains(t, string(rec.ConfigJSON), `"rank_radius_cells":6`)
	wps, err := store.ListWaypoints(context.Background(), doc.RunID, "rank")
	require.NoError(t, err)
	assert.Len(t, wps, doc.NumClusters)
}

func TestRank_FlagsOverrideConfigOnlyWhenSet(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontier.db")
	cfgPath := filepath.Join(dir, "explore.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("min_cluster_size: 7\nrank_radius_cells: 2\n"), 0o644))

	require.NoError(t, run([]string{"rank", "--config", cfgPath, "--rank-radius", "4", "--out", dir, "--db", dbPath}, &bytes.Buffer{}))
	doc := readRankOutput(t, dir)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.GetRun(context.Background(), doc.RunID)
	require.NoError(t, err)
	assert.Contains(t, string(rec.ConfigJSON), `"min_cluster_size":7`)
	assert.Contains(t, string(rec.ConfigJSON), `"rank_radius_cells":4`)
}

func TestRank_EvidenceSceneResumesValueMap(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontier.db")

	first := filepath.Join(dir, "first")
	require.NoError(t, run([]string{"rank", "--out", first, "--db", dbPath}, &bytes.Buffer{}))
	prev := readRankOutput(t, first)

	second := filepath.Join(dir, "second")
	require.NoError(t, run([]string{"rank", "--scene", "evidence", "--resume", prev.RunID,
		"--out", second, "--db", dbPath}, &bytes.Buffer{}))
	doc := readRankOutput(t, second)
	assert.NotEqual(t, prev.RunID, doc.RunID)
	require.NotEmpty(t, doc.TopWaypoints)
	assert.Positive(t, doc.TopWaypoints[0].Score)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	before, err := store.LatestValueSnapshot(ctx, prev.RunID)
	require.NoError(t, err)
	after, err := store.LatestValueSnapshot(ctx, doc.RunID)
	require.NoError(t, err)
	assert.Equal(t, before.Value, after.Value)
}

func TestRank_SceneAndResumeErrors(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontier.db")

	assert.Error(t, run([]string{"rank", "--scene", "maze", "--out", dir}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"rank", "--resume", "abc", "--out", dir}, &bytes.Buffer{}))
	err := run([]string{"rank", "--resume", "no-such-run", "--db", dbPath, "--out", dir}, &bytes.Buffer{})
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestRank_BadConfig(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"rank_mode":"median"}`), 0o644))
	assert.Error(t, run([]string{"rank", "--config", cfgPath, "--out", dir}, &bytes.Buffer{}))
}

func TestAblation_WritesRankings(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "frontier.db")

	var out bytes.Buffer
	require.NoError(t, run([]string{"ablation", "--seed", "3", "--out", dir, "--db", dbPath}, &out))
	assert.Contains(t, out.String(), "frontier_rankings.json")

	data, err := os.ReadFile(filepath.Join(dir, "frontier_rankings.json"))
	require.NoError(t, err)
	var doc struct {
		RunID string                     `json:"run_id"`
		Seed  uint64                     `json:"seed"`
		Modes map[string]json.RawMessage `json:"modes"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, uint64(3), doc.Seed)
	for _, m := range pipeline.AblationModes {
		assert.Contains(t, doc.Modes, m)
	}

	_, err = os.Stat(filepath.Join(dir, "frontier_ranking_ablation.png"))
	require.NoError(t, err)

	store, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	wps, err := store.ListWaypoints(context.Background(), doc.RunID, pipeline.ModeFused)
	require.NoError(t, err)
	assert.NotEmpty(t, wps)
	rec, err := store.GetRun(context.Background(), doc.RunID)
	require.NoError(t, err)
	assert.Equal(t, "ablation", rec.Mode)
	assert.Contains(t, string(rec.ConfigJSON), `"seed":3`)
	assert.Contains(t, string(rec.ConfigJSON), `"rank_mode":"mean"`)

	assert.Error(t, run([]string{"ablation", "--mode", "median", "--out", dir}, &bytes.Buffer{}))
}

func TestScore_PrintsResult(t *testing.T) {
	quiet(t)
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "frame.png")
	require.NoError(t, imaging.Save(imaging.New(32, 24, color.White), imgPath))

	var out bytes.Buffer
	require.NoError(t, run([]string{"score", "--image", imgPath, "--prompt", "chair", "--row", "10", "--col", "20"}, &out))

	var doc scoreOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "chair", doc.Prompt)
	assert.InDelta(t, 0.25+0.75*184.0/999.0, doc.Result.Score, 1e-6)
	assert.InDelta(t, doc.Result.Score, doc.FusedValue, 1e-9)
	assert.InDelta(t, doc.Result.Confidence, doc.FusedConf, 1e-9)
	assert.Equal(t, 10, doc.Observation.Center.Row)
}

type countingScorer struct {
	calls *atomic.Int32
}

func (c countingScorer) Score(image.Image, string) (scorer.Result, error) {
	c.calls.Add(1)
	return scorer.Result{Score: 0.4, Confidence: 0.7}, nil
}

func TestScore_ScoresImageOnce(t *testing.T) {
	quiet(t)
	var calls atomic.Int32
	original := newScorer
	newScorer = func(string, int) (scorer.Scorer, error) { return countingScorer{calls: &calls}, nil }
	t.Cleanup(func() { newScorer = original })

	var out bytes.Buffer
	require.NoError(t, run([]string{"score", "--prompt", "lamp"}, &out))
	assert.Equal(t, int32(1), calls.Load())

	var doc scoreOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, scorer.Result{Score: 0.4, Confidence: 0.7}, doc.Result)
	assert.Equal(t, l1grid.Cell{Row: 60, Col: 80}, doc.Observation.Center)
	assert.InDelta(t, 0.4, doc.FusedValue, 1e-12)
}

func TestScore_Errors(t *testing.T) {
	quiet(t)
	assert.Error(t, run([]string{"score"}, &bytes.Buffer{}), "prompt is required")
	assert.Error(t, run([]string{"score", "--prompt", "x", "--backend", "blip2"}, &bytes.Buffer{}))
	assert.Error(t, run([]string{"score", "--prompt", "x", "--image", "/no/such.png"}, &bytes.Buffer{}))
}

func TestLoadScoreImage_DefaultFrame(t *testing.T) {
	img, err := loadScoreImage("")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, scoreImageSize, scoreImageSize), img.Bounds())
}
