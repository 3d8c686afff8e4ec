package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l4rank"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/synthetic"
	"github.com/SeekSense-AI/seeksense-core/internal/monitoring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	s, err := Open(filepath.Join(t.TempDir(), "frontier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigratesSchema(t *testing.T) {
	s := openTestStore(t)
	v, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(SchemaVersion), v)
	assert.False(t, dirty)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frontier.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.InsertRun(ctx, &Run{RunID: "r1", Mode: "rank"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.GetRun(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "rank", run.Mode)
}

func TestInsertRun_GeneratesIDAndTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &Run{
		Mode:          "rank",
		ConfigJSON:    json.RawMessage(`{"rank_mode":"max"}`),
		FrontierCells: 394,
		Clusters:      1,
	}
	require.NoError(t, s.InsertRun(ctx, run))
	assert.NotEmpty(t, run.RunID)
	assert.NotZero(t, run.CreatedAt)

	got, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.CreatedAt, got.CreatedAt)
	assert.Equal(t, 394, got.FrontierCells)
	assert.JSONEq(t, `{"rank_mode":"max"}`, string(got.ConfigJSON))

	// Duplicate IDs are rejected.
	assert.Error(t, s.InsertRun(ctx, &Run{RunID: run.RunID, Mode: "rank"}))

	_, err = s.GetRun(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWaypoints_RoundTripOrderedByRank(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertRun(ctx, &Run{RunID: "r1", Mode: "ablation"}))

	wps := []l4rank.Waypoint{
		{Rank: 2, Score: 0.4, CentroidRC: [2]float64{10, 20.5}, CentroidXY: [2]float64{1.025, 0.525}, ClusterSize: 12},
		{Rank: 1, Score: 0.9, CentroidRC: [2]float64{54.2, 79.8}, CentroidXY: [2]float64{4.025, 2.725}, ClusterSize: 394},
	}
	require.NoError(t, s.InsertWaypoints(ctx, "r1", "fused", wps))
	require.NoError(t, s.InsertWaypoints(ctx, "r1", "low_conf_patch", wps[:1]))

	got, err := s.ListWaypoints(ctx, "r1", "fused")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, wps[1], got[0])
	assert.Equal(t, wps[0], got[1])

	got, err = s.ListWaypoints(ctx, "r1", "low_conf_patch")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.ListWaypoints(ctx, "r1", "high_conf_patch")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Foreign keys are enforced.
	assert.Error(t, s.InsertWaypoints(ctx, "no-such-run", "fused", wps))
}

func TestValueSnapshots_LatestWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertRun(ctx, &Run{RunID: "r1", Mode: "rank"}))

	_, err := s.LatestValueSnapshot(ctx, "r1")
	assert.True(t, errors.Is(err, ErrNotFound))

	vm, err := l3value.NewValueMap(12, 16, l3value.DefaultFusionParams())
	require.NoError(t, err)
	_, err = s.InsertValueSnapshot(ctx, "r1", vm.Snapshot())
	require.NoError(t, err)

	require.NoError(t, vm.Fuse(0, 0, synthetic.GaussianBlob(12, 16, 6, 8, 3), synthetic.Constant(12, 16, 0.7)))
	id, err := s.InsertValueSnapshot(ctx, "r1", vm.Snapshot())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	snap, err := s.LatestValueSnapshot(ctx, "r1")
	require.NoError(t, err)
	restored, err := l3value.Restore(snap)
	require.NoError(t, err)

	h, w := restored.Dims()
	assert.Equal(t, 12, h)
	assert.Equal(t, 16, w)
	assert.InDelta(t, vm.Value(6, 8), restored.Value(6, 8), 1e-12)
	assert.InDelta(t, 0.7, restored.Confidence(0, 0), 1e-12)
}
