package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/SeekSense-AI/seeksense-core/internal/explore/l3value"
	"github.com/SeekSense-AI/seeksense-core/internal/explore/l4rank"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("sqlite: not found")

// Run is one persisted planning or ablation run.
type Run struct {
	RunID         string          `json:"run_id"`
	CreatedAt     int64           `json:"created_unix_nanos"`
	Mode          string          `json:"mode"`
	ConfigJSON    json.RawMessage `json:"config_json,omitempty"`
	FrontierCells int             `json:"frontier_cells"`
	Clusters      int             `json:"clusters"`
}

// Store is the SQLite-backed run store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path, applies the
// connection pragmas and migrates the schema to the latest version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	return migrateVersion(s.db)
}

// InsertRun persists run. If RunID is empty, a UUID is generated; a zero
// CreatedAt is set to now.
func (s *Store) InsertRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var cfg interface{}
	if len(run.ConfigJSON) > 0 {
		cfg = string(run.ConfigJSON)
	}

	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO runs (
				run_id, created_unix_nanos, mode, config_json, frontier_cells, clusters
			) VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, run.Mode, cfg, run.FrontierCells, run.Clusters,
		)
		return err
	})
}

// GetRun loads a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run Run
		cfg sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_unix_nanos, mode, config_json, frontier_cells, clusters
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&run.RunID, &run.CreatedAt, &run.Mode, &cfg, &run.FrontierCells, &run.Clusters)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if cfg.Valid {
		run.ConfigJSON = json.RawMessage(cfg.String)
	}
	return &run, nil
}

// InsertWaypoints stores the ranked waypoints of runID under mode in one
// transaction.
func (s *Store) InsertWaypoints(ctx context.Context, runID, mode string, wps []l4rank.Waypoint) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO waypoints (
				run_id, mode, rank, score, centroid_row, centroid_col, x, y, cluster_size
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, wp := range wps {
			if _, err := stmt.ExecContext(ctx,
				runID, mode, wp.Rank, wp.Score,
				wp.CentroidRC[0], wp.CentroidRC[1], wp.CentroidXY[0], wp.CentroidXY[1],
				wp.ClusterSize,
			); err != nil {
				return fmt.Errorf("insert waypoint rank %d: %w", wp.Rank, err)
			}
		}
		return tx.Commit()
	})
}

// ListWaypoints returns the waypoints of runID under mode ordered by rank.
func (s *Store) ListWaypoints(ctx context.Context, runID, mode string) ([]l4rank.Waypoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, score, centroid_row, centroid_col, x, y, cluster_size
		FROM waypoints WHERE run_id = ? AND mode = ?
		ORDER BY rank ASC`, runID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query waypoints: %w", err)
	}
	defer rows.Close()

	var out []l4rank.Waypoint
	for rows.Next() {
		var wp l4rank.Waypoint
		if err := rows.Scan(&wp.Rank, &wp.Score,
			&wp.CentroidRC[0], &wp.CentroidRC[1], &wp.CentroidXY[0], &wp.CentroidXY[1],
			&wp.ClusterSize,
		); err != nil {
			return nil, fmt.Errorf("failed to scan waypoint: %w", err)
		}
		out = append(out, wp)
	}
	return out, rows.Err()
}

// InsertValueSnapshot encodes snap and stores it against runID, returning
// the new snapshot ID.
func (s *Store) InsertValueSnapshot(ctx context.Context, runID string, snap l3value.Snapshot) (string, error) {
	blob, err := snap.Encode()
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now().UnixNano()
	err = retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO value_snapshots (
				snapshot_id, run_id, created_unix_nanos, height, width, blob
			) VALUES (?, ?, ?, ?, ?, ?)`,
			id, runID, now, snap.Height, snap.Width, blob,
		)
		return err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// LatestValueSnapshot returns the most recent snapshot stored for runID.
func (s *Store) LatestValueSnapshot(ctx context.Context, runID string) (l3value.Snapshot, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT blob FROM value_snapshots
		WHERE run_id = ?
		ORDER BY created_unix_nanos DESC, rowid DESC
		LIMIT 1`, runID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return l3value.Snapshot{}, fmt.Errorf("snapshot for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return l3value.Snapshot{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return l3value.DecodeSnapshot(blob)
}

// retryOnBusy retries fn while SQLite reports the database as busy or
// locked, backing off between attempts.
func retryOnBusy(ctx context.Context, fn func() error) error {
	const maxAttempts = 5
	backoff := 10 * time.Millisecond
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
