package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO required)

	"github.com/neuramaint/pumpml/internal/ml"
)

// ErrArtifactNotFound is returned when a required artifact blob is missing.
var ErrArtifactNotFound = errors.New("store: artifact not found")

// Artifact names making up one trained model. Each is independently
// readable/missing; detector and scaler are required to reconstruct a model,
// metadata is optional.
const (
	artifactDetector = "detector"
	artifactScaler   = "scaler"
	artifactMetadata = "metadata"
)

// migrations for the artifact store. Version is tracked in schema_versions.
var migrations = []struct {
	version int
	sql     string
}{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_versions (
    version     INTEGER PRIMARY KEY,
    applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS artifacts (
    name        TEXT PRIMARY KEY,
    data        BLOB NOT NULL,
    updated_at  DATETIME NOT NULL
);
`,
	},
}

// SQLiteStore persists model artifacts as opaque JSON blobs keyed by name.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the artifact database and applies migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// The modernc driver serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent artifact reads during a save.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, m := range migrations {
		var applied int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM schema_versions WHERE version = ?`, m.version).Scan(&applied)
		if err == nil && applied > 0 {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration %d: %w", m.version, err)
		}
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO schema_versions (version) VALUES (?)`, m.version); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveModel writes detector, scaler and metadata in one transaction so a
// failed save never leaves a partial artifact set behind.
func (s *SQLiteStore) SaveModel(ctx context.Context, model *ml.TrainedModel) error {
	detector, err := json.Marshal(model.Forest)
	if err != nil {
		return fmt.Errorf("encoding detector: %w", err)
	}
	scaler, err := json.Marshal(model.Scaler)
	if err != nil {
		return fmt.Errorf("encoding scaler: %w", err)
	}
	meta, err := json.Marshal(model.Meta)
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning artifact transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, a := range []struct {
		name string
		data []byte
	}{
		{artifactDetector, detector},
		{artifactScaler, scaler},
		{artifactMetadata, meta},
	} {
		_, err := tx.ExecContext(ctx, `
INSERT INTO artifacts (name, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			a.name, a.data, now)
		if err != nil {
			return fmt.Errorf("writing artifact %q: %w", a.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing artifacts: %w", err)
	}
	return nil
}

// LoadModel reconstructs the current trained model from its artifacts.
// Missing detector or scaler yields ErrArtifactNotFound; missing metadata is
// tolerated and loads as an empty metadata record.
func (s *SQLiteStore) LoadModel(ctx context.Context) (*ml.TrainedModel, error) {
	detector, err := s.readArtifact(ctx, artifactDetector)
	if err != nil {
		return nil, err
	}
	scaler, err := s.readArtifact(ctx, artifactScaler)
	if err != nil {
		return nil, err
	}

	model := &ml.TrainedModel{
		Forest: &ml.IsolationForest{},
		Scaler: &ml.StandardScaler{},
	}
	if err := json.Unmarshal(detector, model.Forest); err != nil {
		return nil, fmt.Errorf("decoding detector: %w", err)
	}
	if err := json.Unmarshal(scaler, model.Scaler); err != nil {
		return nil, fmt.Errorf("decoding scaler: %w", err)
	}

	meta, err := s.readArtifact(ctx, artifactMetadata)
	switch {
	case errors.Is(err, ErrArtifactNotFound):
		// Proceed with model+scaler only.
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(meta, &model.Meta); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}

	return model, nil
}

func (s *SQLiteStore) readArtifact(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM artifacts WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %q: %w", name, err)
	}
	return data, nil
}
