package dataverse

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// SQLite driver for the snapshot store.
	_ "github.com/mattn/go-sqlite3"
)

// ErrSnapshotMiss is returned by ReplayClient when a query was never
// recorded in the snapshot.
var ErrSnapshotMiss = errors.New("query not present in snapshot")

// SnapshotStore persists query responses in SQLite so a documentation
// run can be replayed offline. One row per (entity set, encoded query
// options) pair; re-recording a query overwrites the previous response.
type SnapshotStore struct {
	db *sql.DB
}

// OpenSnapshotStore opens (and if needed initializes) a snapshot file.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSnapshotStoreFromDB wraps an existing database handle (used in
// tests).
func NewSnapshotStoreFromDB(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		entity_set TEXT NOT NULL,
		query      TEXT NOT NULL,
		body       TEXT NOT NULL,
		PRIMARY KEY (entity_set, query)
	)`)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot store: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Put records one query result.
func (s *SnapshotStore) Put(ctx context.Context, entitySet, query string, result *QueryResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot row: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (entity_set, query, body) VALUES (?, ?, ?)
		 ON CONFLICT (entity_set, query) DO UPDATE SET body = excluded.body`,
		entitySet, query, string(body))
	if err != nil {
		return fmt.Errorf("failed to write snapshot row: %w", err)
	}
	return nil
}

// Get loads one recorded query result, or ErrSnapshotMiss.
func (s *SnapshotStore) Get(ctx context.Context, entitySet, query string) (*QueryResult, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM snapshots WHERE entity_set = ? AND query = ?`,
		entitySet, query).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s?%s: %w", entitySet, query, ErrSnapshotMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot row: %w", err)
	}
	var result QueryResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot row: %w", err)
	}
	return &result, nil
}

// RecordingClient passes queries through to an inner client and records
// every successful response.
type RecordingClient struct {
	inner Client
	store *SnapshotStore
}

// NewRecordingClient wraps inner so responses land in store.
func NewRecordingClient(inner Client, store *SnapshotStore) *RecordingClient {
	return &RecordingClient{inner: inner, store: store}
}

// Query implements Client.
func (c *RecordingClient) Query(ctx context.Context, entitySet string, opts QueryOptions) (*QueryResult, error) {
	result, err := c.inner.Query(ctx, entitySet, opts)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, entitySet, opts.Encode(), result); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplayClient serves queries from a snapshot with no network access.
type ReplayClient struct {
	store *SnapshotStore
}

// NewReplayClient creates a replay-only client over store.
func NewReplayClient(store *SnapshotStore) *ReplayClient {
	return &ReplayClient{store: store}
}

// Query implements Client. A query absent from the snapshot returns
// ErrSnapshotMiss.
func (c *ReplayClient) Query(ctx context.Context, entitySet string, opts QueryOptions) (*QueryResult, error) {
	return c.store.Get(ctx, entitySet, opts.Encode())
}
