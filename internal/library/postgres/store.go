// Package postgres provides a Postgres-backed rig library mirroring the
// sqlite snapshot semantics over a jsonb state table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"rigcore/internal/library"
	"rigcore/internal/library/memory"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/rigcore?sslmode=disable"
)

var libraryBuckets = []string{"definitions", "rigs"}

// Store persists the in-memory library to Postgres.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN, falling
// back to defaultDSN, and hydrates from any existing snapshot.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var snapshot library.Snapshot
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case "definitions":
			if err := json.Unmarshal(payload, &snapshot.Definitions); err != nil {
				return fmt.Errorf("decode definitions: %w", err)
			}
		case "rigs":
			if err := json.Unmarshal(payload, &snapshot.Rigs); err != nil {
				return fmt.Errorf("decode rigs: %w", err)
			}
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if found {
		s.ImportState(snapshot)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range libraryBuckets {
		var data []byte
		switch bucket {
		case "definitions":
			data, err = json.Marshal(snapshot.Definitions)
		case "rigs":
			data, err = json.Marshal(snapshot.Rigs)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// SaveDefinition stores the definition and snapshots to Postgres.
func (s *Store) SaveDefinition(ctx context.Context, def *metarig.Definition) error {
	if err := s.Store.SaveDefinition(ctx, def); err != nil {
		return err
	}
	return s.persist(ctx)
}

// SaveRig stores the rig and snapshots to Postgres.
func (s *Store) SaveRig(ctx context.Context, name string, rig *armature.Armature) error {
	if err := s.Store.SaveRig(ctx, name, rig); err != nil {
		return err
	}
	return s.persist(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
