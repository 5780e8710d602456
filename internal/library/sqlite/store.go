// Package sqlite provides a SQLite-backed rig library that snapshots the
// in-memory state to a single table as JSON after every write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"rigcore/internal/library"
	"rigcore/internal/library/memory"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

var libraryBuckets = []string{"definitions", "rigs"}

// Store persists the in-memory library to SQLite.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens or creates the library database at path and hydrates
// the in-memory state from it.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "rigcore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
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

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.Begin()
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
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	return tx.Commit()
}

// SaveDefinition stores the definition and snapshots to disk.
func (s *Store) SaveDefinition(ctx context.Context, def *metarig.Definition) error {
	if err := s.Store.SaveDefinition(ctx, def); err != nil {
		return err
	}
	return s.persist()
}

// SaveRig stores the rig and snapshots to disk.
func (s *Store) SaveRig(ctx context.Context, name string, rig *armature.Armature) error {
	if err := s.Store.SaveRig(ctx, name, rig); err != nil {
		return err
	}
	return s.persist()
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }
