// Package memory implements the rig library store in process memory.
// The snapshotting SQL backends embed it and persist its exported state.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"rigcore/internal/library"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// Store holds definitions and rigs in maps guarded by a single mutex.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]library.Record
	rigs        map[string]library.Record
}

// NewStore returns an empty in-memory library store.
func NewStore() *Store {
	return &Store{
		definitions: make(map[string]library.Record),
		rigs:        make(map[string]library.Record),
	}
}

func (s *Store) SaveDefinition(_ context.Context, def *metarig.Definition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("library: definition name required")
	}
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("library: encode definition %s: %w", def.Name, err)
	}
	s.mu.Lock()
	s.definitions[def.Name] = library.Record{Payload: payload, UpdatedAt: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

func (s *Store) Definition(_ context.Context, name string) (*metarig.Definition, error) {
	s.mu.RLock()
	rec, ok := s.definitions[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("definition %s: %w", name, library.ErrNotFound)
	}
	var def metarig.Definition
	if err := json.Unmarshal(rec.Payload, &def); err != nil {
		return nil, fmt.Errorf("library: decode definition %s: %w", name, err)
	}
	return &def, nil
}

func (s *Store) Definitions(_ context.Context) ([]library.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entries(s.definitions), nil
}

func (s *Store) SaveRig(_ context.Context, name string, rig *armature.Armature) error {
	if name == "" {
		return fmt.Errorf("library: rig name required")
	}
	payload, err := json.Marshal(rig)
	if err != nil {
		return fmt.Errorf("library: encode rig %s: %w", name, err)
	}
	s.mu.Lock()
	s.rigs[name] = library.Record{Payload: payload, UpdatedAt: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

func (s *Store) Rig(_ context.Context, name string) (*armature.Armature, error) {
	s.mu.RLock()
	rec, ok := s.rigs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rig %s: %w", name, library.ErrNotFound)
	}
	rig := armature.New()
	if err := json.Unmarshal(rec.Payload, rig); err != nil {
		return nil, fmt.Errorf("library: decode rig %s: %w", name, err)
	}
	return rig, nil
}

func (s *Store) Rigs(_ context.Context) ([]library.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return entries(s.rigs), nil
}

func (s *Store) Close() error { return nil }

// ExportState returns a deep copy of the store contents.
func (s *Store) ExportState() library.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return library.Snapshot{
		Definitions: cloneRecords(s.definitions),
		Rigs:        cloneRecords(s.rigs),
	}
}

// ImportState replaces the store contents with the snapshot.
func (s *Store) ImportState(snapshot library.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions = cloneRecords(snapshot.Definitions)
	s.rigs = cloneRecords(snapshot.Rigs)
	if s.definitions == nil {
		s.definitions = make(map[string]library.Record)
	}
	if s.rigs == nil {
		s.rigs = make(map[string]library.Record)
	}
}

func entries(m map[string]library.Record) []library.Entry {
	out := make([]library.Entry, 0, len(m))
	for name, rec := range m {
		out = append(out, library.Entry{Name: name, UpdatedAt: rec.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func cloneRecords(in map[string]library.Record) map[string]library.Record {
	if in == nil {
		return nil
	}
	out := make(map[string]library.Record, len(in))
	for k, v := range in {
		payload := make(json.RawMessage, len(v.Payload))
		copy(payload, v.Payload)
		out[k] = library.Record{Payload: payload, UpdatedAt: v.UpdatedAt}
	}
	return out
}
