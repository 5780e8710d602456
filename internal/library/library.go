// Package library defines the persistent rig library contract: named
// metarig definitions and generated rig snapshots stored as JSON
// payloads. Backends live in sibling packages.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// ErrNotFound is returned when a named definition or rig is absent.
var ErrNotFound = errors.New("library: not found")

// Entry lists a stored item.
type Entry struct {
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is one stored payload with its write time.
type Record struct {
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Snapshot is the full exportable state of a store, used by the
// snapshotting backends.
type Snapshot struct {
	Definitions map[string]Record `json:"definitions,omitempty"`
	Rigs        map[string]Record `json:"rigs,omitempty"`
}

// Store persists metarig definitions and generated rigs by name.
// Saves overwrite; lookups of absent names return ErrNotFound.
type Store interface {
	SaveDefinition(ctx context.Context, def *metarig.Definition) error
	Definition(ctx context.Context, name string) (*metarig.Definition, error)
	Definitions(ctx context.Context) ([]Entry, error)

	SaveRig(ctx context.Context, name string, rig *armature.Armature) error
	Rig(ctx context.Context, name string) (*armature.Armature, error)
	Rigs(ctx context.Context) ([]Entry, error)

	Close() error
}
