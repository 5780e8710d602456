// Package generate orchestrates rig generation: it instantiates the
// generator tagged on each metarig bone, runs the staged build protocol
// over the shared control-merge state, and returns the finished
// armature.
package generate

import (
	"fmt"
	"sort"

	"rigcore/pkg/metarig"
)

// Generator is one rig instance working on one tagged metarig bone.
// The service drives every instance through the stages in order; all
// node registration happens strictly before the registry freezes.
type Generator interface {
	// Kind returns the registered generator type name.
	Kind() string
	// Org returns the generator's base org bone.
	Org() string

	// Initialize validates parameters and collects the input bones.
	Initialize() error
	// RegisterNodes publishes the generator's control points into the
	// shared merge registry.
	RegisterNodes() error
	// GenerateBones creates mechanism and deform bones.
	GenerateBones() error
	// ParentBones wires the created bones into the hierarchy.
	ParentBones() error
	// RigBones attaches constraints and drivers.
	RigBones() error
	// Finalize assigns widgets and applies remaining cosmetic state.
	Finalize() error
}

// Factory constructs a generator instance for a tagged bone.
type Factory func(rt *Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (Generator, error)

// Registry maps generator type names to factories. Registration
// happens once at startup; duplicate names are rejected so plugins
// cannot silently shadow each other.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry constructs an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given type name.
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" || f == nil {
		return fmt.Errorf("generate: factory registration requires a kind and a factory")
	}
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("generate: generator type %s already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Kinds returns the registered type names, sorted.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// New instantiates a generator for the tagged bone.
func (r *Registry) New(rt *Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (Generator, error) {
	f, ok := r.factories[spec.Type]
	if !ok {
		return nil, &ConfigError{Bone: def.Name, Kind: spec.Type, Err: fmt.Errorf("unknown generator type")}
	}
	gen, err := f(rt, def, spec)
	if err != nil {
		return nil, WrapConfig(def.Name, spec.Type, err)
	}
	return gen, nil
}
