package generate

import (
	"log/slog"

	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// Runtime is the shared state of one generation run, handed to every
// generator instance. Generators read the definition and armature,
// publish nodes into the merge registry, and build through the builder
// once the registry is frozen.
type Runtime struct {
	Def     *metarig.Definition
	Arm     *armature.Armature
	Nodes   *skin.Registry
	Builder *skin.Builder
	Log     *slog.Logger

	byOrg map[string]Generator
}

func newRuntime(def *metarig.Definition, arm *armature.Armature, log *slog.Logger) *Runtime {
	return &Runtime{
		Def:   def,
		Arm:   arm,
		Nodes: skin.NewRegistry(armatureHierarchy{arm}),
		Log:   log,
		byOrg: make(map[string]Generator),
	}
}

// ChainRigsAbove walks the ancestors of the org bone from closest to
// root and returns every chain generator found on the way. Generators
// use this to locate the parent rigs that contribute automation and
// orientation.
func (rt *Runtime) ChainRigsAbove(org string) []skin.ChainRig {
	var out []skin.ChainRig
	for _, ancestor := range rt.Arm.Ancestors(org) {
		if gen, ok := rt.byOrg[ancestor].(skin.ChainRig); ok {
			out = append(out, gen)
		}
	}
	return out
}

// armatureHierarchy adapts the armature to the merge registry's view of
// the bone graph.
type armatureHierarchy struct {
	arm *armature.Armature
}

func (h armatureHierarchy) ParentOf(bone string) string {
	if b, ok := h.arm.Bone(bone); ok {
		return b.Parent
	}
	return ""
}

func (h armatureHierarchy) DepthOf(bone string) int {
	return h.arm.Depth(bone)
}
