package rigs

import (
	"rigcore/internal/generate"
	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// ownRotation lets a generator expose its raw control orientation,
// bypassing the rotation-index redirection of ControlRotation.
type ownRotation interface {
	ownControlRotation() armature.Quat
}

// rigCommon carries the state and behavior shared by every skin
// generator: identity, the parameter block, and the default parent
// automation delegation up the generator hierarchy.
type rigCommon struct {
	rt     *generate.Runtime
	self   skin.ChainRig
	kind   string
	org    string
	def    *metarig.BoneDef
	params metarig.Params

	// rigParent is the org bone's parent as authored, captured before
	// any reparenting.
	rigParent string
}

func newRigCommon(rt *generate.Runtime, kind string, def *metarig.BoneDef, spec *metarig.RigSpec) rigCommon {
	org := armature.DerivedName(def.Name, armature.KindOrg, "")
	return rigCommon{
		rt:     rt,
		kind:   kind,
		org:    org,
		def:    def,
		params: spec.Params,
	}
}

func (c *rigCommon) Kind() string     { return c.kind }
func (c *rigCommon) Org() string      { return c.org }
func (c *rigCommon) BaseBone() string { return c.org }

func (c *rigCommon) ParentDepth() int {
	return c.rt.Arm.Depth(c.org)
}

// ParentRigs lists this generator followed by every ancestor chain
// generator, closest first. The composer applies parent extensions
// from the root down so the generator's own extension lands last.
func (c *rigCommon) ParentRigs() []skin.ChainRig {
	return append([]skin.ChainRig{c.self}, c.rt.ChainRigsAbove(c.org)...)
}

// BuildNodeParent delegates to the closest ancestor generator, falling
// back to a plain wrapper of the authored parent bone.
func (c *rigCommon) BuildNodeParent(node *skin.ControlNode) skin.Parent {
	if above := c.rt.ChainRigsAbove(c.org); len(above) > 0 {
		return above[0].BuildNodeParent(node)
	}
	return &skin.ParentOrg{Bone: c.rigParent}
}

// ExtendNodeParent adds nothing by default.
func (c *rigCommon) ExtendNodeParent(parent skin.Parent, node *skin.ControlNode) skin.Parent {
	return parent
}

// ControlRotation resolves the control orientation, honoring the
// rotation-index redirection to an ancestor generator.
func (c *rigCommon) ControlRotation() armature.Quat {
	list := c.ParentRigs()
	idx := c.params.RotationIndex
	if idx < 0 || idx >= len(list) {
		idx = 0
	}
	target := list[idx]
	if own, ok := target.(ownRotation); ok {
		return own.ownControlRotation()
	}
	return target.ControlRotation()
}

// ownControlRotation defaults to the rest orientation of the authored
// parent bone, matching the host's untagged-chain behavior.
func (c *rigCommon) ownControlRotation() armature.Quat {
	name := c.rigParent
	if name == "" {
		name = c.org
	}
	return boneRestRotation(c.rt.Arm, name)
}

func boneRestRotation(arm *armature.Armature, name string) armature.Quat {
	b, ok := arm.Bone(name)
	if !ok {
		return armature.QuatIdent()
	}
	return armature.ChainOrientation(b.Head, b.Tail, b.Direction())
}

// captureParent records the authored parent bone; called once from
// Initialize before the generator reparents anything.
func (c *rigCommon) captureParent() {
	if b, ok := c.rt.Arm.Bone(c.org); ok {
		c.rigParent = b.Parent
	}
}

func (c *rigCommon) builder() *skin.Builder { return c.rt.Builder }

// Default no-op phases; concrete generators override what they need.
func (c *rigCommon) Initialize() error    { return nil }
func (c *rigCommon) RegisterNodes() error { return nil }
func (c *rigCommon) GenerateBones() error { return nil }
func (c *rigCommon) ParentBones() error   { return nil }
func (c *rigCommon) RigBones() error      { return nil }
func (c *rigCommon) Finalize() error      { return nil }
