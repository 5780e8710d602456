package skin

import (
	"rigcore/pkg/armature"
)

// Parent is one layer of parent automation contributed for a control node.
// Parents are assembled structurally during composition, deduplicated by
// Equal, and materialized into mechanism bones by Build. Structural
// equality drives the dedup: two equal parents collapse into one shared
// mechanism.
type Parent interface {
	// Output returns the bone supplying the parent transform; valid after
	// Build.
	Output() string
	// Build materializes any mechanism bones the layer needs.
	Build(b *Builder) error
	// Equal reports structural equality for deduplication.
	Equal(other Parent) bool
}

// ParentOrg wraps an existing bone as parent automation, the base case of
// every parent stack.
type ParentOrg struct {
	Bone string
}

// Output returns the wrapped bone.
func (p *ParentOrg) Output() string { return p.Bone }

// Build is a no-op; the bone already exists.
func (p *ParentOrg) Build(*Builder) error { return nil }

// Equal matches other org wrappers of the same bone.
func (p *ParentOrg) Equal(other Parent) bool {
	o, ok := other.(*ParentOrg)
	return ok && o.Bone == p.Bone
}

// LocationInfluence is one falloff-weighted positional input to a
// ParentOffset: the driving node's motion applied at the given weight.
type LocationInfluence struct {
	Driver *ControlNode
	Weight float64
}

// ParentOffset layers falloff-weighted location offsets from chain driver
// controls on top of a base parent. This is how a stretchy chain
// propagates end and middle control motion to its intermediate nodes.
type ParentOffset struct {
	Rig  ChainRig
	Node *ControlNode
	Base Parent

	Influences []LocationInfluence

	built  bool
	output string
}

// AddCopyLocalLocation appends a weighted driver; zero weights are
// dropped at the source so they never show up in equality checks.
func (p *ParentOffset) AddCopyLocalLocation(driver *ControlNode, weight float64) {
	if weight <= 0 {
		return
	}
	p.Influences = append(p.Influences, LocationInfluence{Driver: driver, Weight: weight})
}

// Output returns the offset mechanism bone, or the base output when the
// layer collected no influences.
func (p *ParentOffset) Output() string {
	if p.output != "" {
		return p.output
	}
	return p.Base.Output()
}

// Build creates the offset mechanism bone and wires the weighted
// copy-location constraints reading each driver's reparent bone.
// Shared instances may be built from several sites; only the first
// call materializes.
func (p *ParentOffset) Build(b *Builder) error {
	if p.built {
		return nil
	}
	p.built = true
	if err := p.Base.Build(b); err != nil {
		return err
	}
	if len(p.Influences) == 0 {
		return nil
	}
	name := armature.DerivedName(p.Node.Name, armature.KindMch, "_poffset")
	bone, err := b.MakeGroupBone(p.Node.Group(), name, 1.0/4)
	if err != nil {
		return err
	}
	p.output = bone
	if err := b.arm.SetParent(bone, p.Base.Output(), armature.InheritScaleAverage); err != nil {
		return err
	}
	for _, inf := range p.Influences {
		target, err := b.ReparentBoneFor(inf.Driver)
		if err != nil {
			return err
		}
		con := armature.NewConstraint(armature.ConstraintCopyLocation, target)
		con.Name = "offset_" + inf.Driver.Name
		con.Influence = inf.Weight
		con.OwnerSpace = armature.SpaceLocal
		con.TargetSpace = armature.SpaceLocal
		con.MixMode = armature.MixOffset
		if err := b.arm.AddConstraint(bone, con); err != nil {
			return err
		}
	}
	return nil
}

// Equal matches offsets wrapping the same base for the same chain node
// with identical influence sets.
func (p *ParentOffset) Equal(other Parent) bool {
	o, ok := other.(*ParentOffset)
	if !ok || o.Rig != p.Rig || o.Node.Index != p.Node.Index || len(o.Influences) != len(p.Influences) {
		return false
	}
	if !p.Base.Equal(o.Base) {
		return false
	}
	for i, inf := range p.Influences {
		if o.Influences[i].Driver != inf.Driver || o.Influences[i].Weight != inf.Weight {
			return false
		}
	}
	return true
}

// ParentPropagate exposes a chain's internally propagated twist and scale
// as parent motion, so glue bones and other chains opting into merged
// parent rotation and scale can see it.
type ParentPropagate struct {
	Chain *Chain
	Node  *ControlNode
	Base  Parent

	built  bool
	output string
}

// Output returns the propagation mechanism bone.
func (p *ParentPropagate) Output() string {
	if p.output != "" {
		return p.output
	}
	return p.Base.Output()
}

// Build copies the node's handle bone into a parent mechanism bone and
// rigs the chain's twist/scale interpolation onto it.
func (p *ParentPropagate) Build(b *Builder) error {
	if p.built {
		return nil
	}
	p.built = true
	if err := p.Base.Build(b); err != nil {
		return err
	}
	if p.Node.Index >= len(p.Chain.Handles) {
		return nil
	}
	handle := p.Chain.Handles[p.Node.Index]
	bone, err := b.arm.CopyBone(handle, armature.DerivedName(handle, armature.KindMch, "_parent"))
	if err != nil {
		return err
	}
	p.output = bone.Name
	if err := b.arm.SetParent(p.output, p.Base.Output(), armature.InheritScaleAverage); err != nil {
		return err
	}
	return b.RigPropagate(p.Chain, p.output, p.Node)
}

// Equal matches propagation layers of the same chain node over equal
// bases.
func (p *ParentPropagate) Equal(other Parent) bool {
	o, ok := other.(*ParentPropagate)
	return ok && o.Chain == p.Chain && o.Node.Index == p.Node.Index && p.Base.Equal(o.Base)
}
