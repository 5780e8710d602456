package rigs

import (
	"fmt"

	"rigcore/internal/generate"
	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// glue attaches an org bone to whatever control another generator placed
// at its head, without producing a control of its own. Authored
// constraints on the glue bone are moved onto the found control, with
// relink placeholders resolved against the head and tail lookups.
type glue struct {
	rigCommon

	mode    metarig.GlueMode
	useTail bool

	head *skin.ControlNode
	tail *skin.ControlNode
}

func newGlue(rt *generate.Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (generate.Generator, error) {
	r := &glue{rigCommon: newRigCommon(rt, KindGlue, def, spec)}
	r.self = r
	r.mode = r.params.GlueModeOrDefault()
	r.useTail = r.params.RelinkConstraints && r.params.GlueUseTail
	switch r.mode {
	case metarig.GlueChild, metarig.GlueMirror, metarig.GlueReparent:
	default:
		return nil, fmt.Errorf("unknown glue mode %q", r.mode)
	}
	return r, nil
}

func (c *glue) Initialize() error {
	c.captureParent()
	return nil
}

func (c *glue) RegisterNodes() error {
	bone := c.rt.Arm.MustBone(c.org)
	c.head = &skin.ControlNode{
		Rig:           c.self,
		Kind:          skin.NodeQuery,
		Org:           c.org,
		Name:          armature.DerivedName(c.org, armature.KindCtrl, ""),
		Point:         bone.Head,
		Size:          bone.Length(),
		NeedsReparent: c.mode == metarig.GlueReparent || c.params.MergeParent,
	}
	c.rt.Nodes.Register(c.head)
	if c.useTail {
		c.tail = &skin.ControlNode{
			Rig:           c.self,
			Kind:          skin.NodeQuery,
			Org:           c.org,
			Name:          armature.DerivedName(c.org, armature.KindCtrl, "_tail"),
			Point:         bone.Tail,
			Size:          bone.Length(),
			NeedsReparent: c.params.GlueTailReparent,
		}
		c.rt.Nodes.Register(c.tail)
	}
	return nil
}

// headControl returns the control another generator grew at the glue
// bone's head position.
func (c *glue) headControl() (string, error) {
	g := c.head.Group()
	if g == nil || g.ControlBone == "" {
		return "", fmt.Errorf("no control found at glue head of %s", armature.StripKindPrefix(c.org))
	}
	return g.ControlBone, nil
}

func (c *glue) ParentBones() error {
	control, err := c.headControl()
	if err != nil {
		return err
	}
	switch c.mode {
	case metarig.GlueChild:
		return c.rt.Arm.SetParent(c.org, control, armature.InheritScaleAverage)
	case metarig.GlueMirror:
		parent := c.rt.Arm.MustBone(control).Parent
		if parent == "" {
			return nil
		}
		return c.rt.Arm.SetParent(c.org, parent, armature.InheritScaleAverage)
	case metarig.GlueReparent:
		if c.head.MergedParent == nil {
			return nil
		}
		// Query-node parent stacks are not part of any group's parent
		// list, so materialize here.
		if err := c.head.MergedParent.Build(c.builder()); err != nil {
			return err
		}
		return c.rt.Arm.SetParent(c.org, c.head.MergedParent.Output(), armature.InheritScaleAverage)
	}
	return nil
}

func (c *glue) RigBones() error {
	control, err := c.headControl()
	if err != nil {
		return err
	}
	if c.mode != metarig.GlueChild {
		target := control
		if c.params.MergeParent {
			// Read through the reparent bone so parent-propagated
			// rotation and scale reach the glue bone too.
			target, err = c.builder().ReparentBoneFor(c.head)
			if err != nil {
				return err
			}
		}
		con := armature.NewConstraint(armature.ConstraintCopyTransforms, target)
		con.Name = "glue_" + armature.StripKindPrefix(c.org)
		con.OwnerSpace = armature.SpaceLocal
		con.TargetSpace = armature.SpaceLocal
		con.MixMode = armature.MixReplace
		if err := c.rt.Arm.AddConstraint(c.org, con); err != nil {
			return err
		}
	}
	return c.moveConstraints(control)
}

// moveConstraints transfers the authored glue constraints from the org
// bone onto the found control, resolving relink placeholders.
func (c *glue) moveConstraints(control string) error {
	org := c.rt.Arm.MustBone(c.org)
	authored := org.Constraints
	org.Constraints = nil
	for _, con := range authored {
		if c.params.RelinkConstraints {
			target, err := c.relinkTarget(con.RelinkSpec, con.Target, control)
			if err != nil {
				return err
			}
			con.Target = target
		}
		con.RelinkSpec = ""
		if err := c.rt.Arm.AddConstraint(control, con); err != nil {
			return err
		}
	}
	return nil
}

// relinkTarget resolves a constraint relink placeholder. "CONTROL" names
// the head control, "TARGET" the tail lookup, any other non-empty spec a
// literal bone, and an empty spec keeps the authored target except when
// the target is also empty and a tail lookup exists.
func (c *glue) relinkTarget(spec, target, control string) (string, error) {
	switch spec {
	case "CONTROL":
		return control, nil
	case "TARGET":
		return c.tailOutput()
	case "":
		if target == "" && c.useTail {
			return c.tailOutput()
		}
		return target, nil
	default:
		return spec, nil
	}
}

func (c *glue) tailOutput() (string, error) {
	if c.tail == nil {
		return "", fmt.Errorf("glue %s has no tail lookup for relink target", armature.StripKindPrefix(c.org))
	}
	g := c.tail.Group()
	if g == nil || g.ControlBone == "" {
		return "", fmt.Errorf("no control found at glue tail of %s", armature.StripKindPrefix(c.org))
	}
	if c.params.GlueTailReparent {
		return c.builder().ReparentBoneFor(c.tail)
	}
	return g.ControlBone, nil
}
