package rigs

import (
	"rigcore/internal/generate"
	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// anchor registers a single always-winning control node, seeding
// external automation into the merge system. Chains that meet the
// anchor's position merge into its control instead of growing their
// own.
type anchor struct {
	rigCommon

	node   *skin.ControlNode
	deform string
}

func newAnchor(rt *generate.Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (generate.Generator, error) {
	r := &anchor{rigCommon: newRigCommon(rt, KindAnchor, def, spec)}
	r.self = r
	return r, nil
}

func (c *anchor) Initialize() error {
	c.captureParent()
	return nil
}

func (c *anchor) ownControlRotation() armature.Quat {
	return boneRestRotation(c.rt.Arm, c.org)
}

func (c *anchor) RegisterNodes() error {
	bone := c.rt.Arm.MustBone(c.org)
	c.node = &skin.ControlNode{
		Rig:          c.self,
		Kind:         skin.NodeControl,
		Org:          c.org,
		Name:         armature.DerivedName(c.org, armature.KindCtrl, ""),
		Point:        bone.Head,
		Size:         bone.Length(),
		CanMerge:     false,
		Anchor:       true,
		Priority:     c.params.Priority,
		ParentSwitch: c.params.ParentSwitch,
	}
	c.rt.Nodes.Register(c.node)
	return nil
}

func (c *anchor) GenerateBones() error {
	if !c.params.MakeDeformOrDefault() {
		return nil
	}
	bone, err := c.rt.Arm.CopyBone(c.org, armature.DerivedName(c.org, armature.KindDef, ""))
	if err != nil {
		return err
	}
	bone.Deform = true
	c.deform = bone.Name
	return nil
}

func (c *anchor) ParentBones() error {
	control := c.node.ControlBone()
	if control != "" {
		if err := c.rt.Arm.SetParent(c.org, control, ""); err != nil {
			return err
		}
	}
	if c.deform != "" {
		return c.rt.Arm.SetParent(c.deform, c.org, "")
	}
	return nil
}

func (c *anchor) Finalize() error {
	g := c.node.Group()
	if g == nil || g.ControlBone == "" {
		return nil
	}
	bone := c.rt.Arm.MustBone(g.ControlBone)
	bone.Widget = "cube"
	if c.params.AnchorHide && len(g.Nodes) == 1 {
		bone.Hidden = true
	}
	return nil
}
