package rigs

import (
	"fmt"

	"rigcore/internal/generate"
	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// stretchyChain propagates motion of its end and middle controls along
// the whole chain with configurable falloff, stretching the chain as a
// whole rather than just the immediately connected segments.
type stretchyChain struct {
	chainBase

	falloff  skin.FalloffTriple
	pivotPos int
}

func newStretchyChain(rt *generate.Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (generate.Generator, error) {
	r := &stretchyChain{chainBase: chainBase{rigCommon: newRigCommon(rt, KindStretchyChain, def, spec), minLength: 2}}
	r.self = r
	return r, nil
}

func (c *stretchyChain) Initialize() error {
	if err := c.chainBase.Initialize(); err != nil {
		return err
	}
	c.pivotPos = c.params.PivotPosition
	if c.pivotPos < 0 || c.pivotPos >= len(c.orgs) {
		return fmt.Errorf("invalid middle control position %d", c.pivotPos)
	}
	c.falloff = skin.NewFalloffTriple(c.params.FalloffOrDefault(), c.params.FalloffSpherical)

	c.chain.Falloff = c.falloff
	c.chain.AlongChain = c.params.FalloffAlongChain
	c.chain.PropagateTwist = c.params.PropagateTwistOrDefault()
	c.chain.PropagateScale = c.params.PropagateScale
	c.chain.PropagateToControls = c.params.PropagateToControls
	c.chain.PivotPos = c.pivotPos
	c.withPre = c.chain.PropagateTwist || c.chain.PropagateScale
	return nil
}

func (c *stretchyChain) RegisterNodes() error {
	if err := c.chainBase.RegisterNodes(); err != nil {
		return err
	}
	// End and pivot controls drive the falloff offsets; their merged
	// motion must stay observable under their own parent stack.
	last := len(c.nodes) - 1
	c.nodes[0].NeedsReparent = c.falloff[skin.FalloffStart].Enabled()
	c.nodes[last].NeedsReparent = c.falloff[skin.FalloffEnd].Enabled()
	if c.pivotPos > 0 {
		c.nodes[c.pivotPos].NeedsReparent = c.falloff[skin.FalloffMid].Enabled()
	}
	return nil
}

// ExtendNodeParent layers falloff-weighted location offsets from the
// chain's driver controls onto the parent stacks of its intermediate
// nodes, plus the twist/scale exposure layer when propagation is
// shared with outside consumers.
func (c *stretchyChain) ExtendNodeParent(parent skin.Parent, node *skin.ControlNode) skin.Parent {
	last := len(c.nodes) - 1
	if node.Rig != c.self || node.Index == 0 || node.Index == last {
		return parent
	}

	offset := &skin.ParentOffset{Rig: c.self, Node: node, Base: parent}
	factor := c.chain.PivotFactor(node.Point, node.Index)

	if c.falloff[skin.FalloffStart].Enabled() {
		offset.AddCopyLocalLocation(c.nodes[0], c.falloff[skin.FalloffStart].Weight(1-factor))
	}
	if c.falloff[skin.FalloffEnd].Enabled() {
		offset.AddCopyLocalLocation(c.nodes[last], c.falloff[skin.FalloffEnd].Weight(factor))
	}
	if c.pivotPos > 0 && node.Index != c.pivotPos && c.falloff[skin.FalloffMid].Enabled() {
		pivotFactor := c.chain.PivotFactor(c.nodes[c.pivotPos].Point, c.pivotPos)
		var t float64
		if node.Index < c.pivotPos {
			t = safeRatio(factor, pivotFactor)
		} else {
			t = safeRatio(1-factor, 1-pivotFactor)
		}
		offset.AddCopyLocalLocation(c.nodes[c.pivotPos], c.falloff[skin.FalloffMid].Weight(armature.Clamp(t)))
	}

	var result skin.Parent = offset
	if len(offset.Influences) == 0 {
		result = parent
	}

	if node.Index != c.pivotPos && c.chain.PropagateToControls && c.withPre {
		result = &skin.ParentPropagate{Chain: c.chain, Node: node, Base: result}
	}
	return result
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func (c *stretchyChain) RigBones() error {
	if err := c.chainBase.RigBones(); err != nil {
		return err
	}
	// Interior handles interpolate twist and scale between the chain's
	// driver controls.
	b := c.builder()
	if !c.chain.Multisegment() {
		return nil
	}
	for i, node := range c.chain.Nodes {
		if i >= len(c.chain.Handles) {
			break
		}
		if err := b.RigPropagate(c.chain, c.chain.Handles[i], node); err != nil {
			return err
		}
	}
	return nil
}

func (c *stretchyChain) Finalize() error {
	if err := c.chainBase.Finalize(); err != nil {
		return err
	}
	// Driver controls read better as cubes among the tweak spheres.
	drivers := []int{0, len(c.nodes) - 1}
	if c.pivotPos > 0 {
		drivers = append(drivers, c.pivotPos)
	}
	for _, idx := range drivers {
		node := c.nodes[idx]
		if !node.IsMaster() {
			continue
		}
		if g := node.Group(); g != nil && g.ControlBone != "" {
			c.rt.Arm.MustBone(g.ControlBone).Widget = "cube"
		}
	}
	return nil
}

// pivotChain is a stretchy chain with a mandatory middle pivot
// control, for chains whose dominant driver sits inside the run.
type pivotChain struct {
	stretchyChain
}

func newPivotChain(rt *generate.Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (generate.Generator, error) {
	r := &pivotChain{stretchyChain{chainBase: chainBase{rigCommon: newRigCommon(rt, KindPivotChain, def, spec), minLength: 2}}}
	r.self = r
	return r, nil
}

func (c *pivotChain) Initialize() error {
	if err := c.stretchyChain.Initialize(); err != nil {
		return err
	}
	if c.pivotPos == 0 {
		return fmt.Errorf("pivot chain requires a middle control position")
	}
	return nil
}
