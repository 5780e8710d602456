package rigs

import (
	"fmt"
	"math"

	"rigcore/internal/generate"
	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// chainBase is the shared machinery of the chain generators: it
// collects the connected org run, registers a control node at every
// joint, and drives the builder's handle, org and deform mechanisms.
type chainBase struct {
	rigCommon

	orgs  []string
	chain *skin.Chain
	nodes []*skin.ControlNode

	// length is the average org bone length, the sizing unit for
	// controls and handles.
	length   float64
	rotation armature.Quat
	deforms  []string

	// withPre separates the automatic tangent layer into its own bones
	// so propagation can isolate user-applied twist.
	withPre bool

	// minLength is the smallest allowed org run for this generator.
	minLength int
}

func (c *chainBase) Initialize() error {
	c.captureParent()
	c.orgs = append([]string{c.org}, c.rt.Arm.ConnectedChildren(c.org)...)
	if len(c.orgs) < c.minLength {
		return fmt.Errorf("requires a chain of %d or more connected bones", c.minLength)
	}
	if c.params.Segments < 0 {
		return fmt.Errorf("invalid segment count %d", c.params.Segments)
	}

	lengths := make([]float64, 0, len(c.orgs)+1)
	lengths = append(lengths, 0)
	total := 0.0
	for _, org := range c.orgs {
		total += c.rt.Arm.MustBone(org).Length()
		lengths = append(lengths, total)
	}
	c.length = total / float64(len(c.orgs))

	first := c.rt.Arm.MustBone(c.orgs[0])
	last := c.rt.Arm.MustBone(c.orgs[len(c.orgs)-1])
	c.rotation = armature.ChainOrientation(first.Head, last.Tail, first.Direction())

	c.chain = &skin.Chain{
		Rig:            c.self,
		Orgs:           c.orgs,
		Segments:       c.params.SegmentsOrDefault(),
		ConnectMirror:  c.params.ConnectMirrorOrDefault(),
		ConnectEnds:    c.params.ConnectEnds,
		SharpenCorners: c.params.SharpenCorners,
		CornerAngle:    c.params.CornerAngleOrDefault() * degToRad,
		Lengths:        lengths,
	}
	return nil
}

const degToRad = math.Pi / 180

func (c *chainBase) ownControlRotation() armature.Quat { return c.rotation }

func (c *chainBase) RegisterNodes() error {
	for i, org := range c.orgs {
		bone := c.rt.Arm.MustBone(org)
		c.addNode(i, org, bone.Head, armature.DerivedName(org, armature.KindCtrl, ""))
	}
	last := c.orgs[len(c.orgs)-1]
	bone := c.rt.Arm.MustBone(last)
	c.addNode(len(c.orgs), last, bone.Tail, armature.DerivedName(last, armature.KindCtrl, "_end"))

	c.nodes[0].ChainEndNeighbor = c.nodes[1]
	c.nodes[len(c.nodes)-1].ChainEndNeighbor = c.nodes[len(c.nodes)-2]
	c.chain.Nodes = c.nodes
	return nil
}

func (c *chainBase) addNode(i int, org string, point armature.Vec3, name string) *skin.ControlNode {
	node := &skin.ControlNode{
		Rig:          c.self,
		Chain:        c.chain,
		Kind:         skin.NodeControl,
		Org:          org,
		Name:         name,
		Point:        point,
		Size:         c.length / 3,
		Index:        i,
		CanMerge:     true,
		Priority:     c.params.Priority,
		ParentSwitch: c.params.ParentSwitch,
	}
	c.rt.Nodes.Register(node)
	c.nodes = append(c.nodes, node)
	return node
}

func (c *chainBase) GenerateBones() error {
	b := c.builder()
	if err := b.BuildHandleChain(c.chain, c.withPre); err != nil {
		return err
	}
	if c.params.MakeDeformOrDefault() {
		defs, err := b.BuildDeformChain(c.chain)
		if err != nil {
			return err
		}
		c.deforms = defs
	}
	return nil
}

func (c *chainBase) ParentBones() error {
	b := c.builder()
	if err := b.ParentHandleChain(c.chain, c.rigParent); err != nil {
		return err
	}
	if err := b.ParentOrgChain(c.chain, c.rigParent); err != nil {
		return err
	}
	return b.ParentDeformChain(c.chain, c.deforms, c.rigParent)
}

func (c *chainBase) RigBones() error {
	b := c.builder()
	if err := b.RigHandleChain(c.chain); err != nil {
		return err
	}
	if err := b.RigOrgChain(c.chain); err != nil {
		return err
	}
	if err := b.RigDeformChain(c.chain, c.deforms); err != nil {
		return err
	}
	b.ApplyCornerSharpening(c.chain, c.deforms)
	return nil
}

func (c *chainBase) Finalize() error {
	for _, node := range c.nodes {
		if !node.IsMaster() {
			continue
		}
		if g := node.Group(); g != nil && g.ControlBone != "" {
			c.rt.Arm.MustBone(g.ControlBone).Widget = "sphere"
		}
	}
	return nil
}

// basicChain is a skin chain with completely independent control
// nodes: no falloff propagation between them.
type basicChain struct {
	chainBase
}

func newBasicChain(rt *generate.Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (generate.Generator, error) {
	r := &basicChain{chainBase{rigCommon: newRigCommon(rt, KindBasicChain, def, spec), minLength: 1}}
	r.self = r
	return r, nil
}
