package skin

import (
	"fmt"
	"math"
	"strings"

	"rigcore/pkg/armature"
)

// Warning records a non-fatal geometric or structural anomaly found
// while building. Generation continues with a safe substitute.
type Warning struct {
	Bone    string
	Message string
}

func (w Warning) String() string {
	if w.Bone == "" {
		return w.Message
	}
	return w.Bone + ": " + w.Message
}

// Builder materializes the composed merge groups and chains into
// armature bones, constraints and drivers. It is handed to the
// generators during the bone, parent and rig phases; group-level
// bones are produced by BuildGroupBones and friends, while chain
// mechanisms come from the chain helpers.
type Builder struct {
	arm      *armature.Armature
	reg      *Registry
	warnings []Warning
}

// NewBuilder wraps a frozen registry and the armature under
// construction.
func NewBuilder(arm *armature.Armature, reg *Registry) *Builder {
	if !reg.Frozen() {
		panic("skin: builder requires a frozen registry")
	}
	return &Builder{arm: arm, reg: reg}
}

// Armature returns the armature being built.
func (b *Builder) Armature() *armature.Armature { return b.arm }

// Warnings returns all warnings collected so far, in emission order.
func (b *Builder) Warnings() []Warning { return b.warnings }

// Warnf records a warning attributed to the given bone.
func (b *Builder) Warnf(bone, format string, args ...any) {
	b.warnings = append(b.warnings, Warning{Bone: bone, Message: fmt.Sprintf(format, args...)})
}

// MakeGroupBone creates a bone at the group's merged position, aimed
// along the group's averaged rotation and sized by the averaged node
// size times scale. Mechanism names hide the bone.
func (b *Builder) MakeGroupBone(g *MergeGroup, name string, scale float64) (string, error) {
	if g == nil || g.Master == nil {
		return "", fmt.Errorf("skin: cannot make bone for query-only group")
	}
	unique := b.arm.UniqueName(name)
	length := g.Size * scale
	if length <= 0 {
		length = armature.PositionTolerance
	}
	axis := g.Rotation.Rotate(armature.Vec3{0, 1, 0})
	bone := &armature.Bone{
		Name:         unique,
		Head:         g.Master.Point,
		Tail:         g.Master.Point.Add(axis.Mul(length)),
		Rotation:     g.Rotation,
		InheritScale: armature.InheritScaleAverage,
		Hidden:       strings.HasPrefix(unique, "MCH-"),
	}
	if _, err := b.arm.AddBone(bone); err != nil {
		return "", err
	}
	return unique, nil
}

// BuildGroupBones creates the control bone for every merge group and,
// where a group is driven by more than one parent automation stack,
// the intermediate parent-mix bone. Parent stacks themselves are
// built afterwards so that reparent requests resolve lazily against
// existing controls.
func (b *Builder) BuildGroupBones() error {
	for _, g := range b.reg.Groups() {
		if g.QueryOnly() {
			continue
		}
		ctrl, err := b.MakeGroupBone(g, armature.DerivedName(g.Master.Name, armature.KindCtrl, ""), 1)
		if err != nil {
			return err
		}
		g.ControlBone = ctrl
		if len(g.Parents) > 1 {
			mix, err := b.MakeGroupBone(g, armature.DerivedName(g.Master.Name, armature.KindMch, "_mix_parent"), 0.5)
			if err != nil {
				return err
			}
			g.MixParentBone = mix
		}
	}
	for _, g := range b.reg.Groups() {
		for _, p := range g.Parents {
			if err := p.Build(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParentGroupBones wires each control under its parent automation
// output, inserting the mix bone when several stacks apply.
func (b *Builder) ParentGroupBones() error {
	for _, g := range b.reg.Groups() {
		if g.QueryOnly() {
			continue
		}
		switch len(g.Parents) {
		case 0:
		case 1:
			if out := g.Parents[0].Output(); out != "" {
				if err := b.arm.SetParent(g.ControlBone, out, armature.InheritScaleAverage); err != nil {
					return err
				}
			}
		default:
			if err := b.arm.SetParent(g.ControlBone, g.MixParentBone, armature.InheritScaleAverage); err != nil {
				return err
			}
		}
	}
	return nil
}

// RigGroupBones adds the group level constraints when several parents
// compete for one control: either the equal armature blend on the mix
// bone, or the property-driven switch when the owner asked for one.
func (b *Builder) RigGroupBones() error {
	for _, g := range b.reg.Groups() {
		if g.MixParentBone == "" {
			continue
		}
		if g.Master.ParentSwitch {
			if err := b.rigSwitchParent(g); err != nil {
				return err
			}
			continue
		}
		con := armature.NewConstraint(armature.ConstraintArmature, "")
		weight := 1.0 / float64(len(g.Parents))
		for _, p := range g.Parents {
			if out := p.Output(); out != "" {
				con.Targets = append(con.Targets, armature.ArmatureTarget{Bone: out, Weight: weight})
			}
		}
		if len(con.Targets) > 0 {
			if err := b.arm.AddConstraint(g.MixParentBone, con); err != nil {
				return err
			}
		}
	}
	return nil
}

// rigSwitchParent exposes the competing parent stacks as an animator
// choice: a parent_switch property on the control selects the followed
// stack, zero meaning none. The armature targets start at zero weight
// and a driver raises exactly one of them.
func (b *Builder) rigSwitchParent(g *MergeGroup) error {
	con := armature.NewConstraint(armature.ConstraintArmature, "")
	con.Name = "SWITCH_PARENT"
	names := []string{"None (0)"}
	for _, p := range g.Parents {
		if out := p.Output(); out != "" {
			con.Targets = append(con.Targets, armature.ArmatureTarget{Bone: out})
			names = append(names, fmt.Sprintf("%s (%d)", armature.StripKindPrefix(out), len(con.Targets)))
		}
	}
	if len(con.Targets) == 0 {
		return nil
	}
	if err := b.arm.AddConstraint(g.MixParentBone, con); err != nil {
		return err
	}
	b.arm.MustBone(g.ControlBone).Properties = append(b.arm.MustBone(g.ControlBone).Properties, armature.Property{
		Name:        "parent_switch",
		Value:       float64(len(con.Targets)),
		Max:         float64(len(con.Targets)),
		Description: "Switch parent: " + strings.Join(names, ", "),
	})
	for i := range con.Targets {
		drv := armature.Driver{
			Property:   fmt.Sprintf("constraints[%q].targets[%d].weight", con.Name, i),
			Expression: fmt.Sprintf("var == %d", i+1),
			Variables:  []armature.DriverVar{armature.PropVar("var", g.ControlBone, "parent_switch")},
		}
		if err := b.arm.AddDriver(g.MixParentBone, drv); err != nil {
			return err
		}
	}
	return nil
}

// ReparentBoneFor returns the mechanism bone carrying the node's
// merged control motion re-expressed under the node's own parent
// stack, creating it on first request. Nodes that merged away into a
// foreign group still drive their original chain through this bone.
func (b *Builder) ReparentBoneFor(n *ControlNode) (string, error) {
	g := n.Group()
	if g == nil || g.ControlBone == "" {
		return "", fmt.Errorf("skin: node %q has no built control group", n.Name)
	}
	parent := n.MergedParent
	if parent == nil && g.Master != nil {
		parent = g.Master.MergedParent
	}
	for _, entry := range g.reparents {
		if parentsEqual(entry.parent, parent) {
			return entry.bone, nil
		}
	}
	name, err := b.MakeGroupBone(g, armature.DerivedName(g.Master.Name, armature.KindMch, "_reparent"), 0.25)
	if err != nil {
		return "", err
	}
	if parent != nil {
		if err := parent.Build(b); err != nil {
			return "", err
		}
		if out := parent.Output(); out != "" {
			if err := b.arm.SetParent(name, out, armature.InheritScaleAverage); err != nil {
				return "", err
			}
		}
	}
	con := armature.NewConstraint(armature.ConstraintCopyTransforms, g.ControlBone)
	con.TargetSpace = armature.SpaceLocal
	con.OwnerSpace = armature.SpaceLocal
	if err := b.arm.AddConstraint(name, con); err != nil {
		return "", err
	}
	g.reparents = append(g.reparents, &reparentEntry{parent: parent, bone: name})
	return name, nil
}

func parentsEqual(a, p Parent) bool {
	if a == nil || p == nil {
		return a == p
	}
	return a.Equal(p)
}

// controlBoneOf resolves the merged control bone a chain mechanism
// should follow for a node.
func (b *Builder) controlBoneOf(n *ControlNode) (string, error) {
	g := n.Group()
	if g == nil || g.ControlBone == "" {
		return "", fmt.Errorf("skin: node %q has no built control group", n.Name)
	}
	return g.ControlBone, nil
}

// BuildHandleChain creates the per-node handle mechanism bones for a
// multisegment chain. Each of the chain's own nodes receives a handle
// aimed along the average direction through its neighbors; when the
// chain shares its end with the start of a partner chain the final
// handle is borrowed from that partner instead.
func (b *Builder) BuildHandleChain(c *Chain, withPre bool) error {
	if len(c.Nodes) < 2 {
		return fmt.Errorf("skin: chain %q needs at least two nodes", c.chainName())
	}
	if !c.Multisegment() {
		return nil
	}
	seq := c.extendedNodes()
	for i := 1; i <= len(seq)-2; i++ {
		node := seq[i]
		handle, err := b.makeHandleBone(node, seq[i-1], seq[i+1], "_handle")
		if err != nil {
			return err
		}
		c.Handles = append(c.Handles, handle)
		if withPre {
			pre, err := b.makeHandleBone(node, seq[i-1], seq[i+1], "_handle_pre")
			if err != nil {
				return err
			}
			c.HandlesPre = append(c.HandlesPre, pre)
		} else {
			c.HandlesPre = append(c.HandlesPre, handle)
		}
	}
	return nil
}

func (b *Builder) makeHandleBone(node, prev, next *ControlNode, suffix string) (string, error) {
	start, end := node, node
	if prev != nil {
		start = prev
	}
	if next != nil {
		end = next
	}
	org := b.arm.MustBone(node.Org)
	axis, ok := armature.SafeNormalize(end.Point.Sub(start.Point), armature.Vec3{})
	if !ok {
		b.Warnf(node.Org, "degenerate handle direction, using bone axis")
		axis, ok = armature.SafeNormalize(org.Direction(), armature.Vec3{0, 0, 1})
		if !ok {
			axis = armature.Vec3{0, 0, 1}
		}
	}
	name := b.arm.UniqueName(armature.DerivedName(node.Name, armature.KindMch, suffix))
	length := org.Length() * 0.75
	if length <= 0 {
		length = node.Size * 0.75
	}
	bone := &armature.Bone{
		Name:         name,
		Head:         node.Point,
		Tail:         node.Point.Add(axis.Mul(length)),
		InheritScale: armature.InheritScaleAverage,
		Hidden:       true,
	}
	if _, err := b.arm.AddBone(bone); err != nil {
		return "", err
	}
	return name, nil
}

// ParentHandleChain parents every handle of the chain under the owning
// rig's parent bone. Node automation reaches the handles through the
// user constraint layer, not the hierarchy.
func (b *Builder) ParentHandleChain(c *Chain, rigParent string) error {
	if !c.Multisegment() || rigParent == "" {
		return nil
	}
	for i := range c.Handles {
		if err := b.arm.SetParent(c.Handles[i], rigParent, armature.InheritScaleAverage); err != nil {
			return err
		}
		if c.HandlesPre[i] != c.Handles[i] {
			if err := b.arm.SetParent(c.HandlesPre[i], rigParent, armature.InheritScaleAverage); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleNodes lists the nodes that own a handle in c.Handles, in the
// same order: the chain's own nodes, truncated when the final handle
// is shared from the partner chain.
func (c *Chain) handleNodes() []*ControlNode {
	if c.NextChain != nil {
		return c.Nodes[:len(c.Nodes)-1]
	}
	return c.Nodes
}

// RigHandleChain adds the two constraint layers of the handle
// mechanism. The automatic layer tracks the neighbor controls so the
// handle follows the chain's shape; the user layer then mixes in the
// node's own control transform, dropping shear afterwards.
func (b *Builder) RigHandleChain(c *Chain) error {
	if !c.Multisegment() {
		return nil
	}
	seq := c.extendedNodes()
	for i, node := range c.handleNodes() {
		prev, next := seq[i], seq[i+2]
		pre := c.HandlesPre[i]
		handle := c.Handles[i]
		if err := b.rigHandleAuto(pre, node, prev, next); err != nil {
			return err
		}
		if pre != handle {
			con := armature.NewConstraint(armature.ConstraintCopyTransforms, pre)
			con.Name = "copy_pre"
			con.TargetSpace = armature.SpaceLocal
			con.OwnerSpace = armature.SpaceLocal
			con.MixMode = armature.MixBeforeFull
			if err := b.arm.AddConstraint(handle, con); err != nil {
				return err
			}
		}
		target, err := b.controlBoneOf(node)
		if err != nil {
			return err
		}
		con := armature.NewConstraint(armature.ConstraintCopyTransforms, target)
		con.Name = "copy_user"
		con.TargetSpace = armature.SpaceOwnerLocal
		con.OwnerSpace = armature.SpaceLocal
		con.MixMode = armature.MixBeforeFull
		if err := b.arm.AddConstraint(handle, con); err != nil {
			return err
		}
		// The user layer can introduce shear; strip it.
		limit := armature.NewConstraint(armature.ConstraintLimitRotation, "")
		limit.Name = "remove_shear"
		limit.OwnerSpace = armature.SpaceLocal
		if err := b.arm.AddConstraint(handle, limit); err != nil {
			return err
		}
	}
	return nil
}

// rigHandleAuto emulates the host's automatic tangent handle: sit at
// the previous control, aim at the next.
func (b *Builder) rigHandleAuto(bone string, node, prev, next *ControlNode) error {
	hstart, hend := node, node
	if prev != nil {
		hstart = prev
	}
	if next != nil {
		hend = next
	}
	start, err := b.controlBoneOf(hstart)
	if err != nil {
		return err
	}
	end, err := b.controlBoneOf(hend)
	if err != nil {
		return err
	}
	loc := armature.NewConstraint(armature.ConstraintCopyLocation, start)
	loc.Name = "locate_prev"
	if err := b.arm.AddConstraint(bone, loc); err != nil {
		return err
	}
	track := armature.NewConstraint(armature.ConstraintDampedTrack, end)
	track.Name = "track_next"
	return b.arm.AddConstraint(bone, track)
}

// ParentOrgChain re-wires the chain's org bones into a connected run
// under the rig's parent bone.
func (b *Builder) ParentOrgChain(c *Chain, rigParent string) error {
	if rigParent != "" {
		if err := b.arm.SetParent(c.Orgs[0], rigParent, armature.InheritScaleAverage); err != nil {
			return err
		}
	}
	return b.arm.ParentChain(c.Orgs, armature.InheritScaleAverage)
}

// RigOrgChain pins the chain's first org bone to its start control and
// stretches every org toward the next control, so the original
// skeleton follows the merged controls regardless of segment count.
func (b *Builder) RigOrgChain(c *Chain) error {
	for i, org := range c.Orgs {
		if i == 0 {
			first, err := b.controlBoneOf(c.Nodes[0])
			if err != nil {
				return err
			}
			loc := armature.NewConstraint(armature.ConstraintCopyLocation, first)
			if err := b.arm.AddConstraint(org, loc); err != nil {
				return err
			}
		}
		next, err := b.controlBoneOf(c.Nodes[i+1])
		if err != nil {
			return err
		}
		stretch := armature.NewConstraint(armature.ConstraintStretchTo, next)
		stretch.KeepAxis = "SWING_Y"
		if err := b.arm.AddConstraint(org, stretch); err != nil {
			return err
		}
	}
	return nil
}

// BuildDeformChain creates one deform bone per org bone. The bones are
// wired into their own connected run by ParentDeformChain and follow
// the orgs through a copy constraint added by RigDeformChain.
func (b *Builder) BuildDeformChain(c *Chain) ([]string, error) {
	defs := make([]string, 0, len(c.Orgs))
	for _, org := range c.Orgs {
		bone, err := b.arm.CopyBone(org, armature.DerivedName(org, armature.KindDef, ""))
		if err != nil {
			return nil, err
		}
		bone.Deform = true
		bone.EaseStart, bone.EaseEnd = 1, 1
		bone.Segments = 1
		bone.HandleStartType = armature.HandleAuto
		bone.HandleEndType = armature.HandleAuto
		defs = append(defs, bone.Name)
	}
	return defs, nil
}

// ParentDeformChain connects the deform bones under the rig's parent
// bone and, on multisegment chains, points their segment tangents at
// the neighboring handles.
func (b *Builder) ParentDeformChain(c *Chain, defs []string, rigParent string) error {
	if len(defs) == 0 {
		return nil
	}
	if rigParent != "" {
		if err := b.arm.SetParent(defs[0], rigParent, armature.InheritScaleAverage); err != nil {
			return err
		}
	}
	if err := b.arm.ParentChain(defs, armature.InheritScaleAverage); err != nil {
		return err
	}
	if !c.Multisegment() {
		return nil
	}
	for i, name := range defs {
		bone := b.arm.MustBone(name)
		bone.Segments = c.Segments
		bone.HandleStartType = armature.HandleTangent
		bone.HandleEndType = armature.HandleTangent
		bone.HandleStart = c.handleAt(i)
		bone.HandleEnd = c.handleAt(i + 1)
	}
	return nil
}

// RigDeformChain makes each deform bone follow its org bone.
func (b *Builder) RigDeformChain(c *Chain, defs []string) error {
	for i, name := range defs {
		con := armature.NewConstraint(armature.ConstraintCopyTransforms, c.Orgs[i])
		if err := b.arm.AddConstraint(name, con); err != nil {
			return err
		}
	}
	return nil
}

// handleAt returns the handle covering node index i, reaching into
// the partner chain for the shared final handle.
func (c *Chain) handleAt(i int) string {
	if i < len(c.Handles) {
		return c.Handles[i]
	}
	if c.NextChain != nil && len(c.NextChain.Handles) > 0 {
		return c.NextChain.Handles[0]
	}
	if len(c.Handles) > 0 {
		return c.Handles[len(c.Handles)-1]
	}
	return ""
}

// handlePreAt mirrors handleAt for the pre-user handle layer.
func (c *Chain) handlePreAt(i int) string {
	if i < len(c.HandlesPre) {
		return c.HandlesPre[i]
	}
	if c.NextChain != nil && len(c.NextChain.HandlesPre) > 0 {
		return c.NextChain.HandlesPre[0]
	}
	if len(c.HandlesPre) > 0 {
		return c.HandlesPre[len(c.HandlesPre)-1]
	}
	return ""
}

// RigPropagate adds the twist and scale propagation mechanisms to an
// interior handle. The handle interpolates the chain end twist by the
// node's position factor and blends the end scales the same way. End
// and pivot nodes are propagation sources, not receivers.
func (b *Builder) RigPropagate(c *Chain, bone string, node *ControlNode) error {
	if node.Index == 0 || node.Index == len(c.Nodes)-1 {
		return nil
	}
	if c.PivotPos > 0 && node.Index == c.PivotPos {
		return nil
	}
	idx1, idx2, factor := c.propagateSpec(node)
	factor = armature.Clamp(factor)
	h1, h2 := c.handleAt(idx1), c.handleAt(idx2)
	if h1 == "" || h2 == "" {
		return nil
	}
	if c.PropagateTwist {
		vars := []armature.DriverVar{
			armature.TransformVar("y1", h1, armature.ChannelRotY, armature.RotationSwingTwistY),
			armature.TransformVar("y2", h2, armature.ChannelRotY, armature.RotationSwingTwistY),
		}
		// Subtract the auto layer's twist where it is tracked separately,
		// so only user-applied twist propagates.
		expr1, expr2 := "y1", "y2"
		if p1 := c.handlePreAt(idx1); p1 != h1 {
			vars = append(vars, armature.TransformVar("p1", p1, armature.ChannelRotY, armature.RotationSwingTwistY))
			expr1 = "y1-p1"
		}
		if p2 := c.handlePreAt(idx2); p2 != h2 {
			vars = append(vars, armature.TransformVar("p2", p2, armature.ChannelRotY, armature.RotationSwingTwistY))
			expr2 = "y2-p2"
		}
		drv := armature.Driver{
			Property:   "rotation_euler",
			Index:      1,
			Expression: fmt.Sprintf("lerp(%s,%s,%.6g)", expr1, expr2, factor),
			Variables:  vars,
		}
		b.arm.MustBone(bone).RotationMode = "YXZ"
		if err := b.arm.AddDriver(bone, drv); err != nil {
			return err
		}
	}
	if c.PropagateScale {
		first := armature.NewConstraint(armature.ConstraintCopyScale, h1)
		first.UseOffset = true
		first.Power = 1 - factor
		first.UseX, first.UseZ = true, true
		first.TargetSpace = armature.SpaceLocal
		first.OwnerSpace = armature.SpaceLocal
		if err := b.arm.AddConstraint(bone, first); err != nil {
			return err
		}
		second := armature.NewConstraint(armature.ConstraintCopyScale, h2)
		second.UseOffset = true
		second.Power = factor
		second.UseX, second.UseZ = true, true
		second.TargetSpace = armature.SpaceLocal
		second.OwnerSpace = armature.SpaceLocal
		if err := b.arm.AddConstraint(bone, second); err != nil {
			return err
		}
	}
	return nil
}

// ApplyCornerSharpening flattens the B-spline ease at connected chain
// joints that bend beyond the configured angle, so sharp corners stay
// sharp instead of smoothing out.
func (b *Builder) ApplyCornerSharpening(c *Chain, defs []string) {
	if !c.SharpenCorners || !c.Multisegment() || len(defs) == 0 {
		return
	}
	seq := c.extendedNodes()
	if prev := seq[0]; prev != nil && len(c.Nodes) >= 2 {
		ease := cornerEase(prev, c.Nodes[0], c.Nodes[1], c.CornerAngle)
		b.arm.MustBone(defs[0]).EaseStart = ease
	}
	if next := seq[len(seq)-1]; c.NextChain == nil && next != nil && len(c.Nodes) >= 2 {
		n := len(c.Nodes)
		ease := cornerEase(c.Nodes[n-2], c.Nodes[n-1], next, c.CornerAngle)
		b.arm.MustBone(defs[len(defs)-1]).EaseEnd = ease
	}
}

// cornerEase maps the interior angle at a joint to a B-spline ease
// factor. Angles at or above the threshold keep full ease; sharper
// joints reduce linearly toward zero.
func cornerEase(prev, node, next *ControlNode, threshold float64) float64 {
	if threshold <= 0 {
		return 1
	}
	d1 := node.Point.Sub(prev.Point)
	d2 := next.Point.Sub(node.Point)
	interior := math.Pi - armature.AngleBetween(d1, d2)
	if interior >= threshold {
		return 1
	}
	if interior <= 0 {
		return 0
	}
	return interior / threshold
}

func (c *Chain) chainName() string {
	if len(c.Orgs) > 0 {
		return c.Orgs[0]
	}
	return "<empty>"
}
