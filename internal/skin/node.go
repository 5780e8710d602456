package skin

import (
	"rigcore/pkg/armature"
)

// NodeKind distinguishes control-producing registrations from query-only
// lookups.
type NodeKind int

// Node kinds.
const (
	// NodeControl requests an animator-facing control at the point.
	NodeControl NodeKind = iota
	// NodeQuery joins a merge group without contributing a control,
	// used by glue generators to locate existing controls.
	NodeQuery
)

// ChainRig is the contract a chain generator exposes to the merge engine.
// Generators implement it in internal/rigs; the engine never depends on a
// concrete generator type.
type ChainRig interface {
	// Kind returns the generator type tag, e.g. "skin.basic_chain".
	Kind() string
	// BaseBone returns the org bone the generator was instantiated on.
	BaseBone() string
	// ParentDepth returns the number of ancestors of the base bone, the
	// primary ownership criterion (more ancestral wins).
	ParentDepth() int
	// ControlRotation returns the orientation the generator authors for
	// its control nodes.
	ControlRotation() armature.Quat
	// BuildNodeParent returns the parent automation the generator
	// contributes for one of its nodes.
	BuildNodeParent(node *ControlNode) Parent
	// ExtendNodeParent lets ancestor generators wrap automation (falloff
	// offsets, twist propagation) around a descendant node's parent.
	ExtendNodeParent(parent Parent, node *ControlNode) Parent
	// ParentRigs returns the generator and its skin ancestors, closest
	// first, used to stack ExtendNodeParent calls.
	ParentRigs() []ChainRig
}

// ControlNode is one registered control point. Multiple registrations at
// the same location collapse into a MergeGroup during Freeze; afterwards
// the node is immutable except for generated bone name attachment.
type ControlNode struct {
	Rig   ChainRig
	Chain *Chain // nil for nodes outside a chain (anchors, queries)

	Kind NodeKind
	Org  string // defining org bone
	Name string // desired control name

	Point armature.Vec3
	Size  float64

	// Index is the node's position along its chain; 0 is the chain start.
	Index int

	// ChainEndNeighbor is the adjacent node when this is a chain end,
	// used to unify tangents across connected chains.
	ChainEndNeighbor *ControlNode

	// CanMerge false keeps the node from yielding ownership; anchors use
	// it to stay the master of their group.
	CanMerge bool

	// NeedsReparent requests a reparent mechanism bone so other chains
	// can read this control's motion grouped into local space.
	NeedsReparent bool

	// Anchor marks registrations that always win ownership.
	Anchor bool
	// Priority is the explicit ownership override; higher wins.
	Priority int

	// ParentSwitch requests a switch property instead of the blended
	// parent mix when the group ends up with several parent stacks.
	// Honored on the group's master.
	ParentSwitch bool

	split armature.NameSides
	group *MergeGroup

	// MergedParent is the resolved parent automation for this node,
	// assigned while group controls are built.
	MergedParent Parent
}

// NameSplit returns the parsed symmetry form of the node name.
func (n *ControlNode) NameSplit() armature.NameSides {
	return n.split
}

// Group returns the merge group the node belongs to; nil before Freeze.
func (n *ControlNode) Group() *MergeGroup {
	return n.group
}

// Master returns the owning node of the merge group.
func (n *ControlNode) Master() *ControlNode {
	return n.group.Master
}

// IsMaster reports whether this node owns its group.
func (n *ControlNode) IsMaster() bool {
	return n.group.Master == n
}

// ControlBone returns the generated control bone shared by the group.
func (n *ControlNode) ControlBone() string {
	return n.group.ControlBone
}

// MergedSiblings returns every node merged into this node's group.
func (n *ControlNode) MergedSiblings() []*ControlNode {
	return n.group.Nodes
}

// MirrorSiblings returns the group members sharing this node's base name,
// including the node itself.
func (n *ControlNode) MirrorSiblings() []*ControlNode {
	var out []*ControlNode
	for _, sib := range n.group.Nodes {
		if sib.Kind == NodeControl && sib.split.Base == n.split.Base {
			out = append(out, sib)
		}
	}
	return out
}

// BestMirror returns the preferred mirror counterpart of the node, or nil.
// Flip preference follows the mirror candidate order of the namer.
func (n *ControlNode) BestMirror() *ControlNode {
	for _, want := range n.split.MirrorCandidates() {
		if want == n.split {
			continue
		}
		for _, sib := range n.group.Nodes {
			if sib != n && sib.Kind == NodeControl && sib.split == want {
				return sib
			}
		}
	}
	return nil
}

// MergeGroup is a set of control nodes collapsed onto one location. After
// ownership resolution it carries the composed transform and the generated
// shared bones.
type MergeGroup struct {
	// Nodes is sorted by ownership rank; Nodes[0] is the Master.
	Nodes  []*ControlNode
	Master *ControlNode

	// Symmetry lists the detected symmetry siblings of the master
	// (master included) whose automation is averaged; nil when the master
	// stands alone.
	Symmetry []*ControlNode

	// Composed transform, filled by the Composer.
	Rotation armature.Quat
	Size     float64

	// Parents is the deduplicated parent automation list contributed by
	// the symmetry siblings; more than one entry produces a mix bone.
	Parents []Parent

	// Generated bones.
	ControlBone   string
	MixParentBone string

	reparents []*reparentEntry
}

type reparentEntry struct {
	parent Parent
	bone   string
}

// QueryOnly reports whether the group holds no control-producing node.
func (g *MergeGroup) QueryOnly() bool {
	return g.Master == nil
}
