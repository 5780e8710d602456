package skin

import (
	"fmt"
	"sort"

	"rigcore/pkg/armature"
)

// Hierarchy supplies bone-graph facts to the merge engine without coupling
// it to the armature type: the parent of a defining bone (part of merge
// identity) and its depth from the root (ownership criterion).
type Hierarchy interface {
	ParentOf(bone string) string
	DepthOf(bone string) int
}

// Registry collects every control point requested by every chain generator
// during the collection phase, then merges coincident registrations and
// resolves ownership when frozen. The build protocol is strictly
// two-phase: all Register calls happen before Freeze, and the frozen
// registry is read-only shared state for the construction phases.
type Registry struct {
	hier      Hierarchy
	tolerance float64
	frozen    bool

	nodes  []*ControlNode
	groups []*MergeGroup
}

// NewRegistry returns an empty registry over the given bone hierarchy,
// using the shared position tolerance.
func NewRegistry(hier Hierarchy) *Registry {
	return &Registry{hier: hier, tolerance: armature.PositionTolerance}
}

// Register adds a control node request. Registering after Freeze is a
// programming error and panics. Registering the same logical point twice
// is idempotent: both requests end up in the same merge group.
func (r *Registry) Register(node *ControlNode) *ControlNode {
	if r.frozen {
		panic("skin: Register called after Freeze")
	}
	if node.Rig == nil {
		panic("skin: node registered without a rig")
	}
	node.split = armature.ParseName(node.Name)
	r.nodes = append(r.nodes, node)
	return node
}

// Frozen reports whether collection has ended.
func (r *Registry) Frozen() bool { return r.frozen }

// Nodes returns all registered nodes.
func (r *Registry) Nodes() []*ControlNode { return r.nodes }

// Groups returns the merged groups; valid only after Freeze.
func (r *Registry) Groups() []*MergeGroup {
	if !r.frozen {
		panic("skin: Groups before Freeze")
	}
	return r.groups
}

// Freeze ends the collection phase: coincident nodes are merged into
// groups, each group's owner is resolved by the ownership total order, and
// symmetry sibling sets are recorded. Idempotent.
func (r *Registry) Freeze() {
	if r.frozen {
		return
	}
	r.frozen = true
	r.groups = r.cluster()
	for _, g := range r.groups {
		resolveOwnership(r.hier, g)
	}
}

// cluster partitions nodes into groups of coincident points. The scan
// result is independent of registration order because candidates are
// pre-sorted by a stable key.
func (r *Registry) cluster() []*MergeGroup {
	ordered := make([]*ControlNode, len(r.nodes))
	copy(ordered, r.nodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return nodeSortKey(ordered[i]) < nodeSortKey(ordered[j])
	})

	var groups []*MergeGroup
	for _, node := range ordered {
		placed := false
		for _, g := range groups {
			if r.coincident(g, node) {
				g.Nodes = append(g.Nodes, node)
				node.group = g
				placed = true
				break
			}
		}
		if !placed {
			g := &MergeGroup{Nodes: []*ControlNode{node}}
			node.group = g
			groups = append(groups, g)
		}
	}
	return groups
}

// coincident reports whether a node joins a group: positions must agree
// within tolerance, and chain control registrations must additionally
// share the defining bone's parent. Query nodes and anchors match on
// position alone: queries are lookups, not identity contributors, and an
// anchor's defining bone normally hangs off the automation it feeds in
// rather than off the chains it captures.
func (r *Registry) coincident(g *MergeGroup, node *ControlNode) bool {
	if g.Nodes[0].Point.Sub(node.Point).Len() > r.tolerance {
		return false
	}
	if node.Kind == NodeQuery || node.Anchor {
		return true
	}
	for _, member := range g.Nodes {
		if member.Kind == NodeControl && !member.Anchor {
			return r.hier.ParentOf(member.Org) == r.hier.ParentOf(node.Org)
		}
	}
	return true
}

// nodeSortKey orders nodes deterministically before clustering so the
// grouping never depends on registration order.
func nodeSortKey(n *ControlNode) string {
	return fmt.Sprintf("%d\x00%s\x00%s\x00%d", n.Kind, n.Org, n.Name, n.Index)
}
