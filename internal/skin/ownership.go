package skin

import "sort"

// Rank is the ownership total-order key of one candidate's claim on a
// merged node. Comparison proceeds field by field: anchor registrations
// win outright, then an explicit priority override (highest first), then
// parent depth (more ancestral, i.e. smaller, wins), then presence of
// symmetry markers, and finally the bone name, which makes the order
// strict and the resolution independent of registration order.
type Rank struct {
	Anchor   bool
	Priority int
	Depth    int
	Tagged   bool
	Name     string
}

// Less reports whether r outranks other (ascending = wins).
func (r Rank) Less(other Rank) bool {
	if r.Anchor != other.Anchor {
		return r.Anchor
	}
	if r.Priority != other.Priority {
		return r.Priority > other.Priority
	}
	if r.Depth != other.Depth {
		return r.Depth < other.Depth
	}
	if r.Tagged != other.Tagged {
		return r.Tagged
	}
	return r.Name < other.Name
}

// rankOf computes the candidate key for a node's claim.
func rankOf(hier Hierarchy, n *ControlNode) Rank {
	return Rank{
		Anchor:   n.Anchor,
		Priority: n.Priority,
		Depth:    hier.DepthOf(n.Rig.BaseBone()),
		Tagged:   n.split.Tagged(),
		Name:     n.Name,
	}
}

// resolveOwnership orders a group's candidates by rank, selects the owner,
// and records the owner's symmetry sibling set. Nodes that opted out of
// merging (CanMerge false) outrank merging candidates so an anchor-style
// registration keeps its own automation; query nodes never own.
func resolveOwnership(hier Hierarchy, g *MergeGroup) {
	sort.SliceStable(g.Nodes, func(i, j int) bool {
		a, b := g.Nodes[i], g.Nodes[j]
		if (a.Kind == NodeQuery) != (b.Kind == NodeQuery) {
			return b.Kind == NodeQuery
		}
		if a.CanMerge != b.CanMerge {
			return !a.CanMerge
		}
		return rankOf(hier, a).Less(rankOf(hier, b))
	})

	if g.Nodes[0].Kind == NodeQuery {
		// Lookup-only location; nothing to own.
		return
	}
	g.Master = g.Nodes[0]
	g.Symmetry = symmetrySiblings(g)
}

// symmetrySiblings returns the owner plus every merged control node that
// shares the owner's base name and generator kind: the set whose
// automation the composer averages. A single-member set collapses to nil.
func symmetrySiblings(g *MergeGroup) []*ControlNode {
	master := g.Master
	var out []*ControlNode
	for _, n := range g.Nodes {
		if n.Kind != NodeControl {
			continue
		}
		if n.split.Base == master.split.Base && n.Rig.Kind() == master.Rig.Kind() {
			out = append(out, n)
		}
	}
	if len(out) <= 1 {
		return nil
	}
	return out
}
