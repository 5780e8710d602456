package skin

import (
	"rigcore/pkg/armature"
)

// Composer finalizes each merged node's effective transform: the owning
// generator's authored automation, averaged across detected symmetry
// siblings, plus the deduplicated parent automation stack contributed by
// each sibling's generator chain. It runs once, after ownership
// resolution and before any bones are generated.
type Composer struct {
	reg *Registry
}

// NewComposer returns a composer over a frozen registry.
func NewComposer(reg *Registry) *Composer {
	if !reg.Frozen() {
		panic("skin: composer over unfrozen registry")
	}
	return &Composer{reg: reg}
}

// ComposeAll fills in every group's rotation, size, and parent list.
func (c *Composer) ComposeAll() {
	for _, g := range c.reg.Groups() {
		if g.QueryOnly() {
			continue
		}
		c.compose(g)
	}
}

// compose averages the symmetry siblings' automation and assembles their
// parent stacks. Averaging is defined over the rotation/size
// representation and is order-independent.
func (c *Composer) compose(g *MergeGroup) {
	siblings := g.Symmetry
	if siblings == nil {
		siblings = []*ControlNode{g.Master}
	}

	quats := make([]armature.Quat, 0, len(siblings))
	size := 0.0
	for _, n := range siblings {
		quats = append(quats, n.Rig.ControlRotation())
		size += n.Size
	}
	g.Rotation = armature.AverageQuat(quats)
	g.Size = size / float64(len(siblings))

	// Assemble each sibling's parent stack, collapsing structurally equal
	// results into one shared instance.
	var cache []Parent
	for _, n := range siblings {
		p := dedupeParent(&cache, composeParentStack(n))
		n.MergedParent = p
		if !containsParent(g.Parents, p) {
			g.Parents = append(g.Parents, p)
		}
	}

	// Nodes that need their motion exposed in reparented local space get
	// a parent stack of their own even when they lost ownership. Query
	// nodes are included so glue lookups can reparent their targets.
	for _, n := range g.Nodes {
		if n.MergedParent == nil && n.NeedsReparent {
			n.MergedParent = dedupeParent(&cache, composeParentStack(n))
		}
	}
}

// composeParentStack builds the full automation stack for a node: the
// generator's own contribution wrapped by every ancestor generator from
// the root down, so outer chains may layer falloff offsets and twist
// propagation onto inner ones.
func composeParentStack(n *ControlNode) Parent {
	parent := n.Rig.BuildNodeParent(n)
	rigs := n.Rig.ParentRigs()
	for i := len(rigs) - 1; i >= 0; i-- {
		parent = rigs[i].ExtendNodeParent(parent, n)
	}
	return parent
}

func dedupeParent(cache *[]Parent, p Parent) Parent {
	for _, prev := range *cache {
		if prev.Equal(p) {
			return prev
		}
	}
	*cache = append(*cache, p)
	return p
}

func containsParent(list []Parent, p Parent) bool {
	for _, e := range list {
		if e == p {
			return true
		}
	}
	return false
}
