package skin

import (
	"rigcore/pkg/armature"
)

// Chain is an ordered run of control nodes owned by one generator, bridged
// by a deformation mechanism. The node sequence is monotonic along the
// bone length axis; adjacent chains may share exactly their boundary
// nodes through the merge registry.
type Chain struct {
	Rig ChainRig

	// Nodes holds the chain's registrations: one per org bone head plus
	// the tail of the final bone.
	Nodes []*ControlNode
	// Orgs are the org bones the chain bridges.
	Orgs []string

	Segments int

	Falloff    FalloffTriple
	AlongChain bool

	PropagateTwist      bool
	PropagateScale      bool
	PropagateToControls bool

	ConnectMirror bool
	ConnectEnds   bool

	SharpenCorners bool
	// CornerAngle is the sharpening threshold in radians.
	CornerAngle float64

	// PivotPos indexes the middle driver control; 0 disables it.
	PivotPos int

	// Lengths[i] is the cumulative bone length up to node i; the last
	// entry is the full chain length.
	Lengths []float64

	// Generated handle mechanism bones, one per node of the extended
	// (mirror-connected) sequence.
	Handles    []string
	HandlesPre []string

	// NextChain is set when the chain's end connects to another chain's
	// start, sharing that chain's first handle instead of creating one.
	NextChain *Chain
}

// Multisegment reports whether the chain builds the interpolating handle
// mechanism rather than a plain bridge.
func (c *Chain) Multisegment() bool {
	return c.Segments > 1
}

// Start returns the first node.
func (c *Chain) Start() *ControlNode { return c.Nodes[0] }

// End returns the last node.
func (c *Chain) End() *ControlNode { return c.Nodes[len(c.Nodes)-1] }

// LengthFactor returns the normalized position of node i along the chain
// curve.
func (c *Chain) LengthFactor(i int) float64 {
	total := c.Lengths[len(c.Lengths)-1]
	if total <= 0 {
		return 0
	}
	return c.Lengths[i] / total
}

// connectedNode finds the partner node and its inward neighbor when the
// given chain end is flagged to connect with its mirror or with a matching
// chain end, and the partner carries the reciprocal flag.
func (c *Chain) connectedNode(node *ControlNode) (link, neighbor *ControlNode) {
	if c.ConnectMirror {
		mirror := node.BestMirror()
		if mirror != nil && mirror.Chain != nil && mirror.ChainEndNeighbor != nil && mirror.Chain.ConnectMirror {
			return mirror, mirror.ChainEndNeighbor
		}
	}

	if c.ConnectEnds {
		var starts, ends []*ControlNode
		for _, sibling := range node.MergedSiblings() {
			if sibling.Chain == nil || sibling.ChainEndNeighbor == nil || !sibling.Chain.ConnectEnds {
				continue
			}
			if sibling.Index == 0 {
				starts = append(starts, sibling)
			} else {
				ends = append(ends, sibling)
			}
		}
		if len(starts) == 1 && len(ends) == 1 {
			if node == ends[0] {
				return starts[0], starts[0].ChainEndNeighbor
			}
			if node == starts[0] {
				return ends[0], ends[0].ChainEndNeighbor
			}
		}
	}

	return nil, nil
}

// extendedNodes returns the node sequence with connected neighbors from
// partner chains prepended/appended, so boundary tangents are unified.
// When the end connects at a partner chain's start, the partner is
// recorded as NextChain and its extra node omitted; the partner's first
// handle is shared instead.
func (c *Chain) extendedNodes() []*ControlNode {
	_, prevNode := c.connectedNode(c.Start())
	nextLink, nextNode := c.connectedNode(c.End())

	c.NextChain = nil
	seq := make([]*ControlNode, 0, len(c.Nodes)+2)
	if prevNode != nil {
		seq = append(seq, prevNode)
	} else {
		seq = append(seq, nil)
	}
	seq = append(seq, c.Nodes...)

	if nextLink != nil && nextLink.Index == 0 && nextLink.Chain != nil {
		// The partner chain starts exactly at our end; share its first
		// handle instead of generating one for our final node.
		c.NextChain = nextLink.Chain
		return seq
	}
	if nextNode != nil {
		seq = append(seq, nextNode)
	} else {
		seq = append(seq, nil)
	}
	return seq
}

// AllHandles returns the chain's handle bones plus the shared first handle
// of a connected next chain.
func (c *Chain) AllHandles() []string {
	if c.NextChain != nil && len(c.NextChain.Handles) > 0 {
		return append(append([]string(nil), c.Handles...), c.NextChain.Handles[0])
	}
	return c.Handles
}

// AllHandlesPre mirrors AllHandles for the auto-tangent layer.
func (c *Chain) AllHandlesPre() []string {
	if c.NextChain != nil && len(c.NextChain.HandlesPre) > 0 {
		return append(append([]string(nil), c.HandlesPre...), c.NextChain.HandlesPre[0])
	}
	return c.HandlesPre
}

// PivotFactor projects a node position into the chain's 0..1 driver range,
// along the curve or on the straight start-end axis per configuration.
func (c *Chain) PivotFactor(point armature.Vec3, index int) float64 {
	if c.AlongChain {
		return c.LengthFactor(index)
	}
	start := c.Start().Point
	axis := c.End().Point.Sub(start)
	length := axis.Len()
	if length < armature.PositionTolerance {
		return c.LengthFactor(index)
	}
	return armature.Clamp(armature.ProjectFactor(point, start, axis.Mul(1/length), length))
}

// propagateSpec returns the driver node indices and blend factor used to
// interpolate twist and scale for an intermediate node: between start and
// pivot, or pivot and end, or the two chain ends when no pivot is set.
func (c *Chain) propagateSpec(node *ControlNode) (index1, index2 int, factor float64) {
	index1 = 0
	index2 = len(c.Nodes) - 1

	lenCur := c.Lengths[node.Index]
	lenEnd := c.Lengths[len(c.Lengths)-1]

	if c.PivotPos > 0 {
		lenPivot := c.Lengths[c.PivotPos]
		if node.Index < c.PivotPos {
			factor = safeDiv(lenCur, lenPivot)
			index2 = c.PivotPos
		} else {
			factor = safeDiv(lenCur-lenPivot, lenEnd-lenPivot)
			index1 = c.PivotPos
		}
	} else {
		factor = safeDiv(lenCur, lenEnd)
	}
	return index1, index2, factor
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
