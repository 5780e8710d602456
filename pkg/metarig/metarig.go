// Package metarig defines the author-facing description of an input
// skeleton: a sparse bone hierarchy where individual bones are tagged with
// a generator type and per-bone configuration options. Definitions are
// YAML-codable and validated before generation.
package metarig

import (
	"fmt"

	"rigcore/pkg/armature"
)

// Definition is a complete metarig: a named bone graph driving rig
// generation.
type Definition struct {
	Name  string    `yaml:"name" json:"name"`
	Bones []BoneDef `yaml:"bones" json:"bones"`
}

// BoneDef describes one input bone and its optional generator tag.
type BoneDef struct {
	Name      string     `yaml:"name" json:"name"`
	Parent    string     `yaml:"parent,omitempty" json:"parent,omitempty"`
	Head      [3]float64 `yaml:"head" json:"head"`
	Tail      [3]float64 `yaml:"tail" json:"tail"`
	Roll      float64    `yaml:"roll,omitempty" json:"roll,omitempty"`
	Connected bool       `yaml:"connected,omitempty" json:"connected,omitempty"`

	Rig *RigSpec `yaml:"rig,omitempty" json:"rig,omitempty"`

	// Constraints authored directly on the metarig bone; generators that
	// support relinking move and retarget them during generation.
	Constraints []ConstraintDef `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// RigSpec tags a bone with a generator type and its parameters.
type RigSpec struct {
	Type   string `yaml:"type" json:"type"`
	Params Params `yaml:"params,omitempty" json:"params,omitempty"`
}

// ConstraintDef is an authored constraint carried into generation. The
// Relink spec names the placeholder resolution applied to its target.
type ConstraintDef struct {
	Kind      string   `yaml:"kind" json:"kind"`
	Target    string   `yaml:"target,omitempty" json:"target,omitempty"`
	Relink    string   `yaml:"relink,omitempty" json:"relink,omitempty"`
	Influence *float64 `yaml:"influence,omitempty" json:"influence,omitempty"`
}

// GlueMode selects how a glue bone follows the control at its head.
type GlueMode string

// Glue head modes.
const (
	// GlueChild parents the glue bone to the control.
	GlueChild GlueMode = "child"
	// GlueMirror copies the control's transform as a sibling.
	GlueMirror GlueMode = "mirror"
	// GlueReparent copies the control's transform including parent-induced
	// motion grouped into local space.
	GlueReparent GlueMode = "reparent"
)

// Params carries every per-bone generator option. Zero values follow the
// feature catalog defaults; pointer fields distinguish "unset" from an
// explicit false for options that default to true.
type Params struct {
	// Segments is the interpolation segment count of deform bones.
	Segments int `yaml:"segments,omitempty" json:"segments,omitempty"`

	// Priority overrides the computed ownership rank when claiming merged
	// control nodes; higher wins.
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`

	// ParentSwitch replaces the blended mix of competing parent
	// automation stacks with an animator-facing switch property.
	ParentSwitch bool `yaml:"parent_switch,omitempty" json:"parent_switch,omitempty"`

	// Falloff holds the start/middle/end falloff exponents; -10 disables
	// propagation from that end.
	Falloff *[3]float64 `yaml:"falloff,omitempty" json:"falloff,omitempty"`
	// FalloffSpherical switches each end's curve from parabolic to circular.
	FalloffSpherical [3]bool `yaml:"falloff_spherical,omitempty" json:"falloff_spherical,omitempty"`
	// FalloffAlongChain measures falloff along the chain curve instead of
	// projecting on the straight start-end axis.
	FalloffAlongChain bool `yaml:"falloff_along_chain,omitempty" json:"falloff_along_chain,omitempty"`

	PropagateTwist      *bool `yaml:"propagate_twist,omitempty" json:"propagate_twist,omitempty"`
	PropagateScale      bool  `yaml:"propagate_scale,omitempty" json:"propagate_scale,omitempty"`
	PropagateToControls bool  `yaml:"propagate_to_controls,omitempty" json:"propagate_to_controls,omitempty"`

	ConnectMirror *bool `yaml:"connect_mirror,omitempty" json:"connect_mirror,omitempty"`
	ConnectEnds   bool  `yaml:"connect_ends,omitempty" json:"connect_ends,omitempty"`

	// SharpenCorners hardens connected joints whose incident angle falls
	// below CornerAngle (degrees).
	SharpenCorners bool    `yaml:"sharpen_corners,omitempty" json:"sharpen_corners,omitempty"`
	CornerAngle    float64 `yaml:"corner_angle,omitempty" json:"corner_angle,omitempty"`

	// PivotPosition places the middle control, disabled at zero.
	PivotPosition int `yaml:"pivot_position,omitempty" json:"pivot_position,omitempty"`

	// Anchor options.
	MakeDeform *bool `yaml:"make_deform,omitempty" json:"make_deform,omitempty"`
	AnchorHide bool  `yaml:"anchor_hide,omitempty" json:"anchor_hide,omitempty"`

	// Glue options.
	GlueMode          GlueMode `yaml:"glue_mode,omitempty" json:"glue_mode,omitempty"`
	GlueUseTail       bool     `yaml:"glue_use_tail,omitempty" json:"glue_use_tail,omitempty"`
	GlueTailReparent  bool     `yaml:"glue_tail_reparent,omitempty" json:"glue_tail_reparent,omitempty"`
	RelinkConstraints bool     `yaml:"relink_constraints,omitempty" json:"relink_constraints,omitempty"`
	// MergeParent opts the glue target into merged parent rotation and
	// scale.
	MergeParent bool `yaml:"merge_parent,omitempty" json:"merge_parent,omitempty"`

	// RotationIndex selects which ancestor generator supplies control
	// orientation; 0 uses the chain's own.
	RotationIndex int `yaml:"rotation_index,omitempty" json:"rotation_index,omitempty"`
}

// DefaultSegments is the segment count used when a chain leaves it unset.
const DefaultSegments = 10

// DefaultCornerAngle is the sharpening threshold in degrees.
const DefaultCornerAngle = 110

// SegmentsOrDefault resolves the segment count.
func (p Params) SegmentsOrDefault() int {
	if p.Segments <= 0 {
		return DefaultSegments
	}
	return p.Segments
}

// FalloffOrDefault resolves the falloff triple; the default gives linear
// ends and a wide middle, matching the feature catalog.
func (p Params) FalloffOrDefault() [3]float64 {
	if p.Falloff == nil {
		return [3]float64{0, 1, 0}
	}
	return *p.Falloff
}

// PropagateTwistOrDefault resolves the twist toggle (default on).
func (p Params) PropagateTwistOrDefault() bool {
	return p.PropagateTwist == nil || *p.PropagateTwist
}

// ConnectMirrorOrDefault resolves the mirror-connect toggle (default on).
func (p Params) ConnectMirrorOrDefault() bool {
	return p.ConnectMirror == nil || *p.ConnectMirror
}

// MakeDeformOrDefault resolves the anchor deform toggle (default on).
func (p Params) MakeDeformOrDefault() bool {
	return p.MakeDeform == nil || *p.MakeDeform
}

// CornerAngleOrDefault resolves the sharpening threshold.
func (p Params) CornerAngleOrDefault() float64 {
	if p.CornerAngle <= 0 {
		return DefaultCornerAngle
	}
	return p.CornerAngle
}

// GlueModeOrDefault resolves the glue head mode.
func (p Params) GlueModeOrDefault() GlueMode {
	if p.GlueMode == "" {
		return GlueChild
	}
	return p.GlueMode
}

// Bone looks up a bone definition by name.
func (d *Definition) Bone(name string) (*BoneDef, bool) {
	for i := range d.Bones {
		if d.Bones[i].Name == name {
			return &d.Bones[i], true
		}
	}
	return nil, false
}

// HeadVec returns the head position as a vector.
func (b *BoneDef) HeadVec() armature.Vec3 {
	return armature.Vec3{b.Head[0], b.Head[1], b.Head[2]}
}

// TailVec returns the tail position as a vector.
func (b *BoneDef) TailVec() armature.Vec3 {
	return armature.Vec3{b.Tail[0], b.Tail[1], b.Tail[2]}
}

// BuildArmature materializes the metarig as the initial output graph: every
// input bone becomes an ORG- bone carrying the authored rest transform and
// constraints, preserving hierarchy.
func (d *Definition) BuildArmature() (*armature.Armature, error) {
	arm := armature.New()
	for i := range d.Bones {
		def := &d.Bones[i]
		parent := def.Parent
		if parent != "" {
			if _, ok := d.Bone(parent); !ok {
				return nil, fmt.Errorf("metarig %s: bone %s has unknown parent %s", d.Name, def.Name, parent)
			}
			parent = armature.DerivedName(parent, armature.KindOrg, "")
		}
		bone := &armature.Bone{
			Name:         armature.DerivedName(def.Name, armature.KindOrg, ""),
			Parent:       parent,
			Head:         def.HeadVec(),
			Tail:         def.TailVec(),
			Roll:         def.Roll,
			Connected:    def.Connected,
			Rotation:     armature.QuatIdent(),
			InheritScale: armature.InheritScaleFull,
			Hidden:       true,
		}
		for _, c := range def.Constraints {
			con := armature.NewConstraint(armature.ConstraintKind(c.Kind), c.Target)
			con.RelinkSpec = c.Relink
			if c.Influence != nil {
				con.Influence = *c.Influence
			}
			bone.Constraints = append(bone.Constraints, con)
		}
		if _, err := arm.AddBone(bone); err != nil {
			return nil, fmt.Errorf("metarig %s: %w", d.Name, err)
		}
	}
	return arm, nil
}
