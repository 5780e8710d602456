package armature

// ConstraintKind identifies a host constraint type attached to a bone.
type ConstraintKind string

// Constraint kinds consumed by the host's constraint evaluation.
const (
	ConstraintCopyLocation   ConstraintKind = "copy_location"
	ConstraintCopyRotation   ConstraintKind = "copy_rotation"
	ConstraintCopyScale      ConstraintKind = "copy_scale"
	ConstraintCopyTransforms ConstraintKind = "copy_transforms"
	ConstraintDampedTrack    ConstraintKind = "damped_track"
	ConstraintStretchTo      ConstraintKind = "stretch_to"
	ConstraintLimitRotation  ConstraintKind = "limit_rotation"
	// ConstraintArmature blends multiple weighted parent targets.
	ConstraintArmature ConstraintKind = "armature"
)

// Space identifies the evaluation space of a constraint endpoint.
type Space string

// Constraint spaces.
const (
	SpaceWorld      Space = "world"
	SpaceLocal      Space = "local"
	SpaceOwnerLocal Space = "owner_local"
)

// MixMode controls how a copy constraint combines with the existing transform.
type MixMode string

// Copy constraint mix modes.
const (
	MixReplace    MixMode = "replace"
	MixBeforeFull MixMode = "before_full"
	MixOffset     MixMode = "offset"
)

// ArmatureTarget is one weighted target of an armature constraint.
type ArmatureTarget struct {
	Bone   string  `json:"bone"`
	Weight float64 `json:"weight"`
}

// Constraint is a declarative record of a host constraint: kind K with
// parameters P attached to the owning bone, targeting another bone.
type Constraint struct {
	Kind ConstraintKind `json:"kind"`
	Name string         `json:"name,omitempty"`

	Target  string           `json:"target,omitempty"`
	Targets []ArmatureTarget `json:"targets,omitempty"`

	Influence   float64 `json:"influence"`
	OwnerSpace  Space   `json:"owner_space,omitempty"`
	TargetSpace Space   `json:"target_space,omitempty"`
	MixMode     MixMode `json:"mix_mode,omitempty"`

	// Copy-scale parameters.
	UseOffset bool    `json:"use_offset,omitempty"`
	Power     float64 `json:"power,omitempty"`
	UseX      bool    `json:"use_x,omitempty"`
	UseY      bool    `json:"use_y,omitempty"`
	UseZ      bool    `json:"use_z,omitempty"`

	// Stretch-to parameters.
	KeepAxis string `json:"keep_axis,omitempty"`

	// Relink spec carried over from the metarig for generators that support
	// constraint relinking; consumed and cleared during generation.
	RelinkSpec string `json:"relink_spec,omitempty"`
}

// NewConstraint returns a constraint of the given kind and target with
// influence 1 and world evaluation spaces, the host defaults.
func NewConstraint(kind ConstraintKind, target string) Constraint {
	return Constraint{
		Kind:        kind,
		Target:      target,
		Influence:   1,
		OwnerSpace:  SpaceWorld,
		TargetSpace: SpaceWorld,
	}
}
