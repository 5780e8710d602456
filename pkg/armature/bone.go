package armature

// InheritScaleMode controls how a bone inherits scale from its parent.
type InheritScaleMode string

// Supported inherit-scale modes on generated bones.
const (
	// InheritScaleFull propagates the parent's full scale.
	InheritScaleFull InheritScaleMode = "full"
	// InheritScaleAverage propagates the uniform average of the parent's scale.
	InheritScaleAverage InheritScaleMode = "average"
)

// HandleType selects how a multi-segment bone derives its end tangents.
type HandleType string

// Supported segment handle types.
const (
	// HandleAuto derives the tangent from neighboring bones.
	HandleAuto HandleType = "auto"
	// HandleTangent reads the tangent from an explicit handle bone.
	HandleTangent HandleType = "tangent"
)

// Bone is a single bone in the output graph: a rest transform, optional
// multi-segment interpolation settings, and the constraint/driver stacks
// attached to it by generators.
type Bone struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`

	Head Vec3    `json:"head"`
	Tail Vec3    `json:"tail"`
	Roll float64 `json:"roll,omitempty"`

	// Rotation is the explicit rest orientation applied to control bones
	// whose frame is computed rather than derived from head/tail.
	Rotation Quat `json:"rotation"`

	// Connected marks the head as welded to the parent's tail.
	Connected    bool             `json:"connected,omitempty"`
	InheritScale InheritScaleMode `json:"inherit_scale,omitempty"`

	Deform bool `json:"deform,omitempty"`

	// Multi-segment interpolation settings, active when Segments > 1.
	Segments        int        `json:"segments,omitempty"`
	HandleStartType HandleType `json:"handle_start_type,omitempty"`
	HandleEndType   HandleType `json:"handle_end_type,omitempty"`
	HandleStart     string     `json:"handle_start,omitempty"`
	HandleEnd       string     `json:"handle_end,omitempty"`
	EaseStart       float64    `json:"ease_start,omitempty"`
	EaseEnd         float64    `json:"ease_end,omitempty"`

	Constraints []Constraint `json:"constraints,omitempty"`
	Drivers     []Driver     `json:"drivers,omitempty"`
	Properties  []Property   `json:"properties,omitempty"`

	// RotationMode is set when drivers address individual euler channels.
	RotationMode string `json:"rotation_mode,omitempty"`

	// Widget names the widget shape assigned to a control bone; the mesh
	// itself is host-side.
	Widget string `json:"widget,omitempty"`

	// Hidden marks mechanism bones excluded from the animator-facing set.
	Hidden bool `json:"hidden,omitempty"`
}

// Length returns the rest length of the bone.
func (b *Bone) Length() float64 {
	return b.Tail.Sub(b.Head).Len()
}

// Direction returns the unit vector from head to tail, or the world y axis
// for a zero-length bone.
func (b *Bone) Direction() Vec3 {
	dir, _ := SafeNormalize(b.Tail.Sub(b.Head), Vec3{0, 1, 0})
	return dir
}

// Property is a custom property exposed on a generated control bone as a
// runtime option slider.
type Property struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description,omitempty"`
}
