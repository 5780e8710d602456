package armature

// TransformChannel identifies the transform component read by a driver
// variable.
type TransformChannel string

// Driver variable transform channels.
const (
	ChannelRotX   TransformChannel = "rot_x"
	ChannelRotY   TransformChannel = "rot_y"
	ChannelRotZ   TransformChannel = "rot_z"
	ChannelScaleX TransformChannel = "scale_x"
	ChannelScaleY TransformChannel = "scale_y"
	ChannelScaleZ TransformChannel = "scale_z"
	ChannelLocX   TransformChannel = "loc_x"
	ChannelLocY   TransformChannel = "loc_y"
	ChannelLocZ   TransformChannel = "loc_z"
)

// RotationMode selects the rotation decomposition used by a transform
// variable; swing-twist modes isolate twist around one axis.
type RotationMode string

// Driver variable rotation modes.
const (
	RotationSwingTwistY RotationMode = "swing_twist_y"
)

// DriverVar is one named input of a driver expression, reading either a
// transform channel or a custom property of a bone.
type DriverVar struct {
	Name         string           `json:"name"`
	Bone         string           `json:"bone"`
	Channel      TransformChannel `json:"channel,omitempty"`
	Property     string           `json:"property,omitempty"`
	Space        Space            `json:"space,omitempty"`
	RotationMode RotationMode     `json:"rotation_mode,omitempty"`
}

// TransformVar builds a local-space transform variable, the common case for
// twist propagation drivers.
func TransformVar(name, bone string, channel TransformChannel, mode RotationMode) DriverVar {
	return DriverVar{Name: name, Bone: bone, Channel: channel, Space: SpaceLocal, RotationMode: mode}
}

// PropVar builds a variable reading a custom property of a bone.
func PropVar(name, bone, property string) DriverVar {
	return DriverVar{Name: name, Bone: bone, Property: property}
}

// Driver attaches an expression to a property of the owning bone. Index
// addresses one component of a vector property such as rotation_euler.
type Driver struct {
	Property   string      `json:"property"`
	Index      int         `json:"index"`
	Expression string      `json:"expression"`
	Variables  []DriverVar `json:"variables,omitempty"`
}
