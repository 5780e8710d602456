package metarig

import (
	"strings"
	"testing"
)

func validDefinition() *Definition {
	return &Definition{
		Name: "face",
		Bones: []BoneDef{
			{Name: "root", Head: [3]float64{0, 0, 0}, Tail: [3]float64{0, 1, 0}},
			{
				Name:      "brow.L",
				Parent:    "root",
				Head:      [3]float64{0, 1, 0},
				Tail:      [3]float64{0, 2, 0},
				Connected: true,
				Rig:       &RigSpec{Type: "skin.basic_chain"},
			},
		},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validDefinition().Validate(); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Definition)
		wantSub string
	}{
		{"missing name", func(d *Definition) { d.Name = "" }, "name required"},
		{"no bones", func(d *Definition) { d.Bones = nil }, "at least one bone"},
		{"duplicate bone", func(d *Definition) { d.Bones = append(d.Bones, d.Bones[0]) }, "duplicate bone"},
		{"unknown parent", func(d *Definition) { d.Bones[1].Parent = "ghost" }, "unknown parent"},
		{"self parent", func(d *Definition) { d.Bones[0].Parent = "root" }, "its own parent"},
		{"empty rig type", func(d *Definition) { d.Bones[1].Rig.Type = "" }, "rig type required"},
		{"negative segments", func(d *Definition) { d.Bones[1].Rig.Params.Segments = -1 }, "segments"},
		{"falloff below sentinel", func(d *Definition) {
			d.Bones[1].Rig.Params.Falloff = &[3]float64{-11, 0, 0}
		}, "falloff"},
		{"negative pivot", func(d *Definition) { d.Bones[1].Rig.Params.PivotPosition = -2 }, "pivot"},
		{"corner angle range", func(d *Definition) { d.Bones[1].Rig.Params.CornerAngle = 200 }, "corner angle"},
		{"bad glue mode", func(d *Definition) { d.Bones[1].Rig.Params.GlueMode = "sideways" }, "glue mode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := validDefinition()
			tc.mutate(def)
			err := def.Validate()
			if err == nil {
				t.Fatal("invalid definition accepted")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestParamDefaults(t *testing.T) {
	var p Params
	if got := p.SegmentsOrDefault(); got != DefaultSegments {
		t.Errorf("SegmentsOrDefault = %d", got)
	}
	if got := p.FalloffOrDefault(); got != [3]float64{0, 1, 0} {
		t.Errorf("FalloffOrDefault = %v", got)
	}
	if !p.PropagateTwistOrDefault() || !p.ConnectMirrorOrDefault() || !p.MakeDeformOrDefault() {
		t.Error("boolean defaults should be on")
	}
	if got := p.CornerAngleOrDefault(); got != DefaultCornerAngle {
		t.Errorf("CornerAngleOrDefault = %v", got)
	}
	if got := p.GlueModeOrDefault(); got != GlueChild {
		t.Errorf("GlueModeOrDefault = %v", got)
	}

	off := false
	p.PropagateTwist = &off
	p.ConnectMirror = &off
	p.MakeDeform = &off
	if p.PropagateTwistOrDefault() || p.ConnectMirrorOrDefault() || p.MakeDeformOrDefault() {
		t.Error("explicit false ignored")
	}
}

func TestDecodeYAML(t *testing.T) {
	src := `
name: tail
bones:
  - name: base
    head: [0, 0, 0]
    tail: [0, 1, 0]
  - name: seg1
    parent: base
    connected: true
    head: [0, 1, 0]
    tail: [0, 2, 0]
    rig:
      type: skin.stretchy_chain
      params:
        segments: 4
        falloff: [1, 2, 1]
        propagate_twist: false
        pivot_position: 0
`
	def, err := Decode([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if def.Name != "tail" || len(def.Bones) != 2 {
		t.Fatalf("decoded %+v", def)
	}
	spec := def.Bones[1].Rig
	if spec == nil || spec.Type != "skin.stretchy_chain" {
		t.Fatalf("rig spec lost: %+v", spec)
	}
	if spec.Params.Segments != 4 {
		t.Errorf("segments = %d", spec.Params.Segments)
	}
	if spec.Params.Falloff == nil || *spec.Params.Falloff != [3]float64{1, 2, 1} {
		t.Errorf("falloff = %v", spec.Params.Falloff)
	}
	if spec.Params.PropagateTwistOrDefault() {
		t.Error("propagate_twist false not honored")
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	if _, err := Decode([]byte("bones: []\n")); err == nil {
		t.Fatal("nameless definition decoded")
	}
	if _, err := Decode([]byte(":::")); err == nil {
		t.Fatal("malformed yaml decoded")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	def := validDefinition()
	data, err := def.Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if back.Name != def.Name || len(back.Bones) != len(def.Bones) {
		t.Fatalf("round trip changed the definition: %+v", back)
	}
	if back.Bones[1].Rig == nil || back.Bones[1].Rig.Type != "skin.basic_chain" {
		t.Error("rig spec lost in round trip")
	}
}

func TestBuildArmature(t *testing.T) {
	def := validDefinition()
	def.Bones[1].Constraints = []ConstraintDef{{Kind: "copy_location", Target: "root", Relink: "CONTROL"}}
	arm, err := def.BuildArmature()
	if err != nil {
		t.Fatal(err)
	}
	if arm.Len() != 2 {
		t.Fatalf("armature has %d bones", arm.Len())
	}
	bone := arm.MustBone("ORG-brow.L")
	if bone.Parent != "ORG-root" || !bone.Connected || !bone.Hidden {
		t.Errorf("org bone wrong: %+v", bone)
	}
	if len(bone.Constraints) != 1 || bone.Constraints[0].RelinkSpec != "CONTROL" {
		t.Errorf("authored constraint lost: %+v", bone.Constraints)
	}
}

func TestBuildArmatureUnknownParent(t *testing.T) {
	def := validDefinition()
	def.Bones[1].Parent = "ghost"
	if _, err := def.BuildArmature(); err == nil {
		t.Fatal("unknown parent accepted")
	}
}
