package armature

import (
	"encoding/json"
	"testing"
)

func testBone(name, parent string) *Bone {
	return &Bone{Name: name, Parent: parent, Head: Vec3{0, 0, 0}, Tail: Vec3{0, 1, 0}, Rotation: QuatIdent()}
}

func buildTestArm(t *testing.T, bones ...*Bone) *Armature {
	t.Helper()
	arm := New()
	for _, b := range bones {
		if _, err := arm.AddBone(b); err != nil {
			t.Fatalf("AddBone(%s): %v", b.Name, err)
		}
	}
	return arm
}

func TestAddBoneRejectsDuplicates(t *testing.T) {
	arm := buildTestArm(t, testBone("root", ""))
	if _, err := arm.AddBone(testBone("root", "")); err == nil {
		t.Fatal("duplicate bone accepted")
	}
	if _, err := arm.AddBone(testBone("", "")); err == nil {
		t.Fatal("unnamed bone accepted")
	}
}

func TestHierarchyQueries(t *testing.T) {
	arm := buildTestArm(t,
		testBone("root", ""),
		testBone("a", "root"),
		testBone("b", "a"),
		testBone("c", "a"),
	)
	if got := arm.Depth("b"); got != 2 {
		t.Errorf("Depth(b) = %d, want 2", got)
	}
	anc := arm.Ancestors("b")
	if len(anc) != 2 || anc[0] != "a" || anc[1] != "root" {
		t.Errorf("Ancestors(b) = %v", anc)
	}
	kids := arm.Children("a")
	if len(kids) != 2 || kids[0] != "b" || kids[1] != "c" {
		t.Errorf("Children(a) = %v", kids)
	}
}

func TestConnectedChildren(t *testing.T) {
	a := testBone("a", "root")
	b := testBone("b", "a")
	b.Connected = true
	c := testBone("c", "b")
	c.Connected = true
	d := testBone("d", "b")
	arm := buildTestArm(t, testBone("root", ""), a, b, c, d)

	got := arm.ConnectedChildren("a")
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Errorf("ConnectedChildren(a) = %v, want [b c]", got)
	}
}

func TestCopyBoneClearsGeneratedState(t *testing.T) {
	src := testBone("src", "root")
	src.Deform = true
	src.Segments = 8
	src.Widget = "sphere"
	src.Constraints = append(src.Constraints, NewConstraint(ConstraintCopyLocation, "root"))
	arm := buildTestArm(t, testBone("root", ""), src)

	cp, err := arm.CopyBone("src", "copy")
	if err != nil {
		t.Fatal(err)
	}
	if cp.Deform || cp.Segments != 0 || cp.Widget != "" || cp.Constraints != nil {
		t.Errorf("copy kept generated state: %+v", cp)
	}
	if cp.Head != src.Head || cp.Tail != src.Tail {
		t.Error("copy lost the rest transform")
	}
}

func TestUniqueName(t *testing.T) {
	arm := buildTestArm(t, testBone("bone", ""))
	if got := arm.UniqueName("fresh"); got != "fresh" {
		t.Errorf("UniqueName(fresh) = %q", got)
	}
	if got := arm.UniqueName("bone"); got != "bone.001" {
		t.Errorf("UniqueName(bone) = %q, want bone.001", got)
	}
}

func TestParentChainConnects(t *testing.T) {
	arm := buildTestArm(t, testBone("a", ""), testBone("b", ""), testBone("c", ""))
	if err := arm.ParentChain([]string{"a", "b", "c"}, InheritScaleAverage); err != nil {
		t.Fatal(err)
	}
	b := arm.MustBone("b")
	if b.Parent != "a" || !b.Connected || b.InheritScale != InheritScaleAverage {
		t.Errorf("chain middle bone wrong: %+v", b)
	}
	if c := arm.MustBone("c"); c.Parent != "b" || !c.Connected {
		t.Errorf("chain end bone wrong: %+v", c)
	}
}

func TestArmatureJSONRoundTrip(t *testing.T) {
	arm := buildTestArm(t, testBone("root", ""), testBone("arm.L", "root"))
	con := NewConstraint(ConstraintStretchTo, "arm.L")
	con.KeepAxis = "SWING_Y"
	if err := arm.AddConstraint("root", con); err != nil {
		t.Fatal(err)
	}
	if err := arm.AddDriver("arm.L", Driver{
		Property:   "rotation_euler",
		Index:      1,
		Expression: "lerp(y1,y2,0.5)",
		Variables:  []DriverVar{TransformVar("y1", "root", ChannelRotY, RotationSwingTwistY)},
	}); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(arm)
	if err != nil {
		t.Fatal(err)
	}
	decoded := New()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Len() != arm.Len() {
		t.Fatalf("decoded %d bones, want %d", decoded.Len(), arm.Len())
	}
	names := decoded.Names()
	if names[0] != "root" || names[1] != "arm.L" {
		t.Errorf("bone order not preserved: %v", names)
	}
	root := decoded.MustBone("root")
	if len(root.Constraints) != 1 || root.Constraints[0].KeepAxis != "SWING_Y" {
		t.Errorf("constraint lost in round trip: %+v", root.Constraints)
	}
	armL := decoded.MustBone("arm.L")
	if len(armL.Drivers) != 1 || armL.Drivers[0].Expression != "lerp(y1,y2,0.5)" {
		t.Errorf("driver lost in round trip: %+v", armL.Drivers)
	}
}
