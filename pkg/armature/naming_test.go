package armature

import "testing"

func TestParseNameTags(t *testing.T) {
	cases := []struct {
		in   string
		want NameSides
	}{
		{"brow", NameSides{Base: "brow"}},
		{"brow.L", NameSides{Base: "brow", Side: SideLeft}},
		{"brow.R", NameSides{Base: "brow", Side: SideRight}},
		{"brow.T", NameSides{Base: "brow", SideZ: SideTop}},
		{"brow.B", NameSides{Base: "brow", SideZ: SideBottom}},
		{"brow.T.L", NameSides{Base: "brow", Side: SideLeft, SideZ: SideTop}},
		{"brow.B.R", NameSides{Base: "brow", Side: SideRight, SideZ: SideBottom}},
		{"brow_l", NameSides{Base: "brow", Side: SideLeft}},
		{"brow-R", NameSides{Base: "brow", Side: SideRight}},
		{"brow_b_l", NameSides{Base: "brow", Side: SideLeft, SideZ: SideBottom}},
		{"lip.T.R.001", NameSides{Base: "lip.T.R.001"}},
		{"ab", NameSides{Base: "ab"}},
		{"x.L", NameSides{Base: "x", Side: SideLeft}},
	}
	for _, tc := range cases {
		if got := ParseName(tc.in); got != tc.want {
			t.Errorf("ParseName(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestNameSidesRoundTrip(t *testing.T) {
	// Every canonical tagged form survives a parse/format cycle.
	for _, side := range []Side{SideRight, SideMiddle, SideLeft} {
		for _, sideZ := range []SideZ{SideBottom, SideZNone, SideTop} {
			want := NameSides{Base: "jaw", Side: side, SideZ: sideZ}
			if got := ParseName(want.String()); got != want {
				t.Errorf("round trip of %+v via %q gave %+v", want, want.String(), got)
			}
		}
	}
}

func TestNameSidesTagged(t *testing.T) {
	if (NameSides{Base: "brow"}).Tagged() {
		t.Error("untagged name reported tagged")
	}
	if !(NameSides{Base: "brow", Side: SideLeft}).Tagged() {
		t.Error("side-tagged name not reported tagged")
	}
	if !(NameSides{Base: "brow", SideZ: SideBottom}).Tagged() {
		t.Error("z-tagged name not reported tagged")
	}
}

func TestMirrorCandidatesOrder(t *testing.T) {
	n := NameSides{Base: "lid", Side: SideLeft, SideZ: SideTop}
	got := n.MirrorCandidates()
	want := []NameSides{
		{Base: "lid", Side: SideRight, SideZ: SideBottom},
		{Base: "lid", Side: SideRight, SideZ: SideTop},
		{Base: "lid", Side: SideLeft, SideZ: SideBottom},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStripKindPrefix(t *testing.T) {
	cases := map[string]string{
		"ORG-arm":  "arm",
		"MCH-arm":  "arm",
		"DEF-arm":  "arm",
		"arm":      "arm",
		"ORGS-arm": "ORGS-arm",
	}
	for in, want := range cases {
		if got := StripKindPrefix(in); got != want {
			t.Errorf("StripKindPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDerivedName(t *testing.T) {
	cases := []struct {
		name   string
		kind   BoneKind
		suffix string
		want   string
	}{
		{"ORG-brow.T.L", KindDef, "_handle", "DEF-brow_handle.T.L"},
		{"ORG-arm", KindCtrl, "", "arm"},
		{"arm.L", KindMch, "_parent", "MCH-arm_parent.L"},
		{"DEF-jaw", KindOrg, "", "ORG-jaw"},
		{"MCH-lip.B", KindMch, "_reparent", "MCH-lip_reparent.B"},
	}
	for _, tc := range cases {
		if got := DerivedName(tc.name, tc.kind, tc.suffix); got != tc.want {
			t.Errorf("DerivedName(%q, %v, %q) = %q, want %q", tc.name, tc.kind, tc.suffix, got, tc.want)
		}
	}
}
