package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// stubGenerator registers a single control node on its base bone and
// records every phase call into a shared trace.
type stubGenerator struct {
	rt    *Runtime
	org   string
	trace *[]string

	node      *skin.ControlNode
	failPhase string
}

func stubFactory(trace *[]string) Factory {
	return func(rt *Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (Generator, error) {
		return &stubGenerator{
			rt:  rt,
			org: armature.DerivedName(def.Name, armature.KindOrg, ""),

			trace: trace,
		}, nil
	}
}

func (s *stubGenerator) Kind() string { return "test.stub" }
func (s *stubGenerator) Org() string  { return s.org }

func (s *stubGenerator) BaseBone() string                  { return s.org }
func (s *stubGenerator) ParentDepth() int                  { return s.rt.Arm.Depth(s.org) }
func (s *stubGenerator) ControlRotation() armature.Quat    { return armature.QuatIdent() }
func (s *stubGenerator) ParentRigs() []skin.ChainRig       { return []skin.ChainRig{s} }
func (s *stubGenerator) ExtendNodeParent(p skin.Parent, _ *skin.ControlNode) skin.Parent {
	return p
}

func (s *stubGenerator) BuildNodeParent(*skin.ControlNode) skin.Parent {
	parent := s.rt.Arm.MustBone(s.org).Parent
	if parent == "" {
		parent = s.org
	}
	return &skin.ParentOrg{Bone: parent}
}

func (s *stubGenerator) record(phase string) error {
	*s.trace = append(*s.trace, phase+":"+s.org)
	if s.failPhase == phase {
		return fmt.Errorf("stub failure in %s", phase)
	}
	return nil
}

func (s *stubGenerator) Initialize() error { return s.record("initialize") }

func (s *stubGenerator) RegisterNodes() error {
	bone := s.rt.Arm.MustBone(s.org)
	s.node = s.rt.Nodes.Register(&skin.ControlNode{
		Rig:      s,
		Kind:     skin.NodeControl,
		Org:      s.org,
		Name:     armature.DerivedName(s.org, armature.KindCtrl, ""),
		Point:    bone.Head,
		Size:     bone.Length(),
		CanMerge: true,
	})
	return s.record("register_nodes")
}

func (s *stubGenerator) GenerateBones() error { return s.record("generate_bones") }

func (s *stubGenerator) ParentBones() error {
	if err := s.rt.Arm.SetParent(s.org, s.node.ControlBone(), ""); err != nil {
		return err
	}
	return s.record("parent_bones")
}

func (s *stubGenerator) RigBones() error { return s.record("rig_bones") }
func (s *stubGenerator) Finalize() error { return s.record("finalize") }

func stubDefinition() *metarig.Definition {
	return &metarig.Definition{
		Name: "stub-face",
		Bones: []metarig.BoneDef{
			{Name: "root", Head: [3]float64{0, 0, 0}, Tail: [3]float64{0, 0, 1}},
			{Name: "jaw", Parent: "root", Head: [3]float64{0, 1, 0}, Tail: [3]float64{0, 1, 1},
				Rig: &metarig.RigSpec{Type: "test.stub"}},
			{Name: "brow.L", Parent: "jaw", Head: [3]float64{1, 2, 0}, Tail: [3]float64{1, 2, 1},
				Rig: &metarig.RigSpec{Type: "test.stub"}},
		},
	}
}

func stubService(t *testing.T, trace *[]string, opts ...Option) *Service {
	t.Helper()
	reg := NewRegistry()
	if err := reg.Register("test.stub", stubFactory(trace)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return NewService(reg, opts...)
}

func TestRegistryRejectsDuplicateKind(t *testing.T) {
	reg := NewRegistry()
	factory := stubFactory(new([]string))
	if err := reg.Register("test.stub", factory); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := reg.Register("test.stub", factory)
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("duplicate Register = %v, want already-registered error", err)
	}
	if err := reg.Register("", factory); err == nil {
		t.Fatal("Register with empty kind succeeded")
	}
}

func TestRegistryKindsSorted(t *testing.T) {
	reg := NewRegistry()
	factory := stubFactory(new([]string))
	for _, kind := range []string{"skin.glue", "skin.anchor", "skin.basic_chain"} {
		if err := reg.Register(kind, factory); err != nil {
			t.Fatalf("Register(%s): %v", kind, err)
		}
	}
	kinds := reg.Kinds()
	want := []string{"skin.anchor", "skin.basic_chain", "skin.glue"}
	if len(kinds) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("Kinds() = %v, want %v", kinds, want)
		}
	}
}

func TestRegistryNewUnknownKind(t *testing.T) {
	reg := NewRegistry()
	def := &metarig.BoneDef{Name: "jaw"}
	_, err := reg.New(nil, def, &metarig.RigSpec{Type: "skin.nope"})
	var cfg *ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("New unknown kind = %v, want *ConfigError", err)
	}
	if cfg.Bone != "jaw" || cfg.Kind != "skin.nope" {
		t.Fatalf("ConfigError attribution = %q/%q", cfg.Bone, cfg.Kind)
	}
}

func TestWrapConfigPassesThroughAttributed(t *testing.T) {
	inner := &ConfigError{Bone: "jaw", Kind: "test.stub", Err: errors.New("bad segments")}
	if got := WrapConfig("brow.L", "skin.glue", inner); got != inner {
		t.Fatalf("WrapConfig rewrapped an attributed error: %v", got)
	}
	if got := WrapConfig("jaw", "test.stub", nil); got != nil {
		t.Fatalf("WrapConfig(nil) = %v", got)
	}
	wrapped := WrapConfig("jaw", "test.stub", errors.New("bad segments"))
	if want := "bone jaw (test.stub): bad segments"; wrapped.Error() != want {
		t.Fatalf("wrapped error = %q, want %q", wrapped.Error(), want)
	}
}

func TestGenerateHappyPath(t *testing.T) {
	var trace []string
	svc := stubService(t, &trace)

	res, err := svc.Generate(context.Background(), stubDefinition())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Stats.Generators != 2 {
		t.Fatalf("Stats.Generators = %d, want 2", res.Stats.Generators)
	}
	if res.Stats.Controls != 2 {
		t.Fatalf("Stats.Controls = %d, want 2", res.Stats.Controls)
	}
	if res.Stats.Bones != res.Rig.Len() {
		t.Fatalf("Stats.Bones = %d, armature has %d", res.Stats.Bones, res.Rig.Len())
	}

	// Each stub org is reparented under its generated control, and each
	// control sits under the org's original parent.
	orgParents := map[string]string{"jaw": "ORG-root", "brow.L": "ORG-jaw"}
	for name, wantParent := range orgParents {
		org := "ORG-" + name
		ctrl := res.Rig.MustBone(org).Parent
		if ctrl != name {
			t.Fatalf("%s parent = %q, want control %q", org, ctrl, name)
		}
		if got := res.Rig.MustBone(ctrl).Parent; got != wantParent {
			t.Fatalf("control %s parent = %q, want %q", ctrl, got, wantParent)
		}
	}
}

func TestGenerateOrdersGeneratorsByDepth(t *testing.T) {
	def := stubDefinition()
	// Declare the deeper bone first; instantiation must still run the
	// shallower jaw generator ahead of it in every phase.
	def.Bones[1], def.Bones[2] = def.Bones[2], def.Bones[1]
	def.Bones[1].Parent = "jaw"
	def.Bones[2].Parent = "root"

	var trace []string
	svc := stubService(t, &trace)
	if _, err := svc.Generate(context.Background(), def); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var inits []string
	for _, step := range trace {
		if strings.HasPrefix(step, "initialize:") {
			inits = append(inits, step)
		}
	}
	want := []string{"initialize:ORG-jaw", "initialize:ORG-brow.L"}
	if len(inits) != 2 || inits[0] != want[0] || inits[1] != want[1] {
		t.Fatalf("initialize order = %v, want %v", inits, want)
	}
}

func TestGeneratePhaseErrorAttribution(t *testing.T) {
	var trace []string
	reg := NewRegistry()
	err := reg.Register("test.stub", func(rt *Runtime, def *metarig.BoneDef, spec *metarig.RigSpec) (Generator, error) {
		gen := &stubGenerator{rt: rt, org: armature.DerivedName(def.Name, armature.KindOrg, ""), trace: &trace}
		if def.Name == "brow.L" {
			gen.failPhase = "rig_bones"
		}
		return gen, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = NewService(reg).Generate(context.Background(), stubDefinition())
	var cfg *ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("Generate = %v, want *ConfigError", err)
	}
	if cfg.Bone != "brow.L" || cfg.Kind != "test.stub" {
		t.Fatalf("ConfigError attribution = %q/%q", cfg.Bone, cfg.Kind)
	}
	if !strings.Contains(cfg.Error(), "stub failure in rig_bones") {
		t.Fatalf("ConfigError message = %q", cfg.Error())
	}
}

func TestGenerateRejectsInvalidDefinition(t *testing.T) {
	var trace []string
	svc := stubService(t, &trace)
	def := stubDefinition()
	def.Name = ""
	if _, err := svc.Generate(context.Background(), def); err == nil {
		t.Fatal("Generate accepted a definition without a name")
	}
	if len(trace) != 0 {
		t.Fatalf("generators ran before validation: %v", trace)
	}
}

func TestGenerateUnknownGeneratorType(t *testing.T) {
	var trace []string
	svc := stubService(t, &trace)
	def := stubDefinition()
	def.Bones[2].Rig.Type = "skin.nope"
	_, err := svc.Generate(context.Background(), def)
	var cfg *ConfigError
	if !errors.As(err, &cfg) {
		t.Fatalf("Generate = %v, want *ConfigError", err)
	}
	if cfg.Bone != "brow.L" {
		t.Fatalf("ConfigError bone = %q, want brow.L", cfg.Bone)
	}
}

func TestGenerateRecordsMetrics(t *testing.T) {
	var trace []string
	rec := NewExpvarMetricsRecorder("")
	svc := stubService(t, &trace, WithMetricsRecorder(rec))

	if _, err := svc.Generate(context.Background(), stubDefinition()); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	snap := rec.Snapshot()
	if snap.Results["generate"]["success"] != 1 {
		t.Fatalf("generate success count = %d, want 1", snap.Results["generate"]["success"])
	}
	for _, phase := range []string{"initialize", "register_nodes", "generate_bones", "parent_bones", "rig_bones", "finalize"} {
		if snap.Results["phase_"+phase]["success"] != 1 {
			t.Fatalf("phase %s success count = %d, want 1", phase, snap.Results["phase_"+phase]["success"])
		}
	}
}
