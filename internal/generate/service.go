package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"rigcore/internal/skin"
	"rigcore/pkg/armature"
	"rigcore/pkg/metarig"
)

// Service runs the staged generation protocol over metarig definitions.
type Service struct {
	registry *Registry
	metrics  MetricsRecorder
	log      *slog.Logger
}

// Option configures a service.
type Option func(*Service)

// WithMetricsRecorder installs a metrics sink for operation timings.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger installs a structured logger for phase progress.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService constructs a service over the given factory registry.
func NewService(registry *Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		metrics:  NopMetricsRecorder{},
		log:      defaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats summarizes one generation run.
type Stats struct {
	Generators int `json:"generators"`
	Groups     int `json:"groups"`
	Controls   int `json:"controls"`
	Bones      int `json:"bones"`
}

// Result is the output of one generation run: the finished armature
// plus the warnings collected along the way.
type Result struct {
	Rig      *armature.Armature
	Warnings []skin.Warning
	Stats    Stats
}

// Generate builds a rig from the definition. Configuration problems
// abort with a ConfigError naming the offending bone; recoverable
// geometry anomalies are collected as warnings on the result.
func (s *Service) Generate(ctx context.Context, def *metarig.Definition) (*Result, error) {
	started := time.Now()
	res, err := s.generate(ctx, def)
	s.metrics.Observe(ctx, "generate", err == nil, time.Since(started))
	if err != nil {
		s.log.ErrorContext(ctx, "rig generation failed", "metarig", def.Name, "error", err)
		return nil, err
	}
	s.log.InfoContext(ctx, "rig generated",
		"metarig", def.Name,
		"generators", res.Stats.Generators,
		"controls", res.Stats.Controls,
		"bones", res.Stats.Bones,
		"warnings", len(res.Warnings),
		"duration", time.Since(started))
	return res, nil
}

func (s *Service) generate(ctx context.Context, def *metarig.Definition) (*Result, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	arm, err := def.BuildArmature()
	if err != nil {
		return nil, err
	}

	rt := newRuntime(def, arm, s.log)
	gens, err := s.instantiate(rt, def)
	if err != nil {
		return nil, err
	}

	if err := s.phase(ctx, "initialize", gens, Generator.Initialize); err != nil {
		return nil, err
	}
	if err := s.phase(ctx, "register_nodes", gens, Generator.RegisterNodes); err != nil {
		return nil, err
	}

	rt.Nodes.Freeze()
	skin.NewComposer(rt.Nodes).ComposeAll()
	rt.Builder = skin.NewBuilder(arm, rt.Nodes)

	if err := s.phase(ctx, "generate_bones", gens, Generator.GenerateBones); err != nil {
		return nil, err
	}
	if err := rt.Builder.BuildGroupBones(); err != nil {
		return nil, err
	}
	if err := rt.Builder.ParentGroupBones(); err != nil {
		return nil, err
	}
	if err := s.phase(ctx, "parent_bones", gens, Generator.ParentBones); err != nil {
		return nil, err
	}
	if err := rt.Builder.RigGroupBones(); err != nil {
		return nil, err
	}
	if err := s.phase(ctx, "rig_bones", gens, Generator.RigBones); err != nil {
		return nil, err
	}
	if err := s.phase(ctx, "finalize", gens, Generator.Finalize); err != nil {
		return nil, err
	}

	res := &Result{
		Rig:      arm,
		Warnings: rt.Builder.Warnings(),
		Stats: Stats{
			Generators: len(gens),
			Groups:     len(rt.Nodes.Groups()),
			Bones:      arm.Len(),
		},
	}
	for _, g := range rt.Nodes.Groups() {
		if g.ControlBone != "" {
			res.Stats.Controls++
		}
	}
	return res, nil
}

// instantiate builds one generator per tagged bone, ordered ancestors
// first so parent rigs exist before their children look them up.
func (s *Service) instantiate(rt *Runtime, def *metarig.Definition) ([]Generator, error) {
	type tagged struct {
		def   *metarig.BoneDef
		depth int
		pos   int
	}
	var bones []tagged
	for i := range def.Bones {
		b := &def.Bones[i]
		if b.Rig == nil {
			continue
		}
		org := armature.DerivedName(b.Name, armature.KindOrg, "")
		bones = append(bones, tagged{def: b, depth: rt.Arm.Depth(org), pos: i})
	}
	sort.SliceStable(bones, func(i, j int) bool {
		if bones[i].depth != bones[j].depth {
			return bones[i].depth < bones[j].depth
		}
		return bones[i].pos < bones[j].pos
	})

	gens := make([]Generator, 0, len(bones))
	for _, b := range bones {
		gen, err := s.registry.New(rt, b.def, b.def.Rig)
		if err != nil {
			return nil, err
		}
		org := armature.DerivedName(b.def.Name, armature.KindOrg, "")
		if gen.Org() != org {
			return nil, &ConfigError{Bone: b.def.Name, Kind: b.def.Rig.Type,
				Err: fmt.Errorf("generator claims bone %s", gen.Org())}
		}
		rt.byOrg[org] = gen
		gens = append(gens, gen)
	}
	return gens, nil
}

func (s *Service) phase(ctx context.Context, name string, gens []Generator, step func(Generator) error) error {
	started := time.Now()
	for _, gen := range gens {
		if err := step(gen); err != nil {
			s.metrics.Observe(ctx, "phase_"+name, false, time.Since(started))
			return WrapConfig(armature.StripKindPrefix(gen.Org()), gen.Kind(), err)
		}
	}
	s.metrics.Observe(ctx, "phase_"+name, true, time.Since(started))
	s.log.DebugContext(ctx, "generation phase complete", "phase", name, "generators", len(gens))
	return nil
}
