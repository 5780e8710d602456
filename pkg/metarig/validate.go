package metarig

import "fmt"

// minFalloff is the disabled sentinel; exponents below it are authoring
// mistakes.
const minFalloff = -10

// Validate checks structural soundness of the definition before any
// generation work starts. Generator-specific constraints (chain length,
// pivot range) are checked by the generators themselves, which know their
// own input shape.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("metarig: name required")
	}
	if len(d.Bones) == 0 {
		return fmt.Errorf("metarig %s: at least one bone required", d.Name)
	}
	seen := make(map[string]struct{}, len(d.Bones))
	for i := range d.Bones {
		bone := &d.Bones[i]
		if err := bone.validate(); err != nil {
			return fmt.Errorf("metarig %s: %w", d.Name, err)
		}
		if _, dup := seen[bone.Name]; dup {
			return fmt.Errorf("metarig %s: duplicate bone %s", d.Name, bone.Name)
		}
		seen[bone.Name] = struct{}{}
	}
	for i := range d.Bones {
		bone := &d.Bones[i]
		if bone.Parent == "" {
			continue
		}
		if _, ok := seen[bone.Parent]; !ok {
			return fmt.Errorf("metarig %s: bone %s references unknown parent %s", d.Name, bone.Name, bone.Parent)
		}
	}
	return nil
}

func (b *BoneDef) validate() error {
	if b.Name == "" {
		return fmt.Errorf("bone name required")
	}
	if b.Parent == b.Name {
		return fmt.Errorf("bone %s is its own parent", b.Name)
	}
	if b.Rig != nil {
		if err := b.Rig.validate(b.Name); err != nil {
			return err
		}
	}
	return nil
}

func (r *RigSpec) validate(bone string) error {
	if r.Type == "" {
		return fmt.Errorf("bone %s: rig type required", bone)
	}
	p := &r.Params
	if p.Segments < 0 {
		return fmt.Errorf("bone %s: segments must not be negative", bone)
	}
	if p.Falloff != nil {
		for i, f := range p.Falloff {
			if f < minFalloff {
				return fmt.Errorf("bone %s: falloff[%d] below disable sentinel %d", bone, i, minFalloff)
			}
		}
	}
	if p.PivotPosition < 0 {
		return fmt.Errorf("bone %s: pivot position must not be negative", bone)
	}
	if p.CornerAngle < 0 || p.CornerAngle > 180 {
		return fmt.Errorf("bone %s: corner angle must be within 0..180", bone)
	}
	switch p.GlueModeOrDefault() {
	case GlueChild, GlueMirror, GlueReparent:
	default:
		return fmt.Errorf("bone %s: unknown glue mode %q", bone, p.GlueMode)
	}
	return nil
}
