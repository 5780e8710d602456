package armature

import (
	"fmt"
	"sort"
)

// Armature is the bone graph being generated: an ordered set of named bones
// with parent/child indexing. It is the single mutable output structure of
// a generation run and is not safe for concurrent use.
type Armature struct {
	bones map[string]*Bone
	order []string
}

// New returns an empty armature.
func New() *Armature {
	return &Armature{bones: make(map[string]*Bone)}
}

// AddBone inserts a bone, failing on duplicate names.
func (a *Armature) AddBone(bone *Bone) (*Bone, error) {
	if bone.Name == "" {
		return nil, fmt.Errorf("armature: bone name required")
	}
	if _, exists := a.bones[bone.Name]; exists {
		return nil, fmt.Errorf("armature: bone %s already exists", bone.Name)
	}
	if bone.InheritScale == "" {
		bone.InheritScale = InheritScaleFull
	}
	a.bones[bone.Name] = bone
	a.order = append(a.order, bone.Name)
	return bone, nil
}

// Bone looks up a bone by name.
func (a *Armature) Bone(name string) (*Bone, bool) {
	b, ok := a.bones[name]
	return b, ok
}

// MustBone looks up a bone that the caller knows exists; a miss is a
// programming error.
func (a *Armature) MustBone(name string) *Bone {
	b, ok := a.bones[name]
	if !ok {
		panic(fmt.Sprintf("armature: unknown bone %s", name))
	}
	return b
}

// Len returns the number of bones.
func (a *Armature) Len() int { return len(a.order) }

// Names returns bone names in insertion order.
func (a *Armature) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Bones returns the bones in insertion order.
func (a *Armature) Bones() []*Bone {
	out := make([]*Bone, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.bones[name])
	}
	return out
}

// CopyBone duplicates an existing bone under a new unique name, clearing
// constraint, driver and handle state so the copy starts as a bare bone.
func (a *Armature) CopyBone(src, newName string) (*Bone, error) {
	orig, ok := a.bones[src]
	if !ok {
		return nil, fmt.Errorf("armature: copy of unknown bone %s", src)
	}
	cp := *orig
	cp.Name = a.UniqueName(newName)
	cp.Constraints = nil
	cp.Drivers = nil
	cp.Properties = nil
	cp.Connected = false
	cp.Deform = false
	cp.Segments = 0
	cp.HandleStart, cp.HandleEnd = "", ""
	cp.HandleStartType, cp.HandleEndType = "", ""
	cp.Widget = ""
	return a.AddBone(&cp)
}

// UniqueName returns name, or name with a numeric suffix when taken.
func (a *Armature) UniqueName(name string) string {
	if _, exists := a.bones[name]; !exists {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if _, exists := a.bones[candidate]; !exists {
			return candidate
		}
	}
}

// SetParent reparents a bone, validating both ends.
func (a *Armature) SetParent(child, parent string, inherit InheritScaleMode) error {
	b, ok := a.bones[child]
	if !ok {
		return fmt.Errorf("armature: parent of unknown bone %s", child)
	}
	if parent != "" {
		if _, ok := a.bones[parent]; !ok {
			return fmt.Errorf("armature: unknown parent bone %s", parent)
		}
	}
	b.Parent = parent
	if inherit != "" {
		b.InheritScale = inherit
	}
	return nil
}

// ParentChain connects a sequence of bones head to tail under each other.
func (a *Armature) ParentChain(names []string, inherit InheritScaleMode) error {
	for i := 1; i < len(names); i++ {
		if err := a.SetParent(names[i], names[i-1], inherit); err != nil {
			return err
		}
		a.bones[names[i]].Connected = true
	}
	return nil
}

// Children returns the names of direct children, sorted for determinism.
func (a *Armature) Children(name string) []string {
	var out []string
	for _, b := range a.bones {
		if b.Parent == name {
			out = append(out, b.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Depth returns the number of ancestors above the bone, 0 for a root.
// Unknown bones report 0.
func (a *Armature) Depth(name string) int {
	depth := 0
	b, ok := a.bones[name]
	for ok && b.Parent != "" {
		depth++
		b, ok = a.bones[b.Parent]
		if depth > len(a.bones) {
			// Parent cycle; treat as root rather than looping forever.
			return 0
		}
	}
	return depth
}

// Ancestors returns the parent chain from the bone up to its root.
func (a *Armature) Ancestors(name string) []string {
	var out []string
	b, ok := a.bones[name]
	for ok && b.Parent != "" {
		out = append(out, b.Parent)
		if len(out) > len(a.bones) {
			break
		}
		b, ok = a.bones[b.Parent]
	}
	return out
}

// ConnectedChildren walks the chain of connected children starting below
// the given bone, the way chain generators collect their input bones.
func (a *Armature) ConnectedChildren(name string) []string {
	var out []string
	current := name
	for {
		next := ""
		for _, child := range a.Children(current) {
			if a.bones[child].Connected {
				next = child
				break
			}
		}
		if next == "" {
			return out
		}
		out = append(out, next)
		current = next
	}
}

// AddConstraint appends a constraint to the named bone's stack.
func (a *Armature) AddConstraint(owner string, c Constraint) error {
	b, ok := a.bones[owner]
	if !ok {
		return fmt.Errorf("armature: constraint on unknown bone %s", owner)
	}
	b.Constraints = append(b.Constraints, c)
	return nil
}

// AddDriver appends a driver to the named bone.
func (a *Armature) AddDriver(owner string, d Driver) error {
	b, ok := a.bones[owner]
	if !ok {
		return fmt.Errorf("armature: driver on unknown bone %s", owner)
	}
	b.Drivers = append(b.Drivers, d)
	return nil
}
