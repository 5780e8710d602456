package armature

import "strings"

// Side is the left/right symmetry axis of a bone name tag.
type Side int8

// Left/right sides. Middle means no tag on this axis.
const (
	SideRight  Side = -1
	SideMiddle Side = 0
	SideLeft   Side = 1
)

// SideZ is the top/bottom symmetry axis of a bone name tag.
type SideZ int8

// Top/bottom sides. Middle means no tag on this axis.
const (
	SideBottom SideZ = -1
	SideZNone  SideZ = 0
	SideTop    SideZ = 1
)

// NameSides is the parsed form of a bone name: the base name plus the
// symmetry tags on the two independent axes. Two names are symmetry
// siblings when their bases match and their tags are complementary.
type NameSides struct {
	Base  string
	Side  Side
	SideZ SideZ
}

// ParseName splits a bone name into its base and recognized symmetry tag
// suffixes. The grammar is base[.T|.B][.L|.R] with '.', '-' or '_'
// separators, case-insensitive. Unrecognized names parse as untagged.
func ParseName(name string) NameSides {
	split := NameSides{Base: name}

	base, tag := trimSideTag(split.Base)
	switch tag {
	case "l":
		split.Side = SideLeft
		split.Base = base
	case "r":
		split.Side = SideRight
		split.Base = base
	}

	base, tag = trimSideTag(split.Base)
	switch tag {
	case "t":
		split.SideZ = SideTop
		split.Base = base
	case "b":
		split.SideZ = SideBottom
		split.Base = base
	}

	return split
}

// trimSideTag splits off a trailing one-letter tag with its separator.
func trimSideTag(name string) (base, tag string) {
	if len(name) < 3 {
		return name, ""
	}
	sep := name[len(name)-2]
	if sep != '.' && sep != '-' && sep != '_' {
		return name, ""
	}
	return name[:len(name)-2], strings.ToLower(name[len(name)-1:])
}

// Tagged reports whether the name carries a symmetry marker on either axis.
func (n NameSides) Tagged() bool {
	return n.Side != SideMiddle || n.SideZ != SideZNone
}

// String reconstructs the tagged name using '.' separators.
func (n NameSides) String() string {
	name := n.Base
	switch n.SideZ {
	case SideTop:
		name += ".T"
	case SideBottom:
		name += ".B"
	}
	switch n.Side {
	case SideLeft:
		name += ".L"
	case SideRight:
		name += ".R"
	}
	return name
}

// MirrorCandidates lists the sibling tag combinations to search for a
// mirror counterpart, in preference order: fully flipped on both axes,
// flipped left/right only, flipped top/bottom only.
func (n NameSides) MirrorCandidates() []NameSides {
	return []NameSides{
		{Base: n.Base, Side: -n.Side, SideZ: -n.SideZ},
		{Base: n.Base, Side: -n.Side, SideZ: n.SideZ},
		{Base: n.Base, Side: n.Side, SideZ: -n.SideZ},
	}
}

// BoneKind classifies generated bones by role.
type BoneKind string

// Generated bone roles and their name prefixes.
const (
	// KindOrg marks a copy of an input metarig bone.
	KindOrg BoneKind = "org"
	// KindCtrl marks an animator-facing control bone.
	KindCtrl BoneKind = "ctrl"
	// KindMch marks an internal mechanism bone.
	KindMch BoneKind = "mch"
	// KindDef marks a deforming bone.
	KindDef BoneKind = "def"
)

var kindPrefixes = map[BoneKind]string{
	KindOrg: "ORG-",
	KindMch: "MCH-",
	KindDef: "DEF-",
}

// StripKindPrefix removes a generated-role prefix, returning the base name.
func StripKindPrefix(name string) string {
	for _, prefix := range kindPrefixes {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}

// DerivedName builds the name of a bone derived from an existing one: the
// role prefix is replaced and the suffix is inserted between the base name
// and any symmetry tags, so "MCH-brow.T.L" derived as def with suffix
// "_handle" becomes "DEF-brow_handle.T.L". Control bones carry no prefix.
func DerivedName(name string, kind BoneKind, suffix string) string {
	base := StripKindPrefix(name)
	if suffix != "" {
		split := ParseName(base)
		split.Base += suffix
		base = split.String()
	}
	return kindPrefixes[kind] + base
}
