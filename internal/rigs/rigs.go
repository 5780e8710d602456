// Package rigs provides the built-in skin generators: chains that
// bridge org bones with interpolating deform mechanisms, anchors that
// seed external automation into the merge system, and glue bones that
// attach constraints to controls found by position.
package rigs

import (
	"rigcore/internal/generate"
)

// Generator type names accepted in metarig rig specs.
const (
	KindBasicChain    = "skin.basic_chain"
	KindStretchyChain = "skin.stretchy_chain"
	KindPivotChain    = "skin.pivot_chain"
	KindAnchor        = "skin.anchor"
	KindGlue          = "skin.glue"
)

// RegisterAll installs every built-in generator factory.
func RegisterAll(reg *generate.Registry) error {
	for kind, factory := range map[string]generate.Factory{
		KindBasicChain:    newBasicChain,
		KindStretchyChain: newStretchyChain,
		KindPivotChain:    newPivotChain,
		KindAnchor:        newAnchor,
		KindGlue:          newGlue,
	} {
		if err := reg.Register(kind, factory); err != nil {
			return err
		}
	}
	return nil
}
