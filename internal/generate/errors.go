package generate

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid or contradictory metarig configuration,
// attributed to the bone and generator type that rejected it. Geometry
// anomalies that generation can survive are reported as warnings instead.
type ConfigError struct {
	Bone string
	Kind string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("bone %s: %v", e.Bone, e.Err)
	}
	return fmt.Sprintf("bone %s (%s): %v", e.Bone, e.Kind, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WrapConfig attributes an error to a bone and generator type, passing
// through errors that already carry an attribution.
func WrapConfig(bone, kind string, err error) error {
	if err == nil {
		return nil
	}
	var cfg *ConfigError
	if errors.As(err, &cfg) {
		return err
	}
	return &ConfigError{Bone: bone, Kind: kind, Err: err}
}
