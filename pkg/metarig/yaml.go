package metarig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Decode parses a YAML metarig definition and validates it.
func Decode(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("metarig: decode: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Encode serializes the definition to YAML.
func (d *Definition) Encode() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("metarig: encode: %w", err)
	}
	return data, nil
}

// Load reads and decodes a metarig file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- caller-chosen input file
	if err != nil {
		return nil, fmt.Errorf("metarig: read %s: %w", path, err)
	}
	def, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("metarig: %s: %w", path, err)
	}
	return def, nil
}
