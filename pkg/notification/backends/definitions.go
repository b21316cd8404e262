package backends

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend kinds understood by Build.
const (
	KindSite  = "site"
	KindEmail = "email"
)

// Definition configures one medium.
type Definition struct {
	Medium          string `yaml:"medium"`
	Label           string `yaml:"label"`
	Kind            string `yaml:"kind"`
	SpamSensitivity int    `yaml:"spam_sensitivity"`
}

type definitionsFile struct {
	Backends []Definition `yaml:"backends"`
}

// DefaultDefinitions is the registry used when no backends file is configured.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Medium: "0", Label: "site", Kind: KindSite, SpamSensitivity: 1},
		{Medium: "1", Label: "email", Kind: KindEmail, SpamSensitivity: 2},
	}
}

// LoadDefinitions reads a YAML file of the form
//
//	backends:
//	  - medium: "0"
//	    label: site
//	    kind: site
//	    spam_sensitivity: 1
//
// An empty path returns DefaultDefinitions.
func LoadDefinitions(path string) ([]Definition, error) {
	if path == "" {
		return DefaultDefinitions(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return ParseDefinitions(raw)
}

// ParseDefinitions decodes YAML definitions. Unknown fields are rejected.
func ParseDefinitions(raw []byte) ([]Definition, error) {
	var f definitionsFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if len(f.Backends) == 0 {
		return nil, fmt.Errorf("%w: no backends", ErrInvalidFile)
	}
	return f.Backends, nil
}
