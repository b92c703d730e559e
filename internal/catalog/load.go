package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"battery_sizer/internal/model"
)

// Load reads YAML overrides and merges them over the built-in tables. A
// chemistry entry replaces the whole built-in profile; environment entries
// are merged per location.
func Load(r io.Reader) (*Tables, error) {
	var overrides Tables
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&overrides); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing tables YAML: %w", err)
	}

	t := Default()
	for c, p := range overrides.Chemistries {
		t.Chemistries[c] = p
	}
	for c, row := range overrides.Environments {
		merged, ok := t.Environments[c]
		if !ok {
			merged = make(map[model.Environment]model.EnvironmentFactor, len(row))
			t.Environments[c] = merged
		}
		for env, f := range row {
			merged[env] = f
		}
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables: %w", err)
	}
	return t, nil
}

// LoadFile loads table overrides from a YAML file.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tables file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
