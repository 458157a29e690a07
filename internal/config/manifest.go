package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SplitPlaceholder is substituted with train, val, test or test_private in
// a dataset's output pattern.
const SplitPlaceholder = "{split}"

// DatasetSpec names one source dataset of a conversion run.
type DatasetSpec struct {
	Name      string         `json:"name"`
	Format    string         `json:"format"`
	Input     string         `json:"input"`  // file path or glob, depending on the format
	Output    string         `json:"output"` // path pattern containing {split}
	Overrides *ConvertConfig `json:"overrides,omitempty"`
}

// Manifest is a conversion run description: global options plus the
// datasets they apply to.
type Manifest struct {
	ConvertConfig
	Datasets []DatasetSpec `json:"datasets"`
}

// LoadManifest loads a manifest file. Global options and each dataset's
// effective options (global merged with overrides) are validated.
func LoadManifest(path string) (*Manifest, error) {
	data, err := readJSONFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the global options and every dataset entry.
func (m *Manifest) Validate() error {
	if err := m.ConvertConfig.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(m.Datasets))
	for i, ds := range m.Datasets {
		if err := ds.Validate(); err != nil {
			return fmt.Errorf("dataset %d: %w", i, err)
		}
		if seen[ds.Name] {
			return invalid("duplicate dataset name %q", ds.Name)
		}
		seen[ds.Name] = true
		if err := m.ConvertConfig.Merge(ds.Overrides).Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", ds.Name, err)
		}
	}
	return nil
}

// Validate checks that a dataset entry is complete.
func (ds DatasetSpec) Validate() error {
	switch {
	case ds.Name == "":
		return invalid("dataset name is required")
	case ds.Format == "":
		return invalid("dataset %q: format is required", ds.Name)
	case ds.Input == "":
		return invalid("dataset %q: input is required", ds.Name)
	case !strings.Contains(ds.Output, SplitPlaceholder):
		return invalid("dataset %q: output %q must contain %s", ds.Name, ds.Output, SplitPlaceholder)
	}
	return nil
}
