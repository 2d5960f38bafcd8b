package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one configuration term
// collected against one definition, followed by assertions on the result.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definitions lists paths to CUE files holding the definitions.
	// Paths are relative to the scenario file location.
	Definitions []string `yaml:"definitions"`

	// Definition picks a definition by name. It may be omitted when the
	// files declare exactly one.
	Definition string `yaml:"definition,omitempty"`

	// Term is the configuration, in the document shape term.Decode accepts.
	Term map[string]any `yaml:"term"`

	// Assertions validate the collection result.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates a collection result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "cells_equal": Collected labels equal Labels
	// - "paths_equal": Collected label paths equal Paths
	// - "cells_order": Labels appear in this relative order
	// - "cells_count": Exactly Count cells collected
	// - "visited": Exactly Count skeleton cells visited
	// - "error": Collection failed with Code
	// - "run_stored": The run reads back from the store
	Type string `yaml:"type"`

	// Labels are the expected labels (cells_equal, cells_order).
	Labels []string `yaml:"labels,omitempty"`

	// Paths are the expected label paths (paths_equal).
	Paths []string `yaml:"paths,omitempty"`

	// Count is the expected number (cells_count, visited).
	Count int `yaml:"count,omitempty"`

	// Code is the expected error code (error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertCellsEqual = "cells_equal"
	AssertPathsEqual = "paths_equal"
	AssertCellsOrder = "cells_order"
	AssertCellsCount = "cells_count"
	AssertVisited    = "visited"
	AssertError      = "error"
	AssertRunStored  = "run_stored"
)

// LoadScenario reads and parses a scenario YAML file. Definition paths are
// resolved relative to the directory holding the file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving definition paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	for i, defPath := range scenario.Definitions {
		if !filepath.IsAbs(defPath) && basePath != "" {
			scenario.Definitions[i] = filepath.Join(basePath, defPath)
		}
	}

	for _, defPath := range scenario.Definitions {
		if _, err := os.Stat(defPath); err != nil {
			return nil, fmt.Errorf("invalid scenario: definition file %q: %w", defPath, err)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML. Definition paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", p, s.Name, prev)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Definitions) == 0 {
		return fmt.Errorf("definitions list is required and must be non-empty")
	}

	if len(s.Term) == 0 {
		return fmt.Errorf("term is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertCellsEqual:
		if a.Labels == nil {
			return fmt.Errorf("%s requires labels", a.Type)
		}
	case AssertPathsEqual:
		if a.Paths == nil {
			return fmt.Errorf("%s requires paths", a.Type)
		}
	case AssertCellsOrder:
		if len(a.Labels) < 2 {
			return fmt.Errorf("%s requires at least 2 labels", a.Type)
		}
	case AssertCellsCount, AssertVisited:
		if a.Count < 0 {
			return fmt.Errorf("%s count must be non-negative", a.Type)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("%s requires code", a.Type)
		}
	case AssertRunStored:
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
