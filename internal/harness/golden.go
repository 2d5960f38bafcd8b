package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/kindex/internal/term"
)

// Snapshot captures the deterministic part of a result for golden comparison.
// Keys and run IDs are left out: they are hashes and change whenever the
// hashing domain does, which the key tests cover on their own.
type Snapshot struct {
	ScenarioName string
	Definition   string
	Paths        []string
	Visited      int
	ErrorCode    string
}

// NewSnapshot builds the snapshot of a result.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Definition:   result.Definition,
		Paths:        result.Paths,
		Visited:      result.Visited,
		ErrorCode:    result.ErrorCode,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON.
// A failed collection carries "error" in place of "visited".
func (s Snapshot) toCanonicalMap() map[string]any {
	m := map[string]any{
		"scenario_name": s.ScenarioName,
		"definition":    s.Definition,
		"cells":         s.Paths,
	}
	if s.ErrorCode != "" {
		m["error"] = s.ErrorCode
	} else {
		m["visited"] = s.Visited
	}
	return m
}

// MarshalSnapshot renders the canonical JSON of a result.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	return term.MarshalCanonical(NewSnapshot(name, result).toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the result against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the result doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
