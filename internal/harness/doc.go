// Package harness runs conformance scenarios for the indexing cell collector.
//
// A scenario names one or more CUE definition files, a configuration term,
// and assertions over the collected cells. Each scenario runs against a
// fresh in-memory store, so the run record written for it can be asserted
// on as well.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	definitions:
//	  - ../definitions/imp.cue
//	definition: IMP           # optional when the files hold one definition
//	term:
//	  cell: T
//	  cells:
//	    - cell: k
//	      term: { app: ".K" }
//	assertions:
//	  - type: cells_equal
//	    labels: [k]
//	  - type: run_stored
//
// # Assertion Types
//
//   - cells_equal: the collected labels equal labels, in order
//   - paths_equal: the collected label paths equal paths, in order
//   - cells_order: labels appear in the result in this relative order
//   - cells_count: exactly count cells were collected
//   - visited: exactly count cells of the skeleton were visited
//   - error: collection failed with the given code (SCHEMA_LOOKUP or MALFORMED_TERM)
//   - run_stored: the run was persisted and reads back with the same key
//
// A scenario whose collection fails without an error assertion fails.
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of a result against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
