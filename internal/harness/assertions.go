package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/kindex/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the collected cells to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Paths    []string // Collected label paths for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Paths) > 0 {
		fmt.Fprintf(&buf, "\nCollected cells:\n")
		for i, p := range e.Paths {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, p)
		}
	}

	return buf.String()
}

// assertCellsEqual checks the collected labels exactly, order included.
func assertCellsEqual(result *Result, assertion Assertion) error {
	if slices.Equal(result.Cells, assertion.Labels) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCellsEqual,
		Expected: formatList(assertion.Labels),
		Actual:   formatList(result.Cells),
		Paths:    result.Paths,
	}
}

// assertPathsEqual checks the collected label paths exactly.
func assertPathsEqual(result *Result, assertion Assertion) error {
	if slices.Equal(result.Paths, assertion.Paths) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPathsEqual,
		Expected: formatList(assertion.Paths),
		Actual:   formatList(result.Paths),
		Paths:    result.Paths,
	}
}

// assertCellsOrder checks that labels appear in the specified order.
// Labels don't need to be consecutive (intervening cells are allowed).
func assertCellsOrder(result *Result, assertion Assertion) error {
	next := 0
	for _, label := range result.Cells {
		if next < len(assertion.Labels) && label == assertion.Labels[next] {
			next++
		}
	}
	if next == len(assertion.Labels) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCellsOrder,
		Expected: fmt.Sprintf("labels in order %s", formatList(assertion.Labels)),
		Actual:   fmt.Sprintf("%q missing or out of order in %s", assertion.Labels[next], formatList(result.Cells)),
		Paths:    result.Paths,
	}
}

// assertCellsCount checks the number of collected cells.
func assertCellsCount(result *Result, assertion Assertion) error {
	if len(result.Cells) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCellsCount,
		Expected: fmt.Sprintf("%d cells", assertion.Count),
		Actual:   fmt.Sprintf("%d cells", len(result.Cells)),
		Paths:    result.Paths,
	}
}

// assertVisited checks how many skeleton cells the traversal visited.
func assertVisited(result *Result, assertion Assertion) error {
	if result.ErrorCode == "" && result.Visited == assertion.Count {
		return nil
	}
	actual := fmt.Sprintf("%d cells visited", result.Visited)
	if result.ErrorCode != "" {
		actual = fmt.Sprintf("collection failed with %s", result.ErrorCode)
	}
	return &AssertionError{
		Type:     AssertVisited,
		Expected: fmt.Sprintf("%d cells visited", assertion.Count),
		Actual:   actual,
		Paths:    result.Paths,
	}
}

// assertError checks that collection failed with the given code and
// produced no partial output.
func assertError(result *Result, assertion Assertion) error {
	if result.ErrorCode == "" {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %s", assertion.Code),
			Actual:   fmt.Sprintf("success with %s", formatList(result.Cells)),
			Paths:    result.Paths,
		}
	}
	if result.ErrorCode != assertion.Code {
		return &AssertionError{
			Type:     AssertError,
			Expected: fmt.Sprintf("error %s", assertion.Code),
			Actual:   fmt.Sprintf("error %s", result.ErrorCode),
		}
	}
	if len(result.Cells) > 0 {
		return &AssertionError{
			Type:     AssertError,
			Expected: "no partial output",
			Actual:   formatList(result.Cells),
			Paths:    result.Paths,
		}
	}
	return nil
}

// assertRunStored checks that the run reads back from the store with the
// key and cells the collection produced.
func assertRunStored(ctx context.Context, st *store.Store, definitionHash string, result *Result) error {
	if result.RunID == "" {
		return &AssertionError{
			Type:     AssertRunStored,
			Expected: "a stored run",
			Actual:   "no run was written",
		}
	}

	runs, err := st.ReadIndexRuns(ctx, definitionHash)
	if err != nil {
		return fmt.Errorf("read runs: %w", err)
	}
	for _, run := range runs {
		if run.ID != result.RunID {
			continue
		}
		if run.IndexKey != result.Key || !slices.Equal(run.Cells, result.Paths) {
			return &AssertionError{
				Type:     AssertRunStored,
				Expected: fmt.Sprintf("key %s with %s", result.Key, formatList(result.Paths)),
				Actual:   fmt.Sprintf("key %s with %s", run.IndexKey, formatList(run.Cells)),
				Paths:    result.Paths,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertRunStored,
		Expected: fmt.Sprintf("run %s", result.RunID),
		Actual:   fmt.Sprintf("not found among %d runs", len(runs)),
	}
}

func formatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store          *store.Store
	Ctx            context.Context
	DefinitionHash string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for run_stored assertions.
//
// A failed collection with no error assertion is reported as a failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	expectsError := false
	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCellsEqual:
			err = assertCellsEqual(result, assertion)
		case AssertPathsEqual:
			err = assertPathsEqual(result, assertion)
		case AssertCellsOrder:
			err = assertCellsOrder(result, assertion)
		case AssertCellsCount:
			err = assertCellsCount(result, assertion)
		case AssertVisited:
			err = assertVisited(result, assertion)
		case AssertError:
			expectsError = true
			err = assertError(result, assertion)
		case AssertRunStored:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: run_stored requires database context", i)
			} else {
				err = assertRunStored(actx.Ctx, actx.Store, actx.DefinitionHash, result)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	if result.ErrorCode != "" && !expectsError {
		errors = append(errors, fmt.Sprintf("unexpected collection error %s", result.ErrorCode))
	}

	return errors
}
