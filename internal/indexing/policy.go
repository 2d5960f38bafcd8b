package indexing

import (
	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/term"
)

// ComputationCell is the label of the cell that drives rewriting.
// It is always an indexing cell, whatever its stream attribute.
//
// TODO: definitions that rename the computation cell cannot mark it
// relevant; make this a per-definition attribute once the compiler
// supports a "computation" cell flag.
const ComputationCell = "k"

// Schema is the cell schema lookup Collect consumes.
// *schema.Definition implements it.
type Schema interface {
	Lookup(label string) (schema.CellAttributes, bool)
}

// IsIndexingCell reports whether a cell with the given label and static
// attributes belongs in the index key. The decision depends on the label
// and schema only, never on cell content.
func IsIndexingCell(label string, attrs schema.CellAttributes) bool {
	return label == ComputationCell || attrs.Stream.IsStream()
}

// Relevant looks up cell in s, checks that its content matches its kind,
// and applies IsIndexingCell. Errors carry the cell label as their path.
//
// A label missing from s is an error, not "irrelevant": silently dropping
// an indexable cell would corrupt rule selection.
func Relevant(s Schema, cell *term.Cell) (bool, error) {
	if cell == nil {
		return false, NewMalformedTermError("", "", "cell is nil")
	}
	attrs, ok := s.Lookup(cell.Label)
	if !ok {
		return false, NewSchemaLookupError(cell.Label, cell.Label)
	}
	if err := checkShape(cell, attrs, cell.Label); err != nil {
		return false, err
	}
	return IsIndexingCell(cell.Label, attrs), nil
}
