package indexing

import (
	"fmt"

	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/term"
)

// Match is one collected cell together with its label path from the root.
type Match struct {
	Cell *term.Cell
	Path string
}

// Collect returns every indexing cell of t in depth-first pre-order.
//
// A cell is tested (and appended if relevant) before its children are
// visited. Children are visited only for cell collections; the content of
// a leaf cell is never inspected. A t that is not a cell has no cell
// skeleton and yields an empty result.
//
// The returned cells are borrowed from t. On error the result is nil:
// there is no partial output.
func Collect(t term.Term, s Schema) ([]*term.Cell, error) {
	matches, _, err := CollectMatches(t, s)
	if err != nil {
		return nil, err
	}
	cells := make([]*term.Cell, len(matches))
	for i, m := range matches {
		cells[i] = m.Cell
	}
	return cells, nil
}

// CollectMatches is Collect with label paths attached to each cell. It also
// reports how many skeleton cells were visited, including on error.
func CollectMatches(t term.Term, s Schema) ([]Match, int, error) {
	matches := []Match{}

	root, ok := t.(*term.Cell)
	if !ok {
		return matches, 0, nil
	}
	if root == nil {
		return nil, 0, NewMalformedTermError("", "", "root cell is nil")
	}

	visited := 0
	stack := []frame{{cell: root, path: root.Label}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		relevant, err := Relevant(s, f.cell)
		if err != nil {
			return nil, visited, atPath(err, f.path)
		}
		if relevant {
			matches = append(matches, Match{Cell: f.cell, Path: f.path})
		}

		if f.cell.Kind != term.KindCellCollection {
			continue
		}
		// Push in reverse so the first child is popped first.
		for i := len(f.cell.Children) - 1; i >= 0; i-- {
			child := f.cell.Children[i].(*term.Cell) // checked by Relevant
			stack = append(stack, frame{cell: child, path: f.path + "/" + child.Label})
		}
	}

	return matches, visited, nil
}

type frame struct {
	cell *term.Cell
	path string
}

// checkShape rejects cells whose content disagrees with their content kind
// or with the kind the schema declares. Nothing is coerced.
func checkShape(c *term.Cell, attrs schema.CellAttributes, path string) error {
	switch c.Kind {
	case term.KindTerm:
		if c.Content == nil {
			return NewMalformedTermError(c.Label, path, "term cell has no content")
		}
		if len(c.Children) > 0 {
			return NewMalformedTermError(c.Label, path, fmt.Sprintf("term cell also holds %d child cells", len(c.Children)))
		}
	case term.KindCellCollection:
		if c.Content != nil {
			return NewMalformedTermError(c.Label, path, "cell collection also holds a term")
		}
		for i, child := range c.Children {
			cell, ok := child.(*term.Cell)
			if !ok {
				return NewMalformedTermError(c.Label, path, fmt.Sprintf("child %d of cell collection is %s, not a cell", i, term.Describe(child)))
			}
			if cell == nil {
				return NewMalformedTermError(c.Label, path, fmt.Sprintf("child %d of cell collection is nil", i))
			}
		}
	default:
		return NewMalformedTermError(c.Label, path, fmt.Sprintf("unknown content kind %q", c.Kind))
	}

	if attrs.Kind != "" && attrs.Kind != c.Kind {
		return NewMalformedTermError(c.Label, path, fmt.Sprintf("schema declares %s content, term holds %s", attrs.Kind, c.Kind))
	}
	return nil
}
