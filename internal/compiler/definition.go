package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/term"
)

// CompileDefinition parses a CUE value into a schema.Definition.
// Uses the CUE SDK's Go API directly (not the CLI).
//
// The value should be the definition struct itself:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`definition: IMP: cells: { k: {} }`)
//	def, err := CompileDefinition(v.LookupPath(cue.ParsePath("definition.IMP")))
func CompileDefinition(v cue.Value) (*schema.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var name string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].String()
	}

	cellsVal := v.LookupPath(cue.ParsePath("cells"))
	if !cellsVal.Exists() {
		return nil, &CompileError{
			Field:   "cells",
			Message: "cells are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := cellsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var cells []schema.CellAttributes
	for iter.Next() {
		attrs, err := parseCell(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		cells = append(cells, attrs)
	}

	def, err := schema.NewDefinition(name, cells)
	if err != nil {
		return nil, &CompileError{
			Field:   "cells",
			Message: err.Error(),
			Pos:     cellsVal.Pos(),
			Err:     err,
		}
	}
	return def, nil
}

// parseCell reads one cell declaration. Unknown fields are rejected so
// that typos like "stram" do not silently drop a stream role.
func parseCell(label string, v cue.Value) (schema.CellAttributes, error) {
	attrs := schema.CellAttributes{Label: label}

	if v.IncompleteKind() != cue.StructKind {
		return attrs, &CompileError{
			Field:   "cell",
			Message: fmt.Sprintf("cell %q must be a struct, got %v", label, v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return attrs, formatCUEError(err)
	}

	for iter.Next() {
		field := iter.Label()
		fv := iter.Value()

		switch field {
		case "stream":
			s, err := fv.String()
			if err != nil {
				return attrs, formatCUEError(err)
			}
			role, err := schema.ParseStreamRole(s)
			if err != nil {
				return attrs, &CompileError{Field: "stream", Message: err.Error(), Pos: fv.Pos()}
			}
			attrs.Stream = role

		case "kind":
			s, err := fv.String()
			if err != nil {
				return attrs, formatCUEError(err)
			}
			kind := term.ContentKind(s)
			if !kind.Valid() {
				return attrs, &CompileError{
					Field:   "kind",
					Message: fmt.Sprintf("unknown kind %q: must be %q or %q", s, term.KindTerm, term.KindCellCollection),
					Pos:     fv.Pos(),
				}
			}
			attrs.Kind = kind

		case "cells":
			list, err := fv.List()
			if err != nil {
				return attrs, formatCUEError(err)
			}
			for list.Next() {
				child, err := list.Value().String()
				if err != nil {
					return attrs, formatCUEError(err)
				}
				attrs.Children = append(attrs.Children, child)
			}
			if attrs.Kind == "" {
				attrs.Kind = term.KindCellCollection
			}

		default:
			return attrs, &CompileError{
				Field:   "cell",
				Message: fmt.Sprintf("unknown field %q in cell %q (want stream, kind or cells)", field, label),
				Pos:     fv.Pos(),
			}
		}
	}

	return attrs, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error // underlying error, e.g. a *schema.DefinitionError
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
