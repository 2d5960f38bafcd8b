package compiler

import (
	"fmt"
	"slices"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/kindex/internal/schema"
)

// CompileDefinitions compiles every definition under the top-level
// "definition" field of v. The result is sorted by name.
//
// A value without a "definition" field compiles to an empty slice, so a
// package holding only helper values is not an error.
func CompileDefinitions(v cue.Value) ([]*schema.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	defsVal := v.LookupPath(cue.ParsePath("definition"))
	if !defsVal.Exists() {
		return []*schema.Definition{}, nil
	}

	iter, err := defsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	defs := []*schema.Definition{}
	for iter.Next() {
		def, err := CompileDefinition(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", iter.Label(), err)
		}
		defs = append(defs, def)
	}

	slices.SortFunc(defs, func(a, b *schema.Definition) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return defs, nil
}

// Select picks the definition called name, or the only definition when
// name is empty.
func Select(defs []*schema.Definition, name string) (*schema.Definition, error) {
	if name == "" {
		switch len(defs) {
		case 0:
			return nil, fmt.Errorf("no definitions found")
		case 1:
			return defs[0], nil
		default:
			names := make([]string, len(defs))
			for i, d := range defs {
				names[i] = d.Name()
			}
			return nil, fmt.Errorf("%d definitions found (%s): pick one by name", len(defs), strings.Join(names, ", "))
		}
	}
	for _, d := range defs {
		if d.Name() == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("definition %q not found", name)
}
