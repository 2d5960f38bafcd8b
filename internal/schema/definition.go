package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/kindex/internal/term"
)

// DomainDefinition is the hash domain for definitions.
const DomainDefinition = "kindex/definition/v1"

// CellAttributes is the static metadata for one cell label.
type CellAttributes struct {
	Label    string           `json:"label"`
	Kind     term.ContentKind `json:"kind"`
	Stream   StreamRole       `json:"stream,omitempty"`
	Children []string         `json:"children,omitempty"`
}

// Document is the serialisable form of a Definition.
// Cells are sorted by label.
type Document struct {
	Name  string           `json:"name"`
	Root  string           `json:"root"`
	Cells []CellAttributes `json:"cells"`
}

// Definition is an immutable cell schema.
type Definition struct {
	name   string
	root   string
	cells  map[string]CellAttributes
	labels []string
	hash   string
}

// NewDefinition validates the cell declarations and builds a Definition.
//
// A cell with no explicit Kind is a collection if it declares children and
// a term cell otherwise. Validation rejects, in order: empty or duplicate
// labels, invalid kinds and streams, unknown children, a label with more
// than one parent, containment cycles, and anything but exactly one root.
func NewDefinition(name string, cells []CellAttributes) (*Definition, error) {
	if len(cells) == 0 {
		return nil, &DefinitionError{Code: ErrCodeEmptyDefinition, Message: fmt.Sprintf("definition %q declares no cells", name)}
	}

	d := &Definition{
		name:  name,
		cells: make(map[string]CellAttributes, len(cells)),
	}

	for _, c := range cells {
		if c.Label == "" {
			return nil, &DefinitionError{Code: ErrCodeEmptyLabel, Message: "cell label must not be empty"}
		}
		if _, dup := d.cells[c.Label]; dup {
			return nil, &DefinitionError{Code: ErrCodeDuplicateCell, Label: c.Label, Message: "cell declared more than once"}
		}

		normalized, err := normalize(c)
		if err != nil {
			return nil, err
		}
		d.cells[c.Label] = normalized
		d.labels = append(d.labels, c.Label)
	}
	slices.Sort(d.labels)

	parents := make(map[string]string)
	for _, label := range d.labels {
		for _, child := range d.cells[label].Children {
			if _, ok := d.cells[child]; !ok {
				return nil, &DefinitionError{Code: ErrCodeUnknownChild, Label: label, Message: fmt.Sprintf("child %q is not declared", child)}
			}
			if prev, ok := parents[child]; ok && prev != label {
				return nil, &DefinitionError{Code: ErrCodeMultipleParents, Label: child, Message: fmt.Sprintf("cell is contained by both %q and %q", prev, label)}
			}
			parents[child] = label
		}
	}

	if cycles := ContainmentCycles(d.cells); len(cycles) > 0 {
		return nil, &DefinitionError{
			Code:    ErrCodeContainmentCycle,
			Label:   cycles[0][0],
			Message: "cells contain themselves: " + strings.Join(cycles[0], " > "),
		}
	}

	var roots []string
	for _, label := range d.labels {
		if _, contained := parents[label]; !contained {
			roots = append(roots, label)
		}
	}
	switch len(roots) {
	case 0:
		return nil, &DefinitionError{Code: ErrCodeNoRoot, Message: "no top-level cell"}
	case 1:
		d.root = roots[0]
	default:
		return nil, &DefinitionError{Code: ErrCodeMultipleRoots, Message: fmt.Sprintf("multiple top-level cells: %s", strings.Join(roots, ", "))}
	}

	hash, err := d.computeHash()
	if err != nil {
		return nil, err
	}
	d.hash = hash

	return d, nil
}

// FromDocument rebuilds a Definition from its serialised form.
// The document is fully revalidated; Root is recomputed, not trusted.
func FromDocument(doc Document) (*Definition, error) {
	return NewDefinition(doc.Name, doc.Cells)
}

func normalize(c CellAttributes) (CellAttributes, error) {
	switch c.Kind {
	case "":
		c.Kind = term.KindTerm
		if len(c.Children) > 0 {
			c.Kind = term.KindCellCollection
		}
	case term.KindTerm:
		if len(c.Children) > 0 {
			return c, &DefinitionError{Code: ErrCodeInvalidKind, Label: c.Label, Message: "term cell cannot declare children"}
		}
	case term.KindCellCollection:
	default:
		return c, &DefinitionError{Code: ErrCodeInvalidKind, Label: c.Label, Message: fmt.Sprintf("unknown content kind %q", c.Kind)}
	}

	role, err := ParseStreamRole(string(c.Stream))
	if err != nil {
		return c, &DefinitionError{Code: ErrCodeInvalidStream, Label: c.Label, Message: err.Error()}
	}
	c.Stream = role

	c.Children = slices.Clone(c.Children)
	return c, nil
}

// Name returns the definition name (e.g. "IMP").
func (d *Definition) Name() string { return d.name }

// Root returns the label of the single top-level cell.
func (d *Definition) Root() string { return d.root }

// Hash returns the content hash of the definition.
func (d *Definition) Hash() string { return d.hash }

// Lookup returns the attributes declared for label.
// The returned Children slice is shared; callers must not modify it.
func (d *Definition) Lookup(label string) (CellAttributes, bool) {
	attrs, ok := d.cells[label]
	return attrs, ok
}

// Labels returns every declared label in sorted order.
func (d *Definition) Labels() []string {
	return slices.Clone(d.labels)
}

// Streams returns the labels bound to a stream, sorted.
func (d *Definition) Streams() []string {
	out := []string{}
	for _, label := range d.labels {
		if d.cells[label].Stream.IsStream() {
			out = append(out, label)
		}
	}
	return out
}

// Document returns the serialisable form of d.
func (d *Definition) Document() Document {
	doc := Document{Name: d.name, Root: d.root, Cells: make([]CellAttributes, 0, len(d.labels))}
	for _, label := range d.labels {
		c := d.cells[label]
		c.Children = slices.Clone(c.Children)
		doc.Cells = append(doc.Cells, c)
	}
	return doc
}

func (d *Definition) computeHash() (string, error) {
	cells := make([]any, 0, len(d.labels))
	for _, label := range d.labels {
		c := d.cells[label]
		children := c.Children
		if children == nil {
			children = []string{}
		}
		cells = append(cells, map[string]any{
			"label":    c.Label,
			"kind":     string(c.Kind),
			"stream":   c.Stream.String(),
			"children": children,
		})
	}

	data, err := term.MarshalCanonical(map[string]any{
		"name":  d.name,
		"cells": cells,
	})
	if err != nil {
		return "", fmt.Errorf("hash definition: %w", err)
	}
	return term.HashWithDomain(DomainDefinition, data), nil
}
