package term

import "fmt"

// Term is a sealed interface over the configuration term variants.
// Only *Cell, App, Const and Var implement it.
type Term interface {
	term() // Sealed
}

// ContentKind distinguishes leaf cells from cell collections.
type ContentKind string

const (
	// KindTerm marks a cell whose content is a single opaque term.
	KindTerm ContentKind = "term"

	// KindCellCollection marks a cell that owns an ordered list of child cells.
	KindCellCollection ContentKind = "cells"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	return k == KindTerm || k == KindCellCollection
}

// Cell is a labeled compartment of a configuration.
//
// Exactly one of Content (KindTerm) or Children (KindCellCollection) is
// meaningful. Children are typed as Term rather than *Cell so that a
// malformed collection can be represented and rejected by consumers.
type Cell struct {
	Label    string
	Kind     ContentKind
	Content  Term
	Children []Term
}

func (*Cell) term() {}

// String returns the cell label in angle brackets, e.g. "<k>".
func (c *Cell) String() string {
	return "<" + c.Label + ">"
}

// App is the application of a label to ordered arguments.
// Arguments are opaque to indexing, even when one of them is a *Cell.
type App struct {
	Label string
	Args  []Term
}

func (App) term() {}

// Const is a literal token of a given sort ("Int", "String", "Bool", ...).
type Const struct {
	Sort  string
	Value string
}

func (Const) term() {}

// Var is a named variable of a given sort.
type Var struct {
	Name string
	Sort string
}

func (Var) term() {}

// NewCell creates a leaf cell holding a single term.
func NewCell(label string, content Term) *Cell {
	return &Cell{Label: label, Kind: KindTerm, Content: content}
}

// NewCellCollection creates a cell that owns the given child cells in order.
func NewCellCollection(label string, children ...*Cell) *Cell {
	terms := make([]Term, len(children))
	for i, c := range children {
		terms[i] = c
	}
	return &Cell{Label: label, Kind: KindCellCollection, Children: terms}
}

// NewApp creates an application term.
func NewApp(label string, args ...Term) App {
	return App{Label: label, Args: args}
}

// NewConst creates a constant term.
func NewConst(sort, value string) Const {
	return Const{Sort: sort, Value: value}
}

// NewVar creates a variable term.
func NewVar(name, sort string) Var {
	return Var{Name: name, Sort: sort}
}

// Describe returns a short human-readable rendering of a term's top node.
// Used in diagnostics; it never recurses into children.
func Describe(t Term) string {
	switch v := t.(type) {
	case nil:
		return "<nil>"
	case *Cell:
		if v == nil {
			return "<nil cell>"
		}
		return v.String()
	case App:
		return fmt.Sprintf("%s(%d args)", v.Label, len(v.Args))
	case Const:
		return fmt.Sprintf("%s:%s", v.Value, v.Sort)
	case Var:
		return fmt.Sprintf("%s:%s", v.Name, v.Sort)
	default:
		return fmt.Sprintf("%T", t)
	}
}
