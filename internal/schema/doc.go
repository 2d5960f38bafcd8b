// Package schema holds the static cell structure of a compiled definition.
//
// A Definition maps every cell label to its CellAttributes: whether the
// cell wraps a single term or a collection of cells, which child labels it
// may contain, and whether it is bound to a standard stream.
//
// Definitions are built once (usually by the compiler package) and are
// immutable afterwards. Lookup never allocates or mutates, so a single
// *Definition is safe to share between goroutines without locking.
package schema
