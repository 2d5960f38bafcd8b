// Package indexing selects the cells of a configuration that feed the
// rule index.
//
// The rule index prunes candidate rewrite rules by looking at a small key
// built from the configuration instead of matching every rule against the
// whole term. Only some cells distinguish rules: the computation cell "k"
// and any cell bound to stdin, stdout or stderr. Collect finds those cells
// in a single top-down pass.
//
// TRAVERSAL BOUND:
//
// Collect walks the cell skeleton only. It descends into a cell's children
// when the cell is a cell collection and never looks inside the opaque term
// held by a leaf cell, even if that term happens to contain something that
// looks like a cell. The pass is therefore linear in the number of cells,
// not in the size of the configuration.
//
// Collect is a pure function of (term, schema): no shared state, no I/O,
// no logging. Concurrent calls over a shared immutable schema.Definition
// are safe. Indexer wraps it with metrics, logging and key computation.
package indexing
