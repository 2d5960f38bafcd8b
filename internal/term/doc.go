// Package term provides the configuration term model for kindex.
//
// A configuration is a tree of cells. Each cell either wraps a single
// opaque term or owns an ordered collection of child cells. Everything
// below a leaf cell (applications, constants, variables) is ordinary
// computational content that indexing never looks into.
//
// Key design constraints:
//   - Term is sealed: only *Cell, App, Const and Var implement it
//   - NO float constants - numbers are int64 (same rule as canonical JSON)
//   - Terms are never mutated after construction; collectors borrow them
//   - All hashing goes through MarshalCanonical (RFC 8785 ordering, NFC strings)
package term
