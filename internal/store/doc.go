// Package store provides SQLite-backed storage for compiled definitions
// and the index runs computed against them.
//
// The store keeps two tables:
//   - definitions: content-addressed cell schemas (hash → canonical document)
//   - index_runs: one row per collection, linking a definition hash and a
//     term hash to the resulting index key and indexing cell paths
//
// # Critical Patterns
//
// Content addressing:
//   - Definition hashes come from schema.Definition.Hash, term hashes from
//     term.Hash, index keys from indexing.Key
//   - Writing the same definition twice is a no-op
//
// Deterministic reads:
//   - All multi-row queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//   - seq is a logical clock assigned by the store, never a timestamp
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Decoded definitions are cached in an LRU keyed by hash; definitions are
// immutable, so cache entries never go stale.
package store
