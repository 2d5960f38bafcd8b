package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/kindex/internal/schema"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ReadDefinition returns the definition stored under hash.
// Decoded definitions are served from an LRU cache after the first read.
//
// The stored document is revalidated and its recomputed hash must match;
// a mismatch means the row was edited outside the store.
func (s *Store) ReadDefinition(ctx context.Context, hash string) (*schema.Definition, error) {
	if def, ok := s.defs.Get(hash); ok {
		return def, nil
	}

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM definitions WHERE hash = ?`, hash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read definition %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", hash, err)
	}

	return s.decodeDefinition(hash, body)
}

// ReadDefinitionByName returns the most recently written definition with
// the given name.
func (s *Store) ReadDefinitionByName(ctx context.Context, name string) (*schema.Definition, error) {
	var hash, body string
	err := s.db.QueryRowContext(ctx, `
		SELECT hash, body FROM definitions
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name).Scan(&hash, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read definition %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read definition %q: %w", name, err)
	}

	if def, ok := s.defs.Get(hash); ok {
		return def, nil
	}
	return s.decodeDefinition(hash, body)
}

func (s *Store) decodeDefinition(hash, body string) (*schema.Definition, error) {
	doc, err := unmarshalDocument(body)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", hash, err)
	}
	def, err := schema.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("read definition %s: %w", hash, err)
	}
	if def.Hash() != hash {
		return nil, fmt.Errorf("read definition %s: stored body hashes to %s", hash, def.Hash())
	}

	s.defs.Add(hash, def)
	return def, nil
}

// ReadIndexRuns returns all runs against a definition.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadIndexRuns(ctx context.Context, definitionHash string) ([]IndexRun, error) {
	return s.queryRuns(ctx, `
		SELECT id, definition_hash, term_hash, index_key, cells, seq
		FROM index_runs
		WHERE definition_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, definitionHash)
}

// ReadAllIndexRuns returns every run in the store in seq order.
func (s *Store) ReadAllIndexRuns(ctx context.Context) ([]IndexRun, error) {
	return s.queryRuns(ctx, `
		SELECT id, definition_hash, term_hash, index_key, cells, seq
		FROM index_runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// RunsForDefinitionName returns the runs against every stored version of
// the named definition, in seq order. Returns ErrNotFound if no definition
// with that name was ever written.
func (s *Store) RunsForDefinitionName(ctx context.Context, name string) ([]IndexRun, error) {
	var known bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM definitions WHERE name = ?)`, name).Scan(&known); err != nil {
		return nil, fmt.Errorf("runs for definition %q: %w", name, err)
	}
	if !known {
		return nil, fmt.Errorf("runs for definition %q: %w", name, ErrNotFound)
	}

	return s.queryRuns(ctx, `
		SELECT r.id, r.definition_hash, r.term_hash, r.index_key, r.cells, r.seq
		FROM index_runs r
		JOIN definitions d ON d.hash = r.definition_hash
		WHERE d.name = ?
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`, name)
}

// RunsForKey returns all runs that produced the given index key.
func (s *Store) RunsForKey(ctx context.Context, indexKey string) ([]IndexRun, error) {
	return s.queryRuns(ctx, `
		SELECT id, definition_hash, term_hash, index_key, cells, seq
		FROM index_runs
		WHERE index_key = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, indexKey)
}

// LatestIndexRun returns the most recent run for a (definition, term) pair.
// Returns ErrNotFound if the term has never been indexed under the definition.
func (s *Store) LatestIndexRun(ctx context.Context, definitionHash, termHash string) (IndexRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, definition_hash, term_hash, index_key, cells, seq
		FROM index_runs
		WHERE definition_hash = ? AND term_hash = ?
		ORDER BY seq DESC
		LIMIT 1
	`, definitionHash, termHash)

	run, err := scanIndexRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return IndexRun{}, fmt.Errorf("latest index run: %w", ErrNotFound)
	}
	if err != nil {
		return IndexRun{}, fmt.Errorf("latest index run: %w", err)
	}
	return run, nil
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]IndexRun, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query index runs: %w", err)
	}
	defer rows.Close()

	runs := []IndexRun{}
	for rows.Next() {
		run, err := scanIndexRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate index runs: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIndexRun(sc scanner) (IndexRun, error) {
	var (
		run       IndexRun
		cellsJSON string
	)
	if err := sc.Scan(&run.ID, &run.DefinitionHash, &run.TermHash, &run.IndexKey, &cellsJSON, &run.Seq); err != nil {
		return IndexRun{}, err
	}
	cells, err := unmarshalCells(cellsJSON)
	if err != nil {
		return IndexRun{}, err
	}
	run.Cells = cells
	return run, nil
}
