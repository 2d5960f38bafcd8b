package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/kindex/internal/schema"
)

// WriteDefinition stores a compiled definition under its content hash.
// Rewriting a stored definition keeps its row but moves its seq forward,
// so ReadDefinitionByName returns the most recently written version.
func (s *Store) WriteDefinition(ctx context.Context, def *schema.Definition) error {
	body, err := marshalDocument(def.Document())
	if err != nil {
		return fmt.Errorf("write definition: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write definition: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM definitions`).Scan(&seq); err != nil {
		return fmt.Errorf("write definition: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO definitions (hash, name, root, body, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET seq = excluded.seq
	`, def.Hash(), def.Name(), def.Root(), body, seq)
	if err != nil {
		return fmt.Errorf("write definition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write definition: commit: %w", err)
	}

	s.defs.Add(def.Hash(), def)
	return nil
}

// WriteIndexRun inserts an index run and returns its assigned seq.
// If a run with the same ID exists, nothing is written and the existing
// seq is returned. The referenced definition must already be stored.
func (s *Store) WriteIndexRun(ctx context.Context, run IndexRun) (int64, error) {
	if run.ID == "" {
		return 0, fmt.Errorf("write index run: id is required")
	}

	cellsJSON, err := marshalCells(run.Cells)
	if err != nil {
		return 0, fmt.Errorf("write index run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write index run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM index_runs WHERE id = ?`, run.ID).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("write index run: lookup id: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM index_runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("write index run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO index_runs (id, definition_hash, term_hash, index_key, cells, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.DefinitionHash, run.TermHash, run.IndexKey, cellsJSON, seq)
	if err != nil {
		return 0, fmt.Errorf("write index run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write index run: commit: %w", err)
	}
	return seq, nil
}
