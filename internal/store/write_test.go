package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefinition(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := createTestDefinition(t, "IMP")

	require.NoError(t, s.WriteDefinition(ctx, def))
	require.NoError(t, s.WriteDefinition(ctx, def), "second write is a no-op")

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM definitions").Scan(&count))
	assert.Equal(t, 1, count)

	var name, root string
	require.NoError(t, s.db.QueryRow("SELECT name, root FROM definitions WHERE hash = ?", def.Hash()).Scan(&name, &root))
	assert.Equal(t, "IMP", name)
	assert.Equal(t, "T", root)
}

func TestWriteIndexRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := createTestDefinition(t, "IMP")
	require.NoError(t, s.WriteDefinition(ctx, def))

	seq1, err := s.WriteIndexRun(ctx, createTestRun("run-1", def.Hash(), "term-a", "key-a"))
	require.NoError(t, err)
	seq2, err := s.WriteIndexRun(ctx, createTestRun("run-2", def.Hash(), "term-b", "key-b"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), seq1)
	assert.Equal(t, int64(2), seq2)
}

func TestWriteIndexRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := createTestDefinition(t, "IMP")
	require.NoError(t, s.WriteDefinition(ctx, def))

	run := createTestRun("run-1", def.Hash(), "term-a", "key-a")
	seq1, err := s.WriteIndexRun(ctx, run)
	require.NoError(t, err)
	seq2, err := s.WriteIndexRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, seq1, seq2)

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM index_runs").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWriteIndexRun_RequiresDefinition(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteIndexRun(context.Background(), createTestRun("run-1", "missing-hash", "term-a", "key-a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestWriteIndexRun_RequiresID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteIndexRun(context.Background(), IndexRun{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is required")
}

func TestWriteIndexRun_EmptyCells(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	def := createTestDefinition(t, "IMP")
	require.NoError(t, s.WriteDefinition(ctx, def))

	run := createTestRun("run-1", def.Hash(), "term-a", "key-a")
	run.Cells = nil
	_, err := s.WriteIndexRun(ctx, run)
	require.NoError(t, err)

	var cells string
	require.NoError(t, s.db.QueryRow("SELECT cells FROM index_runs WHERE id = 'run-1'").Scan(&cells))
	assert.Equal(t, "[]", cells)
}
