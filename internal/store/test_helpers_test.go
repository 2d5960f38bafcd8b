package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/kindex/internal/schema"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDefinition builds a small definition with one stream cell.
func createTestDefinition(t *testing.T, name string) *schema.Definition {
	t.Helper()
	def, err := schema.NewDefinition(name, []schema.CellAttributes{
		{Label: "T", Children: []string{"k", "out"}},
		{Label: "k"},
		{Label: "out", Stream: schema.StreamStdout},
	})
	if err != nil {
		t.Fatalf("NewDefinition() failed: %v", err)
	}
	return def
}

// createTestRun creates an index run with minimal required fields.
func createTestRun(id, defHash, termHash, key string) IndexRun {
	return IndexRun{
		ID:             id,
		DefinitionHash: defHash,
		TermHash:       termHash,
		IndexKey:       key,
		Cells:          []string{"T/k", "T/out"},
	}
}
