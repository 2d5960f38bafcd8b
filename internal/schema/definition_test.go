package schema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kindex/internal/term"
)

func impCells() []CellAttributes {
	return []CellAttributes{
		{Label: "T", Children: []string{"k", "state", "streams"}},
		{Label: "k"},
		{Label: "state"},
		{Label: "streams", Children: []string{"in", "out", "err"}},
		{Label: "in", Stream: StreamStdin},
		{Label: "out", Stream: StreamStdout},
		{Label: "err", Stream: StreamStderr},
	}
}

func TestNewDefinition(t *testing.T) {
	def, err := NewDefinition("IMP", impCells())
	require.NoError(t, err)

	assert.Equal(t, "IMP", def.Name())
	assert.Equal(t, "T", def.Root())
	assert.Equal(t, []string{"T", "err", "in", "k", "out", "state", "streams"}, def.Labels())
	assert.Equal(t, []string{"err", "in", "out"}, def.Streams())
	assert.Len(t, def.Hash(), 64)

	top, ok := def.Lookup("T")
	require.True(t, ok)
	assert.Equal(t, term.KindCellCollection, top.Kind)
	assert.Equal(t, StreamNone, top.Stream)

	k, ok := def.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, term.KindTerm, k.Kind)

	in, ok := def.Lookup("in")
	require.True(t, ok)
	assert.Equal(t, StreamStdin, in.Stream)

	_, ok = def.Lookup("mystery")
	assert.False(t, ok)
}

func TestNewDefinitionSingleCell(t *testing.T) {
	def, err := NewDefinition("tiny", []CellAttributes{{Label: "k"}})
	require.NoError(t, err)
	assert.Equal(t, "k", def.Root())
}

func TestNewDefinitionDoesNotAliasInput(t *testing.T) {
	cells := impCells()
	def, err := NewDefinition("IMP", cells)
	require.NoError(t, err)

	cells[0].Children[0] = "mutated"

	top, _ := def.Lookup("T")
	assert.Equal(t, "k", top.Children[0])
}

func TestNewDefinitionErrors(t *testing.T) {
	tests := []struct {
		name  string
		cells []CellAttributes
		code  DefinitionErrorCode
	}{
		{"empty", nil, ErrCodeEmptyDefinition},
		{"empty label", []CellAttributes{{Label: ""}}, ErrCodeEmptyLabel},
		{"duplicate", []CellAttributes{{Label: "k"}, {Label: "k"}}, ErrCodeDuplicateCell},
		{"unknown child", []CellAttributes{{Label: "T", Children: []string{"k"}}}, ErrCodeUnknownChild},
		{"term with children", []CellAttributes{{Label: "T", Kind: term.KindTerm, Children: []string{"k"}}, {Label: "k"}}, ErrCodeInvalidKind},
		{"bad kind", []CellAttributes{{Label: "k", Kind: "list"}}, ErrCodeInvalidKind},
		{"bad stream", []CellAttributes{{Label: "in", Stream: "stdinn"}}, ErrCodeInvalidStream},
		{"two parents", []CellAttributes{
			{Label: "T", Children: []string{"a", "b"}},
			{Label: "a", Children: []string{"k"}},
			{Label: "b", Children: []string{"k"}},
			{Label: "k"},
		}, ErrCodeMultipleParents},
		{"self containment", []CellAttributes{{Label: "T", Children: []string{"T"}}}, ErrCodeContainmentCycle},
		{"cycle", []CellAttributes{
			{Label: "a", Children: []string{"b"}},
			{Label: "b", Children: []string{"a"}},
		}, ErrCodeContainmentCycle},
		{"two roots", []CellAttributes{{Label: "k"}, {Label: "out"}}, ErrCodeMultipleRoots},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := NewDefinition("bad", tt.cells)
			require.Error(t, err)
			assert.Nil(t, def)
			assert.True(t, IsDefinitionError(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestDefinitionHashIgnoresDeclarationOrder(t *testing.T) {
	a, err := NewDefinition("IMP", impCells())
	require.NoError(t, err)

	reversed := impCells()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	b, err := NewDefinition("IMP", reversed)
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash())

	c, err := NewDefinition("IMP2", impCells())
	require.NoError(t, err)
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestDocumentRoundTrip(t *testing.T) {
	def, err := NewDefinition("IMP", impCells())
	require.NoError(t, err)

	doc := def.Document()
	assert.Equal(t, "T", doc.Root)
	assert.Equal(t, "T", doc.Cells[0].Label)

	rebuilt, err := FromDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, def.Hash(), rebuilt.Hash())
}

func TestLookupConcurrent(t *testing.T) {
	def, err := NewDefinition("IMP", impCells())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, label := range def.Labels() {
				_, ok := def.Lookup(label)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestParseStreamRole(t *testing.T) {
	for in, want := range map[string]StreamRole{
		"":       StreamNone,
		"none":   StreamNone,
		"stdin":  StreamStdin,
		"stdout": StreamStdout,
		"stderr": StreamStderr,
	} {
		got, err := ParseStreamRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStreamRole("STDOUT")
	assert.Error(t, err)

	assert.True(t, StreamStderr.IsStream())
	assert.False(t, StreamNone.IsStream())
	assert.Equal(t, "none", StreamNone.String())
}
