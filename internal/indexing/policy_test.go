package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/term"
)

func TestIsIndexingCell(t *testing.T) {
	tests := []struct {
		label  string
		stream schema.StreamRole
		want   bool
	}{
		{"k", schema.StreamNone, true},
		{"k", schema.StreamStdin, true},
		{"in", schema.StreamStdin, true},
		{"out", schema.StreamStdout, true},
		{"err", schema.StreamStderr, true},
		{"state", schema.StreamNone, false},
		{"K", schema.StreamNone, false},
		{"kk", schema.StreamNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.label+"/"+tt.stream.String(), func(t *testing.T) {
			attrs := schema.CellAttributes{Label: tt.label, Stream: tt.stream}
			assert.Equal(t, tt.want, IsIndexingCell(tt.label, attrs))
		})
	}
}

func TestRelevant(t *testing.T) {
	s := mapSchema{
		"k":     {Label: "k"},
		"state": {Label: "state"},
	}

	ok, err := Relevant(s, leaf("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Relevant(s, leaf("state"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Relevant(s, term.NewCell("mystery", term.NewApp(".K")))
	require.Error(t, err)
	assert.True(t, IsSchemaLookupError(err))
	assert.False(t, IsMalformedTermError(err))
}

func TestRelevantRejectsMalformedCells(t *testing.T) {
	s := mapSchema{
		"k": {Label: "k", Kind: term.KindTerm},
		"T": {Label: "T", Kind: term.KindCellCollection},
	}

	tests := []struct {
		name  string
		cell  *term.Cell
		label string
	}{
		{"nil cell", nil, ""},
		{"term cell without content", &term.Cell{Label: "k", Kind: term.KindTerm}, "k"},
		{"kind disagrees with schema", term.NewCellCollection("k"), "k"},
		{"non-cell child", &term.Cell{Label: "T", Kind: term.KindCellCollection, Children: []term.Term{term.NewApp(".K")}}, "T"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ok bool
			var err error
			require.NotPanics(t, func() { ok, err = Relevant(s, tt.cell) })
			require.Error(t, err)
			assert.False(t, ok)
			assert.True(t, IsMalformedTermError(err))

			var ie *Error
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.label, ie.Label)
			assert.Equal(t, tt.label, ie.Path)
		})
	}
}

func TestCollectReportsFullPathForNestedErrors(t *testing.T) {
	s := mapSchema{
		"T":       {Label: "T", Kind: term.KindCellCollection},
		"streams": {Label: "streams", Kind: term.KindCellCollection},
		"out":     {Label: "out", Kind: term.KindTerm, Stream: schema.StreamStdout},
	}
	cfg := term.NewCellCollection("T",
		term.NewCellCollection("streams", &term.Cell{Label: "out", Kind: term.KindTerm}),
	)

	matches, visited, err := CollectMatches(cfg, s)
	require.Error(t, err)
	assert.Nil(t, matches)
	assert.Equal(t, 3, visited)

	var ie *Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, ErrCodeMalformedTerm, ie.Code)
	assert.Equal(t, "out", ie.Label)
	assert.Equal(t, "T/streams/out", ie.Path)
}
