package indexing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kindex/internal/term"
)

func TestKey(t *testing.T) {
	k1 := term.NewCell("k", term.NewConst("Int", "1"))
	k1again := term.NewCell("k", term.NewConst("Int", "1"))
	k2 := term.NewCell("k", term.NewConst("Int", "2"))
	out := term.NewCell("out", term.NewApp(".List"))

	a, err := Key([]*term.Cell{k1, out})
	require.NoError(t, err)
	b, err := Key([]*term.Cell{k1again, out})
	require.NoError(t, err)
	assert.Equal(t, a, b, "equal cells give equal keys")

	c, err := Key([]*term.Cell{k2, out})
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "content is part of the key")

	d, err := Key([]*term.Cell{out, k1})
	require.NoError(t, err)
	assert.NotEqual(t, a, d, "order is part of the key")

	empty, err := Key(nil)
	require.NoError(t, err)
	assert.Len(t, empty, 64)
}

func TestKeyRejectsNilCell(t *testing.T) {
	_, err := Key([]*term.Cell{nil})
	assert.Error(t, err)
}

func TestKeyNormalisesUnicode(t *testing.T) {
	composed := term.NewCell("k", term.NewConst("String", "caf\u00e9"))
	decomposed := term.NewCell("k", term.NewConst("String", "cafe\u0301"))

	a, err := Key([]*term.Cell{composed})
	require.NoError(t, err)
	b, err := Key([]*term.Cell{decomposed})
	require.NoError(t, err)
	assert.Equal(t, a, b, "NFC-equivalent strings share a key")
}
