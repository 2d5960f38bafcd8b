package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeYAMLNestedConfiguration(t *testing.T) {
	doc := `
cell: T
cells:
  - cell: k
    term:
      app: "_~>_"
      args:
        - {app: "_+_", args: [1, {var: X, sort: Int}]}
        - {const: "halt", sort: KItem}
  - cell: state
    term: {app: ".Map"}
  - cell: out
    term: {app: ".List"}
`
	got, err := DecodeYAML([]byte(doc))
	require.NoError(t, err)

	root, ok := got.(*Cell)
	require.True(t, ok, "root should be a cell, got %T", got)
	assert.Equal(t, "T", root.Label)
	assert.Equal(t, KindCellCollection, root.Kind)
	require.Len(t, root.Children, 3)

	k := root.Children[0].(*Cell)
	assert.Equal(t, "k", k.Label)
	assert.Equal(t, KindTerm, k.Kind)

	seq := k.Content.(App)
	assert.Equal(t, "_~>_", seq.Label)
	require.Len(t, seq.Args, 2)

	plus := seq.Args[0].(App)
	assert.Equal(t, Const{Sort: SortInt, Value: "1"}, plus.Args[0])
	assert.Equal(t, Var{Name: "X", Sort: "Int"}, plus.Args[1])
	assert.Equal(t, Const{Sort: "KItem", Value: "halt"}, seq.Args[1])
}

func TestDecodeJSONMatchesYAML(t *testing.T) {
	yamlTerm, err := DecodeYAML([]byte(`{cell: k, term: {app: f, args: [1, true, "s"]}}`))
	require.NoError(t, err)
	jsonTerm, err := DecodeJSON([]byte(`{"cell": "k", "term": {"app": "f", "args": [1, true, "s"]}}`))
	require.NoError(t, err)

	assert.Equal(t, MustHash(yamlTerm), MustHash(jsonTerm))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{"both term and cells", `{cell: k, term: 1, cells: []}`, "both term and cells"},
		{"neither term nor cells", `{cell: k}`, "neither term nor cells"},
		{"empty label", `{cell: "", term: 1}`, "must not be empty"},
		{"unknown key", `{cell: k, trm: 1}`, `unknown key "trm"`},
		{"float constant", `{cell: k, term: 1.5}`, "floats are not allowed"},
		{"null content", `{cell: k, term: null}`, "null is not a term"},
		{"bare list", `[1, 2]`, "a list is not a term"},
		{"unrecognised object", `{foo: bar}`, "none of cell/app/const/var"},
		{"cells not a list", `{cell: T, cells: {cell: k}}`, "cells must be a list"},
		{"args not a list", `{app: f, args: 1}`, "args must be a list"},
		{"non-string label", `{cell: 3, term: 1}`, "cell must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDecodeErrorCarriesPath(t *testing.T) {
	_, err := DecodeYAML([]byte(`
cell: T
cells:
  - cell: state
    cells:
      - cell: in
        term: 2.5
`))
	require.Error(t, err)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "T/cells[0]/state/cells[0]/in/term", de.Path)
}

func TestDecodeJSONRejectsFloat(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"cell": "k", "term": 3.14}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are not allowed")
}

func TestDecodeKeepsCellsInsideOpaqueContent(t *testing.T) {
	got, err := DecodeYAML([]byte(`
cell: k
term:
  app: wrap
  args:
    - {cell: k, term: 1}
`))
	require.NoError(t, err)

	outer := got.(*Cell)
	inner, ok := outer.Content.(App).Args[0].(*Cell)
	require.True(t, ok)
	assert.Equal(t, "k", inner.Label)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("cell: k\nterm: 1\n"), 0644))
	got, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "k", got.(*Cell).Label)

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"cell":"k","term":1}`), 0644))
	got, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "k", got.(*Cell).Label)

	txtPath := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0644))
	_, err = LoadFile(txtPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported term file extension")

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
