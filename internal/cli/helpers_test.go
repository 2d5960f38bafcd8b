package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const impDefinition = `package test

definition: IMP: cells: {
	T: cells: ["k", "state", "streams"]
	k: {}
	state: {}
	streams: cells: ["in", "out", "err"]
	"in": stream: "stdin"
	out: stream: "stdout"
	err: stream: "stderr"
}
`

const impConfig = `
cell: T
cells:
  - cell: k
    term:
      app: print
      args:
        - { const: "hi" }
  - cell: state
    term: { app: ".Map" }
  - cell: streams
    cells:
      - cell: in
        term: { app: ".List" }
      - cell: out
        term: { app: ".List" }
      - cell: err
        term: { app: ".List" }
`

const unknownCellConfig = `
cell: T
cells:
  - cell: k
    term: { app: ".K" }
  - cell: mystery
    term: { app: ".K" }
`

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

// impDir creates a definitions directory holding the IMP definition.
func impDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "imp.cue", impDefinition)
	return dir
}

// execute runs cmd with args, returning stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
