package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileValidDefinitions(t *testing.T) {
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), impDir(t))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 1 definition(s)")
	assert.Contains(t, out, "IMP: 7 cell(s), root T, streams: err, in, out")
}

func TestCompileValidDefinitionsJSON(t *testing.T) {
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), impDir(t))
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Definitions, 1)

	def := resp.Data.Definitions[0]
	assert.Equal(t, "IMP", def.Name)
	assert.Equal(t, "T", def.Root)
	assert.Len(t, def.Hash, 64)
	assert.Equal(t, []string{"err", "in", "out"}, def.Streams)
	assert.Len(t, def.Cells, 7)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), impDir(t), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled definitions to")

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Definitions, 1)
	assert.Equal(t, "IMP", result.Definitions[0].Name)
}

func TestCompileVerboseGoesToStderr(t *testing.T) {
	out, errOut, err := execute(NewCompileCommand(&RootOptions{Format: "json", Verbose: true}), impDir(t))
	require.NoError(t, err)

	assert.Contains(t, errOut, `msg="compiled definition" name=IMP`)
	var resp Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must stay valid JSON")
}

func TestCompileNonExistentDir(t *testing.T) {
	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/definitions")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestCompileNoCUEFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "not cue")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeNoFiles)
}

func TestCompileNoDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "empty.cue", "package test\n\nhelper: 1\n")

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "no definitions found")
}

func TestCompileCollectsAllErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package test

definition: {
	ORPHAN: cells: {
		T: cells: ["missing"]
	}
	NOISY: cells: {
		out: stream: "stdnull"
	}
}
`)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp Envelope
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Problems, 2)
	assert.Equal(t, resp.Problems[0], *resp.Error)

	codes := []string{resp.Problems[0].Code, resp.Problems[1].Code}
	assert.ElementsMatch(t, []string{ErrCodeContainment, ErrCodeInvalidStream}, codes)
}

func TestCompileErrorTextShowsPosition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `package test

definition: BAD: cells: {
	k: kind: "list"
}
`)

	out, _, err := execute(NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "bad.cue:")
	assert.Contains(t, out, ErrCodeInvalidKind)
}

func TestMapDefinitionErrorCode(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"cells", ErrCodeDefinitionCells},
		{"stream", ErrCodeInvalidStream},
		{"kind", ErrCodeInvalidKind},
		{"cell", ErrCodeInvalidCell},
		{"cue", ErrCodeBuildFailed},
		{"other", ErrCodeGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapFieldToErrorCode(tt.field), tt.field)
	}
}
