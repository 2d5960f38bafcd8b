package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kindex/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledDefinition is the compiled form of one definition.
type CompiledDefinition struct {
	Hash string `json:"hash"`
	schema.Document
	Streams []string `json:"streams"`
}

// CompilationResult holds the compiled definitions.
type CompilationResult struct {
	Definitions []CompiledDefinition `json:"definitions"`
	OutputFile  string               `json:"output_file,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <definitions-dir>",
		Short: "Compile CUE configuration definitions",
		Long: `Compile the CUE configuration definitions in a directory.

Each definition declares its cells, their content kinds, stream roles
and containment. The compiler validates the containment structure
(one root, one parent per cell, no cycles) and reports every error
with its source position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, defsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := formatter.Logger()

	loadResult, loadErrors := LoadDefinitions(defsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return formatter.Fail(problemFor(loadErrors[0]))
	}

	log.Debug("found CUE files", "dir", defsDir, "count", loadResult.FileCount)
	for _, def := range loadResult.Definitions {
		log.Debug("compiled definition", "name", def.Name(), "hash", def.Hash())
	}

	if len(loadErrors) > 0 {
		problems := make([]Problem, len(loadErrors))
		for i, err := range loadErrors {
			problems[i] = problemFor(err)
		}
		return formatter.FailAll("Compilation failed", problems)
	}

	result := NewCompilationResult(loadResult.Definitions)

	if opts.Output != "" {
		if err := writeDefinitionsToFile(result, opts.Output); err != nil {
			return formatter.Fail(commandProblem(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err)))
		}
		result.OutputFile = opts.Output
	}

	return formatter.Emit(result)
}

// NewCompilationResult builds the output form of compiled definitions.
func NewCompilationResult(defs []*schema.Definition) *CompilationResult {
	result := &CompilationResult{Definitions: make([]CompiledDefinition, len(defs))}
	for i, def := range defs {
		result.Definitions[i] = CompiledDefinition{
			Hash:     def.Hash(),
			Document: def.Document(),
			Streams:  def.Streams(),
		}
	}
	return result
}

// WriteText lists each definition with its root and stream cells.
func (r *CompilationResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "✓ Compiled %d definition(s)\n\n", len(r.Definitions))

	fmt.Fprintln(w, "Definitions:")
	for _, def := range r.Definitions {
		streams := "none"
		if len(def.Streams) > 0 {
			streams = strings.Join(def.Streams, ", ")
		}
		fmt.Fprintf(w, "  %s: %d cell(s), root %s, streams: %s\n", def.Name, len(def.Cells), def.Root, streams)
	}
	fmt.Fprintln(w)

	if r.OutputFile != "" {
		fmt.Fprintf(w, "Wrote compiled definitions to %s\n", r.OutputFile)
	}
}

// writeDefinitionsToFile writes the compiled definitions as indented JSON.
func writeDefinitionsToFile(result *CompilationResult, filename string) error {
	// Indented for readability; canonical JSON is used only for hashing.
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling definitions: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
