package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/kindex/internal/compiler"
	"github.com/roach88/kindex/internal/indexing"
	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/store"
	"github.com/roach88/kindex/internal/term"
)

// CollectOptions holds flags for the collect command.
type CollectOptions struct {
	*RootOptions
	Definition string // definition name; optional when the directory holds one
	Database   string // optional SQLite database to record the run in
	Metrics    bool   // dump collection metrics to stderr
}

// CollectedCell is one indexing cell in command output.
type CollectedCell struct {
	Label   string `json:"label"`
	Path    string `json:"path"`
	Stream  string `json:"stream,omitempty"`
	Content any    `json:"content,omitempty"` // canonical term document, leaf cells only
}

// CollectResult holds the outcome of the collect command.
type CollectResult struct {
	Definition     string          `json:"definition"`
	DefinitionHash string          `json:"definition_hash"`
	TermHash       string          `json:"term_hash"`
	Key            string          `json:"key"`
	Visited        int             `json:"visited"`
	Cells          []CollectedCell `json:"cells"`
	RunID          string          `json:"run_id,omitempty"`
	PreviousRunID  string          `json:"previous_run_id,omitempty"` // latest earlier run of the same term and definition
}

// NewCollectCommand creates the collect command.
func NewCollectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CollectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "collect <definitions-dir> <term-file>",
		Short: "Collect the indexing cells of a configuration",
		Long: `Collect the indexing cells of a configuration term.

The term file is YAML or JSON. Cells are written as
{cell: <label>, term: <term>} or {cell: <label>, cells: [...]}.
The computation cell "k" and every cell bound to stdin, stdout or
stderr are collected in depth-first pre-order.

Exit codes:
  0 - Cells collected
  1 - The term disagrees with the definition (unknown cell, malformed term)
  2 - Command error (invalid paths, bad definitions, database error)

Examples:
  kindex collect ./definitions config.yaml
  kindex collect ./definitions config.yaml --definition IMP
  kindex collect ./definitions config.yaml --db ./kindex.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Definition, "definition", "d", "", "definition name (required if the directory declares several)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "write collection metrics to stderr")

	return cmd
}

func runCollect(opts *CollectOptions, defsDir, termFile string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)
	log := formatter.Logger()

	loadResult, loadErrors := LoadDefinitions(defsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		return formatter.Fail(problemFor(loadErrors[0]))
	}

	def, err := compiler.Select(loadResult.Definitions, opts.Definition)
	if err != nil {
		return formatter.Fail(commandProblem(ErrCodeDefinitionPick, err.Error()))
	}
	log.Debug("using definition", "name", def.Name(), "hash", def.Hash())

	t, err := term.LoadFile(termFile)
	if err != nil {
		return formatter.Fail(commandProblem(ErrCodeTermDecode, err.Error()))
	}

	registry := prometheus.NewRegistry()
	ix := indexing.NewIndexer(def,
		indexing.WithMetrics(indexing.NewMetrics(registry)),
		indexing.WithLogger(log),
	)

	res, indexErr := ix.Index(t)

	if opts.Metrics {
		if err := writeMetrics(formatter.errWriter(), registry); err != nil {
			return formatter.Fail(commandProblem(ErrCodeGeneric, fmt.Sprintf("writing metrics: %v", err)))
		}
	}

	if indexErr != nil {
		return formatter.Fail(problemFor(indexErr))
	}

	result, err := newCollectResult(def, t, res)
	if err != nil {
		return formatter.Fail(problemFor(err))
	}

	if opts.Database != "" {
		if err := recordRun(ctx, opts.Database, def, result); err != nil {
			return formatter.Fail(commandProblem(ErrCodeStore, err.Error()))
		}
		log.Debug("recorded run", "id", result.RunID, "db", opts.Database, "previous", result.PreviousRunID)
	}

	return formatter.Emit(result)
}

// newCollectResult renders an indexing result for output.
func newCollectResult(def *schema.Definition, t term.Term, res *indexing.Result) (*CollectResult, error) {
	termHash, err := term.Hash(t)
	if err != nil {
		return nil, fmt.Errorf("hashing term: %w", err)
	}

	result := &CollectResult{
		Definition:     def.Name(),
		DefinitionHash: def.Hash(),
		TermHash:       termHash,
		Key:            res.Key,
		Visited:        res.Visited,
		Cells:          make([]CollectedCell, len(res.Cells)),
	}

	for i, c := range res.Cells {
		cell := CollectedCell{Label: c.Label, Path: res.Paths[i]}
		if attrs, ok := def.Lookup(c.Label); ok && attrs.Stream.IsStream() {
			cell.Stream = attrs.Stream.String()
		}
		if c.Kind == term.KindTerm {
			doc, err := term.Canonical(c.Content)
			if err != nil {
				return nil, fmt.Errorf("cell %s: %w", res.Paths[i], err)
			}
			cell.Content = doc
		}
		result.Cells[i] = cell
	}

	return result, nil
}

// recordRun stores the definition and a new run, filling in RunID. If the
// same configuration was indexed against the same definition before, the
// latest such run is reported in PreviousRunID.
func recordRun(ctx context.Context, dbPath string, def *schema.Definition, result *CollectResult) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.WriteDefinition(ctx, def); err != nil {
		return err
	}

	prev, err := st.LatestIndexRun(ctx, def.Hash(), result.TermHash)
	switch {
	case err == nil:
		result.PreviousRunID = prev.ID
		if prev.IndexKey != result.Key {
			return fmt.Errorf("run %s indexed this configuration with key %s, now %s", prev.ID, prev.IndexKey, result.Key)
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	paths := make([]string, len(result.Cells))
	for i, c := range result.Cells {
		paths[i] = c.Path
	}

	run := store.IndexRun{
		ID:             store.UUIDv7Generator{}.Generate(),
		DefinitionHash: def.Hash(),
		TermHash:       result.TermHash,
		IndexKey:       result.Key,
		Cells:          paths,
	}
	if _, err := st.WriteIndexRun(ctx, run); err != nil {
		return err
	}
	result.RunID = run.ID
	return nil
}

// writeMetrics dumps the registry in the Prometheus text format.
func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// WriteText lists the collected cell paths, the key and the stored run.
func (r *CollectResult) WriteText(w io.Writer) {
	fmt.Fprintf(w, "✓ Collected %d indexing cell(s) from %s (visited %d)\n\n", len(r.Cells), r.Definition, r.Visited)

	if len(r.Cells) > 0 {
		fmt.Fprintln(w, "Cells:")
		for _, c := range r.Cells {
			if c.Stream != "" {
				fmt.Fprintf(w, "  %s (%s)\n", c.Path, c.Stream)
			} else {
				fmt.Fprintf(w, "  %s\n", c.Path)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Key: %s\n", r.Key)
	if r.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", r.RunID)
	}
	if r.PreviousRunID != "" {
		fmt.Fprintf(w, "Previously indexed as run %s\n", r.PreviousRunID)
	}
}
