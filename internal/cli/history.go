package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kindex/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Definition string // optional - filter to runs of this definition
	Key        string // optional - filter to runs with this index key
}

// HistoryEntry is one recorded run in command output.
type HistoryEntry struct {
	Seq            int64    `json:"seq"`
	ID             string   `json:"id"`
	Definition     string   `json:"definition"`
	DefinitionHash string   `json:"definition_hash"`
	TermHash       string   `json:"term_hash"`
	Key            string   `json:"key"`
	Cells          []string `json:"cells"`
}

// HistoryResult holds the history command output.
type HistoryResult struct {
	Runs []HistoryEntry `json:"runs"`

	// LatestDefinitionHash is the most recently written version of the
	// definition named by --definition. Empty without that filter.
	LatestDefinitionHash string `json:"latest_definition_hash,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded collection runs",
		Long: `List the collection runs recorded by "kindex collect --db".

Runs are listed in the order they were recorded. Filter by definition
name to see every configuration indexed against any stored version of
it (runs of older versions are marked), or by index key to find
configurations that select the same rewrite rules.

Examples:
  kindex history --db ./kindex.db
  kindex history --db ./kindex.db --definition IMP
  kindex history --db ./kindex.db --key 3f9a... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVarP(&opts.Definition, "definition", "d", "", "filter to runs of this definition")
	cmd.Flags().StringVar(&opts.Key, "key", "", "filter to runs with this index key")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Definition != "" && opts.Key != "" {
		return formatter.Fail(commandProblem(ErrCodeGeneric, "--definition and --key are mutually exclusive"))
	}

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(commandProblem(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database)))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(commandProblem(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err)))
	}
	defer st.Close()

	runs, err := queryRuns(ctx, st, opts)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(problemFor(err))
		}
		return formatter.Fail(commandProblem(ErrCodeStore, err.Error()))
	}

	result := &HistoryResult{Runs: make([]HistoryEntry, 0, len(runs))}
	if opts.Definition != "" {
		latest, err := st.ReadDefinitionByName(ctx, opts.Definition)
		if err != nil {
			return formatter.Fail(commandProblem(ErrCodeStore, err.Error()))
		}
		result.LatestDefinitionHash = latest.Hash()
	}
	for _, run := range runs {
		def, err := st.ReadDefinition(ctx, run.DefinitionHash)
		if err != nil {
			return formatter.Fail(commandProblem(ErrCodeStore, err.Error()))
		}
		result.Runs = append(result.Runs, HistoryEntry{
			Seq:            run.Seq,
			ID:             run.ID,
			Definition:     def.Name(),
			DefinitionHash: run.DefinitionHash,
			TermHash:       run.TermHash,
			Key:            run.IndexKey,
			Cells:          run.Cells,
		})
	}
	formatter.Logger().Debug("read runs", "db", opts.Database, "count", len(result.Runs))

	return formatter.Emit(result)
}

// queryRuns picks the store query matching the filters. A definition name
// covers every stored version of that definition.
func queryRuns(ctx context.Context, st *store.Store, opts *HistoryOptions) ([]store.IndexRun, error) {
	switch {
	case opts.Key != "":
		return st.RunsForKey(ctx, opts.Key)
	case opts.Definition != "":
		return st.RunsForDefinitionName(ctx, opts.Definition)
	default:
		return st.ReadAllIndexRuns(ctx)
	}
}

// WriteText lists runs in seq order.
func (r *HistoryResult) WriteText(w io.Writer) {
	if len(r.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	fmt.Fprintf(w, "Runs: %d\n\n", len(r.Runs))
	for _, run := range r.Runs {
		fmt.Fprintf(w, "  [%d] %s %s@%s key=%s", run.Seq, run.ID, run.Definition, shortHash(run.DefinitionHash), shortHash(run.Key))
		if r.LatestDefinitionHash != "" && run.DefinitionHash != r.LatestDefinitionHash {
			fmt.Fprint(w, " (older version)")
		}
		fmt.Fprintln(w)
		if len(run.Cells) > 0 {
			fmt.Fprintf(w, "      cells: %s\n", strings.Join(run.Cells, ", "))
		}
	}
}

// shortHash abbreviates a hex digest for text output.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
