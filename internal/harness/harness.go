package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/kindex/internal/compiler"
	"github.com/roach88/kindex/internal/indexing"
	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/store"
	"github.com/roach88/kindex/internal/term"
)

// Harness is the scenario execution engine.
type Harness struct {
	store   *store.Store
	indexer *indexing.Indexer
	ids     store.IDGenerator
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, and run
// IDs are derived from the scenario name so results are reproducible.
//
// Execution flow:
// 1. Compile the definition files and select the definition
// 2. Decode the term
// 3. Collect its indexing cells and store the run
// 4. Evaluate assertions and return the result
//
// A returned error means the scenario itself is broken (bad definition,
// bad term document). A collection error is part of the result.
func Run(scenario *Scenario) (*Result, error) {
	def, err := LoadDefinition(scenario.Definitions, scenario.Definition)
	if err != nil {
		return nil, err
	}

	t, err := term.Decode(scenario.Term)
	if err != nil {
		return nil, fmt.Errorf("failed to decode term: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		store:   st,
		indexer: indexing.NewIndexer(def, indexing.WithLogger(logger)),
		ids:     store.NewFixedGenerator("scenario-" + scenario.Name),
		logger:  logger,
	}

	ctx := context.Background()
	result := NewResult()
	result.Definition = def.Name()

	if err := h.collect(ctx, t, result); err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Store:          st,
		Ctx:            ctx,
		DefinitionHash: def.Hash(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// collect runs the indexer and records the outcome in result. Indexing
// errors are recorded; store failures are returned.
func (h *Harness) collect(ctx context.Context, t term.Term, result *Result) error {
	def := h.indexer.Definition()
	if err := h.store.WriteDefinition(ctx, def); err != nil {
		return fmt.Errorf("failed to store definition: %w", err)
	}

	res, err := h.indexer.Index(t)
	if err != nil {
		var ie *indexing.Error
		if !errors.As(err, &ie) {
			return err
		}
		result.ErrorCode = string(ie.Code)
		h.logger.Debug("collection failed", "code", ie.Code, "path", ie.Path)
		return nil
	}

	result.Cells = res.Labels()
	result.Paths = res.Paths
	result.Key = res.Key
	result.Visited = res.Visited

	termHash, err := term.Hash(t)
	if err != nil {
		return fmt.Errorf("failed to hash term: %w", err)
	}

	run := store.IndexRun{
		ID:             h.ids.Generate(),
		DefinitionHash: def.Hash(),
		TermHash:       termHash,
		IndexKey:       res.Key,
		Cells:          res.Paths,
	}
	if _, err := h.store.WriteIndexRun(ctx, run); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	result.RunID = run.ID
	return nil
}

// LoadDefinition compiles the CUE files at paths as one value and selects
// the definition called name (or the only one when name is empty).
func LoadDefinition(paths []string, name string) (*schema.Definition, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no definition files given")
	}
	cctx := cuecontext.New()

	var merged cue.Value
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read definition file: %w", err)
		}
		v := cctx.CompileBytes(data, cue.Filename(p))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", p, err)
		}
		if i == 0 {
			merged = v
		} else {
			merged = merged.Unify(v)
		}
	}

	defs, err := compiler.CompileDefinitions(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to compile definitions: %w", err)
	}
	return compiler.Select(defs, name)
}
