package indexing

import (
	"io"
	"log/slog"

	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/term"
)

// Result is the handoff to the rule index for one configuration.
type Result struct {
	Cells   []*term.Cell
	Paths   []string
	Key     string
	Visited int
}

// Labels returns the labels of the collected cells, in order.
func (r *Result) Labels() []string {
	return Labels(r.Cells)
}

// Indexer binds a definition to optional metrics and logging.
//
// Thread-safety: Indexer holds no per-call state. It is safe for concurrent
// use as long as the Metrics and logger are (prometheus and slog both are).
type Indexer struct {
	def     *schema.Definition
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithMetrics records every collection in m.
func WithMetrics(m *Metrics) Option {
	return func(ix *Indexer) { ix.metrics = m }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) { ix.logger = l }
}

// NewIndexer creates an Indexer for def.
func NewIndexer(def *schema.Definition, opts ...Option) *Indexer {
	ix := &Indexer{
		def:    def,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Definition returns the definition the indexer reads.
func (ix *Indexer) Definition() *schema.Definition {
	return ix.def
}

// Collect is Collect(t, ix.Definition()) with metrics and logging.
func (ix *Indexer) Collect(t term.Term) ([]*term.Cell, error) {
	res, err := ix.Index(t)
	if err != nil {
		return nil, err
	}
	return res.Cells, nil
}

// Index collects the indexing cells of t and computes their key.
func (ix *Indexer) Index(t term.Term) (*Result, error) {
	matches, visited, err := CollectMatches(t, ix.def)
	ix.metrics.observe(len(matches), visited, err)
	if err != nil {
		ix.logger.Error("indexing cell collection failed",
			"definition", ix.def.Name(),
			"visited", visited,
			"error", err,
		)
		return nil, err
	}

	res := &Result{
		Cells:   make([]*term.Cell, len(matches)),
		Paths:   make([]string, len(matches)),
		Visited: visited,
	}
	for i, m := range matches {
		res.Cells[i] = m.Cell
		res.Paths[i] = m.Path
	}

	key, err := Key(res.Cells)
	if err != nil {
		return nil, err
	}
	res.Key = key

	ix.logger.Debug("indexing cells collected",
		"definition", ix.def.Name(),
		"visited", visited,
		"cells", res.Paths,
		"key", key,
	)
	return res, nil
}
