package indexing

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/kindex/internal/schema"
	"github.com/roach88/kindex/internal/term"
)

func TestIndexerIndex(t *testing.T) {
	def := mustDefinition(t,
		schema.CellAttributes{Label: "T", Children: []string{"k", "state", "out"}},
		schema.CellAttributes{Label: "k"},
		schema.CellAttributes{Label: "state"},
		schema.CellAttributes{Label: "out", Stream: schema.StreamStdout},
	)
	k, out := leaf("k"), leaf("out")
	cfg := term.NewCellCollection("T", k, leaf("state"), out)

	ix := NewIndexer(def)
	res, err := ix.Index(cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"k", "out"}, res.Labels())
	assert.Equal(t, []string{"T/k", "T/out"}, res.Paths)
	assert.Equal(t, 4, res.Visited)

	wantKey, err := Key([]*term.Cell{k, out})
	require.NoError(t, err)
	assert.Equal(t, wantKey, res.Key)
	assert.Same(t, def, ix.Definition())

	cells, err := ix.Collect(cfg)
	require.NoError(t, err)
	assert.Equal(t, res.Cells, cells)
}

func TestIndexerMetrics(t *testing.T) {
	def := mustDefinition(t,
		schema.CellAttributes{Label: "T", Children: []string{"k"}},
		schema.CellAttributes{Label: "k"},
	)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	ix := NewIndexer(def, WithMetrics(m))

	_, err := ix.Index(term.NewCellCollection("T", leaf("k")))
	require.NoError(t, err)
	_, err = ix.Index(term.NewCellCollection("T", leaf("k")))
	require.NoError(t, err)
	_, err = ix.Index(leaf("mystery"))
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.collections.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collections.WithLabelValues(string(ErrCodeSchemaLookup))))
	assert.Equal(t, 2, testutil.CollectAndCount(m.collections))
	assert.Equal(t, 1, testutil.CollectAndCount(m.collected))
}

func TestIndexerLogsFailures(t *testing.T) {
	def := mustDefinition(t, schema.CellAttributes{Label: "k"})
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ix := NewIndexer(def, WithLogger(logger))

	_, err := ix.Index(leaf("mystery"))
	require.Error(t, err)
	assert.Contains(t, buf.String(), "indexing cell collection failed")
	assert.Contains(t, buf.String(), "SCHEMA_LOOKUP")

	buf.Reset()
	_, err = ix.Index(leaf("k"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "indexing cells collected")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe(1, 1, nil) })
}
