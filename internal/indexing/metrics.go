package indexing

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records indexing activity.
type Metrics struct {
	collections *prometheus.CounterVec
	collected   prometheus.Histogram
	visited     prometheus.Histogram
}

// NewMetrics creates the indexing metrics and registers them with reg.
// Panics if registration fails (e.g. registering twice on one registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		collections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kindex_collections_total",
				Help: "Indexing cell collections by outcome (ok or error code).",
			},
			[]string{"outcome"},
		),
		collected: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kindex_indexing_cells",
			Help:    "Number of indexing cells collected per configuration.",
			Buckets: prometheus.LinearBuckets(0, 1, 8),
		}),
		visited: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kindex_visited_cells",
			Help:    "Number of cells visited per collection.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(m.collections, m.collected, m.visited)
	return m
}

func (m *Metrics) observe(collected, visited int, err error) {
	if m == nil {
		return
	}
	m.visited.Observe(float64(visited))
	if err != nil {
		outcome := "error"
		var ie *Error
		if errors.As(err, &ie) {
			outcome = string(ie.Code)
		}
		m.collections.WithLabelValues(outcome).Inc()
		return
	}
	m.collections.WithLabelValues("ok").Inc()
	m.collected.Observe(float64(collected))
}
