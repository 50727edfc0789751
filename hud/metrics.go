// Package hud is the optional long-running surface: an OTLP HTTP/protobuf
// receiver for Claude Code telemetry and a local control API over the state
// stores. Hook invocations never depend on it.
package hud

import (
	"cmp"
	"slices"
	"sync"
)

const (
	// DefaultMaxMetricSeries caps distinct metric series so a chatty or
	// malformed exporter can't grow the buffer without bound.
	DefaultMaxMetricSeries = 1000

	maxAttrValueLen = 256
)

// MetricSummary is one metric series as served to monitors.
type MetricSummary struct {
	Name       string            `json:"name"`
	Agent      string            `json:"agent"`
	Value      float64           `json:"value"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// metricKey identifies a series. Only name, agent and the "type" attribute
// participate so varying resource attributes don't multiply series.
type metricKey struct {
	name       string
	agent      string
	metricType string
}

// MetricBuffer accumulates the latest value per metric series.
type MetricBuffer struct {
	mu      sync.Mutex
	metrics map[metricKey]*MetricSummary

	maxSeries int
}

func NewMetricBuffer() *MetricBuffer {
	return &MetricBuffer{
		metrics:   make(map[metricKey]*MetricSummary),
		maxSeries: DefaultMaxMetricSeries,
	}
}

// Update folds one data point into the buffer. Delta points accumulate onto
// the running value, cumulative and gauge points replace it.
func (b *MetricBuffer) Update(m MetricSummary, isDelta bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := metricKey{name: m.Name, agent: m.Agent, metricType: m.Attributes["type"]}
	existing, ok := b.metrics[key]
	if !ok {
		if len(b.metrics) >= b.maxSeries {
			return
		}
		copied := m
		b.metrics[key] = &copied
		return
	}
	if isDelta {
		existing.Value += m.Value
	} else {
		existing.Value = m.Value
	}
	existing.Attributes = m.Attributes
}

// Metrics returns all series sorted by agent then name for stable display.
func (b *MetricBuffer) Metrics() []MetricSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]MetricSummary, 0, len(b.metrics))
	for _, m := range b.metrics {
		result = append(result, *m)
	}
	slices.SortFunc(result, func(a, c MetricSummary) int {
		if v := cmp.Compare(a.Agent, c.Agent); v != 0 {
			return v
		}
		if v := cmp.Compare(a.Name, c.Name); v != 0 {
			return v
		}
		return cmp.Compare(a.Attributes["type"], c.Attributes["type"])
	})
	return result
}

// AgentMetrics returns the series for one agent.
func (b *MetricBuffer) AgentMetrics(agent string) []MetricSummary {
	all := b.Metrics()
	filtered := all[:0]
	for _, m := range all {
		if m.Agent == agent {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
