package measure

import (
	"sync"
)

// DefaultMeasure keeps metrics in memory.
type DefaultMeasure struct {
	mu    sync.RWMutex
	Steps map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Steps: make(map[string]Metric),
	}
}

// AddMetric registers a metric under name, replacing any previous one.
func (m *DefaultMeasure) AddMetric(name string) Metric {
	mt := &DefaultMetric{
		allTransports: make(map[string]*transport),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Steps[name] = mt

	return mt
}

// GetMetric returns the metric of name, or nil when there is none.
func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Steps[name]
}

// AllMetrics returns a copy of the metrics, keyed by stage.
func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Metric, len(m.Steps))
	for name, mt := range m.Steps {
		out[name] = mt
	}

	return out
}

// Reset drops every metric.
func (m *DefaultMeasure) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Steps = make(map[string]Metric)
}

var _ Measure = (*DefaultMeasure)(nil)
