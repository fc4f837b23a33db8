package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace replaces the "nbai" namespace of every series.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "analytics" subsystem of every series.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by stage, training,
// analysis and request histograms. Training runs take minutes, so the
// defaults reach 60s.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.latencyBuckets = buckets
		}
	}
}

// WithRecording turns the package-level Record and Update helpers on or off.
// Batch tools that only ingest can switch them off.
func WithRecording(on bool) Option {
	return func(m *Manager) {
		m.enabled = on
	}
}

// WithConstLabels attaches fixed labels, such as a dataset name, to every series.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if labels != nil {
			m.constLabels = labels
		}
	}
}

// WithNamePrefix prefixes each metric name after namespace and subsystem.
func WithNamePrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.namePrefix = prefix
		}
	}
}

// WithRegistry registers the series on r instead of the default registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}
