// Package metrics exposes the engine's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the engine updates.
type Metrics struct {
	Evaluations      *prometheus.CounterVec
	InputUnavailable *prometheus.CounterVec
	Commits          *prometheus.CounterVec
	WriteFailures    *prometheus.CounterVec
	EngineFaults     *prometheus.CounterVec
	Output           *prometheus.GaugeVec
}

// New registers the engine's collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compare_engine_evaluations_total",
			Help: "Evaluation ticks per rule.",
		}, []string{"rule"}),
		InputUnavailable: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compare_engine_input_unavailable_total",
			Help: "Input point reads that were missing, stale or timed out.",
		}, []string{"rule"}),
		Commits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compare_engine_commits_total",
			Help: "Output commits per rule.",
		}, []string{"rule"}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compare_engine_output_write_failures_total",
			Help: "Output writes that failed and will be retried.",
		}, []string{"rule"}),
		EngineFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "compare_engine_faults_total",
			Help: "Unexpected internal faults that restarted a rule task.",
		}, []string{"rule"}),
		Output: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "compare_engine_output",
			Help: "Last committed output value per rule (0 or 1).",
		}, []string{"rule"}),
	}
}

// Forget drops a rule's label series after its definition is deleted.
func (m *Metrics) Forget(ruleID string) {
	labels := prometheus.Labels{"rule": ruleID}
	m.Evaluations.Delete(labels)
	m.InputUnavailable.Delete(labels)
	m.Commits.Delete(labels)
	m.WriteFailures.Delete(labels)
	m.EngineFaults.Delete(labels)
	m.Output.Delete(labels)
}
