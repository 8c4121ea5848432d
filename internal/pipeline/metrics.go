package pipeline

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for pipeline runs on a private registry.
// A nil *Metrics disables collection.
type Metrics struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	rows         prometheus.Counter
	anomalies    *prometheus.CounterVec
	stepDuration *prometheus.GaugeVec
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanprep",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanprep",
			Name:      "pipeline_rows_total",
			Help:      "Rows emitted by successful pipeline runs.",
		}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanprep",
			Name:      "pipeline_anomalies_total",
			Help:      "Per-value data-quality anomalies recovered by pipeline steps.",
		}, []string{"step", "kind"}),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "loanprep",
			Name:      "pipeline_step_duration_seconds",
			Help:      "Duration of the most recent execution of each step.",
		}, []string{"step"}),
	}
	m.registry.MustRegister(m.runs, m.rows, m.anomalies, m.stepDuration)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) observeStep(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Set(d.Seconds())
}

func (m *Metrics) observeRun(rows int, rep *Report, ok bool) {
	if m == nil {
		return
	}
	if !ok {
		m.runs.WithLabelValues("failed").Inc()
		return
	}
	m.runs.WithLabelValues("completed").Inc()
	m.rows.Add(float64(rows))
	for _, a := range rep.Anomalies() {
		m.anomalies.WithLabelValues(a.Step, a.Kind).Add(float64(a.Count))
	}
}
