// Package metrics exposes orchestration counters on a private Prometheus
// registry. A nil *Recorder is valid and records nothing.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "photocurator"

// Outcome labels.
const (
	OutcomeCompleted   = "completed"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeCleared     = "cleared"
)

// Recorder groups the collectors used by the orchestrator.
type Recorder struct {
	registry *prometheus.Registry

	ingested    prometheus.Counter
	analyses    *prometheus.CounterVec
	retries     *prometheus.CounterVec
	inFlight    prometheus.Gauge
	aggregation *prometheus.CounterVec
	searches    *prometheus.CounterVec
}

// New registers every collector on a fresh registry so multiple
// orchestrators never collide.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_ingested_total",
			Help:      "Items accepted by ingestion.",
		}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Per-item analyses by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Backoff retries by remote operation.",
		}, []string{"operation"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "analyses_in_flight",
			Help:      "Analyses currently waiting on the intelligence service.",
		}),
		aggregation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_stages_total",
			Help:      "Aggregation stage runs by stage and outcome.",
		}, []string{"stage", "outcome"}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search requests by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(r.ingested, r.analyses, r.retries, r.inFlight, r.aggregation, r.searches)
	return r
}

func (r *Recorder) Ingested(n int) {
	if r == nil {
		return
	}
	r.ingested.Add(float64(n))
}

func (r *Recorder) Analysis(outcome string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Retry(operation string) {
	if r == nil {
		return
	}
	r.retries.WithLabelValues(operation).Inc()
}

// InFlight adjusts the in-flight gauge by delta.
func (r *Recorder) InFlight(delta int) {
	if r == nil {
		return
	}
	r.inFlight.Add(float64(delta))
}

func (r *Recorder) AggregationStage(stage, outcome string) {
	if r == nil {
		return
	}
	r.aggregation.WithLabelValues(stage, outcome).Inc()
}

func (r *Recorder) Search(outcome string) {
	if r == nil {
		return
	}
	r.searches.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
