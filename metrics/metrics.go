// Package metrics exposes editor and offer counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"offerdesk/lineitems"
)

// Recorder implements lineitems.Observer and counts offer lifecycle events.
type Recorder struct {
	registry  *prometheus.Registry
	mutations *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	offers    *prometheus.CounterVec
	imports   *prometheus.CounterVec
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offerdesk",
			Name:      "editor_mutations_total",
			Help:      "Editor mutations by kind, operation, persistence mode and outcome.",
		}, []string{"kind", "op", "mode", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "offerdesk",
			Name:      "editor_mutation_duration_seconds",
			Help:      "Time spent applying an editor mutation, including store round trips.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind", "op", "mode"}),
		offers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offerdesk",
			Name:      "offers_total",
			Help:      "Offer lifecycle events.",
		}, []string{"event"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offerdesk",
			Name:      "catalog_rows_imported_total",
			Help:      "Catalog rows written by imports.",
		}, []string{"table"}),
	}
	r.registry.MustRegister(
		r.mutations, r.latency, r.offers, r.imports,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveMutation(kind, op string, remote bool, err error, took time.Duration) {
	mode := "local"
	if remote {
		mode = "remote"
	}
	r.mutations.WithLabelValues(kind, op, mode, outcome(err)).Inc()
	r.latency.WithLabelValues(kind, op, mode).Observe(took.Seconds())
}

func outcome(err error) string {
	var cfgErr *lineitems.ConfigurationError
	var valErr *lineitems.ValidationError
	var remoteErr *lineitems.RemoteMutationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return "rejected"
	case errors.As(err, &remoteErr):
		if remoteErr.Reloaded {
			return "reloaded"
		}
		return "failed"
	default:
		return "error"
	}
}

// OfferEvent counts created, saved, status_<status>, converted and deleted
// offers.
func (r *Recorder) OfferEvent(event string) {
	r.offers.WithLabelValues(event).Inc()
}

// CatalogImported adds n imported rows for table.
func (r *Recorder) CatalogImported(table string, n int) {
	r.imports.WithLabelValues(table).Add(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
