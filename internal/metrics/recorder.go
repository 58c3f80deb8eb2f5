// Package metrics exposes Prometheus metrics for the dev server.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the dev server's Prometheus registry and metrics.
type Recorder struct {
	registry *prom.Registry

	buildDuration     prom.Histogram
	buildOutcomes     *prom.CounterVec
	pagesRendered     prom.Gauge
	rebuildTriggers   *prom.CounterVec
	livereloadClients prom.Gauge
}

// NewRecorder constructs and registers all metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prom.NewRegistry()
	r := &Recorder{
		registry: reg,
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "blogsmith",
			Name:      "build_duration_seconds",
			Help:      "Duration of site builds",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesRendered: prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogsmith",
			Name:      "pages_rendered",
			Help:      "Pages in the most recent successful build",
		}),
		rebuildTriggers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "blogsmith",
			Name:      "rebuild_triggers_total",
			Help:      "Rebuild requests by reason",
		}, []string{"reason"}),
		livereloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "blogsmith",
			Name:      "livereload_clients",
			Help:      "Connected livereload clients",
		}),
	}
	reg.MustRegister(
		r.buildDuration,
		r.buildOutcomes,
		r.pagesRendered,
		r.rebuildTriggers,
		r.livereloadClients,
		collectors.NewGoCollector(),
	)
	return r
}

// ObserveBuild records one finished build.
func (r *Recorder) ObserveBuild(duration time.Duration, pages int, hadIssues bool, failed bool) {
	r.buildDuration.Observe(duration.Seconds())
	switch {
	case failed:
		r.buildOutcomes.WithLabelValues("failed").Inc()
	case hadIssues:
		r.buildOutcomes.WithLabelValues("warning").Inc()
	default:
		r.buildOutcomes.WithLabelValues("success").Inc()
	}
	if !failed {
		r.pagesRendered.Set(float64(pages))
	}
}

// RebuildTriggered counts a rebuild request by reason.
func (r *Recorder) RebuildTriggered(reason string) {
	r.rebuildTriggers.WithLabelValues(reason).Inc()
}

// SetLivereloadClients tracks the SSE client count.
func (r *Recorder) SetLivereloadClients(n int) {
	r.livereloadClients.Set(float64(n))
}

// Handler serves the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
