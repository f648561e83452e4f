// Package metrics provides Prometheus collectors for report runs.
//
// A nil *Collectors is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "omnireport"

// Upstream service labels.
const (
	ServiceSearch     = "search"
	ServiceGeneration = "generation"
)

// Collectors groups the metrics recorded by one process.
type Collectors struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	Runs             *prometheus.CounterVec
	References       prometheus.Counter
	Tokens           *prometheus.CounterVec
}

// New registers the collectors on reg. Passing prometheus.DefaultRegisterer
// exposes them on promhttp.Handler().
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of calls to the search and generation upstreams",
			},
			[]string{"service", "outcome"}, // outcome: ok/error
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream call duration in seconds",
				Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"service"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of finished report runs",
			},
			[]string{"status"},
		),
		References: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "references_total",
				Help:      "Total number of unique references collected",
			},
		),
		Tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "tokens_used_total",
				Help:      "Total tokens used for generation calls",
			},
			[]string{"type"}, // type: prompt/completion
		),
	}
}

// ObserveUpstream records one upstream call.
func (c *Collectors) ObserveUpstream(service string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.UpstreamRequests.WithLabelValues(service, outcome).Inc()
	c.UpstreamDuration.WithLabelValues(service).Observe(elapsed.Seconds())
}

// RunFinished counts a run that reached a terminal status.
func (c *Collectors) RunFinished(status string) {
	if c == nil {
		return
	}
	c.Runs.WithLabelValues(status).Inc()
}

// AddReferences counts newly discovered references.
func (c *Collectors) AddReferences(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.References.Add(float64(n))
}

// AddTokens counts prompt and completion tokens.
func (c *Collectors) AddTokens(prompt, completion uint32) {
	if c == nil {
		return
	}
	c.Tokens.WithLabelValues("prompt").Add(float64(prompt))
	c.Tokens.WithLabelValues("completion").Add(float64(completion))
}
