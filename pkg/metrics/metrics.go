package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "explorer"

// Metrics holds the classification pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	classifications *prometheus.CounterVec
	errors          *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	published       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provenance",
			Name:      "classifications_total",
			Help:      "Addresses classified, by resulting role and lookup path.",
		}, []string{"role", "path"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provenance",
			Name:      "errors_total",
			Help:      "Errors recorded while classifying, by stage and kind.",
		}, []string{"stage", "kind"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provenance",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"stage"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Classification events handed to Redis, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.classifications, m.errors, m.stageDuration, m.published)
	return m
}

// ObserveClassification counts one finished classification.
func (m *Metrics) ObserveClassification(role, path string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(role, path).Inc()
}

// ObserveError counts one recorded pipeline error.
func (m *Metrics) ObserveError(stage, kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage, kind).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObservePublish counts a Redis publish attempt.
func (m *Metrics) ObservePublish(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.published.WithLabelValues(outcome).Inc()
}
