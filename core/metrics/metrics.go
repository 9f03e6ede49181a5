package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the availability core.
type Metrics struct {
	sourceFetches      *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
	requests           *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	slotsFound         prometheus.Histogram
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNew registers the collectors on reg and panics on duplicate registration.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		sourceFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scheduler",
				Subsystem: "availability",
				Name:      "source_fetch_total",
				Help:      "Calendar source fetches by source kind and outcome.",
			},
			[]string{"source", "outcome"},
		),
		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scheduler",
				Subsystem: "availability",
				Name:      "resolution_duration_seconds",
				Help:      "Time spent resolving one participant's availability.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scheduler",
				Subsystem: "suggestion",
				Name:      "requests_total",
				Help:      "Suggestion and team availability requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scheduler",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status class.",
			},
			[]string{"route", "outcome"},
		),
		slotsFound: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "scheduler",
				Subsystem: "suggestion",
				Name:      "available_slots",
				Help:      "Pre-cap number of available slots per suggestion request.",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),
	}
	reg.MustRegister(m.sourceFetches, m.resolutionDuration, m.requests, m.httpRequests, m.slotsFound)
	return m
}

// ObserveSourceFetch counts one calendar source call. Nil receivers are ignored.
func (m *Metrics) ObserveSourceFetch(source, outcome string) {
	if m == nil {
		return
	}
	m.sourceFetches.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) ObserveResolution(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolutionDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *Metrics) ObserveRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(route, outcome string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, outcome).Inc()
}

func (m *Metrics) ObserveSlotsFound(n int) {
	if m == nil {
		return
	}
	m.slotsFound.Observe(float64(n))
}
