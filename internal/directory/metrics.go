package directory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/oefquery/internal/store"
)

// Metrics holds the directory's Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	registrations   *prometheus.CounterVec
	unregistrations *prometheus.CounterVec
	searches        *prometheus.CounterVec
	searchMatches   *prometheus.HistogramVec
	searchLatency   *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics creates the collectors under namespace and registers them with
// reg. An empty namespace defaults to "oefq".
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "oefq"
	}

	m := &Metrics{
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "registrations_total",
				Help:      "Total number of descriptions registered",
			},
			[]string{"kind"},
		),
		unregistrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "unregistrations_total",
				Help:      "Total number of registrations removed",
			},
			[]string{"kind"},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "searches_total",
				Help:      "Total number of searches answered",
			},
			[]string{"kind", "result"},
		),
		searchMatches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "search_matches",
				Help:      "Number of public keys returned per search",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
			},
			[]string{"kind"},
		),
		searchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "search_duration_seconds",
				Help:      "Time taken to answer a search",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
			},
			[]string{"kind"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "directory",
				Name:      "cache_lookups_total",
				Help:      "Decoded query and description cache lookups",
			},
			[]string{"cache", "result"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.registrations, m.unregistrations, m.searches,
		m.searchMatches, m.searchLatency, m.cacheLookups,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) registered(kind store.Kind) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) unregistered(kind store.Kind, n int64) {
	if m == nil {
		return
	}
	m.unregistrations.WithLabelValues(string(kind)).Add(float64(n))
}

func (m *Metrics) searched(kind store.Kind, matches int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.searches.WithLabelValues(string(kind), result).Inc()
	if err == nil {
		m.searchMatches.WithLabelValues(string(kind)).Observe(float64(matches))
		m.searchLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) cacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(cache, result).Inc()
}
