package swr

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics observes cache behaviour across every Store of the process.
type Metrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	errors    *prometheus.CounterVec
	drops     *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewMetrics registers the cache collectors on reg. Collectors that are
// already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockroom_swr_cache_hits_total",
			Help: "Reads served from the resource cache without a network call.",
		}, []string{"resource"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockroom_swr_cache_miss_total",
			Help: "Reads that required a revalidation.",
		}, []string{"resource"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockroom_swr_fetch_errors_total",
			Help: "Revalidations that failed.",
		}, []string{"resource"}),
		drops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockroom_swr_stale_responses_dropped_total",
			Help: "Responses discarded because a newer one was already applied.",
		}, []string{"resource"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockroom_swr_fetch_duration_seconds",
			Help:    "Duration of backend fetches issued by the resource cache.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
	}

	var err error
	if m.hits, err = registerCounter(reg, m.hits); err != nil {
		return nil, err
	}
	if m.misses, err = registerCounter(reg, m.misses); err != nil {
		return nil, err
	}
	if m.errors, err = registerCounter(reg, m.errors); err != nil {
		return nil, err
	}
	if m.drops, err = registerCounter(reg, m.drops); err != nil {
		return nil, err
	}
	existing, err := register(reg, m.durations)
	if err != nil {
		return nil, err
	}
	hist, ok := existing.(*prometheus.HistogramVec)
	if !ok {
		return nil, fmt.Errorf("swr metrics: unexpected collector type %T", existing)
	}
	m.durations = hist
	return m, nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	existing, err := register(reg, c)
	if err != nil {
		return nil, err
	}
	vec, ok := existing.(*prometheus.CounterVec)
	if !ok {
		return nil, fmt.Errorf("swr metrics: unexpected collector type %T", existing)
	}
	return vec, nil
}

func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) hit(resource string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(resource).Inc()
}

func (m *Metrics) miss(resource string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(resource).Inc()
}

func (m *Metrics) dropped(resource string) {
	if m == nil {
		return
	}
	m.drops.WithLabelValues(resource).Inc()
}

func (m *Metrics) observe(resource string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.durations.WithLabelValues(resource).Observe(d.Seconds())
	if err != nil {
		m.errors.WithLabelValues(resource).Inc()
	}
}
