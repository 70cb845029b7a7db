package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the batch orchestrator.
type Metrics struct {
	Registry        *prometheus.Registry
	URLsTotal       *prometheus.CounterVec
	ItemsTotal      prometheus.Counter
	ScrapeDuration  prometheus.Histogram
	DeliveriesTotal *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	urls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_urls_total",
			Help: "URLs processed per batch, labeled by result.",
		},
		[]string{"result"},
	)
	items := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_total",
			Help: "Total product offers extracted.",
		},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_url_duration_seconds",
			Help:    "Per-URL scrape latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	deliveries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_delivery_attempts_total",
			Help: "Downstream delivery attempts, labeled by result.",
		},
		[]string{"result"},
	)

	registry.MustRegister(urls, items, duration, deliveries)

	return &Metrics{
		Registry:        registry,
		URLsTotal:       urls,
		ItemsTotal:      items,
		ScrapeDuration:  duration,
		DeliveriesTotal: deliveries,
	}
}

// ObserveOutcome records the counters for one processed URL.
func (m *Metrics) ObserveOutcome(succeeded bool, itemCount int, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "failed"
	if succeeded {
		result = "succeeded"
	}
	m.URLsTotal.WithLabelValues(result).Inc()
	m.ItemsTotal.Add(float64(itemCount))
	m.ScrapeDuration.Observe(elapsed.Seconds())
}

// ObserveDelivery records one downstream delivery attempt.
func (m *Metrics) ObserveDelivery(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "succeeded"
	}
	m.DeliveriesTotal.WithLabelValues(result).Inc()
}
