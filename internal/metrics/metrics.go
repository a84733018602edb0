// Package metrics exposes the CRM's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics owns a registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Followups holds the size of each follow-up bucket from the latest
	// classification.
	Followups *prometheus.GaugeVec

	// TrackingSync counts booklet carrier syncs by outcome.
	TrackingSync *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Followups: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "wrapcrm",
				Name:      "followups",
				Help:      "Leads in each follow-up bucket at the last classification",
			},
			[]string{"bucket"},
		),
		TrackingSync: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wrapcrm",
				Name:      "tracking_sync_total",
				Help:      "Total number of booklet tracking syncs by outcome",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(
		m.Followups,
		m.TrackingSync,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveFollowups records the bucket sizes of one classification.
func (m *Metrics) ObserveFollowups(counts map[string]int) {
	for bucket, n := range counts {
		m.Followups.WithLabelValues(bucket).Set(float64(n))
	}
}

// ObserveTrackingSync counts one booklet sync.
func (m *Metrics) ObserveTrackingSync(outcome string) {
	m.TrackingSync.WithLabelValues(outcome).Inc()
}
