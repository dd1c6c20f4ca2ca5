package ruleserver

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the rule service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TemplatesServed *prometheus.CounterVec
}

// NewMetrics creates and registers the rule service metrics.
//
// Registration happens once per process; later calls return the same set.
//
// Metrics:
//   - remindr_rules_requests_total{endpoint,channel,code}
//   - remindr_rules_request_duration_seconds{endpoint}
//   - remindr_rules_templates_served_total{channel,status}
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "remindr_rules_requests_total",
					Help: "Total number of rule service requests",
				},
				[]string{"endpoint", "channel", "code"},
			),
			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "remindr_rules_request_duration_seconds",
					Help:    "Duration of rule service requests in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint"},
			),
			TemplatesServed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "remindr_rules_templates_served_total",
					Help: "Total number of templates returned, by validation status",
				},
				[]string{"channel", "status"},
			),
		}
	})
	return globalMetrics
}
