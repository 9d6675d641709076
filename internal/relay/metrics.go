package relay

import (
	m "github.com/ZahirOuma/Excellia-FrontEnd/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	Requests        *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	Failures        *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "relay"

	return metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Number of relayed requests by method and response status.",
		}, []string{"method", "code"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "upstream_latency_seconds",
			Help:      "Time until the upstream response headers arrived.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Number of failed exchanges by kind.",
		}, []string{"kind"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_total",
			Help:      "Number of requests rejected by the rate limiter.",
		}),
	}
}

// Metrics returns the relay's collectors for registration.
func (rl *Relay) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(rl.metrics)
}
