// Package metrics holds the Prometheus helpers shared by components that
// expose collectors.
package metrics

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace prefixes every metric the module exports.
const Namespace = "excellia"

// Version is reported by the info gauge. Overridden at build time.
var Version = "dev"

// PrometheusCollectorsFromFields returns every exported field of the struct
// i that implements prometheus.Collector.
func PrometheusCollectorsFromFields(i interface{}) (cs []prometheus.Collector) {
	v := reflect.Indirect(reflect.ValueOf(i))
	if v.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < v.NumField(); i++ {
		if !v.Field(i).CanInterface() {
			continue
		}
		if c, ok := v.Field(i).Interface().(prometheus.Collector); ok && c != nil {
			cs = append(cs, c)
		}
	}
	return cs
}

// NewRegistry returns a registry with the process, Go runtime and info
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			Namespace: Namespace,
		}),
		collectors.NewGoCollector(),
		prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "info",
			Help:      "Build information.",
			ConstLabels: prometheus.Labels{
				"version": Version,
			},
		}),
	)
	return r
}
