// Package observability exposes Prometheus metrics for the cabinet server.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the server's collectors around a private registry, so
// tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	UploadsTotal    *prometheus.CounterVec
	UploadBytes     prometheus.Histogram
	DeletesTotal    prometheus.Counter
	AuthFailures    prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		UploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_uploads_total",
			Help: "Completed upserts by resulting action.",
		}, []string{"action"}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cabinet_upload_bytes",
			Help:    "Decoded size of uploaded files.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		}),
		DeletesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "cabinet_deletes_total",
			Help: "Completed file deletions.",
		}),
		AuthFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "cabinet_auth_failures_total",
			Help: "Requests rejected by signature verification.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cabinet_request_duration_seconds",
			Help:    "Wall time of handled requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// ObserveRequest records one handled request.
func (m *Metrics) ObserveRequest(method, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, status).Observe(elapsed.Seconds())
}

// Handler serves the scrape endpoint for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
