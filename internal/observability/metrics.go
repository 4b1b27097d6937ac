package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters exposed on /metrics.
type Metrics struct {
	uploads     *prometheus.CounterVec
	bytesStored prometheus.Counter
	deletes     prometheus.Counter
	handler     http.Handler
}

// InitMetrics registers the counters on a fresh registry so repeated
// construction in tests never collides.
func InitMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidstore_uploads_total",
			Help: "Upload attempts by outcome.",
		}, []string{"outcome"}),
		bytesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidstore_uploaded_bytes_total",
			Help: "Total bytes accepted into the blob store.",
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidstore_deletes_total",
			Help: "Successful file deletions.",
		}),
	}

	reg.MustRegister(m.uploads, m.bytesStored, m.deletes)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return m
}

// RecordUpload counts one finished upload attempt.
func (m *Metrics) RecordUpload(outcome string, size int64) {
	m.uploads.WithLabelValues(outcome).Inc()
	if size > 0 {
		m.bytesStored.Add(float64(size))
	}
}

// RecordDelete counts one successful deletion.
func (m *Metrics) RecordDelete() {
	m.deletes.Inc()
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}
