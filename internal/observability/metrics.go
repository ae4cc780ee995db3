package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the gateway.
type Metrics struct {
	BackendRequests    *prometheus.CounterVec
	Alignments         *prometheus.CounterVec
	AlignmentDuration  prometheus.Histogram
	AlignmentWords     prometheus.Histogram
	AlignmentsInFlight prometheus.Gauge
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BackendRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests forwarded to the TTS backend by path and outcome.",
		}, []string{"path", "outcome"}),
		Alignments: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alignments_total",
			Help:      "Alignment engine invocations by outcome.",
		}, []string{"outcome"}),
		AlignmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alignment_duration_seconds",
			Help:      "Wall time of one alignment inference.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		}),
		AlignmentWords: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alignment_words",
			Help:      "Word count produced per alignment.",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 250, 500},
		}),
		AlignmentsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alignments_in_flight",
			Help:      "Alignment inferences currently running.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
