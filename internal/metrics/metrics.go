// Package metrics provides Prometheus metrics collection for the house price API.
// It defines the model, prediction, cache and HTTP metrics that are exposed via
// the /metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Model metrics
	ModelLoaded       prometheus.Gauge     // 1 when an artifact is loaded, 0 otherwise
	ModelAge          prometheus.Gauge     // Age of the loaded artifact file in seconds
	ModelLoadFailures prometheus.Counter   // Number of failed artifact loads
	InferenceLatency  prometheus.Histogram // Artifact inference latency in seconds

	// Prediction metrics
	PredictionsTotal   prometheus.Counter     // Successful predictions served
	PredictionFailures *prometheus.CounterVec // Failed predictions by error kind
	PredictedPrice     prometheus.Histogram   // Distribution of predicted prices
	CacheHits          prometheus.Counter     // Prediction cache hits
	CacheMisses        prometheus.Counter     // Prediction cache misses
	JournalErrors      prometheus.Counter     // Failed prediction journal writes

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests by method, path and status
	HTTPDuration *prometheus.HistogramVec // Request duration by method and path
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether the inference artifact is loaded (1) or unavailable (0)",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded inference artifact in seconds",
		}),
		ModelLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_load_failures_total",
			Help: "Total number of failed inference artifact loads",
		}),
		InferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Inference artifact latency in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0},
		}),
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of successful price predictions",
		}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed price predictions by error kind",
		}, []string{"kind"}),
		PredictedPrice: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predicted_price",
			Help:    "Distribution of predicted house prices",
			Buckets: prometheus.ExponentialBuckets(50_000, 2, 10),
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_cache_hits_total",
			Help: "Total number of prediction cache hits",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_cache_misses_total",
			Help: "Total number of prediction cache misses",
		}),
		JournalErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_journal_errors_total",
			Help: "Total number of failed prediction journal writes",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
