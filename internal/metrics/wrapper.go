package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the narrow interfaces used by the ml and
// service packages, so neither has to import Prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) ModelLoadedSet(loaded bool) {
	if loaded {
		w.m.ModelLoaded.Set(1)
		return
	}
	w.m.ModelLoaded.Set(0)
}

func (w *MetricsWrapper) ModelAgeSet(seconds float64) {
	w.m.ModelAge.Set(seconds)
}

func (w *MetricsWrapper) ModelLoadFailuresInc() {
	w.m.ModelLoadFailures.Inc()
}

func (w *MetricsWrapper) InferenceLatencyObserve(seconds float64) {
	w.m.InferenceLatency.Observe(seconds)
}

func (w *MetricsWrapper) PredictionsInc() {
	w.m.PredictionsTotal.Inc()
}

func (w *MetricsWrapper) PredictionFailuresInc(kind string) {
	w.m.PredictionFailures.WithLabelValues(kind).Inc()
}

func (w *MetricsWrapper) PredictedPriceObserve(price float64) {
	w.m.PredictedPrice.Observe(price)
}

func (w *MetricsWrapper) CacheHitInc() {
	w.m.CacheHits.Inc()
}

func (w *MetricsWrapper) CacheMissInc() {
	w.m.CacheMisses.Inc()
}

func (w *MetricsWrapper) JournalErrorsInc() {
	w.m.JournalErrors.Inc()
}

// HTTPRequestObserve records one served request.
func (w *MetricsWrapper) HTTPRequestObserve(method, path string, status int, d time.Duration) {
	w.m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	w.m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
