package ml

import (
	"context"
	"sync"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	loaded       bool
	modelAge     float64
	loadFailures int
	inferences   int
}

func (m *MockMetrics) ModelLoadedSet(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = v
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) ModelLoadFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadFailures++
}

func (m *MockMetrics) InferenceLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inferences++
}

// StaticArtifact returns fixed predictions, or Err when set. Tests in other
// packages use it as a stand-in for a trained model.
type StaticArtifact struct {
	Price float64
	Err   error

	mu    sync.Mutex
	calls int
}

func (a *StaticArtifact) Predict(_ context.Context, frame Frame) ([]float64, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}
	out := make([]float64, len(frame))
	for i := range out {
		out[i] = a.Price
	}
	return out, nil
}

// Calls returns how many times Predict ran.
func (a *StaticArtifact) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
