package ml

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writePipeline(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "house_price_model.json")
	data, err := json.Marshal(testPipeline())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_ModelNotFound(t *testing.T) {
	metrics := &MockMetrics{}
	model := Load(context.Background(), filepath.Join(t.TempDir(), "house_price_model.json"), LoadOptions{Metrics: metrics})

	if model == nil {
		t.Fatal("Expected a model value even when the file is missing")
	}
	if model.Available() {
		t.Error("Expected model to be unavailable when file is missing")
	}
	if metrics.loadFailures != 1 {
		t.Errorf("Expected 1 load failure, got %d", metrics.loadFailures)
	}
	if metrics.loaded {
		t.Error("Expected loaded gauge to be false")
	}

	status := model.Status()
	if status.Loaded || status.LoadError == "" {
		t.Errorf("Unexpected status %+v", status)
	}

	_, err := model.Predict(context.Background(), Frame{downtownRecord()})
	if !errors.Is(err, ErrModelNotLoaded) {
		t.Errorf("Expected ErrModelNotLoaded, got %v", err)
	}
	if model.Metadata() != nil {
		t.Error("Expected nil metadata for unavailable model")
	}
	if err := model.Close(); err != nil {
		t.Errorf("Close on unavailable model: %v", err)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(path, []byte("weights"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	model := Load(context.Background(), path, LoadOptions{})
	if model.Available() {
		t.Error("Expected unsupported artifact to leave the model unavailable")
	}
}

func TestOpenArtifact_MissingFileBeforeFormat(t *testing.T) {
	dir := t.TempDir()

	_, _, err := openArtifact(context.Background(), filepath.Join(dir, "house_price_model.bin"), LoadOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error for a missing .bin artifact, got %v", err)
	}

	path := filepath.Join(dir, "model.bin")
	if err := os.WriteFile(path, []byte("weights"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err = openArtifact(context.Background(), path, LoadOptions{})
	if err == nil || errors.Is(err, os.ErrNotExist) || !strings.Contains(err.Error(), "unsupported artifact format") {
		t.Errorf("Expected unsupported format error for an existing .bin artifact, got %v", err)
	}
}

func TestLoad_CorruptArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "house_price_model.json")
	if err := os.WriteFile(path, []byte(`{"numeric": "nope"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	metrics := &MockMetrics{}
	model := Load(context.Background(), path, LoadOptions{Metrics: metrics})
	if model.Available() {
		t.Error("Expected corrupt artifact to leave the model unavailable")
	}
	if metrics.loadFailures != 1 {
		t.Errorf("Expected 1 load failure, got %d", metrics.loadFailures)
	}
}

func TestLoad_Pipeline(t *testing.T) {
	metrics := &MockMetrics{}
	path := writePipeline(t, t.TempDir())

	model := Load(context.Background(), path, LoadOptions{Metrics: metrics, Timeout: time.Second})
	if !model.Available() {
		t.Fatalf("Expected model to load, status %+v", model.Status())
	}
	if !metrics.loaded {
		t.Error("Expected loaded gauge to be set")
	}

	out, err := model.Predict(context.Background(), Frame{downtownRecord()})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if out[0] != 533000 {
		t.Errorf("Expected 533000, got %f", out[0])
	}
	if metrics.inferences != 1 {
		t.Errorf("Expected 1 inference observation, got %d", metrics.inferences)
	}

	md := model.Metadata()
	if md == nil || md.Version != "test-1" || md.Target != "Price" {
		t.Errorf("Expected metadata from pipeline, got %+v", md)
	}

	status := model.Status()
	if status.Kind != KindPipeline || status.Version != "test-1" || status.LoadError != "" {
		t.Errorf("Unexpected status %+v", status)
	}
}

func TestLoad_MetadataFile(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir)

	older := `{"version":"v1","features":["Area_sqft"],"r2_score":0.81}`
	newer := `{"version":"v2","trained_at":"2024-03-01T10:00:00Z","features":["Area_sqft","Location"],"r2_score":0.87,"training_rows":1200}`
	if err := os.WriteFile(filepath.Join(dir, "model_metadata_20240101.json"), []byte(older), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "model_metadata_20240301.json"), []byte(newer), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	model := Load(context.Background(), path, LoadOptions{})
	md := model.Metadata()
	if md == nil {
		t.Fatal("Expected metadata")
	}
	if md.Version != "v2" {
		t.Errorf("Expected newest timestamped metadata v2, got %s", md.Version)
	}
	if md.TrainingRows != 1200 || md.R2Score != 0.87 {
		t.Errorf("Unexpected metadata %+v", md)
	}

	primary := `{"version":"current"}`
	if err := os.WriteFile(filepath.Join(dir, "model_metadata.json"), []byte(primary), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	model = Load(context.Background(), path, LoadOptions{})
	if got := model.Metadata().Version; got != "current" {
		t.Errorf("Expected model_metadata.json to win, got %s", got)
	}
}

func TestNewModel_ConcurrentPredict(t *testing.T) {
	artifact := &StaticArtifact{Price: 250000}
	model := NewModel(artifact, KindPipeline, "memory")

	const workers = 16
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			out, err := model.Predict(context.Background(), Frame{downtownRecord()})
			if err == nil && out[0] != 250000 {
				err = errors.New("unexpected prediction")
			}
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent predict: %v", err)
		}
	}
	if artifact.Calls() != workers {
		t.Errorf("Expected %d calls, got %d", workers, artifact.Calls())
	}
}

func TestModel_NilSafety(t *testing.T) {
	var model *Model

	if model.Available() {
		t.Error("Expected nil model to be unavailable")
	}
	if _, err := model.Predict(context.Background(), nil); !errors.Is(err, ErrModelNotLoaded) {
		t.Errorf("Expected ErrModelNotLoaded, got %v", err)
	}
	if s := model.Status(); s.Loaded {
		t.Error("Expected empty status for nil model")
	}
}
