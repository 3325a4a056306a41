package ml

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrModelNotLoaded is returned by Predict on a model whose artifact failed to load.
var ErrModelNotLoaded = errors.New("model not loaded")

// MetricsInterface defines metrics methods needed by the model
type MetricsInterface interface {
	ModelLoadedSet(bool)
	ModelAgeSet(float64)
	ModelLoadFailuresInc()
	InferenceLatencyObserve(float64)
}

// LoadOptions tunes how Load builds the artifact.
type LoadOptions struct {
	PythonPath string
	Timeout    time.Duration
	Metrics    MetricsInterface
}

// Model is the artifact loaded at startup. It never changes after Load, so
// it can be shared across goroutines without locking.
type Model struct {
	artifact Artifact
	kind     Kind
	path     string
	loadedAt time.Time
	loadErr  error
	metadata *ModelMetadata
	metrics  MetricsInterface
}

// Status summarises the model for health reporting.
type Status struct {
	Loaded    bool      `json:"model_loaded"`
	Kind      Kind      `json:"model_kind,omitempty"`
	Path      string    `json:"model_path"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	LoadError string    `json:"load_error,omitempty"`
	Version   string    `json:"model_version,omitempty"`
}

// Load attempts once to load the artifact at path. It never fails: on any
// error the returned Model is unavailable and the reason is logged.
func Load(ctx context.Context, path string, opts LoadOptions) *Model {
	m := &Model{path: path, metrics: opts.Metrics}

	artifact, kind, err := openArtifact(ctx, path, opts)
	if err != nil {
		m.loadErr = err
		if errors.Is(err, os.ErrNotExist) {
			log.Error().Str("model_path", path).Msg("Model file not found. Run the training step to produce the artifact; predictions are disabled")
		} else {
			log.Error().Err(err).Str("model_path", path).Msg("Error loading model; predictions are disabled")
		}
		if m.metrics != nil {
			m.metrics.ModelLoadFailuresInc()
			m.metrics.ModelLoadedSet(false)
		}
		return m
	}

	m.artifact = artifact
	m.kind = kind
	m.loadedAt = time.Now()

	if kind != KindRemote {
		if md, err := loadModelMetadata(path); err == nil {
			m.metadata = md
		} else {
			log.Debug().Err(err).Msg("no model metadata found")
		}
	}
	if m.metadata == nil {
		m.metadata = defaultMetadata(artifact)
	}

	if m.metrics != nil {
		m.metrics.ModelLoadedSet(true)
		if info, err := os.Stat(path); err == nil {
			m.metrics.ModelAgeSet(time.Since(info.ModTime()).Seconds())
		}
	}

	log.Info().Str("model_path", path).Str("kind", string(kind)).Str("version", m.metadata.Version).Msg("Model loaded successfully")
	return m
}

func openArtifact(ctx context.Context, path string, opts LoadOptions) (Artifact, Kind, error) {
	if !isRemotePath(path) {
		if _, err := os.Stat(path); err != nil {
			return nil, "", err
		}
	}

	kind, err := KindForPath(path)
	if err != nil {
		return nil, "", err
	}

	var artifact Artifact
	switch kind {
	case KindPipeline:
		artifact, err = LoadPipeline(path)
	case KindScript:
		artifact, err = NewScriptArtifact(ctx, path, opts.PythonPath, opts.Timeout)
	case KindRemote:
		artifact, err = NewRemoteArtifact(ctx, path, opts.Timeout)
	}
	if err != nil {
		return nil, kind, fmt.Errorf("load %s artifact: %w", kind, err)
	}
	return artifact, kind, nil
}

func defaultMetadata(a Artifact) *ModelMetadata {
	md := &ModelMetadata{Version: "unknown"}
	if p, ok := a.(*LinearPipeline); ok {
		if p.Version != "" {
			md.Version = p.Version
		}
		md.Features = p.Features()
		md.Target = p.Target
	}
	return md
}

// NewModel wraps an already built artifact as a loaded model.
func NewModel(artifact Artifact, kind Kind, path string) *Model {
	return &Model{
		artifact: artifact,
		kind:     kind,
		path:     path,
		loadedAt: time.Now(),
		metadata: defaultMetadata(artifact),
	}
}

// Available reports whether an artifact is loaded.
func (m *Model) Available() bool {
	return m != nil && m.artifact != nil
}

// Predict runs the artifact on frame.
func (m *Model) Predict(ctx context.Context, frame Frame) ([]float64, error) {
	if !m.Available() {
		return nil, ErrModelNotLoaded
	}

	start := time.Now()
	out, err := m.artifact.Predict(ctx, frame)
	if m.metrics != nil {
		m.metrics.InferenceLatencyObserve(time.Since(start).Seconds())
	}
	return out, err
}

// Metadata returns the model metadata, or nil when unavailable.
func (m *Model) Metadata() *ModelMetadata {
	if !m.Available() {
		return nil
	}
	return m.metadata
}

// Status returns a snapshot for health reporting.
func (m *Model) Status() Status {
	if m == nil {
		return Status{}
	}
	s := Status{
		Loaded:   m.Available(),
		Kind:     m.kind,
		Path:     m.path,
		LoadedAt: m.loadedAt,
	}
	if m.loadErr != nil {
		s.LoadError = m.loadErr.Error()
	}
	if m.metadata != nil {
		s.Version = m.metadata.Version
	}
	return s
}

// Close releases resources held by the artifact, if any.
func (m *Model) Close() error {
	if !m.Available() {
		return nil
	}
	if c, ok := m.artifact.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
