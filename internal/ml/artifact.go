// Package ml loads the trained house price artifact and runs inference on it.
// It includes the feature record types, the artifact interface with its
// native pipeline, Python script and remote service implementations, and the
// load-once Model that the prediction service shares across requests.
//
// A Model whose artifact failed to load stays usable: it reports itself as
// unavailable and every Predict call returns ErrModelNotLoaded.
package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Artifact is a trained inference object. Implementations must be safe for
// concurrent use; the loaded artifact is shared by every request.
type Artifact interface {
	// Predict returns one predicted price per row of the frame, in row order.
	Predict(ctx context.Context, frame Frame) ([]float64, error)
}

// Kind identifies how an artifact is stored and executed.
type Kind string

const (
	KindPipeline Kind = "pipeline" // native linear pipeline in JSON or YAML
	KindScript   Kind = "script"   // pickled/ONNX model run through Python
	KindRemote   Kind = "remote"   // external inference service over HTTP
)

// KindForPath picks the artifact kind from its path or URL.
func KindForPath(path string) (Kind, error) {
	if isRemotePath(path) {
		return KindRemote, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return KindPipeline, nil
	case ".pkl", ".joblib", ".onnx":
		return KindScript, nil
	}
	return "", fmt.Errorf("unsupported artifact format %q", filepath.Ext(path))
}

func isRemotePath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
