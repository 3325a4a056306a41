package ml

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RemoteArtifact forwards frames to an external inference service that
// accepts POST /predict {"instances": [...]} and answers
// {"predictions": [...]}. resty clients are safe for concurrent use.
type RemoteArtifact struct {
	baseURL string
	rest    *resty.Client
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
	MissingKey  string    `json:"missing_key,omitempty"`
}

// NewRemoteArtifact builds the client and checks GET /health answers 2xx.
func NewRemoteArtifact(ctx context.Context, baseURL string, timeout time.Duration) (*RemoteArtifact, error) {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second)
	}
	r.SetHeader("Content-Type", "application/json")

	a := &RemoteArtifact{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    r,
	}

	resp, err := a.rest.R().SetContext(ctx).Get(a.baseURL + "/health")
	if err != nil {
		return nil, fmt.Errorf("inference service unreachable: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("inference service health check: %s", resp.Status())
	}

	return a, nil
}

// Predict implements Artifact.
func (a *RemoteArtifact) Predict(ctx context.Context, frame Frame) ([]float64, error) {
	result := &remoteResponse{}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetBody(scriptRequest{Instances: frame}).
		SetResult(result).
		SetError(result).
		Post(a.baseURL + "/predict")
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}

	if result.MissingKey != "" {
		return nil, &MissingColumnError{Key: result.MissingKey}
	}
	if resp.IsError() {
		if result.Error != "" {
			return nil, fmt.Errorf("inference service: %s: %s", resp.Status(), result.Error)
		}
		return nil, fmt.Errorf("inference service: %s", resp.Status())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("inference service: %s", result.Error)
	}
	if len(result.Predictions) != len(frame) {
		return nil, fmt.Errorf("expected %d predictions, got %d", len(frame), len(result.Predictions))
	}

	return result.Predictions, nil
}
