package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ModelMetadata contains information about the loaded model, written by the
// training step next to the artifact.
type ModelMetadata struct {
	Version      string    `json:"version"`
	TrainedAt    time.Time `json:"trained_at"`
	Features     []string  `json:"features"`
	Target       string    `json:"target,omitempty"`
	R2Score      float64   `json:"r2_score,omitempty"`
	MAE          float64   `json:"mae,omitempty"`
	TrainingRows int       `json:"training_rows,omitempty"`
}

func loadModelMetadata(modelPath string) (*ModelMetadata, error) {
	dir := filepath.Dir(modelPath)
	primary := filepath.Join(dir, "model_metadata.json")

	if md, err := decodeMetadata(primary); err == nil {
		return md, nil
	}

	// Fallback: pick the newest metadata file by timestamp suffix
	pattern := filepath.Join(dir, "model_metadata_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no metadata files found in %s", dir)
	}
	sort.Strings(matches)
	return decodeMetadata(matches[len(matches)-1])
}

func decodeMetadata(path string) (*ModelMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var md ModelMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, err
	}
	return &md, nil
}
