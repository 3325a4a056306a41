package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"house-price-api/internal/common"

	"github.com/rs/zerolog/log"
)

// ScriptArtifact runs a pickled or ONNX model through a Python inference
// script. Each Predict starts one interpreter; there is no shared mutable
// state, so it is safe for concurrent use.
type ScriptArtifact struct {
	modelPath  string
	pythonPath string
	scriptPath string
	timeout    time.Duration
}

type scriptRequest struct {
	Instances Frame `json:"instances"`
}

type scriptResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
	MissingKey  string    `json:"missing_key,omitempty"`
}

// probeRecord is the row sent once at load time to check the model answers.
var probeRecord = Record{
	common.FeatureAreaSqft:  1500.0,
	common.FeatureBedrooms:  3.0,
	common.FeatureBathrooms: 2.0,
	common.FeatureYearBuilt: 2000.0,
	common.FeatureLocation:  "Suburb",
}

// NewScriptArtifact finds an interpreter, installs the inference script and
// runs a probe prediction. pythonPath may be empty to search for one.
func NewScriptArtifact(ctx context.Context, modelPath, pythonPath string, timeout time.Duration) (*ScriptArtifact, error) {
	python, err := findPython(pythonPath)
	if err != nil {
		return nil, err
	}

	scriptPath, err := installInferenceScript()
	if err != nil {
		return nil, fmt.Errorf("install inference script: %w", err)
	}

	a := &ScriptArtifact{
		modelPath:  modelPath,
		pythonPath: python,
		scriptPath: scriptPath,
		timeout:    timeout,
	}

	if _, err := a.Predict(ctx, Frame{probeRecord}); err != nil {
		var missing *MissingColumnError
		if !errors.As(err, &missing) {
			_ = a.Close()
			return nil, fmt.Errorf("model probe failed: %w", err)
		}
		// The artifact wants columns the probe does not carry; it still loaded.
		log.Warn().Str("missing_key", missing.Key).Msg("model probe skipped a column the artifact requires")
	}

	return a, nil
}

// Predict implements Artifact.
func (a *ScriptArtifact) Predict(ctx context.Context, frame Frame) ([]float64, error) {
	reqJSON, err := json.Marshal(scriptRequest{Instances: frame})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, a.pythonPath, a.scriptPath, a.modelPath)
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("prediction timeout after %v", a.timeout)
	}

	var resp scriptResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		if runErr != nil {
			log.Error().
				Err(runErr).
				Str("python_path", a.pythonPath).
				Str("model_path", a.modelPath).
				Str("stderr", stderr.String()).
				Msg("Python inference execution failed")
			return nil, fmt.Errorf("python inference failed: %w, stderr: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("failed to parse response: %w, stdout: %s", err, stdout.String())
	}

	if resp.MissingKey != "" {
		return nil, &MissingColumnError{Key: resp.MissingKey}
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("python inference error: %s", resp.Error)
	}
	if runErr != nil {
		return nil, fmt.Errorf("python inference failed: %w", runErr)
	}
	if len(resp.Predictions) != len(frame) {
		return nil, fmt.Errorf("expected %d predictions, got %d", len(frame), len(resp.Predictions))
	}

	return resp.Predictions, nil
}

// Close removes the installed inference script.
func (a *ScriptArtifact) Close() error {
	return os.Remove(a.scriptPath)
}

// findPython returns configured when set and runnable, otherwise the first
// Python 3 on PATH (or in VIRTUAL_ENV) that can import joblib and pandas.
func findPython(configured string) (string, error) {
	if configured != "" {
		if err := exec.Command(configured, "-c", "import sys; sys.exit(0 if sys.version_info[0] == 3 else 1)").Run(); err != nil {
			return "", fmt.Errorf("configured python %s is not usable: %w", configured, err)
		}
		return configured, nil
	}

	var candidates []string
	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates = append(candidates,
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		)
	}
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cmd := exec.Command(candidate, "-c", "import sys, joblib, pandas; print('Python', sys.version)")
		if output, err := cmd.Output(); err == nil && strings.Contains(string(output), "Python 3") {
			log.Info().Str("python_path", candidate).Msg("Using Python for model inference")
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no Python 3 with joblib and pandas found")
}

func installInferenceScript() (string, error) {
	f, err := os.CreateTemp("", "house_price_inference_*.py")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.WriteString(inferenceScript); err != nil {
		return "", err
	}
	return f.Name(), nil
}

const inferenceScript = `import json
import sys


def load(path):
    if path.endswith(".onnx"):
        import onnxruntime as ort
        return ort.InferenceSession(path)
    import joblib
    return joblib.load(path)


def predict(model, frame, path):
    if path.endswith(".onnx"):
        import numpy as np
        inputs = {}
        for node in model.get_inputs():
            col = frame[node.name].to_numpy()
            if node.type == "tensor(string)":
                inputs[node.name] = col.astype(str).reshape(-1, 1)
            else:
                inputs[node.name] = col.astype(np.float32).reshape(-1, 1)
        return model.run(None, inputs)[0].reshape(-1)
    return model.predict(frame)


def main():
    path = sys.argv[1]
    try:
        import pandas as pd
        request = json.load(sys.stdin)
        frame = pd.DataFrame(request["instances"])
        model = load(path)
        out = predict(model, frame, path)
        print(json.dumps({"predictions": [float(v) for v in out]}))
    except KeyError as e:
        print(json.dumps({"error": str(e), "missing_key": str(e.args[0]) if e.args else ""}))
        sys.exit(1)
    except Exception as e:
        print(json.dumps({"error": str(e)}))
        sys.exit(1)


if __name__ == "__main__":
    main()
`
