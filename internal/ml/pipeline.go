package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// NumericFeature is a standardised numeric input column.
type NumericFeature struct {
	Name  string  `json:"name" yaml:"name"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Scale float64 `json:"scale" yaml:"scale"`
	Coef  float64 `json:"coef" yaml:"coef"`
}

// CategoricalFeature is a one-hot encoded input column. Coefs[i] applies when
// the value equals Categories[i].
type CategoricalFeature struct {
	Name          string    `json:"name" yaml:"name"`
	Categories    []string  `json:"categories" yaml:"categories"`
	Coefs         []float64 `json:"coefs" yaml:"coefs"`
	HandleUnknown string    `json:"handle_unknown,omitempty" yaml:"handle_unknown,omitempty"`
}

// LinearPipeline is a trained linear regression with its preprocessing:
// numeric columns are standardised, categorical columns one-hot encoded.
type LinearPipeline struct {
	Version     string               `json:"version,omitempty" yaml:"version,omitempty"`
	Target      string               `json:"target,omitempty" yaml:"target,omitempty"`
	Intercept   float64              `json:"intercept" yaml:"intercept"`
	Numeric     []NumericFeature     `json:"numeric" yaml:"numeric"`
	Categorical []CategoricalFeature `json:"categorical" yaml:"categorical"`

	index []map[string]int
}

// LoadPipeline reads a JSON or YAML pipeline file.
func LoadPipeline(path string) (*LinearPipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p LinearPipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("decode pipeline: %w", err)
	}

	if err := p.init(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	return &p, nil
}

// NewLinearPipeline validates a pipeline built in code.
func NewLinearPipeline(p LinearPipeline) (*LinearPipeline, error) {
	if err := p.init(); err != nil {
		return nil, fmt.Errorf("invalid pipeline: %w", err)
	}
	return &p, nil
}

func (p *LinearPipeline) init() error {
	if len(p.Numeric)+len(p.Categorical) == 0 {
		return fmt.Errorf("pipeline has no features")
	}
	if !isFinite(p.Intercept) {
		return fmt.Errorf("intercept is not finite")
	}

	seen := make(map[string]bool)
	for _, f := range p.Numeric {
		if f.Name == "" {
			return fmt.Errorf("numeric feature without name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
		if !isFinite(f.Mean) || !isFinite(f.Scale) || !isFinite(f.Coef) {
			return fmt.Errorf("feature %q has non-finite parameters", f.Name)
		}
	}

	p.index = make([]map[string]int, len(p.Categorical))
	for i, f := range p.Categorical {
		if f.Name == "" {
			return fmt.Errorf("categorical feature without name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
		if len(f.Categories) != len(f.Coefs) {
			return fmt.Errorf("feature %q has %d categories but %d coefficients", f.Name, len(f.Categories), len(f.Coefs))
		}
		switch f.HandleUnknown {
		case "", "ignore", "error":
		default:
			return fmt.Errorf("feature %q: unknown handle_unknown %q", f.Name, f.HandleUnknown)
		}

		idx := make(map[string]int, len(f.Categories))
		for j, c := range f.Categories {
			if _, dup := idx[c]; dup {
				return fmt.Errorf("feature %q has duplicate category %q", f.Name, c)
			}
			if !isFinite(f.Coefs[j]) {
				return fmt.Errorf("feature %q category %q has non-finite coefficient", f.Name, c)
			}
			idx[c] = j
		}
		p.index[i] = idx
	}
	return nil
}

// Features lists the input columns in the order the pipeline reads them.
func (p *LinearPipeline) Features() []string {
	names := make([]string, 0, len(p.Numeric)+len(p.Categorical))
	for _, f := range p.Numeric {
		names = append(names, f.Name)
	}
	for _, f := range p.Categorical {
		names = append(names, f.Name)
	}
	return names
}

// Predict implements Artifact. The pipeline is read-only after init.
func (p *LinearPipeline) Predict(ctx context.Context, frame Frame) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]float64, len(frame))
	for i := range out {
		out[i] = p.Intercept
	}

	for _, f := range p.Numeric {
		col, err := frame.Column(f.Name)
		if err != nil {
			return nil, err
		}
		scale := f.Scale
		if scale == 0 {
			scale = 1
		}
		for i, v := range col {
			x, err := toFloat(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", f.Name, err)
			}
			out[i] += f.Coef * (x - f.Mean) / scale
		}
	}

	for ci, f := range p.Categorical {
		col, err := frame.Column(f.Name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("column %s: expected string category, got %s", f.Name, describe(v))
			}
			j, known := p.index[ci][s]
			if !known {
				if f.HandleUnknown == "error" {
					return nil, fmt.Errorf("found unknown category %q in column %s", s, f.Name)
				}
				continue
			}
			out[i] += f.Coefs[j]
		}
	}

	return out, nil
}

func toFloat(v interface{}) (float64, error) {
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int64:
		x = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("could not convert %q to float", t.String())
		}
		x = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: %q", t)
		}
		x = f
	case nil:
		return 0, fmt.Errorf("input contains NaN")
	default:
		return 0, fmt.Errorf("expected number, got %s", describe(v))
	}

	if !isFinite(x) {
		return 0, fmt.Errorf("input contains NaN or infinity")
	}
	return x, nil
}

func describe(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int64, json.Number:
		return "number"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
