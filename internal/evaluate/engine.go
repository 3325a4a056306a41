// Package evaluate scores a loaded model against labelled houses. It reads
// samples from CSV, JSON or the prediction journal, runs them through the
// model in batches and reports error statistics overall and per location.
package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"house-price-api/internal/ml"

	"github.com/rs/zerolog/log"
)

// Engine runs an evaluation.
type Engine struct {
	model     *ml.Model
	data      *DataLoader
	batchSize int
	results   *Results
}

// Result is the outcome for one sample.
type Result struct {
	Index     int     `json:"index"`
	Location  string  `json:"location,omitempty"`
	Actual    float64 `json:"actual"`
	Predicted float64 `json:"predicted"`
	Error     float64 `json:"error"`
	Failure   string  `json:"failure,omitempty"`
}

// Results contains evaluation statistics
type Results struct {
	ModelPath    string        `json:"model_path"`
	ModelVersion string        `json:"model_version"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"`
	Samples      int           `json:"samples"`
	Scored       int           `json:"scored"`
	Failures     int           `json:"failures"`
	MAE          float64       `json:"mae"`
	RMSE         float64       `json:"rmse"`
	MAPE         float64       `json:"mape"`
	R2           float64       `json:"r2"`
	MaxAbsError  float64       `json:"max_abs_error"`
	Results      []Result      `json:"results"`
}

// NewEngine creates an evaluation engine. batchSize rows are sent to the
// model per call.
func NewEngine(model *ml.Model, data *DataLoader, batchSize int) *Engine {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Engine{
		model:     model,
		data:      data,
		batchSize: batchSize,
	}
}

// Run scores every sample. It fails only when the model is unavailable or ctx
// ends; per-row failures are counted in the results.
func (e *Engine) Run(ctx context.Context) error {
	if !e.model.Available() {
		return ml.ErrModelNotLoaded
	}

	status := e.model.Status()
	e.results = &Results{
		ModelPath:    status.Path,
		ModelVersion: status.Version,
		StartTime:    time.Now(),
		Samples:      e.data.GetDataCount(),
	}

	e.data.Reset()
	index := 0
	lastProgress := 0.0
	for e.data.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch := e.data.NextBatch(e.batchSize)
		e.scoreBatch(ctx, index, batch)
		index += len(batch)

		if p := e.data.GetProgress(); p-lastProgress >= 10 {
			log.Debug().Float64("progress", p).Msg("evaluation progress")
			lastProgress = p
		}
	}

	e.calculateMetrics()
	e.results.Duration = time.Since(e.results.StartTime)

	log.Info().
		Int("samples", e.results.Samples).
		Int("failures", e.results.Failures).
		Float64("mae", e.results.MAE).
		Float64("r2", e.results.R2).
		Msg("Evaluation completed")
	return nil
}

func (e *Engine) scoreBatch(ctx context.Context, offset int, batch []Sample) {
	frame := make(ml.Frame, len(batch))
	for i, s := range batch {
		frame[i] = s.Record
	}

	out, err := e.model.Predict(ctx, frame)
	if err == nil && len(out) == len(batch) {
		for i, s := range batch {
			e.addResult(offset+i, s, out[i], nil)
		}
		return
	}

	// Fall back to row by row.
	for i, s := range batch {
		out, err := e.model.Predict(ctx, ml.Frame{s.Record})
		if err == nil && len(out) != 1 {
			err = fmt.Errorf("expected 1 prediction, got %d", len(out))
		}
		if err != nil {
			e.addResult(offset+i, s, 0, err)
			continue
		}
		e.addResult(offset+i, s, out[0], nil)
	}
}

func (e *Engine) addResult(index int, s Sample, predicted float64, err error) {
	r := Result{Index: index, Actual: s.Actual}
	if loc := s.Record.Features().Location; loc != nil {
		r.Location = *loc
	}

	if err == nil && (math.IsNaN(predicted) || math.IsInf(predicted, 0)) {
		err = errors.New("non-finite prediction")
	}
	if err != nil {
		r.Failure = err.Error()
		e.results.Failures++
		e.results.Results = append(e.results.Results, r)
		return
	}

	r.Predicted = predicted
	r.Error = predicted - s.Actual
	e.results.Results = append(e.results.Results, r)
}

func (e *Engine) calculateMetrics() {
	var sumAbs, sumSq, sumPct, sumActual float64
	var n, pctN int

	for _, r := range e.results.Results {
		if r.Failure != "" {
			continue
		}
		n++
		abs := math.Abs(r.Error)
		sumAbs += abs
		sumSq += r.Error * r.Error
		sumActual += r.Actual
		if abs > e.results.MaxAbsError {
			e.results.MaxAbsError = abs
		}
		if r.Actual != 0 {
			sumPct += abs / math.Abs(r.Actual)
			pctN++
		}
	}

	e.results.Scored = n
	if n == 0 {
		return
	}

	e.results.MAE = sumAbs / float64(n)
	e.results.RMSE = math.Sqrt(sumSq / float64(n))
	if pctN > 0 {
		e.results.MAPE = sumPct / float64(pctN) * 100
	}

	mean := sumActual / float64(n)
	var ssTot float64
	for _, r := range e.results.Results {
		if r.Failure != "" {
			continue
		}
		d := r.Actual - mean
		ssTot += d * d
	}
	if ssTot > 0 {
		e.results.R2 = 1 - sumSq/ssTot
	}
}

// GetResults returns the evaluation results
func (e *Engine) GetResults() *Results {
	return e.results
}
