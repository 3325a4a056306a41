// Package service implements the prediction use case on top of a loaded
// model: request validation, inference, rounding and the error taxonomy the
// HTTP layer maps onto status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"house-price-api/internal/common"
	"house-price-api/internal/ml"
	"house-price-api/internal/storage"

	"github.com/rs/zerolog"
)

// Prediction is the successful result of Predict.
type Prediction struct {
	PredictedPrice float64 `json:"predicted_price"`
}

// MetricsInterface defines metrics methods needed by the service
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc(kind string)
	PredictedPriceObserve(float64)
	CacheHitInc()
	CacheMissInc()
	JournalErrorsInc()
}

// Journal records served predictions. *storage.Store satisfies it.
type Journal interface {
	Append(e storage.Entry) (storage.Entry, error)
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Cache   *ml.PredictionCache
	Journal Journal
	Metrics MetricsInterface
}

// Service answers prediction requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	model   *ml.Model
	cache   *ml.PredictionCache
	journal Journal
	metrics MetricsInterface
}

func New(model *ml.Model, opts Options) *Service {
	return &Service{
		model:   model,
		cache:   opts.Cache,
		journal: opts.Journal,
		metrics: opts.Metrics,
	}
}

// Model returns the model the service predicts with.
func (s *Service) Model() *ml.Model {
	return s.model
}

// Ready returns nil when the model is loaded. Otherwise it returns the error
// Predict would, counted as a failed prediction.
func (s *Service) Ready(ctx context.Context) error {
	if s.model.Available() {
		return nil
	}
	err := errUnavailable()
	s.fail(ctx, err)
	return err
}

// BodyError reports a request body that could not be read as a failed
// prediction and returns the error to send back.
func (s *Service) BodyError(ctx context.Context, err error) error {
	e := classify(err)
	s.fail(ctx, e)
	return e
}

// Predict validates body as one feature record and returns its rounded price.
// Errors are always *Error.
func (s *Service) Predict(ctx context.Context, body []byte) (Prediction, error) {
	p, cached, rec, err := s.predict(ctx, body)
	if err != nil {
		s.fail(ctx, err)
		return Prediction{}, err
	}

	if s.metrics != nil {
		s.metrics.PredictionsInc()
		s.metrics.PredictedPriceObserve(p.PredictedPrice)
	}
	s.record(ctx, rec, p, cached)
	return p, nil
}

func (s *Service) fail(ctx context.Context, err error) {
	kind := KindOf(err)
	if s.metrics != nil {
		s.metrics.PredictionFailuresInc(kind.String())
	}
	if kind == KindInternal {
		zerolog.Ctx(ctx).Error().Err(errors.Unwrap(err)).Msg("Error during prediction")
	}
}

func errUnavailable() *Error {
	return &Error{Kind: KindServiceUnavailable, Message: common.MsgModelNotLoaded}
}

func (s *Service) predict(ctx context.Context, body []byte) (Prediction, bool, ml.Record, error) {
	if !s.model.Available() {
		return Prediction{}, false, nil, errUnavailable()
	}

	rec, err := ml.DecodeRecord(body)
	if err != nil {
		return Prediction{}, false, nil, classify(fmt.Errorf("invalid JSON payload: %w", err))
	}

	features, missing := ml.ParseRecord(rec)
	if len(missing) > 0 {
		return Prediction{}, false, nil, &Error{
			Kind: KindBadRequest,
			Message: fmt.Sprintf("Missing required features: %s. Please provide all of: %s",
				strings.Join(missing, ", "), strings.Join(common.RequiredFeatures, ", ")),
		}
	}

	key, keyErr := rec.CanonicalKey()
	if keyErr == nil {
		if price, ok := s.cache.Get(key); ok {
			if s.metrics != nil {
				s.metrics.CacheHitInc()
			}
			return Prediction{PredictedPrice: price}, true, rec, nil
		}
		if s.cache != nil && s.metrics != nil {
			s.metrics.CacheMissInc()
		}
	}

	out, err := s.model.Predict(ctx, ml.Frame{rec})
	if err == nil && len(out) == 0 {
		err = fmt.Errorf("model returned no predictions")
	}
	if err == nil && (math.IsNaN(out[0]) || math.IsInf(out[0], 0)) {
		err = fmt.Errorf("model returned non-finite prediction %v", out[0])
	}
	if err != nil {
		return Prediction{}, false, nil, classify(err)
	}

	price := round2(out[0])
	if keyErr == nil {
		s.cache.Add(key, price)
	}
	zerolog.Ctx(ctx).Debug().Interface("features", features).Float64("predicted_price", price).Msg("prediction served")
	return Prediction{PredictedPrice: price}, false, rec, nil
}

func classify(err error) *Error {
	var missing *ml.MissingColumnError
	if errors.As(err, &missing) {
		return &Error{
			Kind:    KindBadRequest,
			Message: fmt.Sprintf("Invalid input data format. Missing key: '%s'. Ensure all features are correctly named.", missing.Key),
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindInternal,
		Message: fmt.Sprintf("An internal server error occurred during prediction: %v", err),
		Err:     err,
	}
}

func (s *Service) record(ctx context.Context, rec ml.Record, p Prediction, cached bool) {
	if s.journal == nil {
		return
	}

	entry := storage.Entry{
		RequestID:      RequestIDFromContext(ctx),
		Features:       rec,
		PredictedPrice: p.PredictedPrice,
		Cached:         cached,
	}
	if md := s.model.Metadata(); md != nil {
		entry.ModelVersion = md.Version
	}

	if _, err := s.journal.Append(entry); err != nil {
		if s.metrics != nil {
			s.metrics.JournalErrorsInc()
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to journal prediction")
	}
}

// round2 rounds to two decimals the way formatting does, on the exact binary
// value: 450000.5055 becomes 450000.51 and 450000.004 becomes 450000.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
