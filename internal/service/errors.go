package service

import (
	"errors"
	"net/http"
)

// Kind classifies a prediction failure.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindServiceUnavailable:
		return "service_unavailable"
	default:
		return "internal"
	}
}

// Error is returned by Service.Predict. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps err to an HTTP status. An unavailable model is reported on
// the 500 class, like any other server-side failure.
func StatusCode(err error) int {
	var se *Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	if se.Kind == KindBadRequest {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
