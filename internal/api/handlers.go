package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"house-price-api/internal/common"
	"house-price-api/internal/ml"
	"house-price-api/internal/service"
)

type healthResponse struct {
	ml.Status
	UptimeSeconds float64 `json:"uptime_seconds"`
}

type predictionsResponse struct {
	Count       int         `json:"count"`
	Predictions interface{} `json:"predictions"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeJSONError(w, http.StatusMethodNotAllowed, common.MsgMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, common.MsgServiceRunning)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSONError(w, http.StatusMethodNotAllowed, common.MsgMethodNotAllowed)
		return
	}

	// The unloaded model wins over anything wrong with the body.
	if err := s.svc.Ready(r.Context()); err != nil {
		writeJSONError(w, service.StatusCode(err), err.Error())
		return
	}

	body := r.Body
	if s.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		err = s.svc.BodyError(r.Context(), err)
		writeJSONError(w, service.StatusCode(err), err.Error())
		return
	}

	ctx := r.Context()
	if s.opts.PredictTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.PredictTimeout)
		defer cancel()
	}

	p, err := s.svc.Predict(ctx, data)
	if err != nil {
		writeJSONError(w, service.StatusCode(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, common.MsgMethodNotAllowed)
		return
	}

	status := s.svc.Model().Status()
	code := http.StatusOK
	if !status.Loaded {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, healthResponse{
		Status:        status,
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, common.MsgMethodNotAllowed)
		return
	}

	md := s.svc.Model().Metadata()
	if md == nil {
		writeJSONError(w, http.StatusServiceUnavailable, common.MsgModelNotLoaded)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, common.MsgMethodNotAllowed)
		return
	}
	if s.opts.Journal == nil {
		writeJSONError(w, http.StatusNotFound, "prediction journal is disabled")
		return
	}

	limit := common.DefaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, common.MaxJournalLimit)
	}

	entries, err := s.opts.Journal.Recent(limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read prediction journal: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, predictionsResponse{Count: len(entries), Predictions: entries})
}
