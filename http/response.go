package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"loan-scheduler/logger"
	"loan-scheduler/repository"
	"loan-scheduler/service"
)

// writeJSON encodes into a buffer first so a failed encode can still
// produce a 500 instead of a half-written body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Error().Err(err).Msg("error encoding response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Warn().Err(err).Msg("error writing response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// writeServiceError maps service and repository errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Message)
	case errors.Is(err, repository.ErrLoanNotFound):
		writeError(w, r, http.StatusNotFound, "Loan not found")
	default:
		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// maxRequestBodyBytes caps JSON request bodies.
const maxRequestBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// writeDecodeError answers a body that decodeJSON rejected.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, r, http.StatusBadRequest, "invalid request body")
}
