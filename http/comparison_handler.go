package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"loan-scheduler/logger"
	"loan-scheduler/service"
)

type ComparisonHandler struct {
	service *service.ComparisonService
}

func NewComparisonHandler(service *service.ComparisonService) *ComparisonHandler {
	return &ComparisonHandler{service: service}
}

// CompareTenures handles POST /api/schedules/compare.
func (h *ComparisonHandler) CompareTenures(w http.ResponseWriter, r *http.Request) {
	log := logger.WithRequestID(middleware.GetReqID(r.Context()))

	contentType := r.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		writeError(w, r, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req compareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Debug().Err(err).Msg("error decoding request body")
		writeDecodeError(w, r, err)
		return
	}

	result, err := h.service.CompareTenures(r.Context(), req.LoanInput, req.Tenures)
	if err != nil {
		log.Debug().Err(err).Msg("error comparing tenures")
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, r, http.StatusOK, toComparisonResponse(result))
}
