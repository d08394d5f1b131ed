package http

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"loan-scheduler/domain"
	"loan-scheduler/export"
	"loan-scheduler/logger"
	"loan-scheduler/service"
)

type LoanHandler struct {
	service *service.LoanService
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{service: service}
}

// CreateLoan handles POST /api/loans.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var input domain.LoanInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, loanDetailResponse{
		Loan:     toLoanResponse(loan),
		Schedule: toScheduleResponse(loan.Schedule),
	})
}

// ListLoans handles GET /api/loans.
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]loanResponse, len(loans))
	for i, loan := range loans {
		resp[i] = toLoanResponse(loan)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// GetLoan handles GET /api/loans/{id}.
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	summary := toSummaryResponse(service.Summarize(loan.Schedule))
	writeJSON(w, r, http.StatusOK, loanDetailResponse{
		Loan:     toLoanResponse(loan),
		Schedule: toScheduleResponse(loan.Schedule),
		Summary:  &summary,
	})
}

// DeleteLoan handles DELETE /api/loans/{id}.
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLoan(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Loan deleted successfully"})
}

// ExportScheduleCSV handles GET /api/loans/{id}/schedule.csv.
func (h *LoanHandler) ExportScheduleCSV(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteScheduleCSV(&buf, loan); err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(loan)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log := logger.WithRequestID(middleware.GetReqID(r.Context()))
		log.Warn().Err(err).Str("loan_id", loan.ID).Msg("error writing csv export")
	}
}

// PreviewSchedule handles POST /api/schedules/preview.
func (h *LoanHandler) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var input domain.LoanInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	schedule, err := h.service.PreviewSchedule(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, scheduleResponse{
		Schedule: toScheduleResponse(schedule),
		Summary:  toSummaryResponse(service.Summarize(schedule)),
	})
}
