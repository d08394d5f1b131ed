package http

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-scheduler/repository"
	"loan-scheduler/service"
)

const validLoanBody = `{
	"disbursement_date": "2024-01-01",
	"principal_amount": 120000,
	"tenure": 12,
	"emi_frequency": "monthly",
	"interest_rate": 12
}`

func newTestRouter(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()

	repo := repository.NewLoanRepositoryMemory()
	loans := service.NewLoanService(repo, repository.NewMemoryCache(), nil)
	comparisons := service.NewComparisonService(loans)

	return NewRouter(
		NewLoanHandler(loans),
		NewComparisonHandler(comparisons),
		limiter,
		[]string{"http://localhost:3000"},
	)
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createLoan(t *testing.T, router http.Handler) loanDetailResponse {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/api/loans", validLoanBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp loanDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreateLoanHandler_OK(t *testing.T) {

	router := newTestRouter(t, nil)

	resp := createLoan(t, router)

	assert.NotEmpty(t, resp.Loan.ID)
	assert.Equal(t, "2024-01-01", resp.Loan.DisbursementDate)
	assert.Equal(t, 120000.0, resp.Loan.PrincipalAmount)
	assert.Equal(t, "monthly", resp.Loan.EMIFrequency)
	require.Len(t, resp.Schedule, 12)
	assert.Equal(t, 1, resp.Schedule[0].PaymentNumber)
	assert.Equal(t, "2024-01-01", resp.Schedule[0].PaymentDate)
	assert.Equal(t, 1200.0, resp.Schedule[0].InterestPayment)
	assert.Equal(t, 10661.85, resp.Schedule[0].TotalPayment)
	assert.Equal(t, 0.0, resp.Schedule[11].ClosingBalance)
	assert.Nil(t, resp.Summary)
}

func TestCreateLoanHandler_ValidationError(t *testing.T) {

	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing date",
			body: `{"principal_amount": 1000, "tenure": 12, "emi_frequency": "monthly", "interest_rate": 5}`,
			want: "Disbursement date is required",
		},
		{
			name: "bad frequency",
			body: `{"disbursement_date": "2024-01-01", "principal_amount": 1000, "tenure": 12, "emi_frequency": "weekly", "interest_rate": 5}`,
			want: "EMI frequency must be one of: monthly, quarterly, semi-annually, annually",
		},
		{
			name: "moratorium too long",
			body: `{"disbursement_date": "2024-01-01", "principal_amount": 1000, "tenure": 12, "emi_frequency": "monthly", "interest_rate": 5, "moratorium_period": 12}`,
			want: "Moratorium period must be less than the loan tenure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/loans", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decodeError(t, w))
		})
	}
}

func TestCreateLoanHandler_BadRequest(t *testing.T) {

	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/loans", `{invalid-json}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decodeError(t, w))
}

func TestLoansHandler_MethodNotAllowed(t *testing.T) {

	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPut, "/api/loans/abc", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestListLoansHandler(t *testing.T) {

	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	created := createLoan(t, router)

	w = doRequest(router, http.MethodGet, "/api/loans", "")
	require.Equal(t, http.StatusOK, w.Code)
	var loans []loanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loans))
	require.Len(t, loans, 1)
	assert.Equal(t, created.Loan.ID, loans[0].ID)
}

func TestGetLoanHandler(t *testing.T) {

	router := newTestRouter(t, nil)
	created := createLoan(t, router)

	w := doRequest(router, http.MethodGet, "/api/loans/"+created.Loan.ID, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp loanDetailResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, created.Loan.ID, resp.Loan.ID)
	assert.Len(t, resp.Schedule, 12)
	require.NotNil(t, resp.Summary)
	assert.Equal(t, 12, resp.Summary.NumberOfPayments)
	assert.Equal(t, 10661.85, resp.Summary.Installment)
	assert.Equal(t, 7942.26, resp.Summary.TotalInterest)
	assert.Equal(t, "2024-12-01", resp.Summary.LastPaymentDate)
}

func TestGetLoanHandler_NotFound(t *testing.T) {

	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/loans/does-not-exist", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Loan not found", decodeError(t, w))
}

func TestDeleteLoanHandler(t *testing.T) {

	router := newTestRouter(t, nil)
	created := createLoan(t, router)

	w := doRequest(router, http.MethodDelete, "/api/loans/"+created.Loan.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message": "Loan deleted successfully"}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/loans/"+created.Loan.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/loans/"+created.Loan.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportScheduleCSVHandler(t *testing.T) {

	router := newTestRouter(t, nil)
	created := createLoan(t, router)

	w := doRequest(router, http.MethodGet, "/api/loans/"+created.Loan.ID+"/schedule.csv", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t,
		`attachment; filename="loan_schedule_`+created.Loan.ID+`.csv"`,
		w.Header().Get("Content-Disposition"))

	r := csv.NewReader(bytes.NewReader(w.Body.Bytes()))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Loan Details:"}, records[0])
	assert.Equal(t, []string{"Loan ID", created.Loan.ID}, records[1])

	last := records[len(records)-1]
	assert.Equal(t, []string{"12", "2024-12-01", "10556.29", "10556.29", "105.56", "10661.85", "0.00"}, last)
}

func TestExportScheduleCSVHandler_NotFound(t *testing.T) {

	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/loans/missing/schedule.csv", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewScheduleHandler(t *testing.T) {

	router := newTestRouter(t, nil)
	body := `{
		"disbursement_date": "2024-01-01",
		"principal_amount": 120000,
		"tenure": 12,
		"emi_frequency": "monthly",
		"interest_rate": 12,
		"moratorium_period": 3
	}`

	w := doRequest(router, http.MethodPost, "/api/schedules/preview", body)

	require.Equal(t, http.StatusOK, w.Code)
	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Schedule, 12)
	for _, e := range resp.Schedule[:3] {
		assert.Equal(t, 0.0, e.PrincipalPayment)
		assert.Equal(t, 1200.0, e.InterestPayment)
	}
	assert.Equal(t, "2024-02-01", resp.Summary.FirstPaymentDate)

	w = doRequest(router, http.MethodGet, "/api/loans", "")
	assert.JSONEq(t, `[]`, w.Body.String(), "preview must not store a loan")
}

func TestPreviewScheduleHandler_NumericBounds(t *testing.T) {

	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "tenure beyond int range",
			body: `{"disbursement_date": "2024-01-01", "principal_amount": 1000, "tenure": 1e19, "emi_frequency": "monthly", "interest_rate": 5}`,
			want: "Tenure must not exceed 600 months",
		},
		{
			name: "tenure too long to allocate",
			body: `{"disbursement_date": "2024-01-01", "principal_amount": 1000, "tenure": 1000000000, "emi_frequency": "monthly", "interest_rate": 5}`,
			want: "Tenure must not exceed 600 months",
		},
		{
			name: "principal too large",
			body: `{"disbursement_date": "2024-01-01", "principal_amount": 1e300, "tenure": 12, "emi_frequency": "monthly", "interest_rate": 5}`,
			want: "Principal amount must not exceed 1000000000000",
		},
		{
			name: "rate too large",
			body: `{"disbursement_date": "2024-01-01", "principal_amount": 1000, "tenure": 12, "emi_frequency": "monthly", "interest_rate": 1e300}`,
			want: "Interest rate must not exceed 1000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/schedules/preview", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decodeError(t, w))
		})
	}
}

func TestPreviewScheduleHandler_ExtremeRate(t *testing.T) {

	router := newTestRouter(t, nil)
	body := `{
		"disbursement_date": "2024-01-01",
		"principal_amount": 120000,
		"tenure": 360,
		"emi_frequency": "monthly",
		"interest_rate": 1000000
	}`

	w := doRequest(router, http.MethodPost, "/api/schedules/preview", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp scheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Schedule, 360)
	assert.Equal(t, 120000.0, resp.Schedule[359].PrincipalPayment)
	assert.Equal(t, 0.0, resp.Schedule[359].ClosingBalance)
}

func TestCreateLoanHandler_BodyTooLarge(t *testing.T) {

	router := newTestRouter(t, nil)
	body := `{"disbursement_date": "` + strings.Repeat("9", maxRequestBodyBytes) + `"}`

	w := doRequest(router, http.MethodPost, "/api/loans", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "request body too large", decodeError(t, w))

	w = doRequest(router, http.MethodGet, "/api/loans", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestExportScheduleCSVHandler_WriteErrorIsLogged(t *testing.T) {

	var logs bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&logs)
	t.Cleanup(func() { log.Logger = saved })

	router := newTestRouter(t, nil)
	loan := createLoan(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/loans/"+loan.Loan.ID+"/schedule.csv", nil)
	w := failingWriter{httptest.NewRecorder()}
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "error writing csv export")
	assert.Contains(t, logs.String(), loan.Loan.ID)
}

func TestCompareTenuresHandler(t *testing.T) {

	router := newTestRouter(t, nil)
	body := `{
		"disbursement_date": "2024-01-01",
		"principal_amount": 120000,
		"emi_frequency": "monthly",
		"interest_rate": 12,
		"tenures": [36, 12, 24]
	}`

	w := doRequest(router, http.MethodPost, "/api/schedules/compare", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp comparisonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.RecommendedTenure)
	require.Len(t, resp.Options, 3)
	assert.True(t, resp.Options[0].Recommended)
	assert.Equal(t, 7942.26, resp.Options[0].Summary.TotalInterest)
}

func TestCompareTenuresHandler_Errors(t *testing.T) {

	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/schedules/compare", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = doRequest(router, http.MethodPost, "/api/schedules/compare", `{"tenures": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no tenures to compare", decodeError(t, w))

	w = doRequest(router, http.MethodPost, "/api/schedules/compare", `{"tenures": "12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decodeError(t, w))
}

func TestRateLimitMiddleware(t *testing.T) {

	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	router := newTestRouter(t, limiter)

	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodPost, "/api/loans", validLoanBody)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(router, http.MethodPost, "/api/loans", validLoanBody)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate limit exceeded", decodeError(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Reads are not limited.
	w = doRequest(router, http.MethodGet, "/api/loans", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthz(t *testing.T) {

	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestCORS(t *testing.T) {

	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/loans", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/loans", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
