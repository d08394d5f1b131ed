package http

import (
	"time"

	"loan-scheduler/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loanResponse struct {
	ID               string    `json:"id"`
	DisbursementDate string    `json:"disbursement_date"`
	PrincipalAmount  float64   `json:"principal_amount"`
	Tenure           int       `json:"tenure"`
	EMIFrequency     string    `json:"emi_frequency"`
	InterestRate     float64   `json:"interest_rate"`
	MoratoriumPeriod int       `json:"moratorium_period"`
	CreatedAt        time.Time `json:"created_at"`
}

type scheduleEntryResponse struct {
	PaymentNumber    int     `json:"payment_number"`
	PaymentDate      string  `json:"payment_date"`
	OpeningBalance   float64 `json:"opening_balance"`
	PrincipalPayment float64 `json:"principal_payment"`
	InterestPayment  float64 `json:"interest_payment"`
	TotalPayment     float64 `json:"total_payment"`
	ClosingBalance   float64 `json:"closing_balance"`
}

type summaryResponse struct {
	NumberOfPayments int     `json:"number_of_payments"`
	Installment      float64 `json:"installment"`
	TotalPrincipal   float64 `json:"total_principal"`
	TotalInterest    float64 `json:"total_interest"`
	TotalPayment     float64 `json:"total_payment"`
	FirstPaymentDate string  `json:"first_payment_date,omitempty"`
	LastPaymentDate  string  `json:"last_payment_date,omitempty"`
}

type loanDetailResponse struct {
	Loan     loanResponse            `json:"loan"`
	Schedule []scheduleEntryResponse `json:"schedule"`
	Summary  *summaryResponse        `json:"summary,omitempty"`
}

type scheduleResponse struct {
	Schedule []scheduleEntryResponse `json:"schedule"`
	Summary  summaryResponse         `json:"summary"`
}

type compareRequest struct {
	domain.LoanInput
	Tenures []int `json:"tenures"`
}

type tenureOptionResponse struct {
	Tenure      int             `json:"tenure"`
	Recommended bool            `json:"recommended"`
	Summary     summaryResponse `json:"summary"`
}

type comparisonResponse struct {
	RecommendedTenure int                    `json:"recommended_tenure"`
	Options           []tenureOptionResponse `json:"options"`
}

func toLoanResponse(loan domain.Loan) loanResponse {
	t := loan.Terms
	return loanResponse{
		ID:               loan.ID,
		DisbursementDate: t.DisbursementDate.Format(domain.DateLayout),
		PrincipalAmount:  t.PrincipalAmount,
		Tenure:           t.Tenure,
		EMIFrequency:     string(t.EMIFrequency),
		InterestRate:     t.InterestRate,
		MoratoriumPeriod: t.MoratoriumPeriod,
		CreatedAt:        loan.CreatedAt,
	}
}

func toScheduleResponse(schedule []domain.ScheduleEntry) []scheduleEntryResponse {
	out := make([]scheduleEntryResponse, len(schedule))
	for i, e := range schedule {
		out[i] = scheduleEntryResponse{
			PaymentNumber:    e.PaymentNumber,
			PaymentDate:      e.PaymentDate.Format(domain.DateLayout),
			OpeningBalance:   e.OpeningBalance.InexactFloat64(),
			PrincipalPayment: e.PrincipalPayment.InexactFloat64(),
			InterestPayment:  e.InterestPayment.InexactFloat64(),
			TotalPayment:     e.TotalPayment.InexactFloat64(),
			ClosingBalance:   e.ClosingBalance.InexactFloat64(),
		}
	}
	return out
}

func toSummaryResponse(s domain.ScheduleSummary) summaryResponse {
	resp := summaryResponse{
		NumberOfPayments: s.NumberOfPayments,
		Installment:      s.Installment.InexactFloat64(),
		TotalPrincipal:   s.TotalPrincipal.InexactFloat64(),
		TotalInterest:    s.TotalInterest.InexactFloat64(),
		TotalPayment:     s.TotalPayment.InexactFloat64(),
	}
	if !s.FirstPaymentDate.IsZero() {
		resp.FirstPaymentDate = s.FirstPaymentDate.Format(domain.DateLayout)
		resp.LastPaymentDate = s.LastPaymentDate.Format(domain.DateLayout)
	}
	return resp
}

func toComparisonResponse(c domain.TenureComparison) comparisonResponse {
	resp := comparisonResponse{
		RecommendedTenure: c.RecommendedTenure,
		Options:           make([]tenureOptionResponse, len(c.Options)),
	}
	for i, o := range c.Options {
		resp.Options[i] = tenureOptionResponse{
			Tenure:      o.Tenure,
			Recommended: o.Recommended,
			Summary:     toSummaryResponse(o.Summary),
		}
	}
	return resp
}
