package events

import (
	"encoding/json"
	"time"

	"loan-scheduler/domain"
)

// LoanCreatedMessage announces a newly stored loan. Consumers fetch the full
// schedule through the API when they need it.
type LoanCreatedMessage struct {
	LoanID           string    `json:"loan_id"`
	PrincipalAmount  float64   `json:"principal_amount"`
	Tenure           int       `json:"tenure"`
	EMIFrequency     string    `json:"emi_frequency"`
	InterestRate     float64   `json:"interest_rate"`
	Payments         int       `json:"payments"`
	DisbursementDate string    `json:"disbursement_date"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewLoanCreatedMessage(loan domain.Loan) *LoanCreatedMessage {
	return &LoanCreatedMessage{
		LoanID:           loan.ID,
		PrincipalAmount:  loan.Terms.PrincipalAmount,
		Tenure:           loan.Terms.Tenure,
		EMIFrequency:     string(loan.Terms.EMIFrequency),
		InterestRate:     loan.Terms.InterestRate,
		Payments:         len(loan.Schedule),
		DisbursementDate: loan.Terms.DisbursementDate.Format(domain.DateLayout),
		CreatedAt:        loan.CreatedAt,
	}
}

func (m *LoanCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LoanCreatedMessageFromJSON(data []byte) (*LoanCreatedMessage, error) {
	var msg LoanCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
