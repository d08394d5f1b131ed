package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// EMIFrequency is how often an installment falls due.
type EMIFrequency string

const (
	FrequencyMonthly      EMIFrequency = "monthly"
	FrequencyQuarterly    EMIFrequency = "quarterly"
	FrequencySemiAnnually EMIFrequency = "semi-annually"
	FrequencyAnnually     EMIFrequency = "annually"
)

// Frequencies lists the accepted EMI frequencies in display order.
var Frequencies = []EMIFrequency{
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencySemiAnnually,
	FrequencyAnnually,
}

// PeriodMonths returns the length of one payment period in months.
// Unknown values fall back to monthly.
func (f EMIFrequency) PeriodMonths() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnually:
		return 6
	case FrequencyAnnually:
		return 12
	}
	return 1
}

// Valid reports whether f is one of the accepted frequencies.
func (f EMIFrequency) Valid() bool {
	for _, v := range Frequencies {
		if f == v {
			return true
		}
	}
	return false
}

// LoanInput is the raw loan request as supplied by a caller. Every field is
// optional so that missing values can be told apart from zero values.
type LoanInput struct {
	DisbursementDate *string  `json:"disbursement_date"`
	PrincipalAmount  *float64 `json:"principal_amount"`
	Tenure           *float64 `json:"tenure"`
	EMIFrequency     *string  `json:"emi_frequency"`
	InterestRate     *float64 `json:"interest_rate"`
	MoratoriumPeriod *float64 `json:"moratorium_period,omitempty"`
}

// LoanTerms are validated loan parameters.
type LoanTerms struct {
	DisbursementDate time.Time
	PrincipalAmount  float64
	Tenure           int // months
	EMIFrequency     EMIFrequency
	InterestRate     float64 // nominal annual percentage
	MoratoriumPeriod int     // months
}

// ScheduleEntry is one payment period of an amortization schedule.
type ScheduleEntry struct {
	PaymentNumber    int
	PaymentDate      time.Time
	OpeningBalance   decimal.Decimal
	PrincipalPayment decimal.Decimal
	InterestPayment  decimal.Decimal
	TotalPayment     decimal.Decimal
	ClosingBalance   decimal.Decimal
}

// ScheduleSummary aggregates a schedule the way the loan detail view shows it.
type ScheduleSummary struct {
	NumberOfPayments int
	Installment      decimal.Decimal
	TotalPrincipal   decimal.Decimal
	TotalInterest    decimal.Decimal
	TotalPayment     decimal.Decimal
	FirstPaymentDate time.Time
	LastPaymentDate  time.Time
}

// Loan is a stored loan with its generated schedule.
type Loan struct {
	ID        string
	Terms     LoanTerms
	Schedule  []ScheduleEntry
	CreatedAt time.Time
}
