package service

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"loan-scheduler/domain"
)

// GenerateSchedule builds the amortization schedule for validated terms.
//
// The level installment is the annuity payment over every period of the
// tenure, moratorium included. Interest-only periods come first; the
// amortizing periods then start from the disbursement date shifted by the
// moratorium length in months. The last amortizing period absorbs whatever
// balance is left, so the schedule always closes at zero.
func GenerateSchedule(terms domain.LoanTerms) []domain.ScheduleEntry {
	periodMonths := terms.EMIFrequency.PeriodMonths()
	monthlyRate := terms.InterestRate / 100 / 12
	periodicRate := monthlyRate * float64(periodMonths)
	totalPeriods := ceilDiv(terms.Tenure, periodMonths)
	emi := installment(terms.PrincipalAmount, periodicRate, totalPeriods)

	schedule := make([]domain.ScheduleEntry, 0, totalPeriods)
	balance := terms.PrincipalAmount
	start := terms.DisbursementDate

	if terms.MoratoriumPeriod > 0 {
		// At least one amortizing period must remain to repay the principal.
		periods := min(ceilDiv(terms.MoratoriumPeriod, periodMonths), totalPeriods-1)
		for i := 0; i < periods; i++ {
			interest := balance * periodicRate
			schedule = append(schedule, domain.ScheduleEntry{
				PaymentNumber:    i + 1,
				PaymentDate:      AddMonths(start, periodMonths*(i+1)),
				OpeningBalance:   roundCents(balance),
				PrincipalPayment: decimal.Zero,
				InterestPayment:  roundCents(interest),
				TotalPayment:     roundCents(interest),
				ClosingBalance:   roundCents(balance),
			})
		}
		start = AddMonths(start, terms.MoratoriumPeriod)
	}

	remaining := totalPeriods - len(schedule)
	for i := 0; i < remaining; i++ {
		interest := balance * periodicRate
		principal := emi - interest
		if i == remaining-1 || principal > balance {
			principal = balance
		}

		schedule = append(schedule, domain.ScheduleEntry{
			PaymentNumber:    len(schedule) + 1,
			PaymentDate:      AddMonths(start, periodMonths*i),
			OpeningBalance:   roundCents(balance),
			PrincipalPayment: roundCents(principal),
			InterestPayment:  roundCents(interest),
			TotalPayment:     roundCents(principal + interest),
			ClosingBalance:   roundCents(balance - principal),
		})

		balance -= principal
		if balance <= 0 {
			break
		}
	}

	return schedule
}

// Summarize totals a schedule. Totals are sums of the rounded per-period
// amounts, so they match what a reader adding up the rows would get.
func Summarize(schedule []domain.ScheduleEntry) domain.ScheduleSummary {
	summary := domain.ScheduleSummary{
		NumberOfPayments: len(schedule),
		Installment:      decimal.Zero,
		TotalPrincipal:   decimal.Zero,
		TotalInterest:    decimal.Zero,
		TotalPayment:     decimal.Zero,
	}
	if len(schedule) == 0 {
		return summary
	}

	for _, e := range schedule {
		summary.TotalPrincipal = summary.TotalPrincipal.Add(e.PrincipalPayment)
		summary.TotalInterest = summary.TotalInterest.Add(e.InterestPayment)
		summary.TotalPayment = summary.TotalPayment.Add(e.TotalPayment)
		if summary.Installment.IsZero() && e.PrincipalPayment.IsPositive() {
			summary.Installment = e.TotalPayment
		}
	}
	summary.FirstPaymentDate = schedule[0].PaymentDate
	summary.LastPaymentDate = schedule[len(schedule)-1].PaymentDate

	return summary
}

// AddMonths moves t by n calendar months. Days past the end of the target
// month are clamped to its last day, so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// installment is the annuity payment P*r*(1+r)^n / ((1+r)^n - 1), computed
// as P*r / (1 - (1+r)^-n) so it stays finite where (1+r)^n overflows.
func installment(principal, rate float64, periods int) float64 {
	if rate == 0 {
		return principal / float64(periods)
	}
	discount := -math.Expm1(-float64(periods) * math.Log1p(rate))
	if discount == 0 {
		return principal / float64(periods)
	}
	return principal * rate / discount
}

// roundCents rounds half-up to two decimals. The float goes through its
// shortest decimal form first, so 1.005 becomes 1.01 rather than 1.00.
func roundCents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
