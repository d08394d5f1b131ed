// Package export renders stored loans in downloadable formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"loan-scheduler/domain"
)

var scheduleHeader = []string{
	"Payment Number",
	"Payment Date",
	"Opening Balance",
	"Principal Payment",
	"Interest Payment",
	"Total Payment",
	"Closing Balance",
}

// WriteScheduleCSV writes a loan details block, a blank line and the
// repayment schedule as CSV.
func WriteScheduleCSV(w io.Writer, loan domain.Loan) error {
	cw := csv.NewWriter(w)
	t := loan.Terms

	records := [][]string{
		{"Loan Details:"},
		{"Loan ID", loan.ID},
		{"Principal Amount", strconv.FormatFloat(t.PrincipalAmount, 'f', 2, 64)},
		{"Interest Rate", strconv.FormatFloat(t.InterestRate, 'f', -1, 64) + "%"},
		{"Tenure", fmt.Sprintf("%d months", t.Tenure)},
		{"EMI Frequency", titleCase(string(t.EMIFrequency))},
		{"Disbursement Date", t.DisbursementDate.Format(domain.DateLayout)},
		{"Moratorium Period", fmt.Sprintf("%d months", t.MoratoriumPeriod)},
		{""},
	}

	if err := cw.WriteAll(append(records, scheduleRecords(loan.Schedule)...)); err != nil {
		return fmt.Errorf("write schedule csv: %w", err)
	}
	return nil
}

// WriteEntriesCSV writes only the schedule table, header first.
func WriteEntriesCSV(w io.Writer, schedule []domain.ScheduleEntry) error {
	if err := csv.NewWriter(w).WriteAll(scheduleRecords(schedule)); err != nil {
		return fmt.Errorf("write schedule csv: %w", err)
	}
	return nil
}

func scheduleRecords(schedule []domain.ScheduleEntry) [][]string {
	records := make([][]string, 0, len(schedule)+1)
	records = append(records, scheduleHeader)
	for _, e := range schedule {
		records = append(records, []string{
			strconv.Itoa(e.PaymentNumber),
			e.PaymentDate.Format(domain.DateLayout),
			e.OpeningBalance.StringFixed(2),
			e.PrincipalPayment.StringFixed(2),
			e.InterestPayment.StringFixed(2),
			e.TotalPayment.StringFixed(2),
			e.ClosingBalance.StringFixed(2),
		})
	}
	return records
}

// Filename is the download name used for a loan's schedule.
func Filename(loan domain.Loan) string {
	return fmt.Sprintf("loan_schedule_%s.csv", loan.ID)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
