package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"loan-scheduler/domain"
	"loan-scheduler/export"
	"loan-scheduler/service"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the amortization schedule for a loan",
	Long: `Validate loan terms and print the repayment schedule without storing it.

Amounts are rounded half-up to cents per period. During a moratorium only
interest is due; principal amortizes afterwards.`,
	Example: `  # 120,000 over 12 months at 12% a year
  loan-scheduler schedule --date 2024-01-01 --principal 120000 --tenure 12 --rate 12

  # Quarterly payments with a 6-month moratorium, as CSV
  loan-scheduler schedule --date 2024-01-01 --principal 50000 --tenure 36 \
      --rate 9.5 --frequency quarterly --moratorium 6 --format csv`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().String("date", "", "Disbursement date (YYYY-MM-DD)")
	scheduleCmd.Flags().Float64("principal", 0, "Principal amount")
	scheduleCmd.Flags().Float64("tenure", 0, "Tenure in months")
	scheduleCmd.Flags().String("frequency", string(domain.FrequencyMonthly), "EMI frequency (monthly, quarterly, semi-annually, annually)")
	scheduleCmd.Flags().Float64("rate", 0, "Nominal annual interest rate in percent")
	scheduleCmd.Flags().Float64("moratorium", 0, "Interest-only months at the start of the loan")
	scheduleCmd.Flags().String("format", "table", "Output format (table, csv, json)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	input := loanInputFromFlags(cmd)

	terms, err := service.BuildLoanTerms(input)
	if err != nil {
		return err
	}
	schedule := service.GenerateSchedule(terms)

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()
	switch format {
	case "table":
		return printScheduleTable(out, schedule)
	case "csv":
		return export.WriteEntriesCSV(out, schedule)
	case "json":
		return printScheduleJSON(out, schedule)
	default:
		return fmt.Errorf("unknown format %q: must be one of table, csv, json", format)
	}
}

// loanInputFromFlags only fills fields whose flag was set, so the validator
// reports missing values the same way it does for API requests. The
// frequency flag has a default and is always present.
func loanInputFromFlags(cmd *cobra.Command) domain.LoanInput {
	flags := cmd.Flags()
	var input domain.LoanInput

	if flags.Changed("date") {
		v, _ := flags.GetString("date")
		input.DisbursementDate = &v
	}
	if flags.Changed("principal") {
		v, _ := flags.GetFloat64("principal")
		input.PrincipalAmount = &v
	}
	if flags.Changed("tenure") {
		v, _ := flags.GetFloat64("tenure")
		input.Tenure = &v
	}
	frequency, _ := flags.GetString("frequency")
	input.EMIFrequency = &frequency
	if flags.Changed("rate") {
		v, _ := flags.GetFloat64("rate")
		input.InterestRate = &v
	}
	if flags.Changed("moratorium") {
		v, _ := flags.GetFloat64("moratorium")
		input.MoratoriumPeriod = &v
	}
	return input
}

func printScheduleTable(w io.Writer, schedule []domain.ScheduleEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tDate\tOpening\tPrincipal\tInterest\tTotal\tClosing\t")
	for _, e := range schedule {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			e.PaymentNumber,
			e.PaymentDate.Format(domain.DateLayout),
			e.OpeningBalance.StringFixed(2),
			e.PrincipalPayment.StringFixed(2),
			e.InterestPayment.StringFixed(2),
			e.TotalPayment.StringFixed(2),
			e.ClosingBalance.StringFixed(2),
		)
	}

	s := service.Summarize(schedule)
	fmt.Fprintf(tw, "\t%s\t\t%s\t%s\t%s\t\t\n",
		"Total",
		s.TotalPrincipal.StringFixed(2),
		s.TotalInterest.StringFixed(2),
		s.TotalPayment.StringFixed(2),
	)
	return tw.Flush()
}

type scheduleRow struct {
	PaymentNumber    int    `json:"payment_number"`
	PaymentDate      string `json:"payment_date"`
	OpeningBalance   string `json:"opening_balance"`
	PrincipalPayment string `json:"principal_payment"`
	InterestPayment  string `json:"interest_payment"`
	TotalPayment     string `json:"total_payment"`
	ClosingBalance   string `json:"closing_balance"`
}

func printScheduleJSON(w io.Writer, schedule []domain.ScheduleEntry) error {
	rows := make([]scheduleRow, len(schedule))
	for i, e := range schedule {
		rows[i] = scheduleRow{
			PaymentNumber:    e.PaymentNumber,
			PaymentDate:      e.PaymentDate.Format(domain.DateLayout),
			OpeningBalance:   e.OpeningBalance.StringFixed(2),
			PrincipalPayment: e.PrincipalPayment.StringFixed(2),
			InterestPayment:  e.InterestPayment.StringFixed(2),
			TotalPayment:     e.TotalPayment.StringFixed(2),
			ClosingBalance:   e.ClosingBalance.StringFixed(2),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
