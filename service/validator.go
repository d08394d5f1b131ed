package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"loan-scheduler/domain"
)

// Validation error kinds. A *ValidationError matches its kind with errors.Is.
var (
	ErrMissingField = errors.New("missing field")
	ErrFormat       = errors.New("invalid format")
	ErrRange        = errors.New("value out of range")
	ErrEnum         = errors.New("value not allowed")
)

// ValidationError describes the rule a loan request violated. Message is
// meant to be shown to the end user as is.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, field, msg string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: msg}
}

// ValidateLoanInput checks a loan request and returns the first violated
// rule, or nil when the request can be scheduled.
func ValidateLoanInput(input domain.LoanInput) error {
	if errs := checkLoanInput(input, true); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ValidateLoanInputAll reports every violated rule, joined with errors.Join.
// The first joined error is the one ValidateLoanInput returns.
func ValidateLoanInputAll(input domain.LoanInput) error {
	return errors.Join(checkLoanInput(input, false)...)
}

// BuildLoanTerms validates input and converts it to LoanTerms. A missing
// moratorium period means none.
func BuildLoanTerms(input domain.LoanInput) (domain.LoanTerms, error) {
	if err := ValidateLoanInput(input); err != nil {
		return domain.LoanTerms{}, err
	}

	date, _ := time.Parse(domain.DateLayout, *input.DisbursementDate)
	terms := domain.LoanTerms{
		DisbursementDate: date,
		PrincipalAmount:  *input.PrincipalAmount,
		Tenure:           int(*input.Tenure),
		EMIFrequency:     domain.EMIFrequency(*input.EMIFrequency),
		InterestRate:     *input.InterestRate,
	}
	if input.MoratoriumPeriod != nil {
		terms.MoratoriumPeriod = int(*input.MoratoriumPeriod)
	}
	return terms, nil
}

func checkLoanInput(input domain.LoanInput, failFast bool) []error {
	var errs []error
	add := func(err *ValidationError) bool {
		errs = append(errs, err)
		return failFast
	}

	// Presence. Zero principal or tenure count as missing, a zero rate does not.
	hasDate := input.DisbursementDate != nil && *input.DisbursementDate != ""
	hasPrincipal := input.PrincipalAmount != nil && *input.PrincipalAmount != 0
	hasTenure := input.Tenure != nil && *input.Tenure != 0
	hasFrequency := input.EMIFrequency != nil && *input.EMIFrequency != ""
	hasRate := input.InterestRate != nil

	if !hasDate && add(invalid(ErrMissingField, "disbursement_date", "Disbursement date is required")) {
		return errs
	}
	if !hasPrincipal && add(invalid(ErrMissingField, "principal_amount", "Principal amount is required")) {
		return errs
	}
	if !hasTenure && add(invalid(ErrMissingField, "tenure", "Tenure is required")) {
		return errs
	}
	if !hasFrequency && add(invalid(ErrMissingField, "emi_frequency", "EMI frequency is required")) {
		return errs
	}
	if !hasRate && add(invalid(ErrMissingField, "interest_rate", "Interest rate is required")) {
		return errs
	}

	if hasDate {
		if _, err := time.Parse(domain.DateLayout, *input.DisbursementDate); err != nil &&
			add(invalid(ErrFormat, "disbursement_date", "Invalid disbursement date format. Please use YYYY-MM-DD")) {
			return errs
		}
	}

	if hasPrincipal {
		p := *input.PrincipalAmount
		switch {
		case !isFinite(p) || p <= 0:
			if add(invalid(ErrRange, "principal_amount", "Principal amount must be a positive number")) {
				return errs
			}
		case p > MaxPrincipalAmount:
			msg := fmt.Sprintf("Principal amount must not exceed %.0f", MaxPrincipalAmount)
			if add(invalid(ErrRange, "principal_amount", msg)) {
				return errs
			}
		}
	}

	tenureValid := false
	if hasTenure {
		t := *input.Tenure
		switch {
		case !isInteger(t) || t <= 0:
			if add(invalid(ErrRange, "tenure", "Tenure must be a positive integer")) {
				return errs
			}
		case t > MaxTenureMonths:
			msg := fmt.Sprintf("Tenure must not exceed %d months", MaxTenureMonths)
			if add(invalid(ErrRange, "tenure", msg)) {
				return errs
			}
		default:
			tenureValid = true
		}
	}

	if hasFrequency && !domain.EMIFrequency(*input.EMIFrequency).Valid() {
		msg := fmt.Sprintf("EMI frequency must be one of: %s", frequencyList())
		if add(invalid(ErrEnum, "emi_frequency", msg)) {
			return errs
		}
	}

	if hasRate {
		r := *input.InterestRate
		switch {
		case !isFinite(r) || r < 0:
			if add(invalid(ErrRange, "interest_rate", "Interest rate must be a non-negative number")) {
				return errs
			}
		case r > MaxInterestRate:
			msg := fmt.Sprintf("Interest rate must not exceed %.0f", MaxInterestRate)
			if add(invalid(ErrRange, "interest_rate", msg)) {
				return errs
			}
		}
	}

	if input.MoratoriumPeriod != nil {
		m := *input.MoratoriumPeriod
		switch {
		case !isInteger(m) || m < 0:
			add(invalid(ErrRange, "moratorium_period", "Moratorium period must be a non-negative integer"))
		case tenureValid && m >= *input.Tenure:
			add(invalid(ErrRange, "moratorium_period", "Moratorium period must be less than the loan tenure"))
		}
	}

	return errs
}

func frequencyList() string {
	names := make([]string, len(domain.Frequencies))
	for i, f := range domain.Frequencies {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isInteger(v float64) bool {
	return isFinite(v) && v == math.Trunc(v)
}
