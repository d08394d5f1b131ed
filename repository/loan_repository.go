package repository

import (
	"context"
	"errors"

	"loan-scheduler/domain"
)

// ErrLoanNotFound is returned when no loan has the requested id.
var ErrLoanNotFound = errors.New("loan not found")

// LoanRepository stores loans together with their schedules.
type LoanRepository interface {
	Save(ctx context.Context, loan domain.Loan) error
	FindByID(ctx context.Context, id string) (domain.Loan, error)
	// List returns every loan, newest first, without schedules.
	List(ctx context.Context) ([]domain.Loan, error)
	Delete(ctx context.Context, id string) error
}
