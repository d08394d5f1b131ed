package repository

import (
	"context"
	"sort"
	"sync"

	"loan-scheduler/domain"
)

// LoanRepositoryMemory is an in-memory implementation of LoanRepository.
type LoanRepositoryMemory struct {
	mu   sync.RWMutex
	data map[string]domain.Loan
}

// NewLoanRepositoryMemory creates a new in-memory loan repository.
func NewLoanRepositoryMemory() *LoanRepositoryMemory {
	return &LoanRepositoryMemory{
		data: make(map[string]domain.Loan),
	}
}

// Save stores the loan in memory, replacing any loan with the same id.
func (r *LoanRepositoryMemory) Save(_ context.Context, loan domain.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loan.Schedule = append([]domain.ScheduleEntry(nil), loan.Schedule...)
	r.data[loan.ID] = loan
	return nil
}

func (r *LoanRepositoryMemory) FindByID(_ context.Context, id string) (domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loan, ok := r.data[id]
	if !ok {
		return domain.Loan{}, ErrLoanNotFound
	}
	loan.Schedule = append([]domain.ScheduleEntry(nil), loan.Schedule...)
	return loan, nil
}

func (r *LoanRepositoryMemory) List(_ context.Context) ([]domain.Loan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loans := make([]domain.Loan, 0, len(r.data))
	for _, loan := range r.data {
		loan.Schedule = nil
		loans = append(loans, loan)
	}
	sort.Slice(loans, func(i, j int) bool {
		if loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].ID < loans[j].ID
		}
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
	return loans, nil
}

func (r *LoanRepositoryMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrLoanNotFound
	}
	delete(r.data, id)
	return nil
}
