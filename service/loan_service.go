package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"loan-scheduler/domain"
	"loan-scheduler/events"
	"loan-scheduler/logger"
	"loan-scheduler/repository"
)

type LoanService struct {
	repo      repository.LoanRepository
	cache     repository.CacheRepository
	publisher events.Publisher
	now       func() time.Time
}

// NewLoanService creates a new LoanService. A nil publisher disables events.
func NewLoanService(
	repo repository.LoanRepository,
	cache repository.CacheRepository,
	publisher events.Publisher,
) *LoanService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &LoanService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

// PreviewSchedule validates the request and returns its schedule without
// storing anything.
func (s *LoanService) PreviewSchedule(
	ctx context.Context,
	input domain.LoanInput,
) ([]domain.ScheduleEntry, error) {
	terms, err := BuildLoanTerms(input)
	if err != nil {
		return nil, err
	}
	return s.schedule(ctx, terms), nil
}

// CreateLoan validates the request, generates the schedule and stores both.
func (s *LoanService) CreateLoan(
	ctx context.Context,
	input domain.LoanInput,
) (domain.Loan, error) {
	terms, err := BuildLoanTerms(input)
	if err != nil {
		return domain.Loan{}, err
	}

	loan := domain.Loan{
		ID:        uuid.NewString(),
		Terms:     terms,
		Schedule:  s.schedule(ctx, terms),
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Save(ctx, loan); err != nil {
		return domain.Loan{}, fmt.Errorf("save loan: %w", err)
	}

	log := logger.WithComponent("loan_service")
	log.Info().
		Str("loan_id", loan.ID).
		Float64("principal_amount", terms.PrincipalAmount).
		Int("tenure", terms.Tenure).
		Str("emi_frequency", string(terms.EMIFrequency)).
		Int("payments", len(loan.Schedule)).
		Msg("loan created")

	// El evento no es crítico: el préstamo ya está guardado
	if err := s.publisher.PublishLoanCreated(ctx, loan); err != nil {
		log.Warn().Err(err).Str("loan_id", loan.ID).Msg("failed to publish loan created event")
	}

	return loan, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id string) (domain.Loan, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *LoanService) ListLoans(ctx context.Context) ([]domain.Loan, error) {
	return s.repo.List(ctx)
}

func (s *LoanService) DeleteLoan(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log := logger.WithComponent("loan_service")
	log.Info().Str("loan_id", id).Msg("loan deleted")
	return nil
}

// schedule returns the schedule for terms, going through the cache. Cache
// failures only cost a recomputation.
func (s *LoanService) schedule(ctx context.Context, terms domain.LoanTerms) []domain.ScheduleEntry {
	log := logger.WithComponent("loan_service")
	key := scheduleCacheKey(terms)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var schedule []domain.ScheduleEntry
		if err := json.Unmarshal([]byte(cached), &schedule); err == nil {
			return schedule
		}
		log.Warn().Str("key", key).Msg("discarding unreadable cached schedule")
	}

	schedule := GenerateSchedule(terms)

	data, err := json.Marshal(schedule)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode schedule for cache")
		return schedule
	}
	if err := s.cache.Set(ctx, key, string(data)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache schedule")
	}
	return schedule
}

func scheduleCacheKey(terms domain.LoanTerms) string {
	canonical := terms.DisbursementDate.Format(domain.DateLayout) + "|" +
		strconv.FormatFloat(terms.PrincipalAmount, 'g', -1, 64) + "|" +
		strconv.Itoa(terms.Tenure) + "|" +
		string(terms.EMIFrequency) + "|" +
		strconv.FormatFloat(terms.InterestRate, 'g', -1, 64) + "|" +
		strconv.Itoa(terms.MoratoriumPeriod)
	return fmt.Sprintf("%s%016x", scheduleCachePrefix, xxhash.Sum64String(canonical))
}
