package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"loan-scheduler/domain"
	"loan-scheduler/logger"
)

type ComparisonService struct {
	loanService *LoanService
}

func NewComparisonService(loanService *LoanService) *ComparisonService {
	return &ComparisonService{loanService: loanService}
}

// CompareTenures schedules the same loan over each candidate tenure and
// ranks the results by total interest, cheapest first. The tenure in input,
// if any, is ignored. Candidates the validator rejects (for example a
// moratorium that does not fit) are skipped.
func (s *ComparisonService) CompareTenures(
	ctx context.Context,
	input domain.LoanInput,
	tenures []int,
) (domain.TenureComparison, error) {

	if len(tenures) == 0 {
		return domain.TenureComparison{}, errors.New("no tenures to compare")
	}
	if len(tenures) > MaxComparedTenures {
		return domain.TenureComparison{}, fmt.Errorf("number of tenures exceeds the maximum of %d", MaxComparedTenures)
	}

	log := logger.WithComponent("comparison_service")
	seen := make(map[int]bool, len(tenures))
	options := []domain.TenureOption{}

	for _, tenure := range tenures {
		if seen[tenure] {
			continue
		}
		seen[tenure] = true

		if tenure <= 0 || tenure > MaxTenureMonths {
			log.Warn().Int("tenure", tenure).Msg("skipping tenure outside 1..600 months")
			continue
		}

		candidate := input
		months := float64(tenure)
		candidate.Tenure = &months

		terms, err := BuildLoanTerms(candidate)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) && (verr.Field == "tenure" || verr.Field == "moratorium_period") {
				log.Warn().Int("tenure", tenure).Str("reason", verr.Message).Msg("skipping tenure")
				continue
			}
			return domain.TenureComparison{}, err
		}

		options = append(options, domain.TenureOption{
			Tenure:  tenure,
			Summary: Summarize(s.loanService.schedule(ctx, terms)),
		})
	}

	if len(options) == 0 {
		return domain.TenureComparison{}, errors.New("no valid tenure to compare")
	}

	sort.SliceStable(options, func(i, j int) bool {
		if c := options[i].Summary.TotalInterest.Cmp(options[j].Summary.TotalInterest); c != 0 {
			return c < 0
		}
		return options[i].Tenure < options[j].Tenure
	})
	options[0].Recommended = true

	return domain.TenureComparison{
		RecommendedTenure: options[0].Tenure,
		Options:           options,
	}, nil
}
