package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-scheduler/repository"
)

func newTestComparisonService() *ComparisonService {
	loans := NewLoanService(repository.NewLoanRepositoryMemory(), repository.NewMemoryCache(), nil)
	return NewComparisonService(loans)
}

func optionTenures(t *testing.T, s *ComparisonService, tenures []int) []int {
	t.Helper()
	in := validInput()
	in.Tenure = nil

	result, err := s.CompareTenures(context.Background(), in, tenures)
	require.NoError(t, err)

	got := make([]int, len(result.Options))
	for i, o := range result.Options {
		got[i] = o.Tenure
	}
	return got
}

func TestCompareTenures_RanksByTotalInterest(t *testing.T) {

	s := newTestComparisonService()
	in := validInput()
	in.Tenure = nil

	result, err := s.CompareTenures(context.Background(), in, []int{36, 12, 24})

	require.NoError(t, err)
	require.Len(t, result.Options, 3)
	assert.Equal(t, 12, result.RecommendedTenure)
	assert.Equal(t, 12, result.Options[0].Tenure)
	assert.Equal(t, 24, result.Options[1].Tenure)
	assert.Equal(t, 36, result.Options[2].Tenure)

	assert.True(t, result.Options[0].Recommended)
	assert.False(t, result.Options[1].Recommended)
	assert.False(t, result.Options[2].Recommended)

	assertDecimal(t, "7942.26", result.Options[0].Summary.TotalInterest)
	assert.Equal(t, 12, result.Options[0].Summary.NumberOfPayments)
	for i := 1; i < len(result.Options); i++ {
		assert.True(t, result.Options[i-1].Summary.TotalInterest.LessThanOrEqual(result.Options[i].Summary.TotalInterest))
	}
}

func TestCompareTenures_TiesBreakOnShorterTenure(t *testing.T) {

	s := newTestComparisonService()
	in := validInput()
	in.InterestRate = numPtr(0)

	result, err := s.CompareTenures(context.Background(), in, []int{24, 6, 12})

	require.NoError(t, err)
	assert.Equal(t, 6, result.RecommendedTenure)
	assert.Equal(t, 12, result.Options[1].Tenure)
	assert.Equal(t, 24, result.Options[2].Tenure)
}

func TestCompareTenures_SkipsDuplicatesAndOutOfRange(t *testing.T) {

	s := newTestComparisonService()

	assert.Equal(t, []int{12}, optionTenures(t, s, []int{12, 12, 0, -3, MaxTenureMonths + 1}))
	assert.Equal(t, []int{12, MaxTenureMonths}, optionTenures(t, s, []int{MaxTenureMonths, 12}))
}

func TestCompareTenures_SkipsTenuresShorterThanMoratorium(t *testing.T) {

	s := newTestComparisonService()
	in := validInput()
	in.MoratoriumPeriod = numPtr(12)

	result, err := s.CompareTenures(context.Background(), in, []int{6, 12, 24})

	require.NoError(t, err)
	require.Len(t, result.Options, 1)
	assert.Equal(t, 24, result.RecommendedTenure)
}

func TestCompareTenures_Errors(t *testing.T) {

	s := newTestComparisonService()

	_, err := s.CompareTenures(context.Background(), validInput(), nil)
	assert.EqualError(t, err, "no tenures to compare")

	tooMany := make([]int, MaxComparedTenures+1)
	for i := range tooMany {
		tooMany[i] = i + 1
	}
	_, err = s.CompareTenures(context.Background(), validInput(), tooMany)
	assert.EqualError(t, err, "number of tenures exceeds the maximum of 24")

	_, err = s.CompareTenures(context.Background(), validInput(), []int{0, 700})
	assert.EqualError(t, err, "no valid tenure to compare")

	in := validInput()
	in.MoratoriumPeriod = numPtr(24)
	_, err = s.CompareTenures(context.Background(), in, []int{12, 24})
	assert.EqualError(t, err, "no valid tenure to compare")
}

func TestCompareTenures_InvalidLoanFields(t *testing.T) {

	s := newTestComparisonService()
	in := validInput()
	in.DisbursementDate = nil

	_, err := s.CompareTenures(context.Background(), in, []int{12, 24})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Disbursement date is required", verr.Message)
}
