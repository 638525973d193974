package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"arvcalc/config"
	"arvcalc/internal/metrics"
	"arvcalc/internal/models"
)

var asOf = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindCandidates(bound orb.Bound, soldSince time.Time, excludeID string) ([]models.PropertyRecord, error) {
	args := m.Called(bound, soldSince, excludeID)
	records, _ := args.Get(0).([]models.PropertyRecord)
	return records, args.Error(1)
}

func newTestService(t *testing.T, store CandidateStore, m *metrics.Metrics) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewService(config.Defaults(), nil, store, m, logger)
	s.now = func() time.Time { return asOf }
	return s
}

func TestAnalyze_Sample(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := newTestService(t, nil, m)

	report, err := s.Analyze(context.Background(), SampleRequest(asOf))
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, asOf, report.AsOf)
	assert.Equal(t, 4, report.Arv.CompCount)
	assert.Equal(t, models.ConfidenceModerate, report.Arv.Confidence)
	assert.Equal(t, models.SourceComparables, report.Arv.ValuationSource)
	assert.Greater(t, report.Arv.Arv, 380000.0)
	assert.Less(t, report.Arv.Arv, 460000.0)
	assert.LessOrEqual(t, report.Arv.ArvRangeLow, report.Arv.Arv)
	assert.GreaterOrEqual(t, report.Arv.ArvRangeHigh, report.Arv.Arv)

	assert.Equal(t, 10.0, report.Renovation.ContingencyPercent)
	assert.InDelta(t, 79530, report.Renovation.GrandTotal, 1e-6)
	assert.Equal(t, 350000.0, report.Investment.PurchasePrice)
	assert.InDelta(t, 429530, report.Investment.TotalInvestment, 1e-6)
	assert.InDelta(t, report.Arv.Arv-429530, report.Investment.Profit, 1e-6)
	assert.InDelta(t, report.Arv.Arv*0.7-79530, report.Investment.Rule70MaxPrice, 1e-6)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Analyses.WithLabelValues(string(models.ConfidenceModerate))))
}

func TestAnalyze_PurchasePriceFallbacks(t *testing.T) {
	s := newTestService(t, nil, nil)

	explicit := SampleRequest(asOf)
	explicit.PurchasePrice = models.Float(300000)
	report, err := s.Analyze(context.Background(), explicit)
	require.NoError(t, err)
	assert.Equal(t, 300000.0, report.Investment.PurchasePrice)

	estimate := SampleRequest(asOf)
	estimate.Target.LastSalePrice = nil
	report, err = s.Analyze(context.Background(), estimate)
	require.NoError(t, err)
	assert.Equal(t, 380000.0, report.Investment.PurchasePrice)

	none := SampleRequest(asOf)
	none.Target.LastSalePrice = nil
	none.Target.EstimatedValue = nil
	_, err = s.Analyze(context.Background(), none)
	assert.True(t, models.IsInvalidInput(err))
}

func TestAnalyze_NoComparablesFallsBack(t *testing.T) {
	s := newTestService(t, nil, nil)

	req := SampleRequest(asOf)
	req.Candidates = nil
	report, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 380000.0, report.Arv.Arv)
	assert.Equal(t, models.ConfidenceVeryLow, report.Arv.Confidence)
	assert.Equal(t, 0, report.Arv.CompCount)
	assert.Empty(t, report.Comparables)
}

func TestAnalyze_LoadsCandidatesFromStore(t *testing.T) {
	sample := SampleRequest(asOf)
	store := &MockStore{}
	store.On("FindCandidates", mock.AnythingOfType("orb.Bound"), mock.AnythingOfType("time.Time"), "sample-123").
		Return(sample.Candidates, nil).Once()

	s := newTestService(t, store, nil)
	req := sample
	req.Candidates = nil

	report, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Arv.CompCount)

	store.AssertExpectations(t)

	call := store.Calls[0]
	bound := call.Arguments.Get(0).(orb.Bound)
	assert.True(t, bound.Contains(orb.Point{-122.4194, 37.7749}))
	soldSince := call.Arguments.Get(1).(time.Time)
	assert.True(t, soldSince.Before(asOf.AddDate(0, -13, 0)))
}

func TestAnalyze_StoreError(t *testing.T) {
	store := &MockStore{}
	store.On("FindCandidates", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("disk I/O error"))

	s := newTestService(t, store, nil)
	req := SampleRequest(asOf)
	req.Candidates = nil

	_, err := s.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestAnalyze_RenovationPlan(t *testing.T) {
	s := newTestService(t, nil, nil)

	req := SampleRequest(asOf)
	req.Renovation = &models.RenovationPlan{
		ContingencyPercent: models.Float(0),
		LineItems:          []models.LineItemSpec{{Category: "kitchen", Grade: "basic"}},
		AdditionalCosts:    map[string]float64{"permits": 1000},
	}
	report, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 16000, report.Renovation.GrandTotal, 1e-6)

	req.Renovation.LineItems = []models.LineItemSpec{{Category: "pool", UnitCost: models.Float(1)}}
	_, err = s.Analyze(context.Background(), req)
	assert.True(t, models.IsInvalidInput(err))
}

func TestAnalyze_PlanWithoutContingencyUsesConfig(t *testing.T) {
	s := newTestService(t, nil, nil)

	req := SampleRequest(asOf)
	req.Renovation = &models.RenovationPlan{UseStandardPlan: true}
	report, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)

	// 72300 subtotal at the configured 15%
	assert.Equal(t, 15.0, report.Renovation.ContingencyPercent)
	assert.InDelta(t, 83145, report.Renovation.GrandTotal, 1e-6)
	assert.InDelta(t, 433145, report.Investment.TotalInvestment, 1e-6)
}

func TestAnalyze_UnknownSquareFootageLeavesBudgetEmpty(t *testing.T) {
	s := newTestService(t, nil, nil)

	req := SampleRequest(asOf)
	req.Target.SquareFootage = 0
	req.Renovation = nil

	report, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Renovation.GrandTotal)
	assert.NotEmpty(t, report.DataIssues)
	assert.Nil(t, report.Arv.PricePerSqFt)
}

func TestAnalyze_AssessmentPassesThrough(t *testing.T) {
	s := newTestService(t, nil, nil)

	req := SampleRequest(asOf)
	req.ID = "fixed-id"
	req.Assessment = &models.InvestmentAssessment{
		InvestmentRating: "fair",
		KeyConcerns:      []string{"roof age"},
	}
	report, err := s.Analyze(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", report.ID)
	assert.Equal(t, req.Assessment, report.Assessment)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	s := newTestService(t, nil, nil)

	tests := []struct {
		name   string
		mutate func(r *models.AnalysisRequest)
	}{
		{"negative square footage", func(r *models.AnalysisRequest) { r.Target.SquareFootage = -1 }},
		{"negative purchase price", func(r *models.AnalysisRequest) { r.PurchasePrice = models.Float(-10) }},
		{"latitude out of range", func(r *models.AnalysisRequest) { r.Target.Latitude = models.Float(91) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := SampleRequest(asOf)
			tt.mutate(&req)
			_, err := s.Analyze(context.Background(), req)
			assert.True(t, models.IsInvalidInput(err))
		})
	}
}

func TestAnalyze_CancelledContext(t *testing.T) {
	s := newTestService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Analyze(ctx, SampleRequest(asOf))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBatch(t *testing.T) {
	s := newTestService(t, nil, nil)

	var reqs []models.AnalysisRequest
	for i := 0; i < 8; i++ {
		req := SampleRequest(asOf)
		req.ID = fmt.Sprintf("job-%d", i)
		req.PurchasePrice = models.Float(300000 + float64(i)*1000)
		reqs = append(reqs, req)
	}
	reqs[3].Target.SquareFootage = -5

	results := s.AnalyzeBatch(context.Background(), reqs, 3)
	require.Len(t, results, 8)

	for i, r := range results {
		if i == 3 {
			assert.True(t, models.IsInvalidInput(r.Err))
			continue
		}
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("job-%d", i), r.Report.ID)
		assert.Equal(t, 300000+float64(i)*1000, r.Report.Investment.PurchasePrice)
	}

	// Each run owns its budget, so totals match a standalone run.
	single, err := s.Analyze(context.Background(), reqs[0])
	require.NoError(t, err)
	assert.Equal(t, single.Renovation.GrandTotal, results[5].Report.Renovation.GrandTotal)
}

func TestAnalyzeBatch_CancelledContext(t *testing.T) {
	s := newTestService(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := s.AnalyzeBatch(ctx, []models.AnalysisRequest{SampleRequest(asOf), SampleRequest(asOf)}, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestSampleRequestDatesFollowAsOf(t *testing.T) {
	later := asOf.AddDate(2, 0, 0)
	req := SampleRequest(later)

	for _, c := range req.Candidates {
		days := later.Sub(*c.LastSaleDate).Hours() / 24
		assert.Greater(t, days, 0.0)
		assert.Less(t, days, 183.0)
	}
}
