// Package analysis runs the full valuation pipeline for a target property:
// comparable selection, adjustment and ARV, then the renovation budget and
// deal metrics.
package analysis

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	"arvcalc/config"
	"arvcalc/internal/comps"
	"arvcalc/internal/geo"
	"arvcalc/internal/metrics"
	"arvcalc/internal/models"
	"arvcalc/internal/renovation"
)

const daysPerMonth = 365.2425 / 12

// CandidateStore supplies stored comparable candidates for requests that
// do not carry their own.
type CandidateStore interface {
	FindCandidates(bound orb.Bound, soldSince time.Time, excludeID string) ([]models.PropertyRecord, error)
}

type Service struct {
	cfg      *config.Config
	analyzer *comps.Analyzer
	store    CandidateStore
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	now      func() time.Time
}

// NewService wires the pipeline. markets, store and m may be nil.
func NewService(cfg *config.Config, markets comps.MarketLookup, store CandidateStore, m *metrics.Metrics, logger *logrus.Logger) *Service {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Service{
		cfg:      cfg,
		analyzer: comps.NewAnalyzer(cfg, markets, logger),
		store:    store,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze runs one analysis. Invalid requests fail with an
// *models.InvalidInputError; data gaps are reported in the result.
func (s *Service) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	asOf := s.now().UTC()
	if req.AsOf != nil {
		asOf = req.AsOf.UTC()
	}

	candidates, err := s.candidatesFor(ctx, req, asOf)
	if err != nil {
		return nil, err
	}

	est, err := s.analyzer.Estimate(req.Target, candidates, asOf)
	if err != nil {
		return nil, err
	}

	var dataIssues []string
	for _, issue := range est.Issues {
		dataIssues = append(dataIssues, issue.Error())
	}

	budget, issue, err := s.budgetFor(req)
	if err != nil {
		return nil, err
	}
	if issue != "" {
		dataIssues = append(dataIssues, issue)
	}

	price, err := purchasePrice(req)
	if err != nil {
		return nil, err
	}

	investment, err := budget.ComputeROI(price, est.Arv.Arv)
	if err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	report := &models.AnalysisReport{
		ID:          id,
		CreatedAt:   s.now().UTC(),
		AsOf:        asOf,
		Target:      req.Target,
		Search:      est.Search,
		Comparables: est.Comparables,
		Arv:         est.Arv,
		Renovation:  budget.ComputeBudget(),
		Investment:  investment,
		Assessment:  req.Assessment,
		DataIssues:  dataIssues,
	}

	s.metrics.ObserveAnalysis(est.Arv, est.Excluded, len(est.Issues))

	s.logger.WithFields(logrus.Fields{
		"analysis_id": report.ID,
		"target_id":   req.Target.ID,
		"arv":         report.Arv.Arv,
		"confidence":  report.Arv.Confidence,
		"comps":       report.Arv.CompCount,
		"renovation":  report.Renovation.GrandTotal,
		"profit":      report.Investment.Profit,
	}).Info("Analysis completed")

	return report, nil
}

// candidatesFor returns the request's candidates, or loads them from the
// store covering the widest search the relaxation steps can reach.
func (s *Service) candidatesFor(ctx context.Context, req models.AnalysisRequest, asOf time.Time) ([]models.PropertyRecord, error) {
	if len(req.Candidates) > 0 || s.store == nil || !req.Target.HasLocation() {
		return req.Candidates, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := s.cfg.Comps
	radius := c.SearchRadiusMiles * math.Pow(c.RadiusRelaxFactor, float64(c.MaxRadiusRelaxations))
	months := c.MonthsBack * math.Pow(c.WindowRelaxFactor, float64(c.MaxWindowRelaxations))
	soldSince := asOf.Add(-time.Duration(months * daysPerMonth * float64(24*time.Hour)))

	bound := geo.BoundingBox(*req.Target.Latitude, *req.Target.Longitude, radius)
	candidates, err := s.store.FindCandidates(bound, soldSince, req.Target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates for %s: %w", req.Target.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"target_id":    req.Target.ID,
		"radius_miles": radius,
		"sold_since":   soldSince.Format(time.RFC3339),
		"found":        len(candidates),
	}).Debug("Loaded stored candidates")

	return candidates, nil
}

// budgetFor builds a fresh budget owned by this run.
func (s *Service) budgetFor(req models.AnalysisRequest) (*renovation.Budget, string, error) {
	rc := s.cfg.Renovation
	if req.Renovation.IsEmpty() && req.Target.SquareFootage <= 0 {
		b, err := renovation.NewBudget(rc.ContingencyPercent)
		if err != nil {
			return nil, "", err
		}
		if err := b.SetMaxOfferPercent(rc.MaxOfferPercent); err != nil {
			return nil, "", err
		}
		return b, "target square footage unknown; renovation budget left empty", nil
	}

	b, err := renovation.FromPlan(req.Renovation, req.Target.SquareFootage, rc.ContingencyPercent, rc.MaxOfferPercent)
	if err != nil {
		return nil, "", err
	}
	return b, "", nil
}

// purchasePrice resolves the explicit price, then the target's last sale
// price, then its estimated value.
func purchasePrice(req models.AnalysisRequest) (float64, error) {
	switch {
	case req.PurchasePrice != nil:
		return *req.PurchasePrice, nil
	case req.Target.LastSalePrice != nil && *req.Target.LastSalePrice > 0:
		return *req.Target.LastSalePrice, nil
	case req.Target.EstimatedValue != nil && *req.Target.EstimatedValue > 0:
		return *req.Target.EstimatedValue, nil
	}
	return 0, &models.InvalidInputError{Field: "purchase_price", Reason: "required when the target has no sale price or estimated value"}
}

func validateRequest(req models.AnalysisRequest) error {
	t := req.Target
	checks := []struct {
		field string
		value float64
	}{
		{"target.square_footage", t.SquareFootage},
		{"target.bathrooms", t.Bathrooms},
		{"target.lot_size_acres", t.LotSizeAcres},
		{"target.bedrooms", float64(t.Bedrooms)},
	}
	for _, c := range checks {
		if c.value < 0 || math.IsNaN(c.value) {
			return &models.InvalidInputError{Field: c.field, Value: c.value, Reason: "must be >= 0"}
		}
	}
	if t.Latitude != nil && (*t.Latitude < -90 || *t.Latitude > 90) {
		return &models.InvalidInputError{Field: "target.latitude", Value: *t.Latitude, Reason: "must be within [-90, 90]"}
	}
	if t.Longitude != nil && (*t.Longitude < -180 || *t.Longitude > 180) {
		return &models.InvalidInputError{Field: "target.longitude", Value: *t.Longitude, Reason: "must be within [-180, 180]"}
	}
	if req.PurchasePrice != nil && (*req.PurchasePrice < 0 || math.IsNaN(*req.PurchasePrice)) {
		return &models.InvalidInputError{Field: "purchase_price", Value: *req.PurchasePrice, Reason: "must be >= 0"}
	}
	return nil
}
