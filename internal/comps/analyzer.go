// Package comps selects comparable sales for a target property, restates
// each one as if it had the target's characteristics and aggregates the
// results into an after-repair value estimate.
package comps

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"arvcalc/config"
	"arvcalc/internal/models"
)

// Average Gregorian month length in days.
const daysPerMonth = 365.2425 / 12

// MarketLookup supplies market-level fallback pricing.
type MarketLookup interface {
	DefaultPrice(city, state string) (float64, bool)
	DefaultPricePerSqFt(city, state string) (float64, bool)
}

// Analyzer holds configuration for the comps pipeline. It keeps no
// per-run state and is safe for concurrent use.
type Analyzer struct {
	comps   config.CompsConfig
	adj     config.AdjustmentConfig
	markets MarketLookup
	logger  *logrus.Logger
}

// Estimate is the outcome of a full filter, adjust and value pass.
type Estimate struct {
	Search      models.SearchWindow
	Comparables []models.ComparableCandidate
	Arv         models.ArvResult
	Issues      []*models.InsufficientDataError

	// Excluded counts candidates dropped by the filter, keyed by reason.
	Excluded map[string]int
}

// NewAnalyzer creates an analyzer. markets may be nil.
func NewAnalyzer(cfg *config.Config, markets MarketLookup, logger *logrus.Logger) *Analyzer {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Analyzer{
		comps:   cfg.Comps,
		adj:     cfg.Adjustments,
		markets: markets,
		logger:  logger,
	}
}

// Estimate runs FilterComps, ApplyAdjustments and CalculateArv with the
// configured search parameters.
func (a *Analyzer) Estimate(target models.PropertyRecord, candidates []models.PropertyRecord, now time.Time) (*Estimate, error) {
	filtered, window, excluded, err := a.filterComps(target, candidates,
		a.comps.SearchRadiusMiles, a.comps.MonthsBack, a.comps.MinComparableProperties, now)
	if err != nil {
		return nil, err
	}

	adjusted, issues := a.ApplyAdjustments(target, filtered)
	result := a.CalculateArv(target, adjusted)

	return &Estimate{
		Search:      window,
		Comparables: adjusted,
		Arv:         result,
		Issues:      issues,
		Excluded:    excluded,
	}, nil
}
