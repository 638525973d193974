package comps

import (
	"math"

	"github.com/sirupsen/logrus"

	"arvcalc/internal/models"
)

// Adjustment reasons used as keys of ComparableCandidate.Adjustments.
const (
	AdjustSquareFootage = "square_footage"
	AdjustBedrooms      = "bedrooms"
	AdjustBathrooms     = "bathrooms"
	AdjustAge           = "age"
	AdjustLotSize       = "lot_size"
	AdjustMarketTime    = "market_time"
)

// ApplyAdjustments restates each comp's price as if the comp had the
// target's size, rooms, age and lot. Comps without a sale price or
// estimated value are dropped and returned as data issues.
func (a *Analyzer) ApplyAdjustments(target models.PropertyRecord, comps []models.ComparableCandidate) ([]models.ComparableCandidate, []*models.InsufficientDataError) {
	ppsf := a.localPricePerSqFt(target, comps)

	adjusted := make([]models.ComparableCandidate, 0, len(comps))
	var issues []*models.InsufficientDataError

	for _, comp := range comps {
		base, ok := comp.BasePrice()
		if !ok {
			issue := &models.InsufficientDataError{PropertyID: comp.ID, Missing: "last_sale_price and estimated_value"}
			a.logger.WithFields(logrus.Fields{
				"target_id": target.ID,
				"comp_id":   comp.ID,
			}).WithError(issue).Warn("Excluding comparable without a price")
			issues = append(issues, issue)
			continue
		}

		comp.Adjustments = a.adjustmentsFor(target, comp, base, ppsf)
		value := base + comp.TotalAdjustment()

		if value <= 0 {
			issue := &models.InsufficientDataError{PropertyID: comp.ID, Missing: "positive adjusted value"}
			a.logger.WithFields(logrus.Fields{
				"target_id":      target.ID,
				"comp_id":        comp.ID,
				"base_price":     base,
				"adjusted_value": value,
			}).Warn("Excluding comparable whose adjustments exceed its price")
			issues = append(issues, issue)
			continue
		}

		comp.AdjustedValue = models.Float(value)
		adjusted = append(adjusted, comp)

		a.logger.WithFields(logrus.Fields{
			"comp_id":        comp.ID,
			"base_price":     base,
			"adjustments":    comp.Adjustments,
			"adjusted_value": value,
		}).Debug("Adjusted comparable")
	}

	return adjusted, issues
}

// adjustmentsFor computes the signed deltas for one comp. Each delta is
// (target attribute - comp attribute) times its coefficient, so a comp
// with more of something than the target is adjusted down.
func (a *Analyzer) adjustmentsFor(target models.PropertyRecord, comp models.ComparableCandidate, base, ppsf float64) map[string]float64 {
	deltas := make(map[string]float64)
	put := func(reason string, v float64) {
		if v != 0 && !math.IsNaN(v) {
			deltas[reason] = v
		}
	}

	if target.SquareFootage > 0 && comp.SquareFootage > 0 {
		put(AdjustSquareFootage, (target.SquareFootage-comp.SquareFootage)*ppsf)
	}

	put(AdjustBedrooms, float64(target.Bedrooms-comp.Bedrooms)*a.adj.PerBedroom)
	put(AdjustBathrooms, (target.Bathrooms-comp.Bathrooms)/0.5*a.adj.PerHalfBath)

	if target.YearBuilt > 0 && comp.YearBuilt > 0 {
		age := float64(target.YearBuilt-comp.YearBuilt) / 10 * a.adj.PerDecade
		if limit := a.adj.AgeCap; limit > 0 {
			age = math.Max(-limit, math.Min(limit, age))
		}
		put(AdjustAge, age)
	}

	if target.LotSizeAcres > 0 && comp.LotSizeAcres > 0 {
		put(AdjustLotSize, (target.LotSizeAcres-comp.LotSizeAcres)/0.1*a.adj.PerTenthAcre)
	}

	if pct := a.adj.MonthlyAppreciationPct; pct != 0 && comp.DaysSinceSold > 0 {
		months := float64(comp.DaysSinceSold) / daysPerMonth
		put(AdjustMarketTime, base*pct/100*months)
	}

	return deltas
}

// localPricePerSqFt is the median $/sqft of the comps' sales, falling back
// to the target's market and then the configured default.
func (a *Analyzer) localPricePerSqFt(target models.PropertyRecord, comps []models.ComparableCandidate) float64 {
	var values []float64
	for _, c := range comps {
		if v := c.PricePerSqFt(); v != nil {
			values = append(values, *v)
		}
	}

	if len(values) > 0 {
		return Median(values) * a.adj.SqFtFactor
	}
	if a.markets != nil {
		if v, ok := a.markets.DefaultPricePerSqFt(target.City, target.State); ok {
			return v * a.adj.SqFtFactor
		}
	}
	return a.adj.DefaultPricePerSqFt * a.adj.SqFtFactor
}
