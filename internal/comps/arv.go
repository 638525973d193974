package comps

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"arvcalc/internal/models"
)

// Below this many comps the range is a fixed band around the median.
const minPercentileSample = 4

const (
	narrowRangePct   = 0.05
	fallbackRangePct = 0.10
)

// CalculateArv aggregates adjusted comps into an after-repair value. The
// point estimate is the median adjusted value. With no usable comps it
// falls back to the target's estimated value, then the market default,
// and reports very-low confidence.
func (a *Analyzer) CalculateArv(target models.PropertyRecord, adjusted []models.ComparableCandidate) models.ArvResult {
	values := make([]float64, 0, len(adjusted))
	var distances, days []float64
	unverified := 0
	for _, c := range adjusted {
		if c.AdjustedValue == nil {
			continue
		}
		values = append(values, *c.AdjustedValue)
		distances = append(distances, c.DistanceMiles)
		days = append(days, float64(c.DaysSinceSold))
		if !c.LocationVerified {
			unverified++
		}
	}

	if len(values) == 0 {
		return a.fallbackArv(target)
	}

	result := models.ArvResult{
		Arv:              Median(values),
		CompCount:        len(values),
		ValuationSource:  models.SourceComparables,
		AdjustedValueMin: models.Float(Percentile(values, 0)),
		AdjustedValueMax: models.Float(Percentile(values, 100)),
	}

	if len(values) >= minPercentileSample {
		result.ArvRangeLow = Percentile(values, 25)
		result.ArvRangeHigh = Percentile(values, 75)
	} else {
		result.ArvRangeLow = result.Arv * (1 - narrowRangePct)
		result.ArvRangeHigh = result.Arv * (1 + narrowRangePct)
	}

	result.Confidence = a.confidence(len(values), mean(distances), mean(days))
	if unverified > 0 {
		if result.Confidence == models.ConfidenceHigh {
			result.Confidence = models.ConfidenceModerate
		}
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d comparable(s) have no verified location", unverified))
	}
	if required := a.comps.MinComparableProperties; len(values) < required {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("only %d comparable(s) found, %d required", len(values), required))
	}

	result.PricePerSqFt = pricePerSqFt(result.Arv, target.SquareFootage)

	a.logger.WithFields(logrus.Fields{
		"target_id":  target.ID,
		"arv":        result.Arv,
		"range_low":  result.ArvRangeLow,
		"range_high": result.ArvRangeHigh,
		"comps":      result.CompCount,
		"confidence": result.Confidence,
	}).Info("Calculated ARV from comparables")

	return result
}

// confidence grades an estimate against the configured search radius and
// recency window, not the relaxed ones.
func (a *Analyzer) confidence(n int, avgDistance, avgDays float64) models.Confidence {
	radius := a.comps.SearchRadiusMiles
	windowDays := a.comps.MonthsBack * daysPerMonth

	switch {
	case n >= 5 && avgDistance < radius/2 && avgDays < windowDays/2:
		return models.ConfidenceHigh
	case n >= 3 && avgDistance <= radius && avgDays <= windowDays:
		return models.ConfidenceModerate
	case n >= 1:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}

func (a *Analyzer) fallbackArv(target models.PropertyRecord) models.ArvResult {
	result := models.ArvResult{Confidence: models.ConfidenceVeryLow}

	switch {
	case target.EstimatedValue != nil && *target.EstimatedValue > 0:
		result.Arv = *target.EstimatedValue
		result.ValuationSource = models.SourceTargetEstimate
	default:
		result.Arv = a.comps.MarketDefaultPrice
		if a.markets != nil {
			if v, ok := a.markets.DefaultPrice(target.City, target.State); ok {
				result.Arv = v
			}
		}
		result.ValuationSource = models.SourceMarketDefault
	}

	result.ArvRangeLow = result.Arv * (1 - fallbackRangePct)
	result.ArvRangeHigh = result.Arv * (1 + fallbackRangePct)
	result.PricePerSqFt = pricePerSqFt(result.Arv, target.SquareFootage)
	result.Warnings = []string{
		fmt.Sprintf("%s; ARV taken from %s", models.ErrNoComparables, result.ValuationSource),
	}

	a.logger.WithFields(logrus.Fields{
		"target_id": target.ID,
		"arv":       result.Arv,
		"source":    result.ValuationSource,
	}).WithError(models.ErrNoComparables).Warn("Falling back to non-comparable valuation")

	return result
}

func pricePerSqFt(arv, sqft float64) *float64 {
	if sqft <= 0 || math.IsNaN(arv) {
		return nil
	}
	return models.Float(arv / sqft)
}
