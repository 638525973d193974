package comps

import (
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"arvcalc/internal/geo"
	"arvcalc/internal/models"
)

const (
	reasonNoSaleDate  = "missing last_sale_date"
	reasonFutureSale  = "sale date after as-of date"
	reasonTooOld      = "sold outside recency window"
	reasonNoLocation  = "missing coordinates"
	reasonOutOfRadius = "outside search radius"
	reasonDuplicate   = "duplicate id"
	reasonIsTarget    = "same property as target"
	reasonOverMax     = "over max comparables"
)

// FilterComps keeps candidates within radiusMiles of the target that sold
// within monthsBack months of now, ordered by distance then recency.
//
// When fewer than minComps survive, the radius is widened and then the
// recency window is lengthened, by the configured factors and caps. The
// returned window describes the search that produced the result, which
// may still hold fewer than minComps comps.
func (a *Analyzer) FilterComps(target models.PropertyRecord, candidates []models.PropertyRecord,
	radiusMiles, monthsBack float64, minComps int, now time.Time) ([]models.ComparableCandidate, models.SearchWindow, error) {
	selected, window, _, err := a.filterComps(target, candidates, radiusMiles, monthsBack, minComps, now)
	return selected, window, err
}

// filterComps is FilterComps that also returns exclusion counts by reason
// for the final pass.
func (a *Analyzer) filterComps(target models.PropertyRecord, candidates []models.PropertyRecord,
	radiusMiles, monthsBack float64, minComps int, now time.Time) ([]models.ComparableCandidate, models.SearchWindow, map[string]int, error) {

	if radiusMiles <= 0 || math.IsNaN(radiusMiles) {
		return nil, models.SearchWindow{}, nil, &models.InvalidInputError{Field: "radius_miles", Value: radiusMiles, Reason: "must be > 0"}
	}
	if monthsBack <= 0 || math.IsNaN(monthsBack) {
		return nil, models.SearchWindow{}, nil, &models.InvalidInputError{Field: "months_back", Value: monthsBack, Reason: "must be > 0"}
	}
	if minComps < 1 {
		return nil, models.SearchWindow{}, nil, &models.InvalidInputError{Field: "min_comps", Value: minComps, Reason: "must be >= 1"}
	}

	if !target.HasLocation() && !a.comps.AllowMissingLocation {
		a.logger.WithField("target_id", target.ID).Warn("Target has no coordinates; no candidate can be verified as comparable")
	}

	window := models.SearchWindow{RadiusMiles: radiusMiles, MonthsBack: monthsBack}
	selected, excluded := a.selectWithin(target, candidates, window, now)

	for i := 0; len(selected) < minComps && i < a.comps.MaxRadiusRelaxations; i++ {
		window.RadiusMiles *= a.comps.RadiusRelaxFactor
		window.RadiusRelaxations++
		selected, excluded = a.selectWithin(target, candidates, window, now)
		a.logger.WithFields(logrus.Fields{
			"target_id":    target.ID,
			"radius_miles": window.RadiusMiles,
			"found":        len(selected),
			"min_comps":    minComps,
		}).Info("Relaxed comparable search radius")
	}

	for i := 0; len(selected) < minComps && i < a.comps.MaxWindowRelaxations; i++ {
		window.MonthsBack *= a.comps.WindowRelaxFactor
		window.WindowRelaxations++
		selected, excluded = a.selectWithin(target, candidates, window, now)
		a.logger.WithFields(logrus.Fields{
			"target_id":   target.ID,
			"months_back": window.MonthsBack,
			"found":       len(selected),
			"min_comps":   minComps,
		}).Info("Relaxed comparable recency window")
	}

	sortComparables(selected)

	windowDays := window.MonthsBack * daysPerMonth
	for i := range selected {
		selected[i].SimilarityScore = similarity(target, selected[i], window.RadiusMiles, windowDays)
	}

	if limit := a.comps.MaxComparableProperties; limit > 0 && len(selected) > limit {
		excluded[reasonOverMax] += len(selected) - limit
		selected = selected[:limit]
	}

	fields := logrus.Fields{
		"target_id":  target.ID,
		"candidates": len(candidates),
		"selected":   len(selected),
	}
	for reason, count := range excluded {
		fields[reason] = count
	}
	a.logger.WithFields(fields).Debug("Filtered comparable candidates")

	if len(selected) < minComps {
		a.logger.WithFields(logrus.Fields{
			"target_id": target.ID,
			"found":     len(selected),
			"min_comps": minComps,
		}).Warn("Fewer comparables than required after relaxation")
	}

	return selected, window, excluded, nil
}

// selectWithin applies one pass of the distance and recency filters.
func (a *Analyzer) selectWithin(target models.PropertyRecord, candidates []models.PropertyRecord,
	window models.SearchWindow, now time.Time) ([]models.ComparableCandidate, map[string]int) {

	windowDays := window.MonthsBack * daysPerMonth
	excluded := make(map[string]int)
	seen := make(map[string]bool, len(candidates))
	var selected []models.ComparableCandidate

	for _, cand := range candidates {
		if cand.ID != "" {
			if target.ID != "" && cand.ID == target.ID {
				excluded[reasonIsTarget]++
				continue
			}
			if seen[cand.ID] {
				excluded[reasonDuplicate]++
				continue
			}
			seen[cand.ID] = true
		}

		if cand.LastSaleDate == nil {
			excluded[reasonNoSaleDate]++
			continue
		}
		if cand.LastSaleDate.After(now) {
			excluded[reasonFutureSale]++
			continue
		}
		days := int(now.Sub(*cand.LastSaleDate).Hours() / 24)
		if float64(days) > windowDays {
			excluded[reasonTooOld]++
			continue
		}

		comp := models.NewComparable(cand)
		comp.DaysSinceSold = days

		if d, ok := geo.PropertyDistance(target, cand); ok {
			if d > window.RadiusMiles {
				excluded[reasonOutOfRadius]++
				continue
			}
			comp.DistanceMiles = d
			comp.LocationVerified = true
		} else if a.comps.AllowMissingLocation {
			// Unknown distance is assumed to be at the edge of the search area.
			comp.DistanceMiles = window.RadiusMiles
		} else {
			excluded[reasonNoLocation]++
			continue
		}

		selected = append(selected, comp)
	}

	return selected, excluded
}

// sortComparables orders verified comps before unverified ones, then by
// ascending distance, days since sold and id.
func sortComparables(comps []models.ComparableCandidate) {
	sort.SliceStable(comps, func(i, j int) bool {
		a, b := comps[i], comps[j]
		if a.LocationVerified != b.LocationVerified {
			return a.LocationVerified
		}
		if a.DistanceMiles != b.DistanceMiles {
			return a.DistanceMiles < b.DistanceMiles
		}
		if a.DaysSinceSold != b.DaysSinceSold {
			return a.DaysSinceSold < b.DaysSinceSold
		}
		return a.ID < b.ID
	})
}

// similarity averages per-attribute closeness scores in [0, 1]. Attributes
// unknown on either side are skipped.
func similarity(target models.PropertyRecord, c models.ComparableCandidate, radiusMiles, windowDays float64) float64 {
	var scores []float64

	if c.LocationVerified && radiusMiles > 0 {
		scores = append(scores, closeness(c.DistanceMiles, radiusMiles))
	}
	if windowDays > 0 {
		scores = append(scores, closeness(float64(c.DaysSinceSold), windowDays))
	}
	if target.SquareFootage > 0 && c.SquareFootage > 0 {
		scores = append(scores, closeness(math.Abs(target.SquareFootage-c.SquareFootage), target.SquareFootage))
	}
	scores = append(scores, closeness(math.Abs(float64(target.Bedrooms-c.Bedrooms)), 4))
	scores = append(scores, closeness(math.Abs(target.Bathrooms-c.Bathrooms), 3))
	if target.YearBuilt > 0 && c.YearBuilt > 0 {
		scores = append(scores, closeness(math.Abs(float64(target.YearBuilt-c.YearBuilt)), 50))
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// closeness maps a difference to 1 at zero and 0 at or beyond scale.
func closeness(diff, scale float64) float64 {
	v := 1 - diff/scale
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
