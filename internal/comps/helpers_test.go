package comps

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"arvcalc/config"
	"arvcalc/internal/models"
)

var asOf = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	targetLat = 30.2672
	targetLon = -97.7431

	// Rough degrees of latitude per mile at the earth radius orb uses.
	degPerMile = 1 / 69.17
)

func newTestAnalyzer(t *testing.T, mutate func(cfg *config.Config), markets MarketLookup) *Analyzer {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(cfg)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewAnalyzer(cfg, markets, logger)
}

func testTarget() models.PropertyRecord {
	return models.PropertyRecord{
		ID:             "target",
		City:           "Austin",
		State:          "TX",
		Latitude:       models.Float(targetLat),
		Longitude:      models.Float(targetLon),
		Bedrooms:       3,
		Bathrooms:      2,
		SquareFootage:  1800,
		LotSizeAcres:   0.25,
		YearBuilt:      1995,
		EstimatedValue: models.Float(380000),
	}
}

// candidate builds a comp identical to testTarget, milesNorth of it and
// sold daysAgo days before asOf.
func candidate(id string, milesNorth float64, daysAgo int, price float64) models.PropertyRecord {
	p := testTarget()
	p.ID = id
	p.EstimatedValue = nil
	p.Latitude = models.Float(targetLat + milesNorth*degPerMile)
	p.LastSaleDate = models.Time(asOf.AddDate(0, 0, -daysAgo))
	p.LastSalePrice = models.Float(price)
	return p
}

func ids(comps []models.ComparableCandidate) []string {
	out := make([]string, len(comps))
	for i, c := range comps {
		out[i] = c.ID
	}
	return out
}

func adjustedComp(id string, value, miles float64, days int) models.ComparableCandidate {
	c := models.NewComparable(candidate(id, miles, days, value))
	c.DistanceMiles = miles
	c.DaysSinceSold = days
	c.LocationVerified = true
	c.AdjustedValue = models.Float(value)
	return c
}

type stubMarkets struct {
	price, ppsf float64
}

func (s stubMarkets) DefaultPrice(city, state string) (float64, bool) {
	return s.price, s.price > 0
}

func (s stubMarkets) DefaultPricePerSqFt(city, state string) (float64, bool) {
	return s.ppsf, s.ppsf > 0
}
