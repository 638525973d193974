package analysis

import (
	"time"

	"arvcalc/internal/models"
	"arvcalc/internal/renovation"
)

type sampleComp struct {
	id       string
	street   string
	beds     int
	baths    float64
	sqft     float64
	lot      float64
	year     int
	daysAgo  int
	price    float64
	estimate float64
	lat      float64
	lon      float64
}

var sampleComps = []sampleComp{
	{"comp-1", "125 Main St", 3, 2.0, 1750, 0.22, 1982, 50, 425000, 430000, 37.7751, -122.4192},
	{"comp-2", "130 Oak Ave", 3, 2.5, 1950, 0.28, 1988, 86, 450000, 455000, 37.7745, -122.4188},
	{"comp-3", "118 Elm St", 2, 2.0, 1600, 0.20, 1980, 132, 385000, 395000, 37.7755, -122.4198},
	{"comp-4", "140 Pine Rd", 4, 2.5, 2100, 0.30, 1990, 17, 475000, 480000, 37.7740, -122.4185},
}

// SampleRequest returns a demonstration request: a 3-bed target in
// Anytown, CA with four nearby sales dated relative to asOf, priced with
// the standard renovation plan at the default contingency.
func SampleRequest(asOf time.Time) models.AnalysisRequest {
	asOf = asOf.UTC()
	day := func(n int) *time.Time {
		return models.Time(asOf.AddDate(0, 0, -n))
	}

	target := models.PropertyRecord{
		ID:             "sample-123",
		Street:         "123 Main St",
		City:           "Anytown",
		State:          "CA",
		ZipCode:        "12345",
		Latitude:       models.Float(37.7749),
		Longitude:      models.Float(-122.4194),
		Bedrooms:       3,
		Bathrooms:      2.0,
		SquareFootage:  1800,
		LotSizeAcres:   0.25,
		YearBuilt:      1985,
		LastSaleDate:   day(1020),
		LastSalePrice:  models.Float(350000),
		EstimatedValue: models.Float(380000),
	}

	candidates := make([]models.PropertyRecord, 0, len(sampleComps))
	for _, c := range sampleComps {
		candidates = append(candidates, models.PropertyRecord{
			ID:             c.id,
			Street:         c.street,
			City:           "Anytown",
			State:          "CA",
			ZipCode:        "12345",
			Latitude:       models.Float(c.lat),
			Longitude:      models.Float(c.lon),
			Bedrooms:       c.beds,
			Bathrooms:      c.baths,
			SquareFootage:  c.sqft,
			LotSizeAcres:   c.lot,
			YearBuilt:      c.year,
			LastSaleDate:   day(c.daysAgo),
			LastSalePrice:  models.Float(c.price),
			EstimatedValue: models.Float(c.estimate),
		})
	}

	return models.AnalysisRequest{
		Target:     target,
		Candidates: candidates,
		Renovation: &models.RenovationPlan{
			UseStandardPlan:    true,
			ContingencyPercent: models.Float(renovation.DefaultContingencyPercent),
		},
		AsOf:       models.Time(asOf),
	}
}
