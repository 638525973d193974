// Package geo measures distances between properties and exports comparable
// sets as GeoJSON.
package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"arvcalc/internal/models"
)

// MetersPerMile converts orb's meter distances to miles.
const MetersPerMile = 1609.344

// Point builds an orb point from latitude and longitude.
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// DistanceMiles is the great-circle distance between two coordinates.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(Point(lat1, lon1), Point(lat2, lon2)) / MetersPerMile
}

// WithinRadius reports whether the second coordinate lies within
// radiusMiles of the first.
func WithinRadius(lat1, lon1, lat2, lon2, radiusMiles float64) bool {
	return DistanceMiles(lat1, lon1, lat2, lon2) <= radiusMiles
}

// PropertyDistance returns the distance between two records, or false when
// either lacks coordinates.
func PropertyDistance(a, b models.PropertyRecord) (float64, bool) {
	if !a.HasLocation() || !b.HasLocation() {
		return 0, false
	}
	return DistanceMiles(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude), true
}

// BoundingBox returns the bound enclosing a circle of radiusMiles around a point.
func BoundingBox(lat, lon, radiusMiles float64) orb.Bound {
	return geo.NewBoundAroundPoint(Point(lat, lon), radiusMiles*MetersPerMile)
}

// ComparablesFeatureCollection maps a target and its comps. The target and
// every located comp become points; the search area becomes a polygon.
func ComparablesFeatureCollection(target models.PropertyRecord, comps []models.ComparableCandidate, radiusMiles float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if !target.HasLocation() {
		return fc
	}

	targetFeature := geojson.NewFeature(Point(*target.Latitude, *target.Longitude))
	targetFeature.Properties = geojson.Properties{
		"role":   "target",
		"id":     target.ID,
		"street": target.Street,
	}
	fc.Append(targetFeature)

	if radiusMiles > 0 {
		area := geojson.NewFeature(BoundingBox(*target.Latitude, *target.Longitude, radiusMiles).ToPolygon())
		area.Properties = geojson.Properties{
			"role":         "search_area",
			"radius_miles": radiusMiles,
		}
		fc.Append(area)
	}

	for _, c := range comps {
		if !c.HasLocation() {
			continue
		}
		f := geojson.NewFeature(Point(*c.Latitude, *c.Longitude))
		f.Properties = geojson.Properties{
			"role":             "comparable",
			"id":               c.ID,
			"street":           c.Street,
			"distance_miles":   c.DistanceMiles,
			"days_since_sold":  c.DaysSinceSold,
			"similarity_score": c.SimilarityScore,
		}
		if c.LastSalePrice != nil {
			f.Properties["last_sale_price"] = *c.LastSalePrice
		}
		if c.AdjustedValue != nil {
			f.Properties["adjusted_value"] = *c.AdjustedValue
		}
		fc.Append(f)
	}

	return fc
}
