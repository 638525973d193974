package models

import (
	"encoding/json"
	"sort"
	"time"
)

// PropertyRecord is a parcel together with its sale and valuation facts.
// Optional facts are pointers; a nil pointer means the value is unknown.
type PropertyRecord struct {
	ID             string     `json:"id"`
	Street         string     `json:"street"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	ZipCode        string     `json:"zip_code"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	Bedrooms       int        `json:"bedrooms"`
	Bathrooms      float64    `json:"bathrooms"`
	SquareFootage  float64    `json:"square_footage"`
	LotSizeAcres   float64    `json:"lot_size_acres"`
	YearBuilt      int        `json:"year_built"`
	LastSaleDate   *time.Time `json:"last_sale_date"`
	LastSalePrice  *float64   `json:"last_sale_price"`
	EstimatedValue *float64   `json:"estimated_value"`
}

// PricePerSqFt is derived from the current sale price and size on every call.
func (p PropertyRecord) PricePerSqFt() *float64 {
	if p.LastSalePrice == nil || *p.LastSalePrice <= 0 || p.SquareFootage <= 0 {
		return nil
	}
	v := *p.LastSalePrice / p.SquareFootage
	return &v
}

// HasLocation reports whether both coordinates are known.
func (p PropertyRecord) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// BasePrice returns the sale price, falling back to the estimated value.
func (p PropertyRecord) BasePrice() (float64, bool) {
	if p.LastSalePrice != nil && *p.LastSalePrice > 0 {
		return *p.LastSalePrice, true
	}
	if p.EstimatedValue != nil && *p.EstimatedValue > 0 {
		return *p.EstimatedValue, true
	}
	return 0, false
}

type propertyFields PropertyRecord

type propertyJSON struct {
	propertyFields
	PricePerSqFt *float64 `json:"price_per_sqft,omitempty"`
}

func (p PropertyRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(propertyJSON{
		propertyFields: propertyFields(p),
		PricePerSqFt:   p.PricePerSqFt(),
	})
}

// ComparableCandidate is a property considered as a comp for a target.
// The embedded record is never modified by the comps engine.
type ComparableCandidate struct {
	PropertyRecord
	SimilarityScore  float64            `json:"similarity_score"`
	DistanceMiles    float64            `json:"distance_miles"`
	LocationVerified bool               `json:"location_verified"`
	DaysSinceSold    int                `json:"days_since_sold"`
	Adjustments      map[string]float64 `json:"adjustments,omitempty"`
	AdjustedValue    *float64           `json:"adjusted_value,omitempty"`
}

// NewComparable wraps a record with empty comp metadata.
func NewComparable(p PropertyRecord) ComparableCandidate {
	return ComparableCandidate{PropertyRecord: p}
}

// TotalAdjustment sums every adjustment delta in key order, so the result
// does not depend on map iteration order.
func (c ComparableCandidate) TotalAdjustment() float64 {
	keys := make([]string, 0, len(c.Adjustments))
	for k := range c.Adjustments {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		total += c.Adjustments[k]
	}
	return total
}

func (c ComparableCandidate) MarshalJSON() ([]byte, error) {
	type comparableJSON struct {
		propertyJSON
		SimilarityScore  float64            `json:"similarity_score"`
		DistanceMiles    float64            `json:"distance_miles"`
		LocationVerified bool               `json:"location_verified"`
		DaysSinceSold    int                `json:"days_since_sold"`
		Adjustments      map[string]float64 `json:"adjustments,omitempty"`
		AdjustedValue    *float64           `json:"adjusted_value,omitempty"`
	}
	return json.Marshal(comparableJSON{
		propertyJSON: propertyJSON{
			propertyFields: propertyFields(c.PropertyRecord),
			PricePerSqFt:   c.PricePerSqFt(),
		},
		SimilarityScore:  c.SimilarityScore,
		DistanceMiles:    c.DistanceMiles,
		LocationVerified: c.LocationVerified,
		DaysSinceSold:    c.DaysSinceSold,
		Adjustments:      c.Adjustments,
		AdjustedValue:    c.AdjustedValue,
	})
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Time returns a pointer to t.
func Time(t time.Time) *time.Time {
	return &t
}
