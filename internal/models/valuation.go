package models

// Confidence grades an ARV estimate.
type Confidence string

const (
	ConfidenceVeryLow  Confidence = "very-low"
	ConfidenceLow      Confidence = "low"
	ConfidenceModerate Confidence = "moderate"
	ConfidenceHigh     Confidence = "high"
)

// Rank orders confidence levels from very-low (0) to high (3).
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceModerate:
		return 2
	case ConfidenceHigh:
		return 3
	default:
		return 0
	}
}

// ValuationSource names where the ARV point estimate came from.
type ValuationSource string

const (
	SourceComparables    ValuationSource = "comparables"
	SourceTargetEstimate ValuationSource = "target-estimate"
	SourceMarketDefault  ValuationSource = "market-default"
)

// ArvResult is the after-repair value estimate for a target property.
type ArvResult struct {
	Arv              float64         `json:"arv"`
	ArvRangeLow      float64         `json:"arv_range_low"`
	ArvRangeHigh     float64         `json:"arv_range_high"`
	Confidence       Confidence      `json:"confidence"`
	PricePerSqFt     *float64        `json:"price_per_sqft"`
	CompCount        int             `json:"comp_count"`
	ValuationSource  ValuationSource `json:"valuation_source"`
	AdjustedValueMin *float64        `json:"adjusted_value_min,omitempty"`
	AdjustedValueMax *float64        `json:"adjusted_value_max,omitempty"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// SearchWindow is the radius and recency window a comp search ended up using.
type SearchWindow struct {
	RadiusMiles       float64 `json:"radius_miles"`
	MonthsBack        float64 `json:"months_back"`
	RadiusRelaxations int     `json:"radius_relaxations"`
	WindowRelaxations int     `json:"window_relaxations"`
}

// Relaxed reports whether any relaxation step was applied.
func (w SearchWindow) Relaxed() bool {
	return w.RadiusRelaxations > 0 || w.WindowRelaxations > 0
}
