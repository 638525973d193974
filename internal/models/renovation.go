package models

import (
	"fmt"
	"math"
	"strings"
)

// Category groups renovation line items.
type Category string

const (
	CategoryKitchen    Category = "kitchen"
	CategoryBathroom   Category = "bathroom"
	CategoryFlooring   Category = "flooring"
	CategoryPaint      Category = "paint"
	CategoryRoof       Category = "roof"
	CategoryWindows    Category = "windows"
	CategoryHVAC       Category = "hvac"
	CategoryElectrical Category = "electrical"
	CategoryPlumbing   Category = "plumbing"
	CategoryOther      Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryKitchen,
	CategoryBathroom,
	CategoryFlooring,
	CategoryPaint,
	CategoryRoof,
	CategoryWindows,
	CategoryHVAC,
	CategoryElectrical,
	CategoryPlumbing,
	CategoryOther,
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, nil
	}
	return "", &InvalidInputError{Field: "category", Value: s, Reason: "unknown renovation category"}
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RenovationLineItem is one priced unit of work.
type RenovationLineItem struct {
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	UnitCost  float64  `json:"unit_cost"`
	Quantity  float64  `json:"quantity"`
	TotalCost float64  `json:"total_cost"`
}

// NewLineItem validates the inputs and fills in TotalCost.
func NewLineItem(category Category, name string, unitCost, quantity float64) (RenovationLineItem, error) {
	if !category.Valid() {
		return RenovationLineItem{}, &InvalidInputError{Field: "category", Value: string(category), Reason: "unknown renovation category"}
	}
	if unitCost < 0 || math.IsNaN(unitCost) || math.IsInf(unitCost, 0) {
		return RenovationLineItem{}, &InvalidInputError{Field: "unit_cost", Value: unitCost, Reason: "must be >= 0"}
	}
	if quantity < 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return RenovationLineItem{}, &InvalidInputError{Field: "quantity", Value: quantity, Reason: "must be >= 0"}
	}
	if name == "" {
		name = string(category)
	}
	return RenovationLineItem{
		Name:      name,
		Category:  category,
		UnitCost:  unitCost,
		Quantity:  quantity,
		TotalCost: unitCost * quantity,
	}, nil
}

// BudgetTotals is a snapshot of a renovation budget.
type BudgetTotals struct {
	LineItems          []RenovationLineItem `json:"line_items"`
	AdditionalCosts    map[string]float64   `json:"additional_costs"`
	ContingencyPercent float64              `json:"contingency_percent"`
	BaseCost           float64              `json:"base_renovation_cost"`
	Additional         float64              `json:"additional_costs_total"`
	Subtotal           float64              `json:"subtotal"`
	Contingency        float64              `json:"contingency"`
	GrandTotal         float64              `json:"total"`
}

// InvestmentMetrics combines purchase price, renovation total and ARV.
type InvestmentMetrics struct {
	PurchasePrice   float64  `json:"purchase_price"`
	RenovationCost  float64  `json:"renovation_cost"`
	TotalInvestment float64  `json:"total_investment"`
	Arv             float64  `json:"arv"`
	Profit          float64  `json:"profit"`
	ROIPercentage   *float64 `json:"roi_percentage"`
	ROINote         string   `json:"roi_note,omitempty"`
	MaxOfferPercent float64  `json:"max_offer_percent"`
	Rule70MaxPrice  float64  `json:"rule_70_max_price"`
	MeetsRule70     bool     `json:"meets_rule_70"`
}

// ROI returns the ROI percentage or ErrDivisionUndefined.
func (m InvestmentMetrics) ROI() (float64, error) {
	if m.ROIPercentage == nil {
		return 0, ErrDivisionUndefined
	}
	return *m.ROIPercentage, nil
}

// LineItemSpec is a requested line item, either priced directly or by catalog grade.
type LineItemSpec struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Grade    string   `json:"grade,omitempty"`
	UnitCost *float64 `json:"unit_cost,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
}

func (s LineItemSpec) Validate() error {
	if s.UnitCost == nil && s.Grade == "" {
		return &InvalidInputError{Field: "unit_cost", Value: nil, Reason: fmt.Sprintf("line item %q needs a unit cost or a catalog grade", s.Name)}
	}
	return nil
}

// RenovationPlan is the renovation scope requested for one analysis.
type RenovationPlan struct {
	ContingencyPercent *float64           `json:"contingency_percent,omitempty"`
	LineItems          []LineItemSpec     `json:"line_items,omitempty"`
	AdditionalCosts    map[string]float64 `json:"additional_costs,omitempty"`
	UseStandardPlan    bool               `json:"use_standard_plan,omitempty"`
}

// IsEmpty reports whether the plan carries no work at all.
func (p *RenovationPlan) IsEmpty() bool {
	return p == nil || (len(p.LineItems) == 0 && len(p.AdditionalCosts) == 0 && !p.UseStandardPlan)
}
