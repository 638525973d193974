// Package renovation accumulates itemized renovation costs and derives deal
// metrics from a purchase price and an after-repair value.
//
// A Budget is owned by a single analysis run and is not safe for
// concurrent use.
package renovation

import (
	"math"
	"strings"

	"arvcalc/internal/models"
)

const (
	DefaultContingencyPercent = 10.0
	DefaultMaxOfferPercent    = 70.0
)

// Budget is an ordered list of line items plus named additional costs.
type Budget struct {
	contingencyPercent float64
	maxOfferPercent    float64

	items []models.RenovationLineItem

	additional      map[string]float64
	additionalOrder []string
}

// NewBudget creates an empty budget with the given contingency percent.
func NewBudget(contingencyPercent float64) (*Budget, error) {
	if contingencyPercent < 0 || math.IsNaN(contingencyPercent) {
		return nil, &models.InvalidInputError{Field: "contingency_percent", Value: contingencyPercent, Reason: "must be >= 0"}
	}
	return &Budget{
		contingencyPercent: contingencyPercent,
		maxOfferPercent:    DefaultMaxOfferPercent,
		additional:         make(map[string]float64),
	}, nil
}

// SetMaxOfferPercent changes the ARV share used by the max-offer rule.
func (b *Budget) SetMaxOfferPercent(pct float64) error {
	if pct <= 0 || pct > 100 || math.IsNaN(pct) {
		return &models.InvalidInputError{Field: "max_offer_percent", Value: pct, Reason: "must be in (0, 100]"}
	}
	b.maxOfferPercent = pct
	return nil
}

func (b *Budget) ContingencyPercent() float64 { return b.contingencyPercent }

// AddLineItem appends a priced line item. Items keep insertion order.
func (b *Budget) AddLineItem(category models.Category, name string, unitCost, quantity float64) (models.RenovationLineItem, error) {
	item, err := models.NewLineItem(category, name, unitCost, quantity)
	if err != nil {
		return models.RenovationLineItem{}, err
	}
	b.items = append(b.items, item)
	return item, nil
}

// AddFromCatalog appends a line item priced from the cost catalog.
func (b *Budget) AddFromCatalog(category models.Category, grade string, quantity float64) (models.RenovationLineItem, error) {
	cost, err := CatalogCost(category, grade)
	if err != nil {
		return models.RenovationLineItem{}, err
	}
	return b.AddLineItem(category, catalogItemName(category, grade), cost, quantity)
}

func catalogItemName(category models.Category, grade string) string {
	return string(category) + " (" + strings.ToLower(strings.TrimSpace(grade)) + ")"
}

// RemoveLineItem drops the first item with the given name and reports
// whether one was found.
func (b *Budget) RemoveLineItem(name string) bool {
	for i, item := range b.items {
		if item.Name == name {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// SetAdditionalCost sets a named non-renovation cost such as permits or
// holding costs, replacing any earlier amount under the same name.
func (b *Budget) SetAdditionalCost(name string, amount float64) error {
	if name == "" {
		return &models.InvalidInputError{Field: "additional_cost", Reason: "name is required"}
	}
	if amount < 0 || math.IsNaN(amount) {
		return &models.InvalidInputError{Field: "additional_cost", Value: amount, Reason: "must be >= 0"}
	}
	if _, ok := b.additional[name]; !ok {
		b.additionalOrder = append(b.additionalOrder, name)
	}
	b.additional[name] = amount
	return nil
}

// LineItems returns a copy of the items in insertion order.
func (b *Budget) LineItems() []models.RenovationLineItem {
	return append([]models.RenovationLineItem(nil), b.items...)
}

// ComputeBudget totals the budget. It has no side effects.
func (b *Budget) ComputeBudget() models.BudgetTotals {
	totals := models.BudgetTotals{
		LineItems:          b.LineItems(),
		AdditionalCosts:    make(map[string]float64, len(b.additional)),
		ContingencyPercent: b.contingencyPercent,
	}

	for _, item := range b.items {
		totals.BaseCost += item.TotalCost
	}
	for _, name := range b.additionalOrder {
		amount := b.additional[name]
		totals.AdditionalCosts[name] = amount
		totals.Additional += amount
	}

	totals.Subtotal = totals.BaseCost + totals.Additional
	totals.Contingency = totals.Subtotal * b.contingencyPercent / 100
	totals.GrandTotal = totals.Subtotal + totals.Contingency
	return totals
}

// ComputeROI derives deal metrics. When the total investment is zero the
// ROI is left nil and ROINote explains why; the other metrics are still
// filled in.
func (b *Budget) ComputeROI(purchasePrice, arv float64) (models.InvestmentMetrics, error) {
	if purchasePrice < 0 || math.IsNaN(purchasePrice) {
		return models.InvestmentMetrics{}, &models.InvalidInputError{Field: "purchase_price", Value: purchasePrice, Reason: "must be >= 0"}
	}
	if arv < 0 || math.IsNaN(arv) {
		return models.InvestmentMetrics{}, &models.InvalidInputError{Field: "arv", Value: arv, Reason: "must be >= 0"}
	}

	renovation := b.ComputeBudget().GrandTotal
	m := models.InvestmentMetrics{
		PurchasePrice:   purchasePrice,
		RenovationCost:  renovation,
		TotalInvestment: purchasePrice + renovation,
		Arv:             arv,
		MaxOfferPercent: b.maxOfferPercent,
		Rule70MaxPrice:  arv*b.maxOfferPercent/100 - renovation,
	}
	m.Profit = arv - m.TotalInvestment
	m.MeetsRule70 = purchasePrice <= m.Rule70MaxPrice

	if m.TotalInvestment == 0 {
		m.ROINote = models.ErrDivisionUndefined.Error()
	} else {
		m.ROIPercentage = models.Float(m.Profit / m.TotalInvestment * 100)
	}
	return m, nil
}
