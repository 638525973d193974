package renovation

import (
	"fmt"
	"sort"

	"arvcalc/internal/models"
)

// Standard plan prices for a full cosmetic rehab.
const (
	standardKitchen      = 25000.0
	standardBathroom     = 10000.0
	standardBathrooms    = 2
	standardFlooringSqFt = 8.0
	standardPaintSqFt    = 3.0
	standardPermits      = 2500.0
	standardHolding      = 5000.0
)

// StandardPlan builds the default rehab budget for a house of sqft square
// feet: kitchen, two bathrooms, flooring and interior paint throughout,
// plus permits and holding costs.
func StandardPlan(sqft, contingencyPercent float64) (*Budget, error) {
	if sqft <= 0 {
		return nil, &models.InvalidInputError{Field: "square_footage", Value: sqft, Reason: "must be > 0 for a standard plan"}
	}
	b, err := NewBudget(contingencyPercent)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		category models.Category
		name     string
		cost     float64
		qty      float64
	}{
		{models.CategoryKitchen, "Kitchen renovation", standardKitchen, 1},
		{models.CategoryBathroom, "Bathroom renovation", standardBathroom, standardBathrooms},
		{models.CategoryFlooring, "Flooring", standardFlooringSqFt, sqft},
		{models.CategoryPaint, "Interior paint", standardPaintSqFt, sqft},
	}
	for _, s := range steps {
		if _, err := b.AddLineItem(s.category, s.name, s.cost, s.qty); err != nil {
			return nil, err
		}
	}
	if err := b.SetAdditionalCost("permits", standardPermits); err != nil {
		return nil, err
	}
	if err := b.SetAdditionalCost("holding_costs", standardHolding); err != nil {
		return nil, err
	}
	return b, nil
}

// FromPlan builds a budget from a requested plan. A nil or empty plan
// yields the standard plan for sqft.
func FromPlan(plan *models.RenovationPlan, sqft, defaultContingency, maxOfferPercent float64) (*Budget, error) {
	contingency := defaultContingency
	if plan != nil && plan.ContingencyPercent != nil {
		contingency = *plan.ContingencyPercent
	}

	var (
		b   *Budget
		err error
	)
	if plan.IsEmpty() || plan.UseStandardPlan {
		b, err = StandardPlan(sqft, contingency)
	} else {
		b, err = NewBudget(contingency)
	}
	if err != nil {
		return nil, err
	}
	if err := b.SetMaxOfferPercent(maxOfferPercent); err != nil {
		return nil, err
	}
	if plan == nil {
		return b, nil
	}

	for i, item := range plan.LineItems {
		if err := addPlanItem(b, item); err != nil {
			return nil, fmt.Errorf("line item %d: %w", i, err)
		}
	}
	// Sorted so repeated builds of the same plan produce the same order.
	for _, name := range sortedKeys(plan.AdditionalCosts) {
		if err := b.SetAdditionalCost(name, plan.AdditionalCosts[name]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func addPlanItem(b *Budget, item models.LineItemSpec) error {
	if err := item.Validate(); err != nil {
		return err
	}
	category, err := models.ParseCategory(item.Category)
	if err != nil {
		return err
	}

	// An omitted quantity means one job.
	qty := 1.0
	if item.Quantity != nil {
		qty = *item.Quantity
	}

	if item.UnitCost != nil {
		_, err = b.AddLineItem(category, item.Name, *item.UnitCost, qty)
		return err
	}

	cost, err := CatalogCost(category, item.Grade)
	if err != nil {
		return err
	}
	name := item.Name
	if name == "" {
		name = catalogItemName(category, item.Grade)
	}
	_, err = b.AddLineItem(category, name, cost, qty)
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
