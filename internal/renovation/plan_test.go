package renovation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvcalc/internal/models"
)

func TestStandardPlan(t *testing.T) {
	b, err := StandardPlan(1800, 10)
	require.NoError(t, err)

	totals := b.ComputeBudget()
	assert.InDelta(t, 64800, totals.BaseCost, 1e-6)
	assert.InDelta(t, 7500, totals.Additional, 1e-6)
	assert.InDelta(t, 79530, totals.GrandTotal, 1e-6)

	_, err = StandardPlan(0, 10)
	assert.True(t, models.IsInvalidInput(err))
}

func TestCatalogCost(t *testing.T) {
	cost, err := CatalogCost(models.CategoryKitchen, "mid-range")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, cost)

	cost, err = CatalogCost(models.CategoryFlooring, " Hardwood ")
	require.NoError(t, err)
	assert.Equal(t, 12.0, cost)

	_, err = CatalogCost(models.CategoryKitchen, "gold-plated")
	assert.True(t, models.IsInvalidInput(err))

	_, err = CatalogCost(models.CategoryOther, "basic")
	assert.True(t, models.IsInvalidInput(err))
}

func TestGradesAndCatalogCopy(t *testing.T) {
	assert.Equal(t, []string{"energy-efficient", "standard"}, Grades(models.CategoryWindows))
	assert.Empty(t, Grades(models.CategoryOther))

	c := Catalog()
	c[models.CategoryKitchen]["basic"] = 1
	cost, err := CatalogCost(models.CategoryKitchen, "basic")
	require.NoError(t, err)
	assert.Equal(t, 15000.0, cost)
}

func TestAddFromCatalog(t *testing.T) {
	b, err := NewBudget(0)
	require.NoError(t, err)

	item, err := b.AddFromCatalog(models.CategoryFlooring, "hardwood", 1800)
	require.NoError(t, err)
	assert.Equal(t, "flooring (hardwood)", item.Name)
	assert.InDelta(t, 21600, item.TotalCost, 1e-6)
}

func TestFromPlan(t *testing.T) {
	t.Run("nil plan uses standard plan", func(t *testing.T) {
		b, err := FromPlan(nil, 1800, 10, 70)
		require.NoError(t, err)
		assert.InDelta(t, 79530, b.ComputeBudget().GrandTotal, 1e-6)
	})

	t.Run("explicit items", func(t *testing.T) {
		plan := &models.RenovationPlan{
			ContingencyPercent: models.Float(0),
			LineItems: []models.LineItemSpec{
				{Category: "kitchen", Grade: "basic"},
				{Category: "windows", Name: "New windows", Grade: "standard", Quantity: models.Float(10)},
				{Category: "other", Name: "Landscaping", UnitCost: models.Float(3000)},
			},
			AdditionalCosts: map[string]float64{"permits": 1000},
		}

		b, err := FromPlan(plan, 1800, 10, 65)
		require.NoError(t, err)

		totals := b.ComputeBudget()
		require.Len(t, totals.LineItems, 3)
		assert.Equal(t, "kitchen (basic)", totals.LineItems[0].Name)
		assert.Equal(t, "New windows", totals.LineItems[1].Name)
		assert.InDelta(t, 15000+5000+3000, totals.BaseCost, 1e-6)
		assert.InDelta(t, 24000, totals.GrandTotal, 1e-6)

		m, err := b.ComputeROI(100000, 200000)
		require.NoError(t, err)
		assert.Equal(t, 65.0, m.MaxOfferPercent)
	})

	t.Run("standard plan plus extras", func(t *testing.T) {
		plan := &models.RenovationPlan{
			UseStandardPlan: true,
			LineItems:       []models.LineItemSpec{{Category: "roof", Grade: "asphalt", Quantity: models.Float(1000)}},
		}
		b, err := FromPlan(plan, 1800, 10, 70)
		require.NoError(t, err)
		assert.InDelta(t, 64800+4500, b.ComputeBudget().BaseCost, 1e-6)
	})

	t.Run("explicit zero quantity is kept", func(t *testing.T) {
		plan := &models.RenovationPlan{
			ContingencyPercent: models.Float(0),
			LineItems: []models.LineItemSpec{
				{Category: "other", Name: "Deferred deck", UnitCost: models.Float(500), Quantity: models.Float(0)},
				{Category: "other", Name: "Cleanup", UnitCost: models.Float(500)},
			},
		}
		b, err := FromPlan(plan, 1800, 10, 70)
		require.NoError(t, err)

		totals := b.ComputeBudget()
		require.Len(t, totals.LineItems, 2)
		assert.Equal(t, 0.0, totals.LineItems[0].Quantity)
		assert.Equal(t, 0.0, totals.LineItems[0].TotalCost)
		assert.Equal(t, 1.0, totals.LineItems[1].Quantity)
		assert.InDelta(t, 500, totals.GrandTotal, 1e-6)
	})

	t.Run("negative quantity", func(t *testing.T) {
		plan := &models.RenovationPlan{
			LineItems: []models.LineItemSpec{{Category: "other", Name: "Bad", UnitCost: models.Float(5), Quantity: models.Float(-2)}},
		}
		_, err := FromPlan(plan, 1800, 10, 70)
		assert.True(t, models.IsInvalidInput(err))
	})

	t.Run("invalid item", func(t *testing.T) {
		plan := &models.RenovationPlan{
			LineItems: []models.LineItemSpec{{Category: "kitchen", Name: "no price"}},
		}
		_, err := FromPlan(plan, 1800, 10, 70)
		assert.True(t, models.IsInvalidInput(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		plan := &models.RenovationPlan{
			LineItems: []models.LineItemSpec{{Category: "pool", UnitCost: models.Float(1)}},
		}
		_, err := FromPlan(plan, 1800, 10, 70)
		assert.True(t, models.IsInvalidInput(err))
	})
}
