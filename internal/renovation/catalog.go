package renovation

import (
	"sort"
	"strings"

	"arvcalc/internal/models"
)

// catalog holds unit costs by category and grade. Flooring, paint and roof
// grades are priced per square foot, windows per window, everything else
// per job.
var catalog = map[models.Category]map[string]float64{
	models.CategoryKitchen: {
		"basic":     15000,
		"mid-range": 30000,
		"high-end":  50000,
	},
	models.CategoryBathroom: {
		"basic":     7500,
		"mid-range": 15000,
		"high-end":  25000,
	},
	models.CategoryFlooring: {
		"carpet":   4.5,
		"laminate": 7,
		"hardwood": 12,
		"tile":     10,
	},
	models.CategoryPaint: {
		"interior": 3,
		"exterior": 4,
	},
	models.CategoryRoof: {
		"asphalt": 4.5,
		"metal":   10,
		"tile":    15,
	},
	models.CategoryWindows: {
		"standard":         500,
		"energy-efficient": 750,
	},
	models.CategoryHVAC: {
		"repair":  2500,
		"replace": 7500,
	},
	models.CategoryElectrical: {
		"update": 5000,
		"rewire": 15000,
	},
	models.CategoryPlumbing: {
		"update":  5000,
		"replace": 15000,
	},
}

// CatalogCost returns the unit cost of a category and grade.
func CatalogCost(category models.Category, grade string) (float64, error) {
	grades, ok := catalog[category]
	if !ok {
		return 0, &models.InvalidInputError{Field: "category", Value: string(category), Reason: "no catalog prices for category"}
	}
	cost, ok := grades[strings.ToLower(strings.TrimSpace(grade))]
	if !ok {
		return 0, &models.InvalidInputError{Field: "grade", Value: grade, Reason: "unknown grade for " + string(category)}
	}
	return cost, nil
}

// Grades lists the catalog grades of a category in alphabetical order.
func Grades(category models.Category) []string {
	grades := make([]string, 0, len(catalog[category]))
	for g := range catalog[category] {
		grades = append(grades, g)
	}
	sort.Strings(grades)
	return grades
}

// Catalog returns a copy of the full price catalog.
func Catalog() map[models.Category]map[string]float64 {
	out := make(map[models.Category]map[string]float64, len(catalog))
	for c, grades := range catalog {
		g := make(map[string]float64, len(grades))
		for k, v := range grades {
			g[k] = v
		}
		out[c] = g
	}
	return out
}
