package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arvcalc/internal/models"
)

func TestDistanceMiles(t *testing.T) {
	tests := []struct {
		name     string
		lat1     float64
		lon1     float64
		lat2     float64
		lon2     float64
		expected float64
		delta    float64
	}{
		{name: "Same point", lat1: 37.7749, lon1: -122.4194, lat2: 37.7749, lon2: -122.4194, expected: 0, delta: 1e-9},
		{name: "One degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, expected: 69.2, delta: 0.5},
		{name: "San Francisco to Los Angeles", lat1: 37.7749, lon1: -122.4194, lat2: 34.0522, lon2: -118.2437, expected: 347.4, delta: 3},
		{name: "Neighboring sample comp", lat1: 37.7749, lon1: -122.4194, lat2: 37.7751, lon2: -122.4192, expected: 0.0178, delta: 0.002},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMiles(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, got, tt.delta)
		})
	}
}

func TestDistanceMiles_Symmetric(t *testing.T) {
	a := DistanceMiles(32.7555, -97.3308, 32.7767, -96.7970)
	b := DistanceMiles(32.7767, -96.7970, 32.7555, -97.3308)
	assert.InDelta(t, a, b, 1e-9)
}

func TestWithinRadius(t *testing.T) {
	assert.True(t, WithinRadius(37.7749, -122.4194, 37.7751, -122.4192, 0.5))
	assert.False(t, WithinRadius(37.7749, -122.4194, 37.8549, -122.4194, 2))
	assert.True(t, WithinRadius(37.7749, -122.4194, 37.7749, -122.4194, 0))
}

func TestPropertyDistance(t *testing.T) {
	a := models.PropertyRecord{ID: "a", Latitude: models.Float(37.7749), Longitude: models.Float(-122.4194)}
	b := models.PropertyRecord{ID: "b", Latitude: models.Float(37.7745), Longitude: models.Float(-122.4188)}
	c := models.PropertyRecord{ID: "c"}

	d, ok := PropertyDistance(a, b)
	assert.True(t, ok)
	assert.Greater(t, d, 0.0)

	_, ok = PropertyDistance(a, c)
	assert.False(t, ok)
}

func TestBoundingBox(t *testing.T) {
	lat, lon := 37.7749, -122.4194
	bound := BoundingBox(lat, lon, 2)

	assert.True(t, bound.Contains(Point(lat, lon)))
	assert.True(t, bound.Contains(Point(lat+0.02, lon-0.02)))
	assert.False(t, bound.Contains(Point(lat+0.1, lon)))

	// Half height should be about 2 miles of latitude
	halfHeight := (bound.Max.Lat() - bound.Min.Lat()) / 2
	assert.InDelta(t, 2.0/69.0, halfHeight, 0.002)
}

func TestComparablesFeatureCollection(t *testing.T) {
	target := models.PropertyRecord{ID: "target", Latitude: models.Float(37.7749), Longitude: models.Float(-122.4194)}
	comps := []models.ComparableCandidate{
		{
			PropertyRecord: models.PropertyRecord{ID: "comp-1", Latitude: models.Float(37.7751), Longitude: models.Float(-122.4192), LastSalePrice: models.Float(425000)},
			DistanceMiles:  0.02,
			AdjustedValue:  models.Float(430000),
		},
		{PropertyRecord: models.PropertyRecord{ID: "unlocated"}},
	}

	fc := ComparablesFeatureCollection(target, comps, 2)
	require.Len(t, fc.Features, 3)

	assert.Equal(t, "target", fc.Features[0].Properties["role"])
	assert.Equal(t, "search_area", fc.Features[1].Properties["role"])
	assert.Equal(t, "comp-1", fc.Features[2].Properties["id"])
	assert.Equal(t, 430000.0, fc.Features[2].Properties["adjusted_value"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}

func TestComparablesFeatureCollection_TargetWithoutLocation(t *testing.T) {
	fc := ComparablesFeatureCollection(models.PropertyRecord{ID: "x"}, nil, 2)
	assert.Empty(t, fc.Features)
}
