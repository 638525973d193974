package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 2.0, cfg.Comps.SearchRadiusMiles)
	assert.Equal(t, 6.0, cfg.Comps.MonthsBack)
	assert.Equal(t, 3, cfg.Comps.MinComparableProperties)
	assert.Equal(t, 10, cfg.Comps.MaxComparableProperties)
	assert.Equal(t, 1.5, cfg.Comps.RadiusRelaxFactor)
	assert.Equal(t, 3, cfg.Comps.MaxRadiusRelaxations)
	assert.Equal(t, 2, cfg.Comps.MaxWindowRelaxations)
	assert.False(t, cfg.Comps.AllowMissingLocation)
	assert.Equal(t, 15.0, cfg.Renovation.ContingencyPercent)
	assert.Equal(t, 70.0, cfg.Renovation.MaxOfferPercent)
	assert.Equal(t, 10000.0, cfg.Adjustments.PerBedroom)
	assert.Equal(t, "5250", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SEARCH_RADIUS_MILES", "1.25")
	t.Setenv("CONTINGENCY_PERCENT", "10")
	t.Setenv("ADJ_BEDROOM", "12500")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 1.25, cfg.Comps.SearchRadiusMiles)
	assert.Equal(t, 10.0, cfg.Renovation.ContingencyPercent)
	assert.Equal(t, 12500.0, cfg.Adjustments.PerBedroom)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MIN_COMPARABLE_PROPERTIES=4\nMAX_COMPARABLE_PROPERTIES=8\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("MIN_COMPARABLE_PROPERTIES")
		os.Unsetenv("MAX_COMPARABLE_PROPERTIES")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Comps.MinComparableProperties)
	assert.Equal(t, 8, cfg.Comps.MaxComparableProperties)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "Zero radius", mutate: func(c *Config) { c.Comps.SearchRadiusMiles = 0 }},
		{name: "Negative months", mutate: func(c *Config) { c.Comps.MonthsBack = -1 }},
		{name: "Zero min comps", mutate: func(c *Config) { c.Comps.MinComparableProperties = 0 }},
		{name: "Max below min", mutate: func(c *Config) { c.Comps.MaxComparableProperties = 2 }},
		{name: "Shrinking relax factor", mutate: func(c *Config) { c.Comps.RadiusRelaxFactor = 0.5 }},
		{name: "Negative contingency", mutate: func(c *Config) { c.Renovation.ContingencyPercent = -5 }},
		{name: "Offer percent too high", mutate: func(c *Config) { c.Renovation.MaxOfferPercent = 120 }},
		{name: "No processors", mutate: func(c *Config) { c.BatchProcessing.ProcessorCount = 0 }},
		{name: "Unbuffered queue", mutate: func(c *Config) { c.BatchProcessing.QueueSize = 0 }},
		{name: "Negative retry delay", mutate: func(c *Config) { c.BatchProcessing.RetryDelay = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
