package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// CompsConfig controls comparable selection and ARV aggregation.
type CompsConfig struct {
	// Search radius around the target, in miles
	SearchRadiusMiles float64 `env:"SEARCH_RADIUS_MILES" envDefault:"2.0"`

	// Recency window for sales, in months
	MonthsBack float64 `env:"MONTHS_BACK" envDefault:"6"`

	MinComparableProperties int `env:"MIN_COMPARABLE_PROPERTIES" envDefault:"3"`
	MaxComparableProperties int `env:"MAX_COMPARABLE_PROPERTIES" envDefault:"10"`

	// Relaxation applied when too few comps survive filtering
	RadiusRelaxFactor    float64 `env:"RADIUS_RELAX_FACTOR" envDefault:"1.5"`
	MaxRadiusRelaxations int     `env:"MAX_RADIUS_RELAXATIONS" envDefault:"3"`
	WindowRelaxFactor    float64 `env:"WINDOW_RELAX_FACTOR" envDefault:"1.5"`
	MaxWindowRelaxations int     `env:"MAX_WINDOW_RELAXATIONS" envDefault:"2"`

	// Keep candidates without coordinates instead of excluding them
	AllowMissingLocation bool `env:"ALLOW_MISSING_LOCATION" envDefault:"false"`

	// Last step of the ARV fallback chain
	MarketDefaultPrice float64 `env:"MARKET_DEFAULT_PRICE" envDefault:"400000"`
}

// AdjustmentConfig holds the dollar coefficients used to restate a comp
// as if it had the target's characteristics.
type AdjustmentConfig struct {
	PerBedroom             float64 `env:"ADJ_BEDROOM" envDefault:"10000"`
	PerHalfBath            float64 `env:"ADJ_HALF_BATH" envDefault:"2500"`
	DefaultPricePerSqFt    float64 `env:"ADJ_DEFAULT_PRICE_PER_SQFT" envDefault:"150"`
	SqFtFactor             float64 `env:"ADJ_SQFT_FACTOR" envDefault:"1.0"`
	PerDecade              float64 `env:"ADJ_AGE_PER_DECADE" envDefault:"2000"`
	AgeCap                 float64 `env:"ADJ_AGE_CAP" envDefault:"20000"`
	PerTenthAcre           float64 `env:"ADJ_LOT_PER_TENTH_ACRE" envDefault:"1500"`
	MonthlyAppreciationPct float64 `env:"ADJ_MONTHLY_APPRECIATION_PERCENT" envDefault:"0"`
}

// RenovationConfig controls budget and deal metrics.
type RenovationConfig struct {
	ContingencyPercent float64 `env:"CONTINGENCY_PERCENT" envDefault:"15.0"`
	MaxOfferPercent    float64 `env:"MAX_OFFER_PERCENT" envDefault:"70"`
}

type Config struct {
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	MarketConfigPath string `env:"MARKET_CONFIG_PATH" envDefault:"config/markets.json"`

	Server struct {
		Port           string   `env:"PORT" envDefault:"5250"`
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Database struct {
		Path string `env:"DB_PATH" envDefault:"database/arv.db"`
	}

	Comps       CompsConfig
	Adjustments AdjustmentConfig
	Renovation  RenovationConfig

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of queued analysis jobs
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"100"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed saves
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration with every option at its default,
// ignoring the process environment.
func Defaults() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults do not parse: %v", err))
	}
	return cfg
}

// Validate rejects values the comps and renovation engines cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Comps.SearchRadiusMiles <= 0:
		return fmt.Errorf("SEARCH_RADIUS_MILES must be > 0, got %v", c.Comps.SearchRadiusMiles)
	case c.Comps.MonthsBack <= 0:
		return fmt.Errorf("MONTHS_BACK must be > 0, got %v", c.Comps.MonthsBack)
	case c.Comps.MinComparableProperties < 1:
		return fmt.Errorf("MIN_COMPARABLE_PROPERTIES must be >= 1, got %d", c.Comps.MinComparableProperties)
	case c.Comps.MaxComparableProperties < c.Comps.MinComparableProperties:
		return fmt.Errorf("MAX_COMPARABLE_PROPERTIES (%d) must be >= MIN_COMPARABLE_PROPERTIES (%d)",
			c.Comps.MaxComparableProperties, c.Comps.MinComparableProperties)
	case c.Comps.RadiusRelaxFactor < 1 || c.Comps.WindowRelaxFactor < 1:
		return fmt.Errorf("relax factors must be >= 1")
	case c.Renovation.ContingencyPercent < 0:
		return fmt.Errorf("CONTINGENCY_PERCENT must be >= 0, got %v", c.Renovation.ContingencyPercent)
	case c.Renovation.MaxOfferPercent <= 0 || c.Renovation.MaxOfferPercent > 100:
		return fmt.Errorf("MAX_OFFER_PERCENT must be in (0, 100], got %v", c.Renovation.MaxOfferPercent)
	case c.BatchProcessing.QueueSize < 1:
		return fmt.Errorf("BATCH_QUEUE_SIZE must be >= 1, got %d", c.BatchProcessing.QueueSize)
	case c.BatchProcessing.MaxRetries < 0 || c.BatchProcessing.RetryDelay < 0:
		return fmt.Errorf("BATCH_MAX_RETRIES and BATCH_RETRY_DELAY must be >= 0")
	case c.BatchProcessing.ProcessorCount < 1:
		return fmt.Errorf("BATCH_PROCESSOR_COUNT must be >= 1, got %d", c.BatchProcessing.ProcessorCount)
	}
	return nil
}
