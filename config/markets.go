package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	ErrMarketNotFound = errors.New("market not found")
	ErrInvalidMarket  = errors.New("invalid market")
)

// Market holds fallback pricing for a group of cities.
type Market struct {
	Name                string   `json:"name"`
	State               string   `json:"state"`
	Cities              []string `json:"cities"`
	DefaultPrice        float64  `json:"default_price"`
	DefaultPricePerSqFt float64  `json:"default_price_per_sqft"`
}

// MarketConfig is the on-disk form of the market table.
type MarketConfig struct {
	Markets []Market `json:"markets"`
}

// MarketTable is a file-backed, concurrency-safe set of markets.
type MarketTable struct {
	mu      sync.RWMutex
	path    string
	markets []Market
}

// NewMarketTable creates an empty table persisted at path.
func NewMarketTable(path string) *MarketTable {
	return &MarketTable{path: path}
}

// LoadMarketTable reads the market configuration file at path.
// A missing file yields an empty table.
func LoadMarketTable(path string) (*MarketTable, error) {
	t := NewMarketTable(path)
	if err := t.Load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load replaces the table contents with the file contents.
func (t *MarketTable) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	absPath, err := filepath.Abs(t.path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		t.markets = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read market config: %v", err)
	}

	var cfg MarketConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse market config: %v", err)
	}

	t.markets = cfg.Markets
	return nil
}

// save writes the table to disk. Callers hold the write lock.
func (t *MarketTable) save() error {
	if t.path == "" {
		return nil
	}

	absPath, err := filepath.Abs(t.path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := json.MarshalIndent(MarketConfig{Markets: t.markets}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal market config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}
	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write market config: %v", err)
	}
	return nil
}

// Markets returns a copy of every configured market.
func (t *MarketTable) Markets() []Market {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Market, len(t.markets))
	for i, m := range t.markets {
		m.Cities = append([]string(nil), m.Cities...)
		out[i] = m
	}
	return out
}

// MarketByName returns a copy of the named market, or nil.
func (t *MarketTable) MarketByName(name string) *Market {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, m := range t.markets {
		if m.Name == name {
			m.Cities = append([]string(nil), m.Cities...)
			return &m
		}
	}
	return nil
}

// UpdateMarket replaces the market with the same name or appends it, then saves.
func (t *MarketTable) UpdateMarket(market Market) error {
	if market.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMarket)
	}
	if market.DefaultPrice < 0 || market.DefaultPricePerSqFt < 0 {
		return fmt.Errorf("%w: prices must be >= 0", ErrInvalidMarket)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	found := false
	for i, existing := range t.markets {
		if existing.Name == market.Name {
			t.markets[i] = market
			found = true
			break
		}
	}
	if !found {
		t.markets = append(t.markets, market)
	}

	return t.save()
}

// DeleteMarket removes the named market and saves.
func (t *MarketTable) DeleteMarket(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, m := range t.markets {
		if m.Name == name {
			t.markets = append(t.markets[:i], t.markets[i+1:]...)
			return t.save()
		}
	}

	return fmt.Errorf("%w: %s", ErrMarketNotFound, name)
}

// Lookup finds the market covering city in state. An empty market state
// matches any state.
func (t *MarketTable) Lookup(city, state string) (Market, bool) {
	if t == nil {
		return Market{}, false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	normalized := NormalizeCity(city)
	for _, m := range t.markets {
		if m.State != "" && !strings.EqualFold(m.State, state) {
			continue
		}
		for _, c := range m.Cities {
			if NormalizeCity(c) == normalized {
				return m, true
			}
		}
	}
	return Market{}, false
}

// DefaultPrice returns the market default price for a city, if configured.
func (t *MarketTable) DefaultPrice(city, state string) (float64, bool) {
	m, ok := t.Lookup(city, state)
	if !ok || m.DefaultPrice <= 0 {
		return 0, false
	}
	return m.DefaultPrice, true
}

// DefaultPricePerSqFt returns the market default $/sqft for a city, if configured.
func (t *MarketTable) DefaultPricePerSqFt(city, state string) (float64, bool) {
	m, ok := t.Lookup(city, state)
	if !ok || m.DefaultPricePerSqFt <= 0 {
		return 0, false
	}
	return m.DefaultPricePerSqFt, true
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeCity lowercases a city name and joins its words with dashes.
func NormalizeCity(city string) string {
	s := strings.ToLower(strings.TrimSpace(city))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", "")
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
