// Package config loads service configuration from YAML, .env files and the
// process environment.
package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration for the server and the admin CLI.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Valuation ValuationConfig `yaml:"valuation"`
	Query     QueryConfig     `yaml:"query"`
	Seed      SeedConfig      `yaml:"seed"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// StorageConfig selects and locates the persistent store.
type StorageConfig struct {
	Backend       string `yaml:"backend"`        // memory | postgres
	PostgresDSN   string `yaml:"postgres_dsn"`   // required for postgres
	ClickHouseDSN string `yaml:"clickhouse_dsn"` // optional, moves price observations to ClickHouse
}

// RefreshConfig configures the price refresh job.
type RefreshConfig struct {
	Disabled     bool            `yaml:"disabled"`
	Interval     time.Duration   `yaml:"interval"`
	Concurrency  int             `yaml:"concurrency"`
	CycleTimeout time.Duration   `yaml:"cycle_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	MinPrice     decimal.Decimal `yaml:"min_price"`
	MaxPrice     decimal.Decimal `yaml:"max_price"`
	RandomSeed   uint64          `yaml:"random_seed"` // 0 picks a time-based seed
}

// ValuationConfig configures the valuation engine.
type ValuationConfig struct {
	// Lookahead is nil when unset; an explicit 0s selects strict as-of pricing.
	Lookahead *time.Duration `yaml:"lookahead"`
	Rounding  string         `yaml:"rounding"` // half_away_from_zero | half_even
	Timezone  string         `yaml:"timezone"` // IANA name or "Local"
}

// QueryConfig configures the query facade.
type QueryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// SeedConfig lists reference data created at startup.
type SeedConfig struct {
	Instruments []string `yaml:"instruments"`
}

// Location resolves the valuation timezone.
func (c *ValuationConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// LookaheadDuration returns the configured lookahead, or the default when unset.
func (c *ValuationConfig) LookaheadDuration() time.Duration {
	if c.Lookahead == nil {
		return DefaultLookahead
	}
	return *c.Lookahead
}
