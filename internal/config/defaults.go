package config

import (
	"time"

	"github.com/shopspring/decimal"
)

// Default values for optional configuration fields.
const (
	DefaultHTTPAddr            = ":3000"
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultBackend             = BackendMemory
	DefaultRefreshInterval     = 24 * time.Hour
	DefaultRefreshConcurrency  = 4
	DefaultRefreshCycleTimeout = 5 * time.Minute
	DefaultRefreshWriteTimeout = 10 * time.Second
	DefaultLookahead           = 24 * time.Hour
	DefaultRounding            = "half_away_from_zero"
	DefaultTimezone            = "Local"
	DefaultQueryTimeout        = 5 * time.Second
)

// Default synthetic price range in INR.
var (
	DefaultMinPrice = decimal.NewFromInt(1000)
	DefaultMaxPrice = decimal.NewFromInt(5000)
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// HTTP defaults
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultHTTPAddr
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Storage defaults
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultRefreshInterval
	}
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = DefaultRefreshConcurrency
	}
	if c.Refresh.CycleTimeout == 0 {
		c.Refresh.CycleTimeout = DefaultRefreshCycleTimeout
	}
	if c.Refresh.WriteTimeout == 0 {
		c.Refresh.WriteTimeout = DefaultRefreshWriteTimeout
	}
	if c.Refresh.MinPrice.IsZero() && c.Refresh.MaxPrice.IsZero() {
		c.Refresh.MinPrice = DefaultMinPrice
		c.Refresh.MaxPrice = DefaultMaxPrice
	}

	// Valuation defaults
	if c.Valuation.Lookahead == nil {
		lookahead := DefaultLookahead
		c.Valuation.Lookahead = &lookahead
	}
	if c.Valuation.Rounding == "" {
		c.Valuation.Rounding = DefaultRounding
	}
	if c.Valuation.Timezone == "" {
		c.Valuation.Timezone = DefaultTimezone
	}

	// Query defaults
	if c.Query.Timeout == 0 {
		c.Query.Timeout = DefaultQueryTimeout
	}
}
