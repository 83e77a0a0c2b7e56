package config

import (
	"errors"
	"fmt"

	"github.com/TejasShirsath/stocky-assignment/internal/money"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendMemory, BackendPostgres, c.Storage.Backend)
	}
	if c.Storage.ClickHouseDSN != "" && c.Storage.Backend != BackendPostgres {
		return errors.New("storage.clickhouse_dsn requires the postgres backend")
	}

	if c.Refresh.Interval <= 0 {
		return errors.New("refresh.interval must be > 0")
	}
	if c.Refresh.Concurrency < 1 {
		return errors.New("refresh.concurrency must be >= 1")
	}
	if c.Refresh.CycleTimeout <= 0 {
		return errors.New("refresh.cycle_timeout must be > 0")
	}
	if c.Refresh.WriteTimeout <= 0 || c.Refresh.WriteTimeout > c.Refresh.CycleTimeout {
		return fmt.Errorf("refresh.write_timeout must be in (0, %v]", c.Refresh.CycleTimeout)
	}
	if c.Refresh.MinPrice.IsNegative() || !c.Refresh.MaxPrice.GreaterThan(c.Refresh.MinPrice) {
		return fmt.Errorf("refresh price range [%s, %s) is invalid", c.Refresh.MinPrice, c.Refresh.MaxPrice)
	}

	if c.Valuation.Lookahead != nil && *c.Valuation.Lookahead < 0 {
		return errors.New("valuation.lookahead must be >= 0")
	}
	if _, err := money.ParseRoundingMode(c.Valuation.Rounding); err != nil {
		return fmt.Errorf("valuation.rounding: %w", err)
	}
	if _, err := c.Valuation.Location(); err != nil {
		return fmt.Errorf("valuation.timezone: %w", err)
	}

	if c.Query.Timeout <= 0 {
		return errors.New("query.timeout must be > 0")
	}

	return nil
}
