// Package main runs the reward ledger HTTP API together with the
// scheduled price refresh job.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/app"
	"github.com/TejasShirsath/stocky-assignment/internal/config"
	"github.com/TejasShirsath/stocky-assignment/internal/httpapi"
)

func main() {
	logger := app.NewLogger("server")

	// Load .env file if exists
	if err := config.LoadEnvFiles(".env"); err != nil {
		logger.Fatalf("Failed to load .env: %v", err)
	}

	configPath := flag.String("config", os.Getenv("STOCKY_CONFIG"), "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	backend := flag.String("backend", "", "Storage backend: memory or postgres (overrides config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for price observations (overrides config)")
	noRefresh := flag.Bool("no-refresh", false, "Disable the scheduled price refresh job")
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickHouseDSN = *clickhouseDSN
	}
	if *noRefresh {
		cfg.Refresh.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	// Amounts go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Open(ctx, cfg, app.Options{Migrate: true})
	if err != nil {
		logger.Fatalf("Failed to open stores: %v", err)
	}
	defer a.Close()
	logger.Printf("Storage backend: %s", cfg.Storage.Backend)

	if len(cfg.Seed.Instruments) > 0 {
		seeded, err := a.Service.SeedInstruments(ctx, cfg.Seed.Instruments)
		if err != nil {
			logger.Fatalf("Failed to seed instruments: %v", err)
		}
		logger.Printf("Seeded %d instruments", len(seeded))
	}

	if !cfg.Refresh.Disabled {
		a.Refresh.Start(ctx)
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.Options{
			Service:       a.Service,
			RefreshStatus: a.Refresh.Status,
			Logger:        app.NewLogger("http"),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Println("Received shutdown signal, shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Printf("HTTP server error: %v", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}
	if !cfg.Refresh.Disabled {
		if err := a.Refresh.Stop(shutdownCtx); err != nil {
			logger.Printf("Refresh job shutdown error: %v", err)
		}
	}

	logger.Println("Shutdown complete")
}
