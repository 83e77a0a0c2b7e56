// Package app wires configuration into stores, the valuation engine, the
// query service and the refresh job. Both binaries build on it.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/TejasShirsath/stocky-assignment/internal/config"
	"github.com/TejasShirsath/stocky-assignment/internal/money"
	"github.com/TejasShirsath/stocky-assignment/internal/query"
	"github.com/TejasShirsath/stocky-assignment/internal/refresh"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
	chstore "github.com/TejasShirsath/stocky-assignment/internal/storage/clickhouse"
	"github.com/TejasShirsath/stocky-assignment/internal/storage/memory"
	"github.com/TejasShirsath/stocky-assignment/internal/storage/migrations"
	pgstore "github.com/TejasShirsath/stocky-assignment/internal/storage/postgres"
	"github.com/TejasShirsath/stocky-assignment/internal/valuation"
)

// LogOutput receives component logs. The CLI points it at stderr so stdout
// carries only command output.
var LogOutput io.Writer = os.Stdout

// NewLogger returns a component logger in the "[component] " format.
func NewLogger(component string) *log.Logger {
	return log.New(LogOutput, "["+component+"] ", log.LstdFlags|log.Lshortfile)
}

// Stores holds the storage implementations selected by configuration.
type Stores struct {
	Users       storage.UserStore
	Instruments storage.InstrumentStore
	Ledger      storage.LedgerStore
	Prices      storage.PriceStore
}

// App is a fully wired service. Close releases its connections.
type App struct {
	Config  *config.Config
	Stores  Stores
	Engine  *valuation.Engine
	Service *query.Service
	Refresh *refresh.Job

	cleanup func()
}

// Options controls how Open prepares the stores.
type Options struct {
	// Migrate applies the embedded schemas before the stores are used.
	Migrate bool
}

// Open creates stores, engine, service and refresh job from cfg.
// cfg is expected to have been validated.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	rounding, err := money.ParseRoundingMode(cfg.Valuation.Rounding)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Valuation.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Valuation.Timezone, err)
	}

	stores, cleanup, err := createStores(ctx, cfg.Storage, opts.Migrate)
	if err != nil {
		return nil, err
	}

	engine := valuation.NewEngine(stores.Ledger, stores.Prices, stores.Instruments, valuation.Options{
		Location:  loc,
		Lookahead: cfg.Valuation.LookaheadDuration(),
		Rounding:  rounding,
	})

	svc := query.New(query.Options{
		Users:       stores.Users,
		Instruments: stores.Instruments,
		Ledger:      stores.Ledger,
		Valuer:      engine,
		Timeout:     cfg.Query.Timeout,
		Logger:      NewLogger("query"),
	})

	seed := cfg.Refresh.RandomSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	source, err := refresh.NewRandomSource(cfg.Refresh.MinPrice, cfg.Refresh.MaxPrice, seed)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("create price source: %w", err)
	}

	job := refresh.NewJob(refresh.Options{
		Instruments:  stores.Instruments,
		Prices:       stores.Prices,
		Source:       source,
		Interval:     cfg.Refresh.Interval,
		Concurrency:  cfg.Refresh.Concurrency,
		CycleTimeout: cfg.Refresh.CycleTimeout,
		WriteTimeout: cfg.Refresh.WriteTimeout,
		Logger:       NewLogger("refresh"),
	})

	return &App{
		Config:  cfg,
		Stores:  *stores,
		Engine:  engine,
		Service: svc,
		Refresh: job,
		cleanup: cleanup,
	}, nil
}

// Close releases database connections.
func (a *App) Close() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

// createStores creates all required stores.
func createStores(ctx context.Context, cfg config.StorageConfig, migrate bool) (*Stores, func(), error) {
	if cfg.Backend == config.BackendMemory {
		users := memory.NewUserStore()
		instruments := memory.NewInstrumentStore()
		stores := &Stores{
			Users:       users,
			Instruments: instruments,
			Ledger:      memory.NewLedgerStore(users, instruments),
			Prices:      memory.NewPriceStore(instruments),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
	}

	stores := &Stores{
		Users:       pgstore.NewUserStore(pool),
		Instruments: pgstore.NewInstrumentStore(pool),
		Ledger:      pgstore.NewLedgerStore(pool),
		Prices:      pgstore.NewPriceStore(pool),
	}

	if cfg.ClickHouseDSN == "" {
		return stores, pool.Close, nil
	}

	// ClickHouse holds price observations only; the ledger stays in PostgreSQL.
	var chConn *chstore.Conn
	if migrate {
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickHouseDSN)
	}
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	stores.Prices = chstore.NewPriceStore(chConn)

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}
