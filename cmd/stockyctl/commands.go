package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/app"
	"github.com/TejasShirsath/stocky-assignment/internal/apperr"
	"github.com/TejasShirsath/stocky-assignment/internal/config"
	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/money"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&seedCmd{},
	&createUserCmd{},
	&rewardCmd{},
	&refreshCmd{},
	&readCmd{name: "today", synopsis: "print today's rewards for a user", read: readToday},
	&readCmd{name: "historical", synopsis: "print per-day INR value of rewards before today", read: readHistorical},
	&readCmd{name: "stats", synopsis: "print today's share totals and current portfolio value", read: readStats},
	&portfolioCmd{},
}

// loadConfig applies the global flags on top of the config file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		return nil, err
	}
	if *postgresDSN != "" {
		cfg.Storage.Backend = config.BackendPostgres
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func open(ctx context.Context, migrate bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, app.Options{Migrate: migrate})
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// fail reports err; caller mistakes exit with a usage error.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %s\n", apperr.Message(err))
	if errors.Is(err, apperr.ErrValidation) {
		return subcommands.ExitUsageError
	}
	fmt.Fprintf(os.Stderr, "  cause: %v\n", err)
	return subcommands.ExitFailure
}

type migrateCmd struct{}

func (*migrateCmd) Name() string             { return "migrate" }
func (*migrateCmd) Synopsis() string         { return "apply the embedded database schemas" }
func (*migrateCmd) Usage() string            { return "migrate\n\n  Applies PostgreSQL and, when configured, ClickHouse migrations.\n" }
func (*migrateCmd) SetFlags(_ *flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	return printJSON(map[string]string{"backend": a.Config.Storage.Backend, "status": "migrated"})
}

type seedCmd struct {
	symbols string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create instruments" }
func (*seedCmd) Usage() string {
	return `seed [-symbols RELIANCE,TCS]

  Creates the listed instruments, or the config's seed.instruments when
  -symbols is empty. Existing symbols are left untouched.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbols, "symbols", "", "Comma-separated instrument symbols")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	symbols := a.Config.Seed.Instruments
	if c.symbols != "" {
		symbols = strings.Split(c.symbols, ",")
	}
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no symbols given and seed.instruments is empty")
		return subcommands.ExitUsageError
	}

	seeded, err := a.Service.SeedInstruments(ctx, symbols)
	if err != nil {
		return fail(err)
	}
	return printJSON(seeded)
}

type createUserCmd struct {
	name  string
	email string
}

func (*createUserCmd) Name() string     { return "create-user" }
func (*createUserCmd) Synopsis() string { return "register a reward recipient" }
func (*createUserCmd) Usage() string    { return "create-user -name <name> -email <email>\n" }

func (c *createUserCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "User name (required)")
	f.StringVar(&c.email, "email", "", "Unique email address (required)")
}

func (c *createUserCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	user, err := a.Service.CreateUser(ctx, c.name, c.email)
	if err != nil {
		return fail(err)
	}
	return printJSON(user)
}

type rewardCmd struct {
	user   int64
	symbol string
	shares string
}

func (*rewardCmd) Name() string     { return "reward" }
func (*rewardCmd) Synopsis() string { return "grant shares of an instrument to a user" }
func (*rewardCmd) Usage() string {
	return "reward -user <id> -symbol <symbol> -shares <decimal>\n"
}

func (c *rewardCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.user, "user", 0, "User ID (required)")
	f.StringVar(&c.symbol, "symbol", "", "Instrument symbol (required)")
	f.StringVar(&c.shares, "shares", "", "Share quantity, e.g. 1.5 (required)")
}

func (c *rewardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	shares := decimal.Zero
	if c.shares != "" {
		parsed, err := decimal.NewFromString(c.shares)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -shares %q: %v\n", c.shares, err)
			return subcommands.ExitUsageError
		}
		shares = parsed
	}

	a, err := open(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	entry, err := a.Service.CreateReward(ctx, c.user, c.symbol, shares)
	if err != nil {
		return fail(err)
	}
	return printJSON(entry)
}

type refreshCmd struct{}

func (*refreshCmd) Name() string             { return "refresh" }
func (*refreshCmd) Synopsis() string         { return "run one price refresh cycle" }
func (*refreshCmd) Usage() string            { return "refresh\n\n  Appends one price observation per instrument and exits.\n" }
func (*refreshCmd) SetFlags(_ *flag.FlagSet) {}

func (*refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	result, err := a.Refresh.RunOnce(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return printJSON(result)
}

// readCmd runs one user-scoped read and prints its result.
type readCmd struct {
	name     string
	synopsis string
	read     func(ctx context.Context, a *app.App, userID int64) (any, error)

	user int64
}

func (c *readCmd) Name() string     { return c.name }
func (c *readCmd) Synopsis() string { return c.synopsis }
func (c *readCmd) Usage() string    { return c.name + " -user <id>\n" }

func (c *readCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.user, "user", 0, "User ID (required)")
}

func (c *readCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	out, err := c.read(ctx, a, c.user)
	if err != nil {
		return fail(err)
	}
	return printJSON(out)
}

func readToday(ctx context.Context, a *app.App, userID int64) (any, error) {
	stocks, err := a.Service.TodaysRewards(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stocks == nil {
		stocks = []domain.SymbolReward{}
	}
	return map[string]any{"stocks": stocks}, nil
}

func readHistorical(ctx context.Context, a *app.App, userID int64) (any, error) {
	days, err := a.Service.HistoricalValuation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"userId": userID, "historicalRewards": days}, nil
}

func readStats(ctx context.Context, a *app.App, userID int64) (any, error) {
	return a.Service.CurrentStats(ctx, userID)
}

type portfolioCmd struct {
	user int64
	text bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "print a user's holdings valued at latest prices" }
func (*portfolioCmd) Usage() string    { return "portfolio -user <id> [-text]\n" }

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.user, "user", 0, "User ID (required)")
	f.BoolVar(&c.text, "text", false, "Print a table with INR-formatted amounts instead of JSON")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := open(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	p, err := a.Service.PortfolioSnapshot(ctx, c.user)
	if err != nil {
		return fail(err)
	}
	if !c.text {
		return printJSON(p)
	}

	fmt.Printf("%-12s %14s %16s %18s\n", "SYMBOL", "SHARES", "PRICE", "VALUE")
	for _, h := range p.Holdings {
		fmt.Printf("%-12s %14s %16s %18s\n",
			h.Symbol, h.TotalShares.String(), money.Display(h.CurrentPriceInr), money.Display(h.CurrentValueInr))
	}
	total, err := decimal.NewFromString(p.TotalPortfolioValue)
	if err != nil {
		total = decimal.Zero
	}
	fmt.Printf("%-12s %51s\n", "TOTAL", money.Display(total))
	return subcommands.ExitSuccess
}
