// Command stockyctl administers the reward ledger: schema migrations,
// instrument seeding, one-off writes, a manual price refresh and reads.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/TejasShirsath/stocky-assignment/internal/app"
	"github.com/TejasShirsath/stocky-assignment/internal/config"
)

var (
	configPath  = flag.String("config", os.Getenv("STOCKY_CONFIG"), "Path to YAML config file")
	postgresDSN = flag.String("postgres-dsn", "", "PostgreSQL connection string (selects the postgres backend)")
)

func main() {
	app.LogOutput = os.Stderr

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "")
	}

	_ = config.LoadEnvFiles(".env")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
