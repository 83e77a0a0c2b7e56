package migrations

import (
	"context"
	"fmt"

	"github.com/TejasShirsath/stocky-assignment/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded ledger schema in lexical order.
// Every statement uses IF NOT EXISTS, so rerunning against a migrated
// database is a no-op.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, m := range files {
		// pgx runs a multi-statement string through the simple protocol.
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
