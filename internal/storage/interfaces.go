package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
)

// UserStore provides access to users storage.
type UserStore interface {
	// Create registers a user. Returns ErrDuplicateKey if email is taken.
	Create(ctx context.Context, name, email string) (*domain.User, error)

	// GetByID retrieves a user. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// InstrumentStore provides access to instruments reference data.
type InstrumentStore interface {
	// Upsert returns the instrument for symbol, creating it if missing.
	Upsert(ctx context.Context, symbol string) (*domain.Instrument, error)

	// GetByID retrieves an instrument. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Instrument, error)

	// GetBySymbol retrieves an instrument by symbol. Returns ErrNotFound if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.Instrument, error)

	// GetByIDs retrieves the instruments with the given IDs, keyed by ID.
	// Unknown IDs are absent from the result.
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Instrument, error)

	// List retrieves all instruments ordered by ID ASC.
	List(ctx context.Context) ([]*domain.Instrument, error)
}

// LedgerStore provides access to the append-only reward_entries ledger.
type LedgerStore interface {
	// Append records a reward. Returns ErrInvalidInput if shares <= 0,
	// ErrUnknownInstrument or ErrUnknownUser for dangling references.
	Append(ctx context.Context, userID, instrumentID int64, shares decimal.Decimal, at time.Time) (*domain.RewardEntry, error)

	// FindByUserInRange retrieves entries with rewarded_at in [from, to),
	// ordered by rewarded_at ASC, id ASC.
	FindByUserInRange(ctx context.Context, userID int64, from, to time.Time) ([]*domain.RewardEntry, error)

	// FindByUserBefore retrieves entries with rewarded_at < to, ordered by rewarded_at ASC, id ASC.
	FindByUserBefore(ctx context.Context, userID int64, to time.Time) ([]*domain.RewardEntry, error)

	// FindByUserAll retrieves all entries for a user. Order is not guaranteed.
	FindByUserAll(ctx context.Context, userID int64) ([]*domain.RewardEntry, error)
}

// PriceStore provides access to the append-only price_observations time-series.
type PriceStore interface {
	// AppendObservation adds an observation and returns its ID.
	// Returns ErrInvalidInput if price < 0.
	AppendObservation(ctx context.Context, instrumentID int64, price decimal.Decimal, at time.Time) (int64, error)

	// LatestAsOf retrieves the observation with the greatest recorded_at <= at,
	// ties broken by the greatest ID. Returns (nil, nil) when none exists.
	LatestAsOf(ctx context.Context, instrumentID int64, at time.Time) (*domain.PriceObservation, error)

	// Latest is LatestAsOf evaluated at the current time.
	Latest(ctx context.Context, instrumentID int64) (*domain.PriceObservation, error)

	// LatestBatch resolves LatestAsOf for several instruments in one read.
	// Instruments without an observation are absent from the result.
	LatestBatch(ctx context.Context, instrumentIDs []int64, at time.Time) (map[int64]*domain.PriceObservation, error)

	// ListUpTo retrieves all observations with recorded_at <= at for the given
	// instruments, each slice ordered by recorded_at ASC, id ASC.
	ListUpTo(ctx context.Context, instrumentIDs []int64, at time.Time) (map[int64][]*domain.PriceObservation, error)
}
