// Package query is the external surface of the reward ledger: it validates
// caller input, delegates to the stores and the valuation engine, and
// translates every failure into the apperr taxonomy.
package query

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/apperr"
	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/observability"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// Valuer computes read-side valuations. *valuation.Engine implements it.
type Valuer interface {
	TodaysRewards(ctx context.Context, userID int64) ([]domain.SymbolReward, error)
	HistoricalValuation(ctx context.Context, userID int64) ([]domain.DailyValue, error)
	CurrentStats(ctx context.Context, userID int64) (*domain.Stats, error)
	PortfolioSnapshot(ctx context.Context, userID int64) (*domain.Portfolio, error)
}

// Options contains configuration for creating a Service.
type Options struct {
	Users       storage.UserStore
	Instruments storage.InstrumentStore
	Ledger      storage.LedgerStore
	Valuer      Valuer
	Timeout     time.Duration // Default: 5s, applied when the caller set no deadline
	Now         func() time.Time
	Logger      *log.Logger
}

// Service exposes reward writes and valuation reads.
type Service struct {
	users       storage.UserStore
	instruments storage.InstrumentStore
	ledger      storage.LedgerStore
	valuer      Valuer
	timeout     time.Duration
	now         func() time.Time
	logger      *log.Logger
}

// New creates a query service.
func New(opts Options) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		users:       opts.Users,
		instruments: opts.Instruments,
		ledger:      opts.Ledger,
		valuer:      opts.Valuer,
		timeout:     timeout,
		now:         now,
		logger:      logger,
	}
}

// CreateUser registers a user with a unique email.
func (s *Service) CreateUser(ctx context.Context, name, email string) (user *domain.User, err error) {
	const op = "create-user"
	ctx, done := s.begin(ctx, op, &err)
	defer done()

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, apperr.Validation(op, "Name and email are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation(op, "email is invalid")
	}

	user, err = s.users.Create(ctx, name, email)
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		return nil, apperr.Conflict(op, "Email already exists")
	case errors.Is(err, storage.ErrInvalidInput):
		return nil, apperr.Validation(op, "Name and email are required")
	case err != nil:
		return nil, apperr.Store(op, err)
	}
	return user, nil
}

// CreateReward grants shares of the instrument named by symbol to a user.
// RewardedAt is assigned here, never taken from the caller.
func (s *Service) CreateReward(ctx context.Context, userID int64, symbol string, shares decimal.Decimal) (entry *domain.RewardEntry, err error) {
	const op = "create-reward"
	ctx, done := s.begin(ctx, op, &err)
	defer done()

	symbol = strings.TrimSpace(symbol)
	if userID <= 0 || symbol == "" {
		return nil, apperr.Validation(op, "userId, stockSymbol and shares are required")
	}
	if !shares.IsPositive() {
		return nil, apperr.Validation(op, "shares must be greater than zero")
	}

	inst, err := s.instruments.GetBySymbol(ctx, symbol)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.NotFound(op, "stock")
	case err != nil:
		return nil, apperr.Store(op, err)
	}

	entry, err = s.ledger.Append(ctx, userID, inst.ID, shares, s.now())
	switch {
	case errors.Is(err, storage.ErrUnknownUser):
		return nil, apperr.NotFound(op, "user")
	case errors.Is(err, storage.ErrUnknownInstrument):
		return nil, apperr.NotFound(op, "stock")
	case errors.Is(err, storage.ErrInvalidInput):
		return nil, apperr.Validation(op, "shares must be greater than zero")
	case err != nil:
		return nil, apperr.Store(op, err)
	}
	return entry, nil
}

// TodaysRewards returns today's rewards for a user, newest first.
func (s *Service) TodaysRewards(ctx context.Context, userID int64) (rewards []domain.SymbolReward, err error) {
	ctx, done := s.begin(ctx, "today-stocks", &err)
	defer done()
	return s.valuer.TodaysRewards(ctx, userID)
}

// HistoricalValuation returns the per-day INR value of past rewards.
func (s *Service) HistoricalValuation(ctx context.Context, userID int64) (days []domain.DailyValue, err error) {
	ctx, done := s.begin(ctx, "historical-inr", &err)
	defer done()
	return s.valuer.HistoricalValuation(ctx, userID)
}

// CurrentStats returns today's shares per symbol and the current portfolio value.
func (s *Service) CurrentStats(ctx context.Context, userID int64) (stats *domain.Stats, err error) {
	ctx, done := s.begin(ctx, "stats", &err)
	defer done()
	return s.valuer.CurrentStats(ctx, userID)
}

// PortfolioSnapshot returns holdings per symbol at the latest prices.
func (s *Service) PortfolioSnapshot(ctx context.Context, userID int64) (portfolio *domain.Portfolio, err error) {
	ctx, done := s.begin(ctx, "portfolio", &err)
	defer done()
	return s.valuer.PortfolioSnapshot(ctx, userID)
}

// SeedInstruments ensures every symbol exists. Symbols are trimmed and upper-cased;
// blanks are ignored. Returns the instruments in input order without duplicates.
func (s *Service) SeedInstruments(ctx context.Context, symbols []string) (seeded []*domain.Instrument, err error) {
	const op = "seed-instruments"
	ctx, done := s.begin(ctx, op, &err)
	defer done()

	seen := make(map[string]bool, len(symbols))
	for _, raw := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true

		inst, err := s.instruments.Upsert(ctx, symbol)
		if err != nil {
			return seeded, apperr.Store(op, err)
		}
		seeded = append(seeded, inst)
	}
	return seeded, nil
}

// begin bounds ctx by the service timeout and returns a func that classifies
// *errp, logs server-side failures and records the call duration.
func (s *Service) begin(ctx context.Context, op string, errp *error) (context.Context, func()) {
	start := time.Now()
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}

	return ctx, func() {
		cancel()

		outcome := "ok"
		if *errp != nil {
			var classified *apperr.Error
			if !errors.As(*errp, &classified) {
				*errp = apperr.Internal(op, *errp)
			}
			kind := apperr.KindOf(*errp)
			outcome = kind.String()
			if kind == apperr.KindStore || kind == apperr.KindInternal {
				s.logger.Printf("%s failed: %v", op, *errp)
			}
		}
		observability.RecordQuery(op, outcome, time.Since(start).Seconds())
	}
}
