// Package valuation computes reward valuations from the ledger and the price
// time-series. The engine holds no state of its own: every call reads the
// stores afresh and derives its answer from append-only data.
package valuation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/apperr"
	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/lookup"
	"github.com/TejasShirsath/stocky-assignment/internal/money"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// DefaultLookahead is how far past a reward's timestamp a historical price may be taken from.
const DefaultLookahead = 24 * time.Hour

const dateLayout = "2006-01-02"

// Options configures an Engine.
type Options struct {
	Now      func() time.Time
	Location *time.Location // calendar used for "today" and daily buckets
	// Lookahead is used as given; zero selects strict as-of matching.
	Lookahead time.Duration
	Rounding  money.RoundingMode
}

// DefaultOptions returns options with the 24h lookahead and half-away-from-zero rounding.
func DefaultOptions() Options {
	return Options{
		Now:       time.Now,
		Location:  time.Local,
		Lookahead: DefaultLookahead,
		Rounding:  money.HalfAwayFromZero,
	}
}

// Engine answers valuation queries for a single user at a time.
type Engine struct {
	ledger      storage.LedgerStore
	prices      storage.PriceStore
	instruments storage.InstrumentStore

	now       func() time.Time
	loc       *time.Location
	lookahead time.Duration
	rounding  money.RoundingMode
}

// NewEngine creates an engine over the given stores.
func NewEngine(ledger storage.LedgerStore, prices storage.PriceStore, instruments storage.InstrumentStore, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Rounding == "" {
		opts.Rounding = money.HalfAwayFromZero
	}
	return &Engine{
		ledger:      ledger,
		prices:      prices,
		instruments: instruments,
		now:         opts.Now,
		loc:         opts.Location,
		lookahead:   opts.Lookahead,
		rounding:    opts.Rounding,
	}
}

// TodayStart returns local midnight of the day containing now.
func (e *Engine) TodayStart(now time.Time) time.Time {
	local := now.In(e.loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// TodaysRewards returns the user's entries in [todayStart, now) with their
// symbols, newest first.
func (e *Engine) TodaysRewards(ctx context.Context, userID int64) ([]domain.SymbolReward, error) {
	const op = "today-stocks"
	if err := validateUser(op, userID); err != nil {
		return nil, err
	}

	now := e.now()
	entries, err := e.ledger.FindByUserInRange(ctx, userID, e.TodayStart(now), now)
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	symbols, err := e.symbols(ctx, op, instrumentIDs(entries))
	if err != nil {
		return nil, err
	}

	result := make([]domain.SymbolReward, 0, len(entries))
	for _, entry := range entries {
		result = append(result, domain.SymbolReward{RewardEntry: *entry, Symbol: symbols[entry.InstrumentID]})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RewardedAt.Equal(result[j].RewardedAt) {
			return result[i].RewardedAt.After(result[j].RewardedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// HistoricalValuation values every past local day on which the user was rewarded.
// Process:
//  1. Load entries with rewarded_at < todayStart
//  2. Fetch every observation up to max(rewarded_at) + lookahead in one read
//  3. Price each entry as of rewarded_at + lookahead (zero when none)
//  4. Sum per local date and round each day
//
// Returns days in ascending date order; an empty ledger yields an empty slice.
func (e *Engine) HistoricalValuation(ctx context.Context, userID int64) ([]domain.DailyValue, error) {
	const op = "historical-inr"
	if err := validateUser(op, userID); err != nil {
		return nil, err
	}

	entries, err := e.ledger.FindByUserBefore(ctx, userID, e.TodayStart(e.now()))
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	if len(entries) == 0 {
		return []domain.DailyValue{}, nil
	}

	cutoff := entries[0].RewardedAt
	for _, entry := range entries[1:] {
		if entry.RewardedAt.After(cutoff) {
			cutoff = entry.RewardedAt
		}
	}
	series, err := e.prices.ListUpTo(ctx, instrumentIDs(entries), cutoff.Add(e.lookahead))
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	sums := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		price := lookup.PriceAsOf(entry.RewardedAt.Add(e.lookahead), series[entry.InstrumentID])
		date := entry.RewardedAt.In(e.loc).Format(dateLayout)
		sums[date] = sums[date].Add(entry.Shares.Mul(price))
	}

	result := make([]domain.DailyValue, 0, len(sums))
	for date, sum := range sums {
		result = append(result, domain.DailyValue{Date: date, TotalValue: e.rounding.Round(sum)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

// CurrentStats returns shares rewarded today per symbol and the all-time
// holdings valued at the latest prices.
func (e *Engine) CurrentStats(ctx context.Context, userID int64) (*domain.Stats, error) {
	const op = "stats"
	if err := validateUser(op, userID); err != nil {
		return nil, err
	}

	now := e.now()
	today, err := e.ledger.FindByUserInRange(ctx, userID, e.TodayStart(now), now)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	all, err := e.ledger.FindByUserAll(ctx, userID)
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	symbols, err := e.symbols(ctx, op, instrumentIDs(today))
	if err != nil {
		return nil, err
	}
	todayTotals := sumShares(today)
	shares := make([]domain.SymbolShares, 0, len(todayTotals))
	for id, total := range todayTotals {
		shares = append(shares, domain.SymbolShares{Symbol: symbols[id], TotalShares: total})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Symbol < shares[j].Symbol })

	holdings := sumShares(all)
	latest, err := e.prices.LatestBatch(ctx, keys(holdings), now)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	value := decimal.Zero
	for id, total := range holdings {
		value = value.Add(total.Mul(priceOf(latest[id])))
	}

	return &domain.Stats{
		SharesRewardedToday:   shares,
		CurrentPortfolioValue: e.rounding.Round(value),
	}, nil
}

// PortfolioSnapshot groups every entry the user ever received by symbol and
// values each group at its instrument's latest price.
func (e *Engine) PortfolioSnapshot(ctx context.Context, userID int64) (*domain.Portfolio, error) {
	const op = "portfolio"
	if err := validateUser(op, userID); err != nil {
		return nil, err
	}

	now := e.now()
	all, err := e.ledger.FindByUserAll(ctx, userID)
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	totals := sumShares(all)
	ids := keys(totals)
	symbols, err := e.symbols(ctx, op, ids)
	if err != nil {
		return nil, err
	}
	// Single read so each instrument has exactly one price in this response.
	latest, err := e.prices.LatestBatch(ctx, ids, now)
	if err != nil {
		return nil, apperr.Store(op, err)
	}

	holdings := make([]domain.Holding, 0, len(totals))
	total := decimal.Zero
	for id, shares := range totals {
		price := priceOf(latest[id])
		value := e.rounding.Value(shares, price)
		total = total.Add(value)
		holdings = append(holdings, domain.Holding{
			Symbol:          symbols[id],
			TotalShares:     shares,
			CurrentPriceInr: price,
			CurrentValueInr: value,
		})
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })

	return &domain.Portfolio{
		Holdings:            holdings,
		TotalPortfolioValue: money.Format(e.rounding.Round(total)),
	}, nil
}

func (e *Engine) symbols(ctx context.Context, op string, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	instruments, err := e.instruments.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	symbols := make(map[int64]string, len(ids))
	for _, id := range ids {
		inst, ok := instruments[id]
		if !ok {
			return nil, apperr.Internal(op, fmt.Errorf("ledger references missing instrument %d", id))
		}
		symbols[id] = inst.Symbol
	}
	return symbols, nil
}

func validateUser(op string, userID int64) error {
	if userID <= 0 {
		return apperr.Validation(op, "userId must be a positive integer")
	}
	return nil
}

func priceOf(o *domain.PriceObservation) decimal.Decimal {
	if o == nil {
		return decimal.Zero
	}
	return o.Price
}

func sumShares(entries []*domain.RewardEntry) map[int64]decimal.Decimal {
	totals := make(map[int64]decimal.Decimal)
	for _, entry := range entries {
		totals[entry.InstrumentID] = totals[entry.InstrumentID].Add(entry.Shares)
	}
	return totals
}

// instrumentIDs returns the distinct instruments referenced by entries, ascending.
func instrumentIDs(entries []*domain.RewardEntry) []int64 {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for _, entry := range entries {
		if _, ok := seen[entry.InstrumentID]; ok {
			continue
		}
		seen[entry.InstrumentID] = struct{}{}
		ids = append(ids, entry.InstrumentID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func keys(m map[int64]decimal.Decimal) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
