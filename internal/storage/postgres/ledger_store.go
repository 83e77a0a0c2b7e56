package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// LedgerStore implements storage.LedgerStore using PostgreSQL.
type LedgerStore struct {
	pool *Pool
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

const rewardColumns = `id, user_id, instrument_id, shares::text, rewarded_at`

// Append records a reward. Returns ErrInvalidInput if shares <= 0,
// ErrUnknownInstrument or ErrUnknownUser for dangling references.
func (s *LedgerStore) Append(ctx context.Context, userID, instrumentID int64, shares decimal.Decimal, at time.Time) (e *domain.RewardEntry, err error) {
	defer record("append_reward", time.Now(), &err)

	if !shares.IsPositive() {
		return nil, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO reward_entries (user_id, instrument_id, shares, rewarded_at)
		VALUES ($1, $2, $3::numeric, $4)
		RETURNING ` + rewardColumns

	e, err = scanReward(s.pool.QueryRow(ctx, query, userID, instrumentID, shares.String(), at))
	if err != nil {
		switch foreignKeyConstraint(err) {
		case "reward_entries_user_id_fkey":
			return nil, storage.ErrUnknownUser
		case "reward_entries_instrument_id_fkey":
			return nil, storage.ErrUnknownInstrument
		}
		if isCheckViolation(err) {
			return nil, storage.ErrInvalidInput
		}
		return nil, fmt.Errorf("insert reward entry: %w", err)
	}
	return e, nil
}

// FindByUserInRange retrieves entries with rewarded_at in [from, to).
func (s *LedgerStore) FindByUserInRange(ctx context.Context, userID int64, from, to time.Time) (entries []*domain.RewardEntry, err error) {
	defer record("find_rewards_in_range", time.Now(), &err)

	query := `
		SELECT ` + rewardColumns + `
		FROM reward_entries
		WHERE user_id = $1 AND rewarded_at >= $2 AND rewarded_at < $3
		ORDER BY rewarded_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("find rewards in range: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// FindByUserBefore retrieves entries with rewarded_at < to.
func (s *LedgerStore) FindByUserBefore(ctx context.Context, userID int64, to time.Time) (entries []*domain.RewardEntry, err error) {
	defer record("find_rewards_before", time.Now(), &err)

	query := `
		SELECT ` + rewardColumns + `
		FROM reward_entries
		WHERE user_id = $1 AND rewarded_at < $2
		ORDER BY rewarded_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID, to)
	if err != nil {
		return nil, fmt.Errorf("find rewards before: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// FindByUserAll retrieves all entries for a user.
func (s *LedgerStore) FindByUserAll(ctx context.Context, userID int64) (entries []*domain.RewardEntry, err error) {
	defer record("find_rewards_all", time.Now(), &err)

	query := `
		SELECT ` + rewardColumns + `
		FROM reward_entries
		WHERE user_id = $1
		ORDER BY rewarded_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("find rewards: %w", err)
	}
	defer rows.Close()

	return scanRewards(rows)
}

// scanReward scans a single row into RewardEntry.
func scanReward(row pgx.Row) (*domain.RewardEntry, error) {
	var e domain.RewardEntry
	var shares string

	if err := row.Scan(&e.ID, &e.UserID, &e.InstrumentID, &shares, &e.RewardedAt); err != nil {
		return nil, err
	}

	var err error
	if e.Shares, err = parseNumeric(shares); err != nil {
		return nil, err
	}
	return &e, nil
}

// scanRewards scans multiple rows into RewardEntry slice.
func scanRewards(rows pgx.Rows) ([]*domain.RewardEntry, error) {
	var entries []*domain.RewardEntry

	for rows.Next() {
		e, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reward entries: %w", err)
	}

	return entries, nil
}
