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

// PriceStore implements storage.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *Pool
	now  func() time.Time
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(pool *Pool) *PriceStore {
	return &PriceStore{pool: pool, now: time.Now}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

const observationColumns = `id, instrument_id, price::text, recorded_at`

// AppendObservation adds an observation and returns its ID.
func (s *PriceStore) AppendObservation(ctx context.Context, instrumentID int64, price decimal.Decimal, at time.Time) (id int64, err error) {
	defer record("append_price", time.Now(), &err)

	if price.IsNegative() {
		return 0, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO price_observations (instrument_id, price, recorded_at)
		VALUES ($1, $2::numeric, $3)
		RETURNING id
	`

	err = s.pool.QueryRow(ctx, query, instrumentID, price.String(), at).Scan(&id)
	if err != nil {
		if foreignKeyConstraint(err) != "" {
			return 0, storage.ErrUnknownInstrument
		}
		if isCheckViolation(err) {
			return 0, storage.ErrInvalidInput
		}
		return 0, fmt.Errorf("insert price observation: %w", err)
	}
	return id, nil
}

// LatestAsOf retrieves the observation with the greatest recorded_at <= at,
// ties broken by the greatest ID. Returns (nil, nil) when none exists.
func (s *PriceStore) LatestAsOf(ctx context.Context, instrumentID int64, at time.Time) (o *domain.PriceObservation, err error) {
	defer record("latest_price_as_of", time.Now(), &err)

	query := `
		SELECT ` + observationColumns + `
		FROM price_observations
		WHERE instrument_id = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`

	o, err = scanObservation(s.pool.QueryRow(ctx, query, instrumentID, at))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest price as of: %w", err)
	}
	return o, nil
}

// Latest is LatestAsOf evaluated at the current time.
func (s *PriceStore) Latest(ctx context.Context, instrumentID int64) (*domain.PriceObservation, error) {
	return s.LatestAsOf(ctx, instrumentID, s.now())
}

// LatestBatch resolves LatestAsOf for several instruments in one query.
func (s *PriceStore) LatestBatch(ctx context.Context, instrumentIDs []int64, at time.Time) (result map[int64]*domain.PriceObservation, err error) {
	defer record("latest_price_batch", time.Now(), &err)

	result = make(map[int64]*domain.PriceObservation, len(instrumentIDs))
	if len(instrumentIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT DISTINCT ON (instrument_id) ` + observationColumns + `
		FROM price_observations
		WHERE instrument_id = ANY($1) AND recorded_at <= $2
		ORDER BY instrument_id, recorded_at DESC, id DESC
	`

	rows, err := s.pool.Query(ctx, query, instrumentIDs, at)
	if err != nil {
		return nil, fmt.Errorf("get latest price batch: %w", err)
	}
	defer rows.Close()

	observations, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range observations {
		result[o.InstrumentID] = o
	}
	return result, nil
}

// ListUpTo retrieves all observations with recorded_at <= at for the given
// instruments, each slice ordered by recorded_at ASC, id ASC.
func (s *PriceStore) ListUpTo(ctx context.Context, instrumentIDs []int64, at time.Time) (result map[int64][]*domain.PriceObservation, err error) {
	defer record("list_prices_up_to", time.Now(), &err)

	result = make(map[int64][]*domain.PriceObservation, len(instrumentIDs))
	if len(instrumentIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT ` + observationColumns + `
		FROM price_observations
		WHERE instrument_id = ANY($1) AND recorded_at <= $2
		ORDER BY instrument_id, recorded_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, instrumentIDs, at)
	if err != nil {
		return nil, fmt.Errorf("list prices up to: %w", err)
	}
	defer rows.Close()

	observations, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range observations {
		result[o.InstrumentID] = append(result[o.InstrumentID], o)
	}
	return result, nil
}

// scanObservation scans a single row into PriceObservation.
func scanObservation(row pgx.Row) (*domain.PriceObservation, error) {
	var o domain.PriceObservation
	var price string

	if err := row.Scan(&o.ID, &o.InstrumentID, &price, &o.RecordedAt); err != nil {
		return nil, err
	}

	var err error
	if o.Price, err = parseNumeric(price); err != nil {
		return nil, err
	}
	return &o, nil
}

// scanObservations scans multiple rows into PriceObservation slice.
func scanObservations(rows pgx.Rows) ([]*domain.PriceObservation, error) {
	var observations []*domain.PriceObservation

	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price observation: %w", err)
		}
		observations = append(observations, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observations: %w", err)
	}

	return observations, nil
}
