package clickhouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/observability"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// PriceStore implements storage.PriceStore using ClickHouse.
//
// MergeTree has no sequences, so observation IDs are assigned here from
// max(id) + 1. A single process must own all writes to the table.
type PriceStore struct {
	conn *Conn
	now  func() time.Time

	mu     sync.Mutex
	nextID uint64 // 0 until loaded from the table
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn, now: time.Now}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// AppendObservation adds an observation and returns its ID.
// Instrument existence is not checked: ClickHouse has no foreign keys.
func (s *PriceStore) AppendObservation(ctx context.Context, instrumentID int64, price decimal.Decimal, at time.Time) (id int64, err error) {
	defer record("append_price", time.Now(), &err)

	if price.IsNegative() || instrumentID <= 0 {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID == 0 {
		var maxID uint64
		if err := s.conn.QueryRow(ctx, `SELECT max(id) FROM price_observations`).Scan(&maxID); err != nil {
			return 0, fmt.Errorf("load max observation id: %w", err)
		}
		s.nextID = maxID + 1
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO price_observations (id, instrument_id, price, recorded_at)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(s.nextID, uint64(instrumentID), price, at.UTC()); err != nil {
		return 0, fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}

	id = int64(s.nextID)
	s.nextID++
	return id, nil
}

// LatestAsOf retrieves the observation with the greatest recorded_at <= at,
// ties broken by the greatest ID. Returns (nil, nil) when none exists.
func (s *PriceStore) LatestAsOf(ctx context.Context, instrumentID int64, at time.Time) (o *domain.PriceObservation, err error) {
	defer record("latest_price_as_of", time.Now(), &err)

	query := `
		SELECT id, instrument_id, price, recorded_at
		FROM price_observations
		WHERE instrument_id = ? AND toUnixTimestamp64Milli(recorded_at) <= ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, uint64(instrumentID), at.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query latest price as of: %w", err)
	}
	defer rows.Close()

	observations, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, nil
	}
	return observations[0], nil
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
		SELECT id, instrument_id, price, recorded_at
		FROM price_observations
		WHERE instrument_id IN (` + idList(instrumentIDs) + `)
		  AND toUnixTimestamp64Milli(recorded_at) <= ?
		ORDER BY instrument_id, recorded_at DESC, id DESC
		LIMIT 1 BY instrument_id
	`

	rows, err := s.conn.Query(ctx, query, at.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query latest price batch: %w", err)
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
		SELECT id, instrument_id, price, recorded_at
		FROM price_observations
		WHERE instrument_id IN (` + idList(instrumentIDs) + `)
		  AND toUnixTimestamp64Milli(recorded_at) <= ?
		ORDER BY instrument_id, recorded_at ASC, id ASC
	`

	rows, err := s.conn.Query(ctx, query, at.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query prices up to: %w", err)
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

// idList renders IDs as a literal list; integers need no escaping.
func idList(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanObservations scans multiple rows.
func scanObservations(rows chRows) ([]*domain.PriceObservation, error) {
	var observations []*domain.PriceObservation

	for rows.Next() {
		var o domain.PriceObservation
		var id, instrumentID uint64

		if err := rows.Scan(&id, &instrumentID, &o.Price, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan price observation row: %w", err)
		}

		o.ID = int64(id)
		o.InstrumentID = int64(instrumentID)
		observations = append(observations, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price observation rows: %w", err)
	}

	return observations, nil
}

// record reports a query's latency and outcome; use with defer.
func record(operation string, start time.Time, err *error) {
	observability.RecordDBQuery("clickhouse", operation, time.Since(start).Seconds(), *err)
}
