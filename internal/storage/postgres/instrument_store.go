package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// InstrumentStore implements storage.InstrumentStore using PostgreSQL.
type InstrumentStore struct {
	pool *Pool
}

// NewInstrumentStore creates a new InstrumentStore.
func NewInstrumentStore(pool *Pool) *InstrumentStore {
	return &InstrumentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InstrumentStore = (*InstrumentStore)(nil)

// Upsert returns the instrument for symbol, creating it if missing.
func (s *InstrumentStore) Upsert(ctx context.Context, symbol string) (inst *domain.Instrument, err error) {
	defer record("upsert_instrument", time.Now(), &err)

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, storage.ErrInvalidInput
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO instruments (symbol)
		VALUES ($1)
		ON CONFLICT (symbol) DO UPDATE SET symbol = EXCLUDED.symbol
		RETURNING id, symbol
	`

	inst = &domain.Instrument{}
	if err = s.pool.QueryRow(ctx, query, symbol).Scan(&inst.ID, &inst.Symbol); err != nil {
		return nil, fmt.Errorf("upsert instrument: %w", err)
	}
	return inst, nil
}

// GetByID retrieves an instrument. Returns ErrNotFound if not exists.
func (s *InstrumentStore) GetByID(ctx context.Context, id int64) (inst *domain.Instrument, err error) {
	defer record("get_instrument", time.Now(), &err)

	inst = &domain.Instrument{}
	err = s.pool.QueryRow(ctx, `SELECT id, symbol FROM instruments WHERE id = $1`, id).Scan(&inst.ID, &inst.Symbol)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get instrument by id: %w", err)
	}
	return inst, nil
}

// GetBySymbol retrieves an instrument by symbol. Returns ErrNotFound if not exists.
func (s *InstrumentStore) GetBySymbol(ctx context.Context, symbol string) (inst *domain.Instrument, err error) {
	defer record("get_instrument_by_symbol", time.Now(), &err)

	inst = &domain.Instrument{}
	err = s.pool.QueryRow(ctx, `SELECT id, symbol FROM instruments WHERE symbol = $1`, symbol).Scan(&inst.ID, &inst.Symbol)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get instrument by symbol: %w", err)
	}
	return inst, nil
}

// GetByIDs retrieves the instruments with the given IDs, keyed by ID.
func (s *InstrumentStore) GetByIDs(ctx context.Context, ids []int64) (result map[int64]*domain.Instrument, err error) {
	defer record("get_instruments_by_ids", time.Now(), &err)

	result = make(map[int64]*domain.Instrument, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT id, symbol FROM instruments WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get instruments by ids: %w", err)
	}
	defer rows.Close()

	instruments, err := scanInstruments(rows)
	if err != nil {
		return nil, err
	}
	for _, inst := range instruments {
		result[inst.ID] = inst
	}
	return result, nil
}

// List retrieves all instruments ordered by ID ASC.
func (s *InstrumentStore) List(ctx context.Context) (instruments []*domain.Instrument, err error) {
	defer record("list_instruments", time.Now(), &err)

	rows, err := s.pool.Query(ctx, `SELECT id, symbol FROM instruments ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	defer rows.Close()

	return scanInstruments(rows)
}

func scanInstruments(rows pgx.Rows) ([]*domain.Instrument, error) {
	var instruments []*domain.Instrument
	for rows.Next() {
		var inst domain.Instrument
		if err := rows.Scan(&inst.ID, &inst.Symbol); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		instruments = append(instruments, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instruments: %w", err)
	}
	return instruments, nil
}
