package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/lookup"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu          sync.RWMutex
	nextID      int64
	data        map[int64][]*domain.PriceObservation // keyed by instrument_id, sorted by (recorded_at, id)
	instruments *InstrumentStore                     // optional, enables reference checks
	now         func() time.Time
}

// NewPriceStore creates a new in-memory price store. A nil instruments store
// disables the reference check.
func NewPriceStore(instruments *InstrumentStore) *PriceStore {
	return &PriceStore{
		data:        make(map[int64][]*domain.PriceObservation),
		instruments: instruments,
		now:         time.Now,
	}
}

// WithClock overrides the clock used by Latest.
func (s *PriceStore) WithClock(now func() time.Time) *PriceStore {
	s.now = now
	return s
}

// AppendObservation adds an observation and returns its ID.
func (s *PriceStore) AppendObservation(_ context.Context, instrumentID int64, price decimal.Decimal, at time.Time) (int64, error) {
	if price.IsNegative() || instrumentID <= 0 {
		return 0, storage.ErrInvalidInput
	}
	if s.instruments != nil && !s.instruments.exists(instrumentID) {
		return 0, storage.ErrUnknownInstrument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o := &domain.PriceObservation{
		ID:           s.nextID,
		InstrumentID: instrumentID,
		Price:        price,
		RecordedAt:   at,
	}

	series := append(s.data[instrumentID], o)
	// Observations usually arrive in time order; only re-sort when they don't.
	if n := len(series); n > 1 && series[n-2].Newer(o) {
		lookup.SortObservations(series)
	}
	s.data[instrumentID] = series

	return o.ID, nil
}

// LatestAsOf retrieves the observation in effect at the given time.
func (s *PriceStore) LatestAsOf(_ context.Context, instrumentID int64, at time.Time) (*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := lookup.ObservationAsOf(at, s.data[instrumentID])
	if o == nil {
		return nil, nil
	}
	obsCopy := *o
	return &obsCopy, nil
}

// Latest retrieves the most recent observation as of now.
func (s *PriceStore) Latest(ctx context.Context, instrumentID int64) (*domain.PriceObservation, error) {
	return s.LatestAsOf(ctx, instrumentID, s.now())
}

// LatestBatch resolves LatestAsOf for several instruments under one lock.
func (s *PriceStore) LatestBatch(_ context.Context, instrumentIDs []int64, at time.Time) (map[int64]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*domain.PriceObservation, len(instrumentIDs))
	for _, id := range instrumentIDs {
		if o := lookup.ObservationAsOf(at, s.data[id]); o != nil {
			obsCopy := *o
			result[id] = &obsCopy
		}
	}
	return result, nil
}

// ListUpTo retrieves all observations with recorded_at <= at for the given instruments.
func (s *PriceStore) ListUpTo(_ context.Context, instrumentIDs []int64, at time.Time) (map[int64][]*domain.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64][]*domain.PriceObservation, len(instrumentIDs))
	for _, id := range instrumentIDs {
		if _, done := result[id]; done {
			continue
		}
		var series []*domain.PriceObservation
		for _, o := range s.data[id] {
			if o.RecordedAt.After(at) {
				break
			}
			obsCopy := *o
			series = append(series, &obsCopy)
		}
		result[id] = series
	}
	return result, nil
}

var _ storage.PriceStore = (*PriceStore)(nil)
