package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// InstrumentStore is an in-memory implementation of storage.InstrumentStore.
type InstrumentStore struct {
	mu       sync.RWMutex
	nextID   int64
	data     map[int64]*domain.Instrument // keyed by id
	bySymbol map[string]int64
}

// NewInstrumentStore creates a new in-memory instrument store.
func NewInstrumentStore() *InstrumentStore {
	return &InstrumentStore{
		data:     make(map[int64]*domain.Instrument),
		bySymbol: make(map[string]int64),
	}
}

// Upsert returns the instrument for symbol, creating it if missing.
func (s *InstrumentStore) Upsert(_ context.Context, symbol string) (*domain.Instrument, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.bySymbol[symbol]; exists {
		instCopy := *s.data[id]
		return &instCopy, nil
	}

	s.nextID++
	inst := &domain.Instrument{ID: s.nextID, Symbol: symbol}
	s.data[inst.ID] = inst
	s.bySymbol[symbol] = inst.ID

	instCopy := *inst
	return &instCopy, nil
}

// GetByID retrieves an instrument. Returns ErrNotFound if not exists.
func (s *InstrumentStore) GetByID(_ context.Context, id int64) (*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	instCopy := *inst
	return &instCopy, nil
}

// GetBySymbol retrieves an instrument by symbol. Returns ErrNotFound if not exists.
func (s *InstrumentStore) GetBySymbol(_ context.Context, symbol string) (*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.bySymbol[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}
	instCopy := *s.data[id]
	return &instCopy, nil
}

// GetByIDs retrieves the instruments with the given IDs, keyed by ID.
func (s *InstrumentStore) GetByIDs(_ context.Context, ids []int64) (map[int64]*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]*domain.Instrument, len(ids))
	for _, id := range ids {
		if inst, exists := s.data[id]; exists {
			instCopy := *inst
			result[id] = &instCopy
		}
	}
	return result, nil
}

// List retrieves all instruments ordered by ID ASC.
func (s *InstrumentStore) List(_ context.Context) ([]*domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Instrument, 0, len(s.data))
	for _, inst := range s.data {
		instCopy := *inst
		result = append(result, &instCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (s *InstrumentStore) exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

var _ storage.InstrumentStore = (*InstrumentStore)(nil)
