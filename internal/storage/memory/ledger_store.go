package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
// Entries are kept in insertion order.
type LedgerStore struct {
	mu          sync.RWMutex
	nextID      int64
	entries     []*domain.RewardEntry
	users       *UserStore       // optional, enables reference checks
	instruments *InstrumentStore // optional, enables reference checks
}

// NewLedgerStore creates a new in-memory ledger. Nil users or instruments
// disable the corresponding reference check.
func NewLedgerStore(users *UserStore, instruments *InstrumentStore) *LedgerStore {
	return &LedgerStore{users: users, instruments: instruments}
}

// Append records a reward.
func (s *LedgerStore) Append(_ context.Context, userID, instrumentID int64, shares decimal.Decimal, at time.Time) (*domain.RewardEntry, error) {
	if !shares.IsPositive() || userID <= 0 || instrumentID <= 0 {
		return nil, storage.ErrInvalidInput
	}
	if s.instruments != nil && !s.instruments.exists(instrumentID) {
		return nil, storage.ErrUnknownInstrument
	}
	if s.users != nil && !s.users.exists(userID) {
		return nil, storage.ErrUnknownUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	e := &domain.RewardEntry{
		ID:           s.nextID,
		UserID:       userID,
		InstrumentID: instrumentID,
		Shares:       shares,
		RewardedAt:   at,
	}
	s.entries = append(s.entries, e)

	entryCopy := *e
	return &entryCopy, nil
}

// FindByUserInRange retrieves entries with rewarded_at in [from, to), ordered by rewarded_at ASC.
func (s *LedgerStore) FindByUserInRange(_ context.Context, userID int64, from, to time.Time) ([]*domain.RewardEntry, error) {
	return s.collect(func(e *domain.RewardEntry) bool {
		return e.UserID == userID && !e.RewardedAt.Before(from) && e.RewardedAt.Before(to)
	}), nil
}

// FindByUserBefore retrieves entries with rewarded_at < to, ordered by rewarded_at ASC.
func (s *LedgerStore) FindByUserBefore(_ context.Context, userID int64, to time.Time) ([]*domain.RewardEntry, error) {
	return s.collect(func(e *domain.RewardEntry) bool {
		return e.UserID == userID && e.RewardedAt.Before(to)
	}), nil
}

// FindByUserAll retrieves all entries for a user.
func (s *LedgerStore) FindByUserAll(_ context.Context, userID int64) ([]*domain.RewardEntry, error) {
	return s.collect(func(e *domain.RewardEntry) bool {
		return e.UserID == userID
	}), nil
}

func (s *LedgerStore) collect(match func(*domain.RewardEntry) bool) []*domain.RewardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RewardEntry
	for _, e := range s.entries {
		if match(e) {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].RewardedAt.Equal(result[j].RewardedAt) {
			return result[i].RewardedAt.Before(result[j].RewardedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// Len returns the number of recorded entries.
func (s *LedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ storage.LedgerStore = (*LedgerStore)(nil)
