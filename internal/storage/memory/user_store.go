package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/TejasShirsath/stocky-assignment/internal/domain"
	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	nextID  int64
	data    map[int64]*domain.User // keyed by id
	byEmail map[string]int64
	now     func() time.Time
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		data:    make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

// Create registers a user. Returns ErrDuplicateKey if email is taken.
func (s *UserStore) Create(_ context.Context, name, email string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, storage.ErrDuplicateKey
	}

	s.nextID++
	u := &domain.User{ID: s.nextID, Name: name, Email: email, CreatedAt: s.now()}
	s.data[u.ID] = u
	s.byEmail[email] = u.ID

	userCopy := *u
	return &userCopy, nil
}

// GetByID retrieves a user. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

func (s *UserStore) exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[id]
	return ok
}

var _ storage.UserStore = (*UserStore)(nil)
