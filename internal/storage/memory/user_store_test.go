package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/TejasShirsath/stocky-assignment/internal/storage"
)

func TestUserStore_CreateAndGet(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	u, err := store.Create(ctx, "Asha", "asha@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID != 1 {
		t.Errorf("Expected ID 1, got %d", u.ID)
	}

	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Email != "asha@example.com" || got.Name != "Asha" {
		t.Errorf("Unexpected user: %+v", got)
	}
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "Asha", "asha@example.com"); err != nil {
		t.Fatalf("First create failed: %v", err)
	}

	_, err := store.Create(ctx, "Other", "asha@example.com")
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestUserStore_InvalidInput(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "", "a@example.com"); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := store.Create(ctx, "A", "  "); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank email, got %v", err)
	}
}

func TestUserStore_NotFound(t *testing.T) {
	store := NewUserStore()

	_, err := store.GetByID(context.Background(), 42)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
