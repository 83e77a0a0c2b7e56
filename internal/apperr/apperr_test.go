package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     Kind
	}{
		{"validation", Validation("reward", "shares must be positive"), ErrValidation, KindValidation},
		{"not found", NotFound("reward", "instrument"), ErrNotFound, KindNotFound},
		{"conflict", Conflict("user", "email already exists"), ErrConflict, KindConflict},
		{"store", Store("portfolio", errors.New("conn reset")), ErrStore, KindStore},
		{"internal", Internal("portfolio", errors.New("boom")), ErrInternal, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(tt.err))

			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Equal(t, tt.kind, KindOf(wrapped))
		})
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestStore_UnwrapsCause(t *testing.T) {
	cause := errors.New("conn reset")
	err := Store("stats", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestMessage_HidesStoreDetail(t *testing.T) {
	assert.Equal(t, "something went wrong", Message(Store("stats", errors.New("password=secret"))))
	assert.Equal(t, "something went wrong", Message(errors.New("raw")))
	assert.Equal(t, "instrument not found", Message(NotFound("reward", "instrument")))
	assert.Equal(t, "userId is required", Message(Validation("stats", "userId is required")))
}
