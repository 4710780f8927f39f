package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("cart_id", "no cart"), KindNotFound},
		{"wrapped validation", fmt.Errorf("add item: %w", Validation("quantity", "too small")), KindValidation},
		{"conflict", Conflict("user_id", "race", errors.New("dup")), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := Unavailable("store down", errors.New("connection refused"))
	assert.Equal(t, "store down: connection refused", err.Error())
	assert.Equal(t, "cart_id: the cart is empty", Validation("cart_id", "the cart is empty").Error())
	assert.True(t, Is(fmt.Errorf("x: %w", err), KindUnavailable))
	assert.False(t, Is(nil, KindUnavailable))
}
