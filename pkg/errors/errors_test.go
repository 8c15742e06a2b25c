package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NewNotFound("patient", nil), http.StatusNotFound},
		{"validation", NewValidation("bad input", nil), http.StatusBadRequest},
		{"invalid state", NewInvalidState("patient is deactivated"), http.StatusBadRequest},
		{"forbidden", NewForbidden("not a consultant"), http.StatusForbidden},
		{"unauthorized", Unauthorized(nil), http.StatusUnauthorized},
		{"conflict", NewConflict("duplicate", nil), http.StatusConflict},
		{"internal", NewInternal(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := NewInvalidState("patient is deactivated")
	wrapped := fmt.Errorf("failed to submit assessment: %w", base)

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, appErr)
	assert.True(t, Is(wrapped, ErrInvalidState))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(stderrors.New("plain"), ErrInternal))
}

func TestErrorMessage(t *testing.T) {
	err := NewNotFound("reminder", stderrors.New("sql: no rows in result set"))
	assert.Equal(t, "reminder not found: sql: no rows in result set", err.Error())
	assert.Equal(t, "reminder not found", NewNotFound("reminder", nil).Error())
}
