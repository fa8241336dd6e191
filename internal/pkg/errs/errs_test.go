package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		status int
	}{
		{"validation", ErrInvalidParams, http.StatusBadRequest},
		{"conflict", ErrUserAlreadyExists, http.StatusBadRequest},
		{"auth", ErrUnauthorized, http.StatusUnauthorized},
		{"not found", ErrMessageNotFound, http.StatusNotFound},
		{"storage", ErrStorage, http.StatusInternalServerError},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.Status)
		})
	}
}

func TestNewError_UnknownCode(t *testing.T) {
	err := NewError(424242)
	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestNewError_FormatsDetails(t *testing.T) {
	err := NewError(ErrFileTooLarge, 65)
	assert.Equal(t, "File size exceeds 65MB limit", err.Message)
}

func TestNewError_InternalCauseNotLeaked(t *testing.T) {
	err := NewError(ErrStorage, errors.New("dial tcp 10.0.0.3:5432: connection refused"))
	assert.Equal(t, "Service temporarily unavailable.", err.Message)
}

func TestFromAndHasCode(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NewError(ErrInvalidCredentials))

	resolved := From(wrapped)
	require.NotNil(t, resolved)
	assert.Equal(t, ErrInvalidCredentials, resolved.Code)
	assert.True(t, HasCode(wrapped, ErrInvalidCredentials))
	assert.False(t, HasCode(wrapped, ErrUserNotFound))
	assert.True(t, errors.Is(wrapped, NewError(ErrInvalidCredentials)))

	plain := From(errors.New("boom"))
	assert.Equal(t, ErrUnknown, plain.Code)

	assert.Nil(t, From(nil))
}
