package apperror

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkedErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		name     string
		sentinel error
		status   int
	}{
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"duplicate", ErrDuplicateSubscription, http.StatusConflict},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"already canceled", ErrAlreadyCanceled, http.StatusConflict},
		{"insufficient funds", ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"gateway", ErrGatewayFailure, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError("boom").
				WithHint("something went wrong").
				WithReportableDetails(map[string]any{"id": "123"}).
				Mark(tt.sentinel)

			wrapped := fmt.Errorf("outer: %w", err)

			assert.True(t, Is(wrapped, tt.sentinel))
			assert.Equal(t, tt.status, HTTPStatusFromErr(wrapped))
			assert.Equal(t, tt.sentinel.(*InternalError).Code, Code(wrapped))
			assert.Equal(t, "something went wrong", Hint(wrapped))
		})
	}
}

func TestUnmarkedErrorIsSystemError(t *testing.T) {
	err := fmt.Errorf("plain failure")

	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(err))
	assert.Equal(t, CodeSystem, Code(err))
	assert.False(t, Is(err, ErrNotFound))
}

func TestHintFallsBackToSentinelMessage(t *testing.T) {
	err := NewError("withdrawal rejected").Mark(ErrBelowMinimum)
	assert.Equal(t, ErrBelowMinimum.Message, Hint(err))
}
