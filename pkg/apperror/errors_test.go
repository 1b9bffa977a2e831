package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("INT_001", "conflict", http.StatusConflict)
	assert.Equal(t, "[INT_001] conflict", e.Error())

	wrapped := Wrap("SYS_001", "internal", http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "[SYS_001] internal: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("pg: connection refused")
	e := InternalError(fmt.Errorf("begin tx: %w", inner))

	assert.True(t, errors.Is(e, inner))

	var appErr *AppError
	require.True(t, errors.As(e, &appErr))
	assert.Equal(t, "SYS_001", appErr.Code)
}

func TestConstructors_CodesAndStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"invalid amount", ErrInvalidAmount(), "VAL_001", http.StatusBadRequest},
		{"invoice not found", ErrInvoiceNotFound(), "INV_001", http.StatusNotFound},
		{"invoice settled", ErrInvoiceAlreadySettled(), "INV_002", http.StatusConflict},
		{"conflict", ErrConflict("pending intent exists"), "INT_001", http.StatusConflict},
		{"intent not found", ErrIntentNotFound(), "INT_002", http.StatusNotFound},
		{"kind mismatch", ErrGatewayKindMismatch(), "INT_003", http.StatusConflict},
		{"verification failed", ErrVerificationFailed(), "GW_001", http.StatusUnprocessableEntity},
		{"gateway unavailable", ErrGatewayUnavailable(errors.New("timeout")), "GW_002", http.StatusBadGateway},
		{"gateway rejected", ErrGatewayRejected("order expired"), "GW_003", http.StatusUnprocessableEntity},
		{"insufficient balance", ErrInsufficientBalance(), "LED_001", http.StatusPaymentRequired},
		{"wallet not found", ErrWalletNotFound(), "LED_002", http.StatusNotFound},
		{"invalid token", ErrInvalidToken(), "AUTH_001", http.StatusUnauthorized},
		{"rate limited", ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}
