package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be a positive integer in minor units", http.StatusBadRequest)
}

// Validation returns a generic request validation error.
func Validation(message string) *AppError {
	return New("VAL_002", message, http.StatusBadRequest)
}

// ---- Invoice (INV) ----

func ErrInvoiceNotFound() *AppError {
	return New("INV_001", "Invoice not found", http.StatusNotFound)
}

func ErrInvoiceAlreadySettled() *AppError {
	return New("INV_002", "Invoice is already paid or cancelled", http.StatusConflict)
}

// ---- Intent lifecycle (INT) ----

func ErrConflict(message string) *AppError {
	return New("INT_001", message, http.StatusConflict)
}

func ErrIntentNotFound() *AppError {
	return New("INT_002", "Payment intent not found", http.StatusNotFound)
}

func ErrGatewayKindMismatch() *AppError {
	return New("INT_003", "Operation is only available for simulated-gateway intents", http.StatusConflict)
}

// ---- Gateway (GW) ----

func ErrVerificationFailed() *AppError {
	return New("GW_001", "Gateway proof verification failed", http.StatusUnprocessableEntity)
}

func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("GW_002", "Payment gateway is temporarily unavailable", http.StatusBadGateway, err)
}

// ErrGatewayUnavailableForIntent is ErrGatewayUnavailable for a failure that
// happened after the intent was persisted. The message carries the intent id
// so the caller can poll or cancel it while the order is reconciled.
func ErrGatewayUnavailableForIntent(intentID string, err error) *AppError {
	return Wrap("GW_002",
		fmt.Sprintf("Payment gateway is temporarily unavailable; intent %s is pending reconciliation", intentID),
		http.StatusBadGateway, err)
}

func ErrGatewayRejected(reason string) *AppError {
	return New("GW_003", fmt.Sprintf("Payment gateway rejected the order: %s", reason), http.StatusUnprocessableEntity)
}

// ---- Ledger (LED) ----

func ErrInsufficientBalance() *AppError {
	return New("LED_001", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrWalletNotFound() *AppError {
	return New("LED_002", "Wallet not found", http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
