// Package errors provides the structured error type used across papertrader.
// Service-layer failures are returned as *AppError so the HTTP layer and the
// trader CLI can report a stable code without leaking internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so callers can
// match wrapped copies against the package sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Quote errors.
var (
	ErrQuoteUnavailable = &AppError{Code: "QUOTE_UNAVAILABLE", Message: "No quote is available for this symbol", StatusCode: http.StatusServiceUnavailable}
	ErrStaleQuote       = &AppError{Code: "STALE_QUOTE", Message: "Quote is stale; refusing to trade on it", StatusCode: http.StatusConflict}
	ErrInvalidSymbol    = &AppError{Code: "INVALID_SYMBOL", Message: "Unknown or invalid symbol", StatusCode: http.StatusUnprocessableEntity}
)

// Ledger errors.
var (
	ErrInsufficientCash     = &AppError{Code: "INSUFFICIENT_CASH", Message: "Insufficient cash for this purchase", StatusCode: http.StatusBadRequest}
	ErrInsufficientHoldings = &AppError{Code: "INSUFFICIENT_HOLDINGS", Message: "Insufficient holdings for this sale", StatusCode: http.StatusBadRequest}
	ErrHoldingNotFound      = &AppError{Code: "HOLDING_NOT_FOUND", Message: "No holding for this symbol", StatusCode: http.StatusNotFound}
	ErrLedgerInconsistency  = &AppError{Code: "LEDGER_INCONSISTENCY", Message: "Ledger invariant violated", StatusCode: http.StatusInternalServerError}
	ErrLedgerNotInitialized = &AppError{Code: "LEDGER_NOT_INITIALIZED", Message: "Ledger has not been funded", StatusCode: http.StatusConflict}
)

// Automation errors.
var (
	ErrRecommenderUnavailable = &AppError{Code: "RECOMMENDER_UNAVAILABLE", Message: "Trade recommender is not available", StatusCode: http.StatusServiceUnavailable}
)
