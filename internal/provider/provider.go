// Package provider defines the quote source contract and its adapters.
//
// Every adapter classifies each failure into exactly one of ErrUnavailable,
// ErrRateLimited or ErrInvalidSymbol so the resolver can decide whether to
// fail over to the next source or abort.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrUnavailable   = errors.New("provider unavailable")
	ErrRateLimited   = errors.New("provider rate limited")
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Quote is a timestamped price observation for a symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price" swaggertype:"string"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Stale     bool            `json:"stale"`
}

// Age returns how old the quote is at now.
func (q Quote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// Provider fetches the current price of a single symbol.
type Provider interface {
	// Name returns the provider's short identifier (e.g. "yahoo").
	Name() string

	// Fetch returns the latest quote or a *FetchError.
	Fetch(ctx context.Context, symbol string) (Quote, error)
}

// FetchError represents a classified failure from one provider.
type FetchError struct {
	Provider string
	Symbol   string
	Kind     error
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Symbol, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v: %v", e.Provider, e.Symbol, e.Kind, e.Err)
}

// Is reports whether target is this error's kind.
func (e *FetchError) Is(target error) bool { return target == e.Kind }

// Unwrap returns the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

func newFetchError(provider, symbol string, kind, err error) *FetchError {
	return &FetchError{Provider: provider, Symbol: symbol, Kind: kind, Err: err}
}

// Classify maps any error onto one of the three failure kinds. Errors that
// already carry a kind keep it; everything else, including timeouts and
// cancellations, counts as ErrUnavailable.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidSymbol):
		return ErrInvalidSymbol
	case errors.Is(err, ErrRateLimited):
		return ErrRateLimited
	default:
		return ErrUnavailable
	}
}

// classifyStatus maps an HTTP status code onto a failure kind. It returns
// nil for 2xx responses.
func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusNotFound, code == http.StatusUnprocessableEntity:
		return ErrInvalidSymbol
	default:
		return ErrUnavailable
	}
}

// classifyTransport treats every transport-level failure as unavailable,
// keeping the cause for logs.
func classifyTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("timeout: %w", err)
	}
	return err
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func positivePrice(name, symbol string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return newFetchError(name, symbol, ErrUnavailable, fmt.Errorf("non-positive price %s", price))
	}
	return nil
}
