package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRateNotFound = errors.New("rate not found")
)

// RateNotFoundError names the exact missing pair and day so callers can
// tell which conversion leg failed. errors.Is(err, ErrRateNotFound) holds.
type RateNotFoundError struct {
	Base   string
	Target string
	Date   time.Time
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("rate %s/%s not found for %s", e.Base, e.Target, e.Date.Format("2006-01-02"))
}

func (e *RateNotFoundError) Is(target error) bool { return target == ErrRateNotFound }

// RateUpdateError wraps whatever broke a rate update run for one date.
type RateUpdateError struct {
	Date time.Time
	Err  error
}

func (e *RateUpdateError) Error() string {
	return fmt.Sprintf("rate update for %s failed: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *RateUpdateError) Unwrap() error { return e.Err }

// ProviderErrorKind classifies external-provider failures so callers can
// pick a retry/backoff strategy without inspecting provider internals.
type ProviderErrorKind string

const (
	ProviderNetwork   ProviderErrorKind = "NETWORK"
	ProviderClient    ProviderErrorKind = "CLIENT"
	ProviderServer    ProviderErrorKind = "SERVER"
	ProviderRateLimit ProviderErrorKind = "RATE_LIMIT"
	ProviderUnknown   ProviderErrorKind = "UNKNOWN"
)

type ProviderError struct {
	Provider string
	Kind     ProviderErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed. Client-class
// failures are attributable to the request itself and are never retried.
func (e *ProviderError) Retryable() bool {
	return e.Kind != ProviderClient
}
