package migration

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies provider errors per the capability contract.
type ErrorKind string

const (
	ErrorKindAuth        ErrorKind = "auth"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindOther       ErrorKind = "other"
)

// ProviderError is a typed error surfaced by source and target adapters.
// RetryAfter is only meaningful for rate-limited errors.
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsProviderError unwraps err into a ProviderError if one is present.
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

// IsRateLimited reports whether err is a provider rate-limit response.
func IsRateLimited(err error) bool {
	perr, ok := AsProviderError(err)
	return ok && perr.Kind == ErrorKindRateLimited
}

// IsAuth reports whether err is a provider authentication failure.
func IsAuth(err error) bool {
	perr, ok := AsProviderError(err)
	return ok && perr.Kind == ErrorKindAuth
}
