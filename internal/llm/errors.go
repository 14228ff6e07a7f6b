package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// FailureReason classifies a failed provider attempt. Every reason advances
// the fallback chain; none is retried within the same invocation.
type FailureReason string

const (
	ReasonAuth        FailureReason = "auth"
	ReasonRateLimited FailureReason = "rate_limited"
	ReasonTimeout     FailureReason = "timeout"
	ReasonUnparsable  FailureReason = "unparsable"
	ReasonUnavailable FailureReason = "unavailable"
)

// ProviderError is the error surface of every provider variant.
type ProviderError struct {
	Provider string
	Reason   FailureReason
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with the provider name and reason.
func NewProviderError(provider string, reason FailureReason, err error) *ProviderError {
	return &ProviderError{Provider: provider, Reason: reason, Err: err}
}

// ClassifyHTTPStatus maps an HTTP response code to a failure reason.
func ClassifyHTTPStatus(status int) FailureReason {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ReasonAuth
	case http.StatusTooManyRequests:
		return ReasonRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ReasonTimeout
	default:
		return ReasonUnavailable
	}
}

// ClassifyErr maps transport-level errors to a failure reason, preferring
// timeout for expired contexts.
func ClassifyErr(err error) FailureReason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonTimeout
	}
	return ReasonUnavailable
}
