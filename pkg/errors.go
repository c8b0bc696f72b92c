package pkg

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMessage            = errors.New("NO_MESSAGE")
	ErrInvalidJSON          = errors.New("INVALID_JSON")
	ErrMessageTooLong       = errors.New("MESSAGE_TOO_LONG")
	ErrInvalidEncoding      = errors.New("INVALID_ENCODING")
	ErrInventoryUnavailable = errors.New("INVENTORY_UNAVAILABLE")
	ErrMalformedCompletion  = errors.New("MALFORMED_COMPLETION")
)

// UpstreamKind groups LLM failures by how the caller should react
type UpstreamKind string

const (
	UpstreamAuth      UpstreamKind = "auth"
	UpstreamRateLimit UpstreamKind = "rate_limit"
	UpstreamTimeout   UpstreamKind = "timeout"
	UpstreamMalformed UpstreamKind = "malformed"
	UpstreamUnknown   UpstreamKind = "unknown"
)

// UpstreamError wraps a failed LLM call
type UpstreamError struct {
	Kind UpstreamKind
	Op   string
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// OperatorActionable is true for failures surfaced to the caller with their own status code
func (e *UpstreamError) OperatorActionable() bool {
	return e.Kind == UpstreamAuth || e.Kind == UpstreamRateLimit
}

// ClassifyLLMError turns a provider error into an UpstreamError. Providers report auth and
// quota problems only through their message text, so the match is on substrings.
func ClassifyLLMError(op string, err error) *UpstreamError {
	if err == nil {
		return nil
	}

	var existing *UpstreamError
	if errors.As(err, &existing) {
		return existing
	}

	kind := UpstreamUnknown
	lowered := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(lowered, "timeout"),
		strings.Contains(lowered, "deadline exceeded"):
		kind = UpstreamTimeout
	case errors.Is(err, ErrMalformedCompletion):
		kind = UpstreamMalformed
	case strings.Contains(lowered, "authentication"),
		strings.Contains(lowered, "api key"),
		strings.Contains(lowered, "unauthorized"),
		strings.Contains(lowered, "status code: 401"),
		strings.Contains(lowered, "401"):
		kind = UpstreamAuth
	case strings.Contains(lowered, "rate limit"),
		strings.Contains(lowered, "too many requests"),
		strings.Contains(lowered, "429"):
		kind = UpstreamRateLimit
	}

	return &UpstreamError{Kind: kind, Op: op, Err: err}
}

// AsUpstream extracts an UpstreamError from an error chain
func AsUpstream(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}
