package provider

import (
	"errors"
	"fmt"
	"time"
)

// AuthError is a permanent credential rejection (401/403, "User not found").
// The provider stays disabled until an operator intervenes.
type AuthError struct {
	Provider string
	Message  string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError is a temporary rejection (429 or rate-limit wording in the
// body). RetryAfter is zero when the provider did not say how long to wait.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limited (retry after %s): %s", e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limited: %s", e.Provider, e.Message)
}

// HTTPError is any other non-2xx response. It carries the raw body so the
// classifier can pattern-match free-form error text.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider %q returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// ParseError is a malformed success response.
type ParseError struct {
	Provider string
	Cause    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// StatusAndBody extracts the HTTP status code and error body from a provider
// call error, for classification. Transport-level errors (no response at
// all) yield status 0.
func StatusAndBody(err error) (int, string) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return 401, authErr.Message
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return 429, rateErr.Message
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, httpErr.Body
	}
	if err != nil {
		return 0, err.Error()
	}
	return 0, ""
}
