package api

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the failure taxonomy collection cycles
// branch on.
var (
	// ErrRateLimitExceeded is surfaced after the retry budget for
	// throttled or server-erroring requests is exhausted. Recoverable:
	// the cycle aborts without advancing the cursor and the next
	// scheduled run retries.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrUnauthorized is surfaced on 401/403 responses. Fatal and
	// non-retryable: the stream is blocked until manually cleared so a
	// mis-configured credential cannot burn the shared request budget.
	ErrUnauthorized = errors.New("authorization rejected")
)

// APIError represents an error response from the vendor API.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vendor api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// IsAuth returns true for authorization failures.
func (e *APIError) IsAuth() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// SchemaError reports a response body that could not be decoded into
// the expected shape. Fatal for the current batch; the cycle aborts
// with the cursor unchanged.
type SchemaError struct {
	Endpoint string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch at %s: %v", e.Endpoint, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
