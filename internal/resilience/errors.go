package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/adinsights-cli/internal/model"
)

// TransientError wraps an error that is safe to retry (timeout, connection
// failure, 5xx).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// RateLimitError signals a provider-side rate limit. Never retried
// automatically; surfaced immediately with the provider's retry-after hint
// when one was supplied.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration // zero when the provider gave no hint
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited (retry after %s)", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// AuthError signals rejected credentials. Fatal for the provider for the
// remainder of the run; never retried.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication failed", e.Provider)
}

func (e *AuthError) Unwrap() error { return e.Err }

// CircuitOpenError is returned when a call is rejected without a network
// attempt because the provider's circuit is open.
type CircuitOpenError struct {
	Provider string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s: circuit breaker is open", e.Provider)
}

// ErrCircuitOpen matches any CircuitOpenError via errors.Is.
var ErrCircuitOpen = eris.New("circuit breaker is open")

func (e *CircuitOpenError) Is(target error) bool { return target == ErrCircuitOpen }

// Classify maps an error to the report-level error kind.
func Classify(err error) model.ErrorKind {
	switch {
	case err == nil:
		return ""
	case IsRateLimit(err):
		return model.ErrorKindRateLimit
	case IsAuth(err):
		return model.ErrorKindAuth
	case IsCircuitOpen(err):
		return model.ErrorKindCircuit
	case IsTransient(err):
		return model.ErrorKindTransient
	default:
		return model.ErrorKindUnknown
	}
}

// IsRateLimit reports whether the chain contains a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsAuth reports whether the chain contains an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsCircuitOpen reports whether the chain contains a CircuitOpenError.
func IsCircuitOpen(err error) bool {
	var co *CircuitOpenError
	return errors.As(err, &co)
}

// RetryAfterHint extracts a provider-supplied retry-after hint, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient network patterns.
// Rate-limit, auth, and circuit-open errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsRateLimit(err) || IsAuth(err) || IsCircuitOpen(err) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"context deadline exceeded",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry. 429 is deliberately
// excluded — it becomes a RateLimitError, which is not retried.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
