package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrClientSecretMissing indicates the OAuth client-secret file does not
	// exist or cannot be read. Fatal: no authorization flow can start.
	ErrClientSecretMissing = errors.New("client secret file missing")

	// ErrTokenRefreshFailed indicates the refresh exchange against the token
	// endpoint failed. Recoverable: the interactive flow is attempted next.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrAuthTimeout indicates the user did not complete the browser
	// consent flow within the configured timeout.
	ErrAuthTimeout = errors.New("authorization flow timed out")

	// ErrNotAuthenticated indicates no usable credential is available.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrDuplicateLimiter indicates a rate limiter is already registered
	// under the given API name.
	ErrDuplicateLimiter = errors.New("rate limiter already registered")

	// ErrUnknownAPI indicates no rate limiter is registered for an API name.
	ErrUnknownAPI = errors.New("unknown API name")

	// ErrRateLimited indicates the remote API rejected a call for quota.
	ErrRateLimited = errors.New("rate limited")
)

// AuthenticationError is the only error type Authenticate surfaces to
// callers. Every internal fallback (cache, refresh, interactive) is
// attempted before one is raised. Callers are expected to catch it and
// skip or delay the dependent operation rather than crash.
type AuthenticationError struct {
	// Service names the Google service the authenticator manages.
	Service string
	// Err is the underlying cause.
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Service, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
