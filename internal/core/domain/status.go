package domain

import "time"

// AuthStatus is a read-only projection of an authenticator's state.
// It is derived on request and never mutated in place.
type AuthStatus struct {
	// Authenticated is true when a usable credential is cached in memory.
	Authenticated bool `json:"authenticated"`
	// TokenExists is true when a token file is present on disk.
	TokenExists bool `json:"token_exists"`
	// LastAuthTime is when the last successful Authenticate completed.
	// Zero if none has succeeded this process.
	LastAuthTime time.Time `json:"last_auth_time,omitempty"`
	// FailureCount is the number of Authenticate calls that raised an error.
	FailureCount int `json:"failure_count"`
	// Expiry is the cached credential's expiry. Zero when unknown.
	Expiry time.Time `json:"expiry,omitempty"`
	// SecondsUntilExpiry is the time remaining before nominal expiry,
	// clamped to zero; -1 when no expiry is known.
	SecondsUntilExpiry float64 `json:"seconds_until_expiry"`
}
