package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
//
// The Google service constructors consume this through an
// oauth2.TokenSource adapter; the authenticator is the canonical
// implementation.
type TokenProvider interface {
	// Token returns a valid access token, or an error when no usable
	// credential is available. It never starts an interactive flow.
	Token(ctx context.Context) (string, error)

	// IsAuthenticated returns true if a usable credential is cached.
	IsAuthenticated() bool
}
