// Package auth manages the OAuth2 credential lifecycle for Google
// services: obtaining, caching, refreshing, persisting, and revoking
// tokens.
//
// FileStore is the durable side: one JSON token file per service,
// owner-only permissions, corruption recovered by discarding the file.
// GoogleAuthenticator is the state machine on top: cached-valid,
// expired-but-refreshable, needs-interactive-auth, authenticated,
// revoked. Authenticate is the sole boundary that raises an
// AuthenticationError; every internal fallback is attempted first.
package auth
