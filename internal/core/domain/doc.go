// Package domain defines the core business entities for Koyomi.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Credential: OAuth tokens for one Google service, with an explicit
//     capability surface (IsValid, IsExpired, CanRefresh)
//   - AuthStatus: a read-only projection of authenticator state
//   - APIName and Quota: identity and documented quota of an external API
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
