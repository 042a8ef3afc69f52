// Package google constructs authenticated Gmail and Calendar clients on
// top of the credential lifecycle manager and the shared rate limiter
// registry.
package google
