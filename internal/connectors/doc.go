// Package connectors groups the outbound API client wrappers. Each
// wrapper retrieves its limiter from the rate limiter registry by API
// name and gates every network call before performing it; none of them
// constructs an ad hoc limiter.
package connectors
