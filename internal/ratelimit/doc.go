// Package ratelimit enforces per-API call quotas for every outbound
// request Koyomi makes.
//
// Each external API (AniList, Gmail, Calendar, Syoboi, RSS) gets one
// Limiter, looked up by name from a Registry that is built at startup
// and injected into clients. The limiter is a sliding-window log: it
// tracks the timestamps of recent calls and delays a new call once
// capacity calls have occurred within the trailing window. This is more
// accurate over time than a token bucket and matches the way remote
// quotas are documented ("N calls per M seconds").
//
// Gate performs a real blocking sleep of the calling goroutine while
// holding the limiter's lock. Callers of different limiters never
// contend with each other.
package ratelimit
