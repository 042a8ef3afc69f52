package domain

import "time"

// APIName identifies an external API for rate limiting purposes.
type APIName string

const (
	// APIAniList is the AniList GraphQL API.
	APIAniList APIName = "anilist"
	// APIGmail is the Gmail API.
	APIGmail APIName = "gmail"
	// APICalendar is the Google Calendar API.
	APICalendar APIName = "calendar"
	// APISyoboi is the Syoboi Calendar API.
	APISyoboi APIName = "syoboi"
	// APIRSS covers outbound RSS feed fetches.
	APIRSS APIName = "rss"
)

// Quota is the documented call budget of an external API: at most
// Capacity calls within any rolling Window.
type Quota struct {
	// Capacity is the maximum number of calls per window.
	Capacity int
	// Window is the rolling window length.
	Window time.Duration
}

// DefaultQuotas holds the documented quota for each external API Koyomi
// talks to. These are the values the registry is seeded with; a config
// file may override them downward but clients never construct their own.
var DefaultQuotas = map[APIName]Quota{
	APIAniList:  {Capacity: 90, Window: 60 * time.Second},
	APIGmail:    {Capacity: 50, Window: time.Second},
	APICalendar: {Capacity: 5, Window: time.Second},
	APISyoboi:   {Capacity: 1, Window: time.Second},
	APIRSS:      {Capacity: 10, Window: time.Second},
}
