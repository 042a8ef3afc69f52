package domain

import "time"

// ExpiryMargin is the safety buffer subtracted from a token's nominal
// expiry when deciding usability. A token inside the margin is treated
// as already expired so it cannot lapse mid-request.
const ExpiryMargin = 5 * time.Minute

// Credential stores Google OAuth tokens for one service in the standard
// "authorized user" shape. It is an explicit value type with its own
// capability surface rather than a wrapper around an SDK object.
//
// At runtime each Credential is owned by exactly one authenticator
// instance and persisted 1:1 to one token file.
type Credential struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenURI is the provider's token endpoint.
	TokenURI string `json:"token_uri"`
	// ClientID identifies the OAuth client this token was issued to.
	ClientID string `json:"client_id"`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `json:"client_secret"`
	// Scopes are the authorized scopes.
	Scopes []string `json:"scopes"`
	// Expiry is when the access token expires. Zero means no expiry known.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the access token has passed its nominal expiry.
func (c *Credential) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// IsValid returns true if the token is usable right now, applying the
// 5-minute safety margin: a token expiring within the margin is not valid.
func (c *Credential) IsValid() bool {
	if c.AccessToken == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return time.Now().Before(c.Expiry.Add(-ExpiryMargin))
}

// CanRefresh returns true if a refresh token is available.
func (c *Credential) CanRefresh() bool {
	return c.RefreshToken != ""
}

// HasScopes returns true if the credential covers every requested scope.
func (c *Credential) HasScopes(scopes []string) bool {
	granted := make(map[string]bool, len(c.Scopes))
	for _, s := range c.Scopes {
		granted[s] = true
	}
	for _, s := range scopes {
		if !granted[s] {
			return false
		}
	}
	return true
}

// SecondsUntilExpiry returns the seconds remaining before nominal expiry,
// clamped to zero. Returns -1 when no expiry is known.
func (c *Credential) SecondsUntilExpiry() float64 {
	if c.Expiry.IsZero() {
		return -1
	}
	remaining := time.Until(c.Expiry).Seconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}
