package domain

import (
	"os"
	"path/filepath"
	"time"
)

// AuthSettings configures where credentials live and how the
// interactive flow behaves.
type AuthSettings struct {
	// TokenDir is the directory token files are stored in.
	TokenDir string

	// ClientSecretPath is the OAuth client secret JSON file.
	ClientSecretPath string

	// FlowTimeout bounds the interactive authorization flow.
	FlowTimeout time.Duration
}

// FeedSettings configures release feed polling.
type FeedSettings struct {
	// URLs is the list of feeds to poll.
	URLs []string
}

// AppSettings is the full application configuration.
type AppSettings struct {
	Auth    AuthSettings
	Feeds   FeedSettings
	Verbose bool

	// QuotaOverrides replaces the built-in quota for the named APIs.
	QuotaOverrides map[APIName]Quota
}

// DefaultAppSettings returns settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".koyomi")

	return AppSettings{
		Auth: AuthSettings{
			TokenDir:         filepath.Join(base, "tokens"),
			ClientSecretPath: filepath.Join(base, "client_secret.json"),
			FlowTimeout:      5 * time.Minute,
		},
		QuotaOverrides: make(map[APIName]Quota),
	}
}
