package driving

import "github.com/koyomi/koyomi/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetTokenDir updates the credential storage directory.
	SetTokenDir(dir string) error

	// SetClientSecretPath updates the OAuth client secret location.
	SetClientSecretPath(path string) error

	// SetFeeds replaces the configured release feed URLs.
	SetFeeds(urls []string) error

	// SetQuota overrides the rate limit quota for an API.
	SetQuota(api domain.APIName, quota domain.Quota) error

	// Validate checks if current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
