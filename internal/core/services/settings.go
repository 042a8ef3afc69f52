package services

import (
	"fmt"
	"time"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/core/ports/driven"
	"github.com/koyomi/koyomi/internal/core/ports/driving"
	"github.com/koyomi/koyomi/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyTokenDir     = "auth.token_dir"
	keyClientSecret = "auth.client_secret"
	keyFlowTimeout  = "auth.flow_timeout"
	keyFeedURLs     = "feeds.urls"
	keyVerbose      = "verbose"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Auth: domain.AuthSettings{
			TokenDir:         s.getString(keyTokenDir, defaults.Auth.TokenDir),
			ClientSecretPath: s.getString(keyClientSecret, defaults.Auth.ClientSecretPath),
			FlowTimeout:      s.getDuration(keyFlowTimeout, defaults.Auth.FlowTimeout),
		},
		Feeds: domain.FeedSettings{
			URLs: s.configStore.GetStringSlice(keyFeedURLs),
		},
		Verbose:        s.configStore.GetBool(keyVerbose),
		QuotaOverrides: s.quotaOverrides(),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyTokenDir, settings.Auth.TokenDir); err != nil {
		return fmt.Errorf("save token dir: %w", err)
	}
	if err := s.configStore.Set(keyClientSecret, settings.Auth.ClientSecretPath); err != nil {
		return fmt.Errorf("save client secret path: %w", err)
	}
	if err := s.configStore.Set(keyFlowTimeout, settings.Auth.FlowTimeout.String()); err != nil {
		return fmt.Errorf("save flow timeout: %w", err)
	}
	if len(settings.Feeds.URLs) > 0 {
		if err := s.configStore.Set(keyFeedURLs, settings.Feeds.URLs); err != nil {
			return fmt.Errorf("save feed urls: %w", err)
		}
	}
	if err := s.configStore.Set(keyVerbose, settings.Verbose); err != nil {
		return fmt.Errorf("save verbose: %w", err)
	}
	for api, quota := range settings.QuotaOverrides {
		if err := s.saveQuota(api, quota); err != nil {
			return err
		}
	}
	return nil
}

// SetTokenDir updates the credential storage directory.
func (s *SettingsService) SetTokenDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("token dir cannot be empty")
	}
	return s.configStore.Set(keyTokenDir, dir)
}

// SetClientSecretPath updates the OAuth client secret location.
func (s *SettingsService) SetClientSecretPath(path string) error {
	if path == "" {
		return fmt.Errorf("client secret path cannot be empty")
	}
	return s.configStore.Set(keyClientSecret, path)
}

// SetFeeds replaces the configured release feed URLs.
func (s *SettingsService) SetFeeds(urls []string) error {
	return s.configStore.Set(keyFeedURLs, urls)
}

// SetQuota overrides the rate limit quota for an API. Overrides may
// only tighten the documented quota, never exceed it.
func (s *SettingsService) SetQuota(api domain.APIName, quota domain.Quota) error {
	def, ok := domain.DefaultQuotas[api]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAPI, api)
	}
	if quota.Capacity <= 0 || quota.Window <= 0 {
		return fmt.Errorf("quota for %s must have positive capacity and window", api)
	}
	if quota.Capacity > def.Capacity || quota.Window < def.Window {
		return fmt.Errorf("quota for %s cannot exceed %d calls per %s", api, def.Capacity, def.Window)
	}
	return s.saveQuota(api, quota)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.Auth.TokenDir == "" {
		return fmt.Errorf("token dir is not set")
	}
	if settings.Auth.ClientSecretPath == "" {
		return fmt.Errorf("client secret path is not set")
	}
	if settings.Auth.FlowTimeout <= 0 {
		return fmt.Errorf("flow timeout must be positive")
	}
	for api, quota := range settings.QuotaOverrides {
		if quota.Capacity <= 0 || quota.Window <= 0 {
			return fmt.Errorf("quota override for %s must have positive capacity and window", api)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) saveQuota(api domain.APIName, quota domain.Quota) error {
	prefix := "ratelimit." + string(api) + "."
	if err := s.configStore.Set(prefix+"capacity", quota.Capacity); err != nil {
		return fmt.Errorf("save %s capacity: %w", api, err)
	}
	if err := s.configStore.Set(prefix+"window", quota.Window.String()); err != nil {
		return fmt.Errorf("save %s window: %w", api, err)
	}
	return nil
}

// quotaOverrides reads per-API quota overrides. An API appears in the
// result only when both its capacity and window keys are present and
// well-formed; partial or malformed overrides fall back to defaults,
// as do hand-edited overrides looser than the documented quota.
func (s *SettingsService) quotaOverrides() map[domain.APIName]domain.Quota {
	overrides := make(map[domain.APIName]domain.Quota)
	for api, def := range domain.DefaultQuotas {
		prefix := "ratelimit." + string(api) + "."

		capacity := s.configStore.GetInt(prefix + "capacity")
		if capacity <= 0 {
			continue
		}
		window := s.configStore.GetString(prefix + "window")
		if window == "" {
			continue
		}
		d, err := time.ParseDuration(window)
		if err != nil || d <= 0 {
			continue
		}
		if capacity > def.Capacity || d < def.Window {
			logger.Warn("Ignoring %s quota override looser than %d calls per %s", api, def.Capacity, def.Window)
			continue
		}

		overrides[api] = domain.Quota{Capacity: capacity, Window: d}
	}
	return overrides
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}
