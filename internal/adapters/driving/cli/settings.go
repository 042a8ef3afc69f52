package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/koyomi/koyomi/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change koyomi settings",
	Long: `Show or modify the configuration stored in config.toml.

Examples:
  # Show effective settings
  koyomi config show

  # Move token storage
  koyomi config set-token-dir ~/.koyomi/tokens

  # Slow down AniList to 45 requests per minute
  koyomi config set-quota anilist 45 60s

  # Replace the polled release feeds
  koyomi config set-feeds https://a.example.com/rss https://b.example.com/rss`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runConfigShow,
}

var configSetTokenDirCmd = &cobra.Command{
	Use:   "set-token-dir [dir]",
	Short: "Set the credential storage directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetTokenDir,
}

var configSetClientSecretCmd = &cobra.Command{
	Use:   "set-client-secret [path]",
	Short: "Set the OAuth client secret file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetClientSecret,
}

var configSetQuotaCmd = &cobra.Command{
	Use:   "set-quota [api] [capacity] [window]",
	Short: "Override the rate limit quota for an API",
	Args:  cobra.ExactArgs(3),
	RunE:  runConfigSetQuota,
}

var configSetFeedsCmd = &cobra.Command{
	Use:   "set-feeds [url...]",
	Short: "Replace the configured release feed URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConfigSetFeeds,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetTokenDirCmd)
	configCmd.AddCommand(configSetClientSecretCmd)
	configCmd.AddCommand(configSetQuotaCmd)
	configCmd.AddCommand(configSetFeedsCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return err
	}

	cmd.Println("Auth:")
	cmd.Printf("  Token dir:     %s\n", settings.Auth.TokenDir)
	cmd.Printf("  Client secret: %s\n", settings.Auth.ClientSecretPath)
	cmd.Printf("  Flow timeout:  %s\n", settings.Auth.FlowTimeout)
	cmd.Println()

	cmd.Println("Feeds:")
	if len(settings.Feeds.URLs) == 0 {
		cmd.Println("  (none configured)")
	}
	for _, url := range settings.Feeds.URLs {
		cmd.Printf("  %s\n", url)
	}
	cmd.Println()

	cmd.Println("Rate limits:")
	for api, quota := range domain.DefaultQuotas {
		effective := quota
		overridden := ""
		if override, ok := settings.QuotaOverrides[api]; ok {
			effective = override
			overridden = " (override)"
		}
		cmd.Printf("  %-10s %d per %s%s\n", api, effective.Capacity, effective.Window, overridden)
	}
	return nil
}

func runConfigSetTokenDir(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetTokenDir(args[0]); err != nil {
		return err
	}
	cmd.Printf("Token dir set to %s\n", args[0])
	return nil
}

func runConfigSetClientSecret(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetClientSecretPath(args[0]); err != nil {
		return err
	}
	cmd.Printf("Client secret path set to %s\n", args[0])
	return nil
}

func runConfigSetQuota(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	api := domain.APIName(args[0])
	capacity, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid capacity %q: %w", args[1], err)
	}
	window, err := time.ParseDuration(args[2])
	if err != nil {
		return fmt.Errorf("invalid window %q: %w", args[2], err)
	}

	if err := settingsService.SetQuota(api, domain.Quota{Capacity: capacity, Window: window}); err != nil {
		return err
	}

	cmd.Printf("Quota for %s set to %d per %s (takes effect on next start)\n", api, capacity, window)
	return nil
}

func runConfigSetFeeds(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetFeeds(args); err != nil {
		return err
	}
	cmd.Printf("Configured %d feed(s):\n  %s\n", len(args), strings.Join(args, "\n  "))
	return nil
}
