// Package cli implements the koyomi command line interface using cobra.
// Services are injected by the composition root via Setup; commands
// fail with a clear error when run before wiring.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/koyomi/koyomi/internal/core/ports/driving"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected services. Nil until Setup is called.
var (
	authService     driving.AuthService
	settingsService driving.SettingsService
	registry        *ratelimit.Registry
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "koyomi",
	Short: "Rate-limited, authenticated access to release tracker APIs",
	Long: `koyomi manages the API access layer of an anime release tracker:
OAuth credentials for Google services and client-side rate limits for
AniList, Gmail, Google Calendar, Syoboi Calendar and release feeds.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

// Services bundles everything the CLI needs from the composition root.
type Services struct {
	Auth     driving.AuthService
	Settings driving.SettingsService
	Registry *ratelimit.Registry
}

// Setup injects services into the command tree. Call before Execute.
func Setup(s Services) {
	authService = s.Auth
	settingsService = s.Settings
	registry = s.Registry
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}
