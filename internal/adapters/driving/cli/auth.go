package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/koyomi/koyomi/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage OAuth credentials for Google services",
	Long: `Authenticate with Google services and inspect or revoke stored
credentials.

Tokens are stored per service under the configured token directory with
owner-only permissions. Login reuses a cached token when it is still
valid, refreshes it when possible, and falls back to the interactive
browser flow otherwise.

Examples:
  # Authenticate Gmail
  koyomi auth login gmail

  # Show credential state for all services
  koyomi auth status

  # Remove stored Calendar credentials
  koyomi auth revoke calendar`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [service]",
	Short: "Authenticate a Google service",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credential state for all services",
	RunE:  runAuthStatus,
}

var authRevokeCmd = &cobra.Command{
	Use:   "revoke [service]",
	Short: "Remove stored credentials for a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthRevoke,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRevokeCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	service := args[0]
	if err := authService.Login(context.Background(), service); err != nil {
		var authErr *domain.AuthenticationError
		if errors.As(err, &authErr) {
			return fmt.Errorf("authentication failed for %s: %w", authErr.Service, authErr.Err)
		}
		return err
	}

	cmd.Printf("Authenticated %s\n", service)
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	for _, service := range authService.Services() {
		status, err := authService.Status(service)
		if err != nil {
			return err
		}

		cmd.Printf("%s:\n", service)
		cmd.Printf("  Authenticated: %t\n", status.Authenticated)
		cmd.Printf("  Token file:    %t\n", status.TokenExists)
		if status.Authenticated {
			if status.SecondsUntilExpiry >= 0 {
				cmd.Printf("  Expires in:    %.0fs\n", status.SecondsUntilExpiry)
			}
			if !status.LastAuthTime.IsZero() {
				cmd.Printf("  Last auth:     %s\n", status.LastAuthTime.Format(time.RFC3339))
			}
		}
		if status.FailureCount > 0 {
			cmd.Printf("  Failures:      %d\n", status.FailureCount)
		}
		cmd.Println()
	}
	return nil
}

func runAuthRevoke(cmd *cobra.Command, args []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	service := args[0]
	if err := authService.Revoke(service); err != nil {
		return fmt.Errorf("failed to revoke %s: %w", service, err)
	}

	cmd.Printf("Removed credentials for %s\n", service)
	return nil
}
