package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Show rate limit state for all APIs",
	Long: `Show the configured quota and current usage of every rate-limited
API. Remaining counts reflect this process only; limits are not shared
across processes.`,
	RunE: runLimits,
}

func init() {
	rootCmd.AddCommand(limitsCmd)
}

func runLimits(cmd *cobra.Command, _ []string) error {
	if registry == nil {
		return errors.New("rate limiter registry not configured")
	}

	for _, name := range registry.Names() {
		limiter, err := registry.Get(name)
		if err != nil {
			return err
		}

		cmd.Printf("%s:\n", name)
		cmd.Printf("  Quota:     %d per %s\n", limiter.Capacity(), limiter.Window())
		cmd.Printf("  Remaining: %d\n", limiter.RemainingCalls())
		if wait := limiter.TimeUntilNextCall(); wait > 0 {
			cmd.Printf("  Next call: %s\n", wait.Round(time.Millisecond))
		}
		cmd.Println()
	}
	return nil
}
