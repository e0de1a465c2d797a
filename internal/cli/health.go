package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check that the server answers /api/health.

With --wait, keep polling until the server is up or the wait runs out,
which is handy right after starting the server in a script.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := checkHealth(cmd.Context(), wait, 250*time.Millisecond)
			if err != nil {
				return err
			}
			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep retrying for up to this long")

	return cmd
}

func checkHealth(ctx context.Context, wait, interval time.Duration) (HealthResult, error) {
	deadline := time.Now().Add(wait)
	for {
		var result HealthResult
		err := client.Get(ctx, "/api/health", &result)
		if err == nil || !time.Now().Before(deadline) {
			return result, err
		}

		select {
		case <-ctx.Done():
			return result, fmt.Errorf("gave up waiting for server: %w", err)
		case <-time.After(interval):
		}
	}
}
