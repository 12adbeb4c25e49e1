package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh session for a new access token",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runRefresh(ctx)
		}),
	}
}

func (c *Cli) runRefresh(ctx context.Context) error {
	if _, ok := c.gateway.Refresh(ctx); !ok {
		return fmt.Errorf("refresh failed, session cleared. Please run 'authgate login' again")
	}
	c.io.Println("✓ Access token refreshed")
	return nil
}
