package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from server",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runLogout(ctx)
		}),
	}
}

func (c *Cli) runLogout(ctx context.Context) error {
	c.io.Println("=== Logout ===")

	if err := c.authService.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")

	return nil
}
