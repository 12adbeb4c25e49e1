package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newDemoCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "demo <message>",
		Short: "Send a message to the demo echo endpoint",
		Args:  cobra.MinimumNArgs(1),
		RunE: run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runDemo(ctx, strings.Join(args, " "))
		}),
	}
}

func (c *Cli) runDemo(ctx context.Context, message string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("enter a message before sending")
	}

	// Endpoint проверяет CSRF: получаем свежий токен в jar
	if _, err := c.apiClient.FetchCSRF(ctx); err != nil {
		return err
	}

	echo, err := c.apiClient.Demo(ctx, message)
	if err != nil {
		return err
	}
	c.io.Println(echo)
	return nil
}
