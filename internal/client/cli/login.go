package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newLoginCommand(run runFunc) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to server",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runLogin(ctx, email)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func (c *Cli) runLogin(ctx context.Context, email string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	email, err := c.inputOr(email, "Email: ")
	if err != nil {
		return err
	}

	password, err := c.getPassword("Password: ")
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	user, err := c.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	if user != nil {
		c.io.Printf("Welcome, %s <%s>\n", user.Name, user.Email)
	}
	c.io.Println("Your session has been saved.")

	return nil
}
