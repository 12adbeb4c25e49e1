package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCommand(run runFunc) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runRegister(ctx, name, email)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}

func (c *Cli) runRegister(ctx context.Context, name, email string) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	name, err := c.inputOr(name, "Name: ")
	if err != nil {
		return err
	}
	email, err = c.inputOr(email, "Email: ")
	if err != nil {
		return err
	}

	password, err := c.getPassword("Password (min 8 chars): ")
	if err != nil {
		return err
	}

	// Подтверждение только при интерактивном вводе
	if c.passwordFromPrompt() {
		confirm, err := c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	c.io.Println()
	c.io.Println("Registering user...")

	result, err := c.authService.Register(ctx, name, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", result.UserID)
	c.io.Println()
	c.io.Println("Please run 'authgate login' to start using the service.")

	return nil
}
