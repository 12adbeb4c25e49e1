package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iudanet/authgate/internal/validation"
	"github.com/iudanet/authgate/pkg/api"
)

// maxAvatarFile ограничивает размер загружаемого файла
const maxAvatarFile = 5 << 20

func newWhoamiCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user profile",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runWhoami(ctx)
		}),
	}
}

func newProfileCommand(run runFunc) *cobra.Command {
	var name, email string

	update := &cobra.Command{
		Use:   "update",
		Short: "Update name and/or email",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runProfileUpdate(ctx, name, email)
		}),
	}
	update.Flags().StringVar(&name, "name", "", "New display name")
	update.Flags().StringVar(&email, "email", "", "New email address")

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile",
	}
	cmd.AddCommand(update)
	return cmd
}

func newPasswordCommand(run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change password",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *Cli, _ []string) error {
			return c.runPassword(ctx)
		}),
	}
}

func newAvatarCommand(run runFunc) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload a profile image (resized to 120x120 by the server)",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, c *Cli, args []string) error {
			return c.runAvatar(ctx, args[0], out)
		}),
	}
	cmd.Flags().StringVar(&out, "out", "", "Save the processed JPEG to this path")
	return cmd
}

func (c *Cli) runWhoami(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	user, err := c.users.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	return c.printUser(user)
}

func (c *Cli) runProfileUpdate(ctx context.Context, name, email string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if name == "" && email == "" {
		return fmt.Errorf("nothing to update: use --name and/or --email")
	}

	// Недостающие поля берем из текущего профиля
	current, err := c.users.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if name == "" {
		name = current.Name
	}
	if email == "" {
		email = current.Email
	}

	if err := validation.ValidateName(name); err != nil {
		return fmt.Errorf("invalid name: %w", err)
	}
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	user, err := c.apiClient.UpdateProfile(ctx, api.UpdateProfileRequest{Name: name, Email: email})
	if err != nil {
		return err
	}
	c.users.Prime(user)

	c.io.Println("✓ Profile updated")
	return c.printUser(user)
}

func (c *Cli) runPassword(ctx context.Context) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	c.io.Println("=== Change Password ===")
	c.io.Println()

	current, err := c.io.ReadPassword("Current password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	next, err := c.io.ReadPassword("New password (min 8 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm new password: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if next != confirm {
		return fmt.Errorf("passwords do not match")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	if err := c.apiClient.UpdatePassword(ctx, api.UpdatePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}); err != nil {
		return err
	}

	c.io.Println("✓ Password changed")
	return nil
}

func (c *Cli) runAvatar(ctx context.Context, path, out string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	if info.Size() > maxAvatarFile {
		return fmt.Errorf("image is too large: %d bytes (max %d)", info.Size(), maxAvatarFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.apiClient.UploadProfileImage(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	c.users.Invalidate()

	jpeg, err := base64.StdEncoding.DecodeString(resp.ImageData)
	if err != nil {
		return fmt.Errorf("server returned invalid image data: %w", err)
	}
	c.io.Printf("✓ Profile image updated (%d bytes JPEG)\n", len(jpeg))

	if out != "" {
		if err := os.WriteFile(out, jpeg, 0o600); err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		c.io.Printf("Saved to %s\n", out)
	}
	return nil
}
