package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/authgate/internal/client/iocli"
)

// VersionInfo is set via ldflags in cmd/client.
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// NewRootCommand builds the authgate command tree.
func NewRootCommand(stdio iocli.IO, info VersionInfo) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:           "authgate",
		Short:         "Terminal client for the authgate API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       info.Version,
	}
	root.SetVersionTemplate(fmt.Sprintf("authgate client\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		info.Version, info.BuildDate, info.GitCommit))

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ServerURL, "server", envOr("AUTHGATE_SERVER", "http://localhost:8080"), "Server URL (env AUTHGATE_SERVER)")
	flags.StringVar(&opts.DBPath, "db", envOr("AUTHGATE_DB", "authgate-client.db"), "Path to local database (env AUTHGATE_DB)")
	flags.StringVar(&opts.PasswordFile, "password-file", "", "Path to file containing the password")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging")

	run := func(fn func(ctx context.Context, c *Cli, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			c, err := Open(ctx, *opts, stdio, newLogger(cmd.ErrOrStderr(), opts.Verbose))
			if err != nil {
				return err
			}
			defer func() {
				_ = c.Close()
			}()

			return describeError(fn(ctx, c, args))
		}
	}

	root.AddCommand(
		newRegisterCommand(run),
		newLoginCommand(run),
		newLogoutCommand(run),
		newStatusCommand(run),
		newWhoamiCommand(run),
		newProfileCommand(run),
		newPasswordCommand(run),
		newAvatarCommand(run),
		newPostsCommand(run),
		newDemoCommand(run),
		newRefreshCommand(run),
	)

	return root
}

// runFunc оборачивает обработчик команды: открывает и закрывает Cli
type runFunc func(fn func(ctx context.Context, c *Cli, args []string) error) func(*cobra.Command, []string) error

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
