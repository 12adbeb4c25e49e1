package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iudanet/authgate/internal/server"
	"github.com/iudanet/authgate/internal/server/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCommand собирает команду сервера.
// Приоритет настроек: флаги > переменные окружения AUTHGATE_* > значения по умолчанию.
func newRootCommand() *cobra.Command {
	cfg := config.Default()
	var envErr error
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		envErr = err
	}

	cmd := &cobra.Command{
		Use:           "authgate-server",
		Short:         "authgate REST backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return fmt.Errorf("invalid environment: %w", envErr)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("authgate server\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		Version, BuildDate, GitCommit))

	flags := cmd.Flags()
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address (env "+config.EnvAddr+")")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database (env "+config.EnvDBPath+")")
	flags.StringVar(&cfg.AllowedOrigin, "allowed-origin", cfg.AllowedOrigin, "Browser origin allowed for CORS and origin checks (env "+config.EnvAllowedOrigin+")")
	flags.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the shared revocation list, in-memory if empty (env "+config.EnvRedisURL+")")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (env "+config.EnvLogLevel+")")
	flags.DurationVar(&cfg.AccessTokenTTL, "access-ttl", cfg.AccessTokenTTL, "Access token lifetime (env "+config.EnvAccessTTL+")")
	flags.DurationVar(&cfg.RefreshTokenTTL, "refresh-ttl", cfg.RefreshTokenTTL, "Refresh token lifetime (env "+config.EnvRefreshTTL+")")
	flags.DurationVar(&cfg.CleanupInterval, "cleanup-interval", cfg.CleanupInterval, "Expired refresh token purge interval (env "+config.EnvCleanupInterval+")")
	flags.IntVar(&cfg.LoginRateLimit, "login-rate-limit", cfg.LoginRateLimit, "Requests per minute per IP on /api/auth (env "+config.EnvLoginRateLimit+")")
	flags.BoolVar(&cfg.CookieSecure, "cookie-secure", cfg.CookieSecure, "Set Secure and SameSite=None on cookies (env "+config.EnvCookieSecure+")")
	flags.BoolVar(&cfg.MetricsEnabled, "metrics", cfg.MetricsEnabled, "Expose Prometheus metrics on /metrics (env "+config.EnvMetrics+")")
	// JWT секрет только из окружения, чтобы не светить его в ps

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	srv, err := server.New(ctx, cfg, logger, Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("failed to close server resources", slog.Any("error", err))
		}
	}()

	return srv.Run(ctx)
}
