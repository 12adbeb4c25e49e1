package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/iudanet/authgate/internal/client/api"
	"github.com/iudanet/authgate/internal/client/auth"
	"github.com/iudanet/authgate/internal/client/gateway"
	"github.com/iudanet/authgate/internal/client/iocli"
	"github.com/iudanet/authgate/internal/client/storage/boltdb"
	pkgapi "github.com/iudanet/authgate/pkg/api"
)

// EnvPassword supplies the password without an interactive prompt
const EnvPassword = "AUTHGATE_PASSWORD"

// Options are the global flags shared by every command.
type Options struct {
	ServerURL    string
	DBPath       string
	PasswordFile string
	Timeout      time.Duration
	Verbose      bool
}

// Cli wires the client stack for one command invocation.
type Cli struct {
	io          iocli.IO
	logger      *slog.Logger
	store       *boltdb.Storage
	jar         *gateway.Jar
	session     *auth.Session
	gateway     *gateway.Gateway
	apiClient   *api.Client
	users       *auth.UserCache
	authService *auth.Service
	opts        Options
}

// Open opens the local store and builds the session, gateway and API client.
func Open(ctx context.Context, opts Options, io iocli.IO, logger *slog.Logger) (*Cli, error) {
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(opts.ServerURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid server URL %q", opts.ServerURL)
	}

	store, err := boltdb.New(ctx, opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c, err := wire(ctx, opts, io, logger, store, base)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

func wire(ctx context.Context, opts Options, io iocli.IO, logger *slog.Logger, store *boltdb.Storage, base *url.URL) (*Cli, error) {
	jar, err := gateway.NewJar(ctx, store, logger, base)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout, Jar: jar}

	session, err := auth.NewSession(ctx, store, logger)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.New(gateway.Config{BaseURL: opts.ServerURL}, httpClient, session, logger)
	if err != nil {
		_ = session.Close()
		return nil, err
	}

	apiClient := api.NewClient(opts.ServerURL, httpClient, gw)
	users := auth.NewUserCache(session, apiClient)

	return &Cli{
		io:          io,
		logger:      logger,
		store:       store,
		jar:         jar,
		session:     session,
		gateway:     gw,
		apiClient:   apiClient,
		users:       users,
		authService: auth.NewService(apiClient, session, users, logger),
		opts:        opts,
	}, nil
}

// Close releases the session and the local database.
func (c *Cli) Close() error {
	c.users.Close()
	_ = c.session.Close()
	return c.store.Close()
}

// requireAuth возвращает ошибку, если нет сохраненного credential
func (c *Cli) requireAuth() error {
	if !c.session.Authenticated() {
		return fmt.Errorf("not authenticated. Please run 'authgate login' first")
	}
	return nil
}

// getPassword retrieves a password with priority:
// 1. Environment variable AUTHGATE_PASSWORD
// 2. File given by --password-file
// 3. Interactive prompt (fallback)
func (c *Cli) getPassword(prompt string) (string, error) {
	if envPassword := os.Getenv(EnvPassword); envPassword != "" {
		return envPassword, nil
	}

	if c.opts.PasswordFile != "" {
		content, err := os.ReadFile(c.opts.PasswordFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		// Убираем trailing newline/whitespace
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// passwordFromPrompt сообщает, будет ли пароль запрошен интерактивно
func (c *Cli) passwordFromPrompt() bool {
	return os.Getenv(EnvPassword) == "" && c.opts.PasswordFile == ""
}

// inputOr возвращает value или запрашивает его у пользователя
func (c *Cli) inputOr(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	input, err := c.io.ReadInput(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return input, nil
}

// describeError делает ошибки сервера понятнее для пользователя
func describeError(err error) error {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized &&
		statusErr.Code != pkgapi.ErrCodeInvalidCredentials {
		return fmt.Errorf("%w\nYour session has expired. Please run 'authgate login' again", err)
	}
	return err
}
