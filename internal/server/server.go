// Package server собирает HTTP сервер authgate: хранилище, JWT, revocation,
// middleware и маршруты.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iudanet/authgate/internal/server/config"
	"github.com/iudanet/authgate/internal/server/handlers"
	"github.com/iudanet/authgate/internal/server/jwt"
	"github.com/iudanet/authgate/internal/server/metrics"
	"github.com/iudanet/authgate/internal/server/middleware"
	"github.com/iudanet/authgate/internal/server/revocation"
	"github.com/iudanet/authgate/internal/server/storage/sqlite"
	"github.com/iudanet/authgate/pkg/api"
)

// readHeaderTimeout защищает от slowloris
const readHeaderTimeout = 5 * time.Second

// PathMetrics endpoint Prometheus метрик
const PathMetrics = "/metrics"

// Server владеет всеми ресурсами процесса
type Server struct {
	logger  *slog.Logger
	store   *sqlite.Storage
	metrics *metrics.Metrics
	revoked revocation.List
	memory  *revocation.Memory
	redis   *redis.Client
	limiter *middleware.RateLimiter
	handler http.Handler
	version string
	cfg     config.Config
}

// New открывает хранилище и revocation list и собирает роутер.
// cfg должен пройти Validate.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, version string) (*Server, error) {
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: metrics.New(),
		version: version,
	}

	if cfg.RedisURL != "" {
		client, err := revocation.Dial(ctx, cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		s.redis = client
		s.revoked = revocation.NewRedis(client)
		logger.InfoContext(ctx, "using redis revocation list")
	} else {
		s.memory = revocation.NewMemory()
		s.revoked = s.memory
		logger.InfoContext(ctx, "using in-memory revocation list")
	}

	s.handler = s.routes()
	return s, nil
}

// Handler возвращает корневой http.Handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes собирает chi роутер
func (s *Server) routes() http.Handler {
	logger := s.logger
	cfg := s.cfg

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.AccessTokenTTL)
	cookies := handlers.CookieConfig{Secure: cfg.CookieSecure}

	authHandler := handlers.NewAuthHandler(logger, s.store, jwtService, s.revoked, s.metrics, handlers.AuthConfig{
		Cookies:         cookies,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	csrfHandler := handlers.NewCSRFHandler(logger, cookies)
	userHandler := handlers.NewUserHandler(logger, s.store)
	postHandler := handlers.NewPostHandler(logger, s.store)
	demoHandler := handlers.NewDemoHandler(logger)
	healthHandler := handlers.NewHealthHandler(logger, s.store.DB(), s.version)

	requireAuth := middleware.AuthMiddleware(logger, jwtService, s.revoked, s.metrics)
	requireCSRF := middleware.CSRFMiddleware(logger)
	strictOrigin := middleware.OriginMiddleware(logger, cfg.AllowedOrigin, middleware.OriginStrict)
	lenientOrigin := middleware.OriginMiddleware(logger, cfg.AllowedOrigin, middleware.OriginLenient)

	var rateLimit func(http.Handler) http.Handler
	rateLimit, s.limiter = middleware.RateLimitMiddleware(cfg.LoginRateLimit, cfg.RateLimitWindow, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingWithSkip(logger, s.metrics, []string{api.PathHealth, PathMetrics}))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, api.ErrCodeNotFound, "resource not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handlers.SendError(w, api.ErrCodeMethodNotAllowed, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get(api.PathHealth, healthHandler.Health)
	if cfg.MetricsEnabled {
		r.Handle(PathMetrics, s.metrics.Handler())
	}

	r.With(strictOrigin).Get(api.PathCSRF, csrfHandler.Issue)
	r.With(strictOrigin).Post(api.PathCSRF, csrfHandler.Issue)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit)

		r.With(strictOrigin, requireCSRF).Post(api.PathRegister, authHandler.Register)
		r.With(strictOrigin, requireCSRF).Post(api.PathLogin, authHandler.Login)
		r.Post(api.PathRefresh, authHandler.Refresh)
		r.With(lenientOrigin).Post(api.PathLogout, authHandler.Logout)
	})

	r.Route(api.PathUser, func(r chi.Router) {
		r.Use(lenientOrigin, requireAuth)

		r.Get("/", userHandler.Current)
		r.Put("/profile", userHandler.UpdateProfile)
		r.Put("/password", userHandler.UpdatePassword)
		r.Post("/profile-image", userHandler.UploadProfileImage)
	})

	r.Route(api.PathPosts, func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", postHandler.List)
		r.Post("/", postHandler.Create)
		r.Get("/my-posts", postHandler.Mine)
		r.Get("/user/{userId}", postHandler.ByUser)
		r.Get("/{id}", postHandler.Get)
		r.Put("/{id}", postHandler.Update)
		r.Delete("/{id}", postHandler.Delete)
	})

	r.With(lenientOrigin, requireAuth, requireCSRF).Post(api.PathDemo, demoHandler.Echo)

	return r
}

// Run слушает cfg.Addr до отмены ctx, затем корректно останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает ln до отмены ctx
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.cleanupLoop(cleanupCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "server listening",
			slog.String("addr", ln.Addr().String()),
			slog.String("version", s.version))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// cleanupLoop периодически удаляет просроченные refresh tokens
func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpired(ctx)
		}
	}
}

// purgeExpired удаляет просроченные refresh tokens и отозванные jti из памяти
func (s *Server) purgeExpired(ctx context.Context) {
	n, err := s.store.DeleteExpiredTokens(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete expired tokens", slog.Any("error", err))
	} else if n > 0 {
		s.metrics.AddTokensPurged(n)
		s.logger.InfoContext(ctx, "expired refresh tokens deleted", slog.Int("count", n))
	}

	if s.memory != nil {
		if purged := s.memory.Purge(); purged > 0 {
			s.logger.DebugContext(ctx, "revocation entries purged", slog.Int("count", purged))
		}
	}
}

// Close освобождает ресурсы. Вызывается после Run.
func (s *Server) Close() error {
	var errs []error
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
