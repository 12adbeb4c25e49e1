// Package config описывает конфигурацию сервера.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Переменные окружения, переопределяющие значения по умолчанию
const (
	EnvAddr            = "AUTHGATE_ADDR"
	EnvDBPath          = "AUTHGATE_DB_PATH"
	EnvJWTSecret       = "AUTHGATE_JWT_SECRET"
	EnvAccessTTL       = "AUTHGATE_ACCESS_TTL"
	EnvRefreshTTL      = "AUTHGATE_REFRESH_TTL"
	EnvCookieSecure    = "AUTHGATE_COOKIE_SECURE"
	EnvAllowedOrigin   = "AUTHGATE_ALLOWED_ORIGIN"
	EnvRedisURL        = "AUTHGATE_REDIS_URL"
	EnvLoginRateLimit  = "AUTHGATE_LOGIN_RATE_LIMIT"
	EnvCleanupInterval = "AUTHGATE_CLEANUP_INTERVAL"
	EnvLogLevel        = "AUTHGATE_LOG_LEVEL"
	EnvMetrics         = "AUTHGATE_METRICS"
)

// MinSecretLength минимальная длина HMAC секрета для HS256
const MinSecretLength = 32

// Config содержит все настройки сервера
type Config struct {
	Addr            string
	DBPath          string
	JWTSecret       string
	AllowedOrigin   string
	RedisURL        string
	LogLevel        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	RateLimitWindow time.Duration
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
	LoginRateLimit  int
	CookieSecure    bool
	MetricsEnabled  bool
}

// Default возвращает конфигурацию по умолчанию.
// У JWTSecret нет значения по умолчанию, его нужно задать.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "authgate.db",
		AllowedOrigin:   "http://localhost:5173",
		LogLevel:        "info",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		LoginRateLimit:  10,
		RateLimitWindow: time.Minute,
		CleanupInterval: time.Hour,
		ShutdownTimeout: 10 * time.Second,
		MetricsEnabled:  true,
	}
}

// ApplyEnv переопределяет cfg переменными AUTHGATE_*, найденными через lookup.
// В production передается os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	str(EnvAddr, &c.Addr)
	str(EnvDBPath, &c.DBPath)
	str(EnvJWTSecret, &c.JWTSecret)
	str(EnvAllowedOrigin, &c.AllowedOrigin)
	str(EnvRedisURL, &c.RedisURL)
	str(EnvLogLevel, &c.LogLevel)

	var errs []error
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
	dur(EnvAccessTTL, &c.AccessTokenTTL)
	dur(EnvRefreshTTL, &c.RefreshTokenTTL)
	dur(EnvCleanupInterval, &c.CleanupInterval)

	boolean := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
	boolean(EnvCookieSecure, &c.CookieSecure)
	boolean(EnvMetrics, &c.MetricsEnabled)

	if v, ok := lookup(EnvLoginRateLimit); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLoginRateLimit, err))
		} else {
			c.LoginRateLimit = n
		}
	}

	return errors.Join(errs...)
}

// Validate проверяет, что с конфигурацией можно запустить сервер
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("database path is required"))
	}
	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes (set %s)", MinSecretLength, EnvJWTSecret))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("refresh token ttl must exceed access token ttl"))
	}
	if c.LoginRateLimit <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("login rate limit must be positive"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("cleanup interval must be positive"))
	}
	if c.AllowedOrigin != "" {
		u, err := url.Parse(c.AllowedOrigin)
		if err != nil || u.Scheme == "" || u.Host == "" || strings.TrimSuffix(c.AllowedOrigin, "/") != u.Scheme+"://"+u.Host {
			errs = append(errs, fmt.Errorf("allowed origin %q must be scheme://host[:port]", c.AllowedOrigin))
		}
	}
	if c.RedisURL != "" {
		if _, err := url.Parse(c.RedisURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid redis url: %w", err))
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// SlogLevel переводит LogLevel в уровень log/slog, неизвестные значения дают Info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
