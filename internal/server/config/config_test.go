package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Empty(t, cfg.JWTSecret)

	// Без секрета конфигурация невалидна
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = testSecret
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		EnvAddr:           "127.0.0.1:9000",
		EnvJWTSecret:      testSecret,
		EnvAccessTTL:      "1m",
		EnvRefreshTTL:     "2h",
		EnvCookieSecure:   "true",
		EnvMetrics:        "false",
		EnvLoginRateLimit: "3",
		EnvRedisURL:       "redis://localhost:6379/0",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, testSecret, cfg.JWTSecret)
	assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 2*time.Hour, cfg.RefreshTokenTTL)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, 3, cfg.LoginRateLimit)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "authgate.db", cfg.DBPath, "не заданные переменные не меняют значения")
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(mapLookup(map[string]string{
		EnvAccessTTL:      "soon",
		EnvCookieSecure:   "maybe",
		EnvLoginRateLimit: "many",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvAccessTTL)
	assert.Contains(t, err.Error(), EnvCookieSecure)
	assert.Contains(t, err.Error(), EnvLoginRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		modify  func(*Config)
		name    string
		errMsg  string
		wantErr bool
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "short secret", modify: func(c *Config) { c.JWTSecret = "short" }, wantErr: true, errMsg: "jwt secret"},
		{name: "empty addr", modify: func(c *Config) { c.Addr = "" }, wantErr: true, errMsg: "listen address"},
		{name: "zero access ttl", modify: func(c *Config) { c.AccessTokenTTL = 0 }, wantErr: true, errMsg: "access token ttl"},
		{
			name:    "refresh shorter than access",
			modify:  func(c *Config) { c.RefreshTokenTTL = time.Minute },
			wantErr: true,
			errMsg:  "refresh token ttl",
		},
		{name: "origin with path", modify: func(c *Config) { c.AllowedOrigin = "http://localhost:5173/app" }, wantErr: true, errMsg: "allowed origin"},
		{name: "origin trailing slash", modify: func(c *Config) { c.AllowedOrigin = "http://localhost:5173/" }},
		{name: "no origin", modify: func(c *Config) { c.AllowedOrigin = "" }},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "loud" }, wantErr: true, errMsg: "log level"},
		{name: "zero rate limit", modify: func(c *Config) { c.LoginRateLimit = 0 }, wantErr: true, errMsg: "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWTSecret = testSecret
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}
