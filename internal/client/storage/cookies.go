package storage

import (
	"context"
	"time"
)

// StoredCookie is the persisted form of an HTTP cookie.
type StoredCookie struct {
	Expires  time.Time `json:"expires"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path"`
	Domain   string    `json:"domain"`
	Secure   bool      `json:"secure"`
	HttpOnly bool      `json:"http_only"`
}

// Expired reports whether the cookie has a past expiry time.
func (c StoredCookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// CookieStorage persists cookies between client runs, keyed by host.
// It backs the refresh-token session cookie and the anti-forgery cookie.
type CookieStorage interface {
	// SaveCookies replaces all cookies stored for host
	SaveCookies(ctx context.Context, host string, cookies []StoredCookie) error

	// LoadCookies returns cookies stored for host (empty slice if none)
	LoadCookies(ctx context.Context, host string) ([]StoredCookie, error)

	// DeleteCookies removes everything stored for host
	DeleteCookies(ctx context.Context, host string) error
}
