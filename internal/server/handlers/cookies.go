package handlers

import (
	"net/http"
	"time"

	"github.com/iudanet/authgate/pkg/api"
)

// CookieConfig управляет атрибутами cookie, выдаваемых сервером
type CookieConfig struct {
	// Secure выставляет флаг Secure (обязателен за HTTPS, SameSite=None)
	Secure bool
}

func (c CookieConfig) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// setRefreshCookie выдает HttpOnly cookie, видимую только endpoint'ам /api/auth
func (c CookieConfig) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.CookieRefresh,
		Value:    token,
		Path:     api.RefreshCookiePath,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

// clearRefreshCookie просит клиента удалить refresh cookie
func (c CookieConfig) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.CookieRefresh,
		Value:    "",
		Path:     api.RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
	})
}

// setCSRFCookie выдает anti-forgery cookie, читаемую клиентом
func (c CookieConfig) setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.CookieCSRF,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
