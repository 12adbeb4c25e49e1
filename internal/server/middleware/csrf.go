package middleware

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/authgate/internal/crypto"
	"github.com/iudanet/authgate/internal/server/handlers"
	"github.com/iudanet/authgate/pkg/api"
)

// CSRFMiddleware проверяет double-submit токен: значение cookie XSRF-TOKEN
// должно совпадать с заголовком X-XSRF-TOKEN. Безопасные методы пропускаются.
func CSRFMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			var cookieToken string
			if cookie, err := r.Cookie(api.CookieCSRF); err == nil {
				cookieToken = cookie.Value
			}

			if !crypto.EqualTokens(cookieToken, r.Header.Get(api.HeaderCSRF)) {
				logger.WarnContext(r.Context(), "csrf token mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("cookie_present", cookieToken != ""),
				)
				handlers.SendError(w, api.ErrCodeCSRF, "invalid or missing CSRF token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
