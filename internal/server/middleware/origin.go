package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/iudanet/authgate/internal/server/handlers"
	"github.com/iudanet/authgate/pkg/api"
)

// OriginPolicy определяет, какие заголовки сверяются с разрешенным origin
type OriginPolicy int

const (
	// OriginLenient проверяет только Origin, если он передан
	OriginLenient OriginPolicy = iota
	// OriginStrict проверяет Origin, а без него Referer
	OriginStrict
)

// OriginMiddleware отклоняет запросы с чужим Origin/Referer.
// Запросы без обоих заголовков (CLI, server-to-server) пропускаются.
func OriginMiddleware(logger *slog.Logger, allowedOrigin string, policy OriginPolicy) func(http.Handler) http.Handler {
	allowed := normalizeOrigin(allowedOrigin)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if ok, source := originAllowed(r, allowed, policy); !ok {
				logger.WarnContext(r.Context(), "request from disallowed origin",
					slog.String("source", source),
					slog.String("path", r.URL.Path),
				)
				handlers.SendError(w, api.ErrCodeOrigin, "origin not allowed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed возвращает результат проверки и проверенное значение
func originAllowed(r *http.Request, allowed string, policy OriginPolicy) (bool, string) {
	if origin := r.Header.Get("Origin"); origin != "" {
		return normalizeOrigin(origin) == allowed, origin
	}

	if policy != OriginStrict {
		return true, ""
	}

	referer := r.Header.Get("Referer")
	if referer == "" {
		return true, ""
	}

	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false, referer
	}
	return normalizeOrigin(u.Scheme+"://"+u.Host) == allowed, referer
}

func normalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(origin), "/"))
}
