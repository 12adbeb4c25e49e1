package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/authgate/internal/server/handlers"
	"github.com/iudanet/authgate/internal/server/jwt"
	"github.com/iudanet/authgate/internal/server/metrics"
	"github.com/iudanet/authgate/internal/server/revocation"
	"github.com/iudanet/authgate/pkg/api"
)

// AuthMiddleware создает middleware для проверки JWT access token.
// Просроченный токен получает 401 с заголовком X-Token-Expired: true,
// по которому клиент запускает refresh.
func AuthMiddleware(
	logger *slog.Logger,
	jwtService *jwt.Service,
	revoked revocation.List,
	m *metrics.Metrics,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Ожидаем формат: "Bearer <token>"
			token, ok := handlers.BearerToken(r)
			if !ok {
				m.IncAuthFailure("missing")
				logger.DebugContext(ctx, "missing or malformed Authorization header")
				handlers.SendError(w, api.ErrCodeInvalidToken, "authentication required", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					m.IncAuthFailure(metrics.ResultExpired)
					logger.DebugContext(ctx, "access token expired")
					w.Header().Set(api.HeaderTokenExpired, "true")
					handlers.SendError(w, api.ErrCodeTokenExpired, "access token expired", http.StatusUnauthorized)
					return
				}
				m.IncAuthFailure(metrics.ResultInvalid)
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				handlers.SendError(w, api.ErrCodeInvalidToken, "invalid access token", http.StatusUnauthorized)
				return
			}

			isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				logger.ErrorContext(ctx, "revocation check failed", slog.Any("error", err))
				handlers.SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
				return
			}
			if isRevoked {
				m.IncAuthFailure("revoked")
				logger.WarnContext(ctx, "revoked access token used", slog.String("user_id", claims.UserID()))
				handlers.SendError(w, api.ErrCodeInvalidToken, "access token revoked", http.StatusUnauthorized)
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.String("user_id", claims.UserID()))

			// Передаем запрос дальше с обновленным контекстом
			next.ServeHTTP(w, r.WithContext(handlers.WithClaims(ctx, claims)))
		})
	}
}
