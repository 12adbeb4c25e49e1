package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/handlers"
	"github.com/iudanet/authgate/internal/server/jwt"
	"github.com/iudanet/authgate/internal/server/metrics"
	"github.com/iudanet/authgate/internal/server/revocation"
	"github.com/iudanet/authgate/pkg/api"
)

const testSecret = "test-secret-key-that-is-long-enough-32"

var testUser = &models.User{ID: "user-123", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser}

// principalHandler возвращает user_id из контекста в теле ответа
var principalHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, ok := handlers.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(userID))
})

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, api.PathUser, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthMiddleware(t *testing.T) {
	svc := jwt.NewService(testSecret, 15*time.Minute)
	expiredSvc := jwt.NewService(testSecret, -time.Minute)
	otherSvc := jwt.NewService("another-secret-key-that-is-long-enough", 15*time.Minute)
	revoked := revocation.NewMemory()
	m := metrics.New()

	handler := AuthMiddleware(setupTestLogger(), svc, revoked, m)(principalHandler)

	valid, _, err := svc.GenerateAccessToken(testUser)
	require.NoError(t, err)
	expired, _, err := expiredSvc.GenerateAccessToken(testUser)
	require.NoError(t, err)
	foreign, _, err := otherSvc.GenerateAccessToken(testUser)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authRequest(valid))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, testUser.ID, w.Body.String())
	})

	tests := []struct {
		name          string
		req           *http.Request
		wantCode      string
		expiredHeader bool
	}{
		{"missing header", authRequest(""), api.ErrCodeInvalidToken, false},
		{"basic auth", func() *http.Request {
			req := authRequest("")
			req.SetBasicAuth("user", "pass")
			return req
		}(), api.ErrCodeInvalidToken, false},
		{"garbage token", authRequest("not-a-jwt"), api.ErrCodeInvalidToken, false},
		{"foreign signature", authRequest(foreign), api.ErrCodeInvalidToken, false},
		{"expired token", authRequest(expired), api.ErrCodeTokenExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, tt.req)

			require.Equal(t, http.StatusUnauthorized, w.Code)

			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Error)

			if tt.expiredHeader {
				assert.Equal(t, "true", w.Header().Get(api.HeaderTokenExpired))
			} else {
				assert.Empty(t, w.Header().Get(api.HeaderTokenExpired))
			}
		})
	}

	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthFailures.WithLabelValues(metrics.ResultExpired)), 0)

	t.Run("revoked token", func(t *testing.T) {
		claims, err := svc.ValidateAccessToken(valid)
		require.NoError(t, err)
		require.NoError(t, revoked.Revoke(context.Background(), claims.ID, time.Minute))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authRequest(valid))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, w.Header().Get(api.HeaderTokenExpired))
	})
}

type failingList struct{}

func (failingList) Revoke(context.Context, string, time.Duration) error { return nil }

func (failingList) IsRevoked(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

func TestAuthMiddleware_RevocationUnavailable(t *testing.T) {
	svc := jwt.NewService(testSecret, 15*time.Minute)
	token, _, err := svc.GenerateAccessToken(testUser)
	require.NoError(t, err)

	handler := AuthMiddleware(setupTestLogger(), svc, failingList{}, nil)(principalHandler)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authRequest(token))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
