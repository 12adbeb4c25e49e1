package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/pkg/api"
)

func TestCSRFMiddleware(t *testing.T) {
	handler := CSRFMiddleware(setupTestLogger())(okHandler)

	tests := []struct {
		name       string
		method     string
		cookie     string
		header     string
		wantStatus int
	}{
		{"matching tokens", http.MethodPost, "tok", "tok", http.StatusOK},
		{"safe method without tokens", http.MethodGet, "", "", http.StatusOK},
		{"missing header", http.MethodPost, "tok", "", http.StatusForbidden},
		{"missing cookie", http.MethodPost, "", "tok", http.StatusForbidden},
		{"both missing", http.MethodPost, "", "", http.StatusForbidden},
		{"mismatch", http.MethodPut, "tok", "other", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, api.PathLogin, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: api.CookieCSRF, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(api.HeaderCSRF, tt.header)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				var resp api.ErrorResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, api.ErrCodeCSRF, resp.Error)
			}
		})
	}
}
