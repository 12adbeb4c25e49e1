package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.IncLogin(ResultSuccess)
	m.IncLogin(ResultFailure)
	m.IncLogin(ResultFailure)
	m.IncRefresh(ResultSuccess)
	m.IncAuthFailure(ResultExpired)
	m.IncrementUsersCreated()
	m.AddTokensPurged(3)
	m.AddTokensPurged(0)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Logins.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Logins.WithLabelValues(ResultFailure)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Refreshes.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthFailures.WithLabelValues(ResultExpired)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UsersCreated), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.TokensPurged), 0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncLogin(ResultSuccess)
		m.IncRefresh(ResultFailure)
		m.IncAuthFailure(ResultInvalid)
		m.IncrementUsersCreated()
		m.AddTokensPurged(1)
		m.ObserveRequest(http.MethodGet, "/api/health", http.StatusOK, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/posts/{id}", http.StatusOK, 5*time.Millisecond)

	// Независимые реестры: повторный New не паникует на дублирующей регистрации
	_ = New()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "authgate_http_request_duration_seconds_bucket")
	assert.Contains(t, body, `route="/api/posts/{id}"`)
	assert.Contains(t, body, "go_goroutines")
}
