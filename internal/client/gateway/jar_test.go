package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/client/storage"
	"github.com/iudanet/authgate/pkg/api"
)

type memoryCookieStore struct {
	hosts map[string][]storage.StoredCookie
	mu    sync.Mutex
}

func newMemoryCookieStore() *memoryCookieStore {
	return &memoryCookieStore{hosts: make(map[string][]storage.StoredCookie)}
}

func (m *memoryCookieStore) SaveCookies(ctx context.Context, host string, cookies []storage.StoredCookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(cookies) == 0 {
		delete(m.hosts, host)
		return nil
	}
	m.hosts[host] = append([]storage.StoredCookie(nil), cookies...)
	return nil
}

func (m *memoryCookieStore) LoadCookies(ctx context.Context, host string) ([]storage.StoredCookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storage.StoredCookie(nil), m.hosts[host]...), nil
}

func (m *memoryCookieStore) DeleteCookies(ctx context.Context, host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hosts, host)
	return nil
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestJar_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCookieStore()
	base := mustParse(t, "http://127.0.0.1:8080")
	refreshURL := mustParse(t, "http://127.0.0.1:8080"+api.PathRefresh)

	jar, err := NewJar(ctx, store, nil, base)
	require.NoError(t, err)

	jar.SetCookies(refreshURL, []*http.Cookie{
		{Name: api.CookieRefresh, Value: "r1", Path: api.RefreshCookiePath, HttpOnly: true, MaxAge: 3600},
	})
	jar.SetCookies(base, []*http.Cookie{
		{Name: api.CookieCSRF, Value: "x1", Path: "/"},
	})

	saved, err := store.LoadCookies(ctx, "127.0.0.1:8080")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.False(t, saved[0].Expires.IsZero())

	// Новый процесс: cookies восстанавливаются из store
	restored, err := NewJar(ctx, store, nil, base)
	require.NoError(t, err)

	names := map[string]string{}
	for _, c := range restored.Cookies(refreshURL) {
		names[c.Name] = c.Value
	}
	assert.Equal(t, "r1", names[api.CookieRefresh])
	assert.Equal(t, "x1", names[api.CookieCSRF])

	// refresh cookie ограничен своим путем
	for _, c := range restored.Cookies(mustParse(t, "http://127.0.0.1:8080/api/user")) {
		assert.NotEqual(t, api.CookieRefresh, c.Name)
	}
}

func TestJar_RotationAndDeletion(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCookieStore()
	u := mustParse(t, "http://127.0.0.1:8080"+api.PathRefresh)

	jar, err := NewJar(ctx, store, nil, u)
	require.NoError(t, err)

	jar.SetCookies(u, []*http.Cookie{{Name: api.CookieRefresh, Value: "r1", Path: api.RefreshCookiePath}})
	jar.SetCookies(u, []*http.Cookie{{Name: api.CookieRefresh, Value: "r2", Path: api.RefreshCookiePath}})

	saved, err := store.LoadCookies(ctx, u.Host)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "r2", saved[0].Value)

	// Logout: сервер выставляет MaxAge<0
	jar.SetCookies(u, []*http.Cookie{{Name: api.CookieRefresh, Value: "", Path: api.RefreshCookiePath, MaxAge: -1}})

	saved, err = store.LoadCookies(ctx, u.Host)
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_SkipsExpiredOnLoad(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCookieStore()
	u := mustParse(t, "http://127.0.0.1:8080/")

	require.NoError(t, store.SaveCookies(ctx, u.Host, []storage.StoredCookie{
		{Name: "old", Value: "v", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "live", Value: "v", Path: "/", Expires: time.Now().Add(time.Hour)},
	}))

	jar, err := NewJar(ctx, store, nil, u)
	require.NoError(t, err)

	cookies := jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "live", cookies[0].Name)
}

func TestMergeCookies(t *testing.T) {
	now := time.Now()
	existing := []storage.StoredCookie{
		{Name: "a", Value: "1", Path: "/"},
		{Name: "b", Value: "1", Path: "/"},
	}

	merged := mergeCookies(existing, []*http.Cookie{
		{Name: "a", Value: "2", Path: "/"},
		{Name: "b", Path: "/", Expires: now.Add(-time.Minute)},
		{Name: "c", Value: "1", Path: "/x"},
	}, now)

	require.Len(t, merged, 2)
	assert.Equal(t, "a", merged[0].Name)
	assert.Equal(t, "2", merged[0].Value)
	assert.Equal(t, "c", merged[1].Name)
}

func TestJar_Forget(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCookieStore()
	base := mustParse(t, "http://127.0.0.1:8080")
	refreshURL := mustParse(t, "http://127.0.0.1:8080"+api.PathRefresh)

	jar, err := NewJar(ctx, store, nil, base)
	require.NoError(t, err)
	jar.SetCookies(refreshURL, []*http.Cookie{
		{Name: api.CookieRefresh, Value: "r1", Path: api.RefreshCookiePath, HttpOnly: true},
		{Name: api.CookieCSRF, Value: "x1", Path: "/"},
	})

	jar.Forget(base, api.CookieRefresh)

	cookies := jar.Cookies(refreshURL)
	require.Len(t, cookies, 1)
	assert.Equal(t, api.CookieCSRF, cookies[0].Name)

	saved, err := store.LoadCookies(ctx, base.Host)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, api.CookieCSRF, saved[0].Name)

	// Без имен удаляется все
	jar.Forget(base)
	assert.Empty(t, jar.Cookies(refreshURL))
	saved, err = store.LoadCookies(ctx, base.Host)
	require.NoError(t, err)
	assert.Empty(t, saved)

	// Неизвестный хост
	jar.Forget(mustParse(t, "http://example.com"))
}

// Store всегда получает последний снимок, даже при параллельной ротации
func TestJar_ConcurrentSetCookiesKeepStoreInSync(t *testing.T) {
	ctx := context.Background()
	store := newMemoryCookieStore()
	u := mustParse(t, "http://127.0.0.1:8080"+api.PathRefresh)

	jar, err := NewJar(ctx, store, nil, u)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jar.SetCookies(u, []*http.Cookie{
				{Name: api.CookieRefresh, Value: fmt.Sprintf("r%d", i), Path: api.RefreshCookiePath},
			})
		}(i)
	}
	wg.Wait()

	cookies := jar.Cookies(u)
	require.Len(t, cookies, 1)

	saved, err := store.LoadCookies(ctx, u.Host)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, cookies[0].Value, saved[0].Value)
}
