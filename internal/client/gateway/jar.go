package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/iudanet/authgate/internal/client/storage"
)

// Jar это http.CookieJar, который копирует все полученные cookies в
// CookieStorage, чтобы refresh cookie пережила перезапуск процесса.
type Jar struct {
	jar    *cookiejar.Jar
	store  storage.CookieStorage
	logger *slog.Logger
	// saved host -> cookies, в том виде, в котором они лежат в store
	saved map[string][]storage.StoredCookie
	mu    sync.Mutex
}

var _ http.CookieJar = (*Jar)(nil)

// NewJar создает jar и восстанавливает сохраненные cookies для каждого из hosts
func NewJar(ctx context.Context, store storage.CookieStorage, logger *slog.Logger, hosts ...*url.URL) (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	j := &Jar{
		jar:    inner,
		store:  store,
		logger: logger,
		saved:  make(map[string][]storage.StoredCookie),
	}

	now := time.Now()
	for _, u := range hosts {
		cookies, err := store.LoadCookies(ctx, u.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to load cookies for %s: %w", u.Host, err)
		}

		live := make([]storage.StoredCookie, 0, len(cookies))
		replay := make([]*http.Cookie, 0, len(cookies))
		for _, c := range cookies {
			if c.Expired(now) {
				continue
			}
			live = append(live, c)
			replay = append(replay, toHTTPCookie(c))
		}

		j.saved[u.Host] = live
		j.jar.SetCookies(u, replay)
	}

	return j, nil
}

// SetCookies реализует http.CookieJar
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.setLocked(u, cookies)
}

// Forget удаляет cookies хоста с указанными именами (все, если names пуст)
// из памяти и из store, без обращения к серверу.
func (j *Jar) Forget(u *url.URL, names ...string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	expired := make([]*http.Cookie, 0, len(j.saved[u.Host]))
	for _, c := range j.saved[u.Host] {
		if len(names) > 0 && !slices.Contains(names, c.Name) {
			continue
		}
		expired = append(expired, &http.Cookie{
			Name:   c.Name,
			Path:   c.Path,
			Domain: c.Domain,
			MaxAge: -1,
		})
	}
	if len(expired) == 0 {
		return
	}
	j.setLocked(u, expired)
}

// setLocked обновляет jar и store; вызывается под j.mu, поэтому снимки
// сохраняются в store в том же порядке, в котором были построены
func (j *Jar) setLocked(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	merged := mergeCookies(j.saved[u.Host], cookies, time.Now())
	j.saved[u.Host] = merged

	// Интерфейс CookieJar не возвращает ошибок, поэтому только логируем
	if err := j.store.SaveCookies(context.Background(), u.Host, merged); err != nil {
		j.logger.Warn("failed to persist cookies", slog.String("host", u.Host), slog.Any("error", err))
	}
}

// Cookies реализует http.CookieJar
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// mergeCookies заменяет cookies с тем же (name, path) и удаляет истекшие
func mergeCookies(existing []storage.StoredCookie, incoming []*http.Cookie, now time.Time) []storage.StoredCookie {
	type key struct{ name, path string }

	index := make(map[key]int, len(existing))
	result := make([]storage.StoredCookie, 0, len(existing)+len(incoming))
	for _, c := range existing {
		index[key{c.Name, c.Path}] = len(result)
		result = append(result, c)
	}

	removed := make(map[key]bool)
	for _, c := range incoming {
		k := key{c.Name, c.Path}
		stored := fromHTTPCookie(c, now)

		if c.MaxAge < 0 || stored.Expired(now) {
			removed[k] = true
			continue
		}
		delete(removed, k)

		if i, ok := index[k]; ok {
			result[i] = stored
			continue
		}
		index[k] = len(result)
		result = append(result, stored)
	}

	out := result[:0]
	for _, c := range result {
		if removed[key{c.Name, c.Path}] || c.Expired(now) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func fromHTTPCookie(c *http.Cookie, now time.Time) storage.StoredCookie {
	expires := c.Expires
	if c.MaxAge > 0 {
		expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	}
	return storage.StoredCookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

func toHTTPCookie(c storage.StoredCookie) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}
