package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/authgate/pkg/api"
)

//go:generate moq -out credentials_mock.go . Credentials

// Credentials хранилище credential, которое gateway читает при каждом запросе
// и обновляет после refresh.
type Credentials interface {
	// Credential возвращает текущий access token и признак его наличия
	Credential() (string, bool)

	// SetCredential сохраняет новый access token
	SetCredential(ctx context.Context, token string) error

	// ClearCredential удаляет access token
	ClearCredential(ctx context.Context) error
}

// ErrNoCredentials возвращается New, если не передано хранилище credential
var ErrNoCredentials = errors.New("gateway requires a credentials container")

const (
	// DefaultRefreshTimeout ограничивает один вызов refresh
	DefaultRefreshTimeout = 10 * time.Second

	refreshKey = "refresh"
)

// Config содержит настройки gateway
type Config struct {
	// BaseURL для относительных путей, например "http://localhost:8080"
	BaseURL string
	// PublicPaths заменяет DefaultPublicPaths
	PublicPaths []string
	// RefreshTimeout заменяет DefaultRefreshTimeout
	RefreshTimeout time.Duration
}

// Gateway единая точка входа для запросов к защищенным endpoint'ам.
// Добавляет bearer credential, распознает истечение токена, обновляет его не
// более одного раза на событие истечения и повторяет исходный запрос один раз.
type Gateway struct {
	client         *http.Client
	creds          Credentials
	logger         *slog.Logger
	base           *url.URL
	publicPaths    []string
	group          singleflight.Group
	refreshTimeout time.Duration

	// refreshWaiters число вызывающих, ждущих текущий refresh; пишется в лог
	// и используется тестами для синхронизации
	refreshWaiters atomic.Int32
}

// New создает gateway. client должен содержать cookie jar с refresh cookie;
// creds обязателен.
func New(cfg Config, client *http.Client, creds Credentials, logger *slog.Logger) (*Gateway, error) {
	if creds == nil {
		return nil, ErrNoCredentials
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL must be absolute: %q", cfg.BaseURL)
	}

	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	publicPaths := cfg.PublicPaths
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}

	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}

	return &Gateway{
		client:         client,
		creds:          creds,
		logger:         logger,
		base:           base,
		publicPaths:    publicPaths,
		refreshTimeout: refreshTimeout,
	}, nil
}

// HTTPClient возвращает нижележащий клиент (с тем же cookie jar)
func (g *Gateway) HTTPClient() *http.Client {
	return g.client
}

// Resolve превращает относительный target в абсолютный URL относительно BaseURL
func (g *Gateway) Resolve(target string) (*url.URL, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid target %q: %w", target, err)
	}
	return g.base.ResolveReference(u), nil
}

// Request собирает запрос и отправляет его через Do.
// target может быть путем или абсолютным URL.
func (g *Gateway) Request(ctx context.Context, method, target string, body io.Reader, header http.Header) (*http.Response, error) {
	u, err := g.Resolve(target)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	return g.Do(req)
}

// Do отправляет req с текущим credential. При сигнале истечения обновляет
// credential и повторяет запрос один раз. Транспортные ошибки возвращаются как
// есть и не повторяются, бизнес-ошибки приходят обычным ответом.
func (g *Gateway) Do(req *http.Request) (*http.Response, error) {
	if !req.URL.IsAbs() {
		req.URL = g.base.ResolveReference(req.URL)
		req.Host = ""
	}

	if err := makeReplayable(req); err != nil {
		return nil, err
	}

	public := isPublic(req.URL, g.publicPaths)
	token, _ := g.creds.Credential()

	resp, err := g.send(req, token, public)
	if err != nil {
		return nil, err
	}

	// Публичные endpoint'ы никогда не повторяем
	if public || !IsExpirySignal(resp) {
		return resp, nil
	}

	g.logger.DebugContext(req.Context(), "access token expired, refreshing",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path))

	newToken, ok := g.Refresh(req.Context())
	if !ok {
		// Refresh не удался: credential уже очищен, отдаем исходный ответ
		return resp, nil
	}

	drainAndClose(resp)

	// Повторяем ровно один раз, даже если снова пришел сигнал истечения
	return g.send(req, newToken, false)
}

// send выполняет одну попытку запроса с заданным токеном
func (g *Gateway) send(req *http.Request, token string, public bool) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		attempt.Body = body
	}

	// Заголовок Authorization принадлежит gateway
	attempt.Header.Del("Authorization")
	if !public && token != "" {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}

	if isStateChanging(attempt.Method) {
		if csrf := g.csrfToken(attempt.URL); csrf != "" {
			attempt.Header.Set(api.HeaderCSRF, csrf)
		}
	}

	return g.client.Do(attempt)
}

// csrfToken ищет XSRF-TOKEN cookie для URL
func (g *Gateway) csrfToken(u *url.URL) string {
	if g.client.Jar == nil {
		return ""
	}
	for _, c := range g.client.Jar.Cookies(u) {
		if c.Name == api.CookieCSRF {
			return c.Value
		}
	}
	return ""
}

// makeReplayable гарантирует, что тело запроса можно отправить повторно
func makeReplayable(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(data))
	return nil
}

// drainAndClose освобождает соединение для повторного использования
func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
