package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/iudanet/authgate/pkg/api"
)

// maxRefreshBody ограничивает размер ответа refresh endpoint
const maxRefreshBody = 1 << 20

// Refresh обменивает refresh cookie на новый access token.
// Параллельные вызовы разделяют один сетевой запрос и получают один результат.
// При успехе credential сохраняется, при любой ошибке очищается и ok == false.
// Вызывающий с завершенным ctx перестает ждать, но общий refresh продолжается
// для остальных.
func (g *Gateway) Refresh(ctx context.Context) (token string, ok bool) {
	g.refreshWaiters.Add(1)
	defer g.refreshWaiters.Add(-1)

	// Только первый вызвавший выполняет fn; остальные ждут тот же результат.
	// Контекст отвязан от отмены конкретного вызывающего.
	refreshCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(refreshKey, func() (any, error) {
		return g.refresh(refreshCtx), nil
	})

	select {
	case res := <-ch:
		token, _ = res.Val.(string)
		return token, token != ""
	case <-ctx.Done():
		return "", false
	}
}

// refresh выполняет один сетевой вызов и обновляет credential.
// Возвращает пустую строку при любой ошибке.
func (g *Gateway) refresh(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, g.refreshTimeout)
	defer cancel()

	token, err := g.requestToken(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "token refresh failed", slog.Any("error", err))
		if clearErr := g.creds.ClearCredential(ctx); clearErr != nil {
			g.logger.WarnContext(ctx, "failed to clear credential", slog.Any("error", clearErr))
		}
		return ""
	}

	if err := g.creds.SetCredential(ctx, token); err != nil {
		// Токен уже в памяти, ошибка только в durable store
		g.logger.WarnContext(ctx, "failed to persist refreshed credential", slog.Any("error", err))
	}

	g.logger.DebugContext(ctx, "access token refreshed",
		slog.Int("waiters", int(g.refreshWaiters.Load())))
	return token
}

// requestToken вызывает refresh endpoint (cookie-аутентификация, без bearer)
func (g *Gateway) requestToken(ctx context.Context) (string, error) {
	u := g.base.ResolveReference(&url.URL{Path: api.PathRefresh})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var body api.TokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRefreshBody)).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("refresh response has no access token")
	}

	return body.AccessToken, nil
}
