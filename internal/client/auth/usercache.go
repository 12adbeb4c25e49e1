package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	clientapi "github.com/iudanet/authgate/internal/client/api"
	"github.com/iudanet/authgate/pkg/api"
)

// ErrNotAuthenticated возвращается при запросе пользователя без credential
var ErrNotAuthenticated = errors.New("not authenticated")

// UserCache хранит текущего пользователя. Загружается не более одного раза на
// credential и сбрасывается при его смене или очистке.
type UserCache struct {
	fetcher UserFetcher
	session *Session
	user    *api.UserInfo
	cancel  func()
	// generation растет при каждой смене credential
	generation uint64
	mu         sync.Mutex
}

// NewUserCache создает кэш, привязанный к session
func NewUserCache(session *Session, fetcher UserFetcher) *UserCache {
	c := &UserCache{
		fetcher: fetcher,
		session: session,
	}
	c.cancel = session.Subscribe(func(string) {
		c.Invalidate()
	})
	return c
}

// Get возвращает пользователя из кэша, загружая при необходимости.
// 401 или 403 от сервера очищают credential.
func (c *UserCache) Get(ctx context.Context) (*api.UserInfo, error) {
	if !c.session.Authenticated() {
		c.Invalidate()
		return nil, ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.user != nil {
		u := *c.user
		c.mu.Unlock()
		return &u, nil
	}
	gen := c.generation
	c.mu.Unlock()

	user, err := c.fetcher.CurrentUser(ctx)
	if err != nil {
		if clientapi.IsStatus(err, http.StatusUnauthorized) || clientapi.IsStatus(err, http.StatusForbidden) {
			_ = c.session.ClearCredential(ctx)
		}
		return nil, err
	}

	c.mu.Lock()
	// Credential мог смениться, пока шел запрос
	if gen == c.generation {
		c.user = user
	}
	c.mu.Unlock()

	u := *user
	return &u, nil
}

// Prime сохраняет пользователя, полученного вместе с новым credential
func (c *UserCache) Prime(user *api.UserInfo) {
	u := *user
	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()
}

// Invalidate сбрасывает кэш
func (c *UserCache) Invalidate() {
	c.mu.Lock()
	c.user = nil
	c.generation++
	c.mu.Unlock()
}

// Close отписывается от session
func (c *UserCache) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}
