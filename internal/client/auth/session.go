package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/authgate/internal/client/gateway"
	"github.com/iudanet/authgate/internal/client/storage"
)

// ErrSessionClosed возвращается любой операцией Session после Close
var ErrSessionClosed = errors.New("session is closed")

// Session хранит текущий bearer credential в памяти и дублирует его в
// CredentialStorage. Изменения, сделанные другой Session на том же store,
// приходят через уведомления store, без сетевых запросов.
type Session struct {
	store       storage.CredentialStorage
	logger      *slog.Logger
	subscribers map[uint64]func(token string)
	cancelWatch func()
	token       string
	nextID      uint64
	mu          sync.RWMutex
	closed      bool
}

var _ gateway.Credentials = (*Session)(nil)

// NewSession загружает сохраненный credential (если есть) и подписывается на изменения store
func NewSession(ctx context.Context, store storage.CredentialStorage, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}

	token, err := store.GetCredential(ctx)
	if err != nil && !errors.Is(err, storage.ErrCredentialNotFound) {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	s := &Session{
		store:       store,
		logger:      logger,
		token:       token,
		subscribers: make(map[uint64]func(string)),
	}
	s.cancelWatch = store.Watch(s.onStoreChange)

	return s, nil
}

// Credential возвращает текущий токен; ok == false, если токена нет
// или сессия закрыта.
func (s *Session) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed || s.token == "" {
		return "", false
	}
	return s.token, true
}

// Authenticated сообщает, есть ли credential
func (s *Session) Authenticated() bool {
	_, ok := s.Credential()
	return ok
}

// SetCredential заменяет credential. Пустой token очищает его.
// Значение в памяти обновляется даже при ошибке сохранения, ошибка возвращается.
func (s *Session) SetCredential(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearCredential(ctx)
	}

	if err := s.apply(token); err != nil {
		return err
	}

	if err := s.store.SaveCredential(ctx, token); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// ClearCredential удаляет credential из памяти и из store
func (s *Session) ClearCredential(ctx context.Context) error {
	if err := s.apply(""); err != nil {
		return err
	}

	err := s.store.DeleteCredential(ctx)
	if err != nil && !errors.Is(err, storage.ErrCredentialNotFound) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Subscribe регистрирует fn, вызываемую с новым токеном (пустым при очистке)
// после каждого изменения, кто бы его ни сделал.
func (s *Session) Subscribe(fn func(token string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() {}
	}

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Close отключает сессию от store. Сам store не закрывается.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	s.subscribers = nil
	cancel := s.cancelWatch
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// onStoreChange синхронизирует память с изменением, сделанным через store
func (s *Session) onStoreChange(ev storage.ChangeEvent) {
	if ev.Key != storage.KeyAccessToken {
		return
	}

	token := ev.Value
	if ev.Deleted {
		token = ""
	}

	if err := s.apply(token); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.logger.Warn("failed to apply credential change", slog.Any("error", err))
	}
}

// apply обновляет токен в памяти и уведомляет подписчиков, если значение изменилось
func (s *Session) apply(token string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.token == token {
		s.mu.Unlock()
		return nil
	}
	s.token = token

	subs := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// Подписчики вызываются вне блокировки
	for _, fn := range subs {
		fn(token)
	}
	return nil
}
