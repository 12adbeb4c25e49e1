package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/authgate/internal/validation"
	"github.com/iudanet/authgate/pkg/api"
)

// ErrNoAccessToken сервер принял логин, но не вернул токен
var ErrNoAccessToken = errors.New("server returned no access token")

// Service предоставляет функции авторизации
type Service struct {
	apiClient APIClient
	session   *Session
	users     *UserCache
	logger    *slog.Logger
}

// NewService создает новый сервис авторизации. users может быть nil.
func NewService(apiClient APIClient, session *Session, users *UserCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiClient: apiClient,
		session:   session,
		users:     users,
		logger:    logger,
	}
}

// Register регистрирует нового пользователя. Регистрация не выполняет вход.
func (s *Service) Register(ctx context.Context, name, email, password string) (*api.RegisterResponse, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, fmt.Errorf("invalid name: %w", err)
	}
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	if _, err := s.apiClient.FetchCSRF(ctx); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return resp, nil
}

// Login выполняет аутентификацию и сохраняет access token в сессии.
// Возвращает профиль пользователя из ответа сервера (может быть nil).
func (s *Service) Login(ctx context.Context, email, password string) (*api.UserInfo, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}

	if _, err := s.apiClient.FetchCSRF(ctx); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	if err := s.session.SetCredential(ctx, resp.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}

	if s.users != nil && resp.User != nil {
		s.users.Prime(resp.User)
	}

	s.logger.DebugContext(ctx, "logged in", slog.String("email", email))
	return resp.User, nil
}

// Logout завершает сессию на сервере (best effort) и всегда удаляет локальные
// credential и refresh cookie. Серверный вызов выполняется и без credential:
// refresh cookie может пережить access token и тихо восстановить сессию.
func (s *Service) Logout(ctx context.Context) error {
	if !s.session.Authenticated() {
		s.logger.DebugContext(ctx, "no credential found during logout, ending refresh session")
	}

	if err := s.apiClient.Logout(ctx); err != nil {
		// Не прерываем процесс, если сервер недоступен
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}
	s.apiClient.ForgetSession()

	if err := s.session.ClearCredential(ctx); err != nil {
		return fmt.Errorf("failed to delete local credential: %w", err)
	}
	return nil
}
