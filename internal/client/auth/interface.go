package auth

import (
	"context"

	"github.com/iudanet/authgate/pkg/api"
)

//go:generate moq -out apiclient_mock.go . APIClient

// APIClient подмножество API клиента, используемое для аутентификации.
// Register и Login идут напрямую на сервер, Logout через gateway.
type APIClient interface {
	// FetchCSRF получает anti-forgery cookie перед изменяющими запросами
	FetchCSRF(ctx context.Context) (string, error)

	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)

	// Login возвращает access token; refresh token остается в cookie jar
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)

	// Logout завершает серверную сессию; bearer необязателен, refresh cookie
	// уходит из jar и сервер ее очищает
	Logout(ctx context.Context) error

	// ForgetSession локально удаляет refresh cookie
	ForgetSession()
}

// UserFetcher загружает текущего пользователя
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*api.UserInfo, error)
}
