package models

import "time"

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time  `json:"created_at"`    // время создания
	UpdatedAt    time.Time  `json:"updated_at"`    // время последнего обновления
	LastLogin    *time.Time `json:"last_login"`    // время последнего входа, nil если не входил
	ID           string     `json:"id"`            // UUID пользователя
	Name         string     `json:"name"`          // отображаемое имя
	Email        string     `json:"email"`         // уникальный email в нижнем регистре
	PasswordHash string     `json:"password_hash"` // bcrypt хеш пароля
	Role         string     `json:"role"`
}

// RefreshToken представляет refresh token пользователя.
// Сам токен хранится только у клиента (в HttpOnly cookie), сервер держит SHA256 хеш.
type RefreshToken struct {
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
	TokenHash string    `json:"token_hash"` // sha256 хеш токена (hex)
	UserID    string    `json:"user_id"`    // ID пользователя
}

// Expired проверяет, истек ли токен к моменту now
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
