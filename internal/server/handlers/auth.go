package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/authgate/internal/crypto"
	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/jwt"
	"github.com/iudanet/authgate/internal/server/metrics"
	"github.com/iudanet/authgate/internal/server/revocation"
	"github.com/iudanet/authgate/internal/server/storage"
	"github.com/iudanet/authgate/internal/validation"
	"github.com/iudanet/authgate/pkg/api"
)

// dummyHash сравнивается с паролем, когда пользователь не найден,
// чтобы время ответа не выдавало существование email
var dummyHash, _ = crypto.HashPassword("authgate-timing-equalizer")

// AuthConfig параметры выдачи refresh tokens
type AuthConfig struct {
	Cookies         CookieConfig
	RefreshTokenTTL time.Duration
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger  *slog.Logger
	users   storage.UserStorage
	tokens  storage.TokenStorage
	images  storage.ImageStorage
	jwt     *jwt.Service
	revoked revocation.List
	metrics *metrics.Metrics
	cfg     AuthConfig
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	store storage.Storage,
	jwtService *jwt.Service,
	revoked revocation.List,
	m *metrics.Metrics,
	cfg AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		logger:  logger,
		users:   store,
		tokens:  store,
		images:  store,
		jwt:     jwtService,
		revoked: revoked,
		metrics: m,
		cfg:     cfg,
	}
}

// Register обрабатывает POST /api/auth/register
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		SendError(w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	email := validation.NormalizeEmail(req.Email)

	for _, err := range []error{
		validation.ValidateName(name),
		validation.ValidateEmail(email),
		validation.ValidatePassword(req.Password),
	} {
		if err != nil {
			h.logger.WarnContext(ctx, "invalid registration", slog.Any("error", err))
			SendError(w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
			return
		}
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Сохраняем в БД
	if err := h.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("email", email))
			SendError(w, api.ErrCodeUserExists, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.IncrementUsersCreated()
	h.logger.InfoContext(ctx, "user registered successfully", slog.String("user_id", user.ID))

	SendJSON(w, api.RegisterResponse{
		UserID:  user.ID,
		Message: "User registered successfully",
	}, http.StatusCreated)
}

// Login обрабатывает POST /api/auth/login
// Выдает access token в теле и refresh token в HttpOnly cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		SendError(w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		SendError(w, api.ErrCodeValidation, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	hash := dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	if err := crypto.CheckPassword(req.Password, hash); err != nil || user == nil {
		h.metrics.IncLogin(metrics.ResultFailure)
		h.logger.WarnContext(ctx, "login failed", slog.String("email", email))
		SendError(w, api.ErrCodeInvalidCredentials, "invalid email or password", http.StatusUnauthorized)
		return
	}

	accessToken, expiresIn, ok := h.issueTokens(w, r, user)
	if !ok {
		return
	}

	// Обновляем last_login
	if err := h.users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.metrics.IncLogin(metrics.ResultSuccess)
	h.logger.InfoContext(ctx, "user logged in successfully", slog.String("user_id", user.ID))

	SendJSON(w, api.LoginResponse{
		User:        toUserInfo(user, h.profileImage(r, user.ID)),
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	}, http.StatusOK)
}

// issueTokens создает access token и новую refresh сессию
func (h *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, user *models.User) (string, int64, bool) {
	ctx := r.Context()

	accessToken, expiresIn, err := h.jwt.GenerateAccessToken(user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return "", 0, false
	}

	refreshToken, record, err := h.newRefreshToken(user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return "", 0, false
	}

	if err := h.tokens.SaveRefreshToken(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "failed to save refresh token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return "", 0, false
	}

	h.cfg.Cookies.setRefreshCookie(w, refreshToken, h.cfg.RefreshTokenTTL)
	return accessToken, expiresIn, true
}

// newRefreshToken генерирует случайный токен и запись с его хешем
func (h *AuthHandler) newRefreshToken(userID string) (string, *models.RefreshToken, error) {
	token, err := crypto.GenerateToken()
	if err != nil {
		return "", nil, err
	}
	hash, err := crypto.HashToken(token)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	return token, &models.RefreshToken{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: now.Add(h.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}, nil
}

// Refresh обрабатывает POST /api/auth/refresh
// Обменивает refresh cookie на новый access token, cookie ротируется
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cookie, err := r.Cookie(api.CookieRefresh)
	if err != nil || cookie.Value == "" {
		h.refreshFailed(w, r, "refresh token missing")
		return
	}

	oldHash, err := crypto.HashToken(cookie.Value)
	if err != nil {
		h.refreshFailed(w, r, "refresh token missing")
		return
	}

	// Проверяем refresh token в БД
	stored, err := h.tokens.GetRefreshToken(ctx, oldHash)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.refreshFailed(w, r, "invalid refresh token")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get refresh token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	// Проверяем срок действия
	if stored.Expired(time.Now()) {
		if err := h.tokens.DeleteRefreshToken(ctx, oldHash); err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "failed to delete expired refresh token", slog.Any("error", err))
		}
		h.refreshFailed(w, r, "refresh token expired")
		return
	}

	user, err := h.users.GetUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.refreshFailed(w, r, "user no longer exists")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	newToken, record, err := h.newRefreshToken(user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	// Старый токен одноразовый: повторное использование получает 401
	if err := h.tokens.RotateRefreshToken(ctx, oldHash, record); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.refreshFailed(w, r, "refresh token already used")
			return
		}
		h.logger.ErrorContext(ctx, "failed to rotate refresh token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	accessToken, expiresIn, err := h.jwt.GenerateAccessToken(user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.cfg.Cookies.setRefreshCookie(w, newToken, h.cfg.RefreshTokenTTL)
	h.metrics.IncRefresh(metrics.ResultSuccess)
	h.logger.InfoContext(ctx, "tokens refreshed successfully", slog.String("user_id", user.ID))

	SendJSON(w, api.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	}, http.StatusOK)
}

// refreshFailed отвечает 401 и удаляет недействительную cookie у клиента
func (h *AuthHandler) refreshFailed(w http.ResponseWriter, r *http.Request, reason string) {
	h.metrics.IncRefresh(metrics.ResultFailure)
	h.logger.WarnContext(r.Context(), "refresh rejected", slog.String("reason", reason))
	h.cfg.Cookies.clearRefreshCookie(w)
	SendError(w, api.ErrCodeInvalidRefresh, reason, http.StatusUnauthorized)
}

// Logout обрабатывает POST /api/auth/logout
// Удаляет refresh сессии пользователя и отзывает текущий access token.
// Просроченный access token тоже принимается: важна только подпись.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(api.CookieRefresh); err == nil && cookie.Value != "" {
		if hash, err := crypto.HashToken(cookie.Value); err == nil {
			if err := h.tokens.DeleteRefreshToken(ctx, hash); err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
				h.logger.WarnContext(ctx, "failed to delete refresh token", slog.Any("error", err))
			}
		}
	}

	if token, ok := BearerToken(r); ok {
		claims, err := h.jwt.ParseIgnoringExpiry(token)
		if err != nil {
			h.logger.WarnContext(ctx, "logout with invalid access token", slog.Any("error", err))
		} else {
			deleted, err := h.tokens.DeleteUserTokens(ctx, claims.UserID())
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to delete user tokens", slog.Any("error", err))
				SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
				return
			}
			if err := h.revoked.Revoke(ctx, claims.ID, h.jwt.RemainingTTL(claims)); err != nil {
				h.logger.WarnContext(ctx, "failed to revoke access token", slog.Any("error", err))
			}
			h.logger.InfoContext(ctx, "user logged out successfully",
				slog.String("user_id", claims.UserID()),
				slog.Int("tokens_deleted", deleted))
		}
	}

	h.cfg.Cookies.clearRefreshCookie(w)
	SendJSON(w, api.MessageResponse{Message: "Logged out successfully"}, http.StatusOK)
}

// profileImage возвращает аватар пользователя или nil
func (h *AuthHandler) profileImage(r *http.Request, userID string) *models.ProfileImage {
	image, err := h.images.GetProfileImage(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, storage.ErrImageNotFound) {
			h.logger.WarnContext(r.Context(), "failed to load profile image", slog.Any("error", err))
		}
		return nil
	}
	return image
}

// BearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
