package handlers

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/authgate/internal/crypto"
	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/imaging"
	"github.com/iudanet/authgate/internal/server/storage"
	"github.com/iudanet/authgate/internal/validation"
	"github.com/iudanet/authgate/pkg/api"
)

// UserStore хранилища, нужные UserHandler
type UserStore interface {
	storage.UserStorage
	storage.ImageStorage
}

// UserHandler обслуживает профиль текущего пользователя
type UserHandler struct {
	logger *slog.Logger
	store  UserStore
}

// NewUserHandler создает handler для /api/user
func NewUserHandler(logger *slog.Logger, store UserStore) *UserHandler {
	return &UserHandler{logger: logger, store: store}
}

// currentUser загружает пользователя из контекста или отвечает ошибкой
func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		SendError(w, api.ErrCodeInvalidToken, "authentication required", http.StatusUnauthorized)
		return nil, false
	}

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "token for deleted user", slog.String("user_id", userID))
			SendError(w, api.ErrCodeInvalidToken, "user no longer exists", http.StatusUnauthorized)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return user, true
}

func (h *UserHandler) userInfo(r *http.Request, user *models.User) *api.UserInfo {
	image, err := h.store.GetProfileImage(r.Context(), user.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrImageNotFound) {
			h.logger.WarnContext(r.Context(), "failed to load profile image", slog.Any("error", err))
		}
		image = nil
	}
	return toUserInfo(user, image)
}

// Current обрабатывает GET /api/user
func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	SendJSON(w, h.userInfo(r, user), http.StatusOK)
}

// UpdateProfile обрабатывает PUT /api/user/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendError(w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	email := validation.NormalizeEmail(req.Email)
	if err := validation.ValidateName(name); err != nil {
		SendError(w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(email); err != nil {
		SendError(w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	user.Name = name
	user.Email = email
	user.UpdatedAt = time.Now()

	if err := h.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			SendError(w, api.ErrCodeUserExists, "email already registered", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update user", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	SendJSON(w, h.userInfo(r, user), http.StatusOK)
}

// UpdatePassword обрабатывает PUT /api/user/password
// Требует текущий пароль
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req api.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendError(w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := crypto.CheckPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		h.logger.WarnContext(ctx, "password change with wrong current password", slog.String("user_id", user.ID))
		SendError(w, api.ErrCodeValidation, "current password is incorrect", http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		SendError(w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now()
	if err := h.store.UpdateUser(ctx, user); err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password updated", slog.String("user_id", user.ID))
	SendJSON(w, api.MessageResponse{Message: "Password updated successfully"}, http.StatusOK)
}

// UploadProfileImage обрабатывает POST /api/user/profile-image
// Принимает multipart поле "file" с image/*, сохраняет сжатую JPEG копию
func (h *UserHandler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		SendError(w, api.ErrCodeValidation, "multipart field \"file\" is required", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if header.Size == 0 || !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		SendError(w, api.ErrCodeValidation, "Only image files are allowed", http.StatusBadRequest)
		return
	}

	data, err := imaging.Avatar(file)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid profile image", slog.Any("error", err))
		SendError(w, api.ErrCodeValidation, "Invalid image file", http.StatusBadRequest)
		return
	}

	if err := h.store.SaveProfileImage(ctx, &models.ProfileImage{
		UserID:      user.ID,
		ContentType: imaging.ContentType,
		Data:        data,
		UpdatedAt:   time.Now(),
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to save profile image", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "Failed to upload profile image", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "profile image updated",
		slog.String("user_id", user.ID),
		slog.Int("bytes", len(data)))

	SendJSON(w, api.ProfileImageResponse{
		ImageData: base64.StdEncoding.EncodeToString(data),
	}, http.StatusOK)
}
