package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/pkg/api"
)

// maxJSONBody ограничение на размер JSON тела запроса
const maxJSONBody = 1 << 20

// SendJSON отправляет JSON ответ
func SendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// SendError отправляет JSON ответ с ошибкой.
// code попадает в поле error (машиночитаемый), message в поле message.
func SendError(w http.ResponseWriter, code, message string, statusCode int) {
	SendJSON(w, api.ErrorResponse{Error: code, Message: message}, statusCode)
}

// decodeJSON читает тело запроса с ограничением размера
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

// formatTime форматирует время для JSON ответов
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toUserInfo собирает публичное представление пользователя
func toUserInfo(user *models.User, image *models.ProfileImage) *api.UserInfo {
	info := &api.UserInfo{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: formatTime(user.CreatedAt),
		UpdatedAt: formatTime(user.UpdatedAt),
		Roles:     []string{user.Role},
	}
	if image != nil && len(image.Data) > 0 {
		encoded := base64.StdEncoding.EncodeToString(image.Data)
		info.ProfileImage = &encoded
	}
	return info
}

// toPost конвертирует модель в API представление
func toPost(post *models.Post) api.Post {
	return api.Post{
		ID:        post.ID,
		UserID:    post.UserID,
		Title:     post.Title,
		Body:      post.Body,
		CreatedAt: formatTime(post.CreatedAt),
		UpdatedAt: formatTime(post.UpdatedAt),
	}
}
