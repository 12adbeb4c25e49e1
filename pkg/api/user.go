package api

const (
	PathUser         = "/api/user"
	PathUserProfile  = "/api/user/profile"
	PathUserPassword = "/api/user/password"
	PathProfileImage = "/api/user/profile-image"
	PathDemo         = "/api/demo"
)

// UserInfo представляет публичные данные пользователя
type UserInfo struct {
	ProfileImage *string  `json:"profileImage"` // base64 JPEG, nil если аватар не загружен
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
	Roles        []string `json:"roles"`
}

// UpdateProfileRequest изменяет имя и email
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdatePasswordRequest меняет пароль, требует текущий пароль
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ProfileImageResponse возвращает сжатый аватар в base64
type ProfileImageResponse struct {
	ImageData string `json:"imageData"`
}

// DemoRequest тело запроса demo echo endpoint
type DemoRequest struct {
	Message string `json:"message"`
}
