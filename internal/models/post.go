package models

import "time"

// Post представляет публикацию пользователя
type Post struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
}

// ProfileImage хранит уже сжатый аватар пользователя (JPEG)
type ProfileImage struct {
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      string    `json:"user_id"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
}

// OwnedBy проверяет, что userID автор публикации
func (p *Post) OwnedBy(userID string) bool {
	return userID != "" && p.UserID == userID
}
