package api

const PathPosts = "/api/posts"

// Post представляет публикацию пользователя
type Post struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// PostRequest создает или обновляет публикацию
type PostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
