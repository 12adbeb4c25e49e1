package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
	"github.com/iudanet/authgate/pkg/api"
)

const (
	// MaxTitleLen максимальная длина заголовка публикации
	MaxTitleLen = 200
	// MaxBodyLen максимальная длина текста публикации
	MaxBodyLen = 10000
)

// PostHandler обслуживает /api/posts
type PostHandler struct {
	logger *slog.Logger
	posts  storage.PostStorage
}

// NewPostHandler создает handler для публикаций
func NewPostHandler(logger *slog.Logger, posts storage.PostStorage) *PostHandler {
	return &PostHandler{logger: logger, posts: posts}
}

// List обрабатывает GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context())
	h.sendPosts(w, r, posts, err)
}

// Mine обрабатывает GET /api/posts/my-posts
func (h *PostHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		SendError(w, api.ErrCodeInvalidToken, "authentication required", http.StatusUnauthorized)
		return
	}
	posts, err := h.posts.ListUserPosts(r.Context(), userID)
	h.sendPosts(w, r, posts, err)
}

// ByUser обрабатывает GET /api/posts/user/{userId}
func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListUserPosts(r.Context(), chi.URLParam(r, "userId"))
	h.sendPosts(w, r, posts, err)
}

func (h *PostHandler) sendPosts(w http.ResponseWriter, r *http.Request, posts []*models.Post, err error) {
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list posts", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.Post, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, toPost(post))
	}
	SendJSON(w, resp, http.StatusOK)
}

// Get обрабатывает GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, ok := h.load(w, r)
	if !ok {
		return
	}
	SendJSON(w, toPost(post), http.StatusOK)
}

// Create обрабатывает POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		SendError(w, api.ErrCodeInvalidToken, "authentication required", http.StatusUnauthorized)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	now := time.Now()
	post := &models.Post{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.posts.CreatePost(ctx, post); err != nil {
		h.logger.ErrorContext(ctx, "failed to create post", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "post created", slog.String("post_id", post.ID), slog.String("user_id", userID))
	SendJSON(w, toPost(post), http.StatusCreated)
}

// Update обрабатывает PUT /api/posts/{id}
// Изменять публикацию может только автор
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	post.Title = req.Title
	post.Body = req.Body
	post.UpdatedAt = time.Now()

	if err := h.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			SendError(w, api.ErrCodeNotFound, "post not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update post", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	SendJSON(w, toPost(post), http.StatusOK)
}

// Delete обрабатывает DELETE /api/posts/{id}
// Удалять публикацию может только автор
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	if err := h.posts.DeletePost(ctx, post.ID); err != nil && !errors.Is(err, storage.ErrPostNotFound) {
		h.logger.ErrorContext(ctx, "failed to delete post", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "post deleted", slog.String("post_id", post.ID))
	w.WriteHeader(http.StatusNoContent)
}

// load читает публикацию по {id}
func (h *PostHandler) load(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	ctx := r.Context()

	post, err := h.posts.GetPost(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			SendError(w, api.ErrCodeNotFound, "post not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(ctx, "failed to get post", slog.Any("error", err))
		SendError(w, api.ErrCodeInternal, "internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return post, true
}

// loadOwned как load, но отвечает 403, если текущий пользователь не автор
func (h *PostHandler) loadOwned(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, ok := h.load(w, r)
	if !ok {
		return nil, false
	}

	userID, _ := GetUserID(r.Context())
	if !post.OwnedBy(userID) {
		h.logger.WarnContext(r.Context(), "post modification by non-owner",
			slog.String("post_id", post.ID),
			slog.String("user_id", userID))
		SendError(w, api.ErrCodeForbidden, "only the author can modify this post", http.StatusForbidden)
		return nil, false
	}

	return post, true
}

func (h *PostHandler) decode(w http.ResponseWriter, r *http.Request) (api.PostRequest, bool) {
	var req api.PostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		SendError(w, api.ErrCodeValidation, "invalid request body", http.StatusBadRequest)
		return req, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if err := validatePost(req); err != nil {
		SendError(w, api.ErrCodeValidation, err.Error(), http.StatusBadRequest)
		return req, false
	}

	return req, true
}

func validatePost(req api.PostRequest) error {
	if req.Title == "" {
		return errors.New("title cannot be empty")
	}
	if utf8.RuneCountInString(req.Title) > MaxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLen)
	}
	if utf8.RuneCountInString(req.Body) > MaxBodyLen {
		return fmt.Errorf("body must not exceed %d characters", MaxBodyLen)
	}
	return nil
}
