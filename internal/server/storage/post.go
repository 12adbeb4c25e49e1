package storage

import (
	"context"

	"github.com/iudanet/authgate/internal/models"
)

// PostStorage defines interface for posts persistence
type PostStorage interface {
	// CreatePost stores a new post
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves a single post by ID
	// Returns ErrPostNotFound if post doesn't exist
	GetPost(ctx context.Context, id string) (*models.Post, error)

	// ListPosts returns all posts, newest first
	ListPosts(ctx context.Context) ([]*models.Post, error)

	// ListUserPosts returns posts of a single user, newest first
	ListUserPosts(ctx context.Context, userID string) ([]*models.Post, error)

	// UpdatePost updates title and body
	// Returns ErrPostNotFound if post doesn't exist
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost deletes post by ID
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, id string) error
}

// ImageStorage stores one profile image per user
type ImageStorage interface {
	// SaveProfileImage creates or replaces the user's image
	SaveProfileImage(ctx context.Context, image *models.ProfileImage) error

	// GetProfileImage returns ErrImageNotFound if the user has no image
	GetProfileImage(ctx context.Context, userID string) (*models.ProfileImage, error)
}

// Storage combines all server storages
type Storage interface {
	UserStorage
	TokenStorage
	PostStorage
	ImageStorage
	Close() error
}
