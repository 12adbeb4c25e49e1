package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
)

// SaveProfileImage creates or replaces the user's image
func (s *Storage) SaveProfileImage(ctx context.Context, image *models.ProfileImage) error {
	query := `
		INSERT INTO profile_images (user_id, content_type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			content_type = excluded.content_type,
			data = excluded.data,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, image.UserID, image.ContentType, image.Data, utc(image.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save profile image: %w", err)
	}

	return nil
}

// GetProfileImage returns the stored image of a user
func (s *Storage) GetProfileImage(ctx context.Context, userID string) (*models.ProfileImage, error) {
	query := `SELECT user_id, content_type, data, updated_at FROM profile_images WHERE user_id = ?`

	image := &models.ProfileImage{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&image.UserID,
		&image.ContentType,
		&image.Data,
		&image.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get profile image: %w", err)
	}

	return image, nil
}
