package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
)

func newUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           uuid.New().String(),
		Name:         "Alice",
		Email:        email,
		PasswordHash: "hash123",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	withLogin := newUser("bob@example.com")
	withLogin.LastLogin = timePtr(time.Now())

	tests := []struct {
		user *models.User
		name string
	}{
		{name: "create new user successfully", user: newUser("alice@example.com")},
		{name: "create user with last login", user: withLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.CreateUser(ctx, tt.user))

			retrieved, err := s.GetUserByID(ctx, tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, retrieved.ID)
			assert.Equal(t, tt.user.Name, retrieved.Name)
			assert.Equal(t, tt.user.Email, retrieved.Email)
			assert.Equal(t, tt.user.PasswordHash, retrieved.PasswordHash)
			assert.Equal(t, models.RoleUser, retrieved.Role)
			assert.WithinDuration(t, tt.user.CreatedAt, retrieved.CreatedAt, time.Second)
			assert.Equal(t, tt.user.LastLogin != nil, retrieved.LastLogin != nil)
		})
	}
}

func TestUserStorage_CreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, s.CreateUser(ctx, newUser("dup@example.com")))

	err := s.CreateUser(ctx, newUser("dup@example.com"))
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestUserStorage_GetUserByEmail(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newUser("carol@example.com")
	require.NoError(t, s.CreateUser(ctx, user))

	tests := []struct {
		wantErr error
		name    string
		email   string
	}{
		{name: "existing user", email: "carol@example.com"},
		{name: "unknown email", email: "nobody@example.com", wantErr: storage.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetUserByEmail(ctx, tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}

func TestUserStorage_GetUserByID_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetUserByID(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_UpdateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := newUser("dave@example.com")
	require.NoError(t, s.CreateUser(ctx, user))
	other := newUser("erin@example.com")
	require.NoError(t, s.CreateUser(ctx, other))

	t.Run("updates fields", func(t *testing.T) {
		user.Name = "Dave"
		user.Email = "dave2@example.com"
		user.PasswordHash = "newhash"
		user.UpdatedAt = time.Now().Add(time.Minute)
		require.NoError(t, s.UpdateUser(ctx, user))

		got, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dave", got.Name)
		assert.Equal(t, "dave2@example.com", got.Email)
		assert.Equal(t, "newhash", got.PasswordHash)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		user.Email = other.Email
		err := s.UpdateUser(ctx, user)
		assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		err := s.UpdateUser(ctx, newUser("ghost@example.com"))
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestUserStorage_DeleteUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	require.NoError(t, s.SaveRefreshToken(ctx, &models.RefreshToken{
		TokenHash: "hash-1",
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}))

	require.NoError(t, s.DeleteUser(ctx, userID))

	_, err := s.GetUserByID(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	// Токены удаляются каскадно
	_, err = s.GetRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	err = s.DeleteUser(ctx, userID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	loginTime := time.Now()

	require.NoError(t, s.UpdateLastLogin(ctx, userID, loginTime))

	got, err := s.GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.WithinDuration(t, loginTime, *got.LastLogin, time.Second)

	err = s.UpdateLastLogin(ctx, uuid.New().String(), loginTime)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
