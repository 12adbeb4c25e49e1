package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/models"
	"github.com/iudanet/authgate/internal/server/storage"
)

func newToken(hash, userID string, ttl time.Duration) *models.RefreshToken {
	return &models.RefreshToken{
		TokenHash: hash,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
}

func TestTokenStorage_SaveRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)

	tests := []struct {
		token *models.RefreshToken
		name  string
	}{
		{name: "save new refresh token", token: newToken("hash123", userID, 24*time.Hour)},
		{name: "replace existing token with same hash", token: newToken("hash123", userID, 48*time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.SaveRefreshToken(ctx, tt.token))

			retrieved, err := s.GetRefreshToken(ctx, tt.token.TokenHash)
			require.NoError(t, err)
			assert.Equal(t, tt.token.TokenHash, retrieved.TokenHash)
			assert.Equal(t, tt.token.UserID, retrieved.UserID)
			assert.WithinDuration(t, tt.token.ExpiresAt, retrieved.ExpiresAt, time.Second)
		})
	}
}

func TestTokenStorage_SaveRefreshToken_UnknownUser(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.SaveRefreshToken(context.Background(), newToken("orphan", "no-such-user", time.Hour))
	require.Error(t, err, "foreign key на users должен отклонить токен")
}

func TestTokenStorage_GetRefreshToken_NotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetRefreshToken(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_GetUserTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	otherID := createTestUser(t, ctx, s)

	require.NoError(t, s.SaveRefreshToken(ctx, newToken("a", userID, time.Hour)))
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("b", userID, time.Hour)))
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("c", otherID, time.Hour)))

	tokens, err := s.GetUserTokens(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)

	empty, err := s.GetUserTokens(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTokenStorage_DeleteRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("del", userID, time.Hour)))

	require.NoError(t, s.DeleteRefreshToken(ctx, "del"))
	assert.ErrorIs(t, s.DeleteRefreshToken(ctx, "del"), storage.ErrTokenNotFound)
}

func TestTokenStorage_RotateRefreshToken(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("old", userID, time.Hour)))

	require.NoError(t, s.RotateRefreshToken(ctx, "old", newToken("new", userID, time.Hour)))

	_, err := s.GetRefreshToken(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	got, err := s.GetRefreshToken(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	// Повторное использование старого токена не создает новый
	err = s.RotateRefreshToken(ctx, "old", newToken("replay", userID, time.Hour))
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
	_, err = s.GetRefreshToken(ctx, "replay")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestTokenStorage_RotateRefreshToken_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("shared", userID, time.Hour)))

	const workers = 5
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := newToken("next-"+string(rune('a'+i)), userID, time.Hour)
			if err := s.RotateRefreshToken(ctx, "shared", next); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	tokens, err := s.GetUserTokens(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestTokenStorage_DeleteUserTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("t1", userID, time.Hour)))
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("t2", userID, time.Hour)))

	count, err := s.DeleteUserTokens(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.DeleteUserTokens(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestTokenStorage_DeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	userID := createTestUser(t, ctx, s)
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("expired-1", userID, -time.Hour)))
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("expired-2", userID, -time.Minute)))
	require.NoError(t, s.SaveRefreshToken(ctx, newToken("valid", userID, time.Hour)))

	count, err := s.DeleteExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = s.GetRefreshToken(ctx, "valid")
	require.NoError(t, err)
	_, err = s.GetRefreshToken(ctx, "expired-1")
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}
