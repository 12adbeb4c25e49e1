package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authgate/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    "user-123",
		Name:  "Alice",
		Email: "alice@example.com",
		Role:  models.RoleUser,
	}
}

func TestService_GenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)

	token, expiresIn, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(900), expiresIn)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	second, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	secondClaims, err := svc.ValidateAccessToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, secondClaims.ID, "каждый токен получает свой jti")
}

func TestService_GenerateAccessToken_RequiresUser(t *testing.T) {
	svc := NewService("test-secret", time.Minute)

	_, _, err := svc.GenerateAccessToken(nil)
	require.Error(t, err)

	_, _, err = svc.GenerateAccessToken(&models.User{})
	require.Error(t, err)
}

func TestService_ValidateAccessToken_Expired(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestService_ValidateAccessToken_Invalid(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	other := NewService("other-secret", time.Minute)

	foreign, _, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	noneToken, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    DefaultIssuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject: "user-123",
			Issuer:  DefaultIssuer,
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
		{name: "foreign signature", token: foreign},
		{name: "alg none", token: noneToken},
		{name: "missing subject", token: noSubject},
		{name: "missing expiry", token: noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateAccessToken(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Nil(t, claims)
		})
	}
}

func TestService_ParseIgnoringExpiry(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	expired, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	svc.now = time.Now

	claims, err := svc.ParseIgnoringExpiry(expired)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID())
	assert.Zero(t, svc.RemainingTTL(claims))

	other := NewService("other-secret", time.Minute)
	foreign, _, err := other.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.ParseIgnoringExpiry(foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ParseIgnoringExpiry("garbage")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestService_RemainingTTL(t *testing.T) {
	svc := NewService("test-secret", 10*time.Minute)

	token, _, err := svc.GenerateAccessToken(testUser())
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	ttl := svc.RemainingTTL(claims)
	assert.Greater(t, ttl, 9*time.Minute)
	assert.LessOrEqual(t, ttl, 10*time.Minute)

	assert.Zero(t, svc.RemainingTTL(nil))
	assert.Zero(t, svc.RemainingTTL(&Claims{}))
}
