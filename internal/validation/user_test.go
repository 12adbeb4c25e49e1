package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		errMsg  string
		wantErr bool
	}{
		{name: "valid simple", email: "alice@example.com"},
		{name: "valid with plus", email: "alice+tag@mail.example.org"},
		{name: "valid with dots", email: "a.b.c@example.co"},
		{name: "empty", email: "", wantErr: true, errMsg: "email cannot be empty"},
		{name: "missing at", email: "alice.example.com", wantErr: true, errMsg: "invalid format"},
		{name: "missing tld", email: "alice@example", wantErr: true, errMsg: "invalid format"},
		{name: "spaces", email: "alice @example.com", wantErr: true, errMsg: "invalid format"},
		{
			name:    "too long",
			email:   strings.Repeat("a", 250) + "@example.com",
			wantErr: true,
			errMsg:  "must not exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Alice"))
	assert.NoError(t, ValidateName("Алиса Смирнова"))

	err := ValidateName("   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	err = ValidateName(strings.Repeat("я", MaxNameLen+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed")

	// Ровно MaxNameLen рун допустимо, даже если байт больше
	assert.NoError(t, ValidateName(strings.Repeat("я", MaxNameLen)))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		errMsg   string
		wantErr  bool
	}{
		{name: "valid minimum length", password: "12345678"},
		{name: "valid long", password: strings.Repeat("p", MaxPasswordLen)},
		{name: "empty", password: "", wantErr: true, errMsg: "cannot be empty"},
		{name: "too short", password: "1234567", wantErr: true, errMsg: "at least 8"},
		{name: "too long", password: strings.Repeat("p", MaxPasswordLen+1), wantErr: true, errMsg: "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
