package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("test-secret-with-enough-length")

	token, err := GenerateToken("user-1", "ana@agency.test", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@agency.test", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestParseToken_Rejects(t *testing.T) {
	SetJWTSecret("test-secret-with-enough-length")

	expired, err := GenerateToken("user-1", "", RoleTraffic, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err, "expired")

	SetJWTSecret("another-secret-entirely-here")
	foreign, err := GenerateToken("user-1", "", RoleTraffic, time.Hour)
	require.NoError(t, err)
	SetJWTSecret("test-secret-with-enough-length")
	_, err = ParseToken(foreign)
	assert.Error(t, err, "wrong key")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(unsigned)
	assert.Error(t, err, "alg none")

	noUser, err := GenerateToken("", "", RoleAdmin, time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(noUser)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc.def", "abc.def", nil},
		{"bearer abc.def", "abc.def", nil},
		{"", "", ErrMissingToken},
		{"Bearer ", "", ErrInvalidToken},
		{"Basic dXNlcg==", "", ErrInvalidToken},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
