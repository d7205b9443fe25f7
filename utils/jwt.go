package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in access tokens.
const (
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleTraffic = "TRAFFIC"
)

var (
	ErrMissingToken = errors.New("authorization token not provided")
	ErrInvalidToken = errors.New("invalid token")
)

var (
	secretMu  sync.Mutex
	jwtSecret []byte // resolved on first use unless SetJWTSecret ran
)

// getJWTSecret reads JWT_SECRET. Outside production a random key is generated when it is
// unset, which makes every previously issued token invalid on restart.
func getJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret != "" {
		if len(secret) < 16 {
			slog.Warn("JWT_SECRET is shorter than 16 characters")
		}
		return []byte(secret)
	}

	if os.Getenv("ENV") == "production" {
		slog.Error("JWT_SECRET must be set in production")
		os.Exit(1)
	}

	slog.Warn("JWT_SECRET not set, using a random development key")
	randomKey := make([]byte, 32)
	if _, err := rand.Read(randomKey); err != nil {
		return []byte("agency_ops_development_only_jwt_secret_do_not_use_in_production")
	}
	return []byte(base64.StdEncoding.EncodeToString(randomKey))
}

// SetJWTSecret replaces the signing key. Empty secrets are ignored.
func SetJWTSecret(secret string) {
	if secret == "" {
		return
	}
	secretMu.Lock()
	defer secretMu.Unlock()
	jwtSecret = []byte(secret)
}

func currentSecret() []byte {
	secretMu.Lock()
	defer secretMu.Unlock()
	if jwtSecret == nil {
		jwtSecret = getJWTSecret()
	}
	return jwtSecret
}

// Claims identifies the caller of the commission API. Tokens are issued by the
// identity service sharing JWT_SECRET.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for the given identity.
func GenerateToken(userID, email, role string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(currentSecret())
}

// ParseToken verifies the signature and expiry of tokenString and returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return currentSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.UserID != "" {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}
