// Package authsvc issues and verifies the JWT bearer tokens that guard
// the admin REST API, grounded on original_source/backend/src/web/auth.rs's
// AuthService (claims shape, 24h expiry, env-over-config credential
// precedence already resolved upstream by internal/config).
package authsvc

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// tokenExpiration mirrors the original source's TOKEN_EXPIRATION_HOURS.
const tokenExpiration = 24 * time.Hour

// ErrInvalidCredentials is returned when the supplied username/password
// do not match the configured admin account.
var ErrInvalidCredentials = errors.New("authsvc: invalid username or password")

// ErrInvalidToken is returned when a bearer token fails signature
// verification, is expired, or is otherwise malformed.
var ErrInvalidToken = errors.New("authsvc: invalid or expired token")

// Claims is the JWT payload issued on successful login.
type Claims struct {
	jwt.RegisteredClaims
}

// Service authenticates the single configured admin account and
// issues/verifies JWT bearer tokens signed with an HMAC secret.
type Service struct {
	AdminUsername string
	AdminPassword string
	secret        []byte
}

// New constructs a Service. secret should be stable across restarts, or
// every previously issued token is invalidated on restart.
func New(adminUsername, adminPassword string, secret []byte) *Service {
	return &Service{AdminUsername: adminUsername, AdminPassword: adminPassword, secret: secret}
}

// Login validates credentials and, on success, returns a signed token
// and its expiry.
func (s *Service) Login(username, password string) (token string, expiresAt time.Time, err error) {
	if username != s.AdminUsername || password != s.AdminPassword {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt = now.Add(tokenExpiration)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
