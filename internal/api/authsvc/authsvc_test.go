package authsvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	s := New("admin", "hunter2", []byte("test-secret"))

	token, expiresAt, err := s.Login("admin", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(tokenExpiration), expiresAt, time.Second)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := New("admin", "hunter2", []byte("test-secret"))

	_, _, err := s.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsWrongUsername(t *testing.T) {
	s := New("admin", "hunter2", []byte("test-secret"))

	_, _, err := s.Login("nobody", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyAcceptsTokenFromLogin(t *testing.T) {
	s := New("admin", "hunter2", []byte("test-secret"))
	token, _, err := s.Login("admin", "hunter2")
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
}

func TestVerifyRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	issuer := New("admin", "hunter2", []byte("secret-a"))
	verifier := New("admin", "hunter2", []byte("secret-b"))

	token, _, err := issuer.Login("admin", "hunter2")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	s := New("admin", "hunter2", []byte("test-secret"))
	_, err := s.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
