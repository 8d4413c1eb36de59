package adminapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTService("too-short", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestIssueToken_ThenValidateToken(t *testing.T) {
	svc := testJWTService(t)

	token, expiresAt, err := svc.IssueToken("operator-1")
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.Subject)
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := testJWTService(t)
	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-that-is-at-least-32-characters-long", -time.Hour)
	require.NoError(t, err)
	token, _, err := svc.IssueToken("operator-1")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	issuer := testJWTService(t)
	token, _, err := issuer.IssueToken("operator-1")
	require.NoError(t, err)

	other, err := NewJWTService("a-completely-different-secret-that-is-long-enough", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
