package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prajxal/fakenews-api/pkg/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	user := &models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

	signed, err := tokens.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)
	signed, err := tokens.Issue(&models.User{ID: "user-1", Username: "alice"})
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokens("secret-a", time.Hour)
	verifier := NewTokens("secret-b", time.Hour)

	signed, err := issuer.Issue(&models.User{ID: "user-1", Username: "alice"})
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenGarbage(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	_, err := tokens.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("password123", 4)
	require.NoError(t, err)
	require.NotEqual(t, "password123", hash)

	assert.True(t, CheckPassword(hash, "password123"))
	assert.False(t, CheckPassword(hash, "wrongpassword"))
	assert.False(t, CheckPassword("", "password123"))
}
