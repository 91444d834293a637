package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Hour, "movie-catalog")
	require.NoError(t, err)

	token, err := tm.Generate("u1", "admin")
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "movie-catalog", claims.Issuer)
}

func TestTokenRejectsForeignSignature(t *testing.T) {
	issuer, err := NewTokenManager(testSecret, time.Hour, "movie-catalog")
	require.NoError(t, err)
	other, err := NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour, "movie-catalog")
	require.NoError(t, err)

	token, err := issuer.Generate("u1", "user")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tm, err := NewTokenManager(testSecret, time.Minute, "movie-catalog")
	require.NoError(t, err)
	m := tm.(*jwtManager)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := tm.Generate("u1", "user")
	require.NoError(t, err)

	m.now = time.Now
	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestNewTokenManagerValidation(t *testing.T) {
	_, err := NewTokenManager("", time.Hour, "")
	assert.Error(t, err)
	_, err = NewTokenManager("short", time.Hour, "")
	assert.Error(t, err)
	_, err = NewTokenManager(testSecret, 0, "")
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
