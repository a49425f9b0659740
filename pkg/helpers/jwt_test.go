package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessRoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Hour, 2*time.Hour)

	tok, exp, err := m.GenerateAccessToken("user-1", "worker", "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "worker", claims.Role)
	assert.Equal(t, "sid-1", claims.SessionID)
}

func TestJWTManager_SecretsAreNotInterchangeable(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Hour, time.Hour)

	refresh, _, err := m.GenerateRefreshToken("user-1", "client", "sid")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)

	claims, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "client", claims.Role)
}

func TestJWTManager_Expired(t *testing.T) {
	m := NewJWTManager("access", "refresh", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("user-1", "client", "sid")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CompareHashAndPassword(hash, "correct horse"))
	assert.False(t, CompareHashAndPassword(hash, "wrong"))
}

func TestImageExt(t *testing.T) {
	ext, ok := ImageExt("image/PNG; charset=binary")
	assert.True(t, ok)
	assert.Equal(t, ".png", ext)

	_, ok = ImageExt("application/pdf")
	assert.False(t, ok)
}
