package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, nil)
	token, issued, err := m.Issue(7, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := m.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestTokenParseRejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, nil)
	other := NewTokenManager("other-secret", time.Hour, nil)
	foreign, _, err := other.Issue(1, "alice")
	require.NoError(t, err)

	expired, _, err := NewTokenManager("secret", -time.Minute, nil).Issue(1, "alice")
	require.NoError(t, err)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   1,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
		{name: "missing id", token: noID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Parse(context.Background(), tt.token)
			assert.Error(t, err)
			assert.NotErrorIs(t, err, ErrTokenRevoked)
		})
	}
}

func TestTokenRevokeInMemory(t *testing.T) {
	ctx := context.Background()
	m := NewTokenManager("secret", time.Hour, nil)
	token, claims, err := m.Issue(1, "alice")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))
	_, err = m.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// other tokens for the same user stay valid
	second, _, err := m.Issue(1, "alice")
	require.NoError(t, err)
	_, err = m.Parse(ctx, second)
	assert.NoError(t, err)
}

func TestTokenRevokeWithRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	m := NewTokenManager("secret", time.Hour, NewTokenBlacklist(rc))
	token, claims, err := m.Issue(1, "alice")
	require.NoError(t, err)
	require.NoError(t, m.Revoke(ctx, claims))

	key := blacklistPrefix + claims.ID
	assert.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	_, err = m.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	mr.FastForward(2 * time.Hour)
	assert.False(t, mr.Exists(key))
}

func TestBlacklistFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { rc.Close() })
	bl := NewTokenBlacklist(rc)
	mr.Close()

	assert.False(t, bl.IsRevoked(context.Background(), "jti"))
}

func TestBlacklistIgnoresExpired(t *testing.T) {
	ctx := context.Background()
	bl := NewTokenBlacklist(nil)
	require.NoError(t, bl.Revoke(ctx, "old", time.Now().Add(-time.Second)))
	assert.False(t, bl.IsRevoked(ctx, "old"))

	require.NoError(t, bl.Revoke(ctx, "live", time.Now().Add(time.Minute)))
	assert.True(t, bl.IsRevoked(ctx, "live"))
	assert.False(t, bl.IsRevoked(ctx, "unknown"))
}
