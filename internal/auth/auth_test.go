package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "correct-horse-battery-staple"))
	assert.False(t, VerifyPassword(hash, "wrong-password"))
}

func TestKeyring_IssueAndValidateAccessToken(t *testing.T) {
	kr := NewKeyring([]byte("a-very-secret-signing-key-123456"))

	token, err := kr.IssueAccessToken("user-1")
	require.NoError(t, err)

	claims, err := kr.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = kr.ValidateRefreshToken(token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestKeyring_RotationAcceptsRetiredKey(t *testing.T) {
	oldKey := []byte("old-signing-key-0000000000000000")
	oldKr := NewKeyring(oldKey)
	token, err := oldKr.IssueAccessToken("user-2")
	require.NoError(t, err)

	newKr := NewKeyring([]byte("new-signing-key-1111111111111111"), oldKey)
	claims, err := newKr.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.UserID)
}

func TestLimiter_AllowsUpToBurstThenBlocks(t *testing.T) {
	l := NewLimiter(60, 2) // 1/sec, burst 2
	defer l.Stop()

	assert.True(t, l.Allow("ip-1"))
	assert.True(t, l.Allow("ip-1"))
	assert.False(t, l.Allow("ip-1"))
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(60, 1)
	defer l.Stop()

	assert.True(t, l.Allow("ip-a"))
	assert.True(t, l.Allow("ip-b"), "separate key must have its own bucket")
}
