package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthTokenRoundTrip(t *testing.T) {
	tok, err := NewAuthToken("test-secret", 42, "user", 7)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	require.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), tok.Exp, 5*time.Second)

	userID, err := ParseAuthToken("test-secret", tok.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)
}

func TestParseAuthToken_Failures(t *testing.T) {
	tok, err := NewAuthToken("test-secret", 42, "user", 7)
	require.NoError(t, err)

	_, err = ParseAuthToken("wrong-secret", tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAuthToken("test-secret", "garbage.token.value")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAuthToken("test-secret", "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secure@Pass1", 4)
	require.NoError(t, err)
	require.NotEqual(t, "Secure@Pass1", hash)

	require.True(t, VerifyPassword(hash, "Secure@Pass1"))
	require.False(t, VerifyPassword(hash, "Wrong@Pass1"))
}
