package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBookingReference_Format(t *testing.T) {
	ref, err := NewBookingReference()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "BK"))
	// 2-char prefix + base36 millisecond timestamp + 6 random chars.
	require.Greater(t, len(ref), 10)

	for _, r := range ref[2:] {
		require.Contains(t, referenceAlphabet, string(r))
	}
}

func TestNewBookingReference_Distinct(t *testing.T) {
	seen := make(map[string]bool, 100)
	for i := 0; i < 100; i++ {
		ref, err := NewBookingReference()
		require.NoError(t, err)
		require.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
		// Never leads with zero: the range is 100000-999999.
		require.NotEqual(t, byte('0'), code[0])
	}
}
