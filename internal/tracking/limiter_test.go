package tracking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketLimiter_BurstThenDeny(t *testing.T) {
	// Near-zero refill: only the burst is available.
	l := NewTokenBucketLimiter(0.0001, 3)

	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.True(t, l.Allow())
	require.False(t, l.Allow())
}

func TestNewTokenBucketLimiter_DefendsBadConfig(t *testing.T) {
	l := NewTokenBucketLimiter(0, 0)
	require.True(t, l.Allow())
}
