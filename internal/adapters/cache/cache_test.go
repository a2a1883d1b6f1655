package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RistrettoCache {
	t.Helper()
	c, err := New(1024)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestRistrettoCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	c.Set("key", "value", time.Minute)
	c.Wait()

	got, ok := c.Get("key")
	require.True(t, ok)
	require.Equal(t, "value", got)
}

func TestRistrettoCache_MissingKey(t *testing.T) {
	c := newTestCache(t)

	_, ok := c.Get("nope")
	require.False(t, ok)
}

func TestRistrettoCache_Del(t *testing.T) {
	c := newTestCache(t)

	c.Set("key", 42, time.Minute)
	c.Wait()
	c.Del("key")
	c.Wait()

	_, ok := c.Get("key")
	require.False(t, ok)
}

func TestRistrettoCache_TTLExpiry(t *testing.T) {
	c := newTestCache(t)

	c.Set("key", "value", 50*time.Millisecond)
	c.Wait()

	_, ok := c.Get("key")
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	_, ok = c.Get("key")
	require.False(t, ok)
}
