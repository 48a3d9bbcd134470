package rediscache

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set SINGALONG_TEST_REDIS to a host:port to run against a live server.
func liveCache(t *testing.T) *Cache {
	t.Helper()
	addr := os.Getenv("SINGALONG_TEST_REDIS")
	if addr == "" {
		t.Skip("SINGALONG_TEST_REDIS not set")
	}
	c, err := Connect(t.Context(), Config{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(t.Context(), Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestCache_RoundTrip(t *testing.T) {
	c := liveCache(t)
	key := "test|" + t.Name() + "|" + time.Now().Format(time.RFC3339Nano)

	_, ok, err := c.Get(t.Context(), key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(t.Context(), key, "[00:01.00]Hi"))
	got, ok, err := c.Get(t.Context(), key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[00:01.00]Hi", got)
}

func TestNew_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, New(nil, 0).ttl)
	assert.Equal(t, time.Hour, New(nil, time.Hour).ttl)
}
