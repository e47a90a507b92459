package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyquant/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), config.RedisConfig{Enabled: false})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, writes are dropped and reads miss
	require.NoError(t, cache.SetBytes(ctx, "k", []byte("v"), TTLShort))

	data, found, err := cache.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	var dest map[string]float64
	found, err = cache.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache(&Client{}, "nifty")

	assert.Equal(t, "artifact:network:abc", ArtifactKey("network", "abc"))
	assert.Equal(t, "nifty:cache:artifact:network:abc", cache.Key(ArtifactKey("network", "abc")))
}

func TestCache_RoundTrip(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" || testing.Short() {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, config.RedisConfig{
		Host:    os.Getenv("REDIS_HOST"),
		Port:    "6379",
		Enabled: true,
	})
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "test")
	key := "roundtrip:" + time.Now().Format("150405.000")

	require.NoError(t, cache.Set(ctx, key, map[string]float64{"TCS": 0.5}, time.Minute))

	var got map[string]float64
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.5, got["TCS"])

	require.NoError(t, cache.Delete(ctx, key))
	_, found, err = cache.GetBytes(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}
