package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ripple-engine/internal/config"
	"github.com/magabrotheeeer/ripple-engine/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := []*models.Generation{
		{ID: "gen-1", UserUID: "uid-1", OriginalText: "article",
			Platforms: []string{"Twitter"},
			Posts:     []models.Post{{Platform: "Twitter", Content: "post", Hashtags: []string{"go"}}}},
	}
	err := cache.Set("history:uid-1", expected, time.Minute)
	require.NoError(t, err)

	var actual []*models.Generation
	found, err := cache.Get("history:uid-1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out []*models.Generation
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("history:uid-1", []string{"value"}, time.Minute))
	require.NoError(t, cache.Invalidate("history:uid-1"))

	var out []string
	found, err := cache.Get("history:uid-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate_MissingKey(t *testing.T) {
	cache := setupTestCache(t)

	assert.NoError(t, cache.Invalidate("no_such_key"))
}
