package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return mr
}

func TestSetGetJSON(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, Set(ctx, "k", payload{Name: "cafe", Count: 3}, time.Minute))

	var got payload
	require.NoError(t, Get(ctx, "k", &got))
	assert.Equal(t, "cafe", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestGetMissingKey(t *testing.T) {
	setupMiniredis(t)

	var got string
	err := Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, redis.Nil)
}

func TestStringHelpers(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetString(ctx, "s", "valor", 0))
	v, err := GetString(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "valor", v)

	exists, err := Exists(ctx, "s")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, Delete(ctx, "s"))
	exists, err = Exists(ctx, "s")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIncrAndTTL(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	n, err := Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, Expire(ctx, "counter", time.Minute))
	ttl, err := TTL(ctx, "counter")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	mr.FastForward(2 * time.Minute)
	exists, err := Exists(ctx, "counter")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetNX(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	ok, err := SetNX(ctx, "lock:1", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SetNX(ctx, "lock:1", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "feature:7:scheduling", BuildKey(KeyPrefixFeature, "7", "scheduling"))
}
