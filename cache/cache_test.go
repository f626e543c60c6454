package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFromClient(client, "eshop:"), mr
}

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(1 << 20)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

// Every backend must behave the same for the basic contract.
func TestBackends_SetGetDelete(t *testing.T) {
	redisCache, _ := newTestRedis(t)
	backends := map[string]Cache{
		"memory":    NewMemory(),
		"ristretto": newTestLocal(t),
		"redis":     redisCache,
	}

	ctx := context.Background()
	for name, c := range backends {
		t.Run(name, func(t *testing.T) {
			_, ok, err := c.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
			require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))

			got, ok, err := c.Get(ctx, "a")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("1"), got)

			require.NoError(t, c.Delete(ctx, "a"))
			_, ok, err = c.Get(ctx, "a")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Clear(ctx))
			_, ok, err = c.Get(ctx, "b")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemory_TTLExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "cart_total_1", []byte(`"10.00"`), 5*time.Minute))
	assert.True(t, m.Has("cart_total_1"))

	now = now.Add(4 * time.Minute)
	assert.True(t, m.Has("cart_total_1"))

	now = now.Add(time.Minute)
	assert.False(t, m.Has("cart_total_1"))
}

func TestRedis_TTLAndPrefix(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "categories_all", []byte("[]"), time.Hour))
	assert.True(t, mr.Exists("eshop:categories_all"))

	require.NoError(t, mr.Set("foreign", "keep"))
	require.NoError(t, r.Clear(ctx))
	assert.False(t, mr.Exists("eshop:categories_all"))
	assert.True(t, mr.Exists("foreign"))

	require.NoError(t, r.Set(ctx, "short", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)
	_, ok, err := r.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemember(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	v, err := Remember(ctx, m, "answer", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Remember(ctx, m, "answer", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, err = Remember(ctx, m, "broken", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	require.Error(t, err)
	assert.False(t, m.Has("broken"))
}

func TestGetJSON_UndecodableIsMiss(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "k", []byte("not json"), time.Minute))

	var out map[string]int
	hit, err := GetJSON(ctx, m, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, m.Has("k"))
}

func TestCartKeys(t *testing.T) {
	assert.Equal(t, []string{"cart_total_7", "cart_items_7"}, CartKeys(7))
	assert.Equal(t, "featured_products_8", FeaturedKey(8))
	assert.Equal(t, "recommended_products_2_5", RecommendedKey(2, 5))
}
