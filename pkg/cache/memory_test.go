package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stepauth/pkg/cache"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()
		c := cache.NewMemoryCache()

		require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

		value, found, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", value)
	})

	t.Run("missing key is not an error", func(t *testing.T) {
		t.Parallel()
		c := cache.NewMemoryCache()

		_, found, err := c.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired entry is dropped lazily", func(t *testing.T) {
		t.Parallel()
		c := cache.NewMemoryCache()

		require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		_, found, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		t.Parallel()
		c := cache.NewMemoryCache()

		require.NoError(t, c.Set(ctx, "k", "v", 0))
		require.NoError(t, c.Delete(ctx, "k"))
		require.NoError(t, c.Delete(ctx, "k"))

		_, found, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()
		c := cache.NewMemoryCache()

		_, _, err := c.Get(ctx, "")
		assert.ErrorIs(t, err, cache.ErrEmptyKey)
		assert.ErrorIs(t, c.Set(ctx, "", "v", 0), cache.ErrEmptyKey)
		assert.ErrorIs(t, c.Delete(ctx, ""), cache.ErrEmptyKey)
	})
}
