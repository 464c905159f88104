package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketRowsCache(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]Store{
		"memory": NewInMemoryStore(),
		"redis":  newRedisStore(newFakeRedis(), "test:"),
	} {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			c := NewTicketRowsCache(store, 0, nil)

			_, err := c.Get(ctx, "cs", false)
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, c.Set(ctx, "cs", false, []byte(`[{"id":1}]`)))
			require.NoError(t, c.Set(ctx, "en", false, []byte(`[{"id":1,"lang":"en"}]`)))
			require.NoError(t, c.Set(ctx, "cs", true, []byte(`[{"id":2}]`)))

			got, err := c.Get(ctx, "cs", false)
			require.NoError(t, err)
			assert.JSONEq(t, `[{"id":1}]`, string(got))

			require.NoError(t, c.Invalidate(ctx, false))
			_, err = c.Get(ctx, "cs", false)
			assert.ErrorIs(t, err, ErrMiss)
			_, err = c.Get(ctx, "en", false)
			assert.ErrorIs(t, err, ErrMiss)

			got, err = c.Get(ctx, "cs", true)
			require.NoError(t, err, "archived rows survive active invalidation")
			assert.JSONEq(t, `[{"id":2}]`, string(got))

			require.NoError(t, c.Invalidate(ctx, true))
			_, err = c.Get(ctx, "cs", true)
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}
