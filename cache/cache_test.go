package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestGetOrFetchReusesWithinTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](time.Hour, WithClock[string](clock.Now))

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		return "table", nil
	}

	v, hit, err := c.GetOrFetch(context.Background(), "fda", fetch)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "table", v)

	clock.t = clock.t.Add(59 * time.Minute)
	_, hit, err = c.GetOrFetch(context.Background(), "fda", fetch)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, calls)

	clock.t = clock.t.Add(time.Minute)
	_, hit, err = c.GetOrFetch(context.Background(), "fda", fetch)
	require.NoError(t, err)
	assert.False(t, hit, "entry expires at exactly the TTL")
	assert.Equal(t, 2, calls)

	assert.Equal(t, Stats{Hits: 1, Misses: 2}, c.Stats())
}

func TestGetOrFetchDoesNotStoreFailures(t *testing.T) {
	c := New[int](time.Hour)
	boom := errors.New("timeout")

	_, _, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	_, ok := c.Get("k")
	assert.False(t, ok)

	v, hit, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, v)
}

func TestInvalidate(t *testing.T) {
	c := New[int](time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Invalidate("")
	_, ok = c.Get("b")
	assert.False(t, ok)
}
