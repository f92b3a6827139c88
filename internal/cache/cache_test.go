package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *clock                   { return &clock{t: time.Unix(1_700_000_000, 0)} }
func newTestCache(clk *clock, max int) *Cache {
	return New(Options{TTL: time.Minute, MaxSize: max, Now: clk.now}, nil)
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(newClock(), 10)

	_, ok := c.Get(BucketCharacter, "a")
	assert.False(t, ok)

	c.Set(BucketCharacter, "a", 1)
	v, ok := c.Get(BucketCharacter, "a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get(BucketLocation, "a")
	assert.False(t, ok, "buckets are independent")

	s := c.Stats()
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(2), s.Misses)
	assert.Equal(t, 1, s.Entries)
}

func TestCache_TTL(t *testing.T) {
	clk := newClock()
	c := newTestCache(clk, 10)
	c.Set(BucketCharacter, "a", "x")

	clk.advance(59 * time.Second)
	_, ok := c.Get(BucketCharacter, "a")
	assert.True(t, ok)

	clk.advance(time.Second)
	_, ok = c.Get(BucketCharacter, "a")
	assert.False(t, ok, "entry expires once its age reaches the TTL")
	assert.Zero(t, c.Len(BucketCharacter), "expired entry is dropped on access")
}

func TestCache_FIFOEviction(t *testing.T) {
	c := newTestCache(newClock(), 3)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(BucketInventory, k, k)
	}

	// Reads do not protect an entry from eviction.
	_, ok := c.Get(BucketInventory, "a")
	require.True(t, ok)

	c.Set(BucketInventory, "d", "d")
	_, ok = c.Get(BucketInventory, "a")
	assert.False(t, ok, "oldest insertion is evicted first")
	for _, k := range []string{"b", "c", "d"} {
		_, ok := c.Get(BucketInventory, k)
		assert.True(t, ok, "key %s should remain", k)
	}
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_ResetMovesToBack(t *testing.T) {
	c := newTestCache(newClock(), 2)
	c.Set(BucketCharacter, "a", 1)
	c.Set(BucketCharacter, "b", 2)
	c.Set(BucketCharacter, "a", 3)
	c.Set(BucketCharacter, "c", 4)

	_, ok := c.Get(BucketCharacter, "b")
	assert.False(t, ok)
	v, ok := c.Get(BucketCharacter, "a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_Invalidate(t *testing.T) {
	c := newTestCache(newClock(), 10)
	c.Set(BucketCharacter, "a", 1)
	c.Set(BucketCharacter, "b", 2)
	c.Set(BucketInventory, "a", 3)

	c.Invalidate(BucketCharacter, "a")
	_, ok := c.Get(BucketCharacter, "a")
	assert.False(t, ok)
	_, ok = c.Get(BucketInventory, "a")
	assert.True(t, ok)

	c.InvalidateBucket(BucketCharacter)
	assert.Zero(t, c.Len(BucketCharacter))
	assert.Equal(t, 1, c.Len(BucketInventory))

	c.Invalidate("never-used", "x")
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(newClock(), 10)
	for _, b := range Buckets {
		c.Set(b, "k", b)
	}
	c.Get(BucketCharacter, "k")

	c.Clear()
	assert.Equal(t, Stats{}, c.Stats())
	for _, b := range Buckets {
		assert.Zero(t, c.Len(b))
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{}, nil)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, DefaultMaxSize, c.maxSize)
	assert.NotNil(t, c.now)
}
