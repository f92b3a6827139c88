// Package cache is the in-process state cache that sits in front of the
// store. Entries live in named buckets, expire after a fixed TTL measured
// from insertion, and are evicted first-in first-out once a bucket is full.
// Reads never reorder entries.
package cache

import (
	"log/slog"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Bucket names used by the repository.
const (
	BucketCharacter = "character"
	BucketLocation  = "location"
	BucketInventory = "inventory"
)

// Buckets lists the standard bucket names.
var Buckets = []string{BucketCharacter, BucketLocation, BucketInventory}

// Defaults.
const (
	DefaultTTL     = 60 * time.Second
	DefaultMaxSize = 100
)

// Entry is a cached value and the moment it was stored.
type Entry struct {
	Data       any
	InsertedAt time.Time
}

// Stats counts cache traffic since creation or the last Clear.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// Options configures a Cache.
type Options struct {
	TTL     time.Duration
	MaxSize int
	Now     func() time.Time
}

type bucket struct {
	items *gocache.Cache
	order []string
}

// Cache holds buckets of entries.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	buckets map[string]*bucket
	stats   Stats
	log     *slog.Logger
}

// New creates a cache. Zero option values take the defaults.
func New(opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		ttl:     opts.TTL,
		maxSize: opts.MaxSize,
		now:     opts.Now,
		buckets: make(map[string]*bucket),
		log:     logger.With("component", "cache"),
	}
}

// bucketLocked returns the named bucket, creating it on first use.
func (c *Cache) bucketLocked(name string) *bucket {
	b, ok := c.buckets[name]
	if !ok {
		// Expiry is checked against our own clock, so go-cache runs without
		// expiration or a janitor goroutine.
		b = &bucket{items: gocache.New(gocache.NoExpiration, 0)}
		c.buckets[name] = b
	}
	return b
}

// Get returns the cached value for key if present and younger than the TTL.
// Expired entries are dropped on access.
func (c *Cache) Get(bucketName, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucketLocked(bucketName)
	v, ok := b.items.Get(key)
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	entry := v.(Entry)
	if c.now().Sub(entry.InsertedAt) >= c.ttl {
		c.removeLocked(b, key)
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return entry.Data, true
}

// Set stores data under key. Re-setting a key counts as a fresh insertion.
// When the bucket is full the oldest inserted entry is evicted.
func (c *Cache) Set(bucketName, key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucketLocked(bucketName)
	if _, ok := b.items.Get(key); ok {
		c.removeLocked(b, key)
	}
	for len(b.order) >= c.maxSize {
		oldest := b.order[0]
		c.removeLocked(b, oldest)
		c.stats.Evictions++
		c.log.Debug("cache eviction", "bucket", bucketName, "key", oldest)
	}
	b.items.Set(key, Entry{Data: data, InsertedAt: c.now()}, gocache.NoExpiration)
	b.order = append(b.order, key)
}

// Invalidate drops key from the bucket.
func (c *Cache) Invalidate(bucketName, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.buckets[bucketName]; ok {
		c.removeLocked(b, key)
	}
}

// InvalidateBucket drops every entry of one bucket.
func (c *Cache) InvalidateBucket(bucketName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.buckets[bucketName]; ok {
		b.items.Flush()
		b.order = nil
	}
}

// Clear empties every bucket and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.buckets {
		b.items.Flush()
		b.order = nil
	}
	c.stats = Stats{}
	c.log.Debug("cache cleared")
}

// Len returns the number of entries held in a bucket, expired or not.
func (c *Cache) Len(bucketName string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.buckets[bucketName]; ok {
		return b.items.ItemCount()
	}
	return 0
}

// Stats returns a copy of the traffic counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	for _, b := range c.buckets {
		s.Entries += b.items.ItemCount()
	}
	return s
}

func (c *Cache) removeLocked(b *bucket, key string) {
	b.items.Delete(key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}
