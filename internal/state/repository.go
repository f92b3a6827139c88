// Package state is the repository for world state. It maps entities to
// store rows, keeps the cache coherent with every write, and owns snapshot
// and validation-audit persistence.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/worldstate/internal/cache"
	"github.com/mesh-intelligence/worldstate/internal/sqlite"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// Repository provides entity-level access to world state.
type Repository struct {
	store *sqlite.Store
	cache *cache.Cache
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New creates a repository over an attached store. A nil cache gets a
// default-sized one.
func New(store *sqlite.Store, c *cache.Cache, logger *slog.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if c == nil {
		c = cache.New(cache.Options{}, logger)
	}
	r := &Repository{
		store: store,
		cache: c,
		log:   logger.With("component", "repository"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the cache in front of the store.
func (r *Repository) Cache() *cache.Cache {
	return r.cache
}

func (r *Repository) nowMillis() int64 {
	return r.now().UnixMilli()
}

// notFound wraps types.ErrNotFound with the entity kind and id.
func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, types.ErrNotFound)
}

// decodeJSON unmarshals a JSON text column into dst. Empty and null columns
// leave dst untouched.
func decodeJSON(row types.Row, col string, dst any) error {
	s := row.String(col)
	if s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		return fmt.Errorf("decoding %s: %w", col, err)
	}
	return nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isNotFound reports whether err is a not-found error.
func isNotFound(err error) bool {
	return errors.Is(err, types.ErrNotFound)
}
