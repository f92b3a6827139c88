// Package sqlite exposes the SQLite-backed record store while keeping its
// implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/worldstate/internal/sqlite"
	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// Store is the record store returned by NewStore.
type Store = sqlite.Store

// NewStore creates a store. It is not attached; call Attach with a Config
// to open the database.
//
// Example:
//
//	store := sqlite.NewStore(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".worldstate-db",
//	})
//	defer store.Detach()
func NewStore(logger *slog.Logger) *Store {
	return sqlite.NewStore(logger)
}

// Open creates a store and attaches it in one step.
func Open(cfg types.Config, logger *slog.Logger) (*Store, error) {
	s := sqlite.NewStore(logger)
	if err := s.Attach(cfg); err != nil {
		return nil, err
	}
	return s, nil
}
