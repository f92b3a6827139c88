package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// DatabaseFile is the file name of the database inside DataDir.
const DatabaseFile = "world.db"

// Store is the generic record store. It owns a single SQLite connection;
// every table is addressed by name and rows travel as types.Row.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	log *slog.Logger
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at/updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a new store. The store is not attached; call Attach with a
// Config to open the database.
func NewStore(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		log: logger.With("component", "store"),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach opens the database described by config and creates the schema if
// needed. Returns ErrAlreadyAttached if called while already attached.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dsn, err := dataSourceName(config)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection per process; an in-memory database would otherwise be
	// split across connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating index: %w", err)
		}
	}

	s.db = db
	s.config = config
	s.attached = true
	s.log.Debug("store attached", "data_dir", config.DataDir)
	return nil
}

// Detach closes the database. Detach is idempotent. After Detach every
// operation returns ErrStoreClosed.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}
	s.log.Debug("store detached")
	return nil
}

func dataSourceName(config types.Config) (string, error) {
	if config.InMemory() {
		return ":memory:?_pragma=foreign_keys(1)", nil
	}
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(dataDir, DatabaseFile)
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
}

// live returns the table accessor bound to the open connection.
func (s *Store) live() (tables, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return tables{}, types.ErrStoreClosed
	}
	return tables{q: s.db, now: s.now}, nil
}

// Get returns the first row of table matching filter, or ErrNotFound.
func (s *Store) Get(ctx context.Context, table string, filter types.Filter) (types.Row, error) {
	t, err := s.live()
	if err != nil {
		return nil, err
	}
	return t.get(ctx, table, filter)
}

// GetAll returns rows of table matching filter, sorted by order. A limit of
// zero or less returns every match.
func (s *Store) GetAll(ctx context.Context, table string, filter types.Filter, order []types.OrderBy, limit int) ([]types.Row, error) {
	t, err := s.live()
	if err != nil {
		return nil, err
	}
	return t.getAll(ctx, table, filter, order, limit)
}

// Insert adds row to table and returns its id. A UUID v7 id is assigned when
// the row carries none; created_at and updated_at are always stamped.
func (s *Store) Insert(ctx context.Context, table string, row types.Row) (string, error) {
	t, err := s.live()
	if err != nil {
		return "", err
	}
	return t.insert(ctx, table, row)
}

// Update writes row into every record matching filter and returns the number
// of records changed. updated_at is re-stamped.
func (s *Store) Update(ctx context.Context, table string, filter types.Filter, row types.Row) (int64, error) {
	t, err := s.live()
	if err != nil {
		return 0, err
	}
	return t.update(ctx, table, filter, row)
}

// Delete removes every record matching filter and returns the number removed.
func (s *Store) Delete(ctx context.Context, table string, filter types.Filter) (int64, error) {
	t, err := s.live()
	if err != nil {
		return 0, err
	}
	return t.delete(ctx, table, filter)
}

// Import inserts rows verbatim: ids and timestamps are kept as given.
func (s *Store) Import(ctx context.Context, table string, rows []types.Row) error {
	t, err := s.live()
	if err != nil {
		return err
	}
	return t.importRows(ctx, table, rows)
}

// Raw runs an ad-hoc query and returns its rows.
func (s *Store) Raw(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	t, err := s.live()
	if err != nil {
		return nil, err
	}
	return t.raw(ctx, query, args...)
}

// Exec runs an ad-hoc statement and returns the number of rows affected.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	t, err := s.live()
	if err != nil {
		return 0, err
	}
	return t.exec(ctx, query, args...)
}

// Transaction runs fn inside a database transaction. If fn returns an error
// or panics every write made through tx is rolled back and the error (or
// panic) propagates; otherwise the transaction commits. Tx has no
// Transaction method, so transactions cannot nest.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	s.mu.RLock()
	if !s.attached {
		s.mu.RUnlock()
		return types.ErrStoreClosed
	}
	db := s.db
	s.mu.RUnlock()

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.log.Warn("rollback failed", "error", rbErr)
		}
	}()

	if err := fn(&Tx{t: tables{q: sqlTx, now: s.now}}); err != nil {
		s.log.Debug("transaction rolled back", "error", err)
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", classify(err))
	}
	committed = true
	return nil
}

// Tx is a store view bound to an open transaction.
type Tx struct {
	t tables
}

// Get returns the first row of table matching filter, or ErrNotFound.
func (tx *Tx) Get(ctx context.Context, table string, filter types.Filter) (types.Row, error) {
	return tx.t.get(ctx, table, filter)
}

// GetAll returns rows of table matching filter.
func (tx *Tx) GetAll(ctx context.Context, table string, filter types.Filter, order []types.OrderBy, limit int) ([]types.Row, error) {
	return tx.t.getAll(ctx, table, filter, order, limit)
}

// Insert adds row to table and returns its id.
func (tx *Tx) Insert(ctx context.Context, table string, row types.Row) (string, error) {
	return tx.t.insert(ctx, table, row)
}

// Update writes row into every record matching filter.
func (tx *Tx) Update(ctx context.Context, table string, filter types.Filter, row types.Row) (int64, error) {
	return tx.t.update(ctx, table, filter, row)
}

// Delete removes every record matching filter.
func (tx *Tx) Delete(ctx context.Context, table string, filter types.Filter) (int64, error) {
	return tx.t.delete(ctx, table, filter)
}

// Import inserts rows verbatim.
func (tx *Tx) Import(ctx context.Context, table string, rows []types.Row) error {
	return tx.t.importRows(ctx, table, rows)
}

// Raw runs an ad-hoc query inside the transaction.
func (tx *Tx) Raw(ctx context.Context, query string, args ...any) ([]types.Row, error) {
	return tx.t.raw(ctx, query, args...)
}

// Exec runs an ad-hoc statement inside the transaction.
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return tx.t.exec(ctx, query, args...)
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
