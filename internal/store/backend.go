// Package store implements the canonical exercise store the data layer saves
// to and fetches snapshots from. It runs on SQLite (the default, one file in
// the data directory) or on Postgres through the pgx database/sql driver,
// with one SQL dialect for both.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mesh-intelligence/drills/internal/logging"
	"github.com/mesh-intelligence/drills/pkg/types"
)

// Database driver names registered by the imports above.
const (
	driverSQLite   = "sqlite"
	driverPostgres = "pgx"
)

// dbFileName is the SQLite database file inside DataDir.
const dbFileName = "drills.db"

// timeLayout is a fixed-width RFC 3339 layout, so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ types.ExerciseStore = (*Backend)(nil)

// Backend is the database-backed exercise store.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	driver   string

	cache   *lru.Cache[types.ID, []byte] // encoded snapshots; nil when disabled
	logger  *slog.Logger
	metrics *metrics
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for save outcomes and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithRegisterer registers the store's save metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(b *Backend) {
		b.metrics.register(reg)
	}
}

// NewBackend creates a new store. The backend is not attached; call Attach
// with a Config to open the database.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		logger:  logging.Discard(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach validates config, opens the database and applies the schema.
// For SQLite the DataDir is created if needed.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	db, driver, err := openDB(config)
	if err != nil {
		return err
	}
	b.driver = driver

	if err := applySchema(db, b.rebind); err != nil {
		db.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	b.cache = nil
	if config.CacheSize > 0 {
		cache, err := lru.New[types.ID, []byte](config.CacheSize)
		if err != nil {
			db.Close()
			return fmt.Errorf("create cache: %w", err)
		}
		b.cache = cache
	}

	b.db = db
	b.config = config
	b.attached = true
	b.logger.Debug("store attached", "backend", config.Backend, "data_dir", config.DataDir, "cache_size", config.CacheSize)
	return nil
}

// Detach closes the database. Detach is idempotent; after Detach every
// operation returns ErrStoreDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	b.cache = nil
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.logger.Debug("store detached", "backend", b.config.Backend)
	return nil
}

// openDB opens the configured database and verifies the connection.
func openDB(config types.Config) (*sql.DB, string, error) {
	switch config.Backend {
	case types.BackendPostgres:
		db, err := sql.Open(driverPostgres, config.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("ping postgres: %w", err)
		}
		return db, driverPostgres, nil
	default:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, "", err
		}
		db, err := sql.Open(driverSQLite, filepath.Join(dataDir, dbFileName))
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite: %w", err)
		}
		// One connection serializes writers and keeps per-connection pragmas.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("enable foreign keys: %w", err)
		}
		return db, driverSQLite, nil
	}
}

// rebind rewrites ? placeholders into $n for Postgres.
func (b *Backend) rebind(query string) string {
	if b.driver != driverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// attachedDB returns the open database or ErrStoreDetached.
// The caller must hold b.mu.
func (b *Backend) attachedDB() (*sql.DB, error) {
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}

// invalidate drops the cached snapshot of an exercise.
func (b *Backend) invalidate(id types.ID) {
	if b.cache != nil {
		b.cache.Remove(id)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(timeLayout)
}

// generateUUID generates a new UUID v7 for transaction IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
