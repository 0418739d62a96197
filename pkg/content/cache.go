package content

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Cache persists generated document content in SQLite, keyed by the full
// generation parameters. Cache hits make regeneration deterministic across
// runs; --regen bypasses reads but still records the fresh result.
type Cache struct {
	db   *sql.DB
	path string
}

// OpenCache creates (if needed) the cache database under dir, opens it,
// and applies migrations.
func OpenCache(ctx context.Context, dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	c := &Cache{path: filepath.Join(dir, "doc_cache.db")}
	if err := c.init(ctx); err != nil {
		return nil, err
	}
	if err := c.migrate(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", c.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping cache database: %w", err)
	}
	c.db = db
	return nil
}

func (c *Cache) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(c.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached content for key, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*DocContent, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx, `SELECT content FROM doc_cache WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var content DocContent
	if err := json.Unmarshal(payload, &content); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return &content, true, nil
}

// Put stores content under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, content *DocContent) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO doc_cache (cache_key, content, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET content = excluded.content, created_at = excluded.created_at`,
		key, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}
