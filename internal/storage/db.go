package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bcnelson/spark/pkg/models"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names the database/sql driver backing the store.
type Driver string

const (
	DriverSQLite   Driver = "sqlite3"
	DriverPostgres Driver = "postgres"
)

// DB wraps the database connection with dialect helpers
type DB struct {
	*sql.DB
	path   string
	driver Driver
}

// Config holds database configuration
type Config struct {
	Driver       string
	Path         string
	DSN          string
	InMemory     bool
	MaxOpenConns int
	MaxIdleConns int
}

func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case "", DriverSQLite, "sqlite":
		return DriverSQLite, nil
	case DriverPostgres, "postgresql":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver: %s", s)
}

// NewDB opens the configured database. File-backed SQLite runs in WAL mode
// with foreign keys enabled.
func NewDB(config Config) (*DB, error) {
	driver, err := ParseDriver(config.Driver)
	if err != nil {
		return nil, err
	}

	var dsn string
	var dbPath string

	switch {
	case driver == DriverPostgres:
		if config.DSN == "" {
			return nil, fmt.Errorf("postgres DSN cannot be empty")
		}
		dsn = config.DSN
		dbPath = "postgres"
	case config.InMemory:
		dsn = ":memory:?_foreign_keys=on"
		dbPath = ":memory:"
	default:
		if config.Path == "" {
			return nil, fmt.Errorf("database path cannot be empty for file-based database")
		}

		// Ensure the directory exists
		dir := filepath.Dir(config.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}

		dsn = fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", config.Path)
		dbPath = config.Path
	}

	sqlDB, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen, maxIdle := config.MaxOpenConns, config.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 20
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	// Every connection to :memory: is a separate database.
	if driver == DriverSQLite && config.InMemory {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:     sqlDB,
		path:   dbPath,
		driver: driver,
	}

	if driver == DriverSQLite && !config.InMemory {
		if err := db.verifyWALMode(); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to verify WAL mode: %w", err)
		}
	}

	return db, nil
}

// verifyWALMode ensures WAL mode is properly enabled
func (db *DB) verifyWALMode() error {
	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		return fmt.Errorf("failed to check journal mode: %w", err)
	}

	if journalMode != "wal" {
		return fmt.Errorf("WAL mode not enabled, current mode: %s", journalMode)
	}

	var foreignKeys int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys)
	if err != nil {
		return fmt.Errorf("failed to check foreign keys: %w", err)
	}

	if foreignKeys != 1 {
		return fmt.Errorf("foreign keys not enabled")
	}

	return nil
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) Driver() Driver {
	return db.driver
}

// Rebind rewrites ? placeholders into the driver's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("unexpected test query result: %d", result)
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// GetVersion returns the server version string
func (db *DB) GetVersion(ctx context.Context) (string, error) {
	query := "SELECT sqlite_version()"
	if db.driver == DriverPostgres {
		query = "SELECT version()"
	}

	var version string
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to get database version: %w", err)
	}
	return version, nil
}

type DBStats struct {
	MaxOpenConnections int `json:"max_open_connections"`
	OpenConnections    int `json:"open_connections"`
	InUse              int `json:"in_use"`
	Idle               int `json:"idle"`
}

func (db *DB) GetStats() DBStats {
	stats := db.DB.Stats()
	return DBStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
	}
}

// storeError classifies driver errors: missing rows become NotFound, anything
// else means the store could not serve the request.
func storeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.WrapError(models.KindNotFound, op, err)
	}
	return models.WrapError(models.KindStoreUnavailable, op, err)
}
