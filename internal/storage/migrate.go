package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations
var migrationFiles embed.FS

// Migration represents a database migration
type Migration struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	UpSQL     string     `json:"-"`
	DownSQL   string     `json:"-"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
	Filename  string     `json:"filename"`
}

// MigrationStatus pairs a known migration with whether it has been applied.
type MigrationStatus struct {
	Migration
	Applied bool `json:"applied"`
}

// Migrator applies the schema files embedded for the database's dialect.
type Migrator struct {
	db     *DB
	source fs.FS
	dir    string
}

func NewMigrator(db *DB) *Migrator {
	return &Migrator{
		db:     db,
		source: migrationFiles,
		dir:    path.Join("migrations", string(db.Driver())),
	}
}

// Init creates the migrations tracking table
func (m *Migrator) Init(ctx context.Context) error {
	appliedAt := "DATETIME"
	if m.db.Driver() == DriverPostgres {
		appliedAt = "TIMESTAMPTZ"
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		id INTEGER PRIMARY KEY NOT NULL,
		name TEXT NOT NULL UNIQUE,
		filename TEXT NOT NULL UNIQUE,
		applied_at %s NOT NULL
	)`, appliedAt)

	if _, err := m.db.ExecContext(ctx, createTableSQL); err != nil {
		return storeError("create migrations table", err)
	}
	return nil
}

// Up runs all pending migrations and returns the ones it applied.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}

	migrations, err := m.loadMigrations()
	if err != nil {
		return nil, err
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	var ran []Migration
	for _, migration := range migrations {
		if _, ok := applied[migration.ID]; ok {
			continue
		}
		if err := m.applyMigration(ctx, migration); err != nil {
			return ran, fmt.Errorf("failed to apply migration %03d_%s: %w", migration.ID, migration.Name, err)
		}
		ran = append(ran, migration)
	}

	return ran, nil
}

// Down rolls back the last applied migration
func (m *Migrator) Down(ctx context.Context) (*Migration, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}

	migrations, err := m.loadMigrations()
	if err != nil {
		return nil, err
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if _, ok := applied[migration.ID]; !ok {
			continue
		}
		if migration.DownSQL == "" {
			return nil, fmt.Errorf("migration %03d_%s has no down migration", migration.ID, migration.Name)
		}
		if err := m.rollbackMigration(ctx, migration); err != nil {
			return nil, fmt.Errorf("failed to rollback migration %03d_%s: %w", migration.ID, migration.Name, err)
		}
		return &migration, nil
	}

	return nil, fmt.Errorf("no migrations to rollback")
}

// Status lists every known migration in order with its applied time.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.Init(ctx); err != nil {
		return nil, err
	}

	migrations, err := m.loadMigrations()
	if err != nil {
		return nil, err
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, migration := range migrations {
		status := MigrationStatus{Migration: migration}
		if at, ok := applied[migration.ID]; ok {
			status.Applied = true
			status.AppliedAt = &at
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Pending reports how many migrations have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) (int, error) {
	statuses, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}
	pending := 0
	for _, s := range statuses {
		if !s.Applied {
			pending++
		}
	}
	return pending, nil
}

// applyMigration applies a single migration within a transaction
func (m *Migrator) applyMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	insertSQL := m.db.Rebind(`INSERT INTO schema_migrations (id, name, filename, applied_at) VALUES (?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, insertSQL, migration.ID, migration.Name, migration.Filename, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

func (m *Migrator) rollbackMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.DownSQL); err != nil {
		return fmt.Errorf("failed to execute down migration SQL: %w", err)
	}

	deleteSQL := m.db.Rebind(`DELETE FROM schema_migrations WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, deleteSQL, migration.ID); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}

var migrationFilename = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// loadMigrations reads the embedded migration files for the active dialect,
// sorted by id.
func (m *Migrator) loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.source, m.dir)
	if err != nil {
		return nil, fmt.Errorf("no migrations for driver %s: %w", m.db.Driver(), err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		migration, err := m.loadMigration(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to load migration file %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].ID < migrations[j].ID
	})
	return migrations, nil
}

// loadMigration parses a file named like 001_initial_schema.sql.
func (m *Migrator) loadMigration(filename string) (Migration, error) {
	matches := migrationFilename.FindStringSubmatch(filename)
	if len(matches) != 3 {
		return Migration{}, fmt.Errorf("invalid migration filename format: %s", filename)
	}

	id, err := strconv.Atoi(matches[1])
	if err != nil {
		return Migration{}, fmt.Errorf("invalid migration ID in filename: %s", filename)
	}

	content, err := fs.ReadFile(m.source, path.Join(m.dir, filename))
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration file: %w", err)
	}

	upSQL, downSQL := parseMigrationContent(string(content))
	return Migration{
		ID:       id,
		Name:     strings.ReplaceAll(matches[2], "_", " "),
		UpSQL:    upSQL,
		DownSQL:  downSQL,
		Filename: filename,
	}, nil
}

// parseMigrationContent splits a file on its "-- +migrate up/down" markers.
// Everything before a down marker counts as up.
func parseMigrationContent(content string) (upSQL, downSQL string) {
	var upLines, downLines []string
	inDownSection := false

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-- +migrate down"):
			inDownSection = true
			continue
		case strings.HasPrefix(trimmed, "-- +migrate up"):
			inDownSection = false
			continue
		}

		if inDownSection {
			downLines = append(downLines, line)
		} else {
			upLines = append(upLines, line)
		}
	}

	return strings.TrimSpace(strings.Join(upLines, "\n")), strings.TrimSpace(strings.Join(downLines, "\n"))
}

func (m *Migrator) appliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, applied_at FROM schema_migrations ORDER BY id`)
	if err != nil {
		return nil, storeError("query applied migrations", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var id int
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[id] = at
	}
	return applied, rows.Err()
}
