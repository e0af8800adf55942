package repository

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MigrationDB is the subset of *pgxpool.Pool the migrator needs.
type MigrationDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Migrator applies the numbered *.up.sql files in a directory and records
// each one in schema_migrations.
type Migrator struct {
	db     MigrationDB
	dir    string
	logger *slog.Logger
}

// NewMigrator creates a Migrator over dir.
func NewMigrator(db MigrationDB, dir string, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{db: db, dir: dir, logger: logger}
}

// FindMigrationDir returns "migrations" or, when run from a subdirectory, "../migrations".
func FindMigrationDir() string {
	dir := "migrations"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dir = "../migrations"
	}
	return dir
}

// upFiles は .up.sql ファイル名をソート済みで返す
func (m *Migrator) upFiles() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) ensureSchemaMigrations(ctx context.Context) error {
	_, err := m.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	return err
}

func (m *Migrator) applied(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name=$1)", name).Scan(&exists)
	return exists, err
}

// Pending returns the names of migrations not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return nil, err
	}
	files, err := m.upFiles()
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, f := range files {
		name := strings.TrimSuffix(f, ".up.sql")
		ok, err := m.applied(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// Up applies every pending migration in order and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, name := range pending {
		sql, err := os.ReadFile(filepath.Join(m.dir, name+".up.sql"))
		if err != nil {
			return i, fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := m.db.Exec(ctx, string(sql)); err != nil {
			return i, fmt.Errorf("migration %s: %w", name, err)
		}
		if _, err := m.db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			return i, fmt.Errorf("record migration %s: %w", name, err)
		}
		m.logger.Info("migration completed", "migration", name)
	}
	if len(pending) == 0 {
		m.logger.Info("all migrations already applied")
	}
	return len(pending), nil
}

// DropAll runs 000_drop_all.sql.
func (m *Migrator) DropAll(ctx context.Context) error {
	m.logger.Info("dropping all tables")
	return m.execFile(ctx, "000_drop_all.sql")
}

// Reset drops everything, applies 000_consolidated.sql and marks every
// migration as applied.
func (m *Migrator) Reset(ctx context.Context) error {
	if err := m.DropAll(ctx); err != nil {
		return err
	}
	if err := m.execFile(ctx, "000_consolidated.sql"); err != nil {
		return err
	}
	if err := m.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	files, err := m.upFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		name := strings.TrimSuffix(f, ".up.sql")
		if _, err := m.db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	m.logger.Info("consolidated schema applied", "migrations_marked", len(files))
	return nil
}

// Fresh drops everything and applies every migration in order.
func (m *Migrator) Fresh(ctx context.Context) (int, error) {
	if err := m.DropAll(ctx); err != nil {
		return 0, err
	}
	return m.Up(ctx)
}

func (m *Migrator) execFile(ctx context.Context, name string) error {
	sql, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if _, err := m.db.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	return nil
}
