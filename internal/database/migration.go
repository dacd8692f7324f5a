package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"blogapi/pkg/logger"
)

type Migration struct {
	Name  string
	Apply func(ctx context.Context, tx *sql.Tx, dialect Dialect) error
}

type MigrationService struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

func NewMigrationService(db *sql.DB, dialect Dialect, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

func (m *MigrationService) InitMigrationTable(ctx context.Context) error {
	query := `
    CREATE TABLE IF NOT EXISTS schema_migrations (
        name TEXT PRIMARY KEY,
        applied_at TIMESTAMP NOT NULL
    )
    `

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		m.logger.Error("Could not create migration table", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (m *MigrationService) IsMigrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE name = $1", name).Scan(&count)
	if err != nil {
		m.logger.Error("Could not check migration state", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}
	return count > 0, nil
}

// ApplyMigration runs mig and records it in one transaction. Applied
// migrations are skipped.
func (m *MigrationService) ApplyMigration(ctx context.Context, mig Migration) (err error) {
	applied, err := m.IsMigrationApplied(ctx, mig.Name)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug("Migration already applied", map[string]interface{}{"name": mig.Name})
		return nil
	}

	m.logger.Info("Applying migration", map[string]interface{}{"name": mig.Name})

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			m.logger.Error("Migration rolled back", map[string]interface{}{"name": mig.Name, "error": err.Error()})
		}
	}()

	if err = mig.Apply(ctx, tx, m.dialect); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (name, applied_at) VALUES ($1, $2)", mig.Name, time.Now().UTC()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	m.logger.Info("Migration applied", map[string]interface{}{"name": mig.Name})
	return nil
}

func (m *MigrationService) RunMigrations(ctx context.Context) error {
	if err := m.InitMigrationTable(ctx); err != nil {
		return fmt.Errorf("init migration table: %w", err)
	}
	for _, mig := range Migrations() {
		if err := m.ApplyMigration(ctx, mig); err != nil {
			return fmt.Errorf("migration %s: %w", mig.Name, err)
		}
	}
	return nil
}

// Migrations lists the schema bootstrap steps in order.
func Migrations() []Migration {
	return []Migration{
		{"create_users_table", createUsersTable},
		{"create_categories_table", createCategoriesTable},
		{"create_blogs_table", createBlogsTable},
	}
}

func createUsersTable(ctx context.Context, tx *sql.Tx, _ Dialect) error {
	_, err := tx.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        fullname TEXT NOT NULL,
        username TEXT NOT NULL UNIQUE,
        email TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT 'user',
        avatar TEXT NOT NULL DEFAULT '',
        bio TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )
    `)
	return err
}

func createCategoriesTable(ctx context.Context, tx *sql.Tx, _ Dialect) error {
	if _, err := tx.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS categories (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL UNIQUE,
        description TEXT NOT NULL DEFAULT '',
        created_by TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )
    `); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS categories_created_at_idx ON categories (created_at)`)
	return err
}

// Blogs keep the whole document as JSON next to the version used for
// compare-and-swap saves.
func createBlogsTable(ctx context.Context, tx *sql.Tx, dialect Dialect) error {
	docType := "TEXT"
	if dialect == Postgres {
		docType = "JSONB"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS blogs (
        id TEXT PRIMARY KEY,
        author_id TEXT NOT NULL,
        document %s NOT NULL,
        version BIGINT NOT NULL,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )
    `, docType)); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS blogs_author_id_idx ON blogs (author_id)`)
	return err
}
