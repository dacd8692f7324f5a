package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blogapi/internal/database"
	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

const categoryColumns = `id, name, description, created_by, created_at, updated_at`

type CategoryRepository struct {
	db      *sql.DB
	dialect database.Dialect
	logger  logger.Logger
}

func NewCategoryRepository(db *sql.DB, dialect database.Dialect, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{db: db, dialect: dialect, logger: logger}
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (*domain.Category, error) {
	return r.findOne(ctx, "find_by_id", `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
}

func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*domain.Category, error) {
	return r.findOne(ctx, "find_by_name", `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name)
}

func (r *CategoryRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*domain.Category, error) {
	defer observe(op, "category", r.dialect)()

	c, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	defer observe("find_all", "category", r.dialect)()

	rows, err := r.db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	defer observe("create", "category", r.dialect)()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, category.Name, category.Description, category.CreatedBy, now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		r.logger.Error("Could not create category", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("insert category: %w", err)
	}

	category.ID = id
	category.CreatedAt = now
	category.UpdatedAt = now
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "category", r.dialect)()

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}
