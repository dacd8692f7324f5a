package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blogapi/internal/database"
	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type BlogRepository struct {
	db      *sql.DB
	dialect database.Dialect
	logger  logger.Logger
}

func NewBlogRepository(db *sql.DB, dialect database.Dialect, logger logger.Logger) *BlogRepository {
	return &BlogRepository{db: db, dialect: dialect, logger: logger}
}

func scanBlog(row rowScanner) (*domain.Blog, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}
	var b domain.Blog
	if err := json.Unmarshal(doc, &b); err != nil {
		return nil, fmt.Errorf("decode blog document: %w", err)
	}
	b.Version = version
	b.Normalize()
	return &b, nil
}

func (r *BlogRepository) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	defer observe("find_by_id", "blog", r.dialect)()

	b, err := scanBlog(r.db.QueryRowContext(ctx, `SELECT document, version FROM blogs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return b, nil
}

func (r *BlogRepository) FindAll(ctx context.Context) ([]*domain.Blog, error) {
	defer observe("find_all", "blog", r.dialect)()

	rows, err := r.db.QueryContext(ctx, `SELECT document, version FROM blogs ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []*domain.Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	defer observe("create", "blog", r.dialect)()

	now := time.Now().UTC()
	blog.ID = uuid.NewString()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	blog.Version = 1
	blog.Normalize()

	doc, err := json.Marshal(blog)
	if err != nil {
		return fmt.Errorf("encode blog: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO blogs (id, author_id, document, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		blog.ID, blog.AuthorID, string(doc), blog.Version, now, now,
	)
	if err != nil {
		r.logger.Error("Could not create blog", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

// Save writes the document only while the stored version still equals
// blog.Version.
func (r *BlogRepository) Save(ctx context.Context, blog *domain.Blog) error {
	defer observe("save", "blog", r.dialect)()

	next := *blog
	next.Version = blog.Version + 1
	next.UpdatedAt = time.Now().UTC()
	doc, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode blog: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE blogs SET document = $1, version = $2, updated_at = $3 WHERE id = $4 AND version = $5`,
		string(doc), next.Version, next.UpdatedAt, blog.ID, blog.Version,
	)
	if err != nil {
		return fmt.Errorf("save blog: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blogs WHERE id = $1`, blog.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check blog: %w", err)
		}
		if exists == 0 {
			return domain.ErrBlogNotFound
		}
		return domain.ErrConcurrentModification
	}

	blog.Version = next.Version
	blog.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "blog", r.dialect)()

	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrBlogNotFound
	}
	return nil
}
