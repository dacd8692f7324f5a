// Package sqldb implements the repositories on database/sql for PostgreSQL
// and SQLite. Queries use $N placeholders, which both drivers accept when
// each appears once and in ascending order.
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
	"blogapi/pkg/metrics"
)

const userColumns = `id, fullname, username, email, password_hash, role, avatar, bio, created_at, updated_at`

type UserRepository struct {
	db      *sql.DB
	dialect database.Dialect
	logger  logger.Logger
}

func NewUserRepository(db *sql.DB, dialect database.Dialect, logger logger.Logger) *UserRepository {
	return &UserRepository{db: db, dialect: dialect, logger: logger}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Fullname, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "find_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, arg interface{}) (*domain.User, error) {
	defer observe(op, "user", r.dialect)()

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("User lookup failed", map[string]interface{}{"operation": op, "error": err.Error()})
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	defer observe("find_all", "user", r.dialect)()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	defer observe("create", "user", r.dialect)()

	query := `
		INSERT INTO users (id, fullname, username, email, password_hash, role, avatar, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	id := uuid.NewString()
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = domain.UserRoleUser
	}

	_, err := r.db.ExecContext(ctx, query,
		id, user.Fullname, user.Username, user.Email, user.PasswordHash,
		user.Role, user.Avatar, user.Bio, now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		r.logger.Error("Could not create user", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	defer observe("update", "user", r.dialect)()

	query := `
		UPDATE users
		SET fullname = $1, username = $2, email = $3, password_hash = $4, role = $5, avatar = $6, bio = $7, updated_at = $8
		WHERE id = $9
	`

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		user.Fullname, user.Username, user.Email, user.PasswordHash,
		user.Role, user.Avatar, user.Bio, now, user.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "user", r.dialect)()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func observe(operation, entity string, dialect database.Dialect) func() {
	start := time.Now()
	return func() {
		metrics.RecordRepositoryOperation(operation, entity, string(dialect), time.Since(start))
	}
}
