package domain

import (
	"context"
	"time"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
}

// CategoryRepository returns (nil, nil) from finders when nothing matches.
// FindAll returns categories newest first.
type CategoryRepository interface {
	FindByID(ctx context.Context, id string) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	FindAll(ctx context.Context) ([]*Category, error)
	Create(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id string) error
}

type CategoryService interface {
	Create(ctx context.Context, requester Identity, creatorID string, in CategoryInput) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Delete(ctx context.Context, requester Identity, uid, categoryID string) (*Category, error)
}
