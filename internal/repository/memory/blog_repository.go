package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"blogapi/internal/domain"
)

type BlogRepository struct {
	mu    sync.RWMutex
	blogs map[string]*domain.Blog
	order []string
}

func NewBlogRepository() *BlogRepository {
	return &BlogRepository{blogs: make(map[string]*domain.Blog)}
}

func (r *BlogRepository) FindByID(_ context.Context, id string) (*domain.Blog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blogs[id].Clone(), nil
}

func (r *BlogRepository) FindAll(_ context.Context) ([]*domain.Blog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Blog, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.blogs[id].Clone())
	}
	return out, nil
}

func (r *BlogRepository) Create(_ context.Context, blog *domain.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if blog.ID == "" {
		blog.ID = uuid.NewString()
	}
	if _, exists := r.blogs[blog.ID]; exists {
		return domain.ErrDuplicateKey
	}
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	blog.Version = 1
	blog.Normalize()

	r.blogs[blog.ID] = blog.Clone()
	r.order = append(r.order, blog.ID)
	return nil
}

func (r *BlogRepository) Save(_ context.Context, blog *domain.Blog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.blogs[blog.ID]
	if !ok {
		return domain.ErrBlogNotFound
	}
	if stored.Version != blog.Version {
		return domain.ErrConcurrentModification
	}
	blog.Version++
	blog.UpdatedAt = time.Now().UTC()
	r.blogs[blog.ID] = blog.Clone()
	return nil
}

func (r *BlogRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.blogs[id]; !ok {
		return domain.ErrBlogNotFound
	}
	delete(r.blogs, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return nil
}
