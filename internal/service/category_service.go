package service

import (
	"context"
	"errors"
	"strings"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type CategoryService struct {
	repo            domain.CategoryRepository
	strictOwnership bool
	logger          logger.Logger
}

func NewCategoryService(repo domain.CategoryRepository, strictOwnership bool, logger logger.Logger) *CategoryService {
	return &CategoryService{
		repo:            repo,
		strictOwnership: strictOwnership,
		logger:          logger,
	}
}

// Create records a category created by creatorID. With strict ownership the
// creator must be the requester.
func (s *CategoryService) Create(ctx context.Context, requester domain.Identity, creatorID string, in domain.CategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.NewValidationError("Category name is required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if blank(creatorID) {
		return nil, domain.NewValidationError("Creator id is required")
	}
	if s.strictOwnership && !domain.CanMutate(creatorID, requester.ID) {
		return nil, domain.ErrForeignCategoryUser
	}

	existing, err := s.repo.FindByName(ctx, in.Name)
	if err != nil {
		return nil, internalError(ctx, s.logger, "find category", err, map[string]interface{}{"name": in.Name})
	}
	if existing != nil {
		return nil, domain.ErrCategoryExists
	}

	category := &domain.Category{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   creatorID,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrCategoryExists
		}
		if domain.KindOf(err) == domain.KindValidation {
			return nil, err
		}
		return nil, internalError(ctx, s.logger, "create category", err, map[string]interface{}{"name": in.Name})
	}

	s.logger.InfoContext(ctx, "Category created", map[string]interface{}{"category_id": category.ID, "created_by": creatorID})
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, internalError(ctx, s.logger, "list categories", err, nil)
	}
	return categories, nil
}

// Delete removes categoryID when uid is its creator.
func (s *CategoryService) Delete(ctx context.Context, requester domain.Identity, uid, categoryID string) (*domain.Category, error) {
	if s.strictOwnership && !domain.CanMutate(uid, requester.ID) {
		return nil, domain.ErrNotCategoryCreator
	}

	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "find category", err, map[string]interface{}{"category_id": categoryID})
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	if !domain.CanMutate(category.CreatedBy, uid) {
		return nil, domain.ErrNotCategoryCreator
	}

	if err := s.repo.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, internalError(ctx, s.logger, "delete category", err, map[string]interface{}{"category_id": categoryID})
	}

	s.logger.InfoContext(ctx, "Category deleted", map[string]interface{}{"category_id": categoryID, "uid": uid})
	return category, nil
}

var _ domain.CategoryService = (*CategoryService)(nil)
