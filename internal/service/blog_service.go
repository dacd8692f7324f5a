package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
	"blogapi/pkg/tracing"
)

// DefaultEngagementRetries bounds how often a write is re-applied after
// losing a version race.
const DefaultEngagementRetries = 3

type BlogService struct {
	repo       domain.BlogRepository
	users      domain.UserRepository
	maxRetries int
	logger     logger.Logger
	now        func() time.Time
}

func NewBlogService(
	repo domain.BlogRepository,
	users domain.UserRepository,
	maxRetries int,
	logger logger.Logger,
) *BlogService {
	if maxRetries < 0 {
		maxRetries = DefaultEngagementRetries
	}
	return &BlogService{
		repo:       repo,
		users:      users,
		maxRetries: maxRetries,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *BlogService) Create(ctx context.Context, requester domain.Identity, in domain.CreateBlogInput) (*domain.Blog, error) {
	ctx, span := tracing.StartSpan(ctx, "BlogService.Create")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	blog := &domain.Blog{
		Title:       in.Title,
		Content:     in.Content,
		AuthorID:    requester.ID,
		Categories:  in.Categories,
		Tags:        in.Tags,
		CoverImage:  in.CoverImage,
		IsPublished: in.IsPublished,
	}
	if in.IsPublished {
		now := s.now()
		blog.PublishedAt = &now
	}

	if err := s.repo.Create(ctx, blog); err != nil {
		return nil, internalError(ctx, s.logger, "create blog", err, map[string]interface{}{"author": requester.ID})
	}

	s.logger.InfoContext(ctx, "Blog created", map[string]interface{}{"blog_id": blog.ID, "author": requester.ID})
	return blog, nil
}

func (s *BlogService) List(ctx context.Context) ([]*domain.BlogView, error) {
	blogs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, internalError(ctx, s.logger, "list blogs", err, nil)
	}

	authors := make(map[string]domain.AuthorSummary)
	views := make([]*domain.BlogView, 0, len(blogs))
	for _, b := range blogs {
		summary, ok := authors[b.AuthorID]
		if !ok {
			if summary, err = s.author(ctx, b.AuthorID); err != nil {
				return nil, err
			}
			authors[b.AuthorID] = summary
		}
		views = append(views, &domain.BlogView{Blog: b, Author: summary})
	}
	return views, nil
}

func (s *BlogService) Get(ctx context.Context, id string) (*domain.BlogView, error) {
	blog, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.author(ctx, blog.AuthorID)
	if err != nil {
		return nil, err
	}
	return &domain.BlogView{Blog: blog, Author: summary}, nil
}

// Update applies the non-empty fields of in. Only the author may update.
func (s *BlogService) Update(ctx context.Context, requester domain.Identity, id string, in domain.UpdateBlogInput) (*domain.Blog, error) {
	ctx, span := tracing.StartSpan(ctx, "BlogService.Update")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(b *domain.Blog) error {
		if !domain.CanMutate(b.AuthorID, requester.ID) {
			return domain.ErrNotBlogAuthorEdit
		}
		if in.Title != "" {
			b.Title = in.Title
		}
		if in.Content != "" {
			b.Content = in.Content
		}
		if len(in.Categories) > 0 {
			b.Categories = in.Categories
		}
		if in.Tags != nil {
			b.Tags = in.Tags
		}
		if in.CoverImage != "" {
			b.CoverImage = in.CoverImage
		}
		if in.IsPublished != nil {
			b.IsPublished = *in.IsPublished
		}
		if b.IsPublished && b.PublishedAt == nil {
			now := s.now()
			b.PublishedAt = &now
		}
		return nil
	})
}

func (s *BlogService) Delete(ctx context.Context, requester domain.Identity, id string) error {
	blog, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(blog.AuthorID, requester.ID) {
		return domain.ErrNotBlogAuthorDel
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrBlogNotFound) {
			return domain.ErrBlogNotFound
		}
		return internalError(ctx, s.logger, "delete blog", err, map[string]interface{}{"blog_id": id})
	}

	s.logger.InfoContext(ctx, "Blog deleted", map[string]interface{}{"blog_id": id, "requester": requester.ID})
	return nil
}

func (s *BlogService) AddComment(ctx context.Context, requester domain.Identity, id string, in domain.CommentInput) (*domain.Blog, error) {
	if blank(in.Comment) {
		return nil, domain.NewValidationError("Comment cannot be empty")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(b *domain.Blog) error {
		b.Comments = append(b.Comments, domain.Comment{
			ID:        uuid.NewString(),
			UserID:    requester.ID,
			Text:      in.Comment,
			CreatedAt: s.now(),
		})
		return nil
	})
}

// Engage runs one engagement transition for the requester and persists the
// whole blog. Version conflicts are retried on a fresh read.
func (s *BlogService) Engage(ctx context.Context, requester domain.Identity, id string, action domain.EngagementAction) (*domain.Blog, error) {
	ctx, span := tracing.StartSpan(ctx, "BlogService.Engage",
		attribute.String("blog.id", id),
		attribute.String("engagement.action", string(action)),
	)
	defer span.End()

	blog, err := s.mutate(ctx, id, func(b *domain.Blog) error {
		if err := b.Apply(action, requester.ID); err != nil {
			return err
		}
		return b.CheckEngagement()
	})
	if err != nil {
		metrics.RecordEngagement(string(action), engagementOutcome(err))
		return nil, err
	}
	metrics.RecordEngagement(string(action), "applied")
	return blog, nil
}

func engagementOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrEngagementContended):
		return "contended"
	case domain.KindOf(err) == domain.KindInternal:
		return "error"
	default:
		return "rejected"
	}
}

// mutate is the read-modify-save cycle shared by every blog write. change
// must leave the blog untouched when it returns an error.
func (s *BlogService) mutate(ctx context.Context, id string, change func(*domain.Blog) error) (*domain.Blog, error) {
	for attempt := 0; ; attempt++ {
		blog, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := change(blog); err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				return nil, err
			}
			return nil, internalError(ctx, s.logger, "apply blog change", err, map[string]interface{}{"blog_id": id})
		}

		err = s.repo.Save(ctx, blog)
		switch {
		case err == nil:
			return blog, nil
		case errors.Is(err, domain.ErrBlogNotFound):
			return nil, domain.ErrBlogNotFound
		case errors.Is(err, domain.ErrConcurrentModification):
			metrics.RecordConcurrentModification()
			if attempt >= s.maxRetries {
				s.logger.WarnContext(ctx, "Giving up on contended blog", map[string]interface{}{
					"blog_id":  id,
					"attempts": attempt + 1,
				})
				return nil, domain.ErrEngagementContended
			}
			s.logger.DebugContext(ctx, "Blog version moved, retrying", map[string]interface{}{"blog_id": id, "attempt": attempt + 1})
		default:
			return nil, internalError(ctx, s.logger, "save blog", err, map[string]interface{}{"blog_id": id})
		}
	}
}

func (s *BlogService) load(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(ctx, s.logger, "find blog", err, map[string]interface{}{"blog_id": id})
	}
	if blog == nil {
		return nil, domain.ErrBlogNotFound
	}
	return blog, nil
}

// author resolves the public summary of a blog author. A deleted author
// still yields a summary carrying the id.
func (s *BlogService) author(ctx context.Context, id string) (domain.AuthorSummary, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.AuthorSummary{}, internalError(ctx, s.logger, "find author", err, map[string]interface{}{"author": id})
	}
	if user == nil {
		return domain.AuthorSummary{ID: id}, nil
	}
	return domain.AuthorSummary{ID: user.ID, Username: user.Username, Email: user.Email}, nil
}

var _ domain.BlogService = (*BlogService)(nil)
