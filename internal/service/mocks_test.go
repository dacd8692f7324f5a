package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"blogapi/internal/domain"
	"blogapi/internal/repository/memory"
	"blogapi/pkg/logger"
	"blogapi/pkg/token"
)

// mockBlogRepo lets a test override single operations and fall through to
// an in-memory store for the rest.
type mockBlogRepo struct {
	inner      *memory.BlogRepository
	findByIDFn func(ctx context.Context, id string) (*domain.Blog, error)
	saveFn     func(ctx context.Context, blog *domain.Blog) error
}

func (m *mockBlogRepo) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return m.inner.FindByID(ctx, id)
}

func (m *mockBlogRepo) FindAll(ctx context.Context) ([]*domain.Blog, error) {
	return m.inner.FindAll(ctx)
}

func (m *mockBlogRepo) Create(ctx context.Context, blog *domain.Blog) error {
	return m.inner.Create(ctx, blog)
}

func (m *mockBlogRepo) Save(ctx context.Context, blog *domain.Blog) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, blog)
	}
	return m.inner.Save(ctx, blog)
}

func (m *mockBlogRepo) Delete(ctx context.Context, id string) error {
	return m.inner.Delete(ctx, id)
}

type mockUserRepo struct {
	*memory.UserRepository
	findByEmailFn func(ctx context.Context, email string) (*domain.User, error)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return m.UserRepository.FindByEmail(ctx, email)
}

type fixture struct {
	users      *memory.UserRepository
	blogs      *memory.BlogRepository
	categories *memory.CategoryRepository
	denylist   *token.MemoryDenylist
	issuer     *token.Issuer
	userSvc    *UserService
	blogSvc    *BlogService
	catSvc     *CategoryService
}

func newFixture(strict bool) *fixture {
	f := &fixture{
		users:      memory.NewUserRepository(),
		blogs:      memory.NewBlogRepository(),
		categories: memory.NewCategoryRepository(),
		denylist:   token.NewMemoryDenylist(),
		issuer:     token.NewIssuer("test-secret", token.DefaultTTL),
	}
	log := logger.Nop()
	f.userSvc = NewUserService(f.users, NewBcryptHasher(bcrypt.MinCost), f.issuer, f.denylist, strict, log)
	f.blogSvc = NewBlogService(f.blogs, f.users, DefaultEngagementRetries, log)
	f.catSvc = NewCategoryService(f.categories, strict, log)
	return f
}

func (f *fixture) signup(t interface{ Fatalf(string, ...any) }, username string) *domain.User {
	u, err := f.userSvc.Signup(context.Background(), domain.SignupInput{
		Fullname: "Test " + username,
		Username: username,
		Email:    username + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return u
}

func identity(u *domain.User) domain.Identity {
	return domain.Identity{ID: u.ID, Role: u.Role}
}
