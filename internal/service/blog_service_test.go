package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"blogapi/internal/domain"
	"blogapi/internal/repository/memory"
	"blogapi/pkg/logger"
)

func createBlog(t *testing.T, f *fixture, author *domain.User) *domain.Blog {
	t.Helper()
	b, err := f.blogSvc.Create(context.Background(), identity(author), domain.CreateBlogInput{
		Title:      "Hello",
		Content:    "World",
		Categories: []string{"go"},
	})
	if err != nil {
		t.Fatalf("create blog: %v", err)
	}
	return b
}

func TestCreateBlogValidation(t *testing.T) {
	f := newFixture(false)
	a := f.signup(t, "author")

	tests := []struct {
		name string
		in   domain.CreateBlogInput
	}{
		{"missing title", domain.CreateBlogInput{Content: "c", Categories: []string{"go"}}},
		{"missing content", domain.CreateBlogInput{Title: "t", Categories: []string{"go"}}},
		{"no categories", domain.CreateBlogInput{Title: "t", Content: "c"}},
		{"empty category list", domain.CreateBlogInput{Title: "t", Content: "c", Categories: []string{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.blogSvc.Create(context.Background(), identity(a), tc.in)
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestCreatePublishedBlogSetsPublishedAt(t *testing.T) {
	f := newFixture(false)
	a := f.signup(t, "author")
	b, err := f.blogSvc.Create(context.Background(), identity(a), domain.CreateBlogInput{
		Title: "t", Content: "c", Categories: []string{"go"}, IsPublished: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if b.PublishedAt == nil || b.AuthorID != a.ID {
		t.Fatalf("blog = %+v", b)
	}
}

func TestBlogOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	b := createBlog(t, f, alice)

	_, err := f.blogSvc.Update(ctx, identity(bob), b.ID, domain.UpdateBlogInput{Title: "pwned"})
	if !errors.Is(err, domain.ErrNotBlogAuthorEdit) {
		t.Fatalf("bob update err = %v", err)
	}

	published := true
	updated, err := f.blogSvc.Update(ctx, identity(alice), b.ID, domain.UpdateBlogInput{Title: "Edited", IsPublished: &published})
	if err != nil {
		t.Fatalf("alice update: %v", err)
	}
	if updated.Title != "Edited" || updated.Content != "World" || updated.PublishedAt == nil {
		t.Fatalf("updated = %+v", updated)
	}

	if err := f.blogSvc.Delete(ctx, identity(bob), b.ID); !errors.Is(err, domain.ErrNotBlogAuthorDel) {
		t.Fatalf("bob delete err = %v", err)
	}
	if err := f.blogSvc.Delete(ctx, identity(alice), b.ID); err != nil {
		t.Fatalf("alice delete: %v", err)
	}
	if _, err := f.blogSvc.Get(ctx, b.ID); !errors.Is(err, domain.ErrBlogNotFound) {
		t.Fatalf("get after delete err = %v", err)
	}
}

func TestGetResolvesAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	alice := f.signup(t, "alice")
	b := createBlog(t, f, alice)

	view, err := f.blogSvc.Get(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Author.Username != "alice" || view.Author.Email != "alice@example.com" {
		t.Fatalf("author = %+v", view.Author)
	}

	list, err := f.blogSvc.List(ctx)
	if err != nil || len(list) != 1 || list[0].Author.ID != alice.ID {
		t.Fatalf("list = %+v, err = %v", list, err)
	}
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	b := createBlog(t, f, alice)

	for _, text := range []string{"first", "second"} {
		if _, err := f.blogSvc.AddComment(ctx, identity(bob), b.ID, domain.CommentInput{Comment: text}); err != nil {
			t.Fatal(err)
		}
	}
	got, _ := f.blogs.FindByID(ctx, b.ID)
	if len(got.Comments) != 2 || got.Comments[0].Text != "first" || got.Comments[1].UserID != bob.ID {
		t.Fatalf("comments = %+v", got.Comments)
	}

	if _, err := f.blogSvc.AddComment(ctx, identity(bob), b.ID, domain.CommentInput{}); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("empty comment err = %v", err)
	}
}

func TestEngageFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	alice := f.signup(t, "alice")
	bob := f.signup(t, "bob")
	b := createBlog(t, f, alice)
	me := identity(bob)

	steps := []struct {
		action   domain.EngagementAction
		wantErr  error
		likes    int
		dislikes int
	}{
		{domain.ActionLike, nil, 1, 0},
		{domain.ActionLike, domain.ErrAlreadyLiked, 1, 0},
		{domain.ActionDislike, nil, 0, 1},
		{domain.ActionUnlike, domain.ErrNotLiked, 0, 1},
		{domain.ActionRemoveDislike, nil, 0, 0},
		{domain.ActionRemoveDislike, domain.ErrNotDisliked, 0, 0},
	}
	for i, st := range steps {
		_, err := f.blogSvc.Engage(ctx, me, b.ID, st.action)
		if !errors.Is(err, st.wantErr) {
			t.Fatalf("step %d %s: err = %v, want %v", i, st.action, err, st.wantErr)
		}
		stored, _ := f.blogs.FindByID(ctx, b.ID)
		if stored.Likes.Count != st.likes || stored.Dislikes.Count != st.dislikes {
			t.Fatalf("step %d %s: likes/dislikes = %d/%d", i, st.action, stored.Likes.Count, stored.Dislikes.Count)
		}
	}

	if _, err := f.blogSvc.Engage(ctx, me, "missing", domain.ActionLike); !errors.Is(err, domain.ErrBlogNotFound) {
		t.Fatalf("missing blog err = %v", err)
	}
}

func TestEngageRetriesOnVersionConflict(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewBlogRepository()
	b := &domain.Blog{Title: "t", Content: "c", AuthorID: "a"}
	_ = inner.Create(ctx, b)

	conflicts := 2
	saves := 0
	repo := &mockBlogRepo{inner: inner}
	repo.saveFn = func(ctx context.Context, blog *domain.Blog) error {
		saves++
		if conflicts > 0 {
			conflicts--
			// another writer likes the blog in between
			other, _ := inner.FindByID(ctx, blog.ID)
			_ = other.Apply(domain.ActionLike, "someone-else")
			if err := inner.Save(ctx, other); err != nil {
				return err
			}
			return domain.ErrConcurrentModification
		}
		return inner.Save(ctx, blog)
	}

	svc := NewBlogService(repo, memory.NewUserRepository(), 3, logger.Nop())
	got, err := svc.Engage(ctx, domain.Identity{ID: "u1"}, b.ID, domain.ActionLike)
	if err != nil {
		t.Fatalf("Engage: %v", err)
	}
	if saves != 3 {
		t.Errorf("saves = %d, want 3", saves)
	}
	if got.Likes.Count != 2 || !got.Likes.Has("u1") || !got.Likes.Has("someone-else") {
		t.Fatalf("likes = %+v, concurrent like lost", got.Likes)
	}
}

func TestEngageGivesUpWhenContended(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewBlogRepository()
	b := &domain.Blog{Title: "t", AuthorID: "a"}
	_ = inner.Create(ctx, b)

	saves := 0
	repo := &mockBlogRepo{
		inner: inner,
		saveFn: func(context.Context, *domain.Blog) error {
			saves++
			return domain.ErrConcurrentModification
		},
	}
	svc := NewBlogService(repo, memory.NewUserRepository(), 2, logger.Nop())

	_, err := svc.Engage(ctx, domain.Identity{ID: "u1"}, b.ID, domain.ActionView)
	if !errors.Is(err, domain.ErrEngagementContended) {
		t.Fatalf("err = %v, want ErrEngagementContended", err)
	}
	if saves != 3 {
		t.Fatalf("saves = %d, want 3", saves)
	}
}

func TestEngageStoreFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	repo := &mockBlogRepo{
		inner: memory.NewBlogRepository(),
		findByIDFn: func(context.Context, string) (*domain.Blog, error) {
			return nil, errors.New("socket closed")
		},
	}
	svc := NewBlogService(repo, memory.NewUserRepository(), 3, logger.Nop())
	_, err := svc.Engage(ctx, domain.Identity{ID: "u1"}, "b1", domain.ActionLike)
	if domain.KindOf(err) != domain.KindInternal {
		t.Fatalf("err = %v, want internal", err)
	}
}

// Concurrent likes from distinct users must all land.
func TestConcurrentLikesAreNotLost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(false)
	f.blogSvc = NewBlogService(f.blogs, f.users, 100, logger.Nop())
	alice := f.signup(t, "alice")
	b := createBlog(t, f, alice)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.Identity{ID: string(rune('a' + i))}
			if _, err := f.blogSvc.Engage(ctx, id, b.ID, domain.ActionLike); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Engage: %v", err)
	}

	stored, _ := f.blogs.FindByID(ctx, b.ID)
	if stored.Likes.Count != n {
		t.Fatalf("likes = %d, want %d", stored.Likes.Count, n)
	}
	if err := stored.CheckEngagement(); err != nil {
		t.Fatal(err)
	}
}
