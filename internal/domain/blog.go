package domain

import (
	"context"
	"time"
)

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// Blog is stored and saved as one document. Version increases by one on
// every successful save and guards concurrent read-modify-write cycles.
type Blog struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	AuthorID    string     `json:"author"`
	Categories  []string   `json:"categories"`
	Tags        []string   `json:"tags"`
	CoverImage  string     `json:"coverImage,omitempty"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Comments    []Comment  `json:"comments"`
	Likes       Engagement `json:"likes"`
	Dislikes    Engagement `json:"dislikes"`
	Views       Engagement `json:"views"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy of b.
func (b *Blog) Clone() *Blog {
	if b == nil {
		return nil
	}
	c := *b
	c.Categories = cloneStrings(b.Categories)
	c.Tags = cloneStrings(b.Tags)
	if b.PublishedAt != nil {
		t := *b.PublishedAt
		c.PublishedAt = &t
	}
	if b.Comments != nil {
		c.Comments = make([]Comment, len(b.Comments))
		copy(c.Comments, b.Comments)
	}
	c.Likes = b.Likes.clone()
	c.Dislikes = b.Dislikes.clone()
	c.Views = b.Views.clone()
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Normalize replaces nil sets and sequences with empty ones so a blog
// always serialises them as arrays.
func (b *Blog) Normalize() {
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	if b.Comments == nil {
		b.Comments = []Comment{}
	}
	for _, e := range []*Engagement{&b.Likes, &b.Dislikes, &b.Views} {
		if e.Users == nil {
			e.Users = []string{}
		}
	}
}

// AuthorSummary is the public projection of a blog's author.
type AuthorSummary struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// BlogView is a blog with its author resolved. Author replaces the bare
// author id of the embedded Blog in JSON output.
type BlogView struct {
	*Blog
	Author AuthorSummary `json:"author"`
}

type CreateBlogInput struct {
	Title       string   `json:"title" validate:"required,max=150"`
	Content     string   `json:"content" validate:"required"`
	Categories  []string `json:"categories" validate:"required,min=1,dive,required"`
	Tags        []string `json:"tags"`
	CoverImage  string   `json:"coverImage"`
	IsPublished bool     `json:"isPublished"`
}

// UpdateBlogInput fields left empty keep their current value.
type UpdateBlogInput struct {
	Title       string   `json:"title" validate:"max=150"`
	Content     string   `json:"content"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	CoverImage  string   `json:"coverImage"`
	IsPublished *bool    `json:"isPublished"`
}

type CommentInput struct {
	Comment string `json:"comment" validate:"required,max=500"`
}

// BlogRepository returns (nil, nil) from FindByID when no blog matches.
// Save replaces the stored document only if its version still equals
// blog.Version, then increments blog.Version; otherwise it returns
// ErrConcurrentModification (or ErrBlogNotFound if the blog is gone).
type BlogRepository interface {
	FindByID(ctx context.Context, id string) (*Blog, error)
	FindAll(ctx context.Context) ([]*Blog, error)
	Create(ctx context.Context, blog *Blog) error
	Save(ctx context.Context, blog *Blog) error
	Delete(ctx context.Context, id string) error
}

type BlogService interface {
	Create(ctx context.Context, requester Identity, in CreateBlogInput) (*Blog, error)
	List(ctx context.Context) ([]*BlogView, error)
	Get(ctx context.Context, id string) (*BlogView, error)
	Update(ctx context.Context, requester Identity, id string, in UpdateBlogInput) (*Blog, error)
	Delete(ctx context.Context, requester Identity, id string) error
	AddComment(ctx context.Context, requester Identity, id string, in CommentInput) (*Blog, error)
	Engage(ctx context.Context, requester Identity, id string, action EngagementAction) (*Blog, error)
}
