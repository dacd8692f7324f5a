package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type engagementDocument struct {
	Count int                  `bson:"count"`
	Users []primitive.ObjectID `bson:"users"`
}

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      primitive.ObjectID `bson:"user"`
	Comment   string             `bson:"comment"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type blogDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Content     string             `bson:"content"`
	Author      primitive.ObjectID `bson:"author"`
	Categories  []string           `bson:"categories"`
	Tags        []string           `bson:"tags"`
	CoverImage  string             `bson:"coverImage,omitempty"`
	IsPublished bool               `bson:"isPublished"`
	PublishedAt *time.Time         `bson:"publishedAt,omitempty"`
	Comments    []commentDocument  `bson:"comments"`
	Likes       engagementDocument `bson:"likes"`
	Dislikes    engagementDocument `bson:"dislikes"`
	Views       engagementDocument `bson:"views"`
	Version     int64              `bson:"version"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func engagementToDomain(d engagementDocument) domain.Engagement {
	return domain.Engagement{Count: d.Count, Users: hexes(d.Users)}
}

func engagementFromDomain(e domain.Engagement) (engagementDocument, error) {
	users, err := objectIDs(e.Users)
	if err != nil {
		return engagementDocument{}, err
	}
	return engagementDocument{Count: e.Count, Users: users}, nil
}

func (d *blogDocument) toDomain() *domain.Blog {
	b := &domain.Blog{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Content:     d.Content,
		AuthorID:    d.Author.Hex(),
		Categories:  d.Categories,
		Tags:        d.Tags,
		CoverImage:  d.CoverImage,
		IsPublished: d.IsPublished,
		PublishedAt: d.PublishedAt,
		Likes:       engagementToDomain(d.Likes),
		Dislikes:    engagementToDomain(d.Dislikes),
		Views:       engagementToDomain(d.Views),
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range d.Comments {
		b.Comments = append(b.Comments, domain.Comment{
			ID:        c.ID.Hex(),
			UserID:    c.User.Hex(),
			Text:      c.Comment,
			CreatedAt: c.CreatedAt,
		})
	}
	b.Normalize()
	return b
}

// syncCommentIDs copies the ids the document was written with back onto
// the comments of b. Ids that are not ObjectIDs are replaced on write.
func syncCommentIDs(b *domain.Blog, doc *blogDocument) {
	for i := range doc.Comments {
		if i < len(b.Comments) {
			b.Comments[i].ID = doc.Comments[i].ID.Hex()
		}
	}
}

func blogFromDomain(b *domain.Blog) (*blogDocument, error) {
	author, ok := objectID(b.AuthorID)
	if !ok {
		return nil, fmt.Errorf("invalid author id %q", b.AuthorID)
	}
	doc := &blogDocument{
		Title:       b.Title,
		Content:     b.Content,
		Author:      author,
		Categories:  b.Categories,
		Tags:        b.Tags,
		CoverImage:  b.CoverImage,
		IsPublished: b.IsPublished,
		PublishedAt: b.PublishedAt,
		Comments:    make([]commentDocument, 0, len(b.Comments)),
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if oid, ok := objectID(b.ID); ok {
		doc.ID = oid
	}
	for _, c := range b.Comments {
		user, ok := objectID(c.UserID)
		if !ok {
			return nil, fmt.Errorf("invalid comment user id %q", c.UserID)
		}
		cid, ok := objectID(c.ID)
		if !ok {
			cid = primitive.NewObjectID()
		}
		doc.Comments = append(doc.Comments, commentDocument{ID: cid, User: user, Comment: c.Text, CreatedAt: c.CreatedAt})
	}

	var err error
	if doc.Likes, err = engagementFromDomain(b.Likes); err != nil {
		return nil, err
	}
	if doc.Dislikes, err = engagementFromDomain(b.Dislikes); err != nil {
		return nil, err
	}
	if doc.Views, err = engagementFromDomain(b.Views); err != nil {
		return nil, err
	}
	return doc, nil
}

type BlogRepository struct {
	coll   *mongo.Collection
	logger logger.Logger
}

func (r *BlogRepository) FindByID(ctx context.Context, id string) (*domain.Blog, error) {
	defer observe("find_by_id", "blog")()

	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	var doc blogDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BlogRepository) FindAll(ctx context.Context) ([]*domain.Blog, error) {
	defer observe("find_all", "blog")()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	var docs []blogDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode blogs: %w", err)
	}

	blogs := make([]*domain.Blog, 0, len(docs))
	for i := range docs {
		blogs = append(blogs, docs[i].toDomain())
	}
	return blogs, nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	defer observe("create", "blog")()

	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	blog.Version = 1
	blog.Normalize()

	doc, err := blogFromDomain(blog)
	if err != nil {
		return err
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	blog.ID = doc.ID.Hex()
	syncCommentIDs(blog, doc)
	return nil
}

// Save replaces the document only while its stored version still equals
// blog.Version.
func (r *BlogRepository) Save(ctx context.Context, blog *domain.Blog) error {
	defer observe("save", "blog")()

	oid, ok := objectID(blog.ID)
	if !ok {
		return domain.ErrBlogNotFound
	}

	next := *blog
	next.Version = blog.Version + 1
	next.UpdatedAt = time.Now().UTC()
	doc, err := blogFromDomain(&next)
	if err != nil {
		return err
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "version": blog.Version}, doc)
	if err != nil {
		return fmt.Errorf("save blog: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("check blog: %w", err)
		}
		if n == 0 {
			return domain.ErrBlogNotFound
		}
		return domain.ErrConcurrentModification
	}

	blog.Version = next.Version
	blog.UpdatedAt = next.UpdatedAt
	syncCommentIDs(blog, doc)
	return nil
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	defer observe("delete", "blog")()

	oid, ok := objectID(id)
	if !ok {
		return domain.ErrBlogNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBlogNotFound
	}
	return nil
}
