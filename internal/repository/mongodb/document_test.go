package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"blogapi/internal/domain"
)

func TestBlogDocumentKeepsEngagementSets(t *testing.T) {
	author := primitive.NewObjectID().Hex()
	liker := primitive.NewObjectID().Hex()
	viewer := primitive.NewObjectID().Hex()

	b := &domain.Blog{
		ID:         primitive.NewObjectID().Hex(),
		Title:      "t",
		AuthorID:   author,
		Categories: []string{"go"},
		Comments:   []domain.Comment{{UserID: liker, Text: "nice", CreatedAt: time.Now().UTC()}},
		Likes:      domain.Engagement{Count: 1, Users: []string{liker}},
		Views:      domain.Engagement{Count: 2, Users: []string{liker, viewer}},
		Version:    7,
	}

	doc, err := blogFromDomain(b)
	if err != nil {
		t.Fatalf("blogFromDomain: %v", err)
	}
	if doc.Comments[0].ID.IsZero() {
		t.Error("comment without id should get a fresh ObjectID")
	}

	got := doc.toDomain()
	if got.ID != b.ID || got.AuthorID != author || got.Version != 7 {
		t.Fatalf("identity fields lost: %+v", got)
	}
	if !got.Likes.Has(liker) || got.Views.Count != 2 || !got.Views.Has(viewer) {
		t.Fatalf("engagement lost: likes=%+v views=%+v", got.Likes, got.Views)
	}
	if err := got.CheckEngagement(); err != nil {
		t.Fatal(err)
	}
}

func TestBlogDocumentRejectsForeignIDs(t *testing.T) {
	b := &domain.Blog{
		AuthorID: primitive.NewObjectID().Hex(),
		Likes:    domain.Engagement{Count: 1, Users: []string{"not-an-object-id"}},
	}
	if _, err := blogFromDomain(b); err == nil {
		t.Fatal("expected error for non-ObjectID user")
	}

	b = &domain.Blog{AuthorID: "nope"}
	if _, err := blogFromDomain(b); err == nil {
		t.Fatal("expected error for non-ObjectID author")
	}
}

func TestObjectIDParsing(t *testing.T) {
	if _, ok := objectID("zzz"); ok {
		t.Error("garbage parsed as ObjectID")
	}
	oid := primitive.NewObjectID()
	got, ok := objectID(oid.Hex())
	if !ok || got != oid {
		t.Errorf("objectID(%s) = %s, %v", oid.Hex(), got.Hex(), ok)
	}
}
