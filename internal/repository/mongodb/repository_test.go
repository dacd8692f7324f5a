package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func toBSON(t *testing.T, v interface{}) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return d
}

func storedBlog() *domain.Blog {
	return &domain.Blog{
		ID:         primitive.NewObjectID().Hex(),
		Title:      "Hello",
		Content:    "World",
		AuthorID:   primitive.NewObjectID().Hex(),
		Categories: []string{"go"},
		Version:    3,
	}
}

func TestBlogRepositorySave(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("replaces matching version", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		b := storedBlog()
		if err := repo.Save(context.Background(), b); err != nil {
			mt.Fatalf("Save: %v", err)
		}
		if b.Version != 4 {
			mt.Errorf("version = %d, want 4", b.Version)
		}
	})

	mt.Run("version moved", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: 1}}),
		)

		b := storedBlog()
		err := repo.Save(context.Background(), b)
		if !errors.Is(err, domain.ErrConcurrentModification) {
			mt.Fatalf("err = %v, want ErrConcurrentModification", err)
		}
		if b.Version != 3 {
			mt.Errorf("failed save changed version to %d", b.Version)
		}
	})

	mt.Run("blog gone", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		if err := repo.Save(context.Background(), storedBlog()); !errors.Is(err, domain.ErrBlogNotFound) {
			mt.Fatalf("err = %v, want ErrBlogNotFound", err)
		}
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		b := storedBlog()
		b.ID = "not-an-object-id"
		if err := repo.Save(context.Background(), b); !errors.Is(err, domain.ErrBlogNotFound) {
			mt.Fatalf("err = %v, want ErrBlogNotFound", err)
		}
	})

	mt.Run("returns stored comment ids", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		b := storedBlog()
		b.Comments = []domain.Comment{{
			ID:        uuid.NewString(),
			UserID:    primitive.NewObjectID().Hex(),
			Text:      "nice",
			CreatedAt: time.Now().UTC(),
		}}
		if err := repo.Save(context.Background(), b); err != nil {
			mt.Fatalf("Save: %v", err)
		}

		evt := mt.GetStartedEvent()
		if evt == nil {
			mt.Fatal("no command sent")
		}
		written, ok := evt.Command.Lookup("updates", "0", "u", "comments", "0", "_id").ObjectIDOK()
		if !ok {
			mt.Fatalf("replacement has no comment ObjectID: %s", evt.Command)
		}
		if b.Comments[0].ID != written.Hex() {
			mt.Errorf("comment id = %s, stored %s", b.Comments[0].ID, written.Hex())
		}
	})
}

func TestBlogRepositoryFindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("invalid id", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		b, err := repo.FindByID(context.Background(), "zzz")
		if err != nil || b != nil {
			mt.Fatalf("FindByID = %v, %v, want nil, nil", b, err)
		}
	})

	mt.Run("no document", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		b, err := repo.FindByID(context.Background(), primitive.NewObjectID().Hex())
		if err != nil || b != nil {
			mt.Fatalf("FindByID = %v, %v, want nil, nil", b, err)
		}
	})

	mt.Run("null sets decode as empty", func(mt *mtest.T) {
		repo := &BlogRepository{coll: mt.Coll, logger: logger.Nop()}
		doc := blogDocument{
			ID:      primitive.NewObjectID(),
			Title:   "Hello",
			Author:  primitive.NewObjectID(),
			Version: 1,
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, toBSON(mt.T, doc)))

		b, err := repo.FindByID(context.Background(), doc.ID.Hex())
		if err != nil || b == nil {
			mt.Fatalf("FindByID = %v, %v", b, err)
		}
		if b.Tags == nil || b.Comments == nil || b.Likes.Users == nil || b.Dislikes.Users == nil || b.Views.Users == nil {
			mt.Errorf("nil collections on read: %+v", b)
		}
	})
}

func TestUserRepositoryDuplicateKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: blogapi.users index: username_1",
		}))

		err := repo.Create(context.Background(), &domain.User{Username: "alice", Email: "alice@example.com"})
		if !errors.Is(err, domain.ErrDuplicateKey) {
			mt.Fatalf("err = %v, want ErrDuplicateKey", err)
		}
	})

	mt.Run("update", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll, logger: logger.Nop()}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: blogapi.users index: email_1",
		}))

		err := repo.Update(context.Background(), &domain.User{ID: primitive.NewObjectID().Hex(), Username: "alice"})
		if !errors.Is(err, domain.ErrDuplicateKey) {
			mt.Fatalf("err = %v, want ErrDuplicateKey", err)
		}
	})

	mt.Run("find invalid id", func(mt *mtest.T) {
		repo := &UserRepository{coll: mt.Coll, logger: logger.Nop()}
		u, err := repo.FindByID(context.Background(), "not-hex")
		if err != nil || u != nil {
			mt.Fatalf("FindByID = %v, %v, want nil, nil", u, err)
		}
	})
}
