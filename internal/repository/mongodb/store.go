// Package mongodb persists users, blogs and categories as MongoDB
// documents. A blog, including its comments and engagement sets, is one
// document guarded by a version field.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
)

const (
	usersCollection      = "users"
	blogsCollection      = "blogs"
	categoriesCollection = "categories"
	driverLabel          = "mongo"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger logger.Logger
}

// Connect dials uri and verifies the connection with a primary ping.
func Connect(ctx context.Context, uri, database string, log logger.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info("Connected to MongoDB", map[string]interface{}{"database": database})
	return &Store{client: client, db: client.Database(database), logger: log}, nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		blogsCollection: {
			{Keys: bson.D{{Key: "author", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	s.logger.Info("MongoDB indexes ensured", nil)
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{coll: s.db.Collection(usersCollection), logger: s.logger}
}

func (s *Store) Blogs() *BlogRepository {
	return &BlogRepository{coll: s.db.Collection(blogsCollection), logger: s.logger}
}

func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{coll: s.db.Collection(categoriesCollection), logger: s.logger}
}

func observe(operation, entity string) func() {
	start := time.Now()
	return func() {
		metrics.RecordRepositoryOperation(operation, entity, driverLabel, time.Since(start))
	}
}

// objectID parses a hex id. Ids that are not ObjectIDs cannot match any
// stored document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, ok := objectID(id)
		if !ok {
			return nil, fmt.Errorf("invalid object id %q", id)
		}
		out = append(out, oid)
	}
	return out, nil
}

func hexes(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}
