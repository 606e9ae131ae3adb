// Package mongo implements the DocumentStore port on a single MongoDB
// collection holding every entity class, keyed by (id, object_type).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/githarvest/githarvest/internal/domain/model"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentStore = (*Store)(nil)

// Connect establishes a MongoDB client and verifies the connection with a
// ping. The caller owns the client and should Disconnect it on shutdown.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("pinging store: %w", err)
	}

	return client, nil
}

// Store adapts one Mongo collection to the DocumentStore port.
type Store struct {
	col *mongo.Collection
}

// NewStore wires the target collection.
func NewStore(client *mongo.Client, database, collection string) *Store {
	return &Store{col: client.Database(database).Collection(collection)}
}

// EnsureIndexes creates the primary (id, object_type) key and the secondary
// (repository_id, object_type) index used by repository-scoped lookups.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}, {Key: "object_type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "repository_id", Value: 1}, {Key: "object_type", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

// FindOne returns the single document matching the filter, or ErrNotFound.
func (s *Store) FindOne(ctx context.Context, f driven.Filter) (*model.Document, error) {
	var doc model.Document
	err := s.col.FindOne(ctx, filterToBson(f)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, driven.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding document: %w", err)
	}
	return &doc, nil
}

// Find returns all documents matching the filter.
func (s *Store) Find(ctx context.Context, f driven.Filter) ([]model.Document, error) {
	cur, err := s.col.Find(ctx, filterToBson(f))
	if err != nil {
		return nil, fmt.Errorf("finding documents: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []model.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding documents: %w", err)
	}
	return docs, nil
}

// InsertOne persists a new document.
func (s *Store) InsertOne(ctx context.Context, doc *model.Document) error {
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("inserting %s %s: %w", doc.ObjectType, doc.ID, err)
	}
	return nil
}

// UpdateOne applies a typed partial update as a $set document.
func (s *Store) UpdateOne(ctx context.Context, f driven.Filter, u model.Update) error {
	set := updateToBson(u)
	if len(set) == 0 {
		return nil
	}
	if _, err := s.col.UpdateOne(ctx, filterToBson(f), bson.M{"$set": set}); err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return nil
}

// Count returns the number of documents matching the filter.
func (s *Store) Count(ctx context.Context, f driven.Filter) (int64, error) {
	n, err := s.col.CountDocuments(ctx, filterToBson(f))
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}
