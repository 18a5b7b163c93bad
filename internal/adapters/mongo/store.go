// Package mongo provides MongoDB-backed book and review repositories. Vibes
// are embedded in their book document and updated in place.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

const (
	booksCollection   = "books"
	reviewsCollection = "reviews"
)

// Store implements ports.BookRepository and ports.ReviewRepository.
type Store struct {
	client  *driver.Client
	books   *driver.Collection
	reviews *driver.Collection
	now     func() time.Time
	newID   func() string
}

var (
	_ ports.BookRepository   = (*Store)(nil)
	_ ports.ReviewRepository = (*Store)(nil)
)

// Connect dials uri, verifies the primary is reachable and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo adapter: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo adapter: ping: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		books:   db.Collection(booksCollection),
		reviews: db.Collection(reviewsCollection),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	bookIndexes := []driver.IndexModel{
		{Keys: bson.D{{Key: "external_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "music_vibes.id", Value: 1}}},
		{Keys: bson.D{
			{Key: "trending.score", Value: -1},
			{Key: "app_rating.average", Value: -1},
			{Key: "ratings_count", Value: -1},
		}},
	}
	if _, err := s.books.Indexes().CreateMany(ctx, bookIndexes); err != nil {
		return fmt.Errorf("mongo adapter: book indexes: %w", err)
	}

	reviewIndexes := []driver.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "book_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "book_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := s.reviews.Indexes().CreateMany(ctx, reviewIndexes); err != nil {
		return fmt.Errorf("mongo adapter: review indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
