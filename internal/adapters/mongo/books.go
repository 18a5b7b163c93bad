package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

var trendingSort = bson.D{
	{Key: "trending.score", Value: -1},
	{Key: "app_rating.average", Value: -1},
	{Key: "ratings_count", Value: -1},
}

// GetByID looks a book up by store id, then by external id.
func (s *Store) GetByID(ctx context.Context, id string) (domain.Book, error) {
	b, err := s.findBook(ctx, bson.M{"_id": id})
	if errors.Is(err, domain.ErrNotFound) {
		return s.findBook(ctx, bson.M{"external_id": id})
	}
	return b, err
}

func (s *Store) GetByExternalID(ctx context.Context, externalID string) (domain.Book, error) {
	return s.findBook(ctx, bson.M{"external_id": externalID})
}

func (s *Store) findBook(ctx context.Context, filter bson.M) (domain.Book, error) {
	var b domain.Book
	if err := s.books.FindOne(ctx, filter).Decode(&b); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, fmt.Errorf("mongo adapter: load book: %w", err)
	}
	normalizeBook(&b)
	return b, nil
}

// UpsertCatalog sets catalog fields and only initializes app-local fields on
// insert. A concurrent first insert of the same volume is retried once.
func (s *Store) UpsertCatalog(ctx context.Context, b domain.Book) (domain.Book, error) {
	if b.ExternalID == "" {
		return domain.Book{}, domain.Invalid("externalId", "required")
	}
	b.ApplyDefaults()
	now := s.now().UTC()

	update := bson.M{
		"$set": bson.M{
			"title":          b.Title,
			"authors":        b.Authors,
			"description":    b.Description,
			"categories":     b.Categories,
			"published_date": b.PublishedDate,
			"page_count":     b.PageCount,
			"language":       b.Language,
			"image_links":    b.ImageLinks,
			"isbn":           b.ISBN,
			"publisher":      b.Publisher,
			"average_rating": b.AverageRating,
			"ratings_count":  b.RatingsCount,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":         s.newID(),
			"app_rating":  domain.AppRating{},
			"music_vibes": []domain.MusicVibe{},
			"trending":    domain.Trending{LastUpdated: now},
			"created_at":  now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out domain.Book
	err := s.books.FindOneAndUpdate(ctx, bson.M{"external_id": b.ExternalID}, update, opts).Decode(&out)
	if driver.IsDuplicateKeyError(err) {
		err = s.books.FindOneAndUpdate(ctx, bson.M{"external_id": b.ExternalID}, update, opts).Decode(&out)
	}
	if err != nil {
		return domain.Book{}, fmt.Errorf("mongo adapter: upsert book %s: %w", b.ExternalID, err)
	}
	normalizeBook(&out)
	return out, nil
}

func (s *Store) AppendVibe(ctx context.Context, bookID string, v domain.MusicVibe) error {
	if v.ID == "" {
		v.ID = s.newID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now().UTC()
	}
	res, err := s.books.UpdateOne(ctx,
		bson.M{"_id": bookID},
		bson.M{
			"$push": bson.M{"music_vibes": v},
			"$set":  bson.M{"updated_at": s.now().UTC()},
		})
	if err != nil {
		return fmt.Errorf("mongo adapter: append vibe: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo adapter: book %s: %w", bookID, domain.ErrNotFound)
	}
	return nil
}

// IncrementVibeVotes applies $inc to the matched array element and reads the
// new total back from the same operation.
func (s *Store) IncrementVibeVotes(ctx context.Context, vibeID string, delta int) (int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"music_vibes": bson.M{"$elemMatch": bson.M{"id": vibeID}}})

	var doc struct {
		Vibes []domain.MusicVibe `bson:"music_vibes"`
	}
	err := s.books.FindOneAndUpdate(ctx,
		bson.M{"music_vibes.id": vibeID},
		bson.M{"$inc": bson.M{"music_vibes.$.votes": delta}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return 0, fmt.Errorf("mongo adapter: vibe %s: %w", vibeID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("mongo adapter: increment votes: %w", err)
	}
	if len(doc.Vibes) == 0 {
		return 0, fmt.Errorf("mongo adapter: vibe %s: %w", vibeID, domain.ErrNotFound)
	}
	return doc.Vibes[0].Votes, nil
}

func (s *Store) PopularVibes(ctx context.Context, limit int) ([]domain.PopularVibe, error) {
	pipeline := driver.Pipeline{
		{{Key: "$unwind", Value: "$music_vibes"}},
		{{Key: "$sort", Value: bson.D{
			{Key: "music_vibes.votes", Value: -1},
			{Key: "music_vibes.created_at", Value: -1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"title": 1, "authors": 1, "music_vibes": 1}}},
	}
	cur, err := s.books.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("mongo adapter: popular vibes: %w", err)
	}
	defer cur.Close(ctx)

	out := []domain.PopularVibe{}
	for cur.Next(ctx) {
		var row struct {
			ID      string           `bson:"_id"`
			Title   string           `bson:"title"`
			Authors []string         `bson:"authors"`
			Vibe    domain.MusicVibe `bson:"music_vibes"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("mongo adapter: decode popular vibe: %w", err)
		}
		out = append(out, domain.PopularVibe{
			MusicVibe:   row.Vibe,
			BookID:      row.ID,
			BookTitle:   row.Title,
			BookAuthors: row.Authors,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo adapter: iterate popular vibes: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateRatings(ctx context.Context, bookID string, rating domain.AppRating, trending domain.Trending) error {
	res, err := s.books.UpdateOne(ctx,
		bson.M{"_id": bookID},
		bson.M{"$set": bson.M{
			"app_rating": rating,
			"trending":   trending,
			"updated_at": s.now().UTC(),
		}})
	if err != nil {
		return fmt.Errorf("mongo adapter: update ratings: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo adapter: book %s: %w", bookID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) Trending(ctx context.Context, limit int) ([]domain.Book, error) {
	opts := options.Find().SetSort(trendingSort).SetLimit(int64(limit))
	return s.findBooks(ctx, bson.M{}, opts)
}

// ByCategory matches category case-insensitively against any category.
func (s *Store) ByCategory(ctx context.Context, category string, offset, limit int) ([]domain.Book, error) {
	filter := bson.M{"categories": primitive.Regex{Pattern: regexp.QuoteMeta(category), Options: "i"}}
	opts := options.Find().
		SetSort(append(append(bson.D{}, trendingSort...), bson.E{Key: "title", Value: 1})).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return s.findBooks(ctx, filter, opts)
}

func (s *Store) findBooks(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Book, error) {
	cur, err := s.books.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo adapter: query books: %w", err)
	}
	defer cur.Close(ctx)

	books := []domain.Book{}
	if err := cur.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("mongo adapter: decode books: %w", err)
	}
	for i := range books {
		normalizeBook(&books[i])
	}
	return books, nil
}

// normalizeBook replaces missing arrays with empty ones.
func normalizeBook(b *domain.Book) {
	if b.MusicVibes == nil {
		b.MusicVibes = []domain.MusicVibe{}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
}
