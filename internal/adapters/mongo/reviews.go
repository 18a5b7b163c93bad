package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func (s *Store) CreateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	if r.ID == "" {
		r.ID = s.newID()
	}
	now := s.now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	normalizeReview(&r)
	r.LikesCount = len(r.Likes)

	if _, err := s.reviews.InsertOne(ctx, r); err != nil {
		if driver.IsDuplicateKeyError(err) {
			return domain.Review{}, fmt.Errorf("mongo adapter: review by %s for %s: %w", r.UserID, r.BookID, domain.ErrConflict)
		}
		return domain.Review{}, fmt.Errorf("mongo adapter: create review: %w", err)
	}
	return r, nil
}

func (s *Store) GetReview(ctx context.Context, id string) (domain.Review, error) {
	var r domain.Review
	if err := s.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return domain.Review{}, fmt.Errorf("mongo adapter: review %s: %w", id, domain.ErrNotFound)
		}
		return domain.Review{}, fmt.Errorf("mongo adapter: load review: %w", err)
	}
	normalizeReview(&r)
	return r, nil
}

// UpdateReview writes the user-editable fields of r.
func (s *Store) UpdateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now().UTC()
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out domain.Review
	err := s.reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": r.ID},
		bson.M{"$set": bson.M{
			"rating":             r.Rating,
			"text":               r.Text,
			"music_vibe_rating":  r.MusicVibeRating,
			"music_vibe_comment": r.MusicVibeComment,
			"tags":               tags,
			"is_public":          r.IsPublic,
			"updated_at":         updatedAt,
		}},
		opts,
	).Decode(&out)
	if err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return domain.Review{}, fmt.Errorf("mongo adapter: review %s: %w", r.ID, domain.ErrNotFound)
		}
		return domain.Review{}, fmt.Errorf("mongo adapter: update review: %w", err)
	}
	normalizeReview(&out)
	return out, nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo adapter: delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongo adapter: review %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ReviewsForBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return s.findReviews(ctx, bson.M{"book_id": bookID}, opts)
}

// ListReviews pages through non-flagged reviews matching q.
func (s *Store) ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, int, error) {
	filter := bson.M{"flagged": false}
	if !q.IncludePrivate {
		filter["is_public"] = true
	}
	if q.BookID != "" {
		filter["book_id"] = q.BookID
	}
	if q.UserID != "" {
		filter["user_id"] = q.UserID
	}

	total, err := s.reviews.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("mongo adapter: count reviews: %w", err)
	}

	opts := options.Find().SetSort(reviewSort(q.Sort)).SetSkip(int64(q.Offset))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	reviews, err := s.findReviews(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return reviews, int(total), nil
}

func reviewSort(sort domain.ReviewSort) bson.D {
	switch sort {
	case domain.SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortHighest:
		return bson.D{{Key: "rating", Value: -1}, {Key: "created_at", Value: -1}}
	case domain.SortLowest:
		return bson.D{{Key: "rating", Value: 1}, {Key: "created_at", Value: -1}}
	case domain.SortMostLiked:
		return bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// ToggleLike adds the like when absent and removes it otherwise. Each branch
// is a single conditional update, so the array and the count move together.
func (s *Store) ToggleLike(ctx context.Context, reviewID, userID string) (bool, int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes_count": 1})
	var doc struct {
		LikesCount int `bson:"likes_count"`
	}

	err := s.reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": reviewID, "likes": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"likes": userID}, "$inc": bson.M{"likes_count": 1}},
		opts,
	).Decode(&doc)
	if err == nil {
		return true, doc.LikesCount, nil
	}
	if !errors.Is(err, driver.ErrNoDocuments) {
		return false, 0, fmt.Errorf("mongo adapter: like: %w", err)
	}

	err = s.reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": reviewID, "likes": userID},
		bson.M{"$pull": bson.M{"likes": userID}, "$inc": bson.M{"likes_count": -1}},
		opts,
	).Decode(&doc)
	if err == nil {
		return false, doc.LikesCount, nil
	}
	if errors.Is(err, driver.ErrNoDocuments) {
		return false, 0, fmt.Errorf("mongo adapter: review %s: %w", reviewID, domain.ErrNotFound)
	}
	return false, 0, fmt.Errorf("mongo adapter: unlike: %w", err)
}

// AddFlag pushes the flag unless the user already flagged the review, then
// marks the review flagged once it has hideAt flags.
func (s *Store) AddFlag(ctx context.Context, reviewID string, f domain.Flag, hideAt int) (domain.Review, error) {
	if f.FlaggedAt.IsZero() {
		f.FlaggedAt = s.now().UTC()
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out domain.Review
	err := s.reviews.FindOneAndUpdate(ctx,
		bson.M{"_id": reviewID, "flagged_by.user_id": bson.M{"$ne": f.UserID}},
		bson.M{"$push": bson.M{"flagged_by": f}},
		opts,
	).Decode(&out)
	if errors.Is(err, driver.ErrNoDocuments) {
		if _, getErr := s.GetReview(ctx, reviewID); getErr != nil {
			return domain.Review{}, getErr
		}
		return domain.Review{}, fmt.Errorf("mongo adapter: flag by %s: %w", f.UserID, domain.ErrConflict)
	}
	if err != nil {
		return domain.Review{}, fmt.Errorf("mongo adapter: flag review: %w", err)
	}

	if !out.Flagged && len(out.FlaggedBy) >= hideAt {
		if _, err := s.reviews.UpdateOne(ctx, bson.M{"_id": reviewID}, bson.M{"$set": bson.M{"flagged": true}}); err != nil {
			return domain.Review{}, fmt.Errorf("mongo adapter: update flagged: %w", err)
		}
		out.Flagged = true
	}
	normalizeReview(&out)
	return out, nil
}

func (s *Store) findReviews(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Review, error) {
	cur, err := s.reviews.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo adapter: query reviews: %w", err)
	}
	defer cur.Close(ctx)

	reviews := []domain.Review{}
	if err := cur.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("mongo adapter: decode reviews: %w", err)
	}
	for i := range reviews {
		normalizeReview(&reviews[i])
	}
	return reviews, nil
}

func normalizeReview(r *domain.Review) {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Likes == nil {
		r.Likes = []string{}
	}
	if r.FlaggedBy == nil {
		r.FlaggedBy = []domain.Flag{}
	}
}
