package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

// ReviewService manages reviews and keeps each book's app rating current.
type ReviewService struct {
	reviews ports.ReviewRepository
	books   ports.BookRepository
	now     func() time.Time
	newID   func() string
}

func NewReviewService(reviews ports.ReviewRepository, books ports.BookRepository) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		books:   books,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// ReviewInput carries the user-editable fields of a review. Nil pointers
// leave the field unchanged on update.
type ReviewInput struct {
	BookID           string
	Rating           *float64
	Text             *string
	MusicVibeRating  *float64
	MusicVibeComment *string
	Tags             []string
	IsPublic         *bool
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool `json:"isLiked"`
	LikesCount int  `json:"likesCount"`
}

func (s *ReviewService) CreateReview(ctx context.Context, userID string, in ReviewInput) (domain.Review, error) {
	if userID == "" {
		return domain.Review{}, domain.Invalid("user", "is required")
	}
	if strings.TrimSpace(in.BookID) == "" {
		return domain.Review{}, domain.Invalid("bookId", "is required")
	}
	if in.Rating == nil {
		return domain.Review{}, domain.Invalid("rating", "is required")
	}

	book, err := s.books.GetByID(ctx, in.BookID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("service: review book %s: %w", in.BookID, err)
	}

	now := s.now().UTC()
	r := domain.Review{
		ID:        s.newID(),
		BookID:    book.ID,
		UserID:    userID,
		IsPublic:  true,
		Likes:     []string{},
		FlaggedBy: []domain.Flag{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(&r, in)
	if err := r.Validate(); err != nil {
		return domain.Review{}, err
	}

	created, err := s.reviews.CreateReview(ctx, r)
	if err != nil {
		return domain.Review{}, fmt.Errorf("service: create review: %w", err)
	}
	s.refreshRating(ctx, book.ID)
	return created, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID string, in ReviewInput) (domain.Review, error) {
	r, err := s.owned(ctx, userID, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	apply(&r, in)
	r.UpdatedAt = s.now().UTC()
	if err := r.Validate(); err != nil {
		return domain.Review{}, err
	}

	updated, err := s.reviews.UpdateReview(ctx, r)
	if err != nil {
		return domain.Review{}, fmt.Errorf("service: update review: %w", err)
	}
	s.refreshRating(ctx, r.BookID)
	return updated, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	r, err := s.owned(ctx, userID, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("service: delete review: %w", err)
	}
	s.refreshRating(ctx, r.BookID)
	return nil
}

// ListBookReviews returns public, unflagged reviews of a book.
func (s *ReviewService) ListBookReviews(ctx context.Context, bookID, sort string, page, limit int) (domain.ReviewPage, error) {
	order, ok := domain.ParseReviewSort(sort)
	if !ok {
		return domain.ReviewPage{}, domain.Invalid("sort", "must be newest, oldest, highest, lowest or most_liked")
	}
	page, limit, err := pageBounds(page, limit, 10)
	if err != nil {
		return domain.ReviewPage{}, err
	}
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return domain.ReviewPage{}, fmt.Errorf("service: reviews of %s: %w", bookID, err)
	}
	return s.list(ctx, domain.ReviewQuery{BookID: book.ID, Sort: order}, page, limit)
}

// ListUserReviews returns a user's reviews, newest first. Private reviews
// are included only when the viewer is the author and asked for them.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID, viewerID string, includePrivate bool, page, limit int) (domain.ReviewPage, error) {
	if userID == "" {
		return domain.ReviewPage{}, domain.Invalid("userId", "is required")
	}
	page, limit, err := pageBounds(page, limit, 10)
	if err != nil {
		return domain.ReviewPage{}, err
	}
	q := domain.ReviewQuery{
		UserID:         userID,
		IncludePrivate: includePrivate && viewerID == userID,
		Sort:           domain.SortNewest,
	}
	return s.list(ctx, q, page, limit)
}

func (s *ReviewService) list(ctx context.Context, q domain.ReviewQuery, page, limit int) (domain.ReviewPage, error) {
	q.Offset = (page - 1) * limit
	q.Limit = limit
	reviews, total, err := s.reviews.ListReviews(ctx, q)
	if err != nil {
		return domain.ReviewPage{}, fmt.Errorf("service: list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return domain.ReviewPage{
		Reviews: reviews,
		Total:   total,
		Page:    page,
		Limit:   limit,
		Pages:   (total + limit - 1) / limit,
	}, nil
}

func (s *ReviewService) ToggleLike(ctx context.Context, userID, reviewID string) (LikeResult, error) {
	if userID == "" {
		return LikeResult{}, domain.Invalid("user", "is required")
	}
	r, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("service: like review: %w", err)
	}
	if !r.IsPublic {
		return LikeResult{}, fmt.Errorf("service: cannot like private review: %w", domain.ErrForbidden)
	}
	liked, count, err := s.reviews.ToggleLike(ctx, reviewID, userID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("service: like review: %w", err)
	}
	return LikeResult{Liked: liked, LikesCount: count}, nil
}

// FlagReview records a user's report and returns the review's flag count.
func (s *ReviewService) FlagReview(ctx context.Context, userID, reviewID, reason string) (int, error) {
	if userID == "" {
		return 0, domain.Invalid("user", "is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return 0, domain.Invalid("reason", "is required")
	}
	if len(reason) > domain.MaxFlagReason {
		return 0, domain.Invalid("reason", "cannot exceed 200 characters")
	}

	r, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return 0, fmt.Errorf("service: flag review: %w", err)
	}
	if r.HasFlagFrom(userID) {
		return 0, fmt.Errorf("service: already flagged: %w", domain.ErrConflict)
	}

	updated, err := s.reviews.AddFlag(ctx, reviewID, domain.Flag{
		UserID:    userID,
		Reason:    reason,
		FlaggedAt: s.now().UTC(),
	}, domain.FlagsToHide)
	if err != nil {
		return 0, fmt.Errorf("service: flag review: %w", err)
	}
	if updated.Flagged && !r.Flagged {
		s.refreshRating(ctx, r.BookID)
	}
	return len(updated.FlaggedBy), nil
}

func (s *ReviewService) owned(ctx context.Context, userID, reviewID string) (domain.Review, error) {
	if userID == "" {
		return domain.Review{}, domain.Invalid("user", "is required")
	}
	r, err := s.reviews.GetReview(ctx, reviewID)
	if err != nil {
		return domain.Review{}, fmt.Errorf("service: review %s: %w", reviewID, err)
	}
	if r.UserID != userID {
		return domain.Review{}, fmt.Errorf("service: review %s belongs to another user: %w", reviewID, domain.ErrForbidden)
	}
	return r, nil
}

// refreshRating recomputes the book's app rating and trending score.
// Failures are logged; the review mutation has already succeeded.
func (s *ReviewService) refreshRating(ctx context.Context, bookID string) {
	logger := logging.With("reviews")
	all, err := s.reviews.ReviewsForBook(ctx, bookID)
	if err != nil {
		logger.Error().Err(err).Str("book", bookID).Msg("load reviews for rating")
		return
	}
	rating, trending := domain.RatingSummary(all, s.now().UTC())
	if err := s.books.UpdateRatings(ctx, bookID, rating, trending); err != nil {
		logger.Error().Err(err).Str("book", bookID).Msg("update book rating")
	}
}

func apply(r *domain.Review, in ReviewInput) {
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	if in.Text != nil {
		r.Text = *in.Text
	}
	if in.MusicVibeRating != nil {
		r.MusicVibeRating = *in.MusicVibeRating
	}
	if in.MusicVibeComment != nil {
		r.MusicVibeComment = *in.MusicVibeComment
	}
	if in.Tags != nil {
		r.Tags = domain.CleanTags(in.Tags)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if in.IsPublic != nil {
		r.IsPublic = *in.IsPublic
	}
}
