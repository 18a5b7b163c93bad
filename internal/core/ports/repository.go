package ports

import (
	"context"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// BookRepository persists books and their embedded music vibes.
type BookRepository interface {
	// GetByID looks a book up by store id or, failing that, external id.
	GetByID(ctx context.Context, id string) (domain.Book, error)
	GetByExternalID(ctx context.Context, externalID string) (domain.Book, error)
	// UpsertCatalog inserts the book or refreshes only its catalog fields,
	// returning the stored record.
	UpsertCatalog(ctx context.Context, b domain.Book) (domain.Book, error)
	AppendVibe(ctx context.Context, bookID string, v domain.MusicVibe) error
	// IncrementVibeVotes atomically adds delta and returns the new total.
	IncrementVibeVotes(ctx context.Context, vibeID string, delta int) (int, error)
	PopularVibes(ctx context.Context, limit int) ([]domain.PopularVibe, error)
	UpdateRatings(ctx context.Context, bookID string, rating domain.AppRating, trending domain.Trending) error
	Trending(ctx context.Context, limit int) ([]domain.Book, error)
	ByCategory(ctx context.Context, category string, offset, limit int) ([]domain.Book, error)
}

// ReviewRepository persists reviews, likes and flags.
type ReviewRepository interface {
	// CreateReview fails with domain.ErrConflict when the user already
	// reviewed the book.
	CreateReview(ctx context.Context, r domain.Review) (domain.Review, error)
	GetReview(ctx context.Context, id string) (domain.Review, error)
	UpdateReview(ctx context.Context, r domain.Review) (domain.Review, error)
	DeleteReview(ctx context.Context, id string) error
	// ReviewsForBook returns every review of a book, flagged and private included.
	ReviewsForBook(ctx context.Context, bookID string) ([]domain.Review, error)
	ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, int, error)
	// ToggleLike adds or removes the user's like and reports whether the
	// review is now liked along with the new like count.
	ToggleLike(ctx context.Context, reviewID, userID string) (bool, int, error)
	// AddFlag records a flag, marking the review flagged once it has hideAt
	// flags. A second flag from the same user fails with domain.ErrConflict.
	AddFlag(ctx context.Context, reviewID string, f domain.Flag, hideAt int) (domain.Review, error)
}
