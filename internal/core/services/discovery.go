package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

const trendingTopUpQuery = "fiction bestseller"

// SearchBooks searches the catalog. Results are queued for background
// persistence and overlaid with any app-local fields already stored.
func (o *Orchestrator) SearchBooks(ctx context.Context, query string, page, limit int) (domain.BookPage, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 || len(query) > 100 {
		return domain.BookPage{}, domain.Invalid("q", "must be between 2 and 100 characters")
	}
	page, limit, err := pageBounds(page, limit, 10)
	if err != nil {
		return domain.BookPage{}, err
	}

	res, err := o.catalog.SearchVolumes(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return domain.BookPage{}, fmt.Errorf("service: search books: %w", err)
	}

	books := make([]domain.Book, 0, len(res.Books))
	for _, b := range res.Books {
		b.ApplyDefaults()
		books = append(books, o.overlayStored(ctx, b))
	}
	return domain.BookPage{Books: books, TotalItems: res.TotalItems, Page: page, Limit: limit}, nil
}

// TrendingBooks orders stored books by trending score and tops the list up
// from the catalog when the store holds too few.
func (o *Orchestrator) TrendingBooks(ctx context.Context, limit int) ([]domain.Book, error) {
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > 50 {
		return nil, domain.Invalid("limit", "must be between 1 and 50")
	}

	var books []domain.Book
	if o.books != nil {
		stored, err := o.books.Trending(ctx, limit)
		if err != nil {
			logging.With("orchestrator").Warn().Err(err).Msg("trending lookup failed")
		} else {
			books = stored
		}
	}
	if len(books) >= limit {
		return books, nil
	}

	extra, err := o.topUp(ctx, trendingTopUpQuery, books, limit-len(books))
	if err != nil {
		if len(books) > 0 {
			return books, nil
		}
		return nil, fmt.Errorf("service: trending books: %w", err)
	}
	return append(books, extra...), nil
}

// BooksByCategory lists stored books whose categories contain category. The
// first page is topped up from a catalog subject search when short.
func (o *Orchestrator) BooksByCategory(ctx context.Context, category string, page, limit int) (domain.BookPage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return domain.BookPage{}, domain.Invalid("category", "is required")
	}
	page, limit, err := pageBounds(page, limit, 10)
	if err != nil {
		return domain.BookPage{}, err
	}

	var books []domain.Book
	if o.books != nil {
		stored, err := o.books.ByCategory(ctx, category, (page-1)*limit, limit)
		if err != nil {
			logging.With("orchestrator").Warn().Err(err).Str("category", category).Msg("category lookup failed")
		} else {
			books = stored
		}
	}

	if len(books) < limit && page == 1 {
		extra, err := o.topUp(ctx, "subject:"+category, books, limit-len(books))
		if err != nil && len(books) == 0 {
			return domain.BookPage{}, fmt.Errorf("service: books by category: %w", err)
		}
		books = append(books, extra...)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return domain.BookPage{Books: books, TotalItems: len(books), Page: page, Limit: limit}, nil
}

// topUp fetches up to n catalog books for query that are not already in have.
func (o *Orchestrator) topUp(ctx context.Context, query string, have []domain.Book, n int) ([]domain.Book, error) {
	res, err := o.catalog.SearchVolumes(ctx, query, 0, n)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(have))
	for _, b := range have {
		seen[b.ExternalID] = struct{}{}
	}
	out := make([]domain.Book, 0, n)
	for _, b := range res.Books {
		if _, dup := seen[b.ExternalID]; dup {
			continue
		}
		seen[b.ExternalID] = struct{}{}
		b.ApplyDefaults()
		out = append(out, o.overlayStored(ctx, b))
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// overlayStored queues b for persistence and returns it with the stored
// identity and app-local fields when the book is already known.
func (o *Orchestrator) overlayStored(ctx context.Context, b domain.Book) domain.Book {
	if o.refresher != nil {
		o.refresher.Submit(b)
	}
	if o.books == nil || b.ExternalID == "" {
		return b
	}
	stored, err := o.books.GetByExternalID(ctx, b.ExternalID)
	if err != nil {
		return b
	}
	stored.MergeCatalog(b)
	return stored
}

func pageBounds(page, limit, defLimit int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defLimit
	}
	if page < 1 || page > 100 {
		return 0, 0, domain.Invalid("page", "must be between 1 and 100")
	}
	if limit < 1 || limit > 20 {
		return 0, 0, domain.Invalid("limit", "must be between 1 and 20")
	}
	return page, limit, nil
}
