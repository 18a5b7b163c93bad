package ports

import (
	"context"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// CatalogPage is one page of upstream volume results.
type CatalogPage struct {
	Books      []domain.Book
	TotalItems int
}

// BookCatalog is the external book metadata source.
type BookCatalog interface {
	GetVolume(ctx context.Context, id string) (domain.Book, error)
	SearchVolumes(ctx context.Context, query string, startIndex, maxResults int) (CatalogPage, error)
}
