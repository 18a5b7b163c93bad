package googlebooks

import (
	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// normalizeVolume maps a catalog volume onto a Book. Missing optional fields
// become their placeholders; it never fails.
func normalizeVolume(v volume) domain.Book {
	info := v.VolumeInfo
	b := domain.Book{
		ExternalID:    v.ID,
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   info.Description,
		Categories:    info.Categories,
		PublishedDate: info.PublishedDate,
		PageCount:     info.PageCount,
		Language:      info.Language,
		ImageLinks: domain.ImageLinks{
			Thumbnail: info.ImageLinks.Thumbnail,
			Small:     info.ImageLinks.Small,
			Medium:    info.ImageLinks.Medium,
			Large:     info.ImageLinks.Large,
		},
		Publisher:     info.Publisher,
		AverageRating: info.AverageRating,
		RatingsCount:  info.RatingsCount,
	}

	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_10":
			b.ISBN.ISBN10 = id.Identifier
		case "ISBN_13":
			b.ISBN.ISBN13 = id.Identifier
		}
	}

	b.ApplyDefaults()
	return b
}
