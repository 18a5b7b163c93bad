package domain

import (
	"strings"
	"time"
)

const defaultLanguage = "en"

// ImageLinks holds cover image URLs by size. All URLs are https.
type ImageLinks struct {
	Thumbnail string `json:"thumbnail" bson:"thumbnail"`
	Small     string `json:"small" bson:"small"`
	Medium    string `json:"medium" bson:"medium"`
	Large     string `json:"large" bson:"large"`
}

// ISBN holds the industry identifiers of a volume.
type ISBN struct {
	ISBN10 string `json:"isbn10" bson:"isbn10"`
	ISBN13 string `json:"isbn13" bson:"isbn13"`
}

// AppRating aggregates non-flagged review ratings.
type AppRating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

// Trending carries the activity score used to order trending books.
type Trending struct {
	Score       float64   `json:"score" bson:"score"`
	LastUpdated time.Time `json:"lastUpdated" bson:"last_updated"`
}

// Book is the normalized book record. Catalog fields are refreshed from the
// upstream catalog; AppRating, MusicVibes and Trending are app-local and
// must survive every refresh.
type Book struct {
	ID            string      `json:"id" bson:"_id,omitempty"`
	ExternalID    string      `json:"googleBooksId" bson:"external_id"`
	Title         string      `json:"title" bson:"title"`
	Authors       []string    `json:"authors" bson:"authors"`
	Description   string      `json:"description" bson:"description"`
	Categories    []string    `json:"categories" bson:"categories"`
	PublishedDate string      `json:"publishedDate" bson:"published_date"`
	PageCount     int         `json:"pageCount" bson:"page_count"`
	Language      string      `json:"language" bson:"language"`
	ImageLinks    ImageLinks  `json:"imageLinks" bson:"image_links"`
	ISBN          ISBN        `json:"isbn" bson:"isbn"`
	Publisher     string      `json:"publisher" bson:"publisher"`
	AverageRating float64     `json:"averageRating" bson:"average_rating"`
	RatingsCount  int         `json:"ratingsCount" bson:"ratings_count"`
	AppRating     AppRating   `json:"appRating" bson:"app_rating"`
	MusicVibes    []MusicVibe `json:"musicVibes" bson:"music_vibes"`
	Trending      Trending    `json:"trending" bson:"trending"`
	CreatedAt     time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" bson:"updated_at"`
}

// Persisted reports whether the record came from the store rather than
// straight from the catalog.
func (b Book) Persisted() bool {
	return b.ID != ""
}

// DisplayRating prefers the app rating once anyone has reviewed the book.
func (b Book) DisplayRating() float64 {
	if b.AppRating.Count > 0 {
		return b.AppRating.Average
	}
	return b.AverageRating
}

// DisplayRatingCount mirrors DisplayRating for the count.
func (b Book) DisplayRatingCount() int {
	if b.AppRating.Count > 0 {
		return b.AppRating.Count
	}
	return b.RatingsCount
}

// PrimaryGenre is the first category, or "general".
func (b Book) PrimaryGenre() string {
	for _, c := range b.Categories {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return "general"
}

// VibesMatching returns the cached vibes with the given mood and energy.
func (b Book) VibesMatching(mood Mood, energy Energy) []MusicVibe {
	var out []MusicVibe
	for _, v := range b.MusicVibes {
		if v.Mood == mood && v.Energy == energy {
			out = append(out, v)
		}
	}
	return out
}

// MergeCatalog copies catalog fields from fresh onto b, leaving the identity
// and app-local fields untouched.
func (b *Book) MergeCatalog(fresh Book) {
	b.Title = fresh.Title
	b.Authors = fresh.Authors
	b.Description = fresh.Description
	b.Categories = fresh.Categories
	b.PublishedDate = fresh.PublishedDate
	b.PageCount = fresh.PageCount
	b.Language = fresh.Language
	b.ImageLinks = fresh.ImageLinks
	b.ISBN = fresh.ISBN
	b.Publisher = fresh.Publisher
	b.AverageRating = fresh.AverageRating
	b.RatingsCount = fresh.RatingsCount
	if b.ExternalID == "" {
		b.ExternalID = fresh.ExternalID
	}
}

// ApplyDefaults fills every absent catalog field with its placeholder.
func (b *Book) ApplyDefaults() {
	if strings.TrimSpace(b.Title) == "" {
		b.Title = "Unknown Title"
	}
	if len(b.Authors) == 0 {
		b.Authors = []string{"Unknown Author"}
	}
	if b.Categories == nil {
		b.Categories = []string{}
	}
	if b.Language == "" {
		b.Language = defaultLanguage
	}
	if b.MusicVibes == nil {
		b.MusicVibes = []MusicVibe{}
	}
	b.ImageLinks = ImageLinks{
		Thumbnail: SecureURL(b.ImageLinks.Thumbnail),
		Small:     SecureURL(b.ImageLinks.Small),
		Medium:    SecureURL(b.ImageLinks.Medium),
		Large:     SecureURL(b.ImageLinks.Large),
	}
}

// SecureURL upgrades an http:// URL to https://.
func SecureURL(raw string) string {
	if strings.HasPrefix(raw, "http://") {
		return "https://" + strings.TrimPrefix(raw, "http://")
	}
	return raw
}
