package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

func TestOrchestrator_SearchBooks(t *testing.T) {
	stored := domain.Book{ID: "b1", ExternalID: "v1", Title: "Old", AppRating: domain.AppRating{Average: 4.5, Count: 2}}
	catalog := &mockCatalog{search: ports.CatalogPage{
		TotalItems: 2,
		Books: []domain.Book{
			{ExternalID: "v1", Title: "Fresh"},
			{ExternalID: "v2"},
		},
	}}
	refresher := &recordingRefresher{}
	o := NewOrchestrator(catalog, newMemBooks(stored), &mockMusic{}, &stubClassifier{}, WithRefresher(refresher))

	page, err := o.SearchBooks(context.Background(), "dune", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Books, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 2, page.TotalItems)

	assert.Equal(t, "b1", page.Books[0].ID, "known books keep their store id")
	assert.Equal(t, "Fresh", page.Books[0].Title)
	assert.Equal(t, 2, page.Books[0].AppRating.Count)
	assert.Equal(t, "Unknown Title", page.Books[1].Title)
	assert.Len(t, refresher.books, 2)
}

func TestOrchestrator_SearchBooksValidation(t *testing.T) {
	o := NewOrchestrator(&mockCatalog{}, nil, &mockMusic{}, &stubClassifier{})
	for _, tc := range []struct {
		q           string
		page, limit int
	}{
		{"a", 1, 10},
		{"dune", 101, 10},
		{"dune", 1, 21},
	} {
		_, err := o.SearchBooks(context.Background(), tc.q, tc.page, tc.limit)
		assert.ErrorIs(t, err, domain.ErrValidationFailed, "%+v", tc)
	}
}

func TestOrchestrator_TrendingBooksTopUp(t *testing.T) {
	stored := domain.Book{ID: "b1", ExternalID: "v1", Title: "Stored", Trending: domain.Trending{Score: 10}}
	catalog := &mockCatalog{search: ports.CatalogPage{Books: []domain.Book{
		{ExternalID: "v1", Title: "Duplicate"},
		{ExternalID: "v2", Title: "Bestseller"},
	}}}
	o := NewOrchestrator(catalog, newMemBooks(stored), &mockMusic{}, &stubClassifier{})

	books, err := o.TrendingBooks(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Stored", books[0].Title)
	assert.Equal(t, "Bestseller", books[1].Title)
	assert.Equal(t, []string{trendingTopUpQuery}, catalog.queries)
}

func TestOrchestrator_TrendingBooksCatalogDown(t *testing.T) {
	stored := domain.Book{ID: "b1", ExternalID: "v1"}
	o := NewOrchestrator(&mockCatalog{searchErr: domain.ErrUpstreamUnavailable}, newMemBooks(stored), &mockMusic{}, &stubClassifier{})
	books, err := o.TrendingBooks(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	o = NewOrchestrator(&mockCatalog{searchErr: domain.ErrUpstreamUnavailable}, nil, &mockMusic{}, &stubClassifier{})
	_, err = o.TrendingBooks(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestOrchestrator_BooksByCategory(t *testing.T) {
	stored := domain.Book{ID: "b1", ExternalID: "v1", Categories: []string{"Science Fiction"}}
	catalog := &mockCatalog{search: ports.CatalogPage{Books: []domain.Book{{ExternalID: "v9", Title: "Extra"}}}}
	o := NewOrchestrator(catalog, newMemBooks(stored), &mockMusic{}, &stubClassifier{})

	page, err := o.BooksByCategory(context.Background(), "fiction", 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Books, 2)
	assert.Equal(t, []string{"subject:fiction"}, catalog.queries)

	catalog.queries = nil
	_, err = o.BooksByCategory(context.Background(), "fiction", 2, 5)
	require.NoError(t, err)
	assert.Empty(t, catalog.queries, "only the first page is topped up")
}

func TestOrchestrator_SearchMusic(t *testing.T) {
	music := &mockMusic{
		defaultTracks: []domain.Track{{ID: "a"}, {ID: "a"}, {ID: "b"}},
	}
	o := NewOrchestrator(&mockCatalog{}, nil, music, &stubClassifier{})

	res, err := o.SearchMusic(context.Background(), "lofi", "", 0)
	require.NoError(t, err)
	assert.Equal(t, SearchTypeTrack, res.Type)
	assert.Len(t, res.Tracks, 2)

	res, err = o.SearchMusic(context.Background(), "lofi", SearchTypePlaylist, 5)
	require.NoError(t, err)
	assert.NotNil(t, res.Playlists)

	_, err = o.SearchMusic(context.Background(), "lofi", "artist", 5)
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestOrchestrator_MatchTrack(t *testing.T) {
	music := &mockMusic{match: domain.Track{ID: "t1", Name: "Clair de Lune"}}
	o := NewOrchestrator(&mockCatalog{}, nil, music, &stubClassifier{})

	got, err := o.MatchTrack(context.Background(), "Debussy - Clair de Lune")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)

	_, err = o.MatchTrack(context.Background(), "no separator")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	music.matchErr = ports.NoConfidentMatchError{Title: "x", Artist: "y"}
	_, err = o.MatchTrack(context.Background(), "y - x")
	assert.ErrorIs(t, err, ports.ErrNoConfidentMatch)
}
