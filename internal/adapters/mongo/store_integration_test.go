package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func connectTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("Skipping mongo integration test: set MONGO_URI to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	database := "shelfsound_test_" + uuid.NewString()[:8]
	s, err := Connect(ctx, uri, database)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_ = s.client.Database(database).Drop(ctx)
		_ = s.Close(ctx)
	})

	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return s
}

func TestStore_BooksIntegration(t *testing.T) {
	s := connectTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertCatalog(ctx, domain.Book{
		ExternalID: "B1F2",
		Title:      "Dune",
		Authors:    []string{"Frank Herbert"},
		Categories: []string{"Science Fiction"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	require.NoError(t, s.AppendVibe(ctx, first.ID, domain.MusicVibe{ID: "v1", Mood: domain.MoodFocused, Energy: domain.EnergyMedium}))
	votes, err := s.IncrementVibeVotes(ctx, "v1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	second, err := s.UpsertCatalog(ctx, domain.Book{ExternalID: "B1F2", Title: "Dune (Deluxe)"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dune (Deluxe)", second.Title)
	require.Len(t, second.MusicVibes, 1)
	assert.Equal(t, 1, second.MusicVibes[0].Votes)

	byExternal, err := s.GetByID(ctx, "B1F2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byExternal.ID)

	books, err := s.ByCategory(ctx, "science", 0, 10)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	_, err = s.IncrementVibeVotes(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReviewsIntegration(t *testing.T) {
	s := connectTestStore(t)
	ctx := context.Background()

	r, err := s.CreateReview(ctx, domain.Review{BookID: "book-1", UserID: "alice", Rating: 4, IsPublic: true})
	require.NoError(t, err)

	_, err = s.CreateReview(ctx, domain.Review{BookID: "book-1", UserID: "alice", Rating: 2})
	assert.ErrorIs(t, err, domain.ErrConflict)

	liked, count, err := s.ToggleLike(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = s.ToggleLike(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	for _, user := range []string{"u1", "u2", "u3"} {
		_, err := s.AddFlag(ctx, r.ID, domain.Flag{UserID: user, Reason: "spam"}, domain.FlagsToHide)
		require.NoError(t, err)
	}
	_, err = s.AddFlag(ctx, r.ID, domain.Flag{UserID: "u1"}, domain.FlagsToHide)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.GetReview(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Flagged)

	listed, total, err := s.ListReviews(ctx, domain.ReviewQuery{BookID: "book-1"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listed)

	require.NoError(t, s.DeleteReview(ctx, r.ID))
	assert.ErrorIs(t, s.DeleteReview(ctx, r.ID), domain.ErrNotFound)
}
