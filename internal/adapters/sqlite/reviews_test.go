package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func seedReview(t *testing.T, a *Adapter, now *time.Time, userID string, rating float64, public bool) domain.Review {
	t.Helper()
	*now = now.Add(time.Minute)
	r, err := a.CreateReview(context.Background(), domain.Review{
		BookID:   "book-1",
		UserID:   userID,
		Rating:   rating,
		Text:     "review by " + userID,
		Tags:     []string{"epic"},
		IsPublic: public,
	})
	if err != nil {
		t.Fatalf("create review for %s: %v", userID, err)
	}
	return r
}

func TestAdapter_ReviewLifecycle(t *testing.T) {
	a, now := newTestAdapter(t)
	ctx := context.Background()

	r := seedReview(t, a, now, "alice", 4, true)
	if r.ID == "" || r.Rating != 4 || !r.IsPublic || r.Tags[0] != "epic" {
		t.Fatalf("created: %+v", r)
	}
	if !r.CreatedAt.Equal(*now) {
		t.Errorf("created_at: got %v, want %v", r.CreatedAt, *now)
	}

	_, err := a.CreateReview(ctx, domain.Review{BookID: "book-1", UserID: "alice", Rating: 2})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate review: got %v, want conflict", err)
	}

	r.Rating = 2
	r.Text = "changed my mind"
	r.IsPublic = false
	updated, err := a.UpdateReview(ctx, r)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Rating != 2 || updated.Text != "changed my mind" || updated.IsPublic {
		t.Fatalf("updated: %+v", updated)
	}

	if _, err := a.UpdateReview(ctx, domain.Review{ID: "missing", Rating: 3}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update missing: got %v", err)
	}

	if _, _, err := a.ToggleLike(ctx, r.ID, "bob"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := a.DeleteReview(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := a.GetReview(ctx, r.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get deleted: got %v", err)
	}
	if err := a.DeleteReview(ctx, r.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete twice: got %v", err)
	}

	// The user may review the book again once the old review is gone.
	if _, err := a.CreateReview(ctx, domain.Review{BookID: "book-1", UserID: "alice", Rating: 5}); err != nil {
		t.Fatalf("recreate: %v", err)
	}
}

func TestAdapter_ToggleLike(t *testing.T) {
	a, now := newTestAdapter(t)
	ctx := context.Background()
	r := seedReview(t, a, now, "alice", 4, true)

	steps := []struct {
		user      string
		wantLiked bool
		wantCount int
	}{
		{"bob", true, 1},
		{"carol", true, 2},
		{"bob", false, 1},
		{"bob", true, 2},
	}
	for _, s := range steps {
		liked, count, err := a.ToggleLike(ctx, r.ID, s.user)
		if err != nil {
			t.Fatalf("toggle %s: %v", s.user, err)
		}
		if liked != s.wantLiked || count != s.wantCount {
			t.Fatalf("toggle %s: got liked=%v count=%d, want %v %d", s.user, liked, count, s.wantLiked, s.wantCount)
		}
	}

	got, err := a.GetReview(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LikesCount != 2 || len(got.Likes) != 2 {
		t.Fatalf("likes: count=%d likes=%v", got.LikesCount, got.Likes)
	}

	if _, _, err := a.ToggleLike(ctx, "missing", "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("like missing: got %v", err)
	}
}

func TestAdapter_AddFlag(t *testing.T) {
	a, now := newTestAdapter(t)
	ctx := context.Background()
	r := seedReview(t, a, now, "alice", 1, true)

	for i, user := range []string{"bob", "carol", "dave"} {
		got, err := a.AddFlag(ctx, r.ID, domain.Flag{UserID: user, Reason: "spam"}, domain.FlagsToHide)
		if err != nil {
			t.Fatalf("flag by %s: %v", user, err)
		}
		if len(got.FlaggedBy) != i+1 {
			t.Fatalf("flags: got %d, want %d", len(got.FlaggedBy), i+1)
		}
		wantFlagged := i+1 >= domain.FlagsToHide
		if got.Flagged != wantFlagged {
			t.Fatalf("after %d flags: flagged=%v, want %v", i+1, got.Flagged, wantFlagged)
		}
	}

	if _, err := a.AddFlag(ctx, r.ID, domain.Flag{UserID: "bob", Reason: "again"}, domain.FlagsToHide); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("repeat flag: got %v, want conflict", err)
	}
	if _, err := a.AddFlag(ctx, "missing", domain.Flag{UserID: "bob", Reason: "spam"}, domain.FlagsToHide); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("flag missing: got %v", err)
	}

	all, err := a.ReviewsForBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("reviews for book: %v", err)
	}
	if len(all) != 1 || !all[0].Flagged {
		t.Fatalf("ReviewsForBook must include flagged reviews: %+v", all)
	}
}

func TestAdapter_ListReviews(t *testing.T) {
	a, now := newTestAdapter(t)
	ctx := context.Background()

	alice := seedReview(t, a, now, "alice", 3, true)
	bob := seedReview(t, a, now, "bob", 5, true)
	carol := seedReview(t, a, now, "carol", 1, true)
	dave := seedReview(t, a, now, "dave", 4, false)
	for _, u := range []string{"x", "y", "z"} {
		if _, err := a.AddFlag(ctx, carol.ID, domain.Flag{UserID: u, Reason: "rude"}, domain.FlagsToHide); err != nil {
			t.Fatalf("flag: %v", err)
		}
	}
	if _, _, err := a.ToggleLike(ctx, alice.ID, "bob"); err != nil {
		t.Fatalf("like: %v", err)
	}

	tests := []struct {
		name      string
		query     domain.ReviewQuery
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "newest public first",
			query:     domain.ReviewQuery{BookID: "book-1", Sort: domain.SortNewest, Limit: 10},
			wantIDs:   []string{bob.ID, alice.ID},
			wantTotal: 2,
		},
		{
			name:      "oldest",
			query:     domain.ReviewQuery{BookID: "book-1", Sort: domain.SortOldest, Limit: 10},
			wantIDs:   []string{alice.ID, bob.ID},
			wantTotal: 2,
		},
		{
			name:      "lowest",
			query:     domain.ReviewQuery{BookID: "book-1", Sort: domain.SortLowest, Limit: 10},
			wantIDs:   []string{alice.ID, bob.ID},
			wantTotal: 2,
		},
		{
			name:      "most liked",
			query:     domain.ReviewQuery{BookID: "book-1", Sort: domain.SortMostLiked, Limit: 10},
			wantIDs:   []string{alice.ID, bob.ID},
			wantTotal: 2,
		},
		{
			name:      "paged",
			query:     domain.ReviewQuery{BookID: "book-1", Sort: domain.SortHighest, Offset: 1, Limit: 1},
			wantIDs:   []string{alice.ID},
			wantTotal: 2,
		},
		{
			name:      "private included for owner",
			query:     domain.ReviewQuery{UserID: "dave", IncludePrivate: true, Limit: 10},
			wantIDs:   []string{dave.ID},
			wantTotal: 1,
		},
		{
			name:      "private hidden",
			query:     domain.ReviewQuery{UserID: "dave", Limit: 10},
			wantIDs:   []string{},
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := a.ListReviews(ctx, tt.query)
			if err != nil {
				t.Fatalf("ListReviews: %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total: got %d, want %d", total, tt.wantTotal)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("len: got %d, want %d", len(got), len(tt.wantIDs))
			}
			for i := range got {
				if got[i].ID != tt.wantIDs[i] {
					t.Fatalf("order[%d]: got %s, want %s", i, got[i].ID, tt.wantIDs[i])
				}
			}
		})
	}
}
