package domain

import (
	"math"
	"strings"
	"time"
)

const (
	MaxReviewText  = 1000
	MaxVibeComment = 500
	MaxTags        = 10
	MaxTagLength   = 30
	MaxFlagReason  = 200
	FlagsToHide    = 3
	trendingWindow = 7 * 24 * time.Hour
)

// Flag records one user's report against a review.
type Flag struct {
	UserID    string    `json:"user" bson:"user_id"`
	Reason    string    `json:"reason" bson:"reason"`
	FlaggedAt time.Time `json:"flaggedAt" bson:"flagged_at"`
}

// Review is a user's rating of a book.
type Review struct {
	ID               string    `json:"id" bson:"_id"`
	BookID           string    `json:"book" bson:"book_id"`
	UserID           string    `json:"user" bson:"user_id"`
	Rating           float64   `json:"rating" bson:"rating"`
	Text             string    `json:"review" bson:"text"`
	MusicVibeRating  float64   `json:"musicVibeRating,omitempty" bson:"music_vibe_rating"`
	MusicVibeComment string    `json:"musicVibeComment,omitempty" bson:"music_vibe_comment"`
	Tags             []string  `json:"tags" bson:"tags"`
	IsPublic         bool      `json:"isPublic" bson:"is_public"`
	Likes            []string  `json:"likes" bson:"likes"`
	LikesCount       int       `json:"likesCount" bson:"likes_count"`
	Flagged          bool      `json:"flagged" bson:"flagged"`
	FlaggedBy        []Flag    `json:"flaggedBy" bson:"flagged_by"`
	CreatedAt        time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updated_at"`
}

// Validate checks the user-editable fields.
func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return Invalid("rating", "must be between 1 and 5")
	}
	if len(r.Text) > MaxReviewText {
		return Invalid("review", "cannot exceed 1000 characters")
	}
	if r.MusicVibeRating != 0 && (r.MusicVibeRating < 1 || r.MusicVibeRating > 5) {
		return Invalid("musicVibeRating", "must be between 1 and 5")
	}
	if len(r.MusicVibeComment) > MaxVibeComment {
		return Invalid("musicVibeComment", "cannot exceed 500 characters")
	}
	for _, tag := range r.Tags {
		if len(tag) > MaxTagLength {
			return Invalid("tags", "each tag cannot exceed 30 characters")
		}
	}
	return nil
}

// CleanTags trims tags, drops blanks and keeps at most MaxTags.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// HasFlagFrom reports whether userID already flagged the review.
func (r Review) HasFlagFrom(userID string) bool {
	for _, f := range r.FlaggedBy {
		if f.UserID == userID {
			return true
		}
	}
	return false
}

// RatingSummary computes the app rating and trending score of a book from
// its reviews. Flagged reviews are ignored.
func RatingSummary(reviews []Review, now time.Time) (AppRating, Trending) {
	var sum float64
	var count, recent int
	for _, r := range reviews {
		if r.Flagged {
			continue
		}
		sum += r.Rating
		count++
		if now.Sub(r.CreatedAt) < trendingWindow {
			recent++
		}
	}
	if count == 0 {
		return AppRating{}, Trending{LastUpdated: now}
	}
	avg := sum / float64(count)
	rating := AppRating{Average: math.Round(avg*10) / 10, Count: count}
	score := avg*2 + float64(count)*0.5 + float64(recent)*2
	return rating, Trending{Score: score, LastUpdated: now}
}

// ReviewSort orders a book's reviews.
type ReviewSort string

const (
	SortNewest    ReviewSort = "newest"
	SortOldest    ReviewSort = "oldest"
	SortHighest   ReviewSort = "highest"
	SortLowest    ReviewSort = "lowest"
	SortMostLiked ReviewSort = "most_liked"
)

// ParseReviewSort defaults to newest for an empty value.
func ParseReviewSort(raw string) (ReviewSort, bool) {
	switch s := ReviewSort(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortNewest, true
	case SortNewest, SortOldest, SortHighest, SortLowest, SortMostLiked:
		return s, true
	default:
		return "", false
	}
}

// ReviewQuery selects a page of reviews. Listing queries never return
// flagged reviews; private ones are included only with IncludePrivate.
type ReviewQuery struct {
	BookID         string
	UserID         string
	IncludePrivate bool
	Sort           ReviewSort
	Offset         int
	Limit          int
}

// ReviewPage is one page of reviews.
type ReviewPage struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	Pages   int      `json:"pages"`
}
