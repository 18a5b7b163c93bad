package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

const reviewColumns = `id, book_id, user_id, rating, text, music_vibe_rating, music_vibe_comment,
	tags, is_public, likes_count, flagged, created_at, updated_at`

func scanReview(s scanner) (domain.Review, error) {
	var r domain.Review
	var tags string
	if err := s.Scan(
		&r.ID,
		&r.BookID,
		&r.UserID,
		&r.Rating,
		&r.Text,
		&r.MusicVibeRating,
		&r.MusicVibeComment,
		&tags,
		&r.IsPublic,
		&r.LikesCount,
		&r.Flagged,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return domain.Review{}, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return domain.Review{}, fmt.Errorf("decode tags: %w", err)
	}
	r.Likes = []string{}
	r.FlaggedBy = []domain.Flag{}
	return r, nil
}

func (a *Adapter) CreateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	if r.ID == "" {
		r.ID = a.newID()
	}
	now := a.now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	tags, err := encodeTags(r.Tags)
	if err != nil {
		return domain.Review{}, err
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO reviews (
			id, book_id, user_id, rating, text, music_vibe_rating, music_vibe_comment,
			tags, is_public, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.BookID,
		r.UserID,
		r.Rating,
		r.Text,
		r.MusicVibeRating,
		r.MusicVibeComment,
		tags,
		r.IsPublic,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Review{}, fmt.Errorf("sqlite adapter: review by %s for %s: %w", r.UserID, r.BookID, domain.ErrConflict)
		}
		return domain.Review{}, fmt.Errorf("sqlite adapter: create review: %w", err)
	}
	return a.GetReview(ctx, r.ID)
}

func (a *Adapter) GetReview(ctx context.Context, id string) (domain.Review, error) {
	r, err := scanReview(a.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Review{}, fmt.Errorf("sqlite adapter: review %s: %w", id, domain.ErrNotFound)
		}
		return domain.Review{}, fmt.Errorf("sqlite adapter: load review: %w", err)
	}
	reviews := []domain.Review{r}
	if err := a.hydrate(ctx, reviews); err != nil {
		return domain.Review{}, err
	}
	return reviews[0], nil
}

// UpdateReview writes the user-editable fields of r.
func (a *Adapter) UpdateReview(ctx context.Context, r domain.Review) (domain.Review, error) {
	tags, err := encodeTags(r.Tags)
	if err != nil {
		return domain.Review{}, err
	}
	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = a.now().UTC()
	}

	res, err := a.db.ExecContext(ctx, `
		UPDATE reviews
		SET
			rating = ?,
			text = ?,
			music_vibe_rating = ?,
			music_vibe_comment = ?,
			tags = ?,
			is_public = ?,
			updated_at = ?
		WHERE id = ?
	`,
		r.Rating,
		r.Text,
		r.MusicVibeRating,
		r.MusicVibeComment,
		tags,
		r.IsPublic,
		updatedAt,
		r.ID,
	)
	if err != nil {
		return domain.Review{}, fmt.Errorf("sqlite adapter: update review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Review{}, fmt.Errorf("sqlite adapter: review %s: %w", r.ID, domain.ErrNotFound)
	}
	return a.GetReview(ctx, r.ID)
}

func (a *Adapter) DeleteReview(ctx context.Context, id string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite adapter: begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM review_likes WHERE review_id = ?",
		"DELETE FROM review_flags WHERE review_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("sqlite adapter: delete review children: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite adapter: delete review: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite adapter: review %s: %w", id, domain.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite adapter: transaction commit failed: %w", err)
	}
	return nil
}

func (a *Adapter) ReviewsForBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	return a.queryReviews(ctx,
		"SELECT "+reviewColumns+" FROM reviews WHERE book_id = ? ORDER BY created_at ASC",
		bookID)
}

// ListReviews pages through non-flagged reviews matching q.
func (a *Adapter) ListReviews(ctx context.Context, q domain.ReviewQuery) ([]domain.Review, int, error) {
	where := []string{"flagged = 0"}
	var args []any
	if !q.IncludePrivate {
		where = append(where, "is_public = 1")
	}
	if q.BookID != "" {
		where = append(where, "book_id = ?")
		args = append(args, q.BookID)
	}
	if q.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	clause := strings.Join(where, " AND ")

	var total int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews WHERE "+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite adapter: count reviews: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	query := "SELECT " + reviewColumns + " FROM reviews WHERE " + clause +
		" ORDER BY " + orderBy(q.Sort) + " LIMIT ? OFFSET ?"
	reviews, err := a.queryReviews(ctx, query, append(args, limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func orderBy(sort domain.ReviewSort) string {
	switch sort {
	case domain.SortOldest:
		return "created_at ASC, id ASC"
	case domain.SortHighest:
		return "rating DESC, created_at DESC"
	case domain.SortLowest:
		return "rating ASC, created_at DESC"
	case domain.SortMostLiked:
		return "likes_count DESC, created_at DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

// ToggleLike flips the user's like and recounts in one transaction.
func (a *Adapter) ToggleLike(ctx context.Context, reviewID, userID string) (bool, int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite adapter: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := reviewExists(ctx, tx, reviewID); err != nil {
		return false, 0, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM review_likes WHERE review_id = ? AND user_id = ?", reviewID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("sqlite adapter: unlike: %w", err)
	}
	liked := false
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO review_likes (review_id, user_id, created_at) VALUES (?, ?, ?)",
			reviewID, userID, a.now().UTC()); err != nil {
			return false, 0, fmt.Errorf("sqlite adapter: like: %w", err)
		}
		liked = true
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		UPDATE reviews
		SET likes_count = (SELECT COUNT(*) FROM review_likes WHERE review_id = ?)
		WHERE id = ?
		RETURNING likes_count
	`, reviewID, reviewID).Scan(&count); err != nil {
		return false, 0, fmt.Errorf("sqlite adapter: recount likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("sqlite adapter: transaction commit failed: %w", err)
	}
	return liked, count, nil
}

// AddFlag records a flag and marks the review flagged once it has hideAt flags.
func (a *Adapter) AddFlag(ctx context.Context, reviewID string, f domain.Flag, hideAt int) (domain.Review, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Review{}, fmt.Errorf("sqlite adapter: begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := reviewExists(ctx, tx, reviewID); err != nil {
		return domain.Review{}, err
	}

	flaggedAt := f.FlaggedAt
	if flaggedAt.IsZero() {
		flaggedAt = a.now().UTC()
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO review_flags (review_id, user_id, reason, flagged_at) VALUES (?, ?, ?, ?)",
		reviewID, f.UserID, f.Reason, flaggedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Review{}, fmt.Errorf("sqlite adapter: flag by %s: %w", f.UserID, domain.ErrConflict)
		}
		return domain.Review{}, fmt.Errorf("sqlite adapter: flag review: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE reviews
		SET flagged = CASE
			WHEN (SELECT COUNT(*) FROM review_flags WHERE review_id = ?) >= ? THEN 1
			ELSE flagged
		END
		WHERE id = ?
	`, reviewID, hideAt, reviewID); err != nil {
		return domain.Review{}, fmt.Errorf("sqlite adapter: update flagged: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Review{}, fmt.Errorf("sqlite adapter: transaction commit failed: %w", err)
	}
	return a.GetReview(ctx, reviewID)
}

func reviewExists(ctx context.Context, tx *sql.Tx, id string) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM reviews WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite adapter: review %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sqlite adapter: load review: %w", err)
	}
	return nil
}

func (a *Adapter) queryReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite adapter: query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite adapter: scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite adapter: iterate reviews: %w", err)
	}
	// Release the connection before issuing the follow-up queries.
	rows.Close()

	if err := a.hydrate(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// hydrate loads likes and flags for every review in two queries.
func (a *Adapter) hydrate(ctx context.Context, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	index := make(map[string]int, len(reviews))
	args := make([]any, 0, len(reviews))
	for i, r := range reviews {
		index[r.ID] = i
		args = append(args, r.ID)
	}
	in := placeholders(len(args))

	likeRows, err := a.db.QueryContext(ctx,
		"SELECT review_id, user_id FROM review_likes WHERE review_id IN ("+in+") ORDER BY created_at ASC", args...)
	if err != nil {
		return fmt.Errorf("sqlite adapter: load likes: %w", err)
	}
	for likeRows.Next() {
		var reviewID, userID string
		if err := likeRows.Scan(&reviewID, &userID); err != nil {
			likeRows.Close()
			return fmt.Errorf("sqlite adapter: scan like: %w", err)
		}
		if i, ok := index[reviewID]; ok {
			reviews[i].Likes = append(reviews[i].Likes, userID)
		}
	}
	if err := likeRows.Err(); err != nil {
		likeRows.Close()
		return fmt.Errorf("sqlite adapter: iterate likes: %w", err)
	}
	likeRows.Close()

	flagRows, err := a.db.QueryContext(ctx,
		"SELECT review_id, user_id, reason, flagged_at FROM review_flags WHERE review_id IN ("+in+") ORDER BY flagged_at ASC", args...)
	if err != nil {
		return fmt.Errorf("sqlite adapter: load flags: %w", err)
	}
	defer flagRows.Close()
	for flagRows.Next() {
		var reviewID string
		var f domain.Flag
		if err := flagRows.Scan(&reviewID, &f.UserID, &f.Reason, &f.FlaggedAt); err != nil {
			return fmt.Errorf("sqlite adapter: scan flag: %w", err)
		}
		if i, ok := index[reviewID]; ok {
			reviews[i].FlaggedBy = append(reviews[i].FlaggedBy, f)
		}
	}
	if err := flagRows.Err(); err != nil {
		return fmt.Errorf("sqlite adapter: iterate flags: %w", err)
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("sqlite adapter: encode tags: %w", err)
	}
	return string(b), nil
}
