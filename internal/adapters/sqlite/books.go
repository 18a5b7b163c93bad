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

const bookColumns = `id, external_id, title, authors, description, categories, published_date,
	page_count, language, image_links, isbn10, isbn13, publisher, average_rating, ratings_count,
	app_rating_average, app_rating_count, trending_score, trending_updated_at, created_at, updated_at`

func scanBook(s scanner) (domain.Book, error) {
	var b domain.Book
	var authors, categories, images string
	if err := s.Scan(
		&b.ID,
		&b.ExternalID,
		&b.Title,
		&authors,
		&b.Description,
		&categories,
		&b.PublishedDate,
		&b.PageCount,
		&b.Language,
		&images,
		&b.ISBN.ISBN10,
		&b.ISBN.ISBN13,
		&b.Publisher,
		&b.AverageRating,
		&b.RatingsCount,
		&b.AppRating.Average,
		&b.AppRating.Count,
		&b.Trending.Score,
		&b.Trending.LastUpdated,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return domain.Book{}, err
	}
	if err := json.Unmarshal([]byte(authors), &b.Authors); err != nil {
		return domain.Book{}, fmt.Errorf("decode authors: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &b.Categories); err != nil {
		return domain.Book{}, fmt.Errorf("decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &b.ImageLinks); err != nil {
		return domain.Book{}, fmt.Errorf("decode image links: %w", err)
	}
	b.MusicVibes = []domain.MusicVibe{}
	return b, nil
}

// GetByID looks a book up by store id, then by external id.
func (a *Adapter) GetByID(ctx context.Context, id string) (domain.Book, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id = ? OR external_id = ? ORDER BY id = ? DESC LIMIT 1",
		id, id, id)
	return a.loadBook(ctx, row)
}

func (a *Adapter) GetByExternalID(ctx context.Context, externalID string) (domain.Book, error) {
	row := a.db.QueryRowContext(ctx, "SELECT "+bookColumns+" FROM books WHERE external_id = ?", externalID)
	return a.loadBook(ctx, row)
}

func (a *Adapter) loadBook(ctx context.Context, row *sql.Row) (domain.Book, error) {
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Book{}, domain.ErrNotFound
		}
		return domain.Book{}, fmt.Errorf("sqlite adapter: load book: %w", err)
	}
	books := []domain.Book{b}
	if err := a.attachVibes(ctx, books); err != nil {
		return domain.Book{}, err
	}
	return books[0], nil
}

// UpsertCatalog inserts the book or refreshes its catalog columns. App-local
// columns are only written on insert.
func (a *Adapter) UpsertCatalog(ctx context.Context, b domain.Book) (domain.Book, error) {
	if b.ExternalID == "" {
		return domain.Book{}, domain.Invalid("externalId", "required")
	}
	b.ApplyDefaults()

	authors, err := json.Marshal(b.Authors)
	if err != nil {
		return domain.Book{}, fmt.Errorf("sqlite adapter: encode authors: %w", err)
	}
	categories, err := json.Marshal(b.Categories)
	if err != nil {
		return domain.Book{}, fmt.Errorf("sqlite adapter: encode categories: %w", err)
	}
	images, err := json.Marshal(b.ImageLinks)
	if err != nil {
		return domain.Book{}, fmt.Errorf("sqlite adapter: encode image links: %w", err)
	}

	now := a.now().UTC()
	query := `
		INSERT INTO books (
			id, external_id, title, authors, description, categories, published_date,
			page_count, language, image_links, isbn10, isbn13, publisher, average_rating,
			ratings_count, trending_updated_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			title=excluded.title,
			authors=excluded.authors,
			description=excluded.description,
			categories=excluded.categories,
			published_date=excluded.published_date,
			page_count=excluded.page_count,
			language=excluded.language,
			image_links=excluded.image_links,
			isbn10=excluded.isbn10,
			isbn13=excluded.isbn13,
			publisher=excluded.publisher,
			average_rating=excluded.average_rating,
			ratings_count=excluded.ratings_count,
			updated_at=excluded.updated_at
		RETURNING id
	`
	var id string
	if err := a.db.QueryRowContext(ctx, query,
		a.newID(),
		b.ExternalID,
		b.Title,
		string(authors),
		b.Description,
		string(categories),
		b.PublishedDate,
		b.PageCount,
		b.Language,
		string(images),
		b.ISBN.ISBN10,
		b.ISBN.ISBN13,
		b.Publisher,
		b.AverageRating,
		b.RatingsCount,
		now,
		now,
		now,
	).Scan(&id); err != nil {
		return domain.Book{}, fmt.Errorf("sqlite adapter: upsert book %s: %w", b.ExternalID, err)
	}

	return a.GetByID(ctx, id)
}

// AppendVibe adds a vibe to an existing book.
func (a *Adapter) AppendVibe(ctx context.Context, bookID string, v domain.MusicVibe) error {
	if v.ID == "" {
		v.ID = a.newID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = a.now().UTC()
	}
	res, err := a.db.ExecContext(ctx, `
		INSERT INTO music_vibes (
			id, book_id, genre, mood, energy, spotify_playlist_id, suggested_by, votes, reasoning, created_at
		)
		SELECT ?, id, ?, ?, ?, ?, ?, ?, ?, ? FROM books WHERE id = ?
	`,
		v.ID,
		v.Genre,
		string(v.Mood),
		string(v.Energy),
		v.SpotifyPlaylistID,
		v.SuggestedBy,
		v.Votes,
		v.Reasoning,
		v.CreatedAt,
		bookID,
	)
	if err != nil {
		return fmt.Errorf("sqlite adapter: append vibe: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite adapter: book %s: %w", bookID, domain.ErrNotFound)
	}
	return nil
}

// IncrementVibeVotes adds delta to the vibe's votes in a single statement.
func (a *Adapter) IncrementVibeVotes(ctx context.Context, vibeID string, delta int) (int, error) {
	var votes int
	err := a.db.QueryRowContext(ctx,
		"UPDATE music_vibes SET votes = votes + ? WHERE id = ? RETURNING votes",
		delta, vibeID,
	).Scan(&votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("sqlite adapter: vibe %s: %w", vibeID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("sqlite adapter: increment votes: %w", err)
	}
	return votes, nil
}

func (a *Adapter) PopularVibes(ctx context.Context, limit int) ([]domain.PopularVibe, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT v.id, v.genre, v.mood, v.energy, v.spotify_playlist_id, v.suggested_by, v.votes,
			v.reasoning, v.created_at, b.id, b.title, b.authors
		FROM music_vibes v
		JOIN books b ON b.id = v.book_id
		ORDER BY v.votes DESC, v.created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite adapter: popular vibes: %w", err)
	}
	defer rows.Close()

	out := []domain.PopularVibe{}
	for rows.Next() {
		var pv domain.PopularVibe
		var mood, energy, authors string
		if err := rows.Scan(
			&pv.ID,
			&pv.Genre,
			&mood,
			&energy,
			&pv.SpotifyPlaylistID,
			&pv.SuggestedBy,
			&pv.Votes,
			&pv.Reasoning,
			&pv.CreatedAt,
			&pv.BookID,
			&pv.BookTitle,
			&authors,
		); err != nil {
			return nil, fmt.Errorf("sqlite adapter: scan popular vibe: %w", err)
		}
		pv.Mood = domain.Mood(mood)
		pv.Energy = domain.Energy(energy)
		if err := json.Unmarshal([]byte(authors), &pv.BookAuthors); err != nil {
			return nil, fmt.Errorf("sqlite adapter: decode authors: %w", err)
		}
		out = append(out, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite adapter: iterate popular vibes: %w", err)
	}
	return out, nil
}

func (a *Adapter) UpdateRatings(ctx context.Context, bookID string, rating domain.AppRating, trending domain.Trending) error {
	res, err := a.db.ExecContext(ctx, `
		UPDATE books
		SET
			app_rating_average = ?,
			app_rating_count = ?,
			trending_score = ?,
			trending_updated_at = ?,
			updated_at = ?
		WHERE id = ?
	`,
		rating.Average,
		rating.Count,
		trending.Score,
		trending.LastUpdated.UTC(),
		a.now().UTC(),
		bookID,
	)
	if err != nil {
		return fmt.Errorf("sqlite adapter: update ratings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlite adapter: book %s: %w", bookID, domain.ErrNotFound)
	}
	return nil
}

func (a *Adapter) Trending(ctx context.Context, limit int) ([]domain.Book, error) {
	return a.queryBooks(ctx, `
		SELECT `+bookColumns+` FROM books
		ORDER BY trending_score DESC, app_rating_average DESC, ratings_count DESC
		LIMIT ?
	`, limit)
}

// ByCategory matches category case-insensitively as a substring of any of
// the book's categories.
func (a *Adapter) ByCategory(ctx context.Context, category string, offset, limit int) ([]domain.Book, error) {
	pattern := "%" + escapeLike(category) + "%"
	return a.queryBooks(ctx, `
		SELECT `+bookColumns+` FROM books
		WHERE categories LIKE ? ESCAPE '\'
		ORDER BY trending_score DESC, app_rating_average DESC, ratings_count DESC, title ASC
		LIMIT ? OFFSET ?
	`, pattern, limit, offset)
}

func (a *Adapter) queryBooks(ctx context.Context, query string, args ...any) ([]domain.Book, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite adapter: query books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite adapter: scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite adapter: iterate books: %w", err)
	}

	if err := a.attachVibes(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// attachVibes loads the vibes of every book in one query, in insertion order.
func (a *Adapter) attachVibes(ctx context.Context, books []domain.Book) error {
	if len(books) == 0 {
		return nil
	}
	index := make(map[string]int, len(books))
	args := make([]any, 0, len(books))
	for i, b := range books {
		index[b.ID] = i
		args = append(args, b.ID)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, book_id, genre, mood, energy, spotify_playlist_id, suggested_by, votes, reasoning, created_at
		FROM music_vibes
		WHERE book_id IN (`+placeholders(len(args))+`)
		ORDER BY created_at ASC, rowid ASC
	`, args...)
	if err != nil {
		return fmt.Errorf("sqlite adapter: load vibes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.MusicVibe
		var bookID, mood, energy string
		if err := rows.Scan(
			&v.ID,
			&bookID,
			&v.Genre,
			&mood,
			&energy,
			&v.SpotifyPlaylistID,
			&v.SuggestedBy,
			&v.Votes,
			&v.Reasoning,
			&v.CreatedAt,
		); err != nil {
			return fmt.Errorf("sqlite adapter: scan vibe: %w", err)
		}
		v.Mood = domain.Mood(mood)
		v.Energy = domain.Energy(energy)
		if i, ok := index[bookID]; ok {
			books[i].MusicVibes = append(books[i].MusicVibes, v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite adapter: iterate vibes: %w", err)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
