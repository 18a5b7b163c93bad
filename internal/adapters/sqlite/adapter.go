// Package sqlite provides the SQLite-backed book and review repositories.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

// Adapter implements ports.BookRepository and ports.ReviewRepository.
type Adapter struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

var (
	_ ports.BookRepository   = (*Adapter)(nil)
	_ ports.ReviewRepository = (*Adapter)(nil)
)

// NewAdapter opens the database at storagePath and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", dsn(storagePath))
	if err != nil {
		return nil, fmt.Errorf("sqlite adapter: open: %w", err)
	}
	if storagePath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite adapter: ping: %w", err)
	}

	adapter := &Adapter{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}

	if err := adapter.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite adapter: migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	authors TEXT NOT NULL DEFAULT '[]',
	description TEXT NOT NULL DEFAULT '',
	categories TEXT NOT NULL DEFAULT '[]',
	published_date TEXT NOT NULL DEFAULT '',
	page_count INTEGER NOT NULL DEFAULT 0,
	language TEXT NOT NULL DEFAULT 'en',
	image_links TEXT NOT NULL DEFAULT '{}',
	isbn10 TEXT NOT NULL DEFAULT '',
	isbn13 TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL DEFAULT '',
	average_rating REAL NOT NULL DEFAULT 0,
	ratings_count INTEGER NOT NULL DEFAULT 0,
	app_rating_average REAL NOT NULL DEFAULT 0,
	app_rating_count INTEGER NOT NULL DEFAULT 0,
	trending_score REAL NOT NULL DEFAULT 0,
	trending_updated_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_books_trending
	ON books (trending_score DESC, app_rating_average DESC, ratings_count DESC);

CREATE TABLE IF NOT EXISTS music_vibes (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	genre TEXT NOT NULL,
	mood TEXT NOT NULL,
	energy TEXT NOT NULL,
	spotify_playlist_id TEXT NOT NULL DEFAULT '',
	suggested_by TEXT NOT NULL DEFAULT '',
	votes INTEGER NOT NULL DEFAULT 0,
	reasoning TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_music_vibes_book ON music_vibes (book_id);
CREATE INDEX IF NOT EXISTS idx_music_vibes_votes ON music_vibes (votes DESC);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	book_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	rating REAL NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	music_vibe_rating REAL NOT NULL DEFAULT 0,
	music_vibe_comment TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '[]',
	is_public INTEGER NOT NULL DEFAULT 1,
	likes_count INTEGER NOT NULL DEFAULT 0,
	flagged INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (user_id, book_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_book ON reviews (book_id, created_at DESC);

CREATE TABLE IF NOT EXISTS review_likes (
	review_id TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (review_id, user_id)
);

CREATE TABLE IF NOT EXISTS review_flags (
	review_id TEXT NOT NULL REFERENCES reviews(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	reason TEXT NOT NULL,
	flagged_at DATETIME NOT NULL,
	PRIMARY KEY (review_id, user_id)
);
`

func (a *Adapter) migrate(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

type scanner interface {
	Scan(dest ...any) error
}
