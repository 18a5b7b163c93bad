package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
	"github.com/ewilliams-labs/shelfsound/internal/metrics"
)

const (
	defaultRecommendLimit = 20
	maxRecommendLimit     = 50
	maxRecommendTracks    = 20
	maxRecommendPlaylists = 5
	searchedQueries       = 3
	tracksPerQuery        = 10
	playlistsPerQuery     = 3
	maxInFlightSearches   = 6
	defaultDeadline       = 8 * time.Second
)

// BookClassifier produces a classification for any book. It must not fail.
type BookClassifier interface {
	Classify(ctx context.Context, book domain.Book) domain.Classification
}

// CatalogRefresher accepts books for asynchronous persistence. Submit must
// not block and reports whether the book was queued.
type CatalogRefresher interface {
	Submit(book domain.Book) bool
}

// Orchestrator coordinates the catalog, classifier, music search and store
// for every book and music operation.
type Orchestrator struct {
	catalog    ports.BookCatalog
	books      ports.BookRepository
	music      ports.MusicSearcher
	classifier BookClassifier
	refresher  CatalogRefresher
	deadline   time.Duration
	now        func() time.Time
	newID      func() string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRefresher hands catalog search results to r for background upserts.
func WithRefresher(r CatalogRefresher) OrchestratorOption {
	return func(o *Orchestrator) { o.refresher = r }
}

// WithSearchDeadline bounds the parallel music searches of one recommendation.
func WithSearchDeadline(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.deadline = d
		}
	}
}

// NewOrchestrator constructs an Orchestrator. books may be nil, in which case
// every book is served straight from the catalog and nothing is persisted.
func NewOrchestrator(catalog ports.BookCatalog, books ports.BookRepository, music ports.MusicSearcher, classifier BookClassifier, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		catalog:    catalog,
		books:      books,
		music:      music,
		classifier: classifier,
		deadline:   defaultDeadline,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ResolveBook returns the stored record for id (store id or catalog id),
// fetching and persisting it from the catalog on a miss. When the store is
// unavailable the normalized catalog record is returned unpersisted.
func (o *Orchestrator) ResolveBook(ctx context.Context, id string) (domain.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Book{}, domain.Invalid("bookId", "is required")
	}
	logger := logging.With("orchestrator")

	storeUp := o.books != nil
	if storeUp {
		b, err := o.books.GetByID(ctx, id)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Err(err).Str("book", id).Msg("store lookup failed, using catalog only")
			storeUp = false
		}
	}

	fresh, err := o.catalog.GetVolume(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Book{}, fmt.Errorf("service: book %s: %w", id, err)
		}
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return domain.Book{}, fmt.Errorf("service: fetch book %s: %w", id, err)
		}
		return domain.Book{}, fmt.Errorf("service: fetch book %s: %w: %v", id, domain.ErrUpstreamUnavailable, err)
	}
	fresh.ApplyDefaults()

	if !storeUp {
		return fresh, nil
	}
	stored, err := o.books.UpsertCatalog(ctx, fresh)
	if err != nil {
		logger.Warn().Err(err).Str("book", fresh.ExternalID).Msg("upsert failed, serving catalog record")
		return fresh, nil
	}
	return stored, nil
}

// RecommendRequest is the input of RecommendMusic. Mood and Energy, when
// set, override the classified values.
type RecommendRequest struct {
	BookID string
	Mood   string
	Energy string
	Limit  int
	UserID string
}

func (r *RecommendRequest) validate() (domain.Mood, domain.Energy, error) {
	if strings.TrimSpace(r.BookID) == "" {
		return "", "", domain.Invalid("bookId", "is required")
	}
	if r.Limit == 0 {
		r.Limit = defaultRecommendLimit
	}
	if r.Limit < 1 || r.Limit > maxRecommendLimit {
		return "", "", domain.Invalid("limit", "must be between 1 and 50")
	}
	var mood domain.Mood
	if r.Mood != "" {
		m, ok := domain.ParseMood(r.Mood)
		if !ok {
			return "", "", domain.Invalid("mood", "must be one of calm, focused, adventurous, romantic, mysterious, uplifting, melancholy, intense")
		}
		mood = m
	}
	var energy domain.Energy
	if r.Energy != "" {
		e, ok := domain.ParseEnergy(r.Energy)
		if !ok {
			return "", "", domain.Invalid("energy", "must be one of low, medium, high")
		}
		energy = e
	}
	return mood, energy, nil
}

// RecommendMusic runs the book to music pipeline. Cached vibes matching the
// final mood and energy short-circuit every music search. Individual search
// failures contribute no results and never fail the request.
func (o *Orchestrator) RecommendMusic(ctx context.Context, req RecommendRequest) (domain.Recommendation, error) {
	mood, energy, err := req.validate()
	if err != nil {
		return domain.Recommendation{}, err
	}

	book, err := o.ResolveBook(ctx, req.BookID)
	if err != nil {
		return domain.Recommendation{}, err
	}

	c := o.classifier.Classify(ctx, book).Normalize()
	if mood != "" {
		c.Mood = mood
	}
	if energy != "" {
		c.Energy = energy
	}

	if book.Persisted() {
		if vibes := book.VibesMatching(c.Mood, c.Energy); len(vibes) > 0 {
			metrics.RecordRecommendation(true)
			return domain.Recommendation{
				Book:           book,
				Classification: c,
				Tracks:         []domain.Track{},
				Playlists:      []domain.Playlist{},
				Vibes:          vibes,
				Cached:         true,
			}, nil
		}
	}

	queries := GenerateQueries(c)
	tracks, playlists := o.searchAll(ctx, queries)
	tracks = domain.DedupeTracks(tracks, min(req.Limit, maxRecommendTracks))
	playlists = domain.DedupePlaylists(playlists, maxRecommendPlaylists)

	if book.Persisted() {
		vibe := domain.MusicVibe{
			ID:          o.newID(),
			Genre:       book.PrimaryGenre(),
			Mood:        c.Mood,
			Energy:      c.Energy,
			SuggestedBy: req.UserID,
			Reasoning:   c.Reasoning,
			CreatedAt:   o.now().UTC(),
		}
		if len(playlists) > 0 {
			vibe.SpotifyPlaylistID = playlists[0].ID
		}
		if err := o.books.AppendVibe(ctx, book.ID, vibe); err != nil {
			logging.With("orchestrator").Warn().Err(err).Str("book", book.ID).Msg("could not cache music vibe")
		} else {
			book.MusicVibes = append(book.MusicVibes, vibe)
		}
	}

	metrics.RecordRecommendation(false)
	return domain.Recommendation{
		Book:           book,
		Classification: c,
		Tracks:         tracks,
		Playlists:      playlists,
		SearchTerms:    queries,
		Cached:         false,
	}, nil
}

// searchAll runs track and playlist searches for the leading queries
// concurrently and merges the results in query order.
func (o *Orchestrator) searchAll(ctx context.Context, queries []string) ([]domain.Track, []domain.Playlist) {
	if len(queries) > searchedQueries {
		queries = queries[:searchedQueries]
	}
	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	logger := logging.With("orchestrator")
	trackSets := make([][]domain.Track, len(queries))
	playlistSets := make([][]domain.Playlist, len(queries))

	var g errgroup.Group
	g.SetLimit(maxInFlightSearches)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			tracks, err := o.music.SearchTracks(ctx, q, tracksPerQuery)
			if err != nil {
				logger.Warn().Err(err).Str("query", q).Msg("track search failed")
				return nil
			}
			trackSets[i] = tracks
			return nil
		})
		g.Go(func() error {
			playlists, err := o.music.SearchPlaylists(ctx, q, playlistsPerQuery)
			if err != nil {
				logger.Warn().Err(err).Str("query", q).Msg("playlist search failed")
				return nil
			}
			playlistSets[i] = playlists
			return nil
		})
	}
	_ = g.Wait()

	var tracks []domain.Track
	var playlists []domain.Playlist
	for i := range queries {
		tracks = append(tracks, trackSets[i]...)
		playlists = append(playlists, playlistSets[i]...)
	}
	return tracks, playlists
}

// RecordVote applies an up or down vote to a vibe and returns the new total.
func (o *Orchestrator) RecordVote(ctx context.Context, vibeID string, direction domain.VoteDirection) (int, error) {
	if strings.TrimSpace(vibeID) == "" {
		return 0, domain.Invalid("vibeId", "is required")
	}
	delta, err := direction.Delta()
	if err != nil {
		return 0, err
	}
	if o.books == nil {
		return 0, fmt.Errorf("service: vote: %w", domain.ErrUpstreamUnavailable)
	}
	votes, err := o.books.IncrementVibeVotes(ctx, vibeID, delta)
	if err != nil {
		return 0, fmt.Errorf("service: vote on %s: %w", vibeID, err)
	}
	return votes, nil
}

// PopularVibes lists vibes across all books by votes, highest first.
func (o *Orchestrator) PopularVibes(ctx context.Context, limit int) ([]domain.PopularVibe, error) {
	if limit == 0 {
		limit = 10
	}
	if limit < 1 || limit > 50 {
		return nil, domain.Invalid("limit", "must be between 1 and 50")
	}
	if o.books == nil {
		return []domain.PopularVibe{}, nil
	}
	vibes, err := o.books.PopularVibes(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: popular vibes: %w", err)
	}
	return vibes, nil
}
