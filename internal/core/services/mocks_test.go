package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

type mockCatalog struct {
	volumes   map[string]domain.Book
	getErr    error
	search    ports.CatalogPage
	searchErr error
	queries   []string
}

func (m *mockCatalog) GetVolume(ctx context.Context, id string) (domain.Book, error) {
	if m.getErr != nil {
		return domain.Book{}, m.getErr
	}
	b, ok := m.volumes[id]
	if !ok {
		return domain.Book{}, domain.ErrNotFound
	}
	return b, nil
}

func (m *mockCatalog) SearchVolumes(ctx context.Context, query string, startIndex, maxResults int) (ports.CatalogPage, error) {
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return ports.CatalogPage{}, m.searchErr
	}
	return m.search, nil
}

// memBooks is an in-memory BookRepository.
type memBooks struct {
	mu       sync.Mutex
	byID     map[string]domain.Book
	getErr   error
	upserts  int
	appended []domain.MusicVibe
	ratings  map[string]domain.AppRating
}

func newMemBooks(books ...domain.Book) *memBooks {
	m := &memBooks{byID: map[string]domain.Book{}, ratings: map[string]domain.AppRating{}}
	for _, b := range books {
		m.byID[b.ID] = b
	}
	return m
}

func (m *memBooks) GetByID(ctx context.Context, id string) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return domain.Book{}, m.getErr
	}
	if b, ok := m.byID[id]; ok {
		return b, nil
	}
	for _, b := range m.byID {
		if b.ExternalID == id {
			return b, nil
		}
	}
	return domain.Book{}, domain.ErrNotFound
}

func (m *memBooks) GetByExternalID(ctx context.Context, externalID string) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.byID {
		if b.ExternalID == externalID {
			return b, nil
		}
	}
	return domain.Book{}, domain.ErrNotFound
}

func (m *memBooks) UpsertCatalog(ctx context.Context, b domain.Book) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	for id, existing := range m.byID {
		if existing.ExternalID == b.ExternalID {
			existing.MergeCatalog(b)
			m.byID[id] = existing
			return existing, nil
		}
	}
	b.ID = "store-" + b.ExternalID
	m.byID[b.ID] = b
	return b, nil
}

func (m *memBooks) AppendVibe(ctx context.Context, bookID string, v domain.MusicVibe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[bookID]
	if !ok {
		return domain.ErrNotFound
	}
	b.MusicVibes = append(b.MusicVibes, v)
	m.byID[bookID] = b
	m.appended = append(m.appended, v)
	return nil
}

func (m *memBooks) IncrementVibeVotes(ctx context.Context, vibeID string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, b := range m.byID {
		for i, v := range b.MusicVibes {
			if v.ID == vibeID {
				b.MusicVibes[i].Votes += delta
				m.byID[id] = b
				return b.MusicVibes[i].Votes, nil
			}
		}
	}
	return 0, domain.ErrNotFound
}

func (m *memBooks) PopularVibes(ctx context.Context, limit int) ([]domain.PopularVibe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PopularVibe
	for _, b := range m.byID {
		for _, v := range b.MusicVibes {
			out = append(out, domain.PopularVibe{MusicVibe: v, BookID: b.ID, BookTitle: b.Title, BookAuthors: b.Authors})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Votes > out[j].Votes })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBooks) UpdateRatings(ctx context.Context, bookID string, rating domain.AppRating, trending domain.Trending) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[bookID]
	if !ok {
		return domain.ErrNotFound
	}
	b.AppRating = rating
	b.Trending = trending
	m.byID[bookID] = b
	m.ratings[bookID] = rating
	return nil
}

func (m *memBooks) Trending(ctx context.Context, limit int) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Book
	for _, b := range m.byID {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trending.Score > out[j].Trending.Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBooks) ByCategory(ctx context.Context, category string, offset, limit int) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Book
	for _, b := range m.byID {
		for _, c := range b.Categories {
			if strings.Contains(strings.ToLower(c), strings.ToLower(category)) {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

// mockMusic records every search and answers from canned tables.
type mockMusic struct {
	mu             sync.Mutex
	trackCalls     []string
	playlistCalls  []string
	tracks         map[string][]domain.Track
	playlists      map[string][]domain.Playlist
	defaultTracks  []domain.Track
	trackErr       map[string]error
	delay          time.Duration
	match          domain.Track
	matchErr       error
	matched        int
	playlistDetail domain.PlaylistDetail
}

func (m *mockMusic) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	m.mu.Lock()
	m.trackCalls = append(m.trackCalls, query)
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := m.trackErr[query]; err != nil {
		return nil, err
	}
	if t, ok := m.tracks[query]; ok {
		return t, nil
	}
	return m.defaultTracks, nil
}

func (m *mockMusic) SearchPlaylists(ctx context.Context, query string, limit int) ([]domain.Playlist, error) {
	m.mu.Lock()
	m.playlistCalls = append(m.playlistCalls, query)
	m.mu.Unlock()
	return m.playlists[query], nil
}

func (m *mockMusic) GetPlaylist(ctx context.Context, id string) (domain.PlaylistDetail, error) {
	if m.playlistDetail.ID != id {
		return domain.PlaylistDetail{}, domain.ErrNotFound
	}
	return m.playlistDetail, nil
}

func (m *mockMusic) MatchTrack(ctx context.Context, query string) (domain.Track, error) {
	m.mu.Lock()
	m.matched++
	m.mu.Unlock()
	return m.match, m.matchErr
}

func (m *mockMusic) matchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matched
}

func (m *mockMusic) searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackCalls) + len(m.playlistCalls)
}

type stubClassifier struct {
	result domain.Classification
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, book domain.Book) domain.Classification {
	s.calls++
	return s.result
}

type stubStrategy struct {
	name   string
	result domain.Classification
	err    error
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Classify(ctx context.Context, book domain.Book) (domain.Classification, error) {
	s.calls++
	return s.result, s.err
}

type stubModel struct {
	answer string
	err    error
	prompt string
}

func (s *stubModel) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, s.err
}

type recordingRefresher struct {
	mu    sync.Mutex
	books []domain.Book
}

func (r *recordingRefresher) Submit(b domain.Book) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books = append(r.books, b)
	return true
}

var errBoom = errors.New("boom")
