// Package spotify implements ports.MusicSearcher over the Spotify Web API,
// degrading to a curated catalog when Spotify cannot be reached.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/shelfsound/internal/adapters/httpx"
	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
	"github.com/ewilliams-labs/shelfsound/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.spotify.com/v1"
	DefaultAuthURL = "https://accounts.spotify.com/api/token"
	defaultMarket  = "US"
	maxSearchLimit = 50
)

var (
	errNoCredentials = errors.New("spotify adapter: credentials not configured")
	errUnauthorized  = errors.New("spotify adapter: unauthorized")
)

// Options configures a Client. Without ClientID and ClientSecret the client
// runs in fallback mode from the start.
type Options struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	AuthURL      string
	Market       string
	MaxRetries   int
	BaseBackoff  time.Duration
	HTTPClient   *http.Client
	Fallback     *FallbackCatalog
}

type Client struct {
	baseURL  string
	market   string
	retrier  *httpx.Retrier
	fallback *FallbackCatalog
	logger   *zerolog.Logger

	credentials *clientcredentials.Config
	tokenCtx    context.Context

	mu     sync.Mutex
	tokens oauth2.TokenSource
}

var _ ports.MusicSearcher = (*Client)(nil)

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	authURL := opts.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	market := opts.Market
	if market == "" {
		market = defaultMarket
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = DefaultFallbackCatalog()
	}

	c := &Client{
		baseURL:  baseURL,
		market:   market,
		fallback: fallback,
		logger:   logging.With("spotify"),
		retrier: &httpx.Retrier{
			Upstream:    "spotify",
			Client:      httpClient,
			MaxRetries:  opts.MaxRetries,
			BaseBackoff: opts.BaseBackoff,
		},
		// The token source outlives any single request.
		tokenCtx: context.WithValue(context.Background(), oauth2.HTTPClient, httpClient),
	}
	if opts.ClientID != "" && opts.ClientSecret != "" {
		c.credentials = &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     authURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	} else {
		c.logger.Warn().Msg("credentials not configured, serving curated fallback tracks")
	}
	return c
}

// FallbackMode reports whether the client has no credentials to try.
func (c *Client) FallbackMode() bool {
	return c.credentials == nil
}

// SearchTracks searches tracks, answering from the curated catalog when no
// token is available or the search fails.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error) {
	limit = clampLimit(limit)
	body, err := c.search(ctx, query, "track", limit)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, errNoCredentials) {
			c.logger.Warn().Err(err).Str("query", query).Msg("track search failed, using curated fallback")
		}
		metrics.RecordFallback("tracks")
		return c.fallback.Tracks(query, limit), nil
	}

	tracks := make([]domain.Track, 0, len(body.Tracks.Items))
	for _, st := range body.Tracks.Items {
		if st.ID == "" {
			continue
		}
		tracks = append(tracks, mapTrackToDomain(st))
	}
	return tracks, nil
}

// SearchPlaylists searches playlists. There is no curated playlist table, so
// any failure yields an empty list.
func (c *Client) SearchPlaylists(ctx context.Context, query string, limit int) ([]domain.Playlist, error) {
	limit = clampLimit(limit)
	body, err := c.search(ctx, query, "playlist", limit)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, errNoCredentials) {
			c.logger.Warn().Err(err).Str("query", query).Msg("playlist search failed")
		}
		metrics.RecordFallback("playlists")
		return []domain.Playlist{}, nil
	}

	playlists := make([]domain.Playlist, 0, len(body.Playlists.Items))
	for _, sp := range body.Playlists.Items {
		if sp == nil || sp.ID == "" {
			continue
		}
		playlists = append(playlists, mapPlaylistToDomain(*sp))
	}
	return playlists, nil
}

// GetPlaylist fetches a playlist with its tracks. It has no fallback.
func (c *Client) GetPlaylist(ctx context.Context, id string) (domain.PlaylistDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.PlaylistDetail{}, domain.Invalid("id", "required")
	}

	params := url.Values{}
	params.Set("market", c.market)
	resp, err := c.get(ctx, "/playlists/"+url.PathEscape(id), params)
	if err != nil {
		return domain.PlaylistDetail{}, fmt.Errorf("spotify adapter: get playlist: %w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.PlaylistDetail{}, fmt.Errorf("spotify adapter: playlist %s: %w", id, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return domain.PlaylistDetail{}, fmt.Errorf("spotify adapter: get playlist: %w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var sp spotifyPlaylist
	if err := json.NewDecoder(resp.Body).Decode(&sp); err != nil {
		return domain.PlaylistDetail{}, fmt.Errorf("spotify adapter: playlist decode error: %w", err)
	}
	return mapPlaylistDetail(sp), nil
}

// MatchTrack resolves an "Artist - Title" recommendation to a single track,
// rejecting candidates below the confidence thresholds. In fallback mode the
// curated catalog is the candidate set.
func (c *Client) MatchTrack(ctx context.Context, query string) (domain.Track, error) {
	artist, title, ok := splitMatchQuery(query)
	if !ok {
		return domain.Track{}, domain.Invalid("q", `expected "Artist - Title"`)
	}

	q := fmt.Sprintf("track:%s artist:%s", searchTerm(title), searchTerm(artist))

	var candidates []domain.Track
	body, err := c.search(ctx, q, "track", matchCandidates)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Track{}, fmt.Errorf("spotify adapter: match: %w", ctx.Err())
		}
		candidates = c.fallback.All()
	} else {
		for _, st := range body.Tracks.Items {
			candidates = append(candidates, mapTrackToDomain(st))
		}
		if len(candidates) > matchCandidates {
			candidates = candidates[:matchCandidates]
		}
	}

	track, ok := bestMatch(title, artist, candidates)
	if !ok {
		return domain.Track{}, fmt.Errorf("spotify adapter: %w", ports.NoConfidentMatchError{Title: title, Artist: artist})
	}
	c.logger.Debug().Str("query", query).Str("track_id", track.ID).Msg("matched track")
	return track, nil
}

func (c *Client) search(ctx context.Context, query, kind string, limit int) (searchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("market", c.market)

	resp, err := c.get(ctx, "/search", params)
	if err != nil {
		return searchResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return searchResponse{}, fmt.Errorf("spotify adapter: search status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return searchResponse{}, fmt.Errorf("spotify adapter: search decode error: %w", err)
	}
	return body, nil
}

// get sends an authorized GET. A 401 drops the cached token and retries once
// with a fresh one.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := c.baseURL + path + "?" + params.Encode()

	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.token()
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("spotify adapter: failed to create request: %w", err)
		}
		token.SetAuthHeader(req)

		resp, err := c.retrier.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}
		_ = resp.Body.Close()
		c.resetToken()
	}
	return nil, errUnauthorized
}

func (c *Client) token() (*oauth2.Token, error) {
	if c.credentials == nil {
		return nil, errNoCredentials
	}

	c.mu.Lock()
	if c.tokens == nil {
		c.tokens = oauth2.ReuseTokenSource(nil, c.credentials.TokenSource(c.tokenCtx))
	}
	tokens := c.tokens
	c.mu.Unlock()

	tok, err := tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: token: %w", err)
	}
	return tok, nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.tokens = nil
	c.mu.Unlock()
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}
