package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// Music search types.
const (
	SearchTypeTrack    = "track"
	SearchTypePlaylist = "playlist"
)

// MusicSearchResult holds whichever list the search type asked for.
type MusicSearchResult struct {
	Query     string            `json:"query"`
	Type      string            `json:"type"`
	Tracks    []domain.Track    `json:"tracks,omitempty"`
	Playlists []domain.Playlist `json:"playlists,omitempty"`
}

// SearchMusic runs a free-text track or playlist search.
func (o *Orchestrator) SearchMusic(ctx context.Context, query, kind string, limit int) (MusicSearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 || len(query) > 100 {
		return MusicSearchResult{}, domain.Invalid("q", "must be between 2 and 100 characters")
	}
	if kind == "" {
		kind = SearchTypeTrack
	}
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > 50 {
		return MusicSearchResult{}, domain.Invalid("limit", "must be between 1 and 50")
	}

	res := MusicSearchResult{Query: query, Type: kind}
	switch kind {
	case SearchTypeTrack:
		tracks, err := o.music.SearchTracks(ctx, query, limit)
		if err != nil {
			return MusicSearchResult{}, fmt.Errorf("service: search tracks: %w", err)
		}
		res.Tracks = domain.DedupeTracks(tracks, limit)
	case SearchTypePlaylist:
		playlists, err := o.music.SearchPlaylists(ctx, query, limit)
		if err != nil {
			return MusicSearchResult{}, fmt.Errorf("service: search playlists: %w", err)
		}
		res.Playlists = domain.DedupePlaylists(playlists, limit)
		if res.Playlists == nil {
			res.Playlists = []domain.Playlist{}
		}
	default:
		return MusicSearchResult{}, domain.Invalid("type", "must be track or playlist")
	}
	return res, nil
}

// GetPlaylist returns a playlist with its tracks.
func (o *Orchestrator) GetPlaylist(ctx context.Context, id string) (domain.PlaylistDetail, error) {
	if strings.TrimSpace(id) == "" {
		return domain.PlaylistDetail{}, domain.Invalid("id", "is required")
	}
	p, err := o.music.GetPlaylist(ctx, id)
	if err != nil {
		return domain.PlaylistDetail{}, fmt.Errorf("service: get playlist: %w", err)
	}
	return p, nil
}

// MatchTrack resolves an "Artist - Title" string to the best scoring track.
func (o *Orchestrator) MatchTrack(ctx context.Context, query string) (domain.Track, error) {
	if !strings.Contains(query, "-") || len(strings.TrimSpace(query)) < 3 {
		return domain.Track{}, domain.Invalid("q", "must look like \"Artist - Title\"")
	}
	t, err := o.music.MatchTrack(ctx, query)
	if err != nil {
		return domain.Track{}, fmt.Errorf("service: match track: %w", err)
	}
	return t, nil
}
