package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

// ErrNoConfidentMatch indicates search results did not meet the confidence threshold.
var ErrNoConfidentMatch = errors.New("no confident match")

// NoConfidentMatchError provides context for a failed track match.
type NoConfidentMatchError struct {
	Title  string
	Artist string
}

func (e NoConfidentMatchError) Error() string {
	if e.Title == "" && e.Artist == "" {
		return ErrNoConfidentMatch.Error()
	}
	return fmt.Sprintf("no confident match found for title %q artist %q", e.Title, e.Artist)
}

func (e NoConfidentMatchError) Is(target error) bool {
	return target == ErrNoConfidentMatch
}

// MusicSearcher finds tracks and playlists. SearchTracks and SearchPlaylists
// degrade to curated or empty results instead of failing.
type MusicSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]domain.Track, error)
	SearchPlaylists(ctx context.Context, query string, limit int) ([]domain.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (domain.PlaylistDetail, error)
	MatchTrack(ctx context.Context, query string) (domain.Track, error)
}
