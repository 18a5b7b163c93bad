package domain

// Playlist is a playlist search result.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	TrackCount  int    `json:"tracks"`
	Owner       string `json:"owner,omitempty"`
}

// PlaylistDetail is a playlist with its tracks.
type PlaylistDetail struct {
	Playlist
	Tracks []Track `json:"items"`
}

// DedupePlaylists keeps the first occurrence of every playlist ID and
// truncates to max when max > 0.
func DedupePlaylists(playlists []Playlist, max int) []Playlist {
	seen := make(map[string]struct{}, len(playlists))
	out := make([]Playlist, 0, len(playlists))
	for _, p := range playlists {
		if p.ID != "" {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
		}
		out = append(out, p)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
