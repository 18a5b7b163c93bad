package domain

// Track represents a musical track returned by music search.
type Track struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	ExternalURL string   `json:"external_url,omitempty"`
	DurationMs  int      `json:"duration_ms,omitempty"`
	Popularity  int      `json:"popularity,omitempty"`
}

// DedupeTracks keeps the first occurrence of every track ID, preserving order,
// and truncates to max when max > 0. Tracks without an ID are kept as-is.
func DedupeTracks(tracks []Track, max int) []Track {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
		}
		out = append(out, t)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
