package domain

// Recommendation is the combined result of the book-to-music pipeline.
type Recommendation struct {
	Book           Book           `json:"book"`
	Classification Classification `json:"aiAnalysis"`
	Tracks         []Track        `json:"tracks"`
	Playlists      []Playlist     `json:"playlists"`
	Vibes          []MusicVibe    `json:"musicVibes,omitempty"`
	SearchTerms    []string       `json:"searchTermsUsed,omitempty"`
	Cached         bool           `json:"cached"`
}

// BookPage is one page of book results.
type BookPage struct {
	Books      []Book `json:"books"`
	TotalItems int    `json:"totalItems"`
	Page       int    `json:"page,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}
