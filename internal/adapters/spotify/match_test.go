package spotify

import (
	"testing"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

func TestMatchKey(t *testing.T) {
	tests := map[string]string{
		"Blinding Lights (Remastered 2020)": "blinding lights",
		"Song Title - Live":                 "song title",
		"Symphony No. 5":                    "symphony no 5",
		"Artist feat. Someone":              "artist someone",
		"Heroes [Deluxe Edition] (Mono)":    "heroes",
		"(Live)":                            "",
	}
	for in, want := range tests {
		if got := matchKey(in); got != want {
			t.Errorf("matchKey(%q): got %q, want %q", in, got, want)
		}
	}
	if got := searchTerm("(Live)"); got != "(Live)" {
		t.Errorf("searchTerm: got %q, want raw input", got)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{name: "kitten sitting", a: "kitten", b: "sitting", want: 3},
		{name: "empty to word", a: "", b: "sound", want: 5},
		{name: "multibyte runes", a: "gymnopédie", b: "gymnopedie", want: 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := editDistance([]rune(tt.a), []rune(tt.b))
			if got != tt.want {
				t.Fatalf("distance: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrackMatchScore(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		artist string
		track  domain.Track
		wantOK bool
	}{
		{
			name:   "matches remastered title",
			title:  "Clair de Lune",
			artist: "Claude Debussy",
			track:  domain.Track{Name: "Clair de Lune (Remastered 2014)", Artists: []string{"Claude Debussy"}},
			wantOK: true,
		},
		{
			name:   "rejects different track",
			title:  "Clair de Lune",
			artist: "Claude Debussy",
			track:  domain.Track{Name: "Space Oddity", Artists: []string{"David Bowie"}},
			wantOK: false,
		},
		{
			name:   "rejects missing artist",
			title:  "Desert Planet",
			artist: "Hans Zimmer",
			track:  domain.Track{Name: "Desert Planet"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, got := trackMatchScore(tt.title, tt.artist, tt.track)
			if got != tt.wantOK {
				t.Fatalf("match: got %v, want %v", got, tt.wantOK)
			}
		})
	}
}

func TestSplitMatchQuery(t *testing.T) {
	tests := []struct {
		query      string
		wantArtist string
		wantTitle  string
		wantOK     bool
	}{
		{query: "Hans Zimmer - Paul's Dream", wantArtist: "Hans Zimmer", wantTitle: "Paul's Dream", wantOK: true},
		{query: "Jay-Z - Song Cry", wantArtist: "Jay-Z", wantTitle: "Song Cry", wantOK: true},
		{query: "Vangelis-Blade Runner Blues", wantArtist: "Vangelis", wantTitle: "Blade Runner Blues", wantOK: true},
		{query: "no separator", wantOK: false},
		{query: " - Title only", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.query, func(t *testing.T) {
			artist, title, ok := splitMatchQuery(tt.query)
			if ok != tt.wantOK || artist != tt.wantArtist || title != tt.wantTitle {
				t.Fatalf("splitMatchQuery(%q) = %q, %q, %v", tt.query, artist, title, ok)
			}
		})
	}
}

func TestBestMatchPrefersHigherScore(t *testing.T) {
	candidates := []domain.Track{
		{ID: "a", Name: "Paul's Dreams", Artists: []string{"Hans Zimmer"}},
		{ID: "b", Name: "Paul's Dream", Artists: []string{"Hans Zimmer"}},
	}
	got, ok := bestMatch("Paul's Dream", "Hans Zimmer", candidates)
	if !ok || got.ID != "b" {
		t.Fatalf("bestMatch: got %q ok=%v, want b", got.ID, ok)
	}
}
