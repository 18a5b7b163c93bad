package googlebooks

import "testing"

func TestNormalizeVolume(t *testing.T) {
	tests := []struct {
		name  string
		input volume
		check func(t *testing.T, in volume)
	}{
		{
			name:  "empty volume gets placeholders",
			input: volume{ID: "E1"},
			check: func(t *testing.T, in volume) {
				b := normalizeVolume(in)
				if b.Title != "Unknown Title" {
					t.Errorf("title: got %q", b.Title)
				}
				if len(b.Authors) != 1 || b.Authors[0] != "Unknown Author" {
					t.Errorf("authors: got %v", b.Authors)
				}
				if b.Description != "" || b.PublishedDate != "" || b.Publisher != "" {
					t.Errorf("text fields should stay empty: %+v", b)
				}
				if b.Categories == nil || len(b.Categories) != 0 {
					t.Errorf("categories: got %v", b.Categories)
				}
				if b.Language != "en" {
					t.Errorf("language: got %q", b.Language)
				}
			},
		},
		{
			name: "every image link is upgraded",
			input: volume{ID: "E2", VolumeInfo: volumeInfo{ImageLinks: imageLinks{
				Thumbnail: "http://a/t", Small: "http://a/s", Medium: "http://a/m", Large: "https://a/l",
			}}},
			check: func(t *testing.T, in volume) {
				links := normalizeVolume(in).ImageLinks
				for _, u := range []string{links.Thumbnail, links.Small, links.Medium, links.Large} {
					if u[:8] != "https://" {
						t.Errorf("link not https: %q", u)
					}
				}
			},
		},
		{
			name: "unknown identifier types are ignored",
			input: volume{ID: "E3", VolumeInfo: volumeInfo{IndustryIdentifiers: []industryIdentifier{
				{Type: "OTHER", Identifier: "UOM:39015"},
				{Type: "ISBN_13", Identifier: "9780000000002"},
			}}},
			check: func(t *testing.T, in volume) {
				isbn := normalizeVolume(in).ISBN
				if isbn.ISBN10 != "" || isbn.ISBN13 != "9780000000002" {
					t.Errorf("isbn: got %+v", isbn)
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.input)
		})
	}
}
