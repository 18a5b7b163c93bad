package googlebooks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
)

const duneVolume = `{
	"id": "B1F2",
	"volumeInfo": {
		"title": "Dune",
		"authors": ["Frank Herbert"],
		"description": "A desert planet and a boy who becomes a messiah.",
		"categories": ["Fiction"],
		"publishedDate": "1965",
		"pageCount": 412,
		"language": "en",
		"imageLinks": {"thumbnail": "http://books.google.com/t.jpg", "small": "https://books.google.com/s.jpg"},
		"industryIdentifiers": [
			{"type": "ISBN_10", "identifier": "0441013597"},
			{"type": "ISBN_13", "identifier": "9780441013593"}
		],
		"publisher": "Ace",
		"averageRating": 4.5,
		"ratingsCount": 120
	}
}`

func newTestClient(ts *httptest.Server, key string) *Client {
	return NewClient(Options{
		APIKey:         key,
		BaseURL:        ts.URL,
		RequestsPerSec: 1000,
		MaxRetries:     2,
		BaseBackoff:    time.Millisecond,
		HTTPClient:     ts.Client(),
	})
}

func TestGetVolume(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volumes/B1F2" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key: got %q, want %q", got, "secret")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(duneVolume))
	}))
	defer ts.Close()

	book, err := newTestClient(ts, "secret").GetVolume(context.Background(), "B1F2")
	if err != nil {
		t.Fatalf("GetVolume: %v", err)
	}

	if book.ExternalID != "B1F2" || book.Title != "Dune" {
		t.Fatalf("identity: got %q %q", book.ExternalID, book.Title)
	}
	if book.ID != "" {
		t.Errorf("catalog records carry no store id, got %q", book.ID)
	}
	if book.ImageLinks.Thumbnail != "https://books.google.com/t.jpg" {
		t.Errorf("thumbnail not upgraded: %q", book.ImageLinks.Thumbnail)
	}
	if book.ISBN.ISBN10 != "0441013597" || book.ISBN.ISBN13 != "9780441013593" {
		t.Errorf("isbn: got %+v", book.ISBN)
	}
	if book.PageCount != 412 || book.RatingsCount != 120 || book.AverageRating != 4.5 {
		t.Errorf("counts: got %+v", book)
	}
}

func TestGetVolumeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: domain.ErrNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantErr: domain.ErrUpstreamUnavailable},
		{name: "forbidden key", status: http.StatusForbidden, wantErr: domain.ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"code":1,"message":"nope"}}`))
			}))
			defer ts.Close()

			_, err := newTestClient(ts, "").GetVolume(context.Background(), "missing")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetVolumeTransportErrorHidesKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	c := NewClient(Options{APIKey: "secret", BaseURL: ts.URL, MaxRetries: 1, RequestsPerSec: 1000})
	_, err := c.GetVolume(context.Background(), "B1F2")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("error: got %v, want upstream unavailable", err)
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestSearchVolumes(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":            q.Get("q"),
			"startIndex":   q.Get("startIndex"),
			"maxResults":   q.Get("maxResults"),
			"printType":    q.Get("printType"),
			"langRestrict": q.Get("langRestrict"),
			"key":          q.Get("key"),
		}
		_, _ = w.Write([]byte(`{"totalItems": 2, "items": [` + duneVolume + `, {"id": "X9", "volumeInfo": {}}, {"volumeInfo": {"title": "orphan"}}]}`))
	}))
	defer ts.Close()

	page, err := newTestClient(ts, "").SearchVolumes(context.Background(), "dune", 20, 100)
	if err != nil {
		t.Fatalf("SearchVolumes: %v", err)
	}

	want := map[string]string{
		"q":            "dune",
		"startIndex":   "20",
		"maxResults":   "40",
		"printType":    "books",
		"langRestrict": "en",
		"key":          "",
	}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("param %s: got %q, want %q", k, gotQuery[k], v)
		}
	}

	if page.TotalItems != 2 {
		t.Errorf("total: got %d, want 2", page.TotalItems)
	}
	if len(page.Books) != 2 {
		t.Fatalf("books: got %d, want 2 (volumes without an id are skipped)", len(page.Books))
	}
	sparse := page.Books[1]
	if sparse.Title != "Unknown Title" || len(sparse.Authors) != 1 || sparse.Authors[0] != "Unknown Author" {
		t.Errorf("sparse defaults: got %q %v", sparse.Title, sparse.Authors)
	}
	if sparse.Language != "en" || sparse.Categories == nil {
		t.Errorf("sparse language/categories: got %q %v", sparse.Language, sparse.Categories)
	}
}

func TestSearchVolumesRejectsEmptyQuery(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:0"})
	_, err := c.SearchVolumes(context.Background(), "   ", 0, 10)
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("error: got %v, want validation failure", err)
	}
}
