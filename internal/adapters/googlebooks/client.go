// Package googlebooks implements ports.BookCatalog over the Google Books v1
// volumes API.
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/shelfsound/internal/adapters/httpx"
	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	// MaxResults is the largest page the volumes endpoint serves.
	MaxResults = 40

	defaultRequestsPerSec = 5
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	APIKey         string
	BaseURL        string
	RequestsPerSec float64
	MaxRetries     int
	BaseBackoff    time.Duration
	HTTPClient     *http.Client
}

type Client struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	retrier *httpx.Retrier
}

var _ ports.BookCatalog = (*Client)(nil)

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rps := opts.RequestsPerSec
	if rps <= 0 {
		rps = defaultRequestsPerSec
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		retrier: &httpx.Retrier{
			Upstream:    "googlebooks",
			Client:      httpClient,
			MaxRetries:  opts.MaxRetries,
			BaseBackoff: opts.BaseBackoff,
		},
	}
}

// GetVolume fetches one volume by its catalog id.
func (c *Client) GetVolume(ctx context.Context, id string) (domain.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Book{}, domain.Invalid("id", "required")
	}

	params := url.Values{}
	c.setKey(params)

	var v volume
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), params, &v); err != nil {
		return domain.Book{}, err
	}
	if v.ID == "" {
		v.ID = id
	}
	return normalizeVolume(v), nil
}

// SearchVolumes runs a catalog search. maxResults is capped at MaxResults.
func (c *Client) SearchVolumes(ctx context.Context, query string, startIndex, maxResults int) (ports.CatalogPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ports.CatalogPage{}, domain.Invalid("q", "required")
	}
	if startIndex < 0 {
		startIndex = 0
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > MaxResults {
		maxResults = MaxResults
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("startIndex", strconv.Itoa(startIndex))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("printType", "books")
	params.Set("langRestrict", "en")
	c.setKey(params)

	var body volumesResponse
	if err := c.get(ctx, "/volumes", params, &body); err != nil {
		return ports.CatalogPage{}, err
	}

	books := make([]domain.Book, 0, len(body.Items))
	for _, v := range body.Items {
		if v.ID == "" {
			continue
		}
		books = append(books, normalizeVolume(v))
	}
	return ports.CatalogPage{Books: books, TotalItems: body.TotalItems}, nil
}

func (c *Client) setKey(params url.Values) {
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("googlebooks adapter: rate limit wait: %w: %v", domain.ErrUpstreamUnavailable, err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("googlebooks adapter: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.retrier.Do(req)
	if err != nil {
		return fmt.Errorf("googlebooks adapter: %w: %v", domain.ErrUpstreamUnavailable, redactKey(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("googlebooks adapter: %s: %w", path, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("googlebooks adapter: %w: status %d: %s", domain.ErrUpstreamUnavailable, resp.StatusCode, upstreamMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("googlebooks adapter: %w: decode: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}

func upstreamMessage(r io.Reader) string {
	var body errorResponse
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil || body.Error.Message == "" {
		return "no detail"
	}
	return body.Error.Message
}

// redactKey drops the request URL, which carries the API key, from transport errors.
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
