package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org/b"
)

// ErrUnexpectedStatus wraps non-200 responses.
var ErrUnexpectedStatus = errors.New("unexpected status code")

type Options struct {
	BaseURL    string
	CoversURL  string
	UserAgent  string
	RPS        int
	MaxRetries int
	Timeout    time.Duration
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	coversURL  string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CoversURL == "" {
		opts.CoversURL = DefaultCoversURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 500 * time.Millisecond
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Every(time.Second / time.Duration(opts.RPS))
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		coversURL:  strings.TrimRight(opts.CoversURL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
	}
}

// SearchDoc is one entry of search.json. CoverID is zero when the work has no cover.
type SearchDoc struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	AuthorNames []string `json:"author_name"`
	ISBN        []string `json:"isbn"`
	CoverID     int64    `json:"cover_i"`
}

// SearchResponse matches search.json
type SearchResponse struct {
	NumFound int         `json:"numFound"`
	Docs     []SearchDoc `json:"docs"`
}

type Cover struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// BookDetails matches api/books?jscmd=data
type BookDetails struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	PublishDate string `json:"publish_date"`
	Cover       *Cover `json:"cover"`
	Authors     []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"authors"`
}

// BibKey returns the key Open Library uses for an ISBN in api/books responses.
func BibKey(isbn string) string {
	return "ISBN:" + isbn
}

// CoverURL formats the large cover image URL for a cover id.
func (c *Client) CoverURL(coverID int64) string {
	return c.coversURL + "/id/" + strconv.FormatInt(coverID, 10) + "-L.jpg"
}

// SearchByTitle runs a free-text search. A limit <= 0 leaves paging to the server.
func (c *Client) SearchByTitle(ctx context.Context, title string, limit int) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("q", title)
	q.Set("fields", "key,title,author_name,isbn,cover_i")
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := c.baseURL + "/search.json?" + q.Encode()

	var res SearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetBooksByISBN returns details keyed by bib key ("ISBN:<isbn>").
// ISBNs unknown to Open Library are simply absent from the map.
func (c *Client) GetBooksByISBN(ctx context.Context, isbns []string) (map[string]BookDetails, error) {
	if len(isbns) == 0 {
		return nil, nil
	}

	bibkeys := make([]string, len(isbns))
	for i, isbn := range isbns {
		bibkeys[i] = BibKey(isbn)
	}

	q := url.Values{}
	q.Set("bibkeys", strings.Join(bibkeys, ","))
	q.Set("jscmd", "data")
	q.Set("format", "json")
	u := c.baseURL + "/api/books?" + q.Encode()

	var res map[string]BookDetails
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		if !retry || ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// do performs a single request and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, url string, target any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}
