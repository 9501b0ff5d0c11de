package openlibrary

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"bookfinder/internal/metrics"
)

const (
	// SearchLimit caps the unpaged search endpoints.
	SearchLimit = 24

	serviceName = "openlibrary"
)

// AdvancedFields are the search.json parameters accepted by AdvancedSearch.
var AdvancedFields = []string{"title", "author", "subject", "first_publish_year"}

// retryBaseDelay is the first backoff step. Tests shrink it.
var retryBaseDelay = time.Second

var (
	// ErrUpstream marks any failed call against the catalog: a transport error
	// or a non-2xx status. Missing records are not distinguished.
	ErrUpstream = errors.New("openlibrary: upstream unavailable")
	// ErrEmptyQuery is returned when no search constraint survives trimming.
	ErrEmptyQuery = errors.New("openlibrary: empty query")
	// ErrInvalidKey is returned for a blank identifier or key.
	ErrInvalidKey = errors.New("openlibrary: invalid key")
)

// UpstreamError carries the failed operation and HTTP status for logging.
// It matches ErrUpstream with errors.Is.
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("openlibrary %s: unexpected status code: %d", e.Op, e.Status)
	}
	return fmt.Sprintf("openlibrary %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Config configures the catalog client.
type Config struct {
	BaseURL    string
	UserAgent  string
	RPS        float64
	Burst      int
	MaxRetries int
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    *url.URL
	limiter    *rate.Limiter
	maxRetries int
	metrics    *metrics.Registry
	log        *zap.Logger
}

func NewClient(cfg Config, m *metrics.Registry, log *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openlibrary.org"
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		baseURL:    base,
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		maxRetries: cfg.MaxRetries,
		metrics:    m,
		log:        log.Named(serviceName),
	}, nil
}

// searchResponse matches search.json; docs are decoded one by one.
type searchResponse struct {
	NumFound int               `json:"numFound"`
	Docs     []json.RawMessage `json:"docs"`
}

// Search runs a free-text search capped at SearchLimit results.
func (c *Client) Search(ctx context.Context, query string) ([]BookSummary, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(SearchLimit))
	p, err := c.search(ctx, "search", params)
	if err != nil {
		return nil, err
	}
	return p.Books, nil
}

// SearchPaged fetches one page of a free-text search. Callers infer that more
// pages exist when the upstream filled the page, judged by SearchPage.Docs.
func (c *Client) SearchPaged(ctx context.Context, query string, page, pageSize int) (SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = SearchLimit
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(pageSize))
	return c.search(ctx, "search_paged", params)
}

// AdvancedSearch sends only the known fields whose trimmed value is non-empty.
func (c *Client) AdvancedSearch(ctx context.Context, fields map[string]string) ([]BookSummary, error) {
	params := url.Values{}
	for _, name := range AdvancedFields {
		if v := strings.TrimSpace(fields[name]); v != "" {
			params.Set(name, v)
		}
	}
	if len(params) == 0 {
		return nil, ErrEmptyQuery
	}
	params.Set("limit", strconv.Itoa(SearchLimit))
	p, err := c.search(ctx, "advanced_search", params)
	if err != nil {
		return nil, err
	}
	return p.Books, nil
}

func (c *Client) search(ctx context.Context, op string, params url.Values) (SearchPage, error) {
	var res searchResponse
	if err := c.get(ctx, op, "/search.json", params, &res); err != nil {
		return SearchPage{}, err
	}
	books := make([]BookSummary, 0, len(res.Docs))
	for _, raw := range res.Docs {
		doc, err := decodeDocument(raw)
		if err != nil {
			continue
		}
		if b, ok := summaryFromDocument(doc); ok {
			books = append(books, b)
		}
	}
	return SearchPage{Books: books, Docs: len(res.Docs)}, nil
}

// RecentChanges returns the raw recent-edit feed.
func (c *Client) RecentChanges(ctx context.Context, limit int) ([]ChangeEvent, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var raw json.RawMessage
	if err := c.get(ctx, "recent_changes", "/recentchanges.json", params, &raw); err != nil {
		return nil, err
	}
	events, err := decodeChangeEvents(raw)
	if err != nil {
		return nil, &UpstreamError{Op: "recent_changes", Err: err}
	}
	return events, nil
}

// ItemByOLID fetches a work or edition by its short identifier.
func (c *Client) ItemByOLID(ctx context.Context, olid string) (*WorkDetail, error) {
	olid = strings.TrimSpace(olid)
	if olid == "" || strings.Contains(olid, "/") {
		return nil, ErrInvalidKey
	}
	return c.ItemByKey(ctx, KeyFromOLID(olid))
}

// ItemByKey fetches a record by its full key, e.g. "/books/OL1M".
func (c *Client) ItemByKey(ctx context.Context, key string) (*WorkDetail, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == "/" {
		return nil, ErrInvalidKey
	}
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	var item WorkDetail
	if err := c.get(ctx, "item", key+".json", nil, &item); err != nil {
		return nil, err
	}
	if item.Key == "" {
		item.Key = key
	}
	return &item, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	u := *c.baseURL
	u.Path = u.Path + path
	u.RawQuery = params.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, target any) error {
	endpoint := c.endpoint(path, params)

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// Backoff: 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * retryBaseDelay
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return &UpstreamError{Op: op, Err: ctx.Err()}
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return &UpstreamError{Op: op, Err: err}
		}

		retry, err := c.do(ctx, op, endpoint, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		c.log.Debug("retrying upstream request",
			zap.String("op", op),
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
	}
	return lastErr
}

// do performs one attempt and reports whether a failure is worth retrying.
func (c *Client) do(ctx context.Context, op, endpoint string, target any) (bool, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, &UpstreamError{Op: op, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(serviceName, op, metrics.OutcomeRetry, time.Since(start))
		if ctx.Err() != nil {
			return false, &UpstreamError{Op: op, Err: ctx.Err()}
		}
		return true, &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		outcome := metrics.OutcomeFailure
		if retry {
			outcome = metrics.OutcomeRetry
		}
		c.metrics.ObserveUpstream(serviceName, op, outcome, time.Since(start))
		return retry, &UpstreamError{Op: op, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		c.metrics.ObserveUpstream(serviceName, op, metrics.OutcomeFailure, time.Since(start))
		return false, &UpstreamError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.metrics.ObserveUpstream(serviceName, op, metrics.OutcomeSuccess, time.Since(start))
	return false, nil
}
