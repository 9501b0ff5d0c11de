// Package wikipedia looks up page summaries used to enrich book details.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookfinder/internal/metrics"
)

const serviceName = "wikipedia"

// Thumbnail is the page image returned with a summary.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Summary is the normalized encyclopedia entry. Every field is optional.
type Summary struct {
	Extract   string     `json:"extract,omitempty"`
	Thumbnail *Thumbnail `json:"thumbnail,omitempty"`
	PageURL   string     `json:"page_url,omitempty"`
}

// summaryResponse matches /page/summary/{title}
type summaryResponse struct {
	Extract     string     `json:"extract"`
	Thumbnail   *Thumbnail `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Config configures the encyclopedia client.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *metrics.Registry
	log        *zap.Logger
}

func NewClient(cfg Config, m *metrics.Registry, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://en.wikipedia.org/api/rest_v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		metrics:    m,
		log:        log.Named(serviceName),
	}
}

// Summary looks up the page whose title matches exactly. A blank title and
// any non-2xx answer both mean "no data" and return nil without error; only a
// failed round trip or an unreadable body is an error.
func (c *Client) Summary(ctx context.Context, title string) (*Summary, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	start := time.Now()
	endpoint := c.baseURL + "/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("wikipedia summary: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(serviceName, "summary", metrics.OutcomeFailure, time.Since(start))
		return nil, fmt.Errorf("wikipedia summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.metrics.ObserveUpstream(serviceName, "summary", metrics.OutcomeSuccess, time.Since(start))
		c.log.Debug("no summary", zap.String("title", title), zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var res summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		c.metrics.ObserveUpstream(serviceName, "summary", metrics.OutcomeFailure, time.Since(start))
		return nil, fmt.Errorf("wikipedia summary: decode response: %w", err)
	}
	c.metrics.ObserveUpstream(serviceName, "summary", metrics.OutcomeSuccess, time.Since(start))

	s := &Summary{
		Extract: res.Extract,
		PageURL: res.ContentURLs.Desktop.Page,
	}
	if res.Thumbnail != nil && res.Thumbnail.Source != "" {
		s.Thumbnail = res.Thumbnail
	}
	return s, nil
}
