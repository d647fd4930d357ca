package mteam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
)

const (
	defaultMinDelay = 2 * time.Second
	defaultMaxDelay = 5 * time.Second

	// downloadSuffix selects the HTTPS/IPv4 variant of a download link
	downloadSuffix = "useHttps=true&type=ipv4"
)

// Client represents an M-Team API client
type Client struct {
	baseURL    string
	apiKey     string
	rss        string
	httpClient *http.Client
	logger     zerolog.Logger
	minDelay   time.Duration
	maxDelay   time.Duration
}

// NewClient creates a new M-Team client
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: tracker URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tracker API key is required", ErrInvalidConfig)
	}

	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   logger,
		minDelay: defaultMinDelay,
		maxDelay: defaultMaxDelay,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// wait pauses for a random duration to stay below the tracker rate limit
func (c *Client) wait(ctx context.Context) error {
	d := c.minDelay + rand.N(c.maxDelay-c.minDelay+1)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// post sends a POST request to an API endpoint and returns the data field
// of a successful response. A nil form sends body as JSON.
func (c *Client) post(ctx context.Context, endpoint string, form url.Values, body any) (json.RawMessage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var (
		reader      io.Reader
		contentType string
	)
	if form != nil {
		reader = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Msg("Making tracker API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if env.Message != "SUCCESS" {
		return nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    env.Message,
		}
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, ErrNoData
	}

	return env.Data, nil
}

// Search searches the tracker for torrents
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Torrent, error) {
	body := searchRequest{
		Mode:       q.Mode,
		PageNumber: q.Page,
		PageSize:   q.PageSize,
		Keyword:    q.Keyword,
	}
	if q.Free {
		body.Discount = DiscountFree
	}

	data, err := c.post(ctx, "/torrent/search", nil, body)
	if err != nil {
		return nil, fmt.Errorf("failed to search torrents: %w", err)
	}

	var result searchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse search result: %w", err)
	}

	c.logger.Debug().
		Str("mode", q.Mode).
		Int("page", q.Page).
		Int("count", len(result.Data)).
		Int64("total", int64(result.Total)).
		Msg("Retrieved search results from tracker")

	return result.Data, nil
}

// Detail retrieves the full record of a torrent
func (c *Client) Detail(ctx context.Context, tid string) (*Detail, error) {
	data, err := c.post(ctx, "/torrent/detail", url.Values{"id": {tid}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get detail for %s: %w", tid, err)
	}

	var detail Detail
	if err := json.Unmarshal(data, &detail.Torrent); err != nil {
		return nil, fmt.Errorf("failed to parse detail for %s: %w", tid, err)
	}
	detail.Raw = append(json.RawMessage(nil), data...)

	return &detail, nil
}

// DownloadURL generates a temporary download link for a torrent
func (c *Client) DownloadURL(ctx context.Context, tid string) (string, error) {
	data, err := c.post(ctx, "/torrent/genDlToken", url.Values{"id": {tid}}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate download token for %s: %w", tid, err)
	}

	var link string
	if err := json.Unmarshal(data, &link); err != nil {
		return "", fmt.Errorf("failed to parse download token for %s: %w", tid, err)
	}
	if link == "" {
		return "", fmt.Errorf("empty download link for %s: %w", tid, ErrNoData)
	}

	return link, nil
}

// Fetch downloads the torrent file behind a link returned by DownloadURL
func (c *Client) Fetch(ctx context.Context, link string) ([]byte, error) {
	sep := "&"
	if !strings.Contains(link, "?") {
		sep = "?"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link+sep+downloadSuffix, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Endpoint:   "download",
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read torrent: %w", err)
	}

	return payload, nil
}

// Latest retrieves the newest items of the RSS feed
func (c *Client) Latest(ctx context.Context) ([]FeedItem, error) {
	if c.rss == "" {
		return nil, ErrNoFeed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rss, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Endpoint:   "rss",
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]FeedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		tid := strings.TrimSpace(it.GUID)
		if tid == "" {
			c.logger.Debug().Str("title", it.Title).Msg("Skipping feed item without guid")
			continue
		}

		item := FeedItem{
			TID:   tid,
			Title: it.Title,
			Link:  it.Link,
		}
		if it.PublishedParsed != nil {
			item.Published = *it.PublishedParsed
		}
		items = append(items, item)
	}

	c.logger.Debug().Int("count", len(items)).Msg("Retrieved feed items from tracker")

	return items, nil
}

// Profile retrieves the member owning the API key
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	data, err := c.post(ctx, "/member/profile", url.Values{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	return &profile, nil
}
