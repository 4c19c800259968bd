package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// ErrServiceUnavailable marks transient upstream failures: timeouts,
// transport errors and non-2xx answers.
var ErrServiceUnavailable = errors.New("service unavailable")

// UpstreamError describes a failed upstream call.
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrServiceUnavailable}
	}
	return []error{ErrServiceUnavailable, e.Err}
}

// Client fetches the real-time feed over HTTP.
type Client struct {
	url        string
	apiKey     string
	timeout    time.Duration
	maxRetries uint64
	httpClient *http.Client
	extractor  *Extractor
}

// Option customizes a Client.
type Option func(*Client)

func WithAPIKey(key string) Option { return func(c *Client) { c.apiKey = key } }

func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = uint64(n)
		}
	}
}

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

func WithExtractor(x *Extractor) Option { return func(c *Client) { c.extractor = x } }

// NewClient creates a feed client for url. The default timeout is 30s and
// covers all retry attempts together.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		timeout:    30 * time.Second,
		maxRetries: 2,
		httpClient: &http.Client{},
		extractor:  defaultExtractor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the feed endpoint
func (c *Client) URL() string { return c.url }

// Fetch returns the raw protobuf bytes of the feed.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)

	body, err := backoff.RetryNotifyWithData(func() ([]byte, error) {
		return c.fetchOnce(ctx)
	}, b, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("url", c.url).Dur("retry_in", wait).Msg("Feed fetch failed, retrying")
	})
	if err != nil {
		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			err = &UpstreamError{URL: c.url, Err: err}
		}
		log.Error().Err(err).Str("url", c.url).Msg("Feed fetch failed")
		return nil, err
	}

	log.Debug().
		Str("url", c.url).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Feed fetched")
	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, backoff.Permanent(&UpstreamError{URL: c.url, Err: err})
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{URL: c.url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		uerr := &UpstreamError{URL: c.url, StatusCode: resp.StatusCode}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(uerr)
		}
		return nil, uerr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{URL: c.url, Err: err}
	}
	return body, nil
}

// FetchFeed fetches and decodes the feed. A body that does not parse as a
// FeedMessage is reported as ErrServiceUnavailable too: the relay cannot
// tell a broken upstream from a broken payload.
func (c *Client) FetchFeed(ctx context.Context) (*Feed, error) {
	body, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	feed, err := c.extractor.Decode(body)
	if err != nil {
		return nil, &UpstreamError{URL: c.url, Err: err}
	}
	log.Info().
		Int("entities", feed.EntityCount).
		Int("trains", len(feed.Trains)).
		Int("vehicles", len(feed.Vehicles)).
		Int("alerts", len(feed.Alerts)).
		Msg("Feed decoded")
	return feed, nil
}
