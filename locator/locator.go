package locator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
)

// ErrLocationUnavailable is returned when no provider answered and nothing
// is cached.
var ErrLocationUnavailable = errors.New("network location unavailable")

const (
	cacheKey  = "network_location"
	userAgent = "MNR-RT-Service-TravelAssist/1.0"
)

// Location is the estimated position of the host network.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	ISP       string    `json:"isp"`
	IP        string    `json:"ip"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Stale     bool      `json:"stale,omitempty"`
}

// Locator resolves the host location through a provider chain.
type Locator struct {
	providers []Provider
	timeout   time.Duration
	client    *http.Client
	cache     *fileCache
	now       func() time.Time
	parallel  bool
}

// Option customizes a Locator.
type Option func(*Locator)

func WithProviders(p ...Provider) Option { return func(l *Locator) { l.providers = p } }

func WithHTTPClient(c *http.Client) Option { return func(l *Locator) { l.client = c } }

func WithClock(now func() time.Time) Option { return func(l *Locator) { l.now = now } }

// WithParallel queries every provider at once. The answer of the earliest
// provider in the chain still wins.
func WithParallel(on bool) Option { return func(l *Locator) { l.parallel = on } }

// New creates a locator caching under cacheDir. An empty cacheDir disables
// the cache.
func New(cacheDir string, ttl, timeout time.Duration, opts ...Option) *Locator {
	l := &Locator{
		providers: DefaultProviders(),
		timeout:   timeout,
		client:    &http.Client{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.timeout <= 0 {
		l.timeout = 5 * time.Second
	}
	l.cache = &fileCache{dir: cacheDir, ttl: ttl, now: l.now}
	return l
}

// NewFromConfig creates a locator from cfg. opts are applied after the
// configured settings.
func NewFromConfig(cfg config.LocatorConfig, opts ...Option) *Locator {
	opts = append([]Option{WithParallel(cfg.Parallel)}, opts...)
	return New(cfg.CacheDir, cfg.CacheTTL, cfg.Timeout, opts...)
}

// Locate returns the host location. With useCache a fresh cache entry is
// returned without any network call.
func (l *Locator) Locate(ctx context.Context, useCache bool) (*Location, error) {
	if useCache {
		if loc, ok := l.cache.load(cacheKey, false); ok {
			log.Info().Str("source", loc.Source).Msg("Using cached network location")
			return loc, nil
		}
	}

	if loc, ok := l.query(ctx); ok {
		l.cache.save(cacheKey, *loc)
		return loc, nil
	}

	if loc, ok := l.cache.load(cacheKey, true); ok {
		log.Warn().Str("source", loc.Source).Msg("All providers failed, using expired location cache")
		loc.Stale = true
		return loc, nil
	}
	return nil, ErrLocationUnavailable
}

func (l *Locator) query(ctx context.Context) (*Location, bool) {
	if l.parallel {
		results := iter.Map(l.providers, func(p *Provider) *Location {
			loc, err := l.fetch(ctx, *p)
			if err != nil {
				log.Debug().Err(err).Str("provider", p.Name).Msg("Geolocation provider failed")
				return nil
			}
			return loc
		})
		for _, loc := range results {
			if loc != nil {
				return loc, true
			}
		}
		return nil, false
	}

	for _, p := range l.providers {
		loc, err := l.fetch(ctx, p)
		if err != nil {
			log.Debug().Err(err).Str("provider", p.Name).Msg("Geolocation provider failed")
			continue
		}
		return loc, true
	}
	return nil, false
}

func (l *Locator) fetch(ctx context.Context, p Provider) (*Location, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	loc, err := p.Parse(body)
	if err != nil {
		return nil, err
	}
	loc.Timestamp = l.now().UTC()
	log.Info().
		Str("provider", p.Name).
		Str("city", loc.City).
		Str("country", loc.Country).
		Msg("Fetched network location")
	return &loc, nil
}
