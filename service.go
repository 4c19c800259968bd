package gtfsrtrelay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/departure"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/distance"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/download"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/filter"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/locator"
)

var (
	// ErrNotFound is returned for unknown trip, stop or route ids.
	ErrNotFound = errors.New("not found")
	// ErrStaticUnavailable is returned while no GTFS static dataset is loaded.
	ErrStaticUnavailable = errors.New("GTFS static data not available")
)

// FeedSource yields a freshly decoded real-time feed. *gtfsrt.Client
// implements it.
type FeedSource interface {
	FetchFeed(ctx context.Context) (*gtfsrt.Feed, error)
}

// Service holds every collaborator of the relay. It is built once at
// startup and only read afterwards; the index and download manager guard
// their own state.
type Service struct {
	Config    config.AppConfig
	Feed      FeedSource
	Index     *gtfs.Index
	Downloads *download.Manager
	Estimator *distance.Estimator
	Optimizer *departure.Optimizer
	Locator   *locator.Locator

	limits filter.Limits
	now    func() time.Time
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

func WithFeedSource(f FeedSource) ServiceOption { return func(s *Service) { s.Feed = f } }

func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }

func WithEstimator(e *distance.Estimator) ServiceOption {
	return func(s *Service) { s.Estimator = e }
}

func WithLocator(l *locator.Locator) ServiceOption { return func(s *Service) { s.Locator = l } }

func WithDownloadManager(m *download.Manager) ServiceOption {
	return func(s *Service) { s.Downloads = m }
}

// NewService wires the relay from cfg.
func NewService(cfg config.AppConfig, opts ...ServiceOption) *Service {
	idx := gtfs.NewIndex()
	s := &Service{
		Config: cfg,
		Feed: gtfsrt.NewClient(cfg.GTFSRT.FeedURL,
			gtfsrt.WithAPIKey(cfg.GTFSRT.APIKey),
			gtfsrt.WithTimeout(cfg.GTFSRT.Timeout),
			gtfsrt.WithMaxRetries(cfg.GTFSRT.MaxRetries),
		),
		Index:     idx,
		Downloads: download.NewManagerFromConfig(cfg.GTFS),
		Estimator: distance.NewEstimatorFromConfig(cfg.Routing),
		Optimizer: departure.New(cfg.Departure, idx),
		Locator:   locator.NewFromConfig(cfg.Locator),
		limits:    filter.Limits{Default: cfg.Filter.DefaultLimit, Max: cfg.Filter.MaxLimit},
		now:       time.Now,
	}
	if s.limits.Default <= 0 || s.limits.Max <= 0 {
		s.limits = filter.DefaultLimits
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits returns the bounds applied to the limit parameter.
func (s *Service) Limits() filter.Limits { return s.limits }

// Bootstrap loads the static index and, when auto-download is on and the
// cool-down has elapsed, refreshes the dataset first. Failures are logged
// and leave the relay running without enrichment.
func (s *Service) Bootstrap(ctx context.Context) {
	if !s.Index.Load(s.Downloads.DataDir()) {
		log.Warn().Str("dir", s.Downloads.DataDir()).Msg("No static GTFS data yet")
	}
	if !s.Config.GTFS.AutoDownload || !s.Downloads.ShouldDownload() {
		return
	}
	if err := s.RefreshSchedule(ctx, false); err != nil {
		log.Error().Err(err).Msg("Initial static GTFS download failed, continuing with existing data")
	}
}

// RefreshSchedule downloads the static dataset and reloads the index.
func (s *Service) RefreshSchedule(ctx context.Context, force bool) error {
	if err := s.Downloads.DownloadAndExtract(ctx, force); err != nil {
		return err
	}
	s.Index.Load(s.Downloads.DataDir())
	return nil
}

// TrainsResult is the /trains payload.
type TrainsResult struct {
	Timestamp   *time.Time             `json:"timestamp"`
	City        string                 `json:"city"`
	TotalTrains int                    `json:"total_trains"`
	Trains      []gtfsrt.TrainSnapshot `json:"trains"`
}

// Trains fetches the feed, enriches every train and applies c.
func (s *Service) Trains(ctx context.Context, c filter.Criteria) (*TrainsResult, error) {
	feed, err := s.Feed.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}
	trains := filter.Apply(s.Index.EnrichAll(feed.Trains), c)
	return &TrainsResult{
		Timestamp:   feed.Header.Timestamp,
		City:        "mnr",
		TotalTrains: len(trains),
		Trains:      trains,
	}, nil
}

// Train returns one enriched train by trip id.
func (s *Service) Train(ctx context.Context, tripID string) (gtfsrt.TrainSnapshot, error) {
	feed, err := s.Feed.FetchFeed(ctx)
	if err != nil {
		return gtfsrt.TrainSnapshot{}, err
	}
	t, ok := feed.TrainByID(tripID)
	if !ok {
		return gtfsrt.TrainSnapshot{}, fmt.Errorf("train %s: %w", tripID, ErrNotFound)
	}
	return s.Index.Enrich(t), nil
}

// Vehicles returns the vehicle positions of the current feed.
func (s *Service) Vehicles(ctx context.Context) ([]gtfsrt.VehicleSnapshot, error) {
	feed, err := s.Feed.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Vehicles, nil
}

// Alerts returns the service alerts of the current feed.
func (s *Service) Alerts(ctx context.Context) ([]gtfsrt.AlertSnapshot, error) {
	feed, err := s.Feed.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}
	return feed.Alerts, nil
}
