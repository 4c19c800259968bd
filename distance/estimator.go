package distance

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/utils"
)

// DetourFactor scales straight-line distance to a realistic walk.
const DetourFactor = 1.2

// Estimator turns two points into a walking estimate.
type Estimator struct {
	router       Router
	speed        Speed
	safetyBuffer time.Duration
}

// NewEstimator creates an estimator. A nil router always uses the direct
// fallback.
func NewEstimator(router Router, speed Speed, safetyBuffer time.Duration) *Estimator {
	if speed == "" {
		speed = Normal
	}
	return &Estimator{router: router, speed: speed, safetyBuffer: safetyBuffer}
}

// NewEstimatorFromConfig wires an ORS router when a URL is configured.
func NewEstimatorFromConfig(cfg config.RoutingConfig) *Estimator {
	var router Router
	if cfg.URL != "" {
		router = NewORSRouter(cfg.URL, cfg.APIKey, cfg.Timeout, nil)
	}
	return NewEstimator(router, Speed(cfg.WalkingSpeed), cfg.SafetyBuffer)
}

// Estimate tries the router and falls back to Direct on any failure.
// It never returns an error.
func (e *Estimator) Estimate(ctx context.Context, from, to Point) Result {
	if e.router != nil {
		res, err := e.router.Route(ctx, from, to)
		if err == nil {
			log.Debug().
				Float64("distance_km", res.DistanceKM).
				Float64("duration_min", res.DurationMinutes).
				Msg("Calculated walking route")
			return res
		}
		log.Warn().Err(err).Msg("Routing failed, using direct distance")
	}
	return e.Direct(from, to)
}

// Direct is the great-circle estimate: haversine distance times
// DetourFactor, walked at the configured pace.
func (e *Estimator) Direct(from, to Point) Result {
	km := utils.HaversineKM(from.Lat, from.Lon, to.Lat, to.Lon) * DetourFactor
	return Result{
		DistanceKM:      km,
		DistanceMiles:   utils.KMToMiles(km),
		DurationMinutes: km / e.speed.KMH() * 60,
		RoutePoints:     []Point{from, to},
		Method:          MethodDirect,
	}
}

// WalkingDuration is the time to budget for the walk: the estimate plus
// the safety buffer.
func (e *Estimator) WalkingDuration(r Result) time.Duration {
	return r.Duration() + e.safetyBuffer
}

// WalkingEstimate breaks a walking time into base pace and buffer.
type WalkingEstimate struct {
	BaseMinutes     float64 `json:"base_duration_minutes"`
	BufferMinutes   float64 `json:"buffer_minutes"`
	DurationMinutes float64 `json:"duration_minutes"`
	Speed           Speed   `json:"speed_category"`
	SpeedKMH        float64 `json:"speed_kmh"`
}

// WalkingTime estimates how long distanceKM takes at speed, using the
// estimator's pace when speed is empty.
func (e *Estimator) WalkingTime(distanceKM float64, speed Speed, includeBuffer bool) WalkingEstimate {
	if speed == "" {
		speed = e.speed
	}
	base := distanceKM / speed.KMH() * 60
	w := WalkingEstimate{
		BaseMinutes:     base,
		BufferMinutes:   e.safetyBuffer.Minutes(),
		DurationMinutes: base,
		Speed:           speed,
		SpeedKMH:        speed.KMH(),
	}
	if includeBuffer {
		w.DurationMinutes += w.BufferMinutes
	}
	return w
}

// EstimateAsync runs Estimate in a goroutine. The channel receives exactly
// one value and is then closed.
func (e *Estimator) EstimateAsync(ctx context.Context, from, to Point) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		ch <- e.Estimate(ctx, from, to)
	}()
	return ch
}

// EstimateMany estimates from one origin to several destinations
// concurrently. Results keep the order of tos.
func (e *Estimator) EstimateMany(ctx context.Context, from Point, tos []Point) []Result {
	type indexed struct {
		i int
		r Result
	}
	p := pool.NewWithResults[indexed]().WithMaxGoroutines(8)
	for i, to := range tos {
		p.Go(func() indexed {
			return indexed{i: i, r: e.Estimate(ctx, from, to)}
		})
	}

	out := make([]Result, len(tos))
	for _, res := range p.Wait() {
		out[res.i] = res.r
	}
	return out
}

// FormatDistance renders "2.50 km (31 min walk)" or the miles variant.
func FormatDistance(r Result, metric bool) string {
	dist := fmt.Sprintf("%.2f miles", r.DistanceMiles)
	if metric {
		dist = fmt.Sprintf("%.2f km", r.DistanceKM)
	}
	return fmt.Sprintf("%s (%d min walk)", dist, int(r.DurationMinutes))
}
