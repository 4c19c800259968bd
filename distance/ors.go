package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/utils"
)

// ErrRoutingUnavailable wraps every routing failure, including a missing key.
var ErrRoutingUnavailable = errors.New("routing service unavailable")

const userAgent = "MNR-RT-Service-TravelAssist/1.0"

// Router computes a walking route between two points.
type Router interface {
	Route(ctx context.Context, from, to Point) (Result, error)
}

// ORSRouter calls the OpenRouteService directions API.
type ORSRouter struct {
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewORSRouter returns a router for the foot-walking endpoint at url.
func NewORSRouter(url, apiKey string, timeout time.Duration, client *http.Client) *ORSRouter {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ORSRouter{url: url, apiKey: apiKey, timeout: timeout, client: client}
}

type orsRequest struct {
	Coordinates [][2]float64 `json:"coordinates"`
	Profile     string       `json:"profile"`
	Format      string       `json:"format"`
	Units       string       `json:"units"`
}

type orsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry json.RawMessage `json:"geometry"`
	} `json:"routes"`
}

type orsGeometry struct {
	Coordinates [][]float64 `json:"coordinates"`
}

// Route posts both points in [lon, lat] order. Distance comes back in
// meters and duration in seconds.
func (r *ORSRouter) Route(ctx context.Context, from, to Point) (Result, error) {
	if r.apiKey == "" {
		return Result{}, fmt.Errorf("%w: no API key configured", ErrRoutingUnavailable)
	}

	body, err := json.Marshal(orsRequest{
		Coordinates: [][2]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
		Profile:     "foot-walking",
		Format:      "json",
		Units:       "m",
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	req.Header.Set("Authorization", r.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRoutingUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrRoutingUnavailable, resp.StatusCode)
	}

	var data orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{}, fmt.Errorf("%w: decoding response: %v", ErrRoutingUnavailable, err)
	}
	if len(data.Routes) == 0 {
		return Result{}, fmt.Errorf("%w: no route returned", ErrRoutingUnavailable)
	}

	route := data.Routes[0]
	km := route.Summary.Distance / utils.MetersPerKM
	return Result{
		DistanceKM:      km,
		DistanceMiles:   utils.KMToMiles(km),
		DurationMinutes: route.Summary.Duration / 60,
		RoutePoints:     routePoints(route.Geometry, from, to),
		Method:          MethodRouting,
	}, nil
}

// routePoints reads a GeoJSON geometry. Encoded polylines are not decoded;
// the endpoints are returned instead.
func routePoints(raw json.RawMessage, from, to Point) []Point {
	var g orsGeometry
	if len(raw) == 0 || json.Unmarshal(raw, &g) != nil || len(g.Coordinates) == 0 {
		return []Point{from, to}
	}
	pts := make([]Point, 0, len(g.Coordinates))
	for _, c := range g.Coordinates {
		if len(c) >= 2 {
			pts = append(pts, Point{Lat: c[1], Lon: c[0]})
		}
	}
	return pts
}
