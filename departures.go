package gtfsrtrelay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/departure"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/distance"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/filter"
)

// DepartureQuery describes a departure search. Walking time comes from
// Walking when set, otherwise it is estimated from From (or from the
// located host when Locate is set) to the station.
type DepartureQuery struct {
	Station     string
	Destination string
	Route       string
	Walking     *time.Duration
	From        *distance.Point
	Locate      bool
	Preference  departure.Preference
}

// WalkInfo describes how the walking time was obtained.
type WalkInfo struct {
	Source         string           `json:"source"`
	WalkingMinutes float64          `json:"walking_minutes"`
	Estimate       *distance.Result `json:"estimate,omitempty"`
	Display        string           `json:"display,omitempty"`
}

// DeparturesResult is the /departures payload.
type DeparturesResult struct {
	Station      string                `json:"station"`
	StationName  *string               `json:"station_name"`
	Destination  string                `json:"destination,omitempty"`
	GeneratedAt  time.Time             `json:"generated_at"`
	Walk         WalkInfo              `json:"walk"`
	Preference   departure.Preference  `json:"preference"`
	Candidates   []departure.Candidate `json:"candidates"`
	Suggestion   *departure.Candidate  `json:"suggestion"`
	Summary      string                `json:"summary,omitempty"`
	Notification string                `json:"notification,omitempty"`
}

// Departures ranks the trains leaving q.Station and picks one.
func (s *Service) Departures(ctx context.Context, q DepartureQuery) (*DeparturesResult, error) {
	if q.Station == "" {
		return nil, &filter.QueryError{Param: "station", Msg: "station is required."}
	}
	now := s.now()

	res := &DeparturesResult{
		Station:     q.Station,
		Destination: q.Destination,
		GeneratedAt: now.UTC(),
		Preference:  q.Preference,
	}
	if stop, ok := s.Index.Stop(q.Station); ok {
		name := stop.Name
		res.StationName = &name
	}

	walk, err := s.walkingTime(ctx, q)
	if err != nil {
		return nil, err
	}
	res.Walk = walk

	feed, err := s.Feed.FetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	walking := time.Duration(walk.WalkingMinutes * float64(time.Minute))
	res.Candidates = s.Optimizer.FindCandidates(feed.Trains, departure.Request{
		Origin:      q.Station,
		Destination: q.Destination,
		Route:       q.Route,
		Walking:     walking,
		Now:         now,
	})
	if res.Candidates == nil {
		res.Candidates = []departure.Candidate{}
	}

	res.Suggestion = s.Optimizer.Suggest(res.Candidates, q.Preference, now)
	if res.Suggestion != nil {
		res.Summary = s.Optimizer.FormatSuggestion(*res.Suggestion, true)
		if msg, ok := s.Optimizer.NotificationMessage(*res.Suggestion, now, s.Config.Departure.NotifyLead); ok {
			res.Notification = msg
		}
	}

	log.Info().
		Str("station", q.Station).
		Int("candidates", len(res.Candidates)).
		Bool("suggested", res.Suggestion != nil).
		Msg("Departures computed")
	return res, nil
}

func (s *Service) walkingTime(ctx context.Context, q DepartureQuery) (WalkInfo, error) {
	if q.Walking != nil {
		return WalkInfo{Source: "request", WalkingMinutes: q.Walking.Minutes()}, nil
	}

	from := q.From
	source := "coordinates"
	if from == nil && q.Locate {
		loc, err := s.Locator.Locate(ctx, true)
		if err != nil {
			return WalkInfo{}, err
		}
		from = &distance.Point{Lat: loc.Latitude, Lon: loc.Longitude}
		source = "network_location"
	}
	if from == nil {
		return WalkInfo{Source: "none"}, nil
	}

	stop, ok := s.Index.Stop(q.Station)
	if !ok {
		return WalkInfo{}, fmt.Errorf("station %s: %w", q.Station, ErrNotFound)
	}
	lat, lon, ok := stop.Coordinates()
	if !ok {
		return WalkInfo{}, &filter.QueryError{
			Param: "station",
			Msg:   fmt.Sprintf("station %s has no coordinates in the static dataset.", q.Station),
		}
	}

	est := s.Estimator.Estimate(ctx, *from, distance.Point{Lat: lat, Lon: lon})
	return WalkInfo{
		Source:         source,
		WalkingMinutes: s.Estimator.WalkingDuration(est).Minutes(),
		Estimate:       &est,
		Display:        distance.FormatDistance(est, true),
	}, nil
}
