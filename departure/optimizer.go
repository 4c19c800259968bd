// Package departure ranks the trains a rider can still catch from a station
// given their walking time, and recommends one.
package departure

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfsrt"
)

// TrackTBD is shown when the feed carries no track for the departure.
const TrackTBD = "TBD"

// RouteNamer resolves a route id to a display name. *gtfs.Index implements it.
type RouteNamer interface {
	RouteName(routeID string) (string, bool)
}

// Metro-North lines, used when the static dataset has no name.
var builtinRouteNames = map[string]string{
	"1": "Hudson",
	"2": "Harlem",
	"3": "New Haven",
	"4": "Pascack Valley",
	"5": "Port Jervis",
	"6": "Wassaic",
}

// Request describes one departure search.
type Request struct {
	Origin      string
	Destination string
	Route       string
	Walking     time.Duration
	Now         time.Time
}

// Candidate is one train the rider could take from the origin.
type Candidate struct {
	TripID                string        `json:"trip_id"`
	RouteID               string        `json:"route_id"`
	RouteName             string        `json:"route_name"`
	DepartureTime         time.Time     `json:"departure_time"`
	LeaveTime             time.Time     `json:"leave_time"`
	WalkingDuration       time.Duration `json:"-"`
	BufferTime            time.Duration `json:"-"`
	Status                string        `json:"status"`
	Track                 string        `json:"track"`
	Feasible              bool          `json:"feasible"`
	MinutesUntilDeparture float64       `json:"minutes_until_departure"`
}

// MarshalJSON renders the durations in minutes.
func (c Candidate) MarshalJSON() ([]byte, error) {
	type plain Candidate
	return json.Marshal(struct {
		plain
		WalkingMinutes float64 `json:"walking_minutes"`
		BufferMinutes  float64 `json:"buffer_minutes"`
	}{plain(c), c.WalkingDuration.Minutes(), c.BufferTime.Minutes()})
}

// Optimizer finds and ranks departure candidates.
type Optimizer struct {
	MinBuffer      time.Duration
	MaxSuggestions int
	Routes         RouteNamer
	// Location is used for clock times in rendered messages.
	Location *time.Location
}

// New builds an optimizer from the departure config. routes may be nil.
func New(cfg config.DepartureConfig, routes RouteNamer) *Optimizer {
	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("Unknown timezone, using UTC")
		} else {
			loc = l
		}
	}
	return &Optimizer{
		MinBuffer:      cfg.MinBuffer,
		MaxSuggestions: cfg.MaxSuggestions,
		Routes:         routes,
		Location:       loc,
	}
}

// FindCandidates scans trains for departures from req.Origin. Each trip
// contributes at most one candidate: its first origin stop with a known
// departure time. With a destination set, the trip must reach it at a
// later stop. Results are sorted by departure and capped at MaxSuggestions.
func (o *Optimizer) FindCandidates(trains []gtfsrt.TrainSnapshot, req Request) []Candidate {
	var out []Candidate
	for _, train := range trains {
		if req.Route != "" && train.Route() != req.Route {
			continue
		}
		if c, ok := o.candidate(train, req); ok {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DepartureTime.Before(out[j].DepartureTime)
	})
	if o.MaxSuggestions > 0 && len(out) > o.MaxSuggestions {
		out = out[:o.MaxSuggestions]
	}

	log.Debug().
		Str("origin", req.Origin).
		Int("candidates", len(out)).
		Msg("Departure candidates computed")
	return out
}

func (o *Optimizer) candidate(train gtfsrt.TrainSnapshot, req Request) (Candidate, bool) {
	for i, stop := range train.Stops {
		if stop.ID() != req.Origin {
			continue
		}
		dep, ok := stop.DepartureTime()
		if !ok {
			continue
		}
		if req.Destination != "" && !servesLater(train.Stops[i+1:], req.Destination) {
			return Candidate{}, false
		}

		leave := dep.Add(-req.Walking).Add(-o.MinBuffer)
		track := TrackTBD
		if stop.Track != nil && *stop.Track != "" {
			track = *stop.Track
		}
		return Candidate{
			TripID:                train.Trip(),
			RouteID:               train.Route(),
			RouteName:             o.routeName(train.Route()),
			DepartureTime:         dep,
			LeaveTime:             leave,
			WalkingDuration:       req.Walking,
			BufferTime:            o.MinBuffer,
			Status:                departureStatus(stop),
			Track:                 track,
			Feasible:              !leave.Before(req.Now),
			MinutesUntilDeparture: dep.Sub(req.Now).Minutes(),
		}, true
	}
	return Candidate{}, false
}

func servesLater(stops []gtfsrt.StopEvent, destination string) bool {
	for _, s := range stops {
		if s.ID() == destination {
			return true
		}
	}
	return false
}

// departureStatus is "On Time" unless the departure is more than a minute late.
func departureStatus(stop gtfsrt.StopEvent) string {
	if stop.Departure != nil && stop.Departure.Delay != nil && *stop.Departure.Delay > 60 {
		return fmt.Sprintf("Delayed %d min", *stop.Departure.Delay/60)
	}
	return "On Time"
}

func (o *Optimizer) routeName(routeID string) string {
	if o.Routes != nil {
		if name, ok := o.Routes.RouteName(routeID); ok {
			return name
		}
	}
	if name, ok := builtinRouteNames[routeID]; ok {
		return name
	}
	return "Route " + routeID
}

// Preference selects among feasible candidates.
type Preference string

const (
	Earliest Preference = "earliest"
	MostTime Preference = "most_time"
)

// ParsePreference maps unknown values to Earliest.
func ParsePreference(s string) Preference {
	if Preference(strings.ToLower(strings.TrimSpace(s))) == MostTime {
		return MostTime
	}
	return Earliest
}

// Suggest picks one feasible candidate, or nil when none is feasible.
// cands must be sorted by departure as FindCandidates returns them.
func (o *Optimizer) Suggest(cands []Candidate, pref Preference, now time.Time) *Candidate {
	var best *Candidate
	for i := range cands {
		c := &cands[i]
		if !c.Feasible {
			continue
		}
		if pref != MostTime {
			return c
		}
		if best == nil || c.DepartureTime.Sub(now) > best.DepartureTime.Sub(now) {
			best = c
		}
	}
	return best
}
