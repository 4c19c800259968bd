// Package filter narrows train snapshots by route, stations and ETA window.
package filter

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfsrt"
)

// ClockLayout is the accepted format of time window bounds.
const ClockLayout = "15:04"

// Criteria holds the optional predicates of a train query. Empty fields
// do not filter; a zero Limit means no limit.
type Criteria struct {
	Route       string
	Origin      string
	Destination string
	TimeFrom    string
	TimeTo      string
	Limit       int

	// Location is the zone whose wall clock the ETA is compared in.
	// Nil means UTC, the zone ETAs are reported in.
	Location *time.Location
}

// Matches reports whether train satisfies every set predicate.
func Matches(train gtfsrt.TrainSnapshot, c Criteria) bool {
	if c.Route != "" && train.Route() != c.Route {
		return false
	}
	if c.Origin != "" && !PassesThrough(train, c.Origin) {
		return false
	}
	if c.Destination != "" && !EndsAt(train, c.Destination) {
		return false
	}
	if (c.TimeFrom != "" || c.TimeTo != "") && !InTimeWindow(train, c.TimeFrom, c.TimeTo, c.Location) {
		return false
	}
	return true
}

// Apply returns the matching trains in input order, truncated to c.Limit.
func Apply(trains []gtfsrt.TrainSnapshot, c Criteria) []gtfsrt.TrainSnapshot {
	out := make([]gtfsrt.TrainSnapshot, 0)
	for _, t := range trains {
		if c.Limit > 0 && len(out) >= c.Limit {
			break
		}
		if Matches(t, c) {
			out = append(out, t)
		}
	}
	return out
}

// PassesThrough checks current stop, then next stop, then the stop list.
func PassesThrough(train gtfsrt.TrainSnapshot, stationID string) bool {
	if train.CurrentStop != nil && *train.CurrentStop == stationID {
		return true
	}
	if train.NextStop != nil && *train.NextStop == stationID {
		return true
	}
	for _, s := range train.Stops {
		if s.ID() == stationID {
			return true
		}
	}
	return false
}

// EndsAt is true only when stationID is the last stop of the trip.
func EndsAt(train gtfsrt.TrainSnapshot, stationID string) bool {
	if len(train.Stops) == 0 {
		return false
	}
	return train.Stops[len(train.Stops)-1].ID() == stationID
}

// InTimeWindow compares the time of day of the train's ETA with the
// inclusive [from, to] bounds, either of which may be empty. The date is
// ignored. A missing ETA or an unparsable bound never matches.
func InTimeWindow(train gtfsrt.TrainSnapshot, from, to string, loc *time.Location) bool {
	if train.ETA == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	eta := secondsOfDay(train.ETA.In(loc))

	if from != "" {
		b, err := time.Parse(ClockLayout, from)
		if err != nil || eta < secondsOfDay(b) {
			return false
		}
	}
	if to != "" {
		b, err := time.Parse(ClockLayout, to)
		if err != nil || eta > secondsOfDay(b) {
			return false
		}
	}
	return true
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
