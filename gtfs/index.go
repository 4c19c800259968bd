package gtfs

import (
	"os"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfsrt"
)

type tables struct {
	routes map[string]Route
	stops  map[string]Stop
	trips  map[string]Trip
}

var emptyTables = &tables{
	routes: map[string]Route{},
	stops:  map[string]Stop{},
	trips:  map[string]Trip{},
}

// Index is the in-memory static schedule. It is safe for concurrent use:
// Load publishes a new table set, readers keep whichever set they started with.
type Index struct {
	current atomic.Pointer[tables]
	loaded  atomic.Bool
}

// NewIndex returns an empty, unloaded index.
func NewIndex() *Index {
	x := &Index{}
	x.current.Store(emptyTables)
	return x
}

func (x *Index) snapshot() *tables {
	return x.current.Load()
}

// Load reads routes.txt, stops.txt and trips.txt from dir. It returns false
// only when dir does not exist, in which case the previous tables are kept.
// Missing or unreadable tables load as empty.
func (x *Index) Load(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Warn().Str("dir", dir).Msg("GTFS static directory not available")
		return false
	}

	t := loadTables(dir)
	x.current.Store(t)
	x.loaded.Store(true)

	log.Info().
		Str("dir", dir).
		Int("routes", len(t.routes)).
		Int("stops", len(t.stops)).
		Int("trips", len(t.trips)).
		Msg("Loaded GTFS static data")
	return true
}

// Loaded reports whether a Load has succeeded.
func (x *Index) Loaded() bool { return x.loaded.Load() }

// Route returns the route with id.
func (x *Index) Route(id string) (*Route, bool) {
	r, ok := x.snapshot().routes[id]
	if !ok {
		return nil, false
	}
	return &r, true
}

// Stop returns the stop with id.
func (x *Index) Stop(id string) (*Stop, bool) {
	s, ok := x.snapshot().stops[id]
	if !ok {
		return nil, false
	}
	return &s, true
}

// Trip returns the trip with id.
func (x *Index) Trip(id string) (*Trip, bool) {
	t, ok := x.snapshot().trips[id]
	if !ok {
		return nil, false
	}
	return &t, true
}

// RouteName returns the display name of a route, if known.
func (x *Index) RouteName(routeID string) (string, bool) {
	r, ok := x.snapshot().routes[routeID]
	if !ok || r.DisplayName() == "" {
		return "", false
	}
	return r.DisplayName(), true
}

// Enrich returns a copy of train with display fields merged in from the
// static tables. Fields are set only when the lookup hits and the column is
// non-empty; train itself is not modified.
func (x *Index) Enrich(train gtfsrt.TrainSnapshot) gtfsrt.TrainSnapshot {
	t := x.snapshot()
	out := train

	if r, ok := t.routes[train.Route()]; ok {
		setIf(&out.RouteName, r.DisplayName())
		setIf(&out.RouteColor, r.Color)
		setIf(&out.RouteDesc, r.Desc)
		setIf(&out.RouteURL, r.URL)
	}
	if tr, ok := t.trips[train.Trip()]; ok {
		setIf(&out.TripHeadsign, tr.Headsign)
		setIf(&out.DirectionID, tr.DirectionID)
		setIf(&out.WheelchairAccessible, tr.WheelchairAccessible)
		setIf(&out.BikesAllowed, tr.BikesAllowed)
	}
	if train.CurrentStop != nil {
		if s, ok := t.stops[*train.CurrentStop]; ok {
			setIf(&out.CurrentStopName, s.Name)
			setIf(&out.CurrentPlatformCode, s.PlatformCode)
		}
	}
	if train.NextStop != nil {
		if s, ok := t.stops[*train.NextStop]; ok {
			setIf(&out.NextStopName, s.Name)
			setIf(&out.NextPlatformCode, s.PlatformCode)
		}
	}

	if train.Stops != nil {
		out.Stops = make([]gtfsrt.StopEvent, len(train.Stops))
		for i, ev := range train.Stops {
			if s, ok := t.stops[ev.ID()]; ok {
				setIf(&ev.StopName, s.Name)
				if lat, lon, ok := s.Coordinates(); ok {
					ev.StopLat = &lat
					ev.StopLon = &lon
				}
			}
			out.Stops[i] = ev
		}
	}
	return out
}

// EnrichAll enriches every train, keeping order.
func (x *Index) EnrichAll(trains []gtfsrt.TrainSnapshot) []gtfsrt.TrainSnapshot {
	out := make([]gtfsrt.TrainSnapshot, len(trains))
	for i, t := range trains {
		out[i] = x.Enrich(t)
	}
	return out
}

// ListStops returns every stop sorted by name, ties broken by id.
func (x *Index) ListStops() []Stop {
	t := x.snapshot()
	out := make([]Stop, 0, len(t.stops))
	for _, s := range t.stops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListRoutes returns every route sorted by id.
func (x *Index) ListRoutes() []Route {
	t := x.snapshot()
	out := make([]Route, 0, len(t.routes))
	for _, r := range t.routes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns the row count of each loaded table.
func (x *Index) Stats() Stats {
	t := x.snapshot()
	return Stats{
		Routes: len(t.routes),
		Stops:  len(t.stops),
		Trips:  len(t.trips),
		Loaded: x.Loaded(),
	}
}

func setIf(dst **string, v string) {
	if v == "" {
		return
	}
	*dst = &v
}
