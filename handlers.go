package gtfsrtrelay

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/departure"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/distance"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/filter"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/utils"
)

const serviceName = "MNR Real-Time Relay"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     serviceName,
		"description": "JSON API for Metro-North Railroad real-time train data",
		"endpoints": map[string]string{
			"/health":        "Health check",
			"/trains":        "Real-time trains (city, route, origin_station, destination_station, time_from, time_to, limit)",
			"/train/{id}":    "One train by trip id",
			"/vehicles":      "Vehicle positions",
			"/alerts":        "Service alerts",
			"/stations":      "Stations from the static schedule",
			"/routes":        "Routes from the static schedule",
			"/departures":    "Departure suggestions (station, destination, route, walking_minutes or lat/lon, preference)",
			"/gtfs/status":   "Static dataset status",
			"/gtfs/download": "POST to refresh the static dataset (force=true skips the cool-down)",
		},
	})
}

type healthResponse struct {
	Status      string     `json:"status"`
	Service     string     `json:"service"`
	Timestamp   string     `json:"timestamp"`
	GTFSLoaded  bool       `json:"gtfs_loaded"`
	GTFSStale   bool       `json:"gtfs_stale"`
	GTFSUpdated *time.Time `json:"gtfs_last_download"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.svc.Downloads.Info()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Service:     serviceName,
		Timestamp:   utils.Iso8601Now(),
		GTFSLoaded:  s.svc.Index.Loaded(),
		GTFSStale:   info.Stale,
		GTFSUpdated: info.LastDownload,
	})
}

func (s *Server) handleTrains(w http.ResponseWriter, r *http.Request) {
	c, err := filter.ParseCriteria(r.URL.Query(), s.svc.Limits())
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Trains(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Train(r.Context(), r.PathValue("trip_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	vs, err := s.svc.Vehicles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_vehicles": len(vs), "vehicles": vs})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	as, err := s.svc.Alerts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_alerts": len(as), "alerts": as})
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Index.Loaded() {
		writeError(w, r, ErrStaticUnavailable)
		return
	}
	stops := s.svc.Index.ListStops()
	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		matched := make([]gtfs.Stop, 0)
		for _, st := range stops {
			if strings.Contains(strings.ToLower(st.Name), q) {
				matched = append(matched, st)
			}
		}
		stops = matched
	}
	writeJSON(w, http.StatusOK, map[string]any{"total_stations": len(stops), "stations": stops})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Index.Loaded() {
		writeError(w, r, ErrStaticUnavailable)
		return
	}
	routes := s.svc.Index.ListRoutes()
	writeJSON(w, http.StatusOK, map[string]any{"total_routes": len(routes), "routes": routes})
}

func (s *Server) handleDepartures(w http.ResponseWriter, r *http.Request) {
	q, err := parseDepartureQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Departures(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGTFSStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"download": s.svc.Downloads.Info(),
		"index":    s.svc.Index.Stats(),
	})
}

func (s *Server) handleGTFSDownload(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := s.svc.RefreshSchedule(r.Context(), force); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "downloaded",
		"download": s.svc.Downloads.Info(),
		"index":    s.svc.Index.Stats(),
	})
}

func parseDepartureQuery(r *http.Request) (DepartureQuery, error) {
	v := r.URL.Query()
	q := DepartureQuery{
		Station:     strings.TrimSpace(v.Get("station")),
		Destination: strings.TrimSpace(v.Get("destination")),
		Route:       strings.TrimSpace(v.Get("route")),
		Preference:  departure.ParsePreference(v.Get("preference")),
	}
	if q.Station == "" {
		return q, &filter.QueryError{Param: "station", Msg: "station is required."}
	}

	if s := strings.TrimSpace(v.Get("walking_minutes")); s != "" {
		m, err := strconv.ParseFloat(s, 64)
		if err != nil || m < 0 {
			return q, &filter.QueryError{Param: "walking_minutes", Msg: "walking_minutes must be a non-negative number."}
		}
		d := time.Duration(m * float64(time.Minute))
		q.Walking = &d
	}

	latS, lonS := strings.TrimSpace(v.Get("lat")), strings.TrimSpace(v.Get("lon"))
	if latS != "" || lonS != "" {
		p, err := parsePoint(latS, lonS)
		if err != nil {
			return q, err
		}
		q.From = p
	}

	q.Locate, _ = strconv.ParseBool(v.Get("locate"))
	return q, nil
}

func parsePoint(latS, lonS string) (*distance.Point, error) {
	lat, err := strconv.ParseFloat(latS, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, &filter.QueryError{Param: "lat", Msg: fmt.Sprintf("lat must be a latitude in degrees, got %q.", latS)}
	}
	lon, err := strconv.ParseFloat(lonS, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, &filter.QueryError{Param: "lon", Msg: fmt.Sprintf("lon must be a longitude in degrees, got %q.", lonS)}
	}
	return &distance.Point{Lat: lat, Lon: lon}, nil
}
