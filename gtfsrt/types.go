package gtfsrt

import "time"

// StopTimeEvent is the arrival or departure prediction of a stop.
type StopTimeEvent struct {
	Time        *time.Time `json:"time"`
	Delay       *int32     `json:"delay"`
	Uncertainty *int32     `json:"uncertainty"`
}

// StopEvent is one stop_time_update of a trip.
type StopEvent struct {
	StopID               *string        `json:"stop_id"`
	StopSequence         *uint32        `json:"stop_sequence"`
	Arrival              *StopTimeEvent `json:"arrival"`
	Departure            *StopTimeEvent `json:"departure"`
	ScheduleRelationship string         `json:"schedule_relationship"`
	Track                *string        `json:"track"`
	Status               *string        `json:"status"`

	// filled by static enrichment
	StopName *string  `json:"stop_name,omitempty"`
	StopLat  *float64 `json:"stop_lat,omitempty"`
	StopLon  *float64 `json:"stop_lon,omitempty"`
}

// ID returns the stop id or "" when absent.
func (s StopEvent) ID() string {
	if s.StopID == nil {
		return ""
	}
	return *s.StopID
}

// DepartureTime returns the predicted departure, if known.
func (s StopEvent) DepartureTime() (time.Time, bool) {
	if s.Departure == nil || s.Departure.Time == nil {
		return time.Time{}, false
	}
	return *s.Departure.Time, true
}

// TrainSnapshot is the flattened view of one TripUpdate.
type TrainSnapshot struct {
	EntityID    string      `json:"entity_id,omitempty"`
	TripID      *string     `json:"trip_id"`
	RouteID     *string     `json:"route_id"`
	VehicleID   *string     `json:"vehicle_id"`
	StartDate   *string     `json:"start_date,omitempty"`
	Timestamp   *time.Time  `json:"timestamp"`
	Delay       *int32      `json:"delay"`
	CurrentStop *string     `json:"current_stop"`
	NextStop    *string     `json:"next_stop"`
	ETA         *time.Time  `json:"eta"`
	Track       *string     `json:"track"`
	Status      *string     `json:"status"`
	Stops       []StopEvent `json:"stops"`

	// filled by static enrichment
	RouteName            *string `json:"route_name,omitempty"`
	RouteColor           *string `json:"route_color,omitempty"`
	RouteDesc            *string `json:"route_desc,omitempty"`
	RouteURL             *string `json:"route_url,omitempty"`
	TripHeadsign         *string `json:"trip_headsign,omitempty"`
	DirectionID          *string `json:"direction_id,omitempty"`
	WheelchairAccessible *string `json:"wheelchair_accessible,omitempty"`
	BikesAllowed         *string `json:"bikes_allowed,omitempty"`
	CurrentStopName      *string `json:"current_stop_name,omitempty"`
	CurrentPlatformCode  *string `json:"current_platform_code,omitempty"`
	NextStopName         *string `json:"next_stop_name,omitempty"`
	NextPlatformCode     *string `json:"next_platform_code,omitempty"`
}

// Trip returns the trip id or "" when absent.
func (t TrainSnapshot) Trip() string { return deref(t.TripID) }

// Route returns the route id or "" when absent.
func (t TrainSnapshot) Route() string { return deref(t.RouteID) }

// Carriage is one entry of a vehicle's multi_carriage_details.
type Carriage struct {
	ID                  *string  `json:"id"`
	Label               *string  `json:"label"`
	Sequence            *uint32  `json:"sequence"`
	OccupancyStatus     *string  `json:"occupancy_status"`
	OccupancyPercentage *int32   `json:"occupancy_percentage"`
	BicyclesAllowed     *string  `json:"bicycles_allowed"`
	CarriageClass       *string  `json:"carriage_class"`
	QuietCarriage       TriState `json:"quiet_carriage"`
	ToiletFacilities    TriState `json:"toilet_facilities"`
}

// VehicleSnapshot is the flattened view of one VehiclePosition.
type VehicleSnapshot struct {
	EntityID            string     `json:"entity_id,omitempty"`
	TripID              *string    `json:"trip_id"`
	RouteID             *string    `json:"route_id"`
	VehicleID           *string    `json:"vehicle_id"`
	VehicleLabel        *string    `json:"vehicle_label,omitempty"`
	Latitude            *float64   `json:"latitude"`
	Longitude           *float64   `json:"longitude"`
	Bearing             *float64   `json:"bearing"`
	Speed               *float64   `json:"speed"`
	CurrentStopSequence *uint32    `json:"current_stop_sequence"`
	StopID              *string    `json:"stop_id"`
	CurrentStatus       *string    `json:"current_status"`
	Timestamp           *time.Time `json:"timestamp"`
	CongestionLevel     *string    `json:"congestion_level"`
	OccupancyStatus     *string    `json:"occupancy_status"`
	OccupancyPercentage *uint32    `json:"occupancy_percentage"`
	Carriages           []Carriage `json:"carriages"`
}

// ActivePeriod is one alert time range; either end may be open.
type ActivePeriod struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// TripRef identifies a trip inside an informed entity.
type TripRef struct {
	TripID  *string `json:"trip_id"`
	RouteID *string `json:"route_id"`
}

// InformedEntity is one selector of who an alert applies to.
type InformedEntity struct {
	AgencyID  *string  `json:"agency_id,omitempty"`
	RouteID   *string  `json:"route_id,omitempty"`
	RouteType *int32   `json:"route_type,omitempty"`
	Trip      *TripRef `json:"trip,omitempty"`
	StopID    *string  `json:"stop_id,omitempty"`
}

// AlertSnapshot is the flattened view of one Alert.
type AlertSnapshot struct {
	EntityID         string           `json:"entity_id,omitempty"`
	ActivePeriods    []ActivePeriod   `json:"active_periods"`
	InformedEntities []InformedEntity `json:"informed_entities"`
	Cause            string           `json:"cause"`
	Effect           string           `json:"effect"`
	HeaderText       *string          `json:"header_text"`
	DescriptionText  *string          `json:"description_text"`
	URL              *string          `json:"url"`
	SeverityLevel    string           `json:"severity_level"`
}

// Header mirrors the feed header.
type Header struct {
	ProtocolVersion string     `json:"protocol_version"`
	Timestamp       *time.Time `json:"timestamp"`
	Incrementality  string     `json:"incrementality"`
}

// Feed is one decoded feed message.
type Feed struct {
	Header      Header            `json:"header"`
	EntityCount int               `json:"entity_count"`
	Trains      []TrainSnapshot   `json:"trains"`
	Vehicles    []VehicleSnapshot `json:"vehicles"`
	Alerts      []AlertSnapshot   `json:"alerts"`
}

// TrainByID returns the first train whose trip id matches.
func (f *Feed) TrainByID(tripID string) (TrainSnapshot, bool) {
	if f == nil {
		return TrainSnapshot{}, false
	}
	for _, t := range f.Trains {
		if t.TripID != nil && *t.TripID == tripID {
			return t, true
		}
	}
	return TrainSnapshot{}, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
