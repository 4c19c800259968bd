package gtfs

import "strconv"

// Route is one row of routes.txt.
type Route struct {
	ID        string `csv:"route_id" json:"route_id"`
	LongName  string `csv:"route_long_name" json:"route_long_name"`
	ShortName string `csv:"route_short_name" json:"route_short_name"`
	Color     string `csv:"route_color" json:"route_color"`
	TextColor string `csv:"route_text_color" json:"route_text_color"`
	Type      string `csv:"route_type" json:"route_type"`
	Desc      string `csv:"route_desc" json:"route_desc,omitempty"`
	URL       string `csv:"route_url" json:"route_url,omitempty"`
}

// DisplayName is the long name, else the short name.
func (r Route) DisplayName() string {
	if r.LongName != "" {
		return r.LongName
	}
	return r.ShortName
}

// Stop is one row of stops.txt. Coordinates stay as the raw column text;
// use Coordinates for parsed values.
type Stop struct {
	ID                 string `csv:"stop_id" json:"stop_id"`
	Name               string `csv:"stop_name" json:"stop_name"`
	Code               string `csv:"stop_code" json:"stop_code"`
	Lat                string `csv:"stop_lat" json:"stop_lat"`
	Lon                string `csv:"stop_lon" json:"stop_lon"`
	WheelchairBoarding string `csv:"wheelchair_boarding" json:"wheelchair_boarding"`
	Desc               string `csv:"stop_desc" json:"stop_desc,omitempty"`
	URL                string `csv:"stop_url" json:"stop_url,omitempty"`
	ZoneID             string `csv:"zone_id" json:"zone_id,omitempty"`
	LocationType       string `csv:"location_type" json:"location_type,omitempty"`
	ParentStation      string `csv:"parent_station" json:"parent_station,omitempty"`
	PlatformCode       string `csv:"platform_code" json:"platform_code,omitempty"`
}

// Coordinates parses stop_lat and stop_lon.
func (s Stop) Coordinates() (lat, lon float64, ok bool) {
	lat, err := strconv.ParseFloat(s.Lat, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(s.Lon, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// Trip is one row of trips.txt.
type Trip struct {
	ID                   string `csv:"trip_id" json:"trip_id"`
	Headsign             string `csv:"trip_headsign" json:"trip_headsign"`
	ShortName            string `csv:"trip_short_name" json:"trip_short_name"`
	DirectionID          string `csv:"direction_id" json:"direction_id"`
	RouteID              string `csv:"route_id" json:"route_id"`
	BlockID              string `csv:"block_id" json:"block_id,omitempty"`
	ShapeID              string `csv:"shape_id" json:"shape_id,omitempty"`
	WheelchairAccessible string `csv:"wheelchair_accessible" json:"wheelchair_accessible,omitempty"`
	BikesAllowed         string `csv:"bikes_allowed" json:"bikes_allowed,omitempty"`
}

// Stats counts the rows of each table.
type Stats struct {
	Routes int  `json:"routes"`
	Stops  int  `json:"stops"`
	Trips  int  `json:"trips"`
	Loaded bool `json:"loaded"`
}
