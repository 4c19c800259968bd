package distance

import (
	"fmt"
	"time"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

func (p Point) String() string { return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon) }

// Method tags how a Result was computed.
type Method string

const (
	MethodRouting Method = "routing"
	MethodDirect  Method = "direct"
)

// Result is a walking estimate between two points.
type Result struct {
	DistanceKM      float64 `json:"distance_km"`
	DistanceMiles   float64 `json:"distance_miles"`
	DurationMinutes float64 `json:"duration_minutes"`
	RoutePoints     []Point `json:"route_points"`
	Method          Method  `json:"method"`
}

// Duration returns DurationMinutes as a time.Duration.
func (r Result) Duration() time.Duration {
	return time.Duration(r.DurationMinutes * float64(time.Minute))
}

// Speed is a walking pace preset.
type Speed string

const (
	Slow   Speed = "slow"
	Normal Speed = "normal"
	Fast   Speed = "fast"
)

var speedsKMH = map[Speed]float64{
	Slow:   3.0,
	Normal: 5.0,
	Fast:   6.5,
}

// KMH returns the pace in km/h; unknown presets walk at Normal pace.
func (s Speed) KMH() float64 {
	if v, ok := speedsKMH[s]; ok {
		return v
	}
	return speedsKMH[Normal]
}
