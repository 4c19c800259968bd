package utils

import "math"

const (
	EarthRadiusKM     = 6371.0
	MilesPerKilometer = 0.621371
	MetersPerKM       = 1000.0
)

// HaversineKM returns the great-circle distance between two lat/lon points.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// KMToMiles converts kilometers to statute miles
func KMToMiles(km float64) float64 { return km * MilesPerKilometer }
