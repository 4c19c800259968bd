package locator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const unknown = "Unknown"

// Provider is one geolocation service.
type Provider struct {
	Name  string
	URL   string
	parse func(body []byte) (Location, error)
}

// Parse normalizes a provider response.
func (p Provider) Parse(body []byte) (Location, error) {
	loc, err := p.parse(body)
	if err != nil {
		return Location{}, fmt.Errorf("%s: %w", p.Name, err)
	}
	loc.Source = p.Name
	return loc, nil
}

// DefaultProviders returns ip-api.com, ipapi.co and ipinfo.io in that order.
func DefaultProviders() []Provider {
	return []Provider{
		IPAPI("http://ip-api.com/json/"),
		IPAPICo("https://ipapi.co/json/"),
		IPInfo("https://ipinfo.io/json"),
	}
}

// IPAPI reads the ip-api.com format.
func IPAPI(url string) Provider {
	return Provider{Name: "ip-api", URL: url, parse: func(b []byte) (Location, error) {
		var r struct {
			Status  string  `json:"status"`
			Message string  `json:"message"`
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
			City    string  `json:"city"`
			Country string  `json:"country"`
			ISP     string  `json:"isp"`
			Query   string  `json:"query"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return Location{}, err
		}
		if r.Status != "success" {
			return Location{}, fmt.Errorf("status %q: %s", r.Status, r.Message)
		}
		return newLocation(r.Lat, r.Lon, r.City, r.Country, r.ISP, r.Query), nil
	}}
}

// IPAPICo reads the ipapi.co format.
func IPAPICo(url string) Provider {
	return Provider{Name: "ipapi", URL: url, parse: func(b []byte) (Location, error) {
		var r struct {
			Error     bool     `json:"error"`
			Reason    string   `json:"reason"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			City      string   `json:"city"`
			Country   string   `json:"country_name"`
			Org       string   `json:"org"`
			IP        string   `json:"ip"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return Location{}, err
		}
		if r.Error {
			return Location{}, errors.New(r.Reason)
		}
		if r.Latitude == nil || r.Longitude == nil {
			return Location{}, errors.New("missing coordinates")
		}
		return newLocation(*r.Latitude, *r.Longitude, r.City, r.Country, r.Org, r.IP), nil
	}}
}

// IPInfo reads the ipinfo.io format, where "loc" is "lat,lon".
func IPInfo(url string) Provider {
	return Provider{Name: "ipinfo", URL: url, parse: func(b []byte) (Location, error) {
		var r struct {
			Loc     string `json:"loc"`
			City    string `json:"city"`
			Country string `json:"country"`
			Org     string `json:"org"`
			IP      string `json:"ip"`
		}
		if err := json.Unmarshal(b, &r); err != nil {
			return Location{}, err
		}
		lat, lon, err := parseLoc(r.Loc)
		if err != nil {
			return Location{}, err
		}
		return newLocation(lat, lon, r.City, r.Country, r.Org, r.IP), nil
	}}
}

func parseLoc(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid loc %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q", s)
	}
	return lat, lon, nil
}

func newLocation(lat, lon float64, city, country, isp, ip string) Location {
	return Location{
		Latitude:  lat,
		Longitude: lon,
		City:      orUnknown(city),
		Country:   orUnknown(country),
		ISP:       orUnknown(isp),
		IP:        orUnknown(ip),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
