package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QueryError reports a malformed request parameter.
type QueryError struct {
	Param string
	Msg   string
}

func (e *QueryError) Error() string { return e.Msg }

func queryErrorf(param, format string, args ...any) *QueryError {
	return &QueryError{Param: param, Msg: fmt.Sprintf(format, args...)}
}

// Limits bound the limit parameter.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits mirror the relay's documented defaults.
var DefaultLimits = Limits{Default: 20, Max: 100}

// supported city aliases
var cities = map[string]struct{}{
	"mnr":         {},
	"metro-north": {},
	"metronorth":  {},
}

// ValidateCity accepts an empty value or one of the Metro-North aliases.
func ValidateCity(city string) error {
	c := strings.ToLower(strings.TrimSpace(city))
	if c == "" {
		return nil
	}
	if _, ok := cities[c]; !ok {
		return queryErrorf("city", "Unsupported city: %s. Only 'mnr' (Metro-North Railroad) is supported.", city)
	}
	return nil
}

// ParseLimit parses a positive integer no larger than lim.Max. An empty
// value yields lim.Default.
func ParseLimit(s string, lim Limits) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return lim.Default, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > lim.Max {
		return 0, queryErrorf("limit", "limit must be an integer between 1 and %d.", lim.Max)
	}
	return v, nil
}

// ParseClock validates an HH:MM bound; empty is allowed.
func ParseClock(param, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(ClockLayout, s); err != nil {
		return "", queryErrorf(param, "%s must be a time in HH:MM format.", param)
	}
	return s, nil
}

// ParseCriteria reads route, origin_station, destination_station,
// time_from, time_to, limit and city from q.
func ParseCriteria(q url.Values, lim Limits) (Criteria, error) {
	if err := ValidateCity(q.Get("city")); err != nil {
		return Criteria{}, err
	}

	c := Criteria{
		Route:       strings.TrimSpace(q.Get("route")),
		Origin:      strings.TrimSpace(q.Get("origin_station")),
		Destination: strings.TrimSpace(q.Get("destination_station")),
	}

	var err error
	if c.Limit, err = ParseLimit(q.Get("limit"), lim); err != nil {
		return Criteria{}, err
	}
	if c.TimeFrom, err = ParseClock("time_from", q.Get("time_from")); err != nil {
		return Criteria{}, err
	}
	if c.TimeTo, err = ParseClock("time_to", q.Get("time_to")); err != nil {
		return Criteria{}, err
	}
	return c, nil
}
