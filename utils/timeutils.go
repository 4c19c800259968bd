package utils

import (
	"time"
)

// Iso8601Now returns the current time in ISO8601 format
func Iso8601Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// UnixSecondsToFloat renders t as fractional Unix seconds.
func UnixSecondsToFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// FloatToTime is the inverse of UnixSecondsToFloat.
func FloatToTime(sec float64) time.Time {
	whole := int64(sec)
	frac := int64((sec - float64(whole)) * float64(time.Second))
	return time.Unix(whole, frac)
}
