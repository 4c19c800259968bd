package gtfsrt

import (
	"encoding/json"
	"strconv"
)

var vehicleStopStatusNames = []string{"INCOMING_AT", "STOPPED_AT", "IN_TRANSIT_TO"}

var congestionLevelNames = []string{
	"UNKNOWN_CONGESTION_LEVEL",
	"RUNNING_SMOOTHLY",
	"STOP_AND_GO",
	"CONGESTION",
	"SEVERE_CONGESTION",
}

var occupancyStatusNames = []string{
	"EMPTY",
	"MANY_SEATS_AVAILABLE",
	"FEW_SEATS_AVAILABLE",
	"STANDING_ROOM_ONLY",
	"CRUSHED_STANDING_ROOM_ONLY",
	"FULL",
	"NOT_ACCEPTING_PASSENGERS",
	"NO_DATA_AVAILABLE",
	"NOT_BOARDABLE",
}

// cause, effect and severity codes start at 1
var alertCauseNames = []string{
	"",
	"UNKNOWN_CAUSE",
	"OTHER_CAUSE",
	"TECHNICAL_PROBLEM",
	"STRIKE",
	"DEMONSTRATION",
	"ACCIDENT",
	"HOLIDAY",
	"WEATHER",
	"MAINTENANCE",
	"CONSTRUCTION",
	"POLICE_ACTIVITY",
	"MEDICAL_EMERGENCY",
}

var alertEffectNames = []string{
	"",
	"NO_SERVICE",
	"REDUCED_SERVICE",
	"SIGNIFICANT_DELAYS",
	"DETOUR",
	"ADDITIONAL_SERVICE",
	"MODIFIED_SERVICE",
	"OTHER_EFFECT",
	"UNKNOWN_EFFECT",
	"STOP_MOVED",
	"NO_EFFECT",
	"ACCESSIBILITY_ISSUE",
}

var severityLevelNames = []string{"", "UNKNOWN_SEVERITY", "INFO", "WARNING", "SEVERE"}

var scheduleRelationshipNames = []string{"SCHEDULED", "SKIPPED", "NO_DATA", "UNSCHEDULED"}

var incrementalityNames = []string{"FULL_DATASET", "DIFFERENTIAL"}

func lookupName(names []string, code int32, fallback string) string {
	if code < 0 || int(code) >= len(names) || names[code] == "" {
		return fallback
	}
	return names[code]
}

func VehicleStopStatusName(code int32) string {
	return lookupName(vehicleStopStatusNames, code, "IN_TRANSIT_TO")
}

func CongestionLevelName(code int32) string {
	return lookupName(congestionLevelNames, code, "UNKNOWN_CONGESTION_LEVEL")
}

func OccupancyStatusName(code int32) string {
	return lookupName(occupancyStatusNames, code, "NO_DATA_AVAILABLE")
}

func AlertCauseName(code int32) string {
	return lookupName(alertCauseNames, code, "UNKNOWN_CAUSE")
}

func AlertEffectName(code int32) string {
	return lookupName(alertEffectNames, code, "UNKNOWN_EFFECT")
}

func SeverityLevelName(code int32) string {
	return lookupName(severityLevelNames, code, "UNKNOWN_SEVERITY")
}

func ScheduleRelationshipName(code int32) string {
	return lookupName(scheduleRelationshipNames, code, "SCHEDULED")
}

func IncrementalityName(code int32) string {
	return lookupName(incrementalityNames, code, "FULL_DATASET")
}

// TriState distinguishes "explicitly false" from "not reported".
type TriState int

const (
	Unknown TriState = iota
	True
	False
)

// TriStateFromCode decodes the railroad amenity encoding: 1 yes, 2 no,
// anything else unknown.
func TriStateFromCode(code int32) TriState {
	switch code {
	case 1:
		return True
	case 2:
		return False
	}
	return Unknown
}

func (s TriState) String() string {
	switch s {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unknown"
}

// MarshalJSON renders Unknown as null.
func (s TriState) MarshalJSON() ([]byte, error) {
	switch s {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (s *TriState) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch {
	case v == nil:
		*s = Unknown
	case *v:
		*s = True
	default:
		*s = False
	}
	return nil
}

// BicyclesAllowedLabel renders the bicycle capacity of a carriage.
func BicyclesAllowedLabel(n int32) string {
	switch n {
	case -1:
		return "unlimited"
	case 0:
		return "prohibited"
	}
	return strconv.Itoa(int(n))
}
