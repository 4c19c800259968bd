package gtfsrt

import (
	"encoding/json"
	"testing"
)

func TestEnumNames(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int32) string
		code int32
		want string
	}{
		{"stop status known", VehicleStopStatusName, 1, "STOPPED_AT"},
		{"stop status unknown", VehicleStopStatusName, 9, "IN_TRANSIT_TO"},
		{"congestion known", CongestionLevelName, 2, "STOP_AND_GO"},
		{"congestion negative", CongestionLevelName, -3, "UNKNOWN_CONGESTION_LEVEL"},
		{"occupancy first", OccupancyStatusName, 0, "EMPTY"},
		{"occupancy last", OccupancyStatusName, 8, "NOT_BOARDABLE"},
		{"occupancy future code", OccupancyStatusName, 42, "NO_DATA_AVAILABLE"},
		{"cause weather", AlertCauseName, 8, "WEATHER"},
		{"cause last", AlertCauseName, 12, "MEDICAL_EMERGENCY"},
		{"cause zero", AlertCauseName, 0, "UNKNOWN_CAUSE"},
		{"cause future", AlertCauseName, 13, "UNKNOWN_CAUSE"},
		{"effect delays", AlertEffectName, 3, "SIGNIFICANT_DELAYS"},
		{"effect last", AlertEffectName, 11, "ACCESSIBILITY_ISSUE"},
		{"effect future", AlertEffectName, 99, "UNKNOWN_EFFECT"},
		{"severity severe", SeverityLevelName, 4, "SEVERE"},
		{"severity future", SeverityLevelName, 5, "UNKNOWN_SEVERITY"},
		{"schedule skipped", ScheduleRelationshipName, 1, "SKIPPED"},
		{"schedule unscheduled", ScheduleRelationshipName, 3, "UNSCHEDULED"},
		{"schedule future", ScheduleRelationshipName, 7, "SCHEDULED"},
		{"incrementality differential", IncrementalityName, 1, "DIFFERENTIAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.code); got != tt.want {
				t.Errorf("code %d: got %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}

func TestTriState(t *testing.T) {
	tests := []struct {
		code     int32
		want     TriState
		wantJSON string
	}{
		{1, True, "true"},
		{2, False, "false"},
		{0, Unknown, "null"},
		{3, Unknown, "null"},
	}

	for _, tt := range tests {
		got := TriStateFromCode(tt.code)
		if got != tt.want {
			t.Errorf("TriStateFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
		b, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(b) != tt.wantJSON {
			t.Errorf("json for %d = %s, want %s", tt.code, b, tt.wantJSON)
		}

		var back TriState
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if back != got {
			t.Errorf("json round trip changed %v to %v", got, back)
		}
	}
}

func TestBicyclesAllowedLabel(t *testing.T) {
	tests := map[int32]string{
		-1: "unlimited",
		0:  "prohibited",
		4:  "4",
	}
	for in, want := range tests {
		if got := BicyclesAllowedLabel(in); got != want {
			t.Errorf("BicyclesAllowedLabel(%d) = %s, want %s", in, got, want)
		}
	}
}
