package gtfsrt

import (
	"encoding/json"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

func TestDecode_EndToEnd(t *testing.T) {
	stop1 := stopUpdate("STOP_1", 1609511400, 1609511460, sp("42"), sp("On Time"))
	stop1.Arrival.Delay = i32(120)
	fm := feedMessage(tripUpdateEntity("e1", "T1", "1", stop1, stopUpdate("STOP_2", 1609512000, 0, nil, nil)))

	feed, err := Decode(marshalFeed(t, fm))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(feed.Trains) != 1 {
		t.Fatalf("expected 1 train, got %d", len(feed.Trains))
	}

	train := feed.Trains[0]
	if train.Trip() != "T1" || train.Route() != "1" {
		t.Errorf("unexpected ids trip=%s route=%s", train.Trip(), train.Route())
	}
	if train.Track == nil || *train.Track != "42" {
		t.Errorf("expected track 42, got %v", train.Track)
	}
	if train.Status == nil || *train.Status != "On Time" {
		t.Errorf("expected status On Time, got %v", train.Status)
	}
	if train.CurrentStop == nil || *train.CurrentStop != "STOP_1" {
		t.Errorf("expected current stop STOP_1, got %v", train.CurrentStop)
	}
	if train.NextStop == nil || *train.NextStop != "STOP_2" {
		t.Errorf("expected next stop STOP_2, got %v", train.NextStop)
	}
	if d := train.Stops[0].Arrival.Delay; d == nil || *d != 120 {
		t.Errorf("expected arrival delay 120, got %v", d)
	}
	if train.EntityID != "e1" {
		t.Errorf("expected entity id e1, got %s", train.EntityID)
	}
	if feed.Header.ProtocolVersion != "2.0" || feed.Header.Incrementality != "FULL_DATASET" {
		t.Errorf("unexpected header %+v", feed.Header)
	}

	t.Logf("✓ Train %s at %s on track %s", train.Trip(), *train.CurrentStop, *train.Track)
}

func TestTrain_ZeroStops(t *testing.T) {
	tu := &gtfsrtpb.TripUpdate{Trip: &gtfsrtpb.TripDescriptor{TripId: sp("T9")}}
	train := NewExtractor(DefaultExtensions()).Train(tu)

	if train.CurrentStop != nil || train.NextStop != nil || train.ETA != nil || train.Track != nil || train.Status != nil {
		t.Errorf("zero-stop trip should have nil derived fields: %+v", train)
	}
	if train.Stops == nil || len(train.Stops) != 0 {
		t.Errorf("stops should be an empty list, got %v", train.Stops)
	}
	if train.RouteID != nil {
		t.Error("absent route id must stay nil")
	}
}

func TestTrain_DerivedFields(t *testing.T) {
	x := NewExtractor(DefaultExtensions())

	tests := []struct {
		name     string
		stops    []*gtfsrtpb.TripUpdate_StopTimeUpdate
		wantCur  string
		wantNext *string
		wantETA  int64
	}{
		{
			name:    "single stop has no next",
			stops:   []*gtfsrtpb.TripUpdate_StopTimeUpdate{stopUpdate("A", 100, 0, nil, nil)},
			wantCur: "A",
			wantETA: 100,
		},
		{
			name: "eta falls back to departure",
			stops: []*gtfsrtpb.TripUpdate_StopTimeUpdate{
				stopUpdate("A", 0, 200, nil, nil),
				stopUpdate("B", 300, 0, nil, nil),
			},
			wantCur:  "A",
			wantNext: sp("B"),
			wantETA:  200,
		},
		{
			name: "three stops",
			stops: []*gtfsrtpb.TripUpdate_StopTimeUpdate{
				stopUpdate("A", 100, 110, nil, nil),
				stopUpdate("B", 200, 210, nil, nil),
				stopUpdate("C", 300, 0, nil, nil),
			},
			wantCur:  "A",
			wantNext: sp("B"),
			wantETA:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			train := x.Train(&gtfsrtpb.TripUpdate{StopTimeUpdate: tt.stops})
			if train.CurrentStop == nil || *train.CurrentStop != tt.wantCur {
				t.Errorf("current stop = %v, want %s", train.CurrentStop, tt.wantCur)
			}
			if (train.NextStop == nil) != (tt.wantNext == nil) ||
				(train.NextStop != nil && *train.NextStop != *tt.wantNext) {
				t.Errorf("next stop = %v, want %v", train.NextStop, tt.wantNext)
			}
			if train.ETA == nil || train.ETA.Unix() != tt.wantETA {
				t.Errorf("eta = %v, want %d", train.ETA, tt.wantETA)
			}
			if train.Track != nil {
				t.Errorf("no extension means nil track, got %q", *train.Track)
			}
		})
	}
}

func TestTrain_ZeroDelayIsPreserved(t *testing.T) {
	tu := &gtfsrtpb.TripUpdate{
		Delay: i32(0),
		StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{{
			StopId:    sp("A"),
			Departure: &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: i32(0)},
		}},
	}
	train := NewExtractor(nil).Train(tu)

	if train.Delay == nil || *train.Delay != 0 {
		t.Errorf("explicit zero delay must be kept, got %v", train.Delay)
	}
	if train.Stops[0].Arrival != nil {
		t.Error("absent arrival must be nil")
	}
	if train.Stops[0].Departure.Time != nil {
		t.Error("absent departure time must be nil")
	}
	if train.Stops[0].StopSequence != nil {
		t.Error("absent stop sequence must be nil")
	}
	if train.ETA != nil {
		t.Error("no times means nil eta")
	}
}

func TestTrain_JSONNulls(t *testing.T) {
	train := NewExtractor(nil).Train(&gtfsrtpb.TripUpdate{})
	b, err := json.Marshal(train)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"trip_id", "current_stop", "next_stop", "eta", "track", "status", "delay"} {
		v, ok := m[key]
		if !ok {
			t.Errorf("key %s should be present", key)
		} else if v != nil {
			t.Errorf("key %s should be null, got %v", key, v)
		}
	}
	if _, ok := m["route_name"]; ok {
		t.Error("enrichment fields should be omitted until enriched")
	}
}

func TestVehicle_Extraction(t *testing.T) {
	cd1 := &gtfsrtpb.VehiclePosition_CarriageDetails{
		Id:                  sp("car-1"),
		CarriageSequence:    u32(1),
		OccupancyPercentage: i32(-1),
		OccupancyStatus:     gtfsrtpb.VehiclePosition_FEW_SEATS_AVAILABLE.Enum(),
	}
	AttachCarriageExtension(cd1, RailroadCarriageDetails{
		BicyclesAllowed:  i32(0),
		CarriageClass:    sp("coach"),
		QuietCarriage:    True,
		ToiletFacilities: False,
	})
	cd2 := &gtfsrtpb.VehiclePosition_CarriageDetails{Id: sp("car-2"), OccupancyPercentage: i32(55)}

	fm := feedMessage(&gtfsrtpb.FeedEntity{
		Id: sp("v1"),
		Vehicle: &gtfsrtpb.VehiclePosition{
			Trip:                 &gtfsrtpb.TripDescriptor{TripId: sp("T1"), RouteId: sp("2")},
			Vehicle:              &gtfsrtpb.VehicleDescriptor{Id: sp("V100")},
			Position:             &gtfsrtpb.Position{Latitude: f32(41.0), Longitude: f32(-73.5)},
			CurrentStatus:        gtfsrtpb.VehiclePosition_STOPPED_AT.Enum(),
			Timestamp:            u64(1609511400),
			MultiCarriageDetails: []*gtfsrtpb.VehiclePosition_CarriageDetails{cd1, cd2},
		},
	})

	feed, err := Decode(marshalFeed(t, fm))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(feed.Vehicles) != 1 {
		t.Fatalf("expected 1 vehicle, got %d", len(feed.Vehicles))
	}
	v := feed.Vehicles[0]

	if v.CurrentStatus == nil || *v.CurrentStatus != "STOPPED_AT" {
		t.Errorf("unexpected status %v", v.CurrentStatus)
	}
	if v.CongestionLevel != nil || v.OccupancyStatus != nil || v.Bearing != nil {
		t.Error("absent enums and bearing should be nil")
	}
	if v.Latitude == nil || *v.Latitude != 41.0 {
		t.Errorf("unexpected latitude %v", v.Latitude)
	}
	if v.Timestamp == nil || !v.Timestamp.Equal(time.Unix(1609511400, 0)) {
		t.Errorf("unexpected timestamp %v", v.Timestamp)
	}
	if len(v.Carriages) != 2 {
		t.Fatalf("expected 2 carriages, got %d", len(v.Carriages))
	}

	c1 := v.Carriages[0]
	if c1.OccupancyPercentage != nil {
		t.Errorf("-1 occupancy must be suppressed, got %d", *c1.OccupancyPercentage)
	}
	if c1.OccupancyStatus == nil || *c1.OccupancyStatus != "FEW_SEATS_AVAILABLE" {
		t.Errorf("unexpected carriage occupancy %v", c1.OccupancyStatus)
	}
	if c1.BicyclesAllowed == nil || *c1.BicyclesAllowed != "prohibited" {
		t.Errorf("unexpected bicycles %v", c1.BicyclesAllowed)
	}
	if c1.QuietCarriage != True || c1.ToiletFacilities != False {
		t.Errorf("unexpected amenities quiet=%v toilet=%v", c1.QuietCarriage, c1.ToiletFacilities)
	}

	c2 := v.Carriages[1]
	if c2.OccupancyPercentage == nil || *c2.OccupancyPercentage != 55 {
		t.Errorf("expected 55%% occupancy, got %v", c2.OccupancyPercentage)
	}
	if c2.BicyclesAllowed != nil || c2.QuietCarriage != Unknown {
		t.Error("carriage without extension should have unknown amenities")
	}
}

func TestAlert_Extraction(t *testing.T) {
	fm := feedMessage(&gtfsrtpb.FeedEntity{
		Id: sp("a1"),
		Alert: &gtfsrtpb.Alert{
			ActivePeriod: []*gtfsrtpb.TimeRange{
				{Start: u64(1609511400)},
				{Start: u64(1609600000), End: u64(1609603600)},
			},
			InformedEntity: []*gtfsrtpb.EntitySelector{
				{RouteId: sp("1")},
				{Trip: &gtfsrtpb.TripDescriptor{TripId: sp("T1")}, StopId: sp("1")},
			},
			Effect: gtfsrtpb.Alert_SIGNIFICANT_DELAYS.Enum(),
			HeaderText: &gtfsrtpb.TranslatedString{Translation: []*gtfsrtpb.TranslatedString_Translation{
				{Text: sp("Delays on Hudson"), Language: sp("en")},
				{Text: sp("Retrasos en Hudson"), Language: sp("es")},
			}},
		},
	})

	feed, err := Decode(marshalFeed(t, fm))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	a := feed.Alerts[0]

	if a.Cause != "UNKNOWN_CAUSE" {
		t.Errorf("absent cause should default to UNKNOWN_CAUSE, got %s", a.Cause)
	}
	if a.Effect != "SIGNIFICANT_DELAYS" {
		t.Errorf("unexpected effect %s", a.Effect)
	}
	if a.SeverityLevel != "UNKNOWN_SEVERITY" {
		t.Errorf("unexpected severity %s", a.SeverityLevel)
	}
	if a.HeaderText == nil || *a.HeaderText != "Delays on Hudson" {
		t.Errorf("only the first translation should be kept, got %v", a.HeaderText)
	}
	if a.DescriptionText != nil || a.URL != nil {
		t.Error("absent texts should be nil")
	}
	if len(a.ActivePeriods) != 2 || a.ActivePeriods[0].End != nil {
		t.Errorf("unexpected periods %+v", a.ActivePeriods)
	}
	if len(a.InformedEntities) != 2 || a.InformedEntities[1].Trip == nil || *a.InformedEntities[1].Trip.TripID != "T1" {
		t.Errorf("unexpected informed entities %+v", a.InformedEntities)
	}
}

func TestDecode_PreservesEntityOrder(t *testing.T) {
	fm := feedMessage(
		tripUpdateEntity("e3", "T3", "1"),
		tripUpdateEntity("e1", "T1", "2"),
		tripUpdateEntity("e2", "T2", "3"),
	)
	feed, err := Decode(marshalFeed(t, fm))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []string{"T3", "T1", "T2"}
	for i, tr := range feed.Trains {
		if tr.Trip() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, tr.Trip(), want[i])
		}
	}
	if got, ok := feed.TrainByID("T1"); !ok || got.Route() != "2" {
		t.Errorf("TrainByID(T1) = %+v, %v", got, ok)
	}
	if _, ok := feed.TrainByID("missing"); ok {
		t.Error("unknown trip should not be found")
	}
}

func TestDecode_Garbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("garbage bytes should fail to decode")
	}
}

func TestDecode_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		fm   *gtfsrtpb.FeedMessage
	}{
		{
			name: "trip update without trip descriptor",
			fm: feedMessage(
				tripUpdateEntity("e1", "T1", "1", stopUpdate("STOP_1", 1609511400, 0, nil, nil)),
				&gtfsrtpb.FeedEntity{
					Id: sp("e2"),
					TripUpdate: &gtfsrtpb.TripUpdate{
						StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{stopUpdate("STOP_2", 1609512000, 0, nil, nil)},
					},
				},
			),
		},
		{
			name: "entity without id",
			fm: feedMessage(
				tripUpdateEntity("e1", "T1", "1"),
				&gtfsrtpb.FeedEntity{TripUpdate: &gtfsrtpb.TripUpdate{Trip: &gtfsrtpb.TripDescriptor{TripId: sp("T2")}}},
			),
		},
		{
			name: "translation without text",
			fm: func() *gtfsrtpb.FeedMessage {
				fm := feedMessage(tripUpdateEntity("e1", "T1", "1"))
				fm.Entity = append(fm.Entity, &gtfsrtpb.FeedEntity{
					Id: sp("a1"),
					Alert: &gtfsrtpb.Alert{
						HeaderText: &gtfsrtpb.TranslatedString{
							Translation: []*gtfsrtpb.TranslatedString_Translation{{Language: sp("en")}},
						},
					},
				})
				return fm
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := proto.MarshalOptions{AllowPartial: true}.Marshal(tt.fm)
			if err != nil {
				t.Fatalf("Failed to marshal feed: %v", err)
			}
			feed, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode rejected the feed: %v", err)
			}
			if feed.EntityCount != 2 {
				t.Fatalf("expected 2 entities, got %d", feed.EntityCount)
			}
			if feed.Trains[0].Trip() != "T1" {
				t.Errorf("well-formed train lost, got %+v", feed.Trains[0])
			}
			t.Logf("✓ Sparse entity extracted alongside valid ones")
		})
	}

	t.Run("sparse train has null ids", func(t *testing.T) {
		b, err := proto.MarshalOptions{AllowPartial: true}.Marshal(tests[0].fm)
		if err != nil {
			t.Fatalf("Failed to marshal feed: %v", err)
		}
		feed, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		sparse := feed.Trains[1]
		if sparse.TripID != nil || sparse.RouteID != nil {
			t.Errorf("expected null trip/route ids, got %v %v", sparse.TripID, sparse.RouteID)
		}
		if sparse.CurrentStop == nil || *sparse.CurrentStop != "STOP_2" {
			t.Errorf("expected current stop STOP_2, got %v", sparse.CurrentStop)
		}
		t.Logf("✓ Missing trip descriptor yields null ids")
	})
}
