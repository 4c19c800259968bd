package gtfsrt

import (
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

func sp(s string) *string { return &s }

func i32(v int32) *int32 { return &v }

func i64(v int64) *int64 { return &v }

func u32(v uint32) *uint32 { return &v }

func u64(v uint64) *uint64 { return &v }

func f32(v float32) *float32 { return &v }

// stopUpdate builds a StopTimeUpdate with an optional railroad extension.
func stopUpdate(stopID string, arrival, departure int64, track, status *string) *gtfsrtpb.TripUpdate_StopTimeUpdate {
	stu := &gtfsrtpb.TripUpdate_StopTimeUpdate{StopId: sp(stopID)}
	if arrival > 0 {
		stu.Arrival = &gtfsrtpb.TripUpdate_StopTimeEvent{Time: i64(arrival)}
	}
	if departure > 0 {
		stu.Departure = &gtfsrtpb.TripUpdate_StopTimeEvent{Time: i64(departure)}
	}
	if track != nil || status != nil {
		AttachStopTimeExtension(stu, RailroadStopTimeUpdate{Track: track, TrainStatus: status})
	}
	return stu
}

func tripUpdateEntity(id, tripID, routeID string, stops ...*gtfsrtpb.TripUpdate_StopTimeUpdate) *gtfsrtpb.FeedEntity {
	return &gtfsrtpb.FeedEntity{
		Id: sp(id),
		TripUpdate: &gtfsrtpb.TripUpdate{
			Trip:           &gtfsrtpb.TripDescriptor{TripId: sp(tripID), RouteId: sp(routeID)},
			StopTimeUpdate: stops,
		},
	}
}

func feedMessage(entities ...*gtfsrtpb.FeedEntity) *gtfsrtpb.FeedMessage {
	return &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: sp("2.0"),
			Timestamp:           u64(1609511400),
		},
		Entity: entities,
	}
}

func marshalFeed(t *testing.T, fm *gtfsrtpb.FeedMessage) []byte {
	t.Helper()
	b, err := proto.Marshal(fm)
	if err != nil {
		t.Fatalf("Failed to marshal feed: %v", err)
	}
	return b
}
