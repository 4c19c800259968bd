package gtfsrt

import (
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Extractor turns decoded protobuf entities into snapshots. It is pure:
// the same entity always yields the same snapshot and nothing is logged.
type Extractor struct {
	ext *Extensions
}

// NewExtractor returns an extractor reading vendor fields through ext.
// A nil ext disables extension lookups.
func NewExtractor(ext *Extensions) *Extractor {
	return &Extractor{ext: ext}
}

var defaultExtractor = NewExtractor(DefaultExtensions())

// Decode parses a feed with the railroad extensions enabled.
func Decode(data []byte) (*Feed, error) {
	return defaultExtractor.Decode(data)
}

// Decode parses a serialized FeedMessage. Missing required fields are
// tolerated; such entities come out with null fields.
func (x *Extractor) Decode(data []byte) (*Feed, error) {
	var fm gtfsrtpb.FeedMessage
	if err := (proto.UnmarshalOptions{AllowPartial: true}).Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("decoding feed message: %w", err)
	}
	return x.FromMessage(&fm), nil
}

// FromMessage extracts every entity of fm, keeping feed order inside each
// record family.
func (x *Extractor) FromMessage(fm *gtfsrtpb.FeedMessage) *Feed {
	feed := &Feed{
		Trains:   []TrainSnapshot{},
		Vehicles: []VehicleSnapshot{},
		Alerts:   []AlertSnapshot{},
	}
	if h := fm.GetHeader(); h != nil {
		feed.Header = Header{
			ProtocolVersion: h.GetGtfsRealtimeVersion(),
			Timestamp:       unixTime(h.Timestamp),
			Incrementality:  IncrementalityName(int32(h.GetIncrementality())),
		}
	}
	feed.EntityCount = len(fm.GetEntity())

	for _, e := range fm.GetEntity() {
		if e.TripUpdate != nil {
			t := x.Train(e.TripUpdate)
			t.EntityID = e.GetId()
			feed.Trains = append(feed.Trains, t)
		}
		if e.Vehicle != nil {
			v := x.Vehicle(e.Vehicle)
			v.EntityID = e.GetId()
			feed.Vehicles = append(feed.Vehicles, v)
		}
		if e.Alert != nil {
			a := x.Alert(e.Alert)
			a.EntityID = e.GetId()
			feed.Alerts = append(feed.Alerts, a)
		}
	}
	return feed
}

// Train extracts a TripUpdate. A trip without stop_time_updates is valid
// and yields nil current/next stop, eta, track and status.
func (x *Extractor) Train(tu *gtfsrtpb.TripUpdate) TrainSnapshot {
	t := TrainSnapshot{Stops: []StopEvent{}}
	if trip := tu.GetTrip(); trip != nil {
		t.TripID = trip.TripId
		t.RouteID = trip.RouteId
		t.StartDate = trip.StartDate
	}
	if v := tu.GetVehicle(); v != nil {
		t.VehicleID = v.Id
	}
	t.Timestamp = unixTime(tu.Timestamp)
	t.Delay = tu.Delay

	for _, stu := range tu.GetStopTimeUpdate() {
		t.Stops = append(t.Stops, x.stopEvent(stu))
	}

	if len(t.Stops) > 0 {
		first := t.Stops[0]
		t.CurrentStop = first.StopID
		t.ETA = eventTime(first.Arrival)
		if t.ETA == nil {
			t.ETA = eventTime(first.Departure)
		}
		t.Track = first.Track
		t.Status = first.Status
	}
	if len(t.Stops) > 1 {
		t.NextStop = t.Stops[1].StopID
	}
	return t
}

func (x *Extractor) stopEvent(stu *gtfsrtpb.TripUpdate_StopTimeUpdate) StopEvent {
	s := StopEvent{
		StopID:               stu.StopId,
		StopSequence:         stu.StopSequence,
		Arrival:              stopTimeEvent(stu.GetArrival()),
		Departure:            stopTimeEvent(stu.GetDeparture()),
		ScheduleRelationship: ScheduleRelationshipName(int32(stu.GetScheduleRelationship())),
	}
	if ext, ok := x.ext.StopTimeExtension(stu); ok {
		s.Track = ext.Track
		s.Status = ext.TrainStatus
	}
	return s
}

func stopTimeEvent(ev *gtfsrtpb.TripUpdate_StopTimeEvent) *StopTimeEvent {
	if ev == nil {
		return nil
	}
	out := &StopTimeEvent{
		Delay:       ev.Delay,
		Uncertainty: ev.Uncertainty,
	}
	if ev.Time != nil && *ev.Time > 0 {
		ts := time.Unix(*ev.Time, 0).UTC()
		out.Time = &ts
	}
	return out
}

func eventTime(ev *StopTimeEvent) *time.Time {
	if ev == nil {
		return nil
	}
	return ev.Time
}

// Vehicle extracts a VehiclePosition.
func (x *Extractor) Vehicle(vp *gtfsrtpb.VehiclePosition) VehicleSnapshot {
	v := VehicleSnapshot{Carriages: []Carriage{}}
	if trip := vp.GetTrip(); trip != nil {
		v.TripID = trip.TripId
		v.RouteID = trip.RouteId
	}
	if d := vp.GetVehicle(); d != nil {
		v.VehicleID = d.Id
		v.VehicleLabel = d.Label
	}
	if p := vp.GetPosition(); p != nil {
		v.Latitude = float32Ptr(p.Latitude)
		v.Longitude = float32Ptr(p.Longitude)
		v.Bearing = float32Ptr(p.Bearing)
		v.Speed = float32Ptr(p.Speed)
	}
	v.CurrentStopSequence = vp.CurrentStopSequence
	v.StopID = vp.StopId
	if vp.CurrentStatus != nil {
		v.CurrentStatus = strPtr(VehicleStopStatusName(int32(*vp.CurrentStatus)))
	}
	v.Timestamp = unixTime(vp.Timestamp)
	if vp.CongestionLevel != nil {
		v.CongestionLevel = strPtr(CongestionLevelName(int32(*vp.CongestionLevel)))
	}
	if vp.OccupancyStatus != nil {
		v.OccupancyStatus = strPtr(OccupancyStatusName(int32(*vp.OccupancyStatus)))
	}
	v.OccupancyPercentage = vp.OccupancyPercentage

	for _, cd := range vp.GetMultiCarriageDetails() {
		v.Carriages = append(v.Carriages, x.carriage(cd))
	}
	return v
}

func (x *Extractor) carriage(cd *gtfsrtpb.VehiclePosition_CarriageDetails) Carriage {
	c := Carriage{
		ID:       cd.Id,
		Label:    cd.Label,
		Sequence: cd.CarriageSequence,
	}
	if cd.OccupancyStatus != nil {
		c.OccupancyStatus = strPtr(OccupancyStatusName(int32(*cd.OccupancyStatus)))
	}
	// -1 is the "no data" marker
	if cd.OccupancyPercentage != nil && *cd.OccupancyPercentage != -1 {
		c.OccupancyPercentage = cd.OccupancyPercentage
	}
	if ext, ok := x.ext.CarriageExtension(cd); ok {
		if ext.BicyclesAllowed != nil {
			c.BicyclesAllowed = strPtr(BicyclesAllowedLabel(*ext.BicyclesAllowed))
		}
		c.CarriageClass = ext.CarriageClass
		c.QuietCarriage = ext.QuietCarriage
		c.ToiletFacilities = ext.ToiletFacilities
	}
	return c
}

// Alert extracts an Alert. Only the first translation of each text is kept.
func (x *Extractor) Alert(a *gtfsrtpb.Alert) AlertSnapshot {
	out := AlertSnapshot{
		ActivePeriods:    []ActivePeriod{},
		InformedEntities: []InformedEntity{},
		Cause:            AlertCauseName(int32(a.GetCause())),
		Effect:           AlertEffectName(int32(a.GetEffect())),
		HeaderText:       firstTranslation(a.GetHeaderText()),
		DescriptionText:  firstTranslation(a.GetDescriptionText()),
		URL:              firstTranslation(a.GetUrl()),
		SeverityLevel:    SeverityLevelName(int32(a.GetSeverityLevel())),
	}
	for _, p := range a.GetActivePeriod() {
		out.ActivePeriods = append(out.ActivePeriods, ActivePeriod{
			Start: unixTime(p.Start),
			End:   unixTime(p.End),
		})
	}
	for _, ie := range a.GetInformedEntity() {
		e := InformedEntity{
			AgencyID:  ie.AgencyId,
			RouteID:   ie.RouteId,
			RouteType: ie.RouteType,
			StopID:    ie.StopId,
		}
		if trip := ie.GetTrip(); trip != nil {
			e.Trip = &TripRef{TripID: trip.TripId, RouteID: trip.RouteId}
		}
		out.InformedEntities = append(out.InformedEntities, e)
	}
	return out
}

func firstTranslation(ts *gtfsrtpb.TranslatedString) *string {
	if ts == nil || len(ts.GetTranslation()) == 0 {
		return nil
	}
	return ts.GetTranslation()[0].Text
}

func unixTime(sec *uint64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	t := time.Unix(int64(*sec), 0).UTC()
	return &t
}

func float32Ptr(f *float32) *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

func strPtr(s string) *string { return &s }
