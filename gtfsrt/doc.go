// Package gtfsrt decodes GTFS-Realtime protobuf feeds into flat snapshots.
//
// A decoded Feed carries three record families, each in feed entity order:
//   - TrainSnapshot: one per TripUpdate, with ordered StopEvents
//   - VehicleSnapshot: one per VehiclePosition, with carriage details
//   - AlertSnapshot: one per Alert, first translation of each text only
//
// Every optional protobuf field maps to a pointer that stays nil when the
// field is absent on the wire; a zero delay and a missing delay are
// different things. Carrier-specific extension fields (track, train status,
// carriage amenities) are read from the unknown-field bytes through the
// Extensions side-table, so no generated extension code is required.
//
// Client fetches the feed over HTTP with retries and reports upstream
// problems as ErrServiceUnavailable.
package gtfsrt
