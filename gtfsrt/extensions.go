package gtfsrt

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// EntityKind names the GTFS-RT message an extension is attached to.
type EntityKind int

const (
	KindStopTimeUpdate EntityKind = iota
	KindCarriageDetails
)

func (k EntityKind) String() string {
	switch k {
	case KindStopTimeUpdate:
		return "StopTimeUpdate"
	case KindCarriageDetails:
		return "CarriageDetails"
	}
	return "Unknown"
}

// RailroadExtensionField is the field number the MTA railroads use for
// their extensions on both StopTimeUpdate and CarriageDetails.
const RailroadExtensionField protowire.Number = 1005

// ExtensionKey identifies one entry of the side-table.
type ExtensionKey struct {
	Kind  EntityKind
	Field protowire.Number
}

// ExtensionDecoder turns the payload of an extension field into a value.
type ExtensionDecoder func(payload []byte) (any, error)

// Extensions is the side-table of known extension decoders. Lookups never
// assume presence: an extension missing from the wire is reported as absent.
type Extensions struct {
	decoders map[ExtensionKey]ExtensionDecoder
}

// NewExtensions returns an empty side-table.
func NewExtensions() *Extensions {
	return &Extensions{decoders: map[ExtensionKey]ExtensionDecoder{}}
}

// DefaultExtensions knows the Metro-North / LIRR railroad extensions.
func DefaultExtensions() *Extensions {
	e := NewExtensions()
	e.Register(KindStopTimeUpdate, RailroadExtensionField, func(b []byte) (any, error) {
		return decodeRailroadStopTimeUpdate(b)
	})
	e.Register(KindCarriageDetails, RailroadExtensionField, func(b []byte) (any, error) {
		return decodeRailroadCarriageDetails(b)
	})
	return e
}

// Register installs dec for field on kind, replacing any earlier decoder.
func (e *Extensions) Register(kind EntityKind, field protowire.Number, dec ExtensionDecoder) {
	e.decoders[ExtensionKey{Kind: kind, Field: field}] = dec
}

// Lookup decodes extension field of msg through the decoder registered for
// (kind, field). It returns false when no decoder is registered, the field
// is not on the wire, or the payload is malformed.
func (e *Extensions) Lookup(kind EntityKind, field protowire.Number, msg proto.Message) (any, bool) {
	if e == nil || msg == nil {
		return nil, false
	}
	dec, ok := e.decoders[ExtensionKey{Kind: kind, Field: field}]
	if !ok {
		return nil, false
	}
	payload, ok := findField(msg.ProtoReflect().GetUnknown(), field)
	if !ok {
		return nil, false
	}
	v, err := dec(payload)
	if err != nil {
		return nil, false
	}
	return v, true
}

// RailroadStopTimeUpdate carries the track and train status of a stop.
type RailroadStopTimeUpdate struct {
	Track       *string
	TrainStatus *string
}

// RailroadCarriageDetails carries amenity information for one carriage.
type RailroadCarriageDetails struct {
	BicyclesAllowed  *int32
	CarriageClass    *string
	QuietCarriage    TriState
	ToiletFacilities TriState
}

// StopTimeExtension returns the railroad extension of a stop time update.
func (e *Extensions) StopTimeExtension(msg proto.Message) (*RailroadStopTimeUpdate, bool) {
	v, ok := e.Lookup(KindStopTimeUpdate, RailroadExtensionField, msg)
	if !ok {
		return nil, false
	}
	ext, ok := v.(*RailroadStopTimeUpdate)
	return ext, ok
}

// CarriageExtension returns the railroad extension of a carriage.
func (e *Extensions) CarriageExtension(msg proto.Message) (*RailroadCarriageDetails, bool) {
	v, ok := e.Lookup(KindCarriageDetails, RailroadExtensionField, msg)
	if !ok {
		return nil, false
	}
	ext, ok := v.(*RailroadCarriageDetails)
	return ext, ok
}

var errMalformedExtension = errors.New("malformed extension payload")

// findField returns the concatenated payloads of every length-delimited
// occurrence of num in raw. Concatenation matches protobuf merge semantics
// for repeated occurrences of an embedded message.
func findField(raw []byte, num protowire.Number) ([]byte, bool) {
	var out []byte
	found := false
	for len(raw) > 0 {
		n, typ, tagLen := protowire.ConsumeTag(raw)
		if tagLen < 0 {
			return nil, false
		}
		raw = raw[tagLen:]
		if n == num && typ == protowire.BytesType {
			v, m := protowire.ConsumeBytes(raw)
			if m < 0 {
				return nil, false
			}
			out = append(out, v...)
			found = true
			raw = raw[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(n, typ, raw)
		if m < 0 {
			return nil, false
		}
		raw = raw[m:]
	}
	return out, found
}

// walkFields calls fn for each field in b. fn gets the raw value bytes for
// length-delimited fields and the varint value otherwise.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, raw []byte, varint uint64)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errMalformedExtension
		}
		b = b[n:]
		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return errMalformedExtension
			}
			fn(num, typ, v, 0)
			b = b[m:]
		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return errMalformedExtension
			}
			fn(num, typ, nil, v)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return errMalformedExtension
			}
			b = b[m:]
		}
	}
	return nil
}

func decodeRailroadStopTimeUpdate(b []byte) (*RailroadStopTimeUpdate, error) {
	ext := &RailroadStopTimeUpdate{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, raw []byte, _ uint64) {
		if typ != protowire.BytesType {
			return
		}
		s := string(raw)
		switch num {
		case 1:
			ext.Track = &s
		case 2:
			ext.TrainStatus = &s
		}
	})
	if err != nil {
		return nil, err
	}
	return ext, nil
}

func decodeRailroadCarriageDetails(b []byte) (*RailroadCarriageDetails, error) {
	ext := &RailroadCarriageDetails{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, raw []byte, v uint64) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			n := int32(v)
			ext.BicyclesAllowed = &n
		case num == 2 && typ == protowire.BytesType:
			s := string(raw)
			ext.CarriageClass = &s
		case num == 3 && typ == protowire.VarintType:
			ext.QuietCarriage = TriStateFromCode(int32(v))
		case num == 4 && typ == protowire.VarintType:
			ext.ToiletFacilities = TriStateFromCode(int32(v))
		}
	})
	if err != nil {
		return nil, err
	}
	return ext, nil
}

// AttachStopTimeExtension appends ext to msg's unknown fields, the way a
// railroad producer encodes it. Used to build feeds for tests and mocks.
func AttachStopTimeExtension(msg proto.Message, ext RailroadStopTimeUpdate) {
	var inner []byte
	if ext.Track != nil {
		inner = protowire.AppendTag(inner, 1, protowire.BytesType)
		inner = protowire.AppendString(inner, *ext.Track)
	}
	if ext.TrainStatus != nil {
		inner = protowire.AppendTag(inner, 2, protowire.BytesType)
		inner = protowire.AppendString(inner, *ext.TrainStatus)
	}
	appendUnknown(msg, inner)
}

// AttachCarriageExtension is the CarriageDetails counterpart of
// AttachStopTimeExtension. Unknown tri-states are omitted.
func AttachCarriageExtension(msg proto.Message, ext RailroadCarriageDetails) {
	var inner []byte
	if ext.BicyclesAllowed != nil {
		inner = protowire.AppendTag(inner, 1, protowire.VarintType)
		inner = protowire.AppendVarint(inner, uint64(int64(*ext.BicyclesAllowed)))
	}
	if ext.CarriageClass != nil {
		inner = protowire.AppendTag(inner, 2, protowire.BytesType)
		inner = protowire.AppendString(inner, *ext.CarriageClass)
	}
	if code := triStateCode(ext.QuietCarriage); code != 0 {
		inner = protowire.AppendTag(inner, 3, protowire.VarintType)
		inner = protowire.AppendVarint(inner, code)
	}
	if code := triStateCode(ext.ToiletFacilities); code != 0 {
		inner = protowire.AppendTag(inner, 4, protowire.VarintType)
		inner = protowire.AppendVarint(inner, code)
	}
	appendUnknown(msg, inner)
}

func triStateCode(s TriState) uint64 {
	switch s {
	case True:
		return 1
	case False:
		return 2
	}
	return 0
}

func appendUnknown(msg proto.Message, inner []byte) {
	m := msg.ProtoReflect()
	raw := append([]byte(nil), m.GetUnknown()...)
	raw = protowire.AppendTag(raw, RailroadExtensionField, protowire.BytesType)
	raw = protowire.AppendBytes(raw, inner)
	m.SetUnknown(protoreflect.RawFields(raw))
}
