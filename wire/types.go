package wire

import "google.golang.org/protobuf/encoding/protowire"

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types
type WireType int8

const (
	WireVarint     WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireFixed64    WireType = 1 // fixed64, sfixed64, double
	WireBytes      WireType = 2 // string, bytes, embedded messages, packed repeated fields
	WireStartGroup WireType = 3 // proto2 groups, only ever skipped
	WireEndGroup   WireType = 4
	WireFixed32    WireType = 5 // fixed32, sfixed32, float
)

// String returns the protobuf name of the wire type.
func (wt WireType) String() string {
	switch wt {
	case WireVarint:
		return "varint"
	case WireFixed64:
		return "fixed64"
	case WireBytes:
		return "bytes"
	case WireStartGroup:
		return "start_group"
	case WireEndGroup:
		return "end_group"
	case WireFixed32:
		return "fixed32"
	default:
		return "invalid"
	}
}

// Valid reports whether wt is one of the six wire types defined by protobuf.
func (wt WireType) Valid() bool {
	return wt >= WireVarint && wt <= WireFixed32
}

// FieldNumber represents a protobuf field number
type FieldNumber int32

const (
	MinValidNumber      FieldNumber = 1
	MaxValidNumber      FieldNumber = 1<<29 - 1
	FirstReservedNumber FieldNumber = 19000
	LastReservedNumber  FieldNumber = 19999
)

// Valid reports whether n can appear on the wire.
func (n FieldNumber) Valid() bool {
	return n >= MinValidNumber && n <= MaxValidNumber
}

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(protowire.EncodeTag(protowire.Number(fieldNumber), protowire.Type(wireType)))
}

// ParseTag parses a tag into field number and wire type
func ParseTag(tag Tag) (FieldNumber, WireType) {
	n, t := protowire.DecodeTag(uint64(tag))
	return FieldNumber(n), WireType(t)
}

// TagSize returns the encoded size of the tag for a field number.
func TagSize(fieldNumber FieldNumber) int {
	return protowire.SizeTag(protowire.Number(fieldNumber))
}
