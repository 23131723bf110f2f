package codec

import (
	"bytes"
	"math"
	"unicode/utf8"

	"github.com/anirudhraja/protorun/jsonfmt"
	"github.com/anirudhraja/protorun/textfmt"
	"github.com/anirudhraja/protorun/wire"
)

// FieldType describes one protobuf scalar kind whose in-memory value is T.
//
// Descriptors are zero-size, stateless and safe for concurrent use. Kinds that
// share a Go representation (int32 for int32, sint32 and sfixed32, and so on)
// are still distinct types, because their wire encodings differ.
type FieldType[T any] interface {
	ProtoTypeName() string
	WireType() wire.WireType
	// DefaultValue is the proto3 value implied by absence, and the value a
	// JSON null decodes to.
	DefaultValue() T
	// EncodedSizeWithoutTag excludes the tag but includes the length prefix
	// of string and bytes values.
	EncodedSizeWithoutTag(v T) int
	SerializeProtobufValue(e *wire.Encoder, v T)
	SerializeTextValue(e *textfmt.Encoder, v T) error
	SerializeJSONValue(e *jsonfmt.Encoder, v T) error
	DecodeSingular(d Decoder, v *T) error
	DecodeRepeated(d Decoder, v *[]T) error
	Equal(a, b T) bool
}

type (
	Float    struct{}
	Double   struct{}
	Int32    struct{}
	Int64    struct{}
	UInt32   struct{}
	UInt64   struct{}
	SInt32   struct{}
	SInt64   struct{}
	Fixed32  struct{}
	Fixed64  struct{}
	SFixed32 struct{}
	SFixed64 struct{}
	Bool     struct{}
	String   struct{}
	Bytes    struct{}
)

// float

func (Float) ProtoTypeName() string { return "float" }
func (Float) WireType() wire.WireType { return wire.WireFixed32 }
func (Float) DefaultValue() float32 { return 0 }
func (Float) EncodedSizeWithoutTag(float32) int { return wire.Fixed32Size() }
func (Float) SerializeProtobufValue(e *wire.Encoder, v float32) { e.PutFloat(v) }
func (Float) SerializeTextValue(e *textfmt.Encoder, v float32) error {
	e.PutFloat(float64(v), 32)
	return nil
}
func (Float) SerializeJSONValue(e *jsonfmt.Encoder, v float32) error {
	e.PutFloat(v)
	return nil
}
func (Float) DecodeSingular(d Decoder, v *float32) error { return d.DecodeSingularFloatField(v) }
func (Float) DecodeRepeated(d Decoder, v *[]float32) error { return d.DecodeRepeatedFloatField(v) }
func (Float) Equal(a, b float32) bool { return a == b || (math.IsNaN(float64(a)) && math.IsNaN(float64(b))) }

// double

func (Double) ProtoTypeName() string { return "double" }
func (Double) WireType() wire.WireType { return wire.WireFixed64 }
func (Double) DefaultValue() float64 { return 0 }
func (Double) EncodedSizeWithoutTag(float64) int { return wire.Fixed64Size() }
func (Double) SerializeProtobufValue(e *wire.Encoder, v float64) { e.PutDouble(v) }
func (Double) SerializeTextValue(e *textfmt.Encoder, v float64) error {
	e.PutFloat(v, 64)
	return nil
}
func (Double) SerializeJSONValue(e *jsonfmt.Encoder, v float64) error {
	e.PutDouble(v)
	return nil
}
func (Double) DecodeSingular(d Decoder, v *float64) error { return d.DecodeSingularDoubleField(v) }
func (Double) DecodeRepeated(d Decoder, v *[]float64) error { return d.DecodeRepeatedDoubleField(v) }
func (Double) Equal(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// int32

func (Int32) ProtoTypeName() string { return "int32" }
func (Int32) WireType() wire.WireType { return wire.WireVarint }
func (Int32) DefaultValue() int32 { return 0 }
func (Int32) EncodedSizeWithoutTag(v int32) int { return wire.VarintSize(uint64(v)) }
func (Int32) SerializeProtobufValue(e *wire.Encoder, v int32) { e.PutInt32(v) }
func (Int32) SerializeTextValue(e *textfmt.Encoder, v int32) error {
	e.PutInt64(int64(v))
	return nil
}
func (Int32) SerializeJSONValue(e *jsonfmt.Encoder, v int32) error {
	e.PutInt32(v)
	return nil
}
func (Int32) DecodeSingular(d Decoder, v *int32) error { return d.DecodeSingularInt32Field(v) }
func (Int32) DecodeRepeated(d Decoder, v *[]int32) error { return d.DecodeRepeatedInt32Field(v) }
func (Int32) Equal(a, b int32) bool { return a == b }

// int64

func (Int64) ProtoTypeName() string { return "int64" }
func (Int64) WireType() wire.WireType { return wire.WireVarint }
func (Int64) DefaultValue() int64 { return 0 }
func (Int64) EncodedSizeWithoutTag(v int64) int { return wire.VarintSize(uint64(v)) }
func (Int64) SerializeProtobufValue(e *wire.Encoder, v int64) { e.PutInt64(v) }
func (Int64) SerializeTextValue(e *textfmt.Encoder, v int64) error {
	e.PutInt64(v)
	return nil
}
func (Int64) SerializeJSONValue(e *jsonfmt.Encoder, v int64) error {
	e.PutInt64(v)
	return nil
}
func (Int64) DecodeSingular(d Decoder, v *int64) error { return d.DecodeSingularInt64Field(v) }
func (Int64) DecodeRepeated(d Decoder, v *[]int64) error { return d.DecodeRepeatedInt64Field(v) }
func (Int64) Equal(a, b int64) bool { return a == b }

// uint32

func (UInt32) ProtoTypeName() string { return "uint32" }
func (UInt32) WireType() wire.WireType { return wire.WireVarint }
func (UInt32) DefaultValue() uint32 { return 0 }
func (UInt32) EncodedSizeWithoutTag(v uint32) int { return wire.VarintSize(uint64(v)) }
func (UInt32) SerializeProtobufValue(e *wire.Encoder, v uint32) { e.PutVarint(uint64(v)) }
func (UInt32) SerializeTextValue(e *textfmt.Encoder, v uint32) error {
	e.PutUint64(uint64(v))
	return nil
}
func (UInt32) SerializeJSONValue(e *jsonfmt.Encoder, v uint32) error {
	e.PutUint32(v)
	return nil
}
func (UInt32) DecodeSingular(d Decoder, v *uint32) error { return d.DecodeSingularUInt32Field(v) }
func (UInt32) DecodeRepeated(d Decoder, v *[]uint32) error { return d.DecodeRepeatedUInt32Field(v) }
func (UInt32) Equal(a, b uint32) bool { return a == b }

// uint64

func (UInt64) ProtoTypeName() string { return "uint64" }
func (UInt64) WireType() wire.WireType { return wire.WireVarint }
func (UInt64) DefaultValue() uint64 { return 0 }
func (UInt64) EncodedSizeWithoutTag(v uint64) int { return wire.VarintSize(v) }
func (UInt64) SerializeProtobufValue(e *wire.Encoder, v uint64) { e.PutVarint(v) }
func (UInt64) SerializeTextValue(e *textfmt.Encoder, v uint64) error {
	e.PutUint64(v)
	return nil
}
func (UInt64) SerializeJSONValue(e *jsonfmt.Encoder, v uint64) error {
	e.PutUint64(v)
	return nil
}
func (UInt64) DecodeSingular(d Decoder, v *uint64) error { return d.DecodeSingularUInt64Field(v) }
func (UInt64) DecodeRepeated(d Decoder, v *[]uint64) error { return d.DecodeRepeatedUInt64Field(v) }
func (UInt64) Equal(a, b uint64) bool { return a == b }

// sint32

func (SInt32) ProtoTypeName() string { return "sint32" }
func (SInt32) WireType() wire.WireType { return wire.WireVarint }
func (SInt32) DefaultValue() int32 { return 0 }
func (SInt32) EncodedSizeWithoutTag(v int32) int { return wire.VarintSize(wire.EncodeZigZag32(v)) }
func (SInt32) SerializeProtobufValue(e *wire.Encoder, v int32) { e.PutSint32(v) }
func (SInt32) SerializeTextValue(e *textfmt.Encoder, v int32) error {
	e.PutInt64(int64(v))
	return nil
}
func (SInt32) SerializeJSONValue(e *jsonfmt.Encoder, v int32) error {
	e.PutInt32(v)
	return nil
}
func (SInt32) DecodeSingular(d Decoder, v *int32) error { return d.DecodeSingularSInt32Field(v) }
func (SInt32) DecodeRepeated(d Decoder, v *[]int32) error { return d.DecodeRepeatedSInt32Field(v) }
func (SInt32) Equal(a, b int32) bool { return a == b }

// sint64

func (SInt64) ProtoTypeName() string { return "sint64" }
func (SInt64) WireType() wire.WireType { return wire.WireVarint }
func (SInt64) DefaultValue() int64 { return 0 }
func (SInt64) EncodedSizeWithoutTag(v int64) int { return wire.VarintSize(wire.EncodeZigZag64(v)) }
func (SInt64) SerializeProtobufValue(e *wire.Encoder, v int64) { e.PutSint64(v) }
func (SInt64) SerializeTextValue(e *textfmt.Encoder, v int64) error {
	e.PutInt64(v)
	return nil
}
func (SInt64) SerializeJSONValue(e *jsonfmt.Encoder, v int64) error {
	e.PutInt64(v)
	return nil
}
func (SInt64) DecodeSingular(d Decoder, v *int64) error { return d.DecodeSingularSInt64Field(v) }
func (SInt64) DecodeRepeated(d Decoder, v *[]int64) error { return d.DecodeRepeatedSInt64Field(v) }
func (SInt64) Equal(a, b int64) bool { return a == b }

// fixed32

func (Fixed32) ProtoTypeName() string { return "fixed32" }
func (Fixed32) WireType() wire.WireType { return wire.WireFixed32 }
func (Fixed32) DefaultValue() uint32 { return 0 }
func (Fixed32) EncodedSizeWithoutTag(uint32) int { return wire.Fixed32Size() }
func (Fixed32) SerializeProtobufValue(e *wire.Encoder, v uint32) { e.PutFixed32(v) }
func (Fixed32) SerializeTextValue(e *textfmt.Encoder, v uint32) error {
	e.PutUint64(uint64(v))
	return nil
}
func (Fixed32) SerializeJSONValue(e *jsonfmt.Encoder, v uint32) error {
	e.PutUint32(v)
	return nil
}
func (Fixed32) DecodeSingular(d Decoder, v *uint32) error { return d.DecodeSingularFixed32Field(v) }
func (Fixed32) DecodeRepeated(d Decoder, v *[]uint32) error { return d.DecodeRepeatedFixed32Field(v) }
func (Fixed32) Equal(a, b uint32) bool { return a == b }

// fixed64

func (Fixed64) ProtoTypeName() string { return "fixed64" }
func (Fixed64) WireType() wire.WireType { return wire.WireFixed64 }
func (Fixed64) DefaultValue() uint64 { return 0 }
func (Fixed64) EncodedSizeWithoutTag(uint64) int { return wire.Fixed64Size() }
func (Fixed64) SerializeProtobufValue(e *wire.Encoder, v uint64) { e.PutFixed64(v) }
func (Fixed64) SerializeTextValue(e *textfmt.Encoder, v uint64) error {
	e.PutUint64(v)
	return nil
}
func (Fixed64) SerializeJSONValue(e *jsonfmt.Encoder, v uint64) error {
	e.PutUint64(v)
	return nil
}
func (Fixed64) DecodeSingular(d Decoder, v *uint64) error { return d.DecodeSingularFixed64Field(v) }
func (Fixed64) DecodeRepeated(d Decoder, v *[]uint64) error { return d.DecodeRepeatedFixed64Field(v) }
func (Fixed64) Equal(a, b uint64) bool { return a == b }

// sfixed32

func (SFixed32) ProtoTypeName() string { return "sfixed32" }
func (SFixed32) WireType() wire.WireType { return wire.WireFixed32 }
func (SFixed32) DefaultValue() int32 { return 0 }
func (SFixed32) EncodedSizeWithoutTag(int32) int { return wire.Fixed32Size() }
func (SFixed32) SerializeProtobufValue(e *wire.Encoder, v int32) { e.PutFixed32(uint32(v)) }
func (SFixed32) SerializeTextValue(e *textfmt.Encoder, v int32) error {
	e.PutInt64(int64(v))
	return nil
}
func (SFixed32) SerializeJSONValue(e *jsonfmt.Encoder, v int32) error {
	e.PutInt32(v)
	return nil
}
func (SFixed32) DecodeSingular(d Decoder, v *int32) error { return d.DecodeSingularSFixed32Field(v) }
func (SFixed32) DecodeRepeated(d Decoder, v *[]int32) error { return d.DecodeRepeatedSFixed32Field(v) }
func (SFixed32) Equal(a, b int32) bool { return a == b }

// sfixed64

func (SFixed64) ProtoTypeName() string { return "sfixed64" }
func (SFixed64) WireType() wire.WireType { return wire.WireFixed64 }
func (SFixed64) DefaultValue() int64 { return 0 }
func (SFixed64) EncodedSizeWithoutTag(int64) int { return wire.Fixed64Size() }
func (SFixed64) SerializeProtobufValue(e *wire.Encoder, v int64) { e.PutFixed64(uint64(v)) }
func (SFixed64) SerializeTextValue(e *textfmt.Encoder, v int64) error {
	e.PutInt64(v)
	return nil
}
func (SFixed64) SerializeJSONValue(e *jsonfmt.Encoder, v int64) error {
	e.PutInt64(v)
	return nil
}
func (SFixed64) DecodeSingular(d Decoder, v *int64) error { return d.DecodeSingularSFixed64Field(v) }
func (SFixed64) DecodeRepeated(d Decoder, v *[]int64) error { return d.DecodeRepeatedSFixed64Field(v) }
func (SFixed64) Equal(a, b int64) bool { return a == b }

// bool

func (Bool) ProtoTypeName() string { return "bool" }
func (Bool) WireType() wire.WireType { return wire.WireVarint }
func (Bool) DefaultValue() bool { return false }
func (Bool) EncodedSizeWithoutTag(bool) int { return 1 }
func (Bool) SerializeProtobufValue(e *wire.Encoder, v bool) { e.PutBool(v) }
func (Bool) SerializeTextValue(e *textfmt.Encoder, v bool) error {
	e.PutBool(v)
	return nil
}
func (Bool) SerializeJSONValue(e *jsonfmt.Encoder, v bool) error {
	e.PutBool(v)
	return nil
}
func (Bool) DecodeSingular(d Decoder, v *bool) error { return d.DecodeSingularBoolField(v) }
func (Bool) DecodeRepeated(d Decoder, v *[]bool) error { return d.DecodeRepeatedBoolField(v) }
func (Bool) Equal(a, b bool) bool { return a == b }

// string

func (String) ProtoTypeName() string { return "string" }
func (String) WireType() wire.WireType { return wire.WireBytes }
func (String) DefaultValue() string { return "" }
func (String) EncodedSizeWithoutTag(v string) int { return wire.StringSize(v) }
func (String) SerializeProtobufValue(e *wire.Encoder, v string) { e.PutString(v) }
func (String) SerializeTextValue(e *textfmt.Encoder, v string) error {
	e.PutString(v)
	return nil
}
func (String) SerializeJSONValue(e *jsonfmt.Encoder, v string) error {
	if !utf8.ValidString(v) {
		return ErrInvalidUTF8
	}
	e.PutString(v)
	return nil
}
func (String) DecodeSingular(d Decoder, v *string) error { return d.DecodeSingularStringField(v) }
func (String) DecodeRepeated(d Decoder, v *[]string) error { return d.DecodeRepeatedStringField(v) }
func (String) Equal(a, b string) bool { return a == b }

// bytes

func (Bytes) ProtoTypeName() string { return "bytes" }
func (Bytes) WireType() wire.WireType { return wire.WireBytes }
func (Bytes) DefaultValue() []byte { return nil }
func (Bytes) EncodedSizeWithoutTag(v []byte) int { return wire.BytesSize(v) }
func (Bytes) SerializeProtobufValue(e *wire.Encoder, v []byte) { e.PutBytes(v) }
func (Bytes) SerializeTextValue(e *textfmt.Encoder, v []byte) error {
	e.PutBytes(v)
	return nil
}
func (Bytes) SerializeJSONValue(e *jsonfmt.Encoder, v []byte) error {
	e.PutBytes(v)
	return nil
}
func (Bytes) DecodeSingular(d Decoder, v *[]byte) error { return d.DecodeSingularBytesField(v) }
func (Bytes) DecodeRepeated(d Decoder, v *[][]byte) error { return d.DecodeRepeatedBytesField(v) }
func (Bytes) Equal(a, b []byte) bool { return bytes.Equal(a, b) }
