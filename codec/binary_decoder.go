package codec

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/anirudhraja/protorun/wire"
)

// binaryDecoder implements Decoder over protobuf binary input. Fields the
// message does not consume are kept in its UnknownStorage verbatim.
type binaryDecoder struct {
	d       *wire.Decoder
	opts    options
	depth   int
	names   *NameMap
	unknown *UnknownStorage

	fieldStart  int
	fieldNumber wire.FieldNumber
	wireType    wire.WireType
	consumed    bool
}

func newBinaryDecoder(data []byte, m Message, opts options, depth int) *binaryDecoder {
	return &binaryDecoder{
		d:        wire.NewDecoder(data),
		opts:     opts,
		depth:    depth,
		names:    m.FieldNames(),
		unknown:  m.UnknownFields(),
		consumed: true,
	}
}

// decodeMessage runs m.DecodeMessage and checks the input was fully consumed.
func (b *binaryDecoder) decodeMessage(m Message) error {
	if b.depth > b.opts.cfg.recursionLimit() {
		return ErrRecursionLimit
	}
	if err := m.DecodeMessage(b); err != nil {
		return err
	}
	// Drain anything DecodeMessage left behind into unknown storage.
	for {
		_, ok, err := b.NextFieldNumber()
		if err != nil || !ok {
			return err
		}
	}
}

func (b *binaryDecoder) NextFieldNumber() (int, bool, error) {
	if err := b.flushUnconsumed(); err != nil {
		return 0, false, err
	}
	if b.d.Done() {
		return 0, false, nil
	}
	b.fieldStart = b.d.Pos()
	num, wt, err := b.d.ReadTag()
	if err != nil {
		return 0, false, err
	}
	b.fieldNumber, b.wireType, b.consumed = num, wt, false
	return int(num), true, nil
}

// flushUnconsumed skips the current field if nobody decoded it, keeping its
// bytes as unknown.
func (b *binaryDecoder) flushUnconsumed() error {
	if b.consumed {
		return nil
	}
	b.consumed = true
	if err := b.d.SkipField(b.fieldNumber, b.wireType); err != nil {
		return b.wrap(err)
	}
	if b.opts.cfg.DiscardUnknownFields || b.unknown == nil {
		return nil
	}
	b.unknown.Append(b.d.Slice(b.fieldStart, b.d.Pos()))
	return nil
}

func (b *binaryDecoder) wrap(err error) error {
	name, ok := b.names.ProtoName(int(b.fieldNumber))
	if !ok {
		name = strconv.Itoa(int(b.fieldNumber))
	}
	return wire.WrapField(err, name)
}

func (b *binaryDecoder) mismatch(want wire.WireType) error {
	return b.wrap(fmt.Errorf("%w: got %s, want %s", wire.ErrWireTypeMismatch, b.wireType, want))
}

func decodeSingular[T any](b *binaryDecoder, want wire.WireType, read func(*wire.Decoder) (T, error), v *T) error {
	if b.wireType != want {
		return b.mismatch(want)
	}
	x, err := read(b.d)
	if err != nil {
		return b.wrap(err)
	}
	*v = x
	b.consumed = true
	return nil
}

// decodeRepeated accepts both one unpacked element and a packed run.
func decodeRepeated[T any](b *binaryDecoder, want wire.WireType, read func(*wire.Decoder) (T, error), v *[]T) error {
	switch {
	case b.wireType == want:
		x, err := read(b.d)
		if err != nil {
			return b.wrap(err)
		}
		*v = append(*v, x)
	case b.wireType == wire.WireBytes && want != wire.WireBytes:
		body, err := b.d.ReadRawBytes()
		if err != nil {
			return b.wrap(err)
		}
		sub := wire.NewDecoder(body)
		for !sub.Done() {
			x, err := read(sub)
			if err != nil {
				return b.wrap(err)
			}
			*v = append(*v, x)
		}
	default:
		return b.mismatch(want)
	}
	b.consumed = true
	return nil
}

func readUint64(d *wire.Decoder) (uint64, error) { return d.ReadVarint() }
func readFixed32(d *wire.Decoder) (uint32, error) { return d.ReadFixed32() }
func readFixed64(d *wire.Decoder) (uint64, error) { return d.ReadFixed64() }

func readString(d *wire.Decoder) (string, error) {
	s, err := d.ReadString()
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(s) {
		return "", wire.ErrInvalidUTF8
	}
	return s, nil
}

func (b *binaryDecoder) DecodeSingularFloatField(v *float32) error {
	return decodeSingular(b, wire.WireFixed32, (*wire.Decoder).ReadFloat, v)
}

func (b *binaryDecoder) DecodeRepeatedFloatField(v *[]float32) error {
	return decodeRepeated(b, wire.WireFixed32, (*wire.Decoder).ReadFloat, v)
}

func (b *binaryDecoder) DecodeSingularDoubleField(v *float64) error {
	return decodeSingular(b, wire.WireFixed64, (*wire.Decoder).ReadDouble, v)
}

func (b *binaryDecoder) DecodeRepeatedDoubleField(v *[]float64) error {
	return decodeRepeated(b, wire.WireFixed64, (*wire.Decoder).ReadDouble, v)
}

func (b *binaryDecoder) DecodeSingularInt32Field(v *int32) error {
	return decodeSingular(b, wire.WireVarint, (*wire.Decoder).ReadInt32, v)
}

func (b *binaryDecoder) DecodeRepeatedInt32Field(v *[]int32) error {
	return decodeRepeated(b, wire.WireVarint, (*wire.Decoder).ReadInt32, v)
}

func (b *binaryDecoder) DecodeSingularInt64Field(v *int64) error {
	return decodeSingular(b, wire.WireVarint, (*wire.Decoder).ReadInt64, v)
}

func (b *binaryDecoder) DecodeRepeatedInt64Field(v *[]int64) error {
	return decodeRepeated(b, wire.WireVarint, (*wire.Decoder).ReadInt64, v)
}

func (b *binaryDecoder) DecodeSingularUInt32Field(v *uint32) error {
	return decodeSingular(b, wire.WireVarint, (*wire.Decoder).ReadUint32, v)
}

func (b *binaryDecoder) DecodeRepeatedUInt32Field(v *[]uint32) error {
	return decodeRepeated(b, wire.WireVarint, (*wire.Decoder).ReadUint32, v)
}

func (b *binaryDecoder) DecodeSingularUInt64Field(v *uint64) error {
	return decodeSingular(b, wire.WireVarint, readUint64, v)
}

func (b *binaryDecoder) DecodeRepeatedUInt64Field(v *[]uint64) error {
	return decodeRepeated(b, wire.WireVarint, readUint64, v)
}

func (b *binaryDecoder) DecodeSingularSInt32Field(v *int32) error {
	return decodeSingular(b, wire.WireVarint, (*wire.Decoder).ReadSint32, v)
}

func (b *binaryDecoder) DecodeRepeatedSInt32Field(v *[]int32) error {
	return decodeRepeated(b, wire.WireVarint, (*wire.Decoder).ReadSint32, v)
}

func (b *binaryDecoder) DecodeSingularSInt64Field(v *int64) error {
	return decodeSingular(b, wire.WireVarint, (*wire.Decoder).ReadSint64, v)
}

func (b *binaryDecoder) DecodeRepeatedSInt64Field(v *[]int64) error {
	return decodeRepeated(b, wire.WireVarint, (*wire.Decoder).ReadSint64, v)
}

func (b *binaryDecoder) DecodeSingularFixed32Field(v *uint32) error {
	return decodeSingular(b, wire.WireFixed32, readFixed32, v)
}

func (b *binaryDecoder) DecodeRepeatedFixed32Field(v *[]uint32) error {
	return decodeRepeated(b, wire.WireFixed32, readFixed32, v)
}

func (b *binaryDecoder) DecodeSingularFixed64Field(v *uint64) error {
	return decodeSingular(b, wire.WireFixed64, readFixed64, v)
}

func (b *binaryDecoder) DecodeRepeatedFixed64Field(v *[]uint64) error {
	return decodeRepeated(b, wire.WireFixed64, readFixed64, v)
}

func (b *binaryDecoder) DecodeSingularSFixed32Field(v *int32) error {
	return decodeSingular(b, wire.WireFixed32, (*wire.Decoder).ReadSfixed32, v)
}

func (b *binaryDecoder) DecodeRepeatedSFixed32Field(v *[]int32) error {
	return decodeRepeated(b, wire.WireFixed32, (*wire.Decoder).ReadSfixed32, v)
}

func (b *binaryDecoder) DecodeSingularSFixed64Field(v *int64) error {
	return decodeSingular(b, wire.WireFixed64, (*wire.Decoder).ReadSfixed64, v)
}

func (b *binaryDecoder) DecodeRepeatedSFixed64Field(v *[]int64) error {
	return decodeRepeated(b, wire.WireFixed64, (*wire.Decoder).ReadSfixed64, v)
}

func (b *binaryDecoder) DecodeSingularBoolField(v *bool) error {
	return decodeSingular(b, wire.WireVarint, (*wire.Decoder).ReadBool, v)
}

func (b *binaryDecoder) DecodeRepeatedBoolField(v *[]bool) error {
	return decodeRepeated(b, wire.WireVarint, (*wire.Decoder).ReadBool, v)
}

func (b *binaryDecoder) DecodeSingularStringField(v *string) error {
	return decodeSingular(b, wire.WireBytes, readString, v)
}

func (b *binaryDecoder) DecodeRepeatedStringField(v *[]string) error {
	return decodeRepeated(b, wire.WireBytes, readString, v)
}

func (b *binaryDecoder) DecodeSingularBytesField(v *[]byte) error {
	return decodeSingular(b, wire.WireBytes, (*wire.Decoder).ReadBytes, v)
}

func (b *binaryDecoder) DecodeRepeatedBytesField(v *[][]byte) error {
	return decodeRepeated(b, wire.WireBytes, (*wire.Decoder).ReadBytes, v)
}

// Enums keep unrecognized numbers; open enums must round-trip.

func (b *binaryDecoder) DecodeSingularEnumField(_ *EnumValueMap, v *int32) error {
	return b.DecodeSingularInt32Field(v)
}

func (b *binaryDecoder) DecodeRepeatedEnumField(_ *EnumValueMap, v *[]int32) error {
	return b.DecodeRepeatedInt32Field(v)
}

func (b *binaryDecoder) decodeNested(m Message) error {
	if b.wireType != wire.WireBytes {
		return b.mismatch(wire.WireBytes)
	}
	body, err := b.d.ReadRawBytes()
	if err != nil {
		return b.wrap(err)
	}
	b.consumed = true
	child := newBinaryDecoder(body, m, b.opts, b.depth+1)
	if err := child.decodeMessage(m); err != nil {
		return b.wrap(err)
	}
	return nil
}

func (b *binaryDecoder) DecodeSingularMessageField(m Message) error {
	return b.decodeNested(m)
}

func (b *binaryDecoder) DecodeRepeatedMessageField(appendNew func() Message) error {
	if b.wireType != wire.WireBytes {
		return b.mismatch(wire.WireBytes)
	}
	return b.decodeNested(appendNew())
}

func (b *binaryDecoder) DecodeMapField(entry MapEntrySink) error {
	if b.wireType != wire.WireBytes {
		return b.mismatch(wire.WireBytes)
	}
	body, err := b.d.ReadRawBytes()
	if err != nil {
		return b.wrap(err)
	}
	b.consumed = true
	if b.depth+1 > b.opts.cfg.recursionLimit() {
		return ErrRecursionLimit
	}

	sub := &binaryDecoder{
		d:        wire.NewDecoder(body),
		opts:     b.opts,
		depth:    b.depth + 1,
		names:    mapEntryNames,
		consumed: true,
	}
	for {
		n, ok, err := sub.NextFieldNumber()
		if err != nil {
			return b.wrap(err)
		}
		if !ok {
			break
		}
		if n == 1 || n == 2 {
			if err := entry.DecodeEntryField(sub, n); err != nil {
				return b.wrap(err)
			}
		}
	}
	entry.Store()
	return nil
}

var mapEntryNames = NewNameMap(
	NameEntry{Number: 1, Proto: "key"},
	NameEntry{Number: 2, Proto: "value"},
)

func (b *binaryDecoder) DecodeExtensionField(values *ExtensionFieldValueSet, extendee string, fieldNumber int) error {
	ext := b.opts.extensions.ByNumber(extendee, fieldNumber)
	if ext == nil {
		log().Debug().Str("extendee", extendee).Int("field", fieldNumber).Msg("no extension registered, keeping field as unknown")
		return nil
	}
	value, ok := values.Get(fieldNumber)
	if !ok || value.Field().TypeName() != ext.TypeName() {
		value = ext.newValue()
	}
	if err := value.Decode(b); err != nil {
		return err
	}
	values.Set(value)
	return nil
}
