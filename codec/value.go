package codec

import (
	"slices"

	"github.com/anirudhraja/protorun/jsonfmt"
	"github.com/anirudhraja/protorun/textfmt"
	"github.com/anirudhraja/protorun/wire"
)

// Value is a scalar bound to the FieldType that encodes it. Binding keeps the
// descriptor's identity, so an int32 bound to SInt32 still encodes as zigzag.
type Value interface {
	ProtoTypeName() string
	WireType() wire.WireType
	EncodedSizeWithoutTag() int
	AppendProtobuf(e *wire.Encoder)
	WriteText(e *textfmt.Encoder) error
	WriteJSON(e *jsonfmt.Encoder) error
}

// Values is a repeated scalar bound to its FieldType.
type Values interface {
	Len() int
	At(i int) Value
	WireType() wire.WireType
	// PayloadSize is the sum of the element sizes, i.e. the body of a packed run.
	PayloadSize() int
}

// MapKey is a bound map key.
type MapKey interface {
	Value
	WriteJSONMapKey(e *jsonfmt.Encoder) error
}

// Enums is a repeated enum field.
type Enums interface {
	Len() int
	At(i int) Enum
}

// Messages is a repeated message field.
type Messages interface {
	Len() int
	At(i int) Message
}

type ScalarMapEntry struct {
	Key   MapKey
	Value Value
}

type EnumMapEntry struct {
	Key   MapKey
	Value Enum
}

type MessageMapEntry struct {
	Key   MapKey
	Value Message
}

// ScalarMap, EnumMap and MessageMap expose a map field to visitors. Entries
// snapshots the map once; sorted requests key order.
type ScalarMap interface {
	Len() int
	Entries(sorted bool) []ScalarMapEntry
}

type EnumMap interface {
	Len() int
	Entries(sorted bool) []EnumMapEntry
}

type MessageMap interface {
	Len() int
	Entries(sorted bool) []MessageMapEntry
}

// Bind pairs a value with its descriptor.
func Bind[T any, F FieldType[T]](ft F, v T) Value {
	return boundValue[T, F]{ft: ft, v: v}
}

// BindRepeated pairs a slice with its element descriptor.
func BindRepeated[T any, F FieldType[T]](ft F, vs []T) Values {
	return boundValues[T, F]{ft: ft, vs: vs}
}

type boundValue[T any, F FieldType[T]] struct {
	ft F
	v  T
}

func (b boundValue[T, F]) ProtoTypeName() string { return b.ft.ProtoTypeName() }
func (b boundValue[T, F]) WireType() wire.WireType { return b.ft.WireType() }
func (b boundValue[T, F]) EncodedSizeWithoutTag() int { return b.ft.EncodedSizeWithoutTag(b.v) }
func (b boundValue[T, F]) AppendProtobuf(e *wire.Encoder) { b.ft.SerializeProtobufValue(e, b.v) }
func (b boundValue[T, F]) WriteText(e *textfmt.Encoder) error { return b.ft.SerializeTextValue(e, b.v) }
func (b boundValue[T, F]) WriteJSON(e *jsonfmt.Encoder) error { return b.ft.SerializeJSONValue(e, b.v) }

type boundKey[K comparable, KT MapKeyType[K]] struct {
	boundValue[K, KT]
}

func (b boundKey[K, KT]) WriteJSONMapKey(e *jsonfmt.Encoder) error {
	return b.ft.SerializeJSONMapKey(e, b.v)
}

type boundValues[T any, F FieldType[T]] struct {
	ft F
	vs []T
}

func (b boundValues[T, F]) Len() int { return len(b.vs) }
func (b boundValues[T, F]) At(i int) Value { return boundValue[T, F]{ft: b.ft, v: b.vs[i]} }
func (b boundValues[T, F]) WireType() wire.WireType { return b.ft.WireType() }
func (b boundValues[T, F]) PayloadSize() int {
	n := 0
	for _, v := range b.vs {
		n += b.ft.EncodedSizeWithoutTag(v)
	}
	return n
}

type enumSlice[E Enum] []E

func (s enumSlice[E]) Len() int { return len(s) }
func (s enumSlice[E]) At(i int) Enum { return s[i] }

type messageSlice[M Message] []M

func (s messageSlice[M]) Len() int { return len(s) }
func (s messageSlice[M]) At(i int) Message { return s[i] }

func sortedKeys[K comparable, V any, KT MapKeyType[K]](kt KT, m map[K]V, sorted bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if sorted {
		slices.SortFunc(keys, kt.CompareKeys)
	}
	return keys
}

// BindKey pairs a map key with its descriptor.
func BindKey[K comparable, KT MapKeyType[K]](kt KT, k K) MapKey {
	return bindKey(kt, k)
}

func bindKey[K comparable, KT MapKeyType[K]](kt KT, k K) MapKey {
	return boundKey[K, KT]{boundValue[K, KT]{ft: kt, v: k}}
}

type scalarMap[K comparable, V any, KT MapKeyType[K], VT MapValueType[V]] struct {
	kt KT
	vt VT
	m  map[K]V
}

func (s scalarMap[K, V, KT, VT]) Len() int { return len(s.m) }

func (s scalarMap[K, V, KT, VT]) Entries(sorted bool) []ScalarMapEntry {
	keys := sortedKeys(s.kt, s.m, sorted)
	entries := make([]ScalarMapEntry, len(keys))
	for i, k := range keys {
		entries[i] = ScalarMapEntry{Key: bindKey(s.kt, k), Value: Bind(s.vt, s.m[k])}
	}
	return entries
}

type enumMap[K comparable, E Enum, KT MapKeyType[K]] struct {
	kt KT
	m  map[K]E
}

func (s enumMap[K, E, KT]) Len() int { return len(s.m) }

func (s enumMap[K, E, KT]) Entries(sorted bool) []EnumMapEntry {
	keys := sortedKeys(s.kt, s.m, sorted)
	entries := make([]EnumMapEntry, len(keys))
	for i, k := range keys {
		entries[i] = EnumMapEntry{Key: bindKey(s.kt, k), Value: s.m[k]}
	}
	return entries
}

type messageMap[K comparable, M Message, KT MapKeyType[K]] struct {
	kt KT
	m  map[K]M
}

func (s messageMap[K, M, KT]) Len() int { return len(s.m) }

func (s messageMap[K, M, KT]) Entries(sorted bool) []MessageMapEntry {
	keys := sortedKeys(s.kt, s.m, sorted)
	entries := make([]MessageMapEntry, len(keys))
	for i, k := range keys {
		entries[i] = MessageMapEntry{Key: bindKey(s.kt, k), Value: s.m[k]}
	}
	return entries
}

// NewScalarMap, NewEnumMap and NewMessageMap adapt Go maps for visitors.
func NewScalarMap[K comparable, V any, KT MapKeyType[K], VT MapValueType[V]](kt KT, vt VT, m map[K]V) ScalarMap {
	return scalarMap[K, V, KT, VT]{kt: kt, vt: vt, m: m}
}

func NewEnumMap[K comparable, E Enum, KT MapKeyType[K]](kt KT, m map[K]E) EnumMap {
	return enumMap[K, E, KT]{kt: kt, m: m}
}

func NewMessageMap[K comparable, M Message, KT MapKeyType[K]](kt KT, m map[K]M) MessageMap {
	return messageMap[K, M, KT]{kt: kt, m: m}
}
