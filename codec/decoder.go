package codec

// Decoder is implemented by each input format. Field types and messages call
// it; it owns the cursor and reports bad input as errors matching
// ErrMalformedInput.
type Decoder interface {
	// NextFieldNumber advances to the next field. ok is false once the
	// current message is exhausted.
	NextFieldNumber() (fieldNumber int, ok bool, err error)

	DecodeSingularFloatField(v *float32) error
	DecodeRepeatedFloatField(v *[]float32) error
	DecodeSingularDoubleField(v *float64) error
	DecodeRepeatedDoubleField(v *[]float64) error
	DecodeSingularInt32Field(v *int32) error
	DecodeRepeatedInt32Field(v *[]int32) error
	DecodeSingularInt64Field(v *int64) error
	DecodeRepeatedInt64Field(v *[]int64) error
	DecodeSingularUInt32Field(v *uint32) error
	DecodeRepeatedUInt32Field(v *[]uint32) error
	DecodeSingularUInt64Field(v *uint64) error
	DecodeRepeatedUInt64Field(v *[]uint64) error
	DecodeSingularSInt32Field(v *int32) error
	DecodeRepeatedSInt32Field(v *[]int32) error
	DecodeSingularSInt64Field(v *int64) error
	DecodeRepeatedSInt64Field(v *[]int64) error
	DecodeSingularFixed32Field(v *uint32) error
	DecodeRepeatedFixed32Field(v *[]uint32) error
	DecodeSingularFixed64Field(v *uint64) error
	DecodeRepeatedFixed64Field(v *[]uint64) error
	DecodeSingularSFixed32Field(v *int32) error
	DecodeRepeatedSFixed32Field(v *[]int32) error
	DecodeSingularSFixed64Field(v *int64) error
	DecodeRepeatedSFixed64Field(v *[]int64) error
	DecodeSingularBoolField(v *bool) error
	DecodeRepeatedBoolField(v *[]bool) error
	DecodeSingularStringField(v *string) error
	DecodeRepeatedStringField(v *[]string) error
	DecodeSingularBytesField(v *[]byte) error
	DecodeRepeatedBytesField(v *[][]byte) error

	DecodeSingularEnumField(values *EnumValueMap, v *int32) error
	DecodeRepeatedEnumField(values *EnumValueMap, v *[]int32) error
	// DecodeSingularMessageField merges the field into m.
	DecodeSingularMessageField(m Message) error
	// DecodeRepeatedMessageField decodes one or more elements, each into a
	// fresh message obtained from appendNew.
	DecodeRepeatedMessageField(appendNew func() Message) error
	DecodeMapField(entry MapEntrySink) error
	// DecodeExtensionField decodes the current field as an extension of
	// extendee. Fields with no registered extension are left to the decoder's
	// unknown field handling.
	DecodeExtensionField(values *ExtensionFieldValueSet, extendee string, fieldNumber int) error
}

// MapEntrySink receives the entries of one map field as they are decoded.
type MapEntrySink interface {
	// DecodeEntryField decodes field 1 (key) or 2 (value) of the pending entry.
	DecodeEntryField(d Decoder, fieldNumber int) error
	// ParseJSONKey sets the pending key from a JSON object member name.
	ParseJSONKey(s string) error
	// Store commits the pending entry and resets it to defaults.
	Store()
}

// EnumType is the constraint for generated enum types: an int32 kind with
// the Enum methods on its value receiver.
type EnumType interface {
	~int32
	Enum
}

// DecodeSingularEnum decodes an enum field into a typed enum.
func DecodeSingularEnum[E EnumType](d Decoder, v *E) error {
	var zero E
	raw := int32(*v)
	if err := d.DecodeSingularEnumField(zero.EnumValues(), &raw); err != nil {
		return err
	}
	*v = E(raw)
	return nil
}

// DecodeRepeatedEnum appends decoded enum values to v.
func DecodeRepeatedEnum[E EnumType](d Decoder, v *[]E) error {
	var zero E
	var raw []int32
	if err := d.DecodeRepeatedEnumField(zero.EnumValues(), &raw); err != nil {
		return err
	}
	for _, r := range raw {
		*v = append(*v, E(r))
	}
	return nil
}

// DecodeSingularMessage merges the field into *v, allocating it when nil.
func DecodeSingularMessage[T any, PT interface {
	*T
	Message
}](d Decoder, v *PT) error {
	if *v == nil {
		*v = PT(new(T))
	}
	return d.DecodeSingularMessageField(*v)
}

// DecodeRepeatedMessage appends decoded messages to v.
func DecodeRepeatedMessage[T any, PT interface {
	*T
	Message
}](d Decoder, v *[]PT) error {
	return d.DecodeRepeatedMessageField(func() Message {
		m := PT(new(T))
		*v = append(*v, m)
		return m
	})
}

// DecodeMap decodes one entry of a scalar-valued map field.
func DecodeMap[K comparable, V any, KT MapKeyType[K], VT MapValueType[V]](d Decoder, kt KT, vt VT, m *map[K]V) error {
	return d.DecodeMapField(&scalarMapSink[K, V, KT, VT]{kt: kt, vt: vt, m: m, k: kt.DefaultValue(), v: vt.DefaultValue()})
}

// DecodeEnumMap decodes one entry of an enum-valued map field.
func DecodeEnumMap[K comparable, E EnumType, KT MapKeyType[K]](d Decoder, kt KT, m *map[K]E) error {
	return d.DecodeMapField(&enumMapSink[K, E, KT]{kt: kt, m: m, k: kt.DefaultValue()})
}

// DecodeMessageMap decodes one entry of a message-valued map field.
func DecodeMessageMap[K comparable, T any, PT interface {
	*T
	Message
}, KT MapKeyType[K]](d Decoder, kt KT, m *map[K]PT) error {
	return d.DecodeMapField(&messageMapSink[K, T, PT, KT]{kt: kt, m: m, k: kt.DefaultValue()})
}

type scalarMapSink[K comparable, V any, KT MapKeyType[K], VT MapValueType[V]] struct {
	kt KT
	vt VT
	m  *map[K]V
	k  K
	v  V
}

func (s *scalarMapSink[K, V, KT, VT]) DecodeEntryField(d Decoder, fieldNumber int) error {
	switch fieldNumber {
	case 1:
		return s.kt.DecodeSingular(d, &s.k)
	case 2:
		return s.vt.DecodeSingular(d, &s.v)
	}
	return nil
}

func (s *scalarMapSink[K, V, KT, VT]) ParseJSONKey(str string) error {
	k, err := s.kt.ParseJSONMapKey(str)
	s.k = k
	return err
}

func (s *scalarMapSink[K, V, KT, VT]) Store() {
	if *s.m == nil {
		*s.m = make(map[K]V)
	}
	(*s.m)[s.k] = s.v
	s.k, s.v = s.kt.DefaultValue(), s.vt.DefaultValue()
}

type enumMapSink[K comparable, E EnumType, KT MapKeyType[K]] struct {
	kt KT
	m  *map[K]E
	k  K
	v  E
}

func (s *enumMapSink[K, E, KT]) DecodeEntryField(d Decoder, fieldNumber int) error {
	switch fieldNumber {
	case 1:
		return s.kt.DecodeSingular(d, &s.k)
	case 2:
		return DecodeSingularEnum(d, &s.v)
	}
	return nil
}

func (s *enumMapSink[K, E, KT]) ParseJSONKey(str string) error {
	k, err := s.kt.ParseJSONMapKey(str)
	s.k = k
	return err
}

func (s *enumMapSink[K, E, KT]) Store() {
	if *s.m == nil {
		*s.m = make(map[K]E)
	}
	(*s.m)[s.k] = s.v
	var zero E
	s.k, s.v = s.kt.DefaultValue(), zero
}

type messageMapSink[K comparable, T any, PT interface {
	*T
	Message
}, KT MapKeyType[K]] struct {
	kt KT
	m  *map[K]PT
	k  K
	v  PT
}

func (s *messageMapSink[K, T, PT, KT]) DecodeEntryField(d Decoder, fieldNumber int) error {
	switch fieldNumber {
	case 1:
		return s.kt.DecodeSingular(d, &s.k)
	case 2:
		return DecodeSingularMessage[T, PT](d, &s.v)
	}
	return nil
}

func (s *messageMapSink[K, T, PT, KT]) ParseJSONKey(str string) error {
	k, err := s.kt.ParseJSONMapKey(str)
	s.k = k
	return err
}

func (s *messageMapSink[K, T, PT, KT]) Store() {
	if *s.m == nil {
		*s.m = make(map[K]PT)
	}
	if s.v == nil {
		s.v = PT(new(T))
	}
	(*s.m)[s.k] = s.v
	s.k, s.v = s.kt.DefaultValue(), nil
}
