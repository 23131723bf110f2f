package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/tidwall/tinybtree"
)

// ExtensionField describes one declared extension. It is implemented by
// *Extension[V].
type ExtensionField interface {
	FieldNumber() int
	// ProtoName is the fully qualified extension name, e.g. "pkg.my_ext".
	ProtoName() string
	// Extendee is the fully qualified name of the extended message.
	Extendee() string
	// TypeName identifies the declared kind, e.g. "optional sint32".
	TypeName() string
	newValue() ExtensionFieldValue
}

// ExtensionFieldValue is a stored extension value boxed with its descriptor.
type ExtensionFieldValue interface {
	Field() ExtensionField
	Traverse(v Visitor) error
	Decode(d Decoder) error
	Equal(other ExtensionFieldValue) bool
	Clone() (ExtensionFieldValue, error)
}

type extensionOps[V any] struct {
	traverse func(v Visitor, value V, fieldNumber int) error
	decode   func(d Decoder, value *V) error
	equal    func(a, b V) bool
	clone    func(v V) (V, error)
}

// Extension is a typed extension descriptor. Create one with the
// Optional/Repeated/Packed constructors; descriptors are immutable.
type Extension[V any] struct {
	number   int
	name     string
	extendee string
	typeName string
	def      V
	ops      extensionOps[V]
}

func (x *Extension[V]) FieldNumber() int { return x.number }
func (x *Extension[V]) ProtoName() string { return x.name }
func (x *Extension[V]) Extendee() string { return x.extendee }
func (x *Extension[V]) TypeName() string { return x.typeName }

// Default is returned by GetExtension when the extension is absent.
func (x *Extension[V]) Default() V { return x.def }

func (x *Extension[V]) newValue() ExtensionFieldValue {
	return &extensionValue[V]{ext: x}
}

type extensionValue[V any] struct {
	ext   *Extension[V]
	value V
}

func (ev *extensionValue[V]) Field() ExtensionField { return ev.ext }

func (ev *extensionValue[V]) Traverse(v Visitor) error {
	return ev.ext.ops.traverse(v, ev.value, ev.ext.number)
}

func (ev *extensionValue[V]) Decode(d Decoder) error {
	return ev.ext.ops.decode(d, &ev.value)
}

func (ev *extensionValue[V]) Equal(other ExtensionFieldValue) bool {
	o, ok := other.(*extensionValue[V])
	if !ok || o.ext.typeName != ev.ext.typeName || o.ext.number != ev.ext.number {
		return false
	}
	return ev.ext.ops.equal(ev.value, o.value)
}

func (ev *extensionValue[V]) Clone() (ExtensionFieldValue, error) {
	value, err := ev.ext.ops.clone(ev.value)
	if err != nil {
		return nil, fmt.Errorf("cloning extension %s: %w", ev.ext.name, err)
	}
	return &extensionValue[V]{ext: ev.ext, value: value}, nil
}

func cloneScalar[T any](v T) (T, error) {
	if b, ok := any(v).([]byte); ok && b != nil {
		return any(bytes.Clone(b)).(T), nil
	}
	return v, nil
}

func cloneSame[T any](v T) (T, error) { return v, nil }

func cloneSlice[T any](vs []T, clone func(T) (T, error)) ([]T, error) {
	if vs == nil {
		return nil, nil
	}
	out := make([]T, len(vs))
	for i, v := range vs {
		c, err := clone(v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func OptionalExtension[T any, F FieldType[T]](ft F, fieldNumber int, protoName, extendee string, def T) *Extension[T] {
	return &Extension[T]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "optional " + ft.ProtoTypeName(),
		def:      def,
		ops: extensionOps[T]{
			traverse: func(v Visitor, value T, n int) error { return VisitSingular(v, ft, value, n) },
			decode:   ft.DecodeSingular,
			equal:    ft.Equal,
			clone:    cloneScalar[T],
		},
	}
}

func RepeatedExtension[T any, F FieldType[T]](ft F, fieldNumber int, protoName, extendee string) *Extension[[]T] {
	return repeatedExtension(ft, fieldNumber, protoName, extendee, VisitRepeated[T, F])
}

// PackedExtension is a repeated extension written as one packed run.
func PackedExtension[T any, F FieldType[T]](ft F, fieldNumber int, protoName, extendee string) *Extension[[]T] {
	return repeatedExtension(ft, fieldNumber, protoName, extendee, VisitPacked[T, F])
}

func repeatedExtension[T any, F FieldType[T]](ft F, fieldNumber int, protoName, extendee string,
	visit func(Visitor, F, []T, int) error) *Extension[[]T] {
	return &Extension[[]T]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "repeated " + ft.ProtoTypeName(),
		ops: extensionOps[[]T]{
			traverse: func(v Visitor, value []T, n int) error { return visit(v, ft, value, n) },
			decode:   ft.DecodeRepeated,
			equal:    func(a, b []T) bool { return slices.EqualFunc(a, b, ft.Equal) },
			clone:    func(vs []T) ([]T, error) { return cloneSlice(vs, cloneScalar[T]) },
		},
	}
}

func enumTypeName[E EnumType]() string {
	var zero E
	return zero.EnumValues().FullName()
}

func OptionalEnumExtension[E EnumType](fieldNumber int, protoName, extendee string, def E) *Extension[E] {
	return &Extension[E]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "optional enum " + enumTypeName[E](),
		def:      def,
		ops: extensionOps[E]{
			traverse: func(v Visitor, value E, n int) error { return v.VisitSingularEnumField(value, n) },
			decode:   DecodeSingularEnum[E],
			equal:    func(a, b E) bool { return a == b },
			clone:    cloneSame[E],
		},
	}
}

func RepeatedEnumExtension[E EnumType](fieldNumber int, protoName, extendee string) *Extension[[]E] {
	return repeatedEnumExtension(fieldNumber, protoName, extendee, VisitRepeatedEnum[E])
}

func PackedEnumExtension[E EnumType](fieldNumber int, protoName, extendee string) *Extension[[]E] {
	return repeatedEnumExtension(fieldNumber, protoName, extendee, VisitPackedEnum[E])
}

func repeatedEnumExtension[E EnumType](fieldNumber int, protoName, extendee string, visit func(Visitor, []E, int) error) *Extension[[]E] {
	return &Extension[[]E]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "repeated enum " + enumTypeName[E](),
		ops: extensionOps[[]E]{
			traverse: visit,
			decode:   DecodeRepeatedEnum[E],
			equal:    slices.Equal[[]E],
			clone:    func(vs []E) ([]E, error) { return slices.Clone(vs), nil },
		},
	}
}

func OptionalMessageExtension[T any, PT interface {
	*T
	Message
}](fieldNumber int, protoName, extendee string) *Extension[PT] {
	return &Extension[PT]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "optional message " + PT(new(T)).ProtoMessageName(),
		ops: extensionOps[PT]{
			traverse: func(v Visitor, value PT, n int) error {
				if value == nil {
					return nil
				}
				return v.VisitSingularMessageField(value, n)
			},
			decode: DecodeSingularMessage[T, PT],
			equal:  messageExtensionsEqual[T, PT],
			clone:  cloneMessage[T, PT],
		},
	}
}

func RepeatedMessageExtension[T any, PT interface {
	*T
	Message
}](fieldNumber int, protoName, extendee string) *Extension[[]PT] {
	return &Extension[[]PT]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "repeated message " + PT(new(T)).ProtoMessageName(),
		ops: extensionOps[[]PT]{
			traverse: VisitRepeatedMessage[PT],
			decode:   DecodeRepeatedMessage[T, PT],
			equal: func(a, b []PT) bool {
				return slices.EqualFunc(a, b, messageExtensionsEqual[T, PT])
			},
			clone: func(vs []PT) ([]PT, error) { return cloneSlice(vs, cloneMessage[T, PT]) },
		},
	}
}

func messageExtensionsEqual[T any, PT interface {
	*T
	Message
}](a, b PT) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return MessagesEqual(a, b)
}

// ExtensionFieldValueSet stores a message's extension values ordered by
// field number. Copying the struct shares storage; use Clone for a deep copy.
type ExtensionFieldValueSet struct {
	tree tinybtree.BTree
}

func fieldKey(fieldNumber int) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(fieldNumber))
	return string(b[:])
}

// Set stores v, replacing any value with the same field number.
func (s *ExtensionFieldValueSet) Set(v ExtensionFieldValue) {
	s.tree.Set(fieldKey(v.Field().FieldNumber()), v)
}

func (s *ExtensionFieldValueSet) Get(fieldNumber int) (ExtensionFieldValue, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.tree.Get(fieldKey(fieldNumber))
	if !ok {
		return nil, false
	}
	return v.(ExtensionFieldValue), true
}

// Has reports presence, whether or not the stored value equals the default.
func (s *ExtensionFieldValueSet) Has(fieldNumber int) bool {
	_, ok := s.Get(fieldNumber)
	return ok
}

func (s *ExtensionFieldValueSet) Clear(fieldNumber int) {
	s.tree.Delete(fieldKey(fieldNumber))
}

func (s *ExtensionFieldValueSet) Len() int {
	if s == nil {
		return 0
	}
	return s.tree.Len()
}

// Range calls f for every value in field number order until f returns false.
func (s *ExtensionFieldValueSet) Range(f func(ExtensionFieldValue) bool) {
	if s == nil {
		return
	}
	s.tree.Scan(func(_ string, value interface{}) bool {
		return f(value.(ExtensionFieldValue))
	})
}

// ProtoName returns the full name of the extension stored at fieldNumber.
func (s *ExtensionFieldValueSet) ProtoName(fieldNumber int) (string, bool) {
	v, ok := s.Get(fieldNumber)
	if !ok {
		return "", false
	}
	return v.Field().ProtoName(), true
}

// Traverse visits the values numbered in [start, end) in ascending order.
func (s *ExtensionFieldValueSet) Traverse(v Visitor, start, end int) error {
	if s == nil {
		return nil
	}
	var err error
	s.tree.Ascend(fieldKey(start), func(_ string, value interface{}) bool {
		ev := value.(ExtensionFieldValue)
		if ev.Field().FieldNumber() >= end {
			return false
		}
		err = ev.Traverse(v)
		return err == nil
	})
	return err
}

// Equal reports whether both sets hold the same field numbers with equal
// values. Insertion order is irrelevant.
func (s *ExtensionFieldValueSet) Equal(other *ExtensionFieldValueSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	equal := true
	s.Range(func(v ExtensionFieldValue) bool {
		o, ok := other.Get(v.Field().FieldNumber())
		equal = ok && v.Equal(o)
		return equal
	})
	return equal
}

// Clone returns a deep copy. A message value that cannot be copied fails
// the whole call.
func (s *ExtensionFieldValueSet) Clone() (*ExtensionFieldValueSet, error) {
	out := &ExtensionFieldValueSet{}
	var err error
	s.Range(func(v ExtensionFieldValue) bool {
		var c ExtensionFieldValue
		if c, err = v.Clone(); err != nil {
			return false
		}
		out.Set(c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fields returns the descriptors of every stored value.
func (s *ExtensionFieldValueSet) Fields() []ExtensionField {
	var fields []ExtensionField
	s.Range(func(v ExtensionFieldValue) bool {
		fields = append(fields, v.Field())
		return true
	})
	return fields
}

// SetExtension stores v for ext, overwriting any previous value.
func SetExtension[V any](set *ExtensionFieldValueSet, ext *Extension[V], v V) {
	set.Set(&extensionValue[V]{ext: ext, value: v})
}

// GetExtension returns the stored value, or ext's default when absent. A
// value stored under a different descriptor yields *ExtensionTypeError.
func GetExtension[V any](set *ExtensionFieldValueSet, ext *Extension[V]) (V, error) {
	stored, ok := set.Get(ext.number)
	if !ok {
		return ext.def, nil
	}
	ev, ok := stored.(*extensionValue[V])
	if !ok || ev.ext.typeName != ext.typeName {
		var zero V
		return zero, &ExtensionTypeError{
			FieldNumber: ext.number,
			Want:        ext.typeName,
			Got:         stored.Field().TypeName(),
		}
	}
	return ev.value, nil
}

// HasExtension reports whether a value for ext is present.
func HasExtension(set *ExtensionFieldValueSet, ext ExtensionField) bool {
	return set.Has(ext.FieldNumber())
}

func ClearExtension(set *ExtensionFieldValueSet, ext ExtensionField) {
	set.Clear(ext.FieldNumber())
}

// SetExtensionValue validates ext against m before storing v.
func SetExtensionValue[V any](m ExtensibleMessage, ext *Extension[V], v V) error {
	if err := checkExtension(m, ext); err != nil {
		return err
	}
	SetExtension(m.ExtensionFields(), ext, v)
	return nil
}

func checkExtension(m ExtensibleMessage, ext ExtensionField) error {
	if ext.Extendee() != m.ProtoMessageName() {
		return fmt.Errorf("%w: %s extends %s, not %s", ErrExtensionOutOfRange, ext.ProtoName(), ext.Extendee(), m.ProtoMessageName())
	}
	for _, r := range m.ExtensionRanges() {
		if r.Contains(ext.FieldNumber()) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s uses field %d", ErrExtensionOutOfRange, ext.ProtoName(), ext.FieldNumber())
}

type extensionKey struct {
	extendee string
	number   int
}

// ExtensionMap is a registry of extension descriptors used by decoders.
type ExtensionMap struct {
	byNumber map[extensionKey]ExtensionField
	byName   map[string]ExtensionField
}

func NewExtensionMap(fields ...ExtensionField) *ExtensionMap {
	m := &ExtensionMap{
		byNumber: make(map[extensionKey]ExtensionField),
		byName:   make(map[string]ExtensionField),
	}
	for _, f := range fields {
		m.Insert(f)
	}
	return m
}

// Insert registers f, replacing a previous registration of the same number.
func (m *ExtensionMap) Insert(f ExtensionField) {
	m.byNumber[extensionKey{f.Extendee(), f.FieldNumber()}] = f
	m.byName[f.Extendee()+"/"+f.ProtoName()] = f
}

func (m *ExtensionMap) ByNumber(extendee string, fieldNumber int) ExtensionField {
	if m == nil {
		return nil
	}
	return m.byNumber[extensionKey{extendee, fieldNumber}]
}

func (m *ExtensionMap) ByName(extendee, protoName string) ExtensionField {
	if m == nil {
		return nil
	}
	return m.byName[extendee+"/"+protoName]
}

func (m *ExtensionMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.byNumber)
}
