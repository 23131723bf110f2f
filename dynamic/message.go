package dynamic

import (
	"bytes"
	"maps"
	"slices"

	"github.com/anirudhraja/protorun/codec"
	"github.com/anirudhraja/protorun/schema"
)

// Message is a message whose fields are described by a *schema.Message.
// Values are kept by field number: scalars as their Go type (int32, string,
// []byte ...), enums as int32, nested messages as *Message, repeated fields
// as slices of those and maps as map[any]any.
//
// A Message is not safe for concurrent mutation.
type Message struct {
	typ        *messageType
	values     map[int]any
	unknown    codec.UnknownStorage
	extensions codec.ExtensionFieldValueSet
}

var (
	_ codec.ExtensibleMessage = (*Message)(nil)
	_ codec.Equaler           = (*Message)(nil)
	_ codec.Cloner            = (*Message)(nil)
)

func (m *Message) ProtoMessageName() string { return m.typ.desc.FullName }
func (m *Message) FieldNames() *codec.NameMap { return m.typ.names }
func (m *Message) UnknownFields() *codec.UnknownStorage { return &m.unknown }
func (m *Message) ExtensionRanges() []codec.ExtensionRange { return m.typ.ranges }
func (m *Message) ExtensionFields() *codec.ExtensionFieldValueSet { return &m.extensions }

// Descriptor returns the schema the message was built from.
func (m *Message) Descriptor() *schema.Message { return m.typ.desc }

// String renders the message in text format.
func (m *Message) String() string {
	s, err := codec.TextString(m)
	if err != nil {
		return "<" + m.ProtoMessageName() + ": " + err.Error() + ">"
	}
	return s
}

// visible returns the value Traverse would emit for f.
func (m *Message) visible(f *fieldInfo) (any, bool) {
	v, ok := m.values[f.number]
	if !ok || v == nil {
		return nil, false
	}
	switch {
	case f.key != nil:
		return v, len(v.(map[any]any)) > 0
	case f.repeated:
		return v, f.length(v) > 0
	case f.presence:
		return v, true
	}
	switch f.elem.kind {
	case kindScalar:
		return v, !f.elem.scalar.isZero(v)
	case kindEnum:
		return v, v.(int32) != 0
	}
	return v, true
}

func (f *fieldInfo) length(v any) int {
	switch f.elem.kind {
	case kindScalar:
		return f.elem.scalar.length(v)
	case kindEnum:
		return len(v.([]int32))
	}
	return len(v.([]*Message))
}

// Traverse visits present fields in field number order, with each extension
// range replayed at its position among them, then the unknown fields.
func (m *Message) Traverse(v codec.Visitor) error {
	ranges := m.typ.ranges
	for _, f := range m.typ.fields {
		for len(ranges) > 0 && ranges[0].Start < f.number {
			if err := v.VisitExtensionFields(&m.extensions, ranges[0].Start, ranges[0].End); err != nil {
				return err
			}
			ranges = ranges[1:]
		}
		value, ok := m.visible(f)
		if !ok {
			continue
		}
		if err := f.visit(v, value); err != nil {
			return err
		}
	}
	for _, r := range ranges {
		if err := v.VisitExtensionFields(&m.extensions, r.Start, r.End); err != nil {
			return err
		}
	}
	return m.unknown.Traverse(v)
}

func (f *fieldInfo) visit(v codec.Visitor, value any) error {
	n := f.number
	if f.key != nil {
		mv := value.(map[any]any)
		switch f.elem.kind {
		case kindScalar:
			return v.VisitMapField(scalarMapView{key: f.key, value: f.elem.scalar, m: mv}, n)
		case kindEnum:
			return v.VisitEnumMapField(enumMapView{key: f.key, values: f.elem.enum, m: mv}, n)
		default:
			return v.VisitMessageMapField(messageMapView{key: f.key, m: mv}, n)
		}
	}
	switch f.elem.kind {
	case kindScalar:
		s := f.elem.scalar
		switch {
		case !f.repeated:
			return v.VisitSingularField(s.bind(value), n)
		case f.packed:
			return v.VisitPackedField(s.bindRepeated(value), n)
		default:
			return v.VisitRepeatedField(s.bindRepeated(value), n)
		}
	case kindEnum:
		switch {
		case !f.repeated:
			return v.VisitSingularEnumField(codec.RawEnum{Values: f.elem.enum, Raw: value.(int32)}, n)
		case f.packed:
			return codec.VisitPackedEnum(v, codec.RawEnums(f.elem.enum, value.([]int32)), n)
		default:
			return codec.VisitRepeatedEnum(v, codec.RawEnums(f.elem.enum, value.([]int32)), n)
		}
	default:
		if !f.repeated {
			return v.VisitSingularMessageField(value.(*Message), n)
		}
		return codec.VisitRepeatedMessage(v, value.([]*Message), n)
	}
}

// DecodeMessage merges fields from d. Fields in an extension range go to the
// extension set; anything else undeclared is left to the decoder.
func (m *Message) DecodeMessage(d codec.Decoder) error {
	for {
		n, ok, err := d.NextFieldNumber()
		if err != nil || !ok {
			return err
		}
		if f, declared := m.typ.byNumber[n]; declared {
			err = m.decodeField(d, f)
		} else if m.typ.inExtensionRange(n) {
			err = d.DecodeExtensionField(&m.extensions, m.ProtoMessageName(), n)
		}
		if err != nil {
			return err
		}
	}
}

func (m *Message) decodeField(d codec.Decoder, f *fieldInfo) error {
	cur := m.values[f.number]
	if f.key != nil {
		mv, _ := cur.(map[any]any)
		if mv == nil {
			mv = make(map[any]any)
		}
		sink := &mapSink{f: f, types: m.typ.types, m: mv}
		sink.reset()
		err := d.DecodeMapField(sink)
		m.values[f.number] = mv
		return err
	}

	var (
		next any
		err  error
	)
	switch f.elem.kind {
	case kindScalar:
		if f.repeated {
			next, err = f.elem.scalar.decodeRepeated(d, cur)
		} else {
			next, err = f.elem.scalar.decode(d, cur)
		}
	case kindEnum:
		if f.repeated {
			list, _ := cur.([]int32)
			err = d.DecodeRepeatedEnumField(f.elem.enum, &list)
			next = list
		} else {
			raw, _ := cur.(int32)
			err = d.DecodeSingularEnumField(f.elem.enum, &raw)
			next = raw
		}
	default:
		mt, typeErr := m.typ.types.typeOf(f.elem.message)
		if typeErr != nil {
			return typeErr
		}
		if f.repeated {
			list, _ := cur.([]*Message)
			err = d.DecodeRepeatedMessageField(func() codec.Message {
				child := mt.new()
				list = append(list, child)
				return child
			})
			next = list
		} else {
			child, _ := cur.(*Message)
			if child == nil {
				child = mt.new()
			}
			err = d.DecodeSingularMessageField(child)
			next = child
		}
	}
	m.store(f, next)
	return err
}

// store sets a field value and clears the other members of its oneof.
func (m *Message) store(f *fieldInfo, v any) {
	if f.oneof != nil {
		for _, other := range f.oneof.Fields {
			if n := int(other.Number); n != f.number {
				delete(m.values, n)
			}
		}
	}
	m.values[f.number] = v
}

// EqualMessage compares field by field. Stored proto3 zero values compare
// equal to absent ones, matching what the encoders emit.
func (m *Message) EqualMessage(other codec.Message) bool {
	o, ok := other.(*Message)
	if !ok || o == nil || o.ProtoMessageName() != m.ProtoMessageName() {
		return false
	}
	if o.typ.desc != m.typ.desc {
		// Same name from another schema load: compare encodings.
		return encodedEqual(m, o)
	}
	for _, f := range m.typ.fields {
		a, okA := m.visible(f)
		b, okB := o.visible(o.typ.byNumber[f.number])
		if okA != okB {
			return false
		}
		if okA && !f.equal(a, b) {
			return false
		}
	}
	return bytes.Equal(m.unknown.Bytes(), o.unknown.Bytes()) && m.extensions.Equal(&o.extensions)
}

func encodedEqual(a, b *Message) bool {
	cfg := codec.WithConfig(codec.Config{Deterministic: true})
	ab, errA := codec.Marshal(a, cfg)
	bb, errB := codec.Marshal(b, cfg)
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

func (e elemType) equal(a, b any) bool {
	switch e.kind {
	case kindScalar:
		return e.scalar.equal(a, b)
	case kindEnum:
		return a.(int32) == b.(int32)
	}
	return codec.MessagesEqual(a.(*Message), b.(*Message))
}

func (f *fieldInfo) equal(a, b any) bool {
	switch {
	case f.key != nil:
		return maps.EqualFunc(a.(map[any]any), b.(map[any]any), f.elem.equal)
	case !f.repeated:
		return f.elem.equal(a, b)
	}
	switch f.elem.kind {
	case kindScalar:
		return f.elem.scalar.equalRepeated(a, b)
	case kindEnum:
		return slices.Equal(a.([]int32), b.([]int32))
	}
	return slices.EqualFunc(a.([]*Message), b.([]*Message), func(x, y *Message) bool {
		return codec.MessagesEqual(x, y)
	})
}

// Clone returns a deep copy. It fails only when an extension holds a
// message of another runtime that cannot be copied.
func (m *Message) Clone() (*Message, error) {
	if m == nil {
		return nil, nil
	}
	out := m.typ.new()
	for n, v := range m.values {
		c, err := m.typ.byNumber[n].clone(v)
		if err != nil {
			return nil, err
		}
		out.values[n] = c
	}
	out.unknown = m.unknown.Clone()
	exts, err := m.extensions.Clone()
	if err != nil {
		return nil, err
	}
	out.extensions = *exts
	return out, nil
}

func (m *Message) CloneMessage() (codec.Message, error) { return m.Clone() }

func (e elemType) clone(v any) (any, error) {
	switch e.kind {
	case kindScalar:
		return e.scalar.clone(v), nil
	case kindEnum:
		return v, nil
	}
	return v.(*Message).Clone()
}

func (f *fieldInfo) clone(v any) (any, error) {
	switch {
	case v == nil:
		return nil, nil
	case f.key != nil:
		src := v.(map[any]any)
		out := make(map[any]any, len(src))
		for k, x := range src {
			c, err := f.elem.clone(x)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case !f.repeated:
		return f.elem.clone(v)
	}
	switch f.elem.kind {
	case kindScalar:
		return f.elem.scalar.cloneRepeated(v), nil
	case kindEnum:
		return slices.Clone(v.([]int32)), nil
	}
	src := v.([]*Message)
	out := make([]*Message, len(src))
	for i, x := range src {
		c, err := x.Clone()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
