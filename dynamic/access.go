package dynamic

import (
	"fmt"
	"reflect"

	"github.com/anirudhraja/protorun/codec"
	"github.com/anirudhraja/protorun/schema"
)

// Get returns the value of the named field, or its default when absent.
// Names may be proto or JSON names.
func (m *Message) Get(name string) (any, error) {
	f, err := m.typ.field(name)
	if err != nil {
		return nil, err
	}
	if v, ok := m.values[f.number]; ok && v != nil {
		return v, nil
	}
	switch {
	case f.key != nil:
		return map[any]any(nil), nil
	case f.repeated:
		switch f.elem.kind {
		case kindScalar:
			return f.elem.scalar.emptyRepeated, nil
		case kindEnum:
			return []int32(nil), nil
		}
		return []*Message(nil), nil
	case f.elem.kind == kindMessage:
		return (*Message)(nil), nil
	}
	return f.def, nil
}

// Has reports whether the field would be emitted by the encoders.
func (m *Message) Has(name string) bool {
	f, err := m.typ.field(name)
	if err != nil {
		return false
	}
	_, ok := m.visible(f)
	return ok
}

// Set stores v in the named field. Scalars take their exact Go type; enums
// take an int32, a codec.Enum or a value name; messages take a *Message of
// the field's type; maps take any Go map whose keys and values fit. Setting a
// oneof member clears the others. A nil v clears the field.
func (m *Message) Set(name string, v any) error {
	f, err := m.typ.field(name)
	if err != nil {
		return err
	}
	if v == nil {
		delete(m.values, f.number)
		return nil
	}
	value, err := f.convert(v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", m.ProtoMessageName(), f.field.Name, err)
	}
	m.store(f, value)
	return nil
}

// Clear removes the named field.
func (m *Message) Clear(name string) error {
	f, err := m.typ.field(name)
	if err != nil {
		return err
	}
	delete(m.values, f.number)
	return nil
}

// Reset clears every field, extension and unknown field.
func (m *Message) Reset() {
	m.values = make(map[int]any)
	m.unknown.Reset()
	m.extensions = codec.ExtensionFieldValueSet{}
}

// Mutable returns the message stored in a singular message field, creating
// and storing an empty one first if needed.
func (m *Message) Mutable(name string) (*Message, error) {
	f, err := m.typ.field(name)
	if err != nil {
		return nil, err
	}
	if f.elem.kind != kindMessage || f.repeated || f.key != nil {
		return nil, fmt.Errorf("%w: %s.%s is not a singular message field", ErrTypeMismatch, m.ProtoMessageName(), f.field.Name)
	}
	if child, ok := m.values[f.number].(*Message); ok && child != nil {
		return child, nil
	}
	child, err := m.NewMessageFor(name)
	if err != nil {
		return nil, err
	}
	m.store(f, child)
	return child, nil
}

// NewMessageFor returns an empty message of the type held by the named
// message or message-valued map field. It does not modify m.
func (m *Message) NewMessageFor(name string) (*Message, error) {
	f, err := m.typ.field(name)
	if err != nil {
		return nil, err
	}
	if f.elem.kind != kindMessage {
		return nil, fmt.Errorf("%w: %s.%s does not hold messages", ErrTypeMismatch, m.ProtoMessageName(), f.field.Name)
	}
	mt, err := m.typ.types.typeOf(f.elem.message)
	if err != nil {
		return nil, err
	}
	return mt.new(), nil
}

// Range calls fn for each present field in field number order until fn
// returns false.
func (m *Message) Range(fn func(field *schema.Field, value any) bool) {
	for _, f := range m.typ.fields {
		v, ok := m.visible(f)
		if ok && !fn(f.field, v) {
			return
		}
	}
}

// WhichOneof returns the member of the named oneof that is set, or nil.
func (m *Message) WhichOneof(group string) *schema.Field {
	for _, o := range m.typ.desc.OneofGroups {
		if o.Name != group {
			continue
		}
		for _, f := range o.Fields {
			if _, ok := m.values[int(f.Number)]; ok {
				return f
			}
		}
	}
	return nil
}

// SetExtension stores v for the extension with the given full name. Scalar
// and enum values use the same Go types as fields. Message extensions take a
// *Message, repeated ones a []codec.Message.
func (m *Message) SetExtension(fullName string, v any) error {
	info, err := m.typ.types.extensionByName(fullName)
	if err != nil {
		return err
	}
	return info.set(m, v)
}

// GetExtension returns the stored extension value or its default.
func (m *Message) GetExtension(fullName string) (any, error) {
	info, err := m.typ.types.extensionByName(fullName)
	if err != nil {
		return nil, err
	}
	return info.get(&m.extensions)
}

func (m *Message) HasExtension(fullName string) bool {
	info, err := m.typ.types.extensionByName(fullName)
	if err != nil {
		return false
	}
	return codec.HasExtension(&m.extensions, info.desc)
}

func (m *Message) ClearExtension(fullName string) error {
	info, err := m.typ.types.extensionByName(fullName)
	if err != nil {
		return err
	}
	codec.ClearExtension(&m.extensions, info.desc)
	return nil
}

func mismatch(want string, v any) error {
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, want, v)
}

func (f *fieldInfo) convert(v any) (any, error) {
	switch {
	case f.key != nil:
		return f.convertMap(v)
	case !f.repeated:
		return f.elem.convert(v)
	}
	switch f.elem.kind {
	case kindScalar:
		if !f.elem.scalar.checkRepeated(v) {
			return nil, mismatch("[]"+f.elem.scalar.goType, v)
		}
		return v, nil
	case kindEnum:
		list, ok := v.([]int32)
		if !ok {
			return nil, mismatch("[]int32", v)
		}
		return list, nil
	}
	list, ok := v.([]*Message)
	if !ok {
		return nil, mismatch("[]*dynamic.Message", v)
	}
	for _, x := range list {
		if _, err := f.elem.convert(x); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (e elemType) convert(v any) (any, error) {
	switch e.kind {
	case kindScalar:
		if !e.scalar.check(v) {
			return nil, mismatch(e.scalar.goType, v)
		}
		return v, nil
	case kindEnum:
		switch x := v.(type) {
		case int32:
			return x, nil
		case codec.Enum:
			return x.Number(), nil
		case string:
			n, ok := e.enum.Value(x)
			if !ok {
				return nil, fmt.Errorf("%w: %q is not a value of %s", ErrTypeMismatch, x, e.enum.FullName())
			}
			return n, nil
		}
		return nil, mismatch("enum "+e.enum.FullName(), v)
	}
	msg, ok := v.(*Message)
	if !ok || msg == nil {
		return nil, mismatch("*dynamic.Message", v)
	}
	if msg.ProtoMessageName() != e.message.FullName {
		return nil, fmt.Errorf("%w: want message %s, got %s", ErrTypeMismatch, e.message.FullName, msg.ProtoMessageName())
	}
	return msg, nil
}

// convertMap copies any Go map into the map[any]any representation,
// checking every key and value.
func (f *fieldInfo) convertMap(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, mismatch("map", v)
	}
	out := make(map[any]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		if !f.key.check(k) {
			return nil, mismatch(f.key.goType+" map key", k)
		}
		value, err := f.elem.convert(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		out[k] = value
	}
	return out, nil
}
