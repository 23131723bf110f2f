// Package dynamic provides messages whose layout comes from a parsed schema
// instead of generated code. A dynamic Message implements
// codec.ExtensibleMessage, so every codec format works with it unchanged.
package dynamic

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/anirudhraja/protorun/codec"
	"github.com/anirudhraja/protorun/schema"
)

var (
	// ErrUnknownField is returned when a field name is not declared by the message.
	ErrUnknownField = errors.New("unknown field")
	// ErrTypeMismatch is returned when a value does not fit the field it is set on.
	ErrTypeMismatch = errors.New("value does not match field type")
)

// Resolver looks up the schema definitions dynamic messages refer to.
// *registry.Registry implements it.
type Resolver interface {
	GetMessage(name string) (*schema.Message, error)
	GetEnum(name string) (*schema.Enum, error)
	GetExtension(fullName string) (*schema.Field, error)
	Extensions() []*schema.Field
}

// Types creates dynamic messages for the definitions known to a Resolver.
// Per-type layouts are built on first use and cached; Types is safe for
// concurrent use.
type Types struct {
	res        Resolver
	messages   sync.Map // *schema.Message -> *messageType
	enums      sync.Map // full name -> *codec.EnumValueMap
	extensions sync.Map // full name -> *extensionInfo
}

func NewTypes(res Resolver) *Types {
	return &Types{res: res}
}

// New returns an empty message of the named type.
func (t *Types) New(name string) (*Message, error) {
	desc, err := t.res.GetMessage(name)
	if err != nil {
		return nil, err
	}
	mt, err := t.typeOf(desc)
	if err != nil {
		return nil, err
	}
	return mt.new(), nil
}

// ExtensionMap returns descriptors for every extension the resolver knows,
// for use with codec.WithExtensions.
func (t *Types) ExtensionMap() (*codec.ExtensionMap, error) {
	exts := codec.NewExtensionMap()
	for _, f := range t.res.Extensions() {
		info, err := t.extension(f)
		if err != nil {
			return nil, err
		}
		exts.Insert(info.desc)
	}
	return exts, nil
}

// Extension returns the codec descriptor of a registered extension.
func (t *Types) Extension(fullName string) (codec.ExtensionField, error) {
	info, err := t.extensionByName(fullName)
	if err != nil {
		return nil, err
	}
	return info.desc, nil
}

type fieldKind int

const (
	kindScalar fieldKind = iota
	kindEnum
	kindMessage
)

// elemType describes a singular value, a list element or a map value.
type elemType struct {
	kind    fieldKind
	scalar  *scalarKind
	enum    *codec.EnumValueMap
	message *schema.Message
}

type fieldInfo struct {
	field  *schema.Field
	number int
	elem   elemType
	// key is set for map fields only; elem then describes the values.
	key      *scalarKind
	repeated bool
	packed   bool
	presence bool
	def      any
	oneof    *schema.Oneof
}

type messageType struct {
	types    *Types
	desc     *schema.Message
	names    *codec.NameMap
	fields   []*fieldInfo
	byNumber map[int]*fieldInfo
	byName   map[string]*fieldInfo
	ranges   []codec.ExtensionRange
}

func (mt *messageType) new() *Message {
	return &Message{typ: mt, values: make(map[int]any)}
}

func (mt *messageType) inExtensionRange(n int) bool {
	for _, r := range mt.ranges {
		if r.Contains(n) {
			return true
		}
	}
	return false
}

func (mt *messageType) field(name string) (*fieldInfo, error) {
	if f, ok := mt.byName[name]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, mt.desc.FullName, name)
}

// typeOf returns the cached layout for desc. Building a layout only looks up
// the descriptors of referenced types, so recursive schemas terminate.
func (t *Types) typeOf(desc *schema.Message) (*messageType, error) {
	if mt, ok := t.messages.Load(desc); ok {
		return mt.(*messageType), nil
	}
	mt, err := t.buildType(desc)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", desc.FullName, err)
	}
	actual, _ := t.messages.LoadOrStore(desc, mt)
	return actual.(*messageType), nil
}

func (t *Types) buildType(desc *schema.Message) (*messageType, error) {
	mt := &messageType{
		types:    t,
		desc:     desc,
		byNumber: make(map[int]*fieldInfo, len(desc.Fields)),
		byName:   make(map[string]*fieldInfo, 2*len(desc.Fields)),
	}

	oneofs := make(map[*schema.Field]*schema.Oneof)
	for _, group := range desc.OneofGroups {
		for _, f := range group.Fields {
			oneofs[f] = group
		}
	}

	entries := make([]codec.NameEntry, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		info, err := t.buildField(f)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		info.oneof = oneofs[f]
		if info.oneof != nil {
			info.presence = true
		}
		if _, dup := mt.byNumber[info.number]; dup {
			return nil, fmt.Errorf("field number %d used twice", f.Number)
		}
		mt.fields = append(mt.fields, info)
		mt.byNumber[info.number] = info
		entries = append(entries, codec.NameEntry{Number: info.number, Proto: f.Name, JSON: f.JsonName})
	}
	slices.SortFunc(mt.fields, func(a, b *fieldInfo) int { return a.number - b.number })

	mt.names = codec.NewNameMap(entries...)
	for _, info := range mt.fields {
		mt.byName[info.field.Name] = info
		if json, ok := mt.names.JSONName(info.number); ok {
			if _, taken := mt.byName[json]; !taken {
				mt.byName[json] = info
			}
		}
	}

	for _, r := range desc.ExtensionRanges {
		mt.ranges = append(mt.ranges, codec.ExtensionRange{Start: int(r.Start), End: int(r.End)})
	}
	slices.SortFunc(mt.ranges, func(a, b codec.ExtensionRange) int { return a.Start - b.Start })
	return mt, nil
}

func (t *Types) buildField(f *schema.Field) (*fieldInfo, error) {
	info := &fieldInfo{
		field:    f,
		number:   int(f.Number),
		repeated: f.IsRepeated(),
		packed:   f.Packed,
		presence: f.Presence,
	}
	if f.IsMap() {
		key, ok := scalarKinds[f.Type.MapKey.PrimitiveType]
		if !ok || key.bindKey == nil {
			return nil, fmt.Errorf("invalid map key type %q", f.Type.MapKey.PrimitiveType)
		}
		value, err := t.elemType(f.Type.MapValue)
		if err != nil {
			return nil, err
		}
		info.elem, info.key = value, key
		info.repeated, info.packed, info.presence = false, false, false
		return info, nil
	}

	elem, err := t.elemType(&f.Type)
	if err != nil {
		return nil, err
	}
	info.elem = elem
	if info.repeated {
		info.presence = false
		info.packed = f.Packed && elem.kind != kindMessage
		return info, nil
	}
	info.def, err = t.defaultValue(f, elem)
	return info, err
}

func (t *Types) elemType(ft *schema.FieldType) (elemType, error) {
	switch ft.Kind {
	case schema.KindPrimitive:
		s, ok := scalarKinds[ft.PrimitiveType]
		if !ok {
			return elemType{}, fmt.Errorf("unknown scalar type %q", ft.PrimitiveType)
		}
		return elemType{kind: kindScalar, scalar: s}, nil
	case schema.KindEnum:
		values, err := t.enumValues(ft.EnumType)
		if err != nil {
			return elemType{}, err
		}
		return elemType{kind: kindEnum, enum: values}, nil
	case schema.KindMessage:
		desc, err := t.res.GetMessage(ft.MessageType)
		if err != nil {
			return elemType{}, err
		}
		return elemType{kind: kindMessage, message: desc}, nil
	}
	return elemType{}, fmt.Errorf("unsupported type kind %q", ft.Kind)
}

func (t *Types) enumValues(name string) (*codec.EnumValueMap, error) {
	if v, ok := t.enums.Load(name); ok {
		return v.(*codec.EnumValueMap), nil
	}
	enum, err := t.res.GetEnum(name)
	if err != nil {
		return nil, err
	}
	values := make([]codec.EnumValue, len(enum.Values))
	for i, v := range enum.Values {
		values[i] = codec.EnumValue{Number: v.Number, Name: v.Name}
	}
	full := enum.FullName
	if full == "" {
		full = name
	}
	actual, _ := t.enums.LoadOrStore(name, codec.NewEnumValueMap(full, values...))
	return actual.(*codec.EnumValueMap), nil
}

// defaultValue is what Get returns for an absent singular field: the
// declared proto2 default, the first enum value, or the type's zero value.
func (t *Types) defaultValue(f *schema.Field, elem elemType) (any, error) {
	switch elem.kind {
	case kindScalar:
		if f.DefaultValue == "" {
			return elem.scalar.zero, nil
		}
		v, err := elem.scalar.parseDefault(f.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("invalid default %q: %w", f.DefaultValue, err)
		}
		return v, nil
	case kindEnum:
		if f.DefaultValue != "" {
			n, ok := elem.enum.Value(f.DefaultValue)
			if !ok {
				return nil, fmt.Errorf("invalid default %q for enum %s", f.DefaultValue, elem.enum.FullName())
			}
			return n, nil
		}
		enum, err := t.res.GetEnum(f.Type.EnumType)
		if err == nil && len(enum.Values) > 0 {
			return enum.Values[0].Number, nil
		}
		return int32(0), nil
	}
	return nil, nil
}

// extensionInfo pairs a codec extension descriptor with type-erased access
// to its values.
type extensionInfo struct {
	field *schema.Field
	desc  codec.ExtensionField
	set   func(m codec.ExtensibleMessage, v any) error
	get   func(s *codec.ExtensionFieldValueSet) (any, error)
}

func typedExtension[V any](f *schema.Field, ext *codec.Extension[V]) *extensionInfo {
	return &extensionInfo{
		field: f,
		desc:  ext,
		set: func(m codec.ExtensibleMessage, v any) error {
			x, ok := v.(V)
			if !ok {
				var want V
				return fmt.Errorf("%w: extension %s expects %T, got %T", ErrTypeMismatch, f.FullName, want, v)
			}
			return codec.SetExtensionValue(m, ext, x)
		},
		get: func(s *codec.ExtensionFieldValueSet) (any, error) {
			return codec.GetExtension(s, ext)
		},
	}
}

func (t *Types) extensionByName(fullName string) (*extensionInfo, error) {
	if v, ok := t.extensions.Load(fullName); ok {
		return v.(*extensionInfo), nil
	}
	f, err := t.res.GetExtension(fullName)
	if err != nil {
		return nil, err
	}
	return t.extension(f)
}

func (t *Types) extension(f *schema.Field) (*extensionInfo, error) {
	if v, ok := t.extensions.Load(f.FullName); ok {
		return v.(*extensionInfo), nil
	}
	info, err := t.buildExtension(f)
	if err != nil {
		return nil, fmt.Errorf("extension %s: %w", f.FullName, err)
	}
	actual, _ := t.extensions.LoadOrStore(f.FullName, info)
	return actual.(*extensionInfo), nil
}

func (t *Types) buildExtension(f *schema.Field) (*extensionInfo, error) {
	if f.IsMap() {
		return nil, fmt.Errorf("extensions cannot be maps")
	}
	elem, err := t.elemType(&f.Type)
	if err != nil {
		return nil, err
	}
	n := int(f.Number)
	switch elem.kind {
	case kindScalar:
		if f.IsRepeated() {
			return elem.scalar.repeatedExtension(f, f.Packed), nil
		}
		def, err := t.defaultValue(f, elem)
		if err != nil {
			return nil, err
		}
		return elem.scalar.optionalExtension(f, def), nil
	case kindEnum:
		if f.IsRepeated() {
			return typedExtension(f, codec.RepeatedRawEnumExtension(elem.enum, n, f.FullName, f.Extendee, f.Packed)), nil
		}
		def, err := t.defaultValue(f, elem)
		if err != nil {
			return nil, err
		}
		return typedExtension(f, codec.OptionalRawEnumExtension(elem.enum, n, f.FullName, f.Extendee, def.(int32))), nil
	default:
		mt, err := t.typeOf(elem.message)
		if err != nil {
			return nil, err
		}
		newMessage := func() codec.Message { return mt.new() }
		if f.IsRepeated() {
			return typedExtension(f, codec.RepeatedRuntimeMessageExtension(n, f.FullName, f.Extendee, elem.message.FullName, newMessage)), nil
		}
		return typedExtension(f, codec.OptionalRuntimeMessageExtension(n, f.FullName, f.Extendee, elem.message.FullName, newMessage)), nil
	}
}
