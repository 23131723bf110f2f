// Package protorun reads and writes protobuf messages described by .proto
// schemas loaded at runtime. Messages are dynamic.Message values that share
// the codec package's binary, text and JSON encoders with generated code.
package protorun

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/rs/zerolog"

	"github.com/anirudhraja/protorun/codec"
	"github.com/anirudhraja/protorun/dynamic"
	"github.com/anirudhraja/protorun/registry"
	"github.com/anirudhraja/protorun/schema"
)

// ===== SCHEMA-AWARE API =====

// Protolite provides schema-aware protobuf operations without generated code
type Protolite struct {
	registry *registry.Registry
	types    *dynamic.Types
	cfg      codec.Config
}

// New creates a new Protolite instance. protoDirs are searched for imports.
func New(protoDirs ...string) *Protolite {
	reg := registry.NewRegistry(protoDirs...)
	return &Protolite{
		registry: reg,
		types:    dynamic.NewTypes(reg),
		cfg:      codec.CurrentConfig(),
	}
}

// SetConfig replaces the codec configuration used by this instance.
func (p *Protolite) SetConfig(c codec.Config) { p.cfg = c }

// SetLogger routes schema loading and codec debug events to l.
func (p *Protolite) SetLogger(l zerolog.Logger) {
	p.registry.SetLogger(l)
	codec.SetLogger(l)
}

// LoadSchemaFromFile loads one .proto file and its imports.
func (p *Protolite) LoadSchemaFromFile(protoFile string) error {
	return p.reload(p.registry.LoadSchemaFromFile(protoFile))
}

// LoadSchema loads a .proto file, or every .proto file under a directory.
func (p *Protolite) LoadSchema(protoPath string) error {
	return p.reload(p.registry.LoadSchema(protoPath))
}

// LoadRepo loads a protobuf repository (collection of .proto files)
func (p *Protolite) LoadRepo(repo *schema.ProtoRepo) error {
	return p.reload(p.registry.LoadRepo(repo))
}

// reload drops message types built from the previous schema set.
func (p *Protolite) reload(err error) error {
	if err != nil {
		return err
	}
	p.types = dynamic.NewTypes(p.registry)
	return nil
}

// NewMessage returns an empty message of the named type.
func (p *Protolite) NewMessage(messageType string) (*dynamic.Message, error) {
	msg, err := p.types.New(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s: %w", messageType, err)
	}
	return msg, nil
}

func (p *Protolite) options() ([]codec.Option, error) {
	exts, err := p.types.ExtensionMap()
	if err != nil {
		return nil, err
	}
	return []codec.Option{codec.WithConfig(p.cfg), codec.WithExtensions(exts)}, nil
}

// Parse decodes protobuf bytes into a message of the named type. Every
// extension known to the loaded schemas is recognized.
func (p *Protolite) Parse(data []byte, messageType string) (*dynamic.Message, error) {
	msg, err := p.NewMessage(messageType)
	if err != nil {
		return nil, err
	}
	opts, err := p.options()
	if err != nil {
		return nil, err
	}
	if err := codec.Unmarshal(data, msg, opts...); err != nil {
		return nil, err
	}
	return msg, nil
}

// ParseJSON decodes a proto3 JSON object into a message of the named type.
func (p *Protolite) ParseJSON(data []byte, messageType string) (*dynamic.Message, error) {
	msg, err := p.NewMessage(messageType)
	if err != nil {
		return nil, err
	}
	opts, err := p.options()
	if err != nil {
		return nil, err
	}
	if err := codec.UnmarshalJSON(data, msg, opts...); err != nil {
		return nil, err
	}
	return msg, nil
}

// Marshal encodes a message to protobuf bytes.
func (p *Protolite) Marshal(msg codec.Message) ([]byte, error) {
	return codec.Marshal(msg, codec.WithConfig(p.cfg))
}

// MarshalText renders a message in protobuf text format.
func (p *Protolite) MarshalText(msg codec.Message) (string, error) {
	return codec.TextString(msg, codec.WithConfig(p.cfg))
}

// MarshalJSON renders a message as proto3 JSON.
func (p *Protolite) MarshalJSON(msg codec.Message) ([]byte, error) {
	return codec.MarshalJSON(msg, codec.WithConfig(p.cfg))
}

// Unmarshal decodes protobuf bytes into a Go struct using reflection. Struct
// fields are matched against proto field names, their JSON names or a json
// tag; nested messages fill nested structs or struct pointers.
func (p *Protolite) Unmarshal(data []byte, messageType string, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	msg, err := p.Parse(data, messageType)
	if err != nil {
		return err
	}
	return p.messageToStruct(msg, rv.Elem())
}

// messageToStruct maps parsed fields to struct fields
func (p *Protolite) messageToStruct(msg *dynamic.Message, rv reflect.Value) error {
	var err error
	msg.Range(func(f *schema.Field, value any) bool {
		fieldValue, ok := structField(rv, f)
		if !ok {
			return true
		}
		if err = p.setFieldValue(fieldValue, value); err != nil {
			err = fmt.Errorf("failed to set field %s: %w", f.Name, err)
			return false
		}
		return true
	})
	return err
}

func structField(rv reflect.Value, f *schema.Field) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !rv.Field(i).CanSet() {
			continue
		}
		tag, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if tag == f.Name || tag == f.JsonName || strings.EqualFold(field.Name, f.Name) ||
			strings.EqualFold(field.Name, strings.ReplaceAll(f.Name, "_", "")) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a struct field with type conversion
func (p *Protolite) setFieldValue(fieldValue reflect.Value, value interface{}) error {
	if value == nil {
		return nil
	}

	if child, ok := value.(*dynamic.Message); ok {
		switch {
		case child == nil:
			return nil
		case fieldValue.Kind() == reflect.Struct:
			return p.messageToStruct(child, fieldValue)
		case fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct:
			target := reflect.New(fieldValue.Type().Elem())
			if err := p.messageToStruct(child, target.Elem()); err != nil {
				return err
			}
			fieldValue.Set(target)
			return nil
		}
	}

	sourceValue := reflect.ValueOf(value)
	if sourceValue.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue)
		return nil
	}

	if sourceValue.Type().ConvertibleTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue.Convert(fieldValue.Type()))
		return nil
	}

	return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
}

// ===== REGISTRY ACCESS =====

func (p *Protolite) GetRegistry() *registry.Registry { return p.registry }
func (p *Protolite) Types() *dynamic.Types            { return p.types }
func (p *Protolite) ListMessages() []string           { return p.registry.ListMessages() }
func (p *Protolite) ListEnums() []string              { return p.registry.ListEnums() }
func (p *Protolite) ListServices() []string           { return p.registry.ListServices() }
func (p *Protolite) ListExtensions() []string         { return p.registry.ListExtensions() }
