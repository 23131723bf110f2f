package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protorun/schema"
	"github.com/anirudhraja/protorun/wire"
)

const maxFieldNumber = int64(wire.MaxValidNumber)

// converter turns one parsed .proto file into the schema model. Type names
// are left as written; the registry resolves them once every file is known.
type converter struct {
	file *schema.ProtoFile
	log  zerolog.Logger
}

func convertProto(name string, proto *parser.Proto, log zerolog.Logger) (*schema.ProtoFile, error) {
	c := &converter{
		file: &schema.ProtoFile{
			Name:   name,
			Syntax: "proto2",
		},
		log: log.With().Str("file", name).Logger(),
	}
	if proto.Syntax != nil {
		c.file.Syntax = strings.Trim(proto.Syntax.ProtobufVersion, `"'`)
	}

	// The package must be known before any extension names are built.
	for _, body := range proto.ProtoBody {
		if p, ok := body.(*parser.Package); ok {
			c.file.Package = p.Name
		}
	}

	for _, body := range proto.ProtoBody {
		switch b := body.(type) {
		case *parser.Import:
			c.file.Imports = append(c.file.Imports, &schema.Import{
				Path:   strings.Trim(b.Location, `"`),
				Public: b.Modifier == parser.ImportModifierPublic,
				Weak:   b.Modifier == parser.ImportModifierWeak,
			})
		case *parser.Message:
			msg, err := c.message(b, c.file.Package)
			if err != nil {
				return nil, err
			}
			c.file.Messages = append(c.file.Messages, msg)
		case *parser.Enum:
			enum, err := c.enum(b)
			if err != nil {
				return nil, err
			}
			c.file.Enums = append(c.file.Enums, enum)
		case *parser.Extend:
			fields, err := c.extend(b, c.file.Package)
			if err != nil {
				return nil, err
			}
			c.file.Extensions = append(c.file.Extensions, fields...)
		case *parser.Service:
			c.file.Services = append(c.file.Services, c.service(b))
		}
	}
	return c.file, nil
}

func (c *converter) proto3() bool {
	return c.file.Syntax == "proto3"
}

func scopedName(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

func (c *converter) message(m *parser.Message, scope string) (*schema.Message, error) {
	fullName := scopedName(scope, m.MessageName)
	msg := &schema.Message{Name: m.MessageName}

	for _, body := range m.MessageBody {
		switch b := body.(type) {
		case *parser.Field:
			f, err := c.field(b)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", fullName, b.FieldName, err)
			}
			msg.Fields = append(msg.Fields, f)
		case *parser.MapField:
			f, err := c.mapField(b)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", fullName, b.MapName, err)
			}
			msg.Fields = append(msg.Fields, f)
		case *parser.Oneof:
			group := &schema.Oneof{Name: b.OneofName}
			index := int32(len(msg.OneofGroups))
			for _, of := range b.OneofFields {
				f, err := c.oneofField(of, index)
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", fullName, of.FieldName, err)
				}
				group.Fields = append(group.Fields, f)
				msg.Fields = append(msg.Fields, f)
			}
			msg.OneofGroups = append(msg.OneofGroups, group)
		case *parser.Message:
			nested, err := c.message(b, fullName)
			if err != nil {
				return nil, err
			}
			msg.NestedTypes = append(msg.NestedTypes, nested)
		case *parser.Enum:
			nested, err := c.enum(b)
			if err != nil {
				return nil, err
			}
			msg.NestedEnums = append(msg.NestedEnums, nested)
		case *parser.Extensions:
			for _, rg := range b.Ranges {
				er, err := extensionRange(rg)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", fullName, err)
				}
				msg.ExtensionRanges = append(msg.ExtensionRanges, er)
			}
		case *parser.Extend:
			fields, err := c.extend(b, fullName)
			if err != nil {
				return nil, err
			}
			msg.Extensions = append(msg.Extensions, fields...)
		case *parser.GroupField:
			c.log.Debug().Str("message", fullName).Str("group", b.GroupName).Msg("group fields are not modeled, their data stays unknown")
		}
	}
	return msg, nil
}

func parseFieldNumber(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid field number %q", s)
	}
	num := wire.FieldNumber(n)
	if !num.Valid() || (num >= wire.FirstReservedNumber && num <= wire.LastReservedNumber) {
		return 0, fmt.Errorf("field number %d out of range", n)
	}
	return int32(n), nil
}

// fieldType maps a type as written to the schema model. Named types are
// recorded as messages until resolution says otherwise.
func fieldType(typeName string) schema.FieldType {
	if schema.IsPrimitiveType(typeName) {
		return schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.PrimitiveType(typeName)}
	}
	return schema.FieldType{Kind: schema.KindMessage, MessageType: typeName}
}

func optionValue(opts []*parser.FieldOption, name string) (string, bool) {
	for _, o := range opts {
		if strings.Trim(o.OptionName, "()") == name {
			return strings.Trim(o.Constant, `"'`), true
		}
	}
	return "", false
}

func (c *converter) newField(name, typeName, number string, opts []*parser.FieldOption) (*schema.Field, error) {
	num, err := parseFieldNumber(number)
	if err != nil {
		return nil, err
	}
	f := &schema.Field{
		Name:       name,
		Number:     num,
		Label:      schema.LabelOptional,
		Type:       fieldType(typeName),
		OneofIndex: -1,
		Presence:   !c.proto3(),
	}
	if v, ok := optionValue(opts, "json_name"); ok {
		f.JsonName = v
	}
	if v, ok := optionValue(opts, "default"); ok {
		f.DefaultValue = v
	}
	return f, nil
}

func (c *converter) field(pf *parser.Field) (*schema.Field, error) {
	f, err := c.newField(pf.FieldName, pf.Type, pf.FieldNumber, pf.FieldOptions)
	if err != nil {
		return nil, err
	}
	switch {
	case pf.IsRepeated:
		f.Label = schema.LabelRepeated
		f.Presence = false
		packed := c.proto3()
		if v, ok := optionValue(pf.FieldOptions, "packed"); ok {
			packed = v == "true"
		}
		// Named types may still turn out to be messages; resolution clears it.
		f.Packed = packed && (f.Type.Kind != schema.KindPrimitive || schema.IsPackedType(f.Type.PrimitiveType))
	case pf.IsRequired:
		f.Label = schema.LabelRequired
	case pf.IsOptional:
		f.Presence = true
	}
	return f, nil
}

func (c *converter) mapField(mf *parser.MapField) (*schema.Field, error) {
	f, err := c.newField(mf.MapName, mf.Type, mf.FieldNumber, mf.FieldOptions)
	if err != nil {
		return nil, err
	}
	key := fieldType(mf.KeyType)
	value := fieldType(mf.Type)
	f.Label = schema.LabelRepeated
	f.Presence = false
	f.Type = schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &value}
	return f, nil
}

func (c *converter) oneofField(of *parser.OneofField, index int32) (*schema.Field, error) {
	f, err := c.newField(of.FieldName, of.Type, of.FieldNumber, of.FieldOptions)
	if err != nil {
		return nil, err
	}
	f.OneofIndex = index
	f.Presence = true
	return f, nil
}

func extensionRange(rg *parser.Range) (*schema.ExtensionRange, error) {
	start, err := strconv.ParseInt(rg.Begin, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid extension range start %q", rg.Begin)
	}
	end := start
	switch rg.End {
	case "":
	case "max":
		end = maxFieldNumber
	default:
		if end, err = strconv.ParseInt(rg.End, 0, 32); err != nil {
			return nil, fmt.Errorf("invalid extension range end %q", rg.End)
		}
	}
	if start < 1 || end < start || end > maxFieldNumber {
		return nil, fmt.Errorf("invalid extension range %d to %d", start, end)
	}
	return &schema.ExtensionRange{Start: int32(start), End: int32(end + 1)}, nil
}

// extend converts an extend block declared in scope, which is the package
// for top-level blocks and the enclosing message otherwise.
func (c *converter) extend(x *parser.Extend, scope string) ([]*schema.Field, error) {
	var fields []*schema.Field
	for _, body := range x.ExtendBody {
		pf, ok := body.(*parser.Field)
		if !ok {
			continue
		}
		f, err := c.field(pf)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", pf.FieldName, err)
		}
		if f.Label == schema.LabelRequired {
			return nil, fmt.Errorf("extension %s: extensions cannot be required", pf.FieldName)
		}
		f.Presence = f.Label != schema.LabelRepeated
		f.Extendee = x.MessageType
		f.FullName = scopedName(scope, f.Name)
		fields = append(fields, f)
	}
	return fields, nil
}

func (c *converter) enum(e *parser.Enum) (*schema.Enum, error) {
	enum := &schema.Enum{Name: e.EnumName}
	seen := make(map[int32]string)
	for _, body := range e.EnumBody {
		switch b := body.(type) {
		case *parser.EnumField:
			n, err := strconv.ParseInt(b.Number, 0, 32)
			if err != nil {
				return nil, fmt.Errorf("enum %s: invalid value %s = %q", e.EnumName, b.Ident, b.Number)
			}
			enum.Values = append(enum.Values, &schema.EnumValue{Name: b.Ident, Number: int32(n)})
		case *parser.Option:
			if b.OptionName == "allow_alias" {
				enum.AllowAlias = b.Constant == "true"
			}
		}
	}
	for _, v := range enum.Values {
		if prev, dup := seen[v.Number]; dup && !enum.AllowAlias {
			return nil, fmt.Errorf("enum %s: %s and %s share number %d without allow_alias", e.EnumName, prev, v.Name, v.Number)
		}
		seen[v.Number] = v.Name
	}
	return enum, nil
}

func (c *converter) service(s *parser.Service) *schema.Service {
	svc := &schema.Service{Name: s.ServiceName}
	for _, body := range s.ServiceBody {
		rpc, ok := body.(*parser.RPC)
		if !ok {
			continue
		}
		svc.Methods = append(svc.Methods, &schema.Method{
			Name:            rpc.RPCName,
			InputType:       rpc.RPCRequest.MessageType,
			OutputType:      rpc.RPCResponse.MessageType,
			ClientStreaming: rpc.RPCRequest.IsStream,
			ServerStreaming: rpc.RPCResponse.IsStream,
		})
	}
	return svc
}
