package registry

import (
	"fmt"
	"strings"

	"github.com/anirudhraja/protorun/schema"
)

func (r *Registry) resolveFile(pf *schema.ProtoFile, entities map[string]struct{}) error {
	for _, msg := range pf.Messages {
		if err := r.resolveMessage(msg, entities); err != nil {
			return err
		}
	}
	for _, ext := range pf.Extensions {
		if err := r.resolveExtension(ext, pf.Package, entities); err != nil {
			return err
		}
	}
	for _, svc := range pf.Services {
		scope := r.getFullName(pf.Package, svc.Name)
		for _, m := range svc.Methods {
			in, err := lookupTypeName(m.InputType, scope, entities)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", scope, m.Name, err)
			}
			out, err := lookupTypeName(m.OutputType, scope, entities)
			if err != nil {
				return fmt.Errorf("%s.%s: %w", scope, m.Name, err)
			}
			m.InputType, m.OutputType = in, out
		}
	}
	return nil
}

func (r *Registry) resolveMessage(msg *schema.Message, entities map[string]struct{}) error {
	for _, f := range msg.Fields {
		if err := r.resolveField(f, msg.FullName, entities); err != nil {
			return fmt.Errorf("%s.%s: %w", msg.FullName, f.Name, err)
		}
		if f.IsMap() {
			r.GetOrCreateMapEntryMessage(msg, f)
		}
	}
	for _, nested := range msg.NestedTypes {
		if err := r.resolveMessage(nested, entities); err != nil {
			return err
		}
	}
	for _, ext := range msg.Extensions {
		if err := r.resolveExtension(ext, msg.FullName, entities); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) resolveField(f *schema.Field, scope string, entities map[string]struct{}) error {
	if err := r.resolveType(&f.Type, scope, entities); err != nil {
		return err
	}
	switch f.Type.Kind {
	case schema.KindMessage:
		f.Packed = false
		f.Presence = f.Label != schema.LabelRepeated
	case schema.KindMap:
		f.Packed = false
		f.Presence = false
	}
	return nil
}

func (r *Registry) resolveType(t *schema.FieldType, scope string, entities map[string]struct{}) error {
	switch t.Kind {
	case schema.KindPrimitive:
		if !schema.IsPrimitiveType(string(t.PrimitiveType)) {
			return fmt.Errorf("unknown scalar type %q", t.PrimitiveType)
		}
	case schema.KindMap:
		if t.MapKey == nil || t.MapValue == nil {
			return fmt.Errorf("map type without key or value")
		}
		if t.MapKey.Kind != schema.KindPrimitive || !schema.IsMapKeyType(t.MapKey.PrimitiveType) {
			return fmt.Errorf("invalid map key type %q", t.MapKey.PrimitiveType)
		}
		if t.MapValue.Kind == schema.KindMap {
			return fmt.Errorf("map values cannot be maps")
		}
		return r.resolveType(t.MapValue, scope, entities)
	case schema.KindMessage, schema.KindEnum:
		name := t.MessageType
		if t.Kind == schema.KindEnum && t.EnumType != "" {
			name = t.EnumType
		}
		full, err := lookupTypeName(name, scope, entities)
		if err != nil {
			return err
		}
		if _, ok := r.enums[full]; ok {
			t.Kind, t.EnumType, t.MessageType = schema.KindEnum, full, ""
		} else {
			t.Kind, t.MessageType, t.EnumType = schema.KindMessage, full, ""
		}
	default:
		return fmt.Errorf("unknown type kind %q", t.Kind)
	}
	return nil
}

func (r *Registry) resolveExtension(f *schema.Field, scope string, entities map[string]struct{}) error {
	if f.FullName == "" {
		f.FullName = scopedName(scope, f.Name)
	}
	if err := r.resolveField(f, scope, entities); err != nil {
		return fmt.Errorf("extension %s: %w", f.FullName, err)
	}
	if f.Type.Kind == schema.KindMap {
		return fmt.Errorf("extension %s: extensions cannot be maps", f.FullName)
	}

	extendee, err := lookupTypeName(f.Extendee, scope, entities)
	if err != nil {
		return fmt.Errorf("extension %s: %w", f.FullName, err)
	}
	target, ok := r.messages[extendee]
	if !ok {
		return fmt.Errorf("extension %s: %s is not a message", f.FullName, extendee)
	}
	inRange := false
	for _, rg := range target.ExtensionRanges {
		if rg.Contains(f.Number) {
			inRange = true
			break
		}
	}
	if !inRange {
		return fmt.Errorf("extension %s: field %d is not in an extension range of %s", f.FullName, f.Number, extendee)
	}
	f.Extendee = extendee

	if _, dup := r.extensions[f.FullName]; dup {
		return fmt.Errorf("duplicate extension %s", f.FullName)
	}
	for _, other := range r.extensions {
		if other.Extendee == extendee && other.Number == f.Number {
			return fmt.Errorf("extensions %s and %s both use field %d of %s", other.FullName, f.FullName, f.Number, extendee)
		}
	}
	r.extensions[f.FullName] = f
	return nil
}

// lookupTypeName resolves a type reference the way protoc does: a leading
// dot means fully qualified, otherwise the enclosing scopes are searched
// from the innermost outwards and finally the bare name.
func lookupTypeName(name, scope string, known map[string]struct{}) (string, error) {
	if full, ok := strings.CutPrefix(name, "."); ok {
		if _, found := known[full]; found {
			return full, nil
		}
		return "", fmt.Errorf("unable to resolve full qualified prefixed with (.) type name: %s", full)
	}
	for scope != "" {
		candidate := scope + "." + name
		if _, found := known[candidate]; found {
			return candidate, nil
		}
		i := strings.LastIndexByte(scope, '.')
		if i < 0 {
			break
		}
		scope = scope[:i]
	}
	if _, found := known[name]; found {
		return name, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", name)
}
