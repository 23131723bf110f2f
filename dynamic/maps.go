package dynamic

import (
	"slices"

	"github.com/anirudhraja/protorun/codec"
)

// Map fields are stored as map[any]any keyed by the key's Go value. The
// views below expose them to visitors.

func mapKeys(key *scalarKind, m map[any]any, sorted bool) []any {
	keys := make([]any, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if sorted {
		slices.SortFunc(keys, key.compareKeys)
	}
	return keys
}

type scalarMapView struct {
	key   *scalarKind
	value *scalarKind
	m     map[any]any
}

func (s scalarMapView) Len() int { return len(s.m) }

func (s scalarMapView) Entries(sorted bool) []codec.ScalarMapEntry {
	keys := mapKeys(s.key, s.m, sorted)
	entries := make([]codec.ScalarMapEntry, len(keys))
	for i, k := range keys {
		entries[i] = codec.ScalarMapEntry{Key: s.key.bindKey(k), Value: s.value.bind(s.m[k])}
	}
	return entries
}

type enumMapView struct {
	key    *scalarKind
	values *codec.EnumValueMap
	m      map[any]any
}

func (s enumMapView) Len() int { return len(s.m) }

func (s enumMapView) Entries(sorted bool) []codec.EnumMapEntry {
	keys := mapKeys(s.key, s.m, sorted)
	entries := make([]codec.EnumMapEntry, len(keys))
	for i, k := range keys {
		entries[i] = codec.EnumMapEntry{Key: s.key.bindKey(k), Value: codec.RawEnum{Values: s.values, Raw: s.m[k].(int32)}}
	}
	return entries
}

type messageMapView struct {
	key *scalarKind
	m   map[any]any
}

func (s messageMapView) Len() int { return len(s.m) }

func (s messageMapView) Entries(sorted bool) []codec.MessageMapEntry {
	keys := mapKeys(s.key, s.m, sorted)
	entries := make([]codec.MessageMapEntry, len(keys))
	for i, k := range keys {
		entries[i] = codec.MessageMapEntry{Key: s.key.bindKey(k), Value: s.m[k].(*Message)}
	}
	return entries
}

// mapSink collects decoded entries of one map field.
type mapSink struct {
	f     *fieldInfo
	types *Types
	m     map[any]any
	k     any
	v     any
}

func (s *mapSink) reset() {
	s.k, s.v = s.f.key.zero, nil
}

func (s *mapSink) DecodeEntryField(d codec.Decoder, fieldNumber int) error {
	var err error
	switch fieldNumber {
	case 1:
		s.k, err = s.f.key.decode(d, s.k)
	case 2:
		switch s.f.elem.kind {
		case kindScalar:
			s.v, err = s.f.elem.scalar.decode(d, s.v)
		case kindEnum:
			raw, _ := s.v.(int32)
			err = d.DecodeSingularEnumField(s.f.elem.enum, &raw)
			s.v = raw
		default:
			child, _ := s.v.(*Message)
			if child == nil {
				mt, typeErr := s.types.typeOf(s.f.elem.message)
				if typeErr != nil {
					return typeErr
				}
				child = mt.new()
			}
			err = d.DecodeSingularMessageField(child)
			s.v = child
		}
	}
	return err
}

func (s *mapSink) ParseJSONKey(str string) error {
	k, err := s.f.key.parseKey(str)
	if err != nil {
		return err
	}
	s.k = k
	return nil
}

// Store commits the pending entry. A missing value takes the value type's
// default, an empty message for message values.
func (s *mapSink) Store() {
	if s.v == nil {
		switch s.f.elem.kind {
		case kindScalar:
			s.v = s.f.elem.scalar.zero
		case kindEnum:
			s.v = int32(0)
		default:
			if mt, err := s.types.typeOf(s.f.elem.message); err == nil {
				s.v = mt.new()
			}
		}
	}
	if s.v != nil {
		s.m[s.k] = s.v
	}
	s.reset()
}
