package codec

import (
	"reflect"

	"github.com/anirudhraja/protorun/wire"
)

// BinaryEncodingSizeVisitor computes the binary encoded size of a message
// without producing output.
type BinaryEncodingSizeVisitor struct {
	size  int
	sizes sizeCache
}

// sizeCache holds the body size of every message sized during one encode,
// so length prefixes are written without sizing a subtree again. Only
// pointer messages are cached.
type sizeCache map[Message]int

func (c sizeCache) lookup(m Message) (int, bool) {
	if c == nil || reflect.TypeOf(m).Kind() != reflect.Pointer {
		return 0, false
	}
	n, ok := c[m]
	return n, ok
}

func (c sizeCache) store(m Message, n int) {
	if c != nil && reflect.TypeOf(m).Kind() == reflect.Pointer {
		c[m] = n
	}
}

func NewBinaryEncodingSizeVisitor() *BinaryEncodingSizeVisitor {
	return &BinaryEncodingSizeVisitor{}
}

// Size returns the number of bytes counted so far.
func (s *BinaryEncodingSizeVisitor) Size() int {
	return s.size
}

func tagSize(fieldNumber int) int {
	return wire.TagSize(wire.FieldNumber(fieldNumber))
}

func enumSize(e Enum) int {
	return Int32{}.EncodedSizeWithoutTag(e.Number())
}

func messageSize(m Message, sizes sizeCache) (int, error) {
	if n, ok := sizes.lookup(m); ok {
		return n, nil
	}
	sv := &BinaryEncodingSizeVisitor{sizes: sizes}
	if err := m.Traverse(sv); err != nil {
		return 0, err
	}
	sizes.store(m, sv.size)
	return sv.size, nil
}

func packedEnumPayload(es Enums) int {
	n := 0
	for i := 0; i < es.Len(); i++ {
		n += enumSize(es.At(i))
	}
	return n
}

func scalarEntrySize(e ScalarMapEntry) int {
	return tagSize(1) + e.Key.EncodedSizeWithoutTag() + tagSize(2) + e.Value.EncodedSizeWithoutTag()
}

func enumEntrySize(e EnumMapEntry) int {
	return tagSize(1) + e.Key.EncodedSizeWithoutTag() + tagSize(2) + enumSize(e.Value)
}

func messageEntrySize(e MessageMapEntry, sizes sizeCache) (int, error) {
	body, err := messageSize(e.Value, sizes)
	if err != nil {
		return 0, err
	}
	return tagSize(1) + e.Key.EncodedSizeWithoutTag() + tagSize(2) + wire.LengthDelimitedSize(body), nil
}

func (s *BinaryEncodingSizeVisitor) VisitSingularField(v Value, fieldNumber int) error {
	s.size += tagSize(fieldNumber) + v.EncodedSizeWithoutTag()
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitRepeatedField(vs Values, fieldNumber int) error {
	s.size += vs.Len()*tagSize(fieldNumber) + vs.PayloadSize()
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitPackedField(vs Values, fieldNumber int) error {
	if vs.Len() == 0 {
		return nil
	}
	s.size += tagSize(fieldNumber) + wire.LengthDelimitedSize(vs.PayloadSize())
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitSingularEnumField(e Enum, fieldNumber int) error {
	s.size += tagSize(fieldNumber) + enumSize(e)
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitRepeatedEnumField(es Enums, fieldNumber int) error {
	s.size += es.Len()*tagSize(fieldNumber) + packedEnumPayload(es)
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitPackedEnumField(es Enums, fieldNumber int) error {
	if es.Len() == 0 {
		return nil
	}
	s.size += tagSize(fieldNumber) + wire.LengthDelimitedSize(packedEnumPayload(es))
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitSingularMessageField(m Message, fieldNumber int) error {
	body, err := messageSize(m, s.sizes)
	if err != nil {
		return err
	}
	s.size += tagSize(fieldNumber) + wire.LengthDelimitedSize(body)
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitRepeatedMessageField(ms Messages, fieldNumber int) error {
	for i := 0; i < ms.Len(); i++ {
		if err := s.VisitSingularMessageField(ms.At(i), fieldNumber); err != nil {
			return err
		}
	}
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitMapField(m ScalarMap, fieldNumber int) error {
	for _, e := range m.Entries(false) {
		s.size += tagSize(fieldNumber) + wire.LengthDelimitedSize(scalarEntrySize(e))
	}
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitEnumMapField(m EnumMap, fieldNumber int) error {
	for _, e := range m.Entries(false) {
		s.size += tagSize(fieldNumber) + wire.LengthDelimitedSize(enumEntrySize(e))
	}
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitMessageMapField(m MessageMap, fieldNumber int) error {
	for _, e := range m.Entries(false) {
		n, err := messageEntrySize(e, s.sizes)
		if err != nil {
			return err
		}
		s.size += tagSize(fieldNumber) + wire.LengthDelimitedSize(n)
	}
	return nil
}

func (s *BinaryEncodingSizeVisitor) VisitExtensionFields(set *ExtensionFieldValueSet, start, end int) error {
	return set.Traverse(s, start, end)
}

func (s *BinaryEncodingSizeVisitor) VisitUnknown(b []byte) error {
	s.size += len(b)
	return nil
}
