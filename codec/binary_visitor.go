package codec

import "github.com/anirudhraja/protorun/wire"

// BinaryEncodingVisitor writes the protobuf binary encoding of a message.
// Nested messages are written by child visitors sharing the same encoder.
type BinaryEncodingVisitor struct {
	encoder *wire.Encoder
	cfg     Config
	sizes   sizeCache
}

func NewBinaryEncodingVisitor(e *wire.Encoder) *BinaryEncodingVisitor {
	return newBinaryEncodingVisitor(e, CurrentConfig(), sizeCache{})
}

func newBinaryEncodingVisitor(e *wire.Encoder, cfg Config, sizes sizeCache) *BinaryEncodingVisitor {
	return &BinaryEncodingVisitor{encoder: e, cfg: cfg, sizes: sizes}
}

// Result returns the bytes written so far.
func (b *BinaryEncodingVisitor) Result() []byte {
	return b.encoder.Bytes()
}

func (b *BinaryEncodingVisitor) putTag(fieldNumber int, wt wire.WireType) {
	b.encoder.PutTag(wire.FieldNumber(fieldNumber), wt)
}

func (b *BinaryEncodingVisitor) VisitSingularField(v Value, fieldNumber int) error {
	b.putTag(fieldNumber, v.WireType())
	v.AppendProtobuf(b.encoder)
	return nil
}

func (b *BinaryEncodingVisitor) VisitRepeatedField(vs Values, fieldNumber int) error {
	for i := 0; i < vs.Len(); i++ {
		b.VisitSingularField(vs.At(i), fieldNumber)
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitPackedField(vs Values, fieldNumber int) error {
	if vs.Len() == 0 {
		return nil
	}
	b.putTag(fieldNumber, wire.WireBytes)
	b.encoder.PutLength(vs.PayloadSize())
	for i := 0; i < vs.Len(); i++ {
		vs.At(i).AppendProtobuf(b.encoder)
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitSingularEnumField(e Enum, fieldNumber int) error {
	b.putTag(fieldNumber, wire.WireVarint)
	b.encoder.PutInt32(e.Number())
	return nil
}

func (b *BinaryEncodingVisitor) VisitRepeatedEnumField(es Enums, fieldNumber int) error {
	for i := 0; i < es.Len(); i++ {
		b.VisitSingularEnumField(es.At(i), fieldNumber)
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitPackedEnumField(es Enums, fieldNumber int) error {
	if es.Len() == 0 {
		return nil
	}
	b.putTag(fieldNumber, wire.WireBytes)
	b.encoder.PutLength(packedEnumPayload(es))
	for i := 0; i < es.Len(); i++ {
		b.encoder.PutInt32(es.At(i).Number())
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitSingularMessageField(m Message, fieldNumber int) error {
	size, err := messageSize(m, b.sizes)
	if err != nil {
		return err
	}
	b.putTag(fieldNumber, wire.WireBytes)
	b.encoder.PutLength(size)
	return m.Traverse(newBinaryEncodingVisitor(b.encoder, b.cfg, b.sizes))
}

func (b *BinaryEncodingVisitor) VisitRepeatedMessageField(ms Messages, fieldNumber int) error {
	for i := 0; i < ms.Len(); i++ {
		if err := b.VisitSingularMessageField(ms.At(i), fieldNumber); err != nil {
			return err
		}
	}
	return nil
}

// Map entries are written as {1: key, 2: value} messages.

func (b *BinaryEncodingVisitor) VisitMapField(m ScalarMap, fieldNumber int) error {
	for _, e := range m.Entries(b.cfg.Deterministic) {
		b.putTag(fieldNumber, wire.WireBytes)
		b.encoder.PutLength(scalarEntrySize(e))
		b.VisitSingularField(e.Key, 1)
		b.VisitSingularField(e.Value, 2)
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitEnumMapField(m EnumMap, fieldNumber int) error {
	for _, e := range m.Entries(b.cfg.Deterministic) {
		b.putTag(fieldNumber, wire.WireBytes)
		b.encoder.PutLength(enumEntrySize(e))
		b.VisitSingularField(e.Key, 1)
		b.VisitSingularEnumField(e.Value, 2)
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitMessageMapField(m MessageMap, fieldNumber int) error {
	for _, e := range m.Entries(b.cfg.Deterministic) {
		size, err := messageEntrySize(e, b.sizes)
		if err != nil {
			return err
		}
		b.putTag(fieldNumber, wire.WireBytes)
		b.encoder.PutLength(size)
		b.VisitSingularField(e.Key, 1)
		if err := b.VisitSingularMessageField(e.Value, 2); err != nil {
			return err
		}
	}
	return nil
}

func (b *BinaryEncodingVisitor) VisitExtensionFields(set *ExtensionFieldValueSet, start, end int) error {
	return set.Traverse(b, start, end)
}

// VisitUnknown writes the bytes back unchanged.
func (b *BinaryEncodingVisitor) VisitUnknown(data []byte) error {
	b.encoder.PutRaw(data)
	return nil
}
