package codec

import "github.com/anirudhraja/protorun/textfmt"

// TextFormatEncodingVisitor renders a message in protobuf text format.
type TextFormatEncodingVisitor struct {
	encoder     *textfmt.Encoder
	cfg         Config
	message     string
	names       *NameMap
	extensions  *ExtensionFieldValueSet
	inExtension bool
}

// NewTextFormatEncodingVisitor creates a visitor for m. Call m.Traverse with
// it, then read Result.
func NewTextFormatEncodingVisitor(m Message) *TextFormatEncodingVisitor {
	return newTextFormatEncodingVisitor(m, textfmt.NewEncoder(), CurrentConfig())
}

func newTextFormatEncodingVisitor(m Message, e *textfmt.Encoder, cfg Config) *TextFormatEncodingVisitor {
	v := &TextFormatEncodingVisitor{
		encoder: e,
		cfg:     cfg,
		message: m.ProtoMessageName(),
		names:   m.FieldNames(),
	}
	if xm, ok := m.(ExtensibleMessage); ok {
		v.extensions = xm.ExtensionFields()
	}
	return v
}

// Result returns the text produced by the traversal.
func (t *TextFormatEncodingVisitor) Result() string {
	return t.encoder.Result()
}

func (t *TextFormatEncodingVisitor) child(m Message) *TextFormatEncodingVisitor {
	return newTextFormatEncodingVisitor(m, t.encoder, t.cfg)
}

// fieldName resolves fieldNumber, bracketing extension names while inside
// VisitExtensionFields.
func (t *TextFormatEncodingVisitor) fieldName(fieldNumber int) (string, error) {
	if t.inExtension {
		if name, ok := t.extensions.ProtoName(fieldNumber); ok {
			return "[" + name + "]", nil
		}
	}
	if name, ok := t.names.ProtoName(fieldNumber); ok {
		return name, nil
	}
	if name, ok := t.extensions.ProtoName(fieldNumber); ok {
		return "[" + name + "]", nil
	}
	return "", &MissingFieldNameError{Message: t.message, FieldNumber: fieldNumber}
}

func (t *TextFormatEncodingVisitor) VisitSingularField(v Value, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	t.encoder.StartField(name)
	if err := v.WriteText(t.encoder); err != nil {
		return err
	}
	t.encoder.EndField()
	return nil
}

func (t *TextFormatEncodingVisitor) VisitRepeatedField(vs Values, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	for i := 0; i < vs.Len(); i++ {
		t.encoder.StartField(name)
		if err := vs.At(i).WriteText(t.encoder); err != nil {
			return err
		}
		t.encoder.EndField()
	}
	return nil
}

func (t *TextFormatEncodingVisitor) VisitPackedField(vs Values, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	t.encoder.StartField(name)
	t.encoder.StartArray()
	for i := 0; i < vs.Len(); i++ {
		if i > 0 {
			t.encoder.ArraySeparator()
		}
		if err := vs.At(i).WriteText(t.encoder); err != nil {
			return err
		}
	}
	t.encoder.EndArray()
	t.encoder.EndField()
	return nil
}

func (t *TextFormatEncodingVisitor) putEnum(e Enum) {
	t.encoder.PutEnumValue(enumName(e), e.Number())
}

func (t *TextFormatEncodingVisitor) VisitSingularEnumField(e Enum, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	t.encoder.StartField(name)
	t.putEnum(e)
	t.encoder.EndField()
	return nil
}

func (t *TextFormatEncodingVisitor) VisitRepeatedEnumField(es Enums, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	for i := 0; i < es.Len(); i++ {
		t.encoder.StartField(name)
		t.putEnum(es.At(i))
		t.encoder.EndField()
	}
	return nil
}

func (t *TextFormatEncodingVisitor) VisitPackedEnumField(es Enums, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	t.encoder.StartField(name)
	t.encoder.StartArray()
	for i := 0; i < es.Len(); i++ {
		if i > 0 {
			t.encoder.ArraySeparator()
		}
		t.putEnum(es.At(i))
	}
	t.encoder.EndArray()
	t.encoder.EndField()
	return nil
}

// writeMessage emits `name { ... }` for m.
func (t *TextFormatEncodingVisitor) writeMessage(name string, m Message) error {
	t.encoder.StartMessageField(name)
	t.encoder.StartObject()
	if err := m.Traverse(t.child(m)); err != nil {
		return err
	}
	t.encoder.EndObject()
	t.encoder.EndField()
	return nil
}

func (t *TextFormatEncodingVisitor) VisitSingularMessageField(m Message, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	return t.writeMessage(name, m)
}

func (t *TextFormatEncodingVisitor) VisitRepeatedMessageField(ms Messages, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	for i := 0; i < ms.Len(); i++ {
		if err := t.writeMessage(name, ms.At(i)); err != nil {
			return err
		}
	}
	return nil
}

// Map entries render as `name { key: k value: v }`; the entry field names are
// always literally "key" and "value".

func (t *TextFormatEncodingVisitor) startEntry(name string, key MapKey) error {
	t.encoder.StartMessageField(name)
	t.encoder.StartObject()
	t.encoder.StartField("key")
	if err := key.WriteText(t.encoder); err != nil {
		return err
	}
	t.encoder.EndField()
	return nil
}

func (t *TextFormatEncodingVisitor) endEntry() {
	t.encoder.EndObject()
	t.encoder.EndField()
}

func (t *TextFormatEncodingVisitor) VisitMapField(m ScalarMap, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	for _, e := range m.Entries(t.cfg.Deterministic) {
		if err := t.startEntry(name, e.Key); err != nil {
			return err
		}
		t.encoder.StartField("value")
		if err := e.Value.WriteText(t.encoder); err != nil {
			return err
		}
		t.encoder.EndField()
		t.endEntry()
	}
	return nil
}

func (t *TextFormatEncodingVisitor) VisitEnumMapField(m EnumMap, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	for _, e := range m.Entries(t.cfg.Deterministic) {
		if err := t.startEntry(name, e.Key); err != nil {
			return err
		}
		t.encoder.StartField("value")
		t.putEnum(e.Value)
		t.encoder.EndField()
		t.endEntry()
	}
	return nil
}

func (t *TextFormatEncodingVisitor) VisitMessageMapField(m MessageMap, fieldNumber int) error {
	name, err := t.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	for _, e := range m.Entries(t.cfg.Deterministic) {
		if err := t.startEntry(name, e.Key); err != nil {
			return err
		}
		if err := t.writeMessage("value", e.Value); err != nil {
			return err
		}
		t.endEntry()
	}
	return nil
}

// VisitExtensionFields replays the extensions in [start, end) with bracketed
// names. The previous bracketing state is restored on every return path.
func (t *TextFormatEncodingVisitor) VisitExtensionFields(set *ExtensionFieldValueSet, start, end int) error {
	prevIn, prevSet := t.inExtension, t.extensions
	defer func() {
		t.inExtension, t.extensions = prevIn, prevSet
	}()
	t.inExtension, t.extensions = true, set
	return set.Traverse(t, start, end)
}

// VisitUnknown drops unknown fields; text format has no faithful rendering
// for them.
func (t *TextFormatEncodingVisitor) VisitUnknown(b []byte) error {
	log().Debug().Str("message", t.message).Int("bytes", len(b)).Msg("dropping unknown fields from text output")
	return nil
}
