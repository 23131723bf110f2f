package codec

import "github.com/anirudhraja/protorun/jsonfmt"

// JSONEncodingVisitor renders a message's fields as proto3 JSON object
// members. The caller brackets the top-level traversal with StartObject and
// EndObject, as MarshalJSON does.
type JSONEncodingVisitor struct {
	encoder     *jsonfmt.Encoder
	cfg         Config
	message     string
	names       *NameMap
	extensions  *ExtensionFieldValueSet
	inExtension bool
}

func NewJSONEncodingVisitor(m Message) *JSONEncodingVisitor {
	return newJSONEncodingVisitor(m, jsonfmt.NewEncoder(), CurrentConfig())
}

func newJSONEncodingVisitor(m Message, e *jsonfmt.Encoder, cfg Config) *JSONEncodingVisitor {
	v := &JSONEncodingVisitor{
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

// Result returns the JSON produced so far.
func (j *JSONEncodingVisitor) Result() ([]byte, error) {
	return j.encoder.Bytes()
}

func (j *JSONEncodingVisitor) fieldName(fieldNumber int) (string, error) {
	if j.inExtension {
		if name, ok := j.extensions.ProtoName(fieldNumber); ok {
			return "[" + name + "]", nil
		}
	}
	lookup := j.names.JSONName
	if j.cfg.JSONUseProtoNames {
		lookup = j.names.ProtoName
	}
	if name, ok := lookup(fieldNumber); ok {
		return name, nil
	}
	if name, ok := j.extensions.ProtoName(fieldNumber); ok {
		return "[" + name + "]", nil
	}
	return "", &MissingFieldNameError{Message: j.message, FieldNumber: fieldNumber}
}

func (j *JSONEncodingVisitor) startField(fieldNumber int) error {
	name, err := j.fieldName(fieldNumber)
	if err != nil {
		return err
	}
	j.encoder.StartField(name)
	return nil
}

func (j *JSONEncodingVisitor) VisitSingularField(v Value, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	return v.WriteJSON(j.encoder)
}

func (j *JSONEncodingVisitor) VisitRepeatedField(vs Values, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.encoder.StartArray()
	for i := 0; i < vs.Len(); i++ {
		if i > 0 {
			j.encoder.ArraySeparator()
		}
		if err := vs.At(i).WriteJSON(j.encoder); err != nil {
			return err
		}
	}
	j.encoder.EndArray()
	return nil
}

// VisitPackedField is identical to VisitRepeatedField; packing is a binary concern.
func (j *JSONEncodingVisitor) VisitPackedField(vs Values, fieldNumber int) error {
	return j.VisitRepeatedField(vs, fieldNumber)
}

func (j *JSONEncodingVisitor) putEnum(e Enum) {
	if j.cfg.JSONEnumsAsInts {
		j.encoder.PutInt32(e.Number())
		return
	}
	j.encoder.PutEnumValue(enumName(e), e.Number())
}

func (j *JSONEncodingVisitor) VisitSingularEnumField(e Enum, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.putEnum(e)
	return nil
}

func (j *JSONEncodingVisitor) VisitRepeatedEnumField(es Enums, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.encoder.StartArray()
	for i := 0; i < es.Len(); i++ {
		if i > 0 {
			j.encoder.ArraySeparator()
		}
		j.putEnum(es.At(i))
	}
	j.encoder.EndArray()
	return nil
}

func (j *JSONEncodingVisitor) VisitPackedEnumField(es Enums, fieldNumber int) error {
	return j.VisitRepeatedEnumField(es, fieldNumber)
}

func (j *JSONEncodingVisitor) writeMessage(m Message) error {
	j.encoder.StartObject()
	if err := m.Traverse(newJSONEncodingVisitor(m, j.encoder, j.cfg)); err != nil {
		return err
	}
	j.encoder.EndObject()
	return nil
}

func (j *JSONEncodingVisitor) VisitSingularMessageField(m Message, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	return j.writeMessage(m)
}

func (j *JSONEncodingVisitor) VisitRepeatedMessageField(ms Messages, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.encoder.StartArray()
	for i := 0; i < ms.Len(); i++ {
		if i > 0 {
			j.encoder.ArraySeparator()
		}
		if err := j.writeMessage(ms.At(i)); err != nil {
			return err
		}
	}
	j.encoder.EndArray()
	return nil
}

func (j *JSONEncodingVisitor) VisitMapField(m ScalarMap, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.encoder.StartObject()
	for _, e := range m.Entries(j.cfg.Deterministic) {
		if err := e.Key.WriteJSONMapKey(j.encoder); err != nil {
			return err
		}
		if err := e.Value.WriteJSON(j.encoder); err != nil {
			return err
		}
	}
	j.encoder.EndObject()
	return nil
}

func (j *JSONEncodingVisitor) VisitEnumMapField(m EnumMap, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.encoder.StartObject()
	for _, e := range m.Entries(j.cfg.Deterministic) {
		if err := e.Key.WriteJSONMapKey(j.encoder); err != nil {
			return err
		}
		j.putEnum(e.Value)
	}
	j.encoder.EndObject()
	return nil
}

func (j *JSONEncodingVisitor) VisitMessageMapField(m MessageMap, fieldNumber int) error {
	if err := j.startField(fieldNumber); err != nil {
		return err
	}
	j.encoder.StartObject()
	for _, e := range m.Entries(j.cfg.Deterministic) {
		if err := e.Key.WriteJSONMapKey(j.encoder); err != nil {
			return err
		}
		if err := j.writeMessage(e.Value); err != nil {
			return err
		}
	}
	j.encoder.EndObject()
	return nil
}

func (j *JSONEncodingVisitor) VisitExtensionFields(set *ExtensionFieldValueSet, start, end int) error {
	prevIn, prevSet := j.inExtension, j.extensions
	defer func() {
		j.inExtension, j.extensions = prevIn, prevSet
	}()
	j.inExtension, j.extensions = true, set
	return set.Traverse(j, start, end)
}

// VisitUnknown drops unknown fields; proto3 JSON has no representation for them.
func (j *JSONEncodingVisitor) VisitUnknown(b []byte) error {
	log().Debug().Str("message", j.message).Int("bytes", len(b)).Msg("dropping unknown fields from JSON output")
	return nil
}
