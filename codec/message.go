package codec

// Message is implemented by every message type, generated or dynamic.
type Message interface {
	// ProtoMessageName returns the fully qualified message name, e.g. "pkg.Outer.Inner".
	ProtoMessageName() string
	FieldNames() *NameMap
	UnknownFields() *UnknownStorage
	// Traverse calls exactly one Visit method per populated field in ascending
	// field number order, VisitExtensionFields once per extension range and
	// finally the unknown field storage.
	Traverse(v Visitor) error
	// DecodeMessage consumes fields from d until NextFieldNumber reports the end.
	DecodeMessage(d Decoder) error
}

// ExtensionRange is a half-open range [Start, End) of extension field numbers.
type ExtensionRange struct {
	Start int
	End   int
}

func (r ExtensionRange) Contains(fieldNumber int) bool {
	return fieldNumber >= r.Start && fieldNumber < r.End
}

// ExtensibleMessage is a Message that declares extension ranges.
type ExtensibleMessage interface {
	Message
	ExtensionRanges() []ExtensionRange
	ExtensionFields() *ExtensionFieldValueSet
}

// Enum is implemented by enum types. Values with no declared name are valid
// and keep their raw number.
type Enum interface {
	Number() int32
	EnumValues() *EnumValueMap
}

// EnumValue is one declared enum constant.
type EnumValue struct {
	Number int32
	Name   string
}

// EnumValueMap is the raw-value table of one enum type.
type EnumValueMap struct {
	fullName string
	byNumber map[int32]string
	byName   map[string]int32
}

// NewEnumValueMap builds the table for an enum. With aliases, the first
// name listed for a number is the one used for output.
func NewEnumValueMap(fullName string, values ...EnumValue) *EnumValueMap {
	m := &EnumValueMap{
		fullName: fullName,
		byNumber: make(map[int32]string, len(values)),
		byName:   make(map[string]int32, len(values)),
	}
	for _, v := range values {
		if _, ok := m.byNumber[v.Number]; !ok {
			m.byNumber[v.Number] = v.Name
		}
		m.byName[v.Name] = v.Number
	}
	return m
}

func (m *EnumValueMap) FullName() string {
	if m == nil {
		return ""
	}
	return m.fullName
}

// Name returns the symbolic name for number, or "" and false when the number
// has none.
func (m *EnumValueMap) Name(number int32) (string, bool) {
	if m == nil {
		return "", false
	}
	n, ok := m.byNumber[number]
	return n, ok
}

func (m *EnumValueMap) Value(name string) (int32, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.byName[name]
	return v, ok
}

func enumName(e Enum) string {
	name, _ := e.EnumValues().Name(e.Number())
	return name
}

// RawEnum is an Enum backed by a table supplied at run time. It is used for
// dynamic messages and map/extension plumbing.
type RawEnum struct {
	Values *EnumValueMap
	Raw    int32
}

func (e RawEnum) Number() int32             { return e.Raw }
func (e RawEnum) EnumValues() *EnumValueMap { return e.Values }

// UnknownStorage holds the bytes of fields a message did not recognize,
// exactly as they appeared on the wire.
type UnknownStorage struct {
	data []byte
}

func (u *UnknownStorage) Append(b []byte) {
	u.data = append(u.data, b...)
}

func (u *UnknownStorage) Bytes() []byte {
	return u.data
}

func (u *UnknownStorage) Len() int {
	return len(u.data)
}

func (u *UnknownStorage) Reset() {
	u.data = nil
}

// Clone returns an independent copy.
func (u *UnknownStorage) Clone() UnknownStorage {
	if len(u.data) == 0 {
		return UnknownStorage{}
	}
	return UnknownStorage{data: append([]byte(nil), u.data...)}
}

// Traverse hands the stored bytes to v. Empty storage is not visited.
func (u *UnknownStorage) Traverse(v Visitor) error {
	if len(u.data) == 0 {
		return nil
	}
	return v.VisitUnknown(u.data)
}
