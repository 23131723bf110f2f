package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name       string     `json:"name"`       // file.proto
	Package    string     `json:"package"`    // package name
	Syntax     string     `json:"syntax"`     // proto2 or proto3
	Imports    []*Import  `json:"imports"`    // imported files
	Messages   []*Message `json:"messages"`   // message definitions
	Enums      []*Enum    `json:"enums"`      // enum definitions
	Services   []*Service `json:"services"`   // service definitions
	Extensions []*Field   `json:"extensions"` // top-level extend blocks
}

// Import represents an import statement
type Import struct {
	Path   string `json:"path"`   // "google/protobuf/timestamp.proto"
	Public bool   `json:"public"` // public import
	Weak   bool   `json:"weak"`   // weak import
}

// Message represents a protobuf message definition
type Message struct {
	Name            string            `json:"name"`             // "User"
	FullName        string            `json:"full_name"`        // "pkg.User", set by the registry
	Fields          []*Field          `json:"fields"`           // message fields
	NestedTypes     []*Message        `json:"nested_types"`     // nested messages
	NestedEnums     []*Enum           `json:"nested_enums"`     // nested enums
	Extensions      []*Field          `json:"extensions"`       // extend blocks declared inside this message
	ExtensionRanges []*ExtensionRange `json:"extension_ranges"` // "extensions 100 to 199;"
	OneofGroups     []*Oneof          `json:"oneof_groups"`     // oneof groups
	MapEntry        bool              `json:"map_entry"`        // is this a map entry?
}

// ExtensionRange is a half-open range [Start, End) of extension field numbers.
type ExtensionRange struct {
	Start int32 `json:"start"`
	End   int32 `json:"end"`
}

// Contains reports whether number falls in the range.
func (r *ExtensionRange) Contains(number int32) bool {
	return number >= r.Start && number < r.End
}

// Field represents a message field or an extension
type Field struct {
	Name         string     `json:"name"`          // "user_name"
	Number       int32      `json:"number"`        // 1
	Label        FieldLabel `json:"label"`         // optional, required, repeated
	Type         FieldType  `json:"type"`          // field type information
	DefaultValue string     `json:"default_value"` // default value (proto2)
	JsonName     string     `json:"json_name"`     // JSON field name
	OneofIndex   int32      `json:"oneof_index"`   // oneof group index (-1 if not in oneof)
	Packed       bool       `json:"packed"`        // repeated scalar written as one packed run
	Presence     bool       `json:"presence"`      // default values are still emitted when set
	Extendee     string     `json:"extendee"`      // extensions only: full name of the extended message
	FullName     string     `json:"full_name"`     // extensions only: "pkg.ext_name"
}

// IsRepeated reports whether the field holds a list. Map fields are repeated
// on the wire but are reported by IsMap instead.
func (f *Field) IsRepeated() bool {
	return f.Label == LabelRepeated && f.Type.Kind != KindMap
}

func (f *Field) IsMap() bool {
	return f.Type.Kind == KindMap
}

// Oneof represents a oneof group
type Oneof struct {
	Name   string   `json:"name"`   // "user_info"
	Fields []*Field `json:"fields"` // fields in this oneof
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum, map
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "User", resolved to "pkg.User"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
	MapKey        *FieldType    `json:"map_key,omitempty"`        // for map key type
	MapValue      *FieldType    `json:"map_value,omitempty"`      // for map value type
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindPrimitive TypeKind = "primitive"
	KindMessage   TypeKind = "message"
	KindEnum      TypeKind = "enum"
	KindMap       TypeKind = "map"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var packedEligible = map[PrimitiveType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPackedType checks and returns if the Primitive type is packed for repeated label
func IsPackedType(t PrimitiveType) bool {
	_, ok := packedEligible[t]
	return ok
}

// IsPrimitiveType reports whether name is one of the scalar type keywords.
func IsPrimitiveType(name string) bool {
	if PrimitiveType(name) == TypeString || PrimitiveType(name) == TypeBytes {
		return true
	}
	return IsPackedType(PrimitiveType(name))
}

// IsMapKeyType reports whether t may key a map field.
func IsMapKeyType(t PrimitiveType) bool {
	switch t {
	case TypeDouble, TypeFloat, TypeBytes:
		return false
	}
	return IsPrimitiveType(string(t))
}

// Enum represents an enum definition
type Enum struct {
	Name       string       `json:"name"`        // "Status"
	FullName   string       `json:"full_name"`   // "pkg.Status", set by the registry
	Values     []*EnumValue `json:"values"`      // enum values, aliases included
	AllowAlias bool         `json:"allow_alias"` // allow_alias option
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "ACTIVE"
	Number int32  `json:"number"` // 1
}

// Service represents a service definition
type Service struct {
	Name    string    `json:"name"`    // "UserService"
	Methods []*Method `json:"methods"` // service methods
}

// Method represents a service method
type Method struct {
	Name            string `json:"name"`             // "GetUser"
	InputType       string `json:"input_type"`       // "GetUserRequest"
	OutputType      string `json:"output_type"`      // "GetUserResponse"
	ClientStreaming bool   `json:"client_streaming"` // stream input
	ServerStreaming bool   `json:"server_streaming"` // stream output
}
