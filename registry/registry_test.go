package registry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anirudhraja/protorun/schema"
)

func writeProtos(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry("a", "b")

	if registry == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if len(registry.ProtoDirectories) != 2 {
		t.Errorf("Expected 2 proto directories, got %d", len(registry.ProtoDirectories))
	}
	if registry.messages != nil {
		t.Error("Expected messages map to be nil initially")
	}
	if len(registry.ListMessages()) != 0 {
		t.Error("Expected no messages before loading")
	}
}

func TestLoadSchema_NonExistentPath(t *testing.T) {
	registry := NewRegistry()

	err := registry.LoadSchema("/nonexistent/path")
	if err == nil {
		t.Fatal("Expected error for non-existent path")
	}
	if !strings.Contains(err.Error(), "path does not exist") {
		t.Errorf("Expected 'path does not exist' error, got: %v", err)
	}
}

func TestLoadSchema_NonProtoFile(t *testing.T) {
	dir := writeProtos(t, map[string]string{"notes.txt": "not a proto file"})

	registry := NewRegistry()
	err := registry.LoadSchema(filepath.Join(dir, "notes.txt"))
	if err == nil {
		t.Fatal("Expected error for non-proto file")
	}
	if !strings.Contains(err.Error(), "is not a .proto file") {
		t.Errorf("Expected 'is not a .proto file' error, got: %v", err)
	}
}

func TestLoadSchema_SingleProtoFile(t *testing.T) {
	dir := writeProtos(t, map[string]string{"test.proto": `syntax = "proto3";
package test.package;

message TestMessage {
  string name = 1;
  int32 id = 2 [json_name = "ident"];
}

enum TestEnum {
  UNKNOWN = 0;
  ACTIVE = 1;
}

service TestService {
  rpc GetTest(TestMessage) returns (stream TestMessage);
}
`})
	protoFile := filepath.Join(dir, "test.proto")

	registry := NewRegistry()
	if err := registry.LoadSchema(protoFile); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	files := registry.Files()
	if len(files) != 1 {
		t.Fatalf("Expected 1 proto file, got %d", len(files))
	}
	pf := files[protoFile]
	if pf == nil {
		t.Fatal("Proto file data is nil")
	}
	if pf.Name != "test.proto" {
		t.Errorf("Expected name 'test.proto', got '%s'", pf.Name)
	}
	if pf.Package != "test.package" {
		t.Errorf("Expected package 'test.package', got '%s'", pf.Package)
	}
	if pf.Syntax != "proto3" {
		t.Errorf("Expected syntax 'proto3', got '%s'", pf.Syntax)
	}

	msg, err := registry.GetMessage("test.package.TestMessage")
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if len(msg.Fields) != 2 {
		t.Fatalf("Expected 2 fields, got %d", len(msg.Fields))
	}
	if msg.Fields[1].JsonName != "ident" {
		t.Errorf("Expected json_name 'ident', got '%s'", msg.Fields[1].JsonName)
	}
	if msg.Fields[0].Presence {
		t.Error("proto3 singular scalars should not track presence")
	}

	svc, err := registry.GetService("TestService")
	if err != nil {
		t.Fatalf("GetService failed: %v", err)
	}
	m := svc.Methods[0]
	if m.InputType != "test.package.TestMessage" || m.OutputType != "test.package.TestMessage" {
		t.Errorf("Method types not resolved: %s -> %s", m.InputType, m.OutputType)
	}
	if m.ClientStreaming || !m.ServerStreaming {
		t.Error("Expected server streaming only")
	}
}

func TestLoadSchema_Directory(t *testing.T) {
	dir := writeProtos(t, map[string]string{
		"file1.proto":        "syntax = \"proto3\";\npackage pkg1;\nmessage A { int32 x = 1; }\n",
		"subdir/file2.proto": "syntax = \"proto2\";\npackage pkg2;\nmessage B { optional int32 y = 1; }\n",
		"notproto.txt":       "not a proto file",
	})

	registry := NewRegistry()
	if err := registry.LoadSchema(dir); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	// Should have loaded 2 proto files, ignoring the .txt file
	if len(registry.Files()) != 2 {
		t.Errorf("Expected 2 proto files, got %d", len(registry.Files()))
	}
	want := []string{"pkg1.A", "pkg2.B"}
	got := registry.ListMessages()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ListMessages() = %v, expected %v", got, want)
	}
}

func TestLoadSchemaFromFile_Imports(t *testing.T) {
	dir := writeProtos(t, map[string]string{
		"common/types.proto": `syntax = "proto3";
package common;

message Money {
  int64 units = 1;
}

enum Currency {
  CURRENCY_UNSPECIFIED = 0;
  EUR = 1;
}
`,
		"shop/order.proto": `syntax = "proto3";
package shop;

import "common/types.proto";
import "google/protobuf/timestamp.proto";

message Order {
  common.Money total = 1;
  .common.Currency currency = 2;
  repeated int32 quantities = 3;
  repeated common.Money lines = 4;
}
`,
	})

	registry := NewRegistry(dir)
	if err := registry.LoadSchemaFromFile("shop/order.proto"); err != nil {
		t.Fatalf("LoadSchemaFromFile failed: %v", err)
	}
	if len(registry.Files()) != 2 {
		t.Fatalf("Expected imported file to be loaded, got %d files", len(registry.Files()))
	}

	order, err := registry.GetMessage("shop.Order")
	if err != nil {
		t.Fatal(err)
	}
	total, currency, quantities, lines := order.Fields[0], order.Fields[1], order.Fields[2], order.Fields[3]
	if total.Type.Kind != schema.KindMessage || total.Type.MessageType != "common.Money" {
		t.Errorf("total resolved to %+v", total.Type)
	}
	if !total.Presence {
		t.Error("message fields always track presence")
	}
	if currency.Type.Kind != schema.KindEnum || currency.Type.EnumType != "common.Currency" {
		t.Errorf("currency resolved to %+v", currency.Type)
	}
	if !quantities.Packed {
		t.Error("proto3 repeated scalars are packed by default")
	}
	if lines.Packed {
		t.Error("repeated messages are never packed")
	}

	// Loading again reuses the parsed files.
	if err := registry.LoadSchemaFromFile("shop/order.proto"); err != nil {
		t.Fatalf("second load failed: %v", err)
	}
}

func TestLoadSchemaFromFile_MissingImport(t *testing.T) {
	dir := writeProtos(t, map[string]string{
		"a.proto": "syntax = \"proto3\";\nimport \"missing.proto\";\nmessage A {}\n",
	})

	registry := NewRegistry(dir)
	err := registry.LoadSchemaFromFile("a.proto")
	if err == nil {
		t.Fatal("Expected error for missing import")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestLoadSchema_UnresolvedType(t *testing.T) {
	dir := writeProtos(t, map[string]string{
		"a.proto": "syntax = \"proto3\";\nmessage A { Missing m = 1; }\n",
	})

	registry := NewRegistry()
	err := registry.LoadSchema(filepath.Join(dir, "a.proto"))
	if err == nil || !strings.Contains(err.Error(), "unable to resolve type name: Missing") {
		t.Errorf("Expected unresolved type error, got: %v", err)
	}
}

func TestScopedResolution(t *testing.T) {
	dir := writeProtos(t, map[string]string{"scope.proto": `syntax = "proto2";
package outer;

message Inner {
  optional int32 top = 1;
}

message Holder {
  message Inner {
    optional string nested = 1;
    optional Kind kind = 2;
  }
  enum Kind {
    KIND_A = 0;
    KIND_B = 1;
  }
  optional Inner inner = 1;
  optional .outer.Inner top_inner = 2;
  optional int32 legacy = 3 [default = 7];
  repeated int32 unpacked = 4;
  repeated int32 packed = 5 [packed = true];
}
`})

	registry := NewRegistry()
	if err := registry.LoadSchema(filepath.Join(dir, "scope.proto")); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	holder, err := registry.GetMessage("outer.Holder")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		field    int
		expected string
	}{
		{0, "outer.Holder.Inner"},
		{1, "outer.Inner"},
	}
	for _, test := range tests {
		if got := holder.Fields[test.field].Type.MessageType; got != test.expected {
			t.Errorf("field %s resolved to %q, expected %q", holder.Fields[test.field].Name, got, test.expected)
		}
	}

	nested, err := registry.GetMessage("outer.Holder.Inner")
	if err != nil {
		t.Fatal(err)
	}
	if nested.Fields[1].Type.EnumType != "outer.Holder.Kind" {
		t.Errorf("kind resolved to %q", nested.Fields[1].Type.EnumType)
	}
	if !nested.Fields[0].Presence {
		t.Error("proto2 optional fields track presence")
	}

	legacy := holder.Fields[2]
	if legacy.DefaultValue != "7" {
		t.Errorf("Expected default '7', got '%s'", legacy.DefaultValue)
	}
	if holder.Fields[3].Packed {
		t.Error("proto2 repeated scalars are unpacked by default")
	}
	if !holder.Fields[4].Packed {
		t.Error("[packed = true] should be honoured")
	}
}

func TestMapsAndOneofs(t *testing.T) {
	dir := writeProtos(t, map[string]string{"m.proto": `syntax = "proto3";
package m;

message Value {
  string s = 1;
}

message Doc {
  map<string, int32> string_map = 1;
  map<int64, Value> values = 2;
  oneof choice {
    string text = 3;
    Value value = 4;
  }
}
`})

	registry := NewRegistry()
	if err := registry.LoadSchema(filepath.Join(dir, "m.proto")); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	doc, err := registry.GetMessage("m.Doc")
	if err != nil {
		t.Fatal(err)
	}
	strMap := doc.Fields[0]
	if !strMap.IsMap() || strMap.IsRepeated() {
		t.Error("string_map should be a map field")
	}
	if strMap.Type.MapKey.PrimitiveType != schema.TypeString || strMap.Type.MapValue.PrimitiveType != schema.TypeInt32 {
		t.Errorf("unexpected map types %+v %+v", strMap.Type.MapKey, strMap.Type.MapValue)
	}
	if doc.Fields[1].Type.MapValue.MessageType != "m.Value" {
		t.Errorf("map value resolved to %q", doc.Fields[1].Type.MapValue.MessageType)
	}

	entry, err := registry.GetMessage("m.Doc.StringMapEntry")
	if err != nil {
		t.Fatalf("map entry message not registered: %v", err)
	}
	if !entry.MapEntry || len(entry.Fields) != 2 {
		t.Error("Invalid map entry message")
	}
	if entry.Fields[0].Name != "key" || entry.Fields[0].Number != 1 {
		t.Error("Invalid key field")
	}
	if entry.Fields[1].Name != "value" || entry.Fields[1].Number != 2 {
		t.Error("Invalid value field")
	}
	if registry.GetOrCreateMapEntryMessage(doc, strMap) != entry {
		t.Error("Should have returned existing message")
	}

	if len(doc.OneofGroups) != 1 || len(doc.OneofGroups[0].Fields) != 2 {
		t.Fatal("Expected one oneof group with two fields")
	}
	for _, f := range doc.OneofGroups[0].Fields {
		if f.OneofIndex != 0 || !f.Presence {
			t.Errorf("oneof member %s: index %d presence %v", f.Name, f.OneofIndex, f.Presence)
		}
	}
	if len(doc.Fields) != 4 {
		t.Errorf("oneof members should also be listed as fields, got %d fields", len(doc.Fields))
	}
}

func TestInvalidMapKey(t *testing.T) {
	dir := writeProtos(t, map[string]string{"bad.proto": `syntax = "proto3";
message Bad {
  map<double, string> m = 1;
}
`})

	registry := NewRegistry()
	err := registry.LoadSchema(filepath.Join(dir, "bad.proto"))
	if err == nil || !strings.Contains(err.Error(), "invalid map key type") {
		t.Errorf("Expected invalid map key error, got: %v", err)
	}
}

const extensionsProto = `syntax = "proto2";
package ext;

message Base {
  optional int32 id = 1;
  extensions 100 to 199;
  extensions 500 to max;
}

extend Base {
  optional string label = 100;
  repeated int32 tags = 101 [packed = true];
}

message Scope {
  extend Base {
    optional Scope scoped = 500;
  }
}
`

func TestExtensions(t *testing.T) {
	dir := writeProtos(t, map[string]string{"ext.proto": extensionsProto})

	registry := NewRegistry()
	if err := registry.LoadSchema(filepath.Join(dir, "ext.proto")); err != nil {
		t.Fatalf("LoadSchema failed: %v", err)
	}

	base, err := registry.GetMessage("ext.Base")
	if err != nil {
		t.Fatal(err)
	}
	if len(base.ExtensionRanges) != 2 {
		t.Fatalf("Expected 2 extension ranges, got %d", len(base.ExtensionRanges))
	}
	if r := base.ExtensionRanges[0]; r.Start != 100 || r.End != 200 {
		t.Errorf("Expected [100, 200), got [%d, %d)", r.Start, r.End)
	}
	if !base.ExtensionRanges[1].Contains(536870911) {
		t.Error("'max' should reach the largest field number")
	}

	want := []string{"ext.Scope.scoped", "ext.label", "ext.tags"}
	if got := registry.ListExtensions(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("ListExtensions() = %v, expected %v", got, want)
	}

	label, err := registry.GetExtension(".ext.label")
	if err != nil {
		t.Fatal(err)
	}
	if label.Extendee != "ext.Base" || !label.Presence {
		t.Errorf("label: extendee %q presence %v", label.Extendee, label.Presence)
	}
	scoped, err := registry.GetExtension("ext.Scope.scoped")
	if err != nil {
		t.Fatal(err)
	}
	if scoped.Type.MessageType != "ext.Scope" {
		t.Errorf("scoped resolved to %q", scoped.Type.MessageType)
	}

	of := registry.ExtensionsOf("ext.Base")
	if len(of) != 3 || of[0].Number != 100 || of[2].Number != 500 {
		t.Errorf("ExtensionsOf returned %d extensions", len(of))
	}

	if _, err := registry.GetExtension("ext.nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestExtensionErrors(t *testing.T) {
	tests := []struct {
		name     string
		proto    string
		expected string
	}{
		{
			name:     "out of range",
			proto:    "syntax = \"proto2\";\nmessage B { extensions 10 to 20; }\nextend B { optional int32 x = 30; }\n",
			expected: "not in an extension range",
		},
		{
			name:     "no ranges",
			proto:    "syntax = \"proto2\";\nmessage B { optional int32 id = 1; }\nextend B { optional int32 x = 5; }\n",
			expected: "not in an extension range",
		},
		{
			name:     "number clash",
			proto:    "syntax = \"proto2\";\nmessage B { extensions 10 to 20; }\nextend B { optional int32 x = 10; optional int32 y = 10; }\n",
			expected: "both use field 10",
		},
		{
			name:     "required",
			proto:    "syntax = \"proto2\";\nmessage B { extensions 10 to 20; }\nextend B { required int32 x = 10; }\n",
			expected: "cannot be required",
		},
		{
			name:     "extendee is an enum",
			proto:    "syntax = \"proto2\";\nenum E { A = 0; }\nextend E { optional int32 x = 10; }\n",
			expected: "is not a message",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := writeProtos(t, map[string]string{"e.proto": test.proto})
			registry := NewRegistry()
			err := registry.LoadSchema(filepath.Join(dir, "e.proto"))
			if err == nil || !strings.Contains(err.Error(), test.expected) {
				t.Errorf("Expected error containing %q, got: %v", test.expected, err)
			}
		})
	}
}

func TestEnumAliases(t *testing.T) {
	withoutAlias := "syntax = \"proto3\";\nenum E { A = 0; B = 0; }\n"
	withAlias := "syntax = \"proto3\";\nenum E { option allow_alias = true; A = 0; B = 0; }\n"

	dir := writeProtos(t, map[string]string{"bad.proto": withoutAlias, "good.proto": withAlias})

	if err := NewRegistry(dir).LoadSchemaFromFile("bad.proto"); err == nil {
		t.Error("Expected error for duplicate enum numbers")
	}

	registry := NewRegistry(dir)
	if err := registry.LoadSchemaFromFile("good.proto"); err != nil {
		t.Fatalf("LoadSchemaFromFile failed: %v", err)
	}
	enum, err := registry.GetEnum("E")
	if err != nil {
		t.Fatal(err)
	}
	if !enum.AllowAlias || len(enum.Values) != 2 {
		t.Errorf("Expected aliased enum with 2 values, got %+v", enum)
	}
}

func TestInvalidFieldNumbers(t *testing.T) {
	for _, number := range []string{"0", "19000", "536870912"} {
		dir := writeProtos(t, map[string]string{"n.proto": "syntax = \"proto3\";\nmessage N { int32 x = " + number + "; }\n"})
		if err := NewRegistry().LoadSchema(filepath.Join(dir, "n.proto")); err == nil {
			t.Errorf("Expected error for field number %s", number)
		}
	}
}

func TestDuplicateDefinitions(t *testing.T) {
	dir := writeProtos(t, map[string]string{
		"a.proto": "syntax = \"proto3\";\npackage dup;\nmessage M {}\n",
		"b.proto": "syntax = \"proto3\";\npackage dup;\nmessage M {}\n",
	})

	err := NewRegistry().LoadSchema(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate message dup.M") {
		t.Errorf("Expected duplicate message error, got: %v", err)
	}
}

func TestGetFullName(t *testing.T) {
	registry := NewRegistry()

	tests := []struct {
		pkg      string
		name     string
		expected string
	}{
		{"", "Message", "Message"},
		{"pkg", "Message", "pkg.Message"},
		{"com.example", "Message", "com.example.Message"},
	}

	for _, test := range tests {
		result := registry.getFullName(test.pkg, test.name)
		if result != test.expected {
			t.Errorf("getFullName(%q, %q) = %q, expected %q",
				test.pkg, test.name, result, test.expected)
		}
	}
}

func TestMapEntryName(t *testing.T) {
	tests := map[string]string{
		"string_map": "StringMapEntry",
		"values":     "ValuesEntry",
		"a_b_c":      "ABCEntry",
	}
	for in, expected := range tests {
		if got := mapEntryName(in); got != expected {
			t.Errorf("mapEntryName(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestGetMessage_NotFound(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.GetMessage("NonExistent")
	if err == nil {
		t.Fatal("Expected error for non-existent message")
	}
	if !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "message NonExistent") {
		t.Errorf("Expected 'message NonExistent' not found error, got: %v", err)
	}
	if _, err := registry.GetEnum("NonExistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for enum, got: %v", err)
	}
	if _, err := registry.GetService("NonExistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for service, got: %v", err)
	}
}

func TestLoadRepo(t *testing.T) {
	repo := &schema.ProtoRepo{ProtoFiles: map[string]*schema.ProtoFile{
		"pkg/test.proto": {
			Name:    "pkg/test.proto",
			Package: "pkg",
			Syntax:  "proto3",
			Messages: []*schema.Message{
				{
					Name: "TestMessage",
					Fields: []*schema.Field{
						{Name: "status", Number: 1, OneofIndex: -1, Type: schema.FieldType{Kind: schema.KindMessage, MessageType: "TestEnum"}},
					},
				},
			},
			Enums: []*schema.Enum{
				{Name: "TestEnum", Values: []*schema.EnumValue{{Name: "VALUE1", Number: 0}}},
			},
			Services: []*schema.Service{
				{Name: "TestService", Methods: []*schema.Method{{Name: "Method1", InputType: "TestMessage", OutputType: "TestMessage"}}},
			},
		},
	}}

	registry := NewRegistry()
	if err := registry.LoadRepo(repo); err != nil {
		t.Fatalf("LoadRepo failed: %v", err)
	}

	// Test exact match
	msg, err := registry.GetMessage("pkg.TestMessage")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// Test suffix match
	if same, _ := registry.GetMessage("TestMessage"); same != msg {
		t.Error("Got wrong message")
	}
	if msg.Fields[0].Type.Kind != schema.KindEnum || msg.Fields[0].Type.EnumType != "pkg.TestEnum" {
		t.Errorf("status resolved to %+v", msg.Fields[0].Type)
	}
	if enum, err := registry.GetEnum("TestEnum"); err != nil || enum.FullName != "pkg.TestEnum" {
		t.Errorf("GetEnum: %v %v", enum, err)
	}
	if names := registry.ListServices(); len(names) != 1 || names[0] != "pkg.TestService" {
		t.Errorf("ListServices() = %v", names)
	}
	if names := registry.ListEnums(); len(names) != 1 || names[0] != "pkg.TestEnum" {
		t.Errorf("ListEnums() = %v", names)
	}

	if err := registry.LoadRepo(repo); err == nil {
		t.Error("Expected error when loading the same file twice")
	}
}
