package codec

import (
	"math"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anirudhraja/protorun/wire"
)

var deterministic = WithConfig(Config{Deterministic: true})

func fullMessage() *AllTypes {
	return &AllTypes{
		F:          1.5,
		D:          -2.25,
		I32:        -7,
		I64:        -1 << 40,
		U32:        math.MaxUint32,
		U64:        math.MaxUint64,
		S32:        -1,
		S64:        math.MinInt64,
		Fx32:       12345,
		Fx64:       1 << 60,
		Sf32:       -99,
		Sf64:       -1 << 50,
		B:          true,
		Str:        "héllo",
		Byt:        []byte{0, 1, 0xff},
		Color:      ColorBlue,
		Child:      &Inner{Name: "child", Count: 3},
		RepInt:     []int32{1, -2, 300},
		PackedSint: []int32{-1, 0, 1},
		RepStr:     []string{"a", "", "c"},
		Colors:     []Color{ColorRed, ColorBlue, Color(9)},
		Children:   []*Inner{{Name: "x"}, {Count: 4}},
		StrMap:     map[int32]string{1: "one", -2: "minus two"},
		EnumMap:    map[string]Color{"r": ColorRed, "b": ColorBlue},
		MsgMap:     map[string]*Inner{"k": {Name: "v", Count: 1}},
		Self:       &AllTypes{I32: 1, Str: "nested"},
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	m := fullMessage()
	SetExtension(&m.extensions, extSInt, int32(-3))
	SetExtension(&m.extensions, extNames, []string{"p", "q"})
	SetExtension(&m.extensions, extColor, ColorBlue)
	SetExtension(&m.extensions, extInner, &Inner{Name: "ext"})
	SetExtension(&m.extensions, extPacked, []uint32{1, 2, 3})

	data, err := Marshal(m, deterministic)
	require.NoError(t, err)

	size, err := Size(m)
	require.NoError(t, err)
	assert.Equal(t, len(data), size)

	var got AllTypes
	require.NoError(t, Unmarshal(data, &got, WithExtensions(testExtensions)))
	assert.True(t, MessagesEqual(m, &got))
	assert.Equal(t, m.Str, got.Str)
	assert.Equal(t, m.U64, got.U64)
	assert.Equal(t, m.Colors, got.Colors)
	assert.Equal(t, "minus two", got.StrMap[-2])
	assert.Equal(t, "v", got.MsgMap["k"].Name)
	assert.Equal(t, "nested", got.Self.Str)
	assert.Zero(t, got.UnknownFields().Len())

	inner, err := GetExtension(&got.extensions, extInner)
	require.NoError(t, err)
	assert.Equal(t, "ext", inner.Name)
	packed, err := GetExtension(&got.extensions, extPacked)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, packed)

	again, err := Marshal(&got, deterministic)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestSignedEncodingsDiffer(t *testing.T) {
	sint, err := Marshal(&AllTypes{S32: -1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x38, 0x01}, sint)

	sfixed, err := Marshal(&AllTypes{Sf32: -1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5d, 0xff, 0xff, 0xff, 0xff}, sfixed)

	plain, err := Marshal(&AllTypes{I32: -1})
	require.NoError(t, err)
	assert.Len(t, plain, 11)
	assert.Equal(t, byte(0x18), plain[0])

	for _, data := range [][]byte{sint, sfixed, plain} {
		var m AllTypes
		require.NoError(t, Unmarshal(data, &m))
		assert.Equal(t, int32(-1), m.S32+m.Sf32+m.I32)
	}
}

func TestPackedAndUnpackedDecodeAlike(t *testing.T) {
	packed, err := Marshal(&AllTypes{PackedSint: []int32{1, -1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x9a, 0x01, 0x03, 0x02, 0x01, 0x04}, packed)

	unpacked := []byte{0x98, 0x01, 0x02, 0x98, 0x01, 0x01, 0x98, 0x01, 0x04}

	var a, b AllTypes
	require.NoError(t, Unmarshal(packed, &a))
	require.NoError(t, Unmarshal(unpacked, &b))
	assert.Equal(t, []int32{1, -1, 2}, a.PackedSint)
	assert.Equal(t, a.PackedSint, b.PackedSint)

	// A mix of both forms appends in wire order.
	var c AllTypes
	require.NoError(t, Unmarshal(append(unpacked[:3:3], packed...), &c))
	assert.Equal(t, []int32{1, 1, -1, 2}, c.PackedSint)
}

func TestMapEntryBinaryLayout(t *testing.T) {
	data, err := Marshal(&AllTypes{StrMap: map[int32]string{1: "a"}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xba, 0x01, 0x05, 0x08, 0x01, 0x12, 0x01, 'a'}, data)

	// Entries with missing key or value take defaults.
	var m AllTypes
	require.NoError(t, Unmarshal([]byte{0xba, 0x01, 0x03, 0x12, 0x01, 'z'}, &m))
	assert.Equal(t, map[int32]string{0: "z"}, m.StrMap)
}

func TestUnknownFieldsPreserved(t *testing.T) {
	known := []byte{0x18, 0x05}
	unknown := []byte{
		0x90, 0x03, 0x07, // 50: varint 7
		0x9a, 0x03, 0x02, 'x', 'y', // 51: bytes "xy"
		0xa3, 0x03, 0x08, 0x01, 0xa4, 0x03, // 52: group { 1: 1 }
	}
	data := append(append([]byte{}, known...), unknown...)

	var m AllTypes
	require.NoError(t, Unmarshal(data, &m))
	assert.Equal(t, int32(5), m.I32)
	assert.Equal(t, unknown, m.UnknownFields().Bytes())

	out, err := Marshal(&m)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	var discarded AllTypes
	require.NoError(t, Unmarshal(data, &discarded, WithConfig(Config{DiscardUnknownFields: true})))
	assert.Zero(t, discarded.UnknownFields().Len())
	assert.Equal(t, int32(5), discarded.I32)
}

func TestExtensionWithoutRegistryIsUnknown(t *testing.T) {
	m := &AllTypes{}
	SetExtension(&m.extensions, extSInt, int32(-3))
	data, err := Marshal(m)
	require.NoError(t, err)

	var plain AllTypes
	require.NoError(t, Unmarshal(data, &plain))
	assert.False(t, HasExtension(&plain.extensions, extSInt))
	assert.Equal(t, data, plain.UnknownFields().Bytes())

	var known AllTypes
	require.NoError(t, Unmarshal(data, &known, WithExtensions(testExtensions)))
	v, err := GetExtension(&known.extensions, extSInt)
	require.NoError(t, err)
	assert.Equal(t, int32(-3), v)
	assert.Zero(t, known.UnknownFields().Len())
}

func TestBinaryDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
		path string
	}{
		{"truncated varint", []byte{0x18, 0x80}, wire.ErrTruncated, "i32"},
		{"truncated length", []byte{0x72, 0x05, 'a'}, wire.ErrTruncated, "str"},
		{"wire type mismatch", []byte{0x1d, 0, 0, 0, 0}, wire.ErrWireTypeMismatch, "i32"},
		{"nested mismatch", []byte{0x8a, 0x01, 0x02, 0x15, 0x00}, wire.ErrWireTypeMismatch, "child.count"},
		{"invalid utf8", []byte{0x72, 0x01, 0xff}, wire.ErrInvalidUTF8, "str"},
		{"field zero", []byte{0x00, 0x01}, wire.ErrInvalidFieldNumber, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m AllTypes
			err := Unmarshal(tt.data, &m)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrMalformedInput)
			if tt.path != "" {
				var fe *wire.FieldError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.path, strings.Join(fe.FieldPath, "."))
			}
		})
	}
}

func TestRecursionLimit(t *testing.T) {
	m := &AllTypes{Self: &AllTypes{Self: &AllTypes{Self: &AllTypes{I32: 1}}}}
	data, err := Marshal(m)
	require.NoError(t, err)

	var ok AllTypes
	require.NoError(t, Unmarshal(data, &ok, WithConfig(Config{RecursionLimit: 3})))
	assert.Equal(t, int32(1), ok.Self.Self.Self.I32)

	var tooDeep AllTypes
	err = Unmarshal(data, &tooDeep, WithConfig(Config{RecursionLimit: 2}))
	assert.ErrorIs(t, err, ErrRecursionLimit)

	js, err := MarshalJSON(m)
	require.NoError(t, err)
	err = UnmarshalJSON(js, &tooDeep, WithConfig(Config{RecursionLimit: 2}))
	assert.ErrorIs(t, err, ErrRecursionLimit)
}

func TestTextFormat(t *testing.T) {
	m := &AllTypes{
		I32:        3,
		Str:        "hi",
		Color:      ColorBlue,
		Child:      &Inner{Name: "x", Count: 2},
		PackedSint: []int32{1, -1},
		RepStr:     []string{"a", "b"},
	}
	got, err := TextString(m)
	require.NoError(t, err)
	want := "i32: 3\n" +
		"str: \"hi\"\n" +
		"color: BLUE\n" +
		"child {\n" +
		"  name: \"x\"\n" +
		"  count: 2\n" +
		"}\n" +
		"packed_sint: [1, -1]\n" +
		"rep_str: \"a\"\n" +
		"rep_str: \"b\"\n"
	assert.Equal(t, want, got)
}

func TestTextFormatMaps(t *testing.T) {
	m := &AllTypes{
		StrMap:  map[int32]string{2: "b", 1: "a"},
		EnumMap: map[string]Color{"k": ColorRed},
		MsgMap:  map[string]*Inner{"m": {Count: 1}},
	}
	got, err := TextString(m, deterministic)
	require.NoError(t, err)
	want := "str_map {\n  key: 1\n  value: \"a\"\n}\n" +
		"str_map {\n  key: 2\n  value: \"b\"\n}\n" +
		"enum_map {\n  key: \"k\"\n  value: RED\n}\n" +
		"msg_map {\n  key: \"m\"\n  value {\n    count: 1\n  }\n}\n"
	assert.Equal(t, want, got)
}

func TestTextFormatExtensions(t *testing.T) {
	m := &AllTypes{I32: 3}
	SetExtension(&m.extensions, extSInt, int32(-5))
	SetExtension(&m.extensions, extInner, &Inner{Name: "n"})

	got, err := TextString(m)
	require.NoError(t, err)
	assert.Equal(t, "i32: 3\n[test.ext_sint]: -5\n[test.ext_inner] {\n  name: \"n\"\n}\n", got)
}

func TestExtensionBracketingRestoredAfterError(t *testing.T) {
	extShadow := OptionalExtension(Int32{}, 3, "test.shadow", "test.AllTypes", int32(0))
	set := &ExtensionFieldValueSet{}
	SetExtension(set, extShadow, int32(7))
	SetExtension(set, extFailing, &Failing{})

	v := NewTextFormatEncodingVisitor(&AllTypes{})
	err := v.VisitExtensionFields(set, 1, 200)
	require.ErrorIs(t, err, errFailing)

	require.NoError(t, v.VisitSingularField(Bind(Int32{}, int32(1)), 3))
	out := v.Result()
	assert.Contains(t, out, "[test.shadow]: 7\n")
	assert.True(t, strings.HasSuffix(out, "i32: 1\n"), out)
}

func TestMissingFieldName(t *testing.T) {
	_, err := TextString(&Unnamed{})
	require.ErrorIs(t, err, ErrMissingFieldName)
	var mfe *MissingFieldNameError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, 99, mfe.FieldNumber)
	assert.Equal(t, "test.Unnamed", mfe.Message)

	_, err = MarshalJSON(&Unnamed{})
	assert.ErrorIs(t, err, ErrMissingFieldName)

	// Binary output needs no names.
	data, err := Marshal(&Unnamed{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x01, 0x98, 0x06, 0x02}, data)
}

func TestUnknownEnumValue(t *testing.T) {
	m := &AllTypes{Color: Color(7)}

	text, err := TextString(m)
	require.NoError(t, err)
	assert.Equal(t, "color: 7\n", text)

	js, err := MarshalJSON(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"color":7}`, string(js))

	data, err := Marshal(m)
	require.NoError(t, err)
	var got AllTypes
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, Color(7), got.Color)

	var fromJSON AllTypes
	require.NoError(t, UnmarshalJSON(js, &fromJSON))
	assert.Equal(t, Color(7), fromJSON.Color)
}

func TestExtensionSet(t *testing.T) {
	set := &ExtensionFieldValueSet{}

	c, err := GetExtension(set, extColor)
	require.NoError(t, err)
	assert.Equal(t, ColorRed, c)
	assert.False(t, HasExtension(set, extColor))

	SetExtension(set, extColor, ColorUnspecified)
	assert.True(t, HasExtension(set, extColor))
	c, err = GetExtension(set, extColor)
	require.NoError(t, err)
	assert.Equal(t, ColorUnspecified, c)

	SetExtension(set, extSInt, int32(4))
	_, err = GetExtension(set, extAlias)
	require.ErrorIs(t, err, ErrExtensionTypeMismatch)
	var te *ExtensionTypeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, extAlias.TypeName(), te.Want)
	assert.Equal(t, extSInt.TypeName(), te.Got)

	ClearExtension(set, extSInt)
	assert.False(t, HasExtension(set, extSInt))
	assert.Equal(t, 1, set.Len())
}

func TestExtensionSetEqualAndClone(t *testing.T) {
	a, b := &ExtensionFieldValueSet{}, &ExtensionFieldValueSet{}
	SetExtension(a, extSInt, int32(1))
	SetExtension(a, extNames, []string{"x"})
	SetExtension(b, extNames, []string{"x"})
	SetExtension(b, extSInt, int32(1))
	assert.True(t, a.Equal(b))

	SetExtension(b, extSInt, int32(2))
	assert.False(t, a.Equal(b))

	inner := &Inner{Name: "orig"}
	SetExtension(a, extInner, inner)
	clone, err := a.Clone()
	require.NoError(t, err)
	assert.True(t, a.Equal(clone))

	inner.Name = "changed"
	got, err := GetExtension(clone, extInner)
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Name)
	assert.False(t, a.Equal(clone))
}

func TestExtensionSetCloneFailure(t *testing.T) {
	set := &ExtensionFieldValueSet{}
	SetExtension(set, extInner, &Inner{Name: "kept"})
	SetExtension(set, extFailing, &Failing{})

	clone, err := set.Clone()
	assert.ErrorIs(t, err, errFailing)
	assert.ErrorContains(t, err, "test.ext_failing")
	assert.Nil(t, clone)

	_, err = cloneMessage(&Failing{})
	assert.ErrorIs(t, err, errFailing)
	_, err = CloneRuntimeMessage(&Failing{}, func() Message { return &Failing{} })
	assert.ErrorIs(t, err, errFailing)
}

func TestSetExtensionValueChecksRange(t *testing.T) {
	m := &AllTypes{}
	require.NoError(t, SetExtensionValue(m, extSInt, int32(1)))
	assert.ErrorIs(t, SetExtensionValue(m, extFar, int32(1)), ErrExtensionOutOfRange)

	other := OptionalExtension(Int32{}, 120, "test.other", "test.Inner", int32(0))
	assert.ErrorIs(t, SetExtensionValue(m, other, int32(1)), ErrExtensionOutOfRange)
}

func TestExtensionTraverseRange(t *testing.T) {
	set := &ExtensionFieldValueSet{}
	SetExtension(set, extSInt, int32(1))
	SetExtension(set, extPacked, []uint32{1, 2})

	v := NewTextFormatEncodingVisitor(&AllTypes{})
	require.NoError(t, v.VisitExtensionFields(set, 101, 200))
	assert.Equal(t, "[test.ext_packed]: [1, 2]\n", v.Result())
}

func TestJSONEncoding(t *testing.T) {
	m := &AllTypes{
		F:      1.5,
		I32:    3,
		I64:    -5,
		U64:    7,
		B:      true,
		Str:    "s",
		Byt:    []byte("hi"),
		Color:  ColorBlue,
		Child:  &Inner{Name: "x"},
		RepInt: []int32{1, 2},
		StrMap: map[int32]string{1: "a"},
	}
	SetExtension(&m.extensions, extSInt, int32(-5))

	got, err := MarshalJSON(m)
	require.NoError(t, err)
	assert.True(t, sonic.Valid(got))
	assert.Equal(t,
		`{"f":1.5,"i32":3,"i64":"-5","u64":"7","b":true,"str":"s","byt":"aGk=","color":"BLUE",`+
			`"child":{"name":"x"},"repInt":[1,2],"strMap":{"1":"a"},"[test.ext_sint]":-5}`,
		string(got))

	protoNames, err := MarshalJSON(&AllTypes{RepInt: []int32{1}, Colors: []Color{ColorRed}},
		WithConfig(Config{JSONUseProtoNames: true, JSONEnumsAsInts: true}))
	require.NoError(t, err)
	assert.Equal(t, `{"rep_int":[1],"colors":[1]}`, string(protoNames))
}

func TestJSONSpecialFloats(t *testing.T) {
	got, err := MarshalJSON(&AllTypes{F: float32(math.Inf(-1)), D: math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, `{"f":"-Infinity","d":"NaN"}`, string(got))

	var m AllTypes
	require.NoError(t, UnmarshalJSON(got, &m))
	assert.True(t, math.IsInf(float64(m.F), -1))
	assert.True(t, math.IsNaN(m.D))
}

func TestJSONRejectsInvalidUTF8(t *testing.T) {
	_, err := MarshalJSON(&AllTypes{Str: "\xff"})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = MarshalJSON(&AllTypes{EnumMap: map[string]Color{"\xff": ColorRed}})
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	got, err := MarshalJSON(&AllTypes{EnumMap: map[string]Color{"ok": ColorRed}})
	require.NoError(t, err)
	assert.Contains(t, string(got), `"enumMap":{"ok":"RED"}`)
}

func TestJSONRoundTrip(t *testing.T) {
	m := fullMessage()
	m.Colors = []Color{ColorRed, ColorBlue}
	SetExtension(&m.extensions, extSInt, int32(-3))
	SetExtension(&m.extensions, extInner, &Inner{Name: "ext"})

	data, err := MarshalJSON(m, deterministic)
	require.NoError(t, err)
	require.True(t, sonic.Valid(data))

	var got AllTypes
	require.NoError(t, UnmarshalJSON(data, &got, WithExtensions(testExtensions)))
	assert.True(t, MessagesEqual(m, &got))
}

func TestJSONDecoding(t *testing.T) {
	var m AllTypes
	input := `{
		"i32": "12",
		"i64": 1e3,
		"u32": 4294967295,
		"rep_int": [1, "2"],
		"repStr": ["a"],
		"color": "RED",
		"colors": ["BLUE", 1],
		"byt": "aGk",
		"child": {"name": "c"},
		"children": [{"count": 1}, {}],
		"enumMap": {"x": "BLUE"},
		"msgMap": {"k": {"name": "v"}},
		"strMap": {"-4": "neg"},
		"b": null
	}`
	require.NoError(t, UnmarshalJSON([]byte(input), &m))
	assert.Equal(t, int32(12), m.I32)
	assert.Equal(t, int64(1000), m.I64)
	assert.Equal(t, uint32(math.MaxUint32), m.U32)
	assert.Equal(t, []int32{1, 2}, m.RepInt)
	assert.Equal(t, []string{"a"}, m.RepStr)
	assert.Equal(t, ColorRed, m.Color)
	assert.Equal(t, []Color{ColorBlue, ColorRed}, m.Colors)
	assert.Equal(t, []byte("hi"), m.Byt)
	assert.Equal(t, "c", m.Child.Name)
	require.Len(t, m.Children, 2)
	assert.Equal(t, int32(1), m.Children[0].Count)
	assert.Equal(t, map[string]Color{"x": ColorBlue}, m.EnumMap)
	assert.Equal(t, "v", m.MsgMap["k"].Name)
	assert.Equal(t, map[int32]string{-4: "neg"}, m.StrMap)
	assert.False(t, m.B)
}

func TestJSONDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{"i32":`},
		{"not an object", `[1]`},
		{"unknown member", `{"nope": 1}`},
		{"unknown enum name", `{"color": "GREEN"}`},
		{"int32 overflow", `{"i32": 2147483648}`},
		{"fractional int", `{"i64": 1.5}`},
		{"string for bool", `{"b": "true"}`},
		{"bad base64", `{"byt": "!!"}`},
		{"scalar for message", `{"child": 1}`},
		{"bad map key", `{"strMap": {"x": "y"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m AllTypes
			err := UnmarshalJSON([]byte(tt.input), &m)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}
}

func TestJSONIgnoreUnknown(t *testing.T) {
	var m AllTypes
	cfg := WithConfig(Config{IgnoreUnknownFields: true})
	require.NoError(t, UnmarshalJSON([]byte(`{"nope":1,"color":"GREEN","colors":["GREEN","RED"],"i32":2}`), &m, cfg))
	assert.Equal(t, int32(2), m.I32)
	assert.Equal(t, ColorUnspecified, m.Color)
	assert.Equal(t, []Color{ColorRed}, m.Colors)
}

func TestCloneMessage(t *testing.T) {
	m := fullMessage()
	SetExtension(&m.extensions, extSInt, int32(9))

	c, err := cloneMessage(m)
	require.NoError(t, err)
	assert.True(t, MessagesEqual(m, c))
	c.Child.Name = "other"
	assert.Equal(t, "child", m.Child.Name)

	v, err := GetExtension(&c.extensions, extSInt)
	require.NoError(t, err)
	assert.Equal(t, int32(9), v)
}

func TestDefaultJSONNames(t *testing.T) {
	tests := []struct {
		proto, json string
	}{
		{"user_name", "userName"},
		{"Foo", "Foo"},
		{"FooBar_baz", "FooBarBaz"},
		{"_hidden", "Hidden"},
		{"a__b", "aB"},
		{"x_1", "x1"},
		{"trailing_", "trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.proto, func(t *testing.T) {
			names := NewNameMap(NameEntry{Number: 1, Proto: tt.proto})
			got, ok := names.JSONName(1)
			require.True(t, ok)
			assert.Equal(t, tt.json, got)
			n, ok := names.Number(tt.json)
			assert.True(t, ok)
			assert.Equal(t, 1, n)
		})
	}
}

func TestMarshalSizesNestedMessagesOnce(t *testing.T) {
	visits := 0
	var head *Chain
	for i := 0; i < 6; i++ {
		head = &Chain{Next: head, visits: &visits}
	}

	data, err := Marshal(head)
	require.NoError(t, err)
	// One sizing and one writing traversal per level.
	assert.Equal(t, 12, visits)
	assert.Equal(t, []byte{0x0a, 0x08, 0x0a, 0x06, 0x0a, 0x04, 0x0a, 0x02, 0x0a, 0x00}, data)

	visits = 0
	size, err := Size(head)
	require.NoError(t, err)
	assert.Equal(t, len(data), size)
	assert.Equal(t, 6, visits)
}
