package textfmt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNestedLayout(t *testing.T) {
	e := NewEncoder()
	e.StartField("id")
	e.PutInt64(7)
	e.EndField()
	e.StartMessageField("child")
	e.StartObject()
	e.StartField("name")
	e.PutString("x")
	e.EndField()
	e.EndObject()
	e.EndField()
	e.StartField("nums")
	e.StartArray()
	e.PutInt64(1)
	e.ArraySeparator()
	e.PutInt64(2)
	e.EndArray()
	e.EndField()

	assert.Equal(t, "id: 7\nchild {\n  name: \"x\"\n}\nnums: [1, 2]\n", e.Result())
}

func TestPutString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{"a\"b\\c", `"a\"b\\c"`},
		{"line\nbreak\t", `"line\nbreak\t"`},
		{"\x01", `"\001"`},
		{"héllo", `"héllo"`},
		{"bad\xffutf8", `"bad\377utf8"`},
	}
	for _, tt := range tests {
		e := NewEncoder()
		e.PutString(tt.in)
		assert.Equal(t, tt.want, e.Result(), "input %q", tt.in)
	}
}

func TestPutBytes(t *testing.T) {
	e := NewEncoder()
	e.PutBytes([]byte{'a', 0, 0xff, '\''})
	assert.Equal(t, `"a\000\377\'"`, e.Result())
}

func TestPutFloat(t *testing.T) {
	tests := []struct {
		v       float64
		bitSize int
		want    string
	}{
		{1.5, 64, "1.5"},
		{math.Inf(1), 64, "inf"},
		{math.Inf(-1), 32, "-inf"},
		{math.NaN(), 64, "nan"},
		{float64(float32(0.1)), 32, "0.1"},
		{1e21, 64, "1e+21"},
	}
	for _, tt := range tests {
		e := NewEncoder()
		e.PutFloat(tt.v, tt.bitSize)
		assert.Equal(t, tt.want, e.Result())
	}
}

func TestPutEnumValue(t *testing.T) {
	e := NewEncoder()
	e.PutEnumValue("FOO", 1)
	e.ArraySeparator()
	e.PutEnumValue("", 42)
	assert.Equal(t, "FOO, 42", e.Result())
}
