package jsonfmt

import (
	"math"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectLayout(t *testing.T) {
	e := NewEncoder()
	e.StartObject()
	e.StartField("a")
	e.PutInt32(1)
	e.StartField("b")
	e.StartArray()
	e.PutString("x")
	e.ArraySeparator()
	e.PutString("y")
	e.EndArray()
	e.StartField("c")
	e.StartObject()
	e.PutMapKey("1")
	e.PutBool(true)
	e.PutMapKey("2")
	e.PutNull()
	e.EndObject()
	e.StartField("d")
	e.PutInt64(-5)
	e.EndObject()

	out, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":["x","y"],"c":{"1":true,"2":null},"d":"-5"}`, out)
	assert.True(t, sonic.Valid([]byte(out)))
}

func TestSpecialFloats(t *testing.T) {
	e := NewEncoder()
	e.StartArray()
	e.PutDouble(math.NaN())
	e.ArraySeparator()
	e.PutDouble(math.Inf(1))
	e.ArraySeparator()
	e.PutFloat(float32(math.Inf(-1)))
	e.ArraySeparator()
	e.PutFloat(1.25)
	e.EndArray()

	out, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, `["NaN","Infinity","-Infinity",1.25]`, out)
}

func TestBytesAndEnums(t *testing.T) {
	e := NewEncoder()
	e.StartArray()
	e.PutBytes([]byte("hi?"))
	e.ArraySeparator()
	e.PutBytes(nil)
	e.ArraySeparator()
	e.PutEnumValue("RED", 1)
	e.ArraySeparator()
	e.PutEnumValue("", 9)
	e.ArraySeparator()
	e.PutUint64(math.MaxUint64)
	e.EndArray()

	out, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, `["aGk/","","RED",9,"18446744073709551615"]`, out)
}

func TestStringEscaping(t *testing.T) {
	e := NewEncoder()
	e.PutString("a\"b<c>\n")
	out, err := e.Result()
	require.NoError(t, err)
	assert.Equal(t, `"a\"b<c>\n"`, out)
}
