// Package jsonfmt builds proto3 JSON output on top of easyjson's jwriter.
package jsonfmt

import (
	"math"

	"github.com/mailru/easyjson/jwriter"
)

// Encoder writes JSON structurally. Object members are comma-separated
// automatically; array elements are separated by the caller via
// ArraySeparator.
type Encoder struct {
	w         jwriter.Writer
	needComma bool
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{w: jwriter.Writer{NoEscapeHTML: true}}
}

// Bytes returns the JSON written so far.
func (e *Encoder) Bytes() ([]byte, error) {
	return e.w.BuildBytes()
}

// Result returns the JSON written so far as a string.
func (e *Encoder) Result() (string, error) {
	b, err := e.Bytes()
	return string(b), err
}

func (e *Encoder) StartObject() {
	e.w.RawByte('{')
	e.needComma = false
}

func (e *Encoder) EndObject() {
	e.w.RawByte('}')
	e.needComma = true
}

// StartField writes the member name and colon for the next value.
func (e *Encoder) StartField(name string) {
	if e.needComma {
		e.w.RawByte(',')
	}
	e.w.String(name)
	e.w.RawByte(':')
	e.needComma = true
}

// PutMapKey starts a map entry. JSON object keys are always strings, so key
// is written quoted whatever its proto type.
func (e *Encoder) PutMapKey(key string) {
	e.StartField(key)
}

func (e *Encoder) StartArray() {
	e.w.RawByte('[')
	e.needComma = false
}

func (e *Encoder) ArraySeparator() {
	e.w.RawByte(',')
}

func (e *Encoder) EndArray() {
	e.w.RawByte(']')
	e.needComma = true
}

func (e *Encoder) PutNull() {
	e.w.RawString("null")
}

func (e *Encoder) PutBool(v bool) {
	e.w.Bool(v)
}

func (e *Encoder) PutInt32(v int32) {
	e.w.Int32(v)
}

func (e *Encoder) PutUint32(v uint32) {
	e.w.Uint32(v)
}

// PutInt64 writes a quoted decimal; proto3 JSON quotes 64-bit integers.
func (e *Encoder) PutInt64(v int64) {
	e.w.Int64Str(v)
}

// PutUint64 writes a quoted decimal.
func (e *Encoder) PutUint64(v uint64) {
	e.w.Uint64Str(v)
}

func (e *Encoder) PutFloat(v float32) {
	if e.putSpecialFloat(float64(v)) {
		return
	}
	e.w.Float32(v)
}

func (e *Encoder) PutDouble(v float64) {
	if e.putSpecialFloat(v) {
		return
	}
	e.w.Float64(v)
}

func (e *Encoder) putSpecialFloat(v float64) bool {
	switch {
	case math.IsNaN(v):
		e.w.String("NaN")
	case math.IsInf(v, 1):
		e.w.String("Infinity")
	case math.IsInf(v, -1):
		e.w.String("-Infinity")
	default:
		return false
	}
	return true
}

func (e *Encoder) PutString(s string) {
	e.w.String(s)
}

// PutBytes writes standard padded base64.
func (e *Encoder) PutBytes(b []byte) {
	if b == nil {
		b = []byte{}
	}
	e.w.Base64Bytes(b)
}

// PutEnumValue writes the enum's name, or its number when it has none.
func (e *Encoder) PutEnumValue(name string, number int32) {
	if name == "" {
		e.w.Int32(number)
		return
	}
	e.w.String(name)
}
