// Package textfmt builds protobuf text format output. It only knows about
// layout (indentation, separators, escaping); which fields appear and in what
// order is decided by the caller.
package textfmt

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const indentUnit = "  "

// Encoder accumulates indented text format output.
type Encoder struct {
	sb     strings.Builder
	indent int
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Result returns the text written so far.
func (e *Encoder) Result() string {
	return e.sb.String()
}

// StartField begins a scalar field: `name: `.
func (e *Encoder) StartField(name string) {
	e.writeIndent()
	e.sb.WriteString(name)
	e.sb.WriteString(": ")
}

// StartMessageField begins a message-valued field: `name `. The caller
// follows with StartObject.
func (e *Encoder) StartMessageField(name string) {
	e.writeIndent()
	e.sb.WriteString(name)
	e.sb.WriteByte(' ')
}

// EndField terminates the current field line.
func (e *Encoder) EndField() {
	e.sb.WriteByte('\n')
}

// StartObject opens a nested message body.
func (e *Encoder) StartObject() {
	e.sb.WriteString("{\n")
	e.indent++
}

// EndObject closes a nested message body.
func (e *Encoder) EndObject() {
	if e.indent > 0 {
		e.indent--
	}
	e.writeIndent()
	e.sb.WriteByte('}')
}

func (e *Encoder) StartArray()     { e.sb.WriteByte('[') }
func (e *Encoder) ArraySeparator() { e.sb.WriteString(", ") }
func (e *Encoder) EndArray()       { e.sb.WriteByte(']') }

// PutEnumValue writes the symbolic name, or the raw number when the value
// has no name.
func (e *Encoder) PutEnumValue(name string, number int32) {
	if name == "" {
		e.PutInt64(int64(number))
		return
	}
	e.sb.WriteString(name)
}

func (e *Encoder) PutInt64(v int64) {
	e.sb.WriteString(strconv.FormatInt(v, 10))
}

func (e *Encoder) PutUint64(v uint64) {
	e.sb.WriteString(strconv.FormatUint(v, 10))
}

func (e *Encoder) PutBool(v bool) {
	e.sb.WriteString(strconv.FormatBool(v))
}

// PutFloat writes a float with the shortest representation that round-trips
// at the given bit size (32 or 64).
func (e *Encoder) PutFloat(v float64, bitSize int) {
	switch {
	case math.IsNaN(v):
		e.sb.WriteString("nan")
	case math.IsInf(v, 1):
		e.sb.WriteString("inf")
	case math.IsInf(v, -1):
		e.sb.WriteString("-inf")
	default:
		e.sb.WriteString(strconv.FormatFloat(v, 'g', -1, bitSize))
	}
}

// PutString writes a quoted string. Valid UTF-8 is kept as is; control
// characters, quotes and invalid bytes are escaped.
func (e *Encoder) PutString(s string) {
	e.sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			e.writeOctal(s[i])
			i++
			continue
		}
		if r < utf8.RuneSelf {
			e.writeASCII(byte(r))
		} else {
			e.sb.WriteString(s[i : i+size])
		}
		i += size
	}
	e.sb.WriteByte('"')
}

// PutBytes writes a quoted byte string; every byte outside printable ASCII
// is octal-escaped.
func (e *Encoder) PutBytes(b []byte) {
	e.sb.WriteByte('"')
	for _, c := range b {
		if c >= utf8.RuneSelf {
			e.writeOctal(c)
			continue
		}
		e.writeASCII(c)
	}
	e.sb.WriteByte('"')
}

func (e *Encoder) writeASCII(c byte) {
	switch c {
	case '\n':
		e.sb.WriteString(`\n`)
	case '\r':
		e.sb.WriteString(`\r`)
	case '\t':
		e.sb.WriteString(`\t`)
	case '"':
		e.sb.WriteString(`\"`)
	case '\'':
		e.sb.WriteString(`\'`)
	case '\\':
		e.sb.WriteString(`\\`)
	default:
		if c < 0x20 || c == 0x7f {
			e.writeOctal(c)
			return
		}
		e.sb.WriteByte(c)
	}
}

func (e *Encoder) writeOctal(c byte) {
	e.sb.WriteByte('\\')
	e.sb.WriteByte('0' + c>>6)
	e.sb.WriteByte('0' + (c>>3)&7)
	e.sb.WriteByte('0' + c&7)
}

func (e *Encoder) writeIndent() {
	for i := 0; i < e.indent; i++ {
		e.sb.WriteString(indentUnit)
	}
}
