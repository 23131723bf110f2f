package wire

// Encoder is the binary output sink. Visitors append tags and values to it;
// nested messages share the same Encoder.
type Encoder struct {
	buf []byte
}

// NewEncoder creates a new wire format encoder
func NewEncoder() *Encoder {
	return &Encoder{
		buf: make([]byte, 0, 64),
	}
}

// NewEncoderSize creates an encoder whose buffer can hold size bytes without growing.
func NewEncoderSize(size int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, size),
	}
}

// Bytes returns the encoded bytes
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Reset clears the encoder buffer
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
}

// PutTag writes the tag for a field.
func (e *Encoder) PutTag(fieldNumber FieldNumber, wireType WireType) {
	e.PutVarint(uint64(MakeTag(fieldNumber, wireType)))
}

// PutRaw appends b without any framing.
func (e *Encoder) PutRaw(b []byte) {
	e.buf = append(e.buf, b...)
}
