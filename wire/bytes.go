package wire

import "google.golang.org/protobuf/encoding/protowire"

// DECODER METHODS

// ReadBytes decodes a length-delimited byte array. The result is a copy and
// does not alias the input buffer.
func (d *Decoder) ReadBytes() ([]byte, error) {
	raw, err := d.ReadRawBytes()
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(raw))
	copy(data, raw)
	return data, nil
}

// ReadString decodes a length-delimited string
func (d *Decoder) ReadString() (string, error) {
	raw, err := d.ReadRawBytes()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ReadRawBytes decodes a length-delimited value without copying (shares buffer)
func (d *Decoder) ReadRawBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(d.buf[d.pos:])
	if n < 0 {
		return nil, varintError(n)
	}
	d.pos += n
	return v, nil
}

// ENCODER METHODS

// PutBytes encodes a byte array as length-delimited
func (e *Encoder) PutBytes(data []byte) {
	e.buf = protowire.AppendBytes(e.buf, data)
}

// PutString encodes a string as length-delimited bytes
func (e *Encoder) PutString(s string) {
	e.buf = protowire.AppendString(e.buf, s)
}

// PutLength writes the length prefix of a length-delimited value whose body
// the caller writes next.
func (e *Encoder) PutLength(n int) {
	e.PutVarint(uint64(n))
}

// UTILITY FUNCTIONS

// BytesSize returns the size needed to encode the given bytes
func BytesSize(data []byte) int {
	return protowire.SizeBytes(len(data))
}

// StringSize returns the size needed to encode the given string
func StringSize(s string) int {
	return protowire.SizeBytes(len(s))
}

// LengthDelimitedSize returns the size of a length prefix plus a body of n bytes.
func LengthDelimitedSize(n int) int {
	return protowire.SizeBytes(n)
}
