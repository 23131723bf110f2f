package wire

import "google.golang.org/protobuf/encoding/protowire"

// DECODER METHODS

// ReadVarint decodes a varint from the current position
func (d *Decoder) ReadVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf[d.pos:])
	if n < 0 {
		return 0, varintError(n)
	}
	d.pos += n
	return v, nil
}

// ReadInt32 decodes a varint as int32 (sign-extended negatives use ten bytes)
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadVarint()
	return int32(v), err
}

// ReadInt64 decodes a varint as int64
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadVarint()
	return int64(v), err
}

// ReadUint32 decodes a varint as uint32
func (d *Decoder) ReadUint32() (uint32, error) {
	v, err := d.ReadVarint()
	return uint32(v), err
}

// ReadSint32 decodes a zigzag-encoded signed varint as int32
func (d *Decoder) ReadSint32() (int32, error) {
	v, err := d.ReadVarint()
	return DecodeZigZag32(v), err
}

// ReadSint64 decodes a zigzag-encoded signed varint as int64
func (d *Decoder) ReadSint64() (int64, error) {
	v, err := d.ReadVarint()
	return DecodeZigZag64(v), err
}

// ReadBool decodes a varint as bool
func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadVarint()
	return v != 0, err
}

func varintError(n int) error {
	if n == -1 {
		return ErrTruncated
	}
	return ErrVarintOverflow
}

// ENCODER METHODS

// PutVarint encodes a uint64 as varint
func (e *Encoder) PutVarint(v uint64) {
	e.buf = protowire.AppendVarint(e.buf, v)
}

// PutInt32 encodes an int32 as varint. Negative values take ten bytes.
func (e *Encoder) PutInt32(v int32) {
	e.PutVarint(uint64(v))
}

// PutInt64 encodes an int64 as varint
func (e *Encoder) PutInt64(v int64) {
	e.PutVarint(uint64(v))
}

// PutSint32 encodes a signed int32 with zigzag encoding
func (e *Encoder) PutSint32(v int32) {
	e.PutVarint(EncodeZigZag32(v))
}

// PutSint64 encodes a signed int64 with zigzag encoding
func (e *Encoder) PutSint64(v int64) {
	e.PutVarint(EncodeZigZag64(v))
}

// PutBool encodes a bool as varint
func (e *Encoder) PutBool(v bool) {
	e.PutVarint(protowire.EncodeBool(v))
}

// UTILITY FUNCTIONS

// DecodeZigZag32 decodes a zigzag-encoded 32-bit integer
func DecodeZigZag32(encoded uint64) int32 {
	return int32(protowire.DecodeZigZag(encoded & 0xFFFFFFFF))
}

// DecodeZigZag64 decodes a zigzag-encoded 64-bit integer
func DecodeZigZag64(encoded uint64) int64 {
	return protowire.DecodeZigZag(encoded)
}

// EncodeZigZag32 encodes a signed 32-bit integer using zigzag encoding
func EncodeZigZag32(v int32) uint64 {
	return uint64((uint32(v) << 1) ^ uint32(v>>31))
}

// EncodeZigZag64 encodes a signed 64-bit integer using zigzag encoding
func EncodeZigZag64(v int64) uint64 {
	return protowire.EncodeZigZag(v)
}

// VarintSize returns the number of bytes needed to encode the given varint
func VarintSize(v uint64) int {
	return protowire.SizeVarint(v)
}
