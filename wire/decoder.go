package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decoder is a cursor over a protobuf-encoded buffer.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		buf: data,
		pos: 0,
	}
}

// Done reports whether the whole buffer has been consumed.
func (d *Decoder) Done() bool {
	return d.pos >= len(d.buf)
}

// Pos returns the current read offset.
func (d *Decoder) Pos() int {
	return d.pos
}

// Slice returns buf[start:end] of the underlying buffer without copying.
func (d *Decoder) Slice(start, end int) []byte {
	return d.buf[start:end]
}

// ReadTag reads and validates the next field tag.
func (d *Decoder) ReadTag() (FieldNumber, WireType, error) {
	v, err := d.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	if v>>3 > uint64(MaxValidNumber) {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidFieldNumber, v>>3)
	}
	num, wt := ParseTag(Tag(v))
	if !num.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidFieldNumber, num)
	}
	if !wt.Valid() || wt == WireEndGroup {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidWireType, wt)
	}
	return num, wt, nil
}

// SkipField skips over the value of a field whose tag has already been read.
// Groups are skipped up to their matching end tag.
func (d *Decoder) SkipField(num FieldNumber, wt WireType) error {
	n := protowire.ConsumeFieldValue(protowire.Number(num), protowire.Type(wt), d.buf[d.pos:])
	if n < 0 {
		return skipError(n)
	}
	d.pos += n
	return nil
}

func skipError(n int) error {
	switch err := protowire.ParseError(n); {
	case n == -1:
		return ErrTruncated
	case n == -3:
		return ErrVarintOverflow
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
