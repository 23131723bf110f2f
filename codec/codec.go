// Package codec is the format-agnostic core of the runtime: the scalar field
// type catalogue, the Visitor protocol that messages implement once, the
// binary, text and JSON visitors, the matching decoders and extension storage.
package codec

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/anirudhraja/protorun/jsonfmt"
	"github.com/anirudhraja/protorun/textfmt"
	"github.com/anirudhraja/protorun/wire"
)

type options struct {
	cfg        Config
	extensions *ExtensionMap
}

// Option configures a single Marshal/Unmarshal call.
type Option func(*options)

// WithExtensions lets decoders recognize the extensions in m. Without it,
// extension fields decode as unknown fields.
func WithExtensions(m *ExtensionMap) Option {
	return func(o *options) { o.extensions = m }
}

// WithConfig overrides the package configuration for one call.
func WithConfig(c Config) Option {
	return func(o *options) { o.cfg = c }
}

func buildOptions(opts []Option) options {
	o := options{cfg: CurrentConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Size returns the binary encoded size of m.
func Size(m Message) (int, error) {
	return messageSize(m, sizeCache{})
}

// Marshal returns the protobuf binary encoding of m. On error the partial
// output is discarded.
func Marshal(m Message, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	sizes := sizeCache{}
	size, err := messageSize(m, sizes)
	if err != nil {
		return nil, err
	}
	e := wire.NewEncoderSize(size)
	if err := m.Traverse(newBinaryEncodingVisitor(e, o.cfg, sizes)); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Unmarshal merges the binary encoding in data into m.
func Unmarshal(data []byte, m Message, opts ...Option) error {
	o := buildOptions(opts)
	return newBinaryDecoder(data, m, o, 0).decodeMessage(m)
}

// TextString renders m in protobuf text format.
func TextString(m Message, opts ...Option) (string, error) {
	o := buildOptions(opts)
	v := newTextFormatEncodingVisitor(m, textfmt.NewEncoder(), o.cfg)
	if err := m.Traverse(v); err != nil {
		return "", err
	}
	return v.Result(), nil
}

// MarshalJSON renders m as a proto3 JSON object.
func MarshalJSON(m Message, opts ...Option) ([]byte, error) {
	o := buildOptions(opts)
	e := jsonfmt.NewEncoder()
	e.StartObject()
	if err := m.Traverse(newJSONEncodingVisitor(m, e, o.cfg)); err != nil {
		return nil, err
	}
	e.EndObject()
	return e.Bytes()
}

// UnmarshalJSON merges the proto3 JSON object in data into m.
func UnmarshalJSON(data []byte, m Message, opts ...Option) error {
	o := buildOptions(opts)
	if !gjson.ValidBytes(data) {
		return ErrInvalidJSON
	}
	d, err := newJSONObjectDecoder(gjson.ParseBytes(data), m, o, 0)
	if err != nil {
		return err
	}
	return d.decodeMessage(m)
}

// Equaler is implemented by messages with their own equality.
type Equaler interface {
	EqualMessage(other Message) bool
}

// Cloner is implemented by messages that can deep-copy themselves.
type Cloner interface {
	CloneMessage() (Message, error)
}

// MessagesEqual compares two messages, using Equaler when available and
// deterministic binary encodings otherwise.
func MessagesEqual(a, b Message) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.ProtoMessageName() != b.ProtoMessageName() {
		return false
	}
	if eq, ok := a.(Equaler); ok {
		return eq.EqualMessage(b)
	}
	cfg := Config{Deterministic: true}
	ab, errA := Marshal(a, WithConfig(cfg))
	bb, errB := Marshal(b, WithConfig(cfg))
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

func cloneMessage[T any, PT interface {
	*T
	Message
}](v PT) (PT, error) {
	if v == nil {
		return nil, nil
	}
	if c, ok := any(v).(Cloner); ok {
		out, err := c.CloneMessage()
		if err != nil {
			return nil, err
		}
		if pt, ok := out.(PT); ok {
			return pt, nil
		}
	}
	out := PT(new(T))
	if err := copyByEncoding(v, out); err != nil {
		return nil, err
	}
	return out, nil
}

// copyByEncoding fills dst with a binary round trip of src. Extensions set
// on src are recognized on the way back in.
func copyByEncoding(src, dst Message) error {
	var exts *ExtensionMap
	if xm, ok := src.(ExtensibleMessage); ok {
		exts = NewExtensionMap(xm.ExtensionFields().Fields()...)
	}
	data, err := Marshal(src)
	if err == nil {
		err = Unmarshal(data, dst, WithExtensions(exts))
	}
	if err != nil {
		return fmt.Errorf("cloning %s: %w", src.ProtoMessageName(), err)
	}
	return nil
}
