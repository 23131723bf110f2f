package codec

import (
	"cmp"
	"strconv"
	"unicode/utf8"

	"github.com/anirudhraja/protorun/jsonfmt"
)

// MapKeyType is a FieldType that may key a map field. JSON object keys are
// always strings, so key types know how to write and parse their quoted form.
// float, double and bytes do not implement it.
type MapKeyType[K comparable] interface {
	FieldType[K]
	SerializeJSONMapKey(e *jsonfmt.Encoder, k K) error
	ParseJSONMapKey(s string) (K, error)
	// CompareKeys orders keys for deterministic output.
	CompareKeys(a, b K) int
}

// MapValueType is a scalar FieldType that may be a map value. Enum and
// message values go through VisitEnumMap and VisitMessageMap instead.
type MapValueType[V any] interface {
	FieldType[V]
	mapValue()
}

func (Float) mapValue()    {}
func (Double) mapValue()   {}
func (Int32) mapValue()    {}
func (Int64) mapValue()    {}
func (UInt32) mapValue()   {}
func (UInt64) mapValue()   {}
func (SInt32) mapValue()   {}
func (SInt64) mapValue()   {}
func (Fixed32) mapValue()  {}
func (Fixed64) mapValue()  {}
func (SFixed32) mapValue() {}
func (SFixed64) mapValue() {}
func (Bool) mapValue()     {}
func (String) mapValue()   {}
func (Bytes) mapValue()    {}

func parseInt32Key(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, jsonError("map key %q: %v", s, err)
	}
	return int32(v), nil
}

func parseInt64Key(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, jsonError("map key %q: %v", s, err)
	}
	return v, nil
}

func parseUint32Key(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, jsonError("map key %q: %v", s, err)
	}
	return uint32(v), nil
}

func parseUint64Key(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, jsonError("map key %q: %v", s, err)
	}
	return v, nil
}

func putIntKey(e *jsonfmt.Encoder, v int64) error {
	e.PutMapKey(strconv.FormatInt(v, 10))
	return nil
}

func putUintKey(e *jsonfmt.Encoder, v uint64) error {
	e.PutMapKey(strconv.FormatUint(v, 10))
	return nil
}

func (Int32) SerializeJSONMapKey(e *jsonfmt.Encoder, k int32) error { return putIntKey(e, int64(k)) }
func (Int32) ParseJSONMapKey(s string) (int32, error)         { return parseInt32Key(s) }
func (Int32) CompareKeys(a, b int32) int                      { return cmp.Compare(a, b) }

func (Int64) SerializeJSONMapKey(e *jsonfmt.Encoder, k int64) error { return putIntKey(e, k) }
func (Int64) ParseJSONMapKey(s string) (int64, error)         { return parseInt64Key(s) }
func (Int64) CompareKeys(a, b int64) int                      { return cmp.Compare(a, b) }

func (UInt32) SerializeJSONMapKey(e *jsonfmt.Encoder, k uint32) error { return putUintKey(e, uint64(k)) }
func (UInt32) ParseJSONMapKey(s string) (uint32, error)         { return parseUint32Key(s) }
func (UInt32) CompareKeys(a, b uint32) int                      { return cmp.Compare(a, b) }

func (UInt64) SerializeJSONMapKey(e *jsonfmt.Encoder, k uint64) error { return putUintKey(e, k) }
func (UInt64) ParseJSONMapKey(s string) (uint64, error)         { return parseUint64Key(s) }
func (UInt64) CompareKeys(a, b uint64) int                      { return cmp.Compare(a, b) }

func (SInt32) SerializeJSONMapKey(e *jsonfmt.Encoder, k int32) error { return putIntKey(e, int64(k)) }
func (SInt32) ParseJSONMapKey(s string) (int32, error)         { return parseInt32Key(s) }
func (SInt32) CompareKeys(a, b int32) int                      { return cmp.Compare(a, b) }

func (SInt64) SerializeJSONMapKey(e *jsonfmt.Encoder, k int64) error { return putIntKey(e, k) }
func (SInt64) ParseJSONMapKey(s string) (int64, error)         { return parseInt64Key(s) }
func (SInt64) CompareKeys(a, b int64) int                      { return cmp.Compare(a, b) }

func (Fixed32) SerializeJSONMapKey(e *jsonfmt.Encoder, k uint32) error { return putUintKey(e, uint64(k)) }
func (Fixed32) ParseJSONMapKey(s string) (uint32, error)         { return parseUint32Key(s) }
func (Fixed32) CompareKeys(a, b uint32) int                      { return cmp.Compare(a, b) }

func (Fixed64) SerializeJSONMapKey(e *jsonfmt.Encoder, k uint64) error { return putUintKey(e, k) }
func (Fixed64) ParseJSONMapKey(s string) (uint64, error)         { return parseUint64Key(s) }
func (Fixed64) CompareKeys(a, b uint64) int                      { return cmp.Compare(a, b) }

func (SFixed32) SerializeJSONMapKey(e *jsonfmt.Encoder, k int32) error { return putIntKey(e, int64(k)) }
func (SFixed32) ParseJSONMapKey(s string) (int32, error)         { return parseInt32Key(s) }
func (SFixed32) CompareKeys(a, b int32) int                      { return cmp.Compare(a, b) }

func (SFixed64) SerializeJSONMapKey(e *jsonfmt.Encoder, k int64) error { return putIntKey(e, k) }
func (SFixed64) ParseJSONMapKey(s string) (int64, error)         { return parseInt64Key(s) }
func (SFixed64) CompareKeys(a, b int64) int                      { return cmp.Compare(a, b) }

func (Bool) SerializeJSONMapKey(e *jsonfmt.Encoder, k bool) error {
	e.PutMapKey(strconv.FormatBool(k))
	return nil
}
func (Bool) ParseJSONMapKey(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, jsonError("map key %q is not a bool", s)
}
func (Bool) CompareKeys(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func (String) SerializeJSONMapKey(e *jsonfmt.Encoder, k string) error {
	if !utf8.ValidString(k) {
		return ErrInvalidUTF8
	}
	e.PutMapKey(k)
	return nil
}
func (String) ParseJSONMapKey(s string) (string, error)         { return s, nil }
func (String) CompareKeys(a, b string) int                      { return cmp.Compare(a, b) }
