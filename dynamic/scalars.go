package dynamic

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/anirudhraja/protorun/codec"
	"github.com/anirudhraja/protorun/schema"
)

// scalarKind erases the type parameters of one codec.FieldType so dynamic
// messages can hold its values as any. Singular values are stored as T and
// repeated values as []T.
type scalarKind struct {
	zero           any
	goType         string
	bind           func(v any) codec.Value
	bindRepeated   func(vs any) codec.Values
	length         func(vs any) int
	decode         func(d codec.Decoder, cur any) (any, error)
	decodeRepeated func(d codec.Decoder, cur any) (any, error)
	isZero         func(v any) bool
	equal          func(a, b any) bool
	equalRepeated  func(a, b any) bool
	clone          func(v any) any
	cloneRepeated  func(vs any) any
	check          func(v any) bool
	checkRepeated  func(vs any) bool
	emptyRepeated  any
	parseDefault   func(s string) (any, error)

	optionalExtension func(f *schema.Field, def any) *extensionInfo
	repeatedExtension func(f *schema.Field, packed bool) *extensionInfo

	// Set only for types that may key a map.
	bindKey     func(k any) codec.MapKey
	parseKey    func(s string) (any, error)
	compareKeys func(a, b any) int
}

func newScalarKind[T any, F codec.FieldType[T]](ft F, parse func(string) (T, error)) *scalarKind {
	var zero T
	cloneOne := func(v T) T {
		if b, ok := any(v).([]byte); ok && b != nil {
			return any(bytes.Clone(b)).(T)
		}
		return v
	}
	return &scalarKind{
		zero:         ft.DefaultValue(),
		goType:       fmt.Sprintf("%T", zero),
		bind:         func(v any) codec.Value { return codec.Bind(ft, v.(T)) },
		bindRepeated: func(vs any) codec.Values { return codec.BindRepeated(ft, vs.([]T)) },
		length:       func(vs any) int { return len(vs.([]T)) },
		decode: func(d codec.Decoder, cur any) (any, error) {
			x := ft.DefaultValue()
			if cur != nil {
				x = cur.(T)
			}
			err := ft.DecodeSingular(d, &x)
			return x, err
		},
		decodeRepeated: func(d codec.Decoder, cur any) (any, error) {
			var xs []T
			if cur != nil {
				xs = cur.([]T)
			}
			err := ft.DecodeRepeated(d, &xs)
			return xs, err
		},
		isZero: func(v any) bool { return isZeroValue(ft, v.(T)) },
		equal: func(a, b any) bool { return ft.Equal(a.(T), b.(T)) },
		equalRepeated: func(a, b any) bool {
			return slices.EqualFunc(a.([]T), b.([]T), ft.Equal)
		},
		clone: func(v any) any { return cloneOne(v.(T)) },
		cloneRepeated: func(vs any) any {
			src := vs.([]T)
			if src == nil {
				return src
			}
			out := make([]T, len(src))
			for i, v := range src {
				out[i] = cloneOne(v)
			}
			return out
		},
		check:         func(v any) bool { _, ok := v.(T); return ok },
		checkRepeated: func(vs any) bool { _, ok := vs.([]T); return ok },
		emptyRepeated: []T(nil),
		parseDefault:  func(s string) (any, error) { return parse(s) },
		optionalExtension: func(f *schema.Field, def any) *extensionInfo {
			return typedExtension(f, codec.OptionalExtension(ft, int(f.Number), f.FullName, f.Extendee, def.(T)))
		},
		repeatedExtension: func(f *schema.Field, packed bool) *extensionInfo {
			if packed {
				return typedExtension(f, codec.PackedExtension(ft, int(f.Number), f.FullName, f.Extendee))
			}
			return typedExtension(f, codec.RepeatedExtension(ft, int(f.Number), f.FullName, f.Extendee))
		},
	}
}

// isZeroValue reports whether v is omitted under implicit presence. Floats
// compare by bit pattern so -0 is kept.
func isZeroValue[T any, F codec.FieldType[T]](ft F, v T) bool {
	switch x := any(v).(type) {
	case float32:
		return math.Float32bits(x) == 0
	case float64:
		return math.Float64bits(x) == 0
	}
	return ft.Equal(v, ft.DefaultValue())
}

func newKeyKind[K comparable, F codec.MapKeyType[K]](ft F, parse func(string) (K, error)) *scalarKind {
	k := newScalarKind[K, F](ft, parse)
	k.bindKey = func(v any) codec.MapKey { return codec.BindKey(ft, v.(K)) }
	k.parseKey = func(s string) (any, error) { return ft.ParseJSONMapKey(s) }
	k.compareKeys = func(a, b any) int { return ft.CompareKeys(a.(K), b.(K)) }
	return k
}

var scalarKinds = map[schema.PrimitiveType]*scalarKind{
	schema.TypeFloat:    newScalarKind[float32](codec.Float{}, parseFloat32),
	schema.TypeDouble:   newScalarKind[float64](codec.Double{}, parseFloat64),
	schema.TypeInt32:    newKeyKind[int32](codec.Int32{}, parseInt32),
	schema.TypeInt64:    newKeyKind[int64](codec.Int64{}, parseInt64),
	schema.TypeUint32:   newKeyKind[uint32](codec.UInt32{}, parseUint32),
	schema.TypeUint64:   newKeyKind[uint64](codec.UInt64{}, parseUint64),
	schema.TypeSint32:   newKeyKind[int32](codec.SInt32{}, parseInt32),
	schema.TypeSint64:   newKeyKind[int64](codec.SInt64{}, parseInt64),
	schema.TypeFixed32:  newKeyKind[uint32](codec.Fixed32{}, parseUint32),
	schema.TypeFixed64:  newKeyKind[uint64](codec.Fixed64{}, parseUint64),
	schema.TypeSfixed32: newKeyKind[int32](codec.SFixed32{}, parseInt32),
	schema.TypeSfixed64: newKeyKind[int64](codec.SFixed64{}, parseInt64),
	schema.TypeBool:     newKeyKind[bool](codec.Bool{}, strconv.ParseBool),
	schema.TypeString:   newKeyKind[string](codec.String{}, func(s string) (string, error) { return s, nil }),
	schema.TypeBytes:    newScalarKind[[]byte](codec.Bytes{}, func(s string) ([]byte, error) { return []byte(s), nil }),
}

// Default value literals as written in [default = ...] options.

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	return int32(v), err
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func parseUint64(s string) (uint64, error) {
	return strconv.ParseUint(s, 0, 64)
}

func parseFloat64(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseFloat32(s string) (float32, error) {
	v, err := parseFloat64(s)
	return float32(v), err
}
