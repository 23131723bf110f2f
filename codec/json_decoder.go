package codec

import (
	"encoding/base64"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/anirudhraja/protorun/wire"
)

type jsonMember struct {
	key   string
	value gjson.Result
}

// jsonDecoder implements Decoder over a parsed JSON document. An object
// decoder walks the members of one message; a value decoder (no members)
// exposes a single value, which is how map values are decoded.
type jsonDecoder struct {
	opts     options
	depth    int
	extendee string
	names    *NameMap
	members  []jsonMember
	idx      int
	cur      gjson.Result
	curName  string
}

func newJSONObjectDecoder(obj gjson.Result, m Message, opts options, depth int) (*jsonDecoder, error) {
	if !obj.IsObject() {
		return nil, jsonError("expected object for %s, got %s", m.ProtoMessageName(), obj.Type)
	}
	d := &jsonDecoder{
		opts:     opts,
		depth:    depth,
		extendee: m.ProtoMessageName(),
		names:    m.FieldNames(),
	}
	obj.ForEach(func(key, value gjson.Result) bool {
		d.members = append(d.members, jsonMember{key: key.String(), value: value})
		return true
	})
	return d, nil
}

func newJSONValueDecoder(v gjson.Result, name string, opts options, depth int) *jsonDecoder {
	return &jsonDecoder{opts: opts, depth: depth, cur: v, curName: name}
}

func (d *jsonDecoder) decodeMessage(m Message) error {
	if d.depth > d.opts.cfg.recursionLimit() {
		return ErrRecursionLimit
	}
	return m.DecodeMessage(d)
}

func (d *jsonDecoder) NextFieldNumber() (int, bool, error) {
	for d.idx < len(d.members) {
		member := d.members[d.idx]
		d.idx++
		if n, ok := d.resolve(member.key); ok {
			d.cur, d.curName = member.value, member.key
			return n, true, nil
		}
		if !d.opts.cfg.IgnoreUnknownFields {
			return 0, false, jsonError("unknown field %q in %s", member.key, d.extendee)
		}
		log().Debug().Str("message", d.extendee).Str("member", member.key).Msg("ignoring unknown JSON member")
	}
	return 0, false, nil
}

func (d *jsonDecoder) resolve(key string) (int, bool) {
	if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") {
		ext := d.opts.extensions.ByName(d.extendee, key[1:len(key)-1])
		if ext == nil {
			return 0, false
		}
		return ext.FieldNumber(), true
	}
	return d.names.Number(key)
}

func (d *jsonDecoder) wrap(err error) error {
	if d.curName == "" {
		return err
	}
	return wire.WrapField(err, d.curName)
}

func jsonSingular[T any](d *jsonDecoder, parse func(gjson.Result) (T, error), v *T) error {
	if d.cur.Type == gjson.Null {
		var zero T
		*v = zero
		return nil
	}
	x, err := parse(d.cur)
	if err != nil {
		return d.wrap(err)
	}
	*v = x
	return nil
}

func jsonRepeated[T any](d *jsonDecoder, parse func(gjson.Result) (T, error), v *[]T) error {
	if d.cur.Type == gjson.Null {
		return nil
	}
	if !d.cur.IsArray() {
		return d.wrap(jsonError("expected array, got %s", d.cur.Type))
	}
	for _, el := range d.cur.Array() {
		x, err := parse(el)
		if err != nil {
			return d.wrap(err)
		}
		*v = append(*v, x)
	}
	return nil
}

// Numeric parsing accepts bare or quoted numbers, including integral
// exponent forms such as 1e3 for integer fields.

func numberText(r gjson.Result) (string, error) {
	switch r.Type {
	case gjson.Number:
		return r.Raw, nil
	case gjson.String:
		return r.Str, nil
	default:
		return "", jsonError("expected number, got %s", r.Type)
	}
}

func parseIntBits(r gjson.Result, bits int) (int64, error) {
	s, err := numberText(r)
	if err != nil {
		return 0, err
	}
	if iv, err := strconv.ParseInt(s, 10, bits); err == nil {
		return iv, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, jsonError("invalid integer %q", s)
	}
	lim := math.Ldexp(1, bits-1)
	if f < -lim || f >= lim {
		return 0, jsonError("integer %q out of range", s)
	}
	return int64(f), nil
}

func parseUintBits(r gjson.Result, bits int) (uint64, error) {
	s, err := numberText(r)
	if err != nil {
		return 0, err
	}
	if uv, err := strconv.ParseUint(s, 10, bits); err == nil {
		return uv, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return 0, jsonError("invalid unsigned integer %q", s)
	}
	if f >= math.Ldexp(1, bits) {
		return 0, jsonError("unsigned integer %q out of range", s)
	}
	return uint64(f), nil
}

func parseFloatBits(r gjson.Result, bits int) (float64, error) {
	if r.Type == gjson.String {
		switch r.Str {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
	}
	s, err := numberText(r)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, jsonError("invalid number %q", s)
	}
	return f, nil
}

func parseInt32(r gjson.Result) (int32, error) {
	v, err := parseIntBits(r, 32)
	return int32(v), err
}

func parseInt64(r gjson.Result) (int64, error) {
	return parseIntBits(r, 64)
}

func parseUint32(r gjson.Result) (uint32, error) {
	v, err := parseUintBits(r, 32)
	return uint32(v), err
}

func parseUint64(r gjson.Result) (uint64, error) {
	return parseUintBits(r, 64)
}

func parseFloat32(r gjson.Result) (float32, error) {
	v, err := parseFloatBits(r, 32)
	return float32(v), err
}

func parseFloat64(r gjson.Result) (float64, error) {
	return parseFloatBits(r, 64)
}

func parseBool(r gjson.Result) (bool, error) {
	switch r.Type {
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	}
	return false, jsonError("expected bool, got %s", r.Type)
}

func parseString(r gjson.Result) (string, error) {
	if r.Type != gjson.String {
		return "", jsonError("expected string, got %s", r.Type)
	}
	if !utf8.ValidString(r.Str) {
		return "", wire.ErrInvalidUTF8
	}
	return r.Str, nil
}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// parseBytes accepts standard and URL-safe base64, padded or not.
func parseBytes(r gjson.Result) ([]byte, error) {
	if r.Type != gjson.String {
		return nil, jsonError("expected base64 string, got %s", r.Type)
	}
	for _, enc := range base64Encodings {
		if b, err := enc.DecodeString(r.Str); err == nil {
			return b, nil
		}
	}
	return nil, jsonError("invalid base64 %q", r.Str)
}

func (d *jsonDecoder) DecodeSingularFloatField(v *float32) error {
	return jsonSingular(d, parseFloat32, v)
}

func (d *jsonDecoder) DecodeRepeatedFloatField(v *[]float32) error {
	return jsonRepeated(d, parseFloat32, v)
}

func (d *jsonDecoder) DecodeSingularDoubleField(v *float64) error {
	return jsonSingular(d, parseFloat64, v)
}

func (d *jsonDecoder) DecodeRepeatedDoubleField(v *[]float64) error {
	return jsonRepeated(d, parseFloat64, v)
}

func (d *jsonDecoder) DecodeSingularInt32Field(v *int32) error {
	return jsonSingular(d, parseInt32, v)
}

func (d *jsonDecoder) DecodeRepeatedInt32Field(v *[]int32) error {
	return jsonRepeated(d, parseInt32, v)
}

func (d *jsonDecoder) DecodeSingularInt64Field(v *int64) error {
	return jsonSingular(d, parseInt64, v)
}

func (d *jsonDecoder) DecodeRepeatedInt64Field(v *[]int64) error {
	return jsonRepeated(d, parseInt64, v)
}

func (d *jsonDecoder) DecodeSingularUInt32Field(v *uint32) error {
	return jsonSingular(d, parseUint32, v)
}

func (d *jsonDecoder) DecodeRepeatedUInt32Field(v *[]uint32) error {
	return jsonRepeated(d, parseUint32, v)
}

func (d *jsonDecoder) DecodeSingularUInt64Field(v *uint64) error {
	return jsonSingular(d, parseUint64, v)
}

func (d *jsonDecoder) DecodeRepeatedUInt64Field(v *[]uint64) error {
	return jsonRepeated(d, parseUint64, v)
}

func (d *jsonDecoder) DecodeSingularSInt32Field(v *int32) error {
	return jsonSingular(d, parseInt32, v)
}

func (d *jsonDecoder) DecodeRepeatedSInt32Field(v *[]int32) error {
	return jsonRepeated(d, parseInt32, v)
}

func (d *jsonDecoder) DecodeSingularSInt64Field(v *int64) error {
	return jsonSingular(d, parseInt64, v)
}

func (d *jsonDecoder) DecodeRepeatedSInt64Field(v *[]int64) error {
	return jsonRepeated(d, parseInt64, v)
}

func (d *jsonDecoder) DecodeSingularFixed32Field(v *uint32) error {
	return jsonSingular(d, parseUint32, v)
}

func (d *jsonDecoder) DecodeRepeatedFixed32Field(v *[]uint32) error {
	return jsonRepeated(d, parseUint32, v)
}

func (d *jsonDecoder) DecodeSingularFixed64Field(v *uint64) error {
	return jsonSingular(d, parseUint64, v)
}

func (d *jsonDecoder) DecodeRepeatedFixed64Field(v *[]uint64) error {
	return jsonRepeated(d, parseUint64, v)
}

func (d *jsonDecoder) DecodeSingularSFixed32Field(v *int32) error {
	return jsonSingular(d, parseInt32, v)
}

func (d *jsonDecoder) DecodeRepeatedSFixed32Field(v *[]int32) error {
	return jsonRepeated(d, parseInt32, v)
}

func (d *jsonDecoder) DecodeSingularSFixed64Field(v *int64) error {
	return jsonSingular(d, parseInt64, v)
}

func (d *jsonDecoder) DecodeRepeatedSFixed64Field(v *[]int64) error {
	return jsonRepeated(d, parseInt64, v)
}

func (d *jsonDecoder) DecodeSingularBoolField(v *bool) error {
	return jsonSingular(d, parseBool, v)
}

func (d *jsonDecoder) DecodeRepeatedBoolField(v *[]bool) error {
	return jsonRepeated(d, parseBool, v)
}

func (d *jsonDecoder) DecodeSingularStringField(v *string) error {
	return jsonSingular(d, parseString, v)
}

func (d *jsonDecoder) DecodeRepeatedStringField(v *[]string) error {
	return jsonRepeated(d, parseString, v)
}

func (d *jsonDecoder) DecodeSingularBytesField(v *[]byte) error {
	return jsonSingular(d, parseBytes, v)
}

func (d *jsonDecoder) DecodeRepeatedBytesField(v *[][]byte) error {
	return jsonRepeated(d, parseBytes, v)
}

// parseEnum accepts a symbolic name or a number. ok is false for an unknown
// name that is being ignored.
func (d *jsonDecoder) parseEnum(values *EnumValueMap, r gjson.Result) (v int32, ok bool, err error) {
	if r.Type == gjson.String {
		if n, found := values.Value(r.Str); found {
			return n, true, nil
		}
		if _, numErr := strconv.ParseInt(r.Str, 10, 32); numErr != nil {
			if d.opts.cfg.IgnoreUnknownFields {
				return 0, false, nil
			}
			return 0, false, jsonError("unknown value %q for enum %s", r.Str, values.FullName())
		}
	}
	n, err := parseInt32(r)
	return n, err == nil, err
}

func (d *jsonDecoder) DecodeSingularEnumField(values *EnumValueMap, v *int32) error {
	if d.cur.Type == gjson.Null {
		*v = 0
		return nil
	}
	n, ok, err := d.parseEnum(values, d.cur)
	if err != nil {
		return d.wrap(err)
	}
	if ok {
		*v = n
	}
	return nil
}

func (d *jsonDecoder) DecodeRepeatedEnumField(values *EnumValueMap, v *[]int32) error {
	if d.cur.Type == gjson.Null {
		return nil
	}
	if !d.cur.IsArray() {
		return d.wrap(jsonError("expected array, got %s", d.cur.Type))
	}
	for _, el := range d.cur.Array() {
		n, ok, err := d.parseEnum(values, el)
		if err != nil {
			return d.wrap(err)
		}
		if ok {
			*v = append(*v, n)
		}
	}
	return nil
}

func (d *jsonDecoder) decodeObject(obj gjson.Result, m Message) error {
	child, err := newJSONObjectDecoder(obj, m, d.opts, d.depth+1)
	if err != nil {
		return d.wrap(err)
	}
	if err := child.decodeMessage(m); err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *jsonDecoder) DecodeSingularMessageField(m Message) error {
	if d.cur.Type == gjson.Null {
		return nil
	}
	return d.decodeObject(d.cur, m)
}

func (d *jsonDecoder) DecodeRepeatedMessageField(appendNew func() Message) error {
	if d.cur.Type == gjson.Null {
		return nil
	}
	if !d.cur.IsArray() {
		return d.wrap(jsonError("expected array, got %s", d.cur.Type))
	}
	for _, el := range d.cur.Array() {
		if err := d.decodeObject(el, appendNew()); err != nil {
			return err
		}
	}
	return nil
}

func (d *jsonDecoder) DecodeMapField(entry MapEntrySink) error {
	if d.cur.Type == gjson.Null {
		return nil
	}
	if !d.cur.IsObject() {
		return d.wrap(jsonError("expected object for map, got %s", d.cur.Type))
	}
	var err error
	d.cur.ForEach(func(key, value gjson.Result) bool {
		if err = entry.ParseJSONKey(key.String()); err != nil {
			return false
		}
		sub := newJSONValueDecoder(value, key.String(), d.opts, d.depth)
		if err = entry.DecodeEntryField(sub, 2); err != nil {
			return false
		}
		entry.Store()
		return true
	})
	if err != nil {
		return d.wrap(err)
	}
	return nil
}

func (d *jsonDecoder) DecodeExtensionField(values *ExtensionFieldValueSet, extendee string, fieldNumber int) error {
	ext := d.opts.extensions.ByNumber(extendee, fieldNumber)
	if ext == nil {
		return nil
	}
	value, ok := values.Get(fieldNumber)
	if !ok || value.Field().TypeName() != ext.TypeName() {
		value = ext.newValue()
	}
	if err := value.Decode(d); err != nil {
		return err
	}
	values.Set(value)
	return nil
}
