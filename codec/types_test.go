package codec

import "errors"

// Hand-written equivalents of generated message types.

type Color int32

const (
	ColorUnspecified Color = 0
	ColorRed         Color = 1
	ColorBlue        Color = 2
)

var colorValues = NewEnumValueMap("test.Color",
	EnumValue{Number: 0, Name: "COLOR_UNSPECIFIED"},
	EnumValue{Number: 1, Name: "RED"},
	EnumValue{Number: 2, Name: "BLUE"},
)

func (c Color) Number() int32 { return int32(c) }
func (c Color) EnumValues() *EnumValueMap { return colorValues }

type Inner struct {
	unknown UnknownStorage
	Name    string
	Count   int32
}

var innerNames = NewNameMap(
	NameEntry{Number: 1, Proto: "name"},
	NameEntry{Number: 2, Proto: "count"},
)

func (m *Inner) ProtoMessageName() string { return "test.Inner" }
func (m *Inner) FieldNames() *NameMap { return innerNames }
func (m *Inner) UnknownFields() *UnknownStorage { return &m.unknown }

func (m *Inner) Traverse(v Visitor) error {
	if m.Name != "" {
		if err := VisitSingular(v, String{}, m.Name, 1); err != nil {
			return err
		}
	}
	if m.Count != 0 {
		if err := VisitSingular(v, Int32{}, m.Count, 2); err != nil {
			return err
		}
	}
	return m.unknown.Traverse(v)
}

func (m *Inner) DecodeMessage(d Decoder) error {
	for {
		n, ok, err := d.NextFieldNumber()
		if err != nil || !ok {
			return err
		}
		switch n {
		case 1:
			err = String{}.DecodeSingular(d, &m.Name)
		case 2:
			err = Int32{}.DecodeSingular(d, &m.Count)
		}
		if err != nil {
			return err
		}
	}
}

type AllTypes struct {
	unknown    UnknownStorage
	extensions ExtensionFieldValueSet

	F          float32
	D          float64
	I32        int32
	I64        int64
	U32        uint32
	U64        uint64
	S32        int32
	S64        int64
	Fx32       uint32
	Fx64       uint64
	Sf32       int32
	Sf64       int64
	B          bool
	Str        string
	Byt        []byte
	Color      Color
	Child      *Inner
	RepInt     []int32
	PackedSint []int32
	RepStr     []string
	Colors     []Color
	Children   []*Inner
	StrMap     map[int32]string
	EnumMap    map[string]Color
	MsgMap     map[string]*Inner
	Self       *AllTypes
}

var allTypesNames = NewNameMap(
	NameEntry{Number: 1, Proto: "f"},
	NameEntry{Number: 2, Proto: "d"},
	NameEntry{Number: 3, Proto: "i32"},
	NameEntry{Number: 4, Proto: "i64"},
	NameEntry{Number: 5, Proto: "u32"},
	NameEntry{Number: 6, Proto: "u64"},
	NameEntry{Number: 7, Proto: "s32"},
	NameEntry{Number: 8, Proto: "s64"},
	NameEntry{Number: 9, Proto: "fx32"},
	NameEntry{Number: 10, Proto: "fx64"},
	NameEntry{Number: 11, Proto: "sf32"},
	NameEntry{Number: 12, Proto: "sf64"},
	NameEntry{Number: 13, Proto: "b"},
	NameEntry{Number: 14, Proto: "str"},
	NameEntry{Number: 15, Proto: "byt"},
	NameEntry{Number: 16, Proto: "color"},
	NameEntry{Number: 17, Proto: "child"},
	NameEntry{Number: 18, Proto: "rep_int"},
	NameEntry{Number: 19, Proto: "packed_sint"},
	NameEntry{Number: 20, Proto: "rep_str"},
	NameEntry{Number: 21, Proto: "colors"},
	NameEntry{Number: 22, Proto: "children"},
	NameEntry{Number: 23, Proto: "str_map"},
	NameEntry{Number: 24, Proto: "enum_map"},
	NameEntry{Number: 25, Proto: "msg_map"},
	NameEntry{Number: 26, Proto: "self"},
)

func (m *AllTypes) ProtoMessageName() string { return "test.AllTypes" }
func (m *AllTypes) FieldNames() *NameMap { return allTypesNames }
func (m *AllTypes) UnknownFields() *UnknownStorage { return &m.unknown }
func (m *AllTypes) ExtensionRanges() []ExtensionRange { return []ExtensionRange{{Start: 100, End: 200}} }
func (m *AllTypes) ExtensionFields() *ExtensionFieldValueSet { return &m.extensions }

func (m *AllTypes) Traverse(v Visitor) error {
	var err error
	visit := func(present bool, f func() error) {
		if err == nil && present {
			err = f()
		}
	}
	visit(m.F != 0, func() error { return VisitSingular(v, Float{}, m.F, 1) })
	visit(m.D != 0, func() error { return VisitSingular(v, Double{}, m.D, 2) })
	visit(m.I32 != 0, func() error { return VisitSingular(v, Int32{}, m.I32, 3) })
	visit(m.I64 != 0, func() error { return VisitSingular(v, Int64{}, m.I64, 4) })
	visit(m.U32 != 0, func() error { return VisitSingular(v, UInt32{}, m.U32, 5) })
	visit(m.U64 != 0, func() error { return VisitSingular(v, UInt64{}, m.U64, 6) })
	visit(m.S32 != 0, func() error { return VisitSingular(v, SInt32{}, m.S32, 7) })
	visit(m.S64 != 0, func() error { return VisitSingular(v, SInt64{}, m.S64, 8) })
	visit(m.Fx32 != 0, func() error { return VisitSingular(v, Fixed32{}, m.Fx32, 9) })
	visit(m.Fx64 != 0, func() error { return VisitSingular(v, Fixed64{}, m.Fx64, 10) })
	visit(m.Sf32 != 0, func() error { return VisitSingular(v, SFixed32{}, m.Sf32, 11) })
	visit(m.Sf64 != 0, func() error { return VisitSingular(v, SFixed64{}, m.Sf64, 12) })
	visit(m.B, func() error { return VisitSingular(v, Bool{}, m.B, 13) })
	visit(m.Str != "", func() error { return VisitSingular(v, String{}, m.Str, 14) })
	visit(len(m.Byt) > 0, func() error { return VisitSingular(v, Bytes{}, m.Byt, 15) })
	visit(m.Color != 0, func() error { return v.VisitSingularEnumField(m.Color, 16) })
	visit(m.Child != nil, func() error { return v.VisitSingularMessageField(m.Child, 17) })
	visit(true, func() error { return VisitRepeated(v, Int32{}, m.RepInt, 18) })
	visit(true, func() error { return VisitPacked(v, SInt32{}, m.PackedSint, 19) })
	visit(true, func() error { return VisitRepeated(v, String{}, m.RepStr, 20) })
	visit(true, func() error { return VisitPackedEnum(v, m.Colors, 21) })
	visit(true, func() error { return VisitRepeatedMessage(v, m.Children, 22) })
	visit(true, func() error { return VisitMap(v, Int32{}, String{}, m.StrMap, 23) })
	visit(true, func() error { return VisitEnumMap(v, String{}, m.EnumMap, 24) })
	visit(true, func() error { return VisitMessageMap(v, String{}, m.MsgMap, 25) })
	visit(m.Self != nil, func() error { return v.VisitSingularMessageField(m.Self, 26) })
	visit(true, func() error { return v.VisitExtensionFields(&m.extensions, 100, 200) })
	visit(true, func() error { return m.unknown.Traverse(v) })
	return err
}

func (m *AllTypes) DecodeMessage(d Decoder) error {
	for {
		n, ok, err := d.NextFieldNumber()
		if err != nil || !ok {
			return err
		}
		switch n {
		case 1:
			err = Float{}.DecodeSingular(d, &m.F)
		case 2:
			err = Double{}.DecodeSingular(d, &m.D)
		case 3:
			err = Int32{}.DecodeSingular(d, &m.I32)
		case 4:
			err = Int64{}.DecodeSingular(d, &m.I64)
		case 5:
			err = UInt32{}.DecodeSingular(d, &m.U32)
		case 6:
			err = UInt64{}.DecodeSingular(d, &m.U64)
		case 7:
			err = SInt32{}.DecodeSingular(d, &m.S32)
		case 8:
			err = SInt64{}.DecodeSingular(d, &m.S64)
		case 9:
			err = Fixed32{}.DecodeSingular(d, &m.Fx32)
		case 10:
			err = Fixed64{}.DecodeSingular(d, &m.Fx64)
		case 11:
			err = SFixed32{}.DecodeSingular(d, &m.Sf32)
		case 12:
			err = SFixed64{}.DecodeSingular(d, &m.Sf64)
		case 13:
			err = Bool{}.DecodeSingular(d, &m.B)
		case 14:
			err = String{}.DecodeSingular(d, &m.Str)
		case 15:
			err = Bytes{}.DecodeSingular(d, &m.Byt)
		case 16:
			err = DecodeSingularEnum(d, &m.Color)
		case 17:
			err = DecodeSingularMessage(d, &m.Child)
		case 18:
			err = Int32{}.DecodeRepeated(d, &m.RepInt)
		case 19:
			err = SInt32{}.DecodeRepeated(d, &m.PackedSint)
		case 20:
			err = String{}.DecodeRepeated(d, &m.RepStr)
		case 21:
			err = DecodeRepeatedEnum(d, &m.Colors)
		case 22:
			err = DecodeRepeatedMessage(d, &m.Children)
		case 23:
			err = DecodeMap(d, Int32{}, String{}, &m.StrMap)
		case 24:
			err = DecodeEnumMap(d, String{}, &m.EnumMap)
		case 25:
			err = DecodeMessageMap(d, String{}, &m.MsgMap)
		case 26:
			err = DecodeSingularMessage(d, &m.Self)
		default:
			if n >= 100 && n < 200 {
				err = d.DecodeExtensionField(&m.extensions, m.ProtoMessageName(), n)
			}
		}
		if err != nil {
			return err
		}
	}
}

var (
	extSInt   = OptionalExtension(SInt32{}, 100, "test.ext_sint", "test.AllTypes", int32(0))
	extAlias  = OptionalExtension(SFixed32{}, 100, "test.ext_alias", "test.AllTypes", int32(0))
	extNames  = RepeatedExtension(String{}, 102, "test.ext_names", "test.AllTypes")
	extColor  = OptionalEnumExtension(103, "test.ext_color", "test.AllTypes", ColorRed)
	extInner  = OptionalMessageExtension[Inner](104, "test.ext_inner", "test.AllTypes")
	extPacked = PackedExtension(Fixed32{}, 105, "test.ext_packed", "test.AllTypes")
	extFar    = OptionalExtension(Int32{}, 300, "test.ext_far", "test.AllTypes", int32(0))

	testExtensions = NewExtensionMap(extSInt, extNames, extColor, extInner, extPacked)
)

// Failing fails every traversal; it is used to drive error paths.
type Failing struct {
	unknown UnknownStorage
}

var errFailing = errors.New("failing traversal")

func (m *Failing) ProtoMessageName() string { return "test.Failing" }
func (m *Failing) FieldNames() *NameMap { return NewNameMap() }
func (m *Failing) UnknownFields() *UnknownStorage { return &m.unknown }
func (m *Failing) Traverse(Visitor) error { return errFailing }
func (m *Failing) DecodeMessage(Decoder) error { return nil }

var extFailing = OptionalMessageExtension[Failing](150, "test.ext_failing", "test.AllTypes")

// Chain nests itself through field 1 and counts its traversals.
type Chain struct {
	Next    *Chain
	visits  *int
	unknown UnknownStorage
}

var chainNames = NewNameMap(NameEntry{Number: 1, Proto: "next"})

func (m *Chain) ProtoMessageName() string { return "test.Chain" }
func (m *Chain) FieldNames() *NameMap { return chainNames }
func (m *Chain) UnknownFields() *UnknownStorage { return &m.unknown }
func (m *Chain) Traverse(v Visitor) error {
	*m.visits++
	if m.Next == nil {
		return nil
	}
	return v.VisitSingularMessageField(m.Next, 1)
}
func (m *Chain) DecodeMessage(Decoder) error { return nil }

// Unnamed visits a field missing from its name table.
type Unnamed struct {
	unknown UnknownStorage
}

func (m *Unnamed) ProtoMessageName() string { return "test.Unnamed" }
func (m *Unnamed) FieldNames() *NameMap { return NewNameMap(NameEntry{Number: 1, Proto: "known"}) }
func (m *Unnamed) UnknownFields() *UnknownStorage { return &m.unknown }
func (m *Unnamed) Traverse(v Visitor) error {
	if err := VisitSingular(v, Int32{}, int32(1), 1); err != nil {
		return err
	}
	return VisitSingular(v, Int32{}, int32(2), 99)
}
func (m *Unnamed) DecodeMessage(Decoder) error { return nil }
