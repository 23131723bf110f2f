package codec

// Visitor receives a message's fields from Message.Traverse. Each concrete
// visitor renders one format; the message declares its fields once and the
// same traversal is replayed against every visitor.
//
// Go methods cannot take type parameters, so scalar values arrive already
// bound to their FieldType (see Bind). Generated code normally goes through
// the generic Visit* helpers below.
type Visitor interface {
	VisitSingularField(v Value, fieldNumber int) error
	VisitRepeatedField(vs Values, fieldNumber int) error
	VisitPackedField(vs Values, fieldNumber int) error

	VisitSingularEnumField(e Enum, fieldNumber int) error
	VisitRepeatedEnumField(es Enums, fieldNumber int) error
	VisitPackedEnumField(es Enums, fieldNumber int) error

	VisitSingularMessageField(m Message, fieldNumber int) error
	VisitRepeatedMessageField(ms Messages, fieldNumber int) error

	VisitMapField(m ScalarMap, fieldNumber int) error
	VisitEnumMapField(m EnumMap, fieldNumber int) error
	VisitMessageMapField(m MessageMap, fieldNumber int) error

	// VisitExtensionFields replays the extensions numbered in [start, end).
	VisitExtensionFields(set *ExtensionFieldValueSet, start, end int) error
	// VisitUnknown receives opaque unknown field bytes.
	VisitUnknown(b []byte) error
}

func VisitSingular[T any, F FieldType[T]](v Visitor, ft F, value T, fieldNumber int) error {
	return v.VisitSingularField(Bind(ft, value), fieldNumber)
}

// VisitRepeated and the other plural helpers skip empty fields.
func VisitRepeated[T any, F FieldType[T]](v Visitor, ft F, values []T, fieldNumber int) error {
	if len(values) == 0 {
		return nil
	}
	return v.VisitRepeatedField(BindRepeated(ft, values), fieldNumber)
}

func VisitPacked[T any, F FieldType[T]](v Visitor, ft F, values []T, fieldNumber int) error {
	if len(values) == 0 {
		return nil
	}
	return v.VisitPackedField(BindRepeated(ft, values), fieldNumber)
}

func VisitRepeatedEnum[E Enum](v Visitor, values []E, fieldNumber int) error {
	if len(values) == 0 {
		return nil
	}
	return v.VisitRepeatedEnumField(enumSlice[E](values), fieldNumber)
}

func VisitPackedEnum[E Enum](v Visitor, values []E, fieldNumber int) error {
	if len(values) == 0 {
		return nil
	}
	return v.VisitPackedEnumField(enumSlice[E](values), fieldNumber)
}

func VisitRepeatedMessage[M Message](v Visitor, values []M, fieldNumber int) error {
	if len(values) == 0 {
		return nil
	}
	return v.VisitRepeatedMessageField(messageSlice[M](values), fieldNumber)
}

func VisitMap[K comparable, V any, KT MapKeyType[K], VT MapValueType[V]](v Visitor, kt KT, vt VT, m map[K]V, fieldNumber int) error {
	if len(m) == 0 {
		return nil
	}
	return v.VisitMapField(NewScalarMap(kt, vt, m), fieldNumber)
}

func VisitEnumMap[K comparable, E Enum, KT MapKeyType[K]](v Visitor, kt KT, m map[K]E, fieldNumber int) error {
	if len(m) == 0 {
		return nil
	}
	return v.VisitEnumMapField(NewEnumMap(kt, m), fieldNumber)
}

func VisitMessageMap[K comparable, M Message, KT MapKeyType[K]](v Visitor, kt KT, m map[K]M, fieldNumber int) error {
	if len(m) == 0 {
		return nil
	}
	return v.VisitMessageMapField(NewMessageMap(kt, m), fieldNumber)
}
