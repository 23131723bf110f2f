package codec

import "slices"

// Extension descriptors for types only known at runtime, such as messages
// built from a parsed schema. Enum values are carried as raw numbers with an
// EnumValueMap; message values are created by a factory.

func OptionalRawEnumExtension(values *EnumValueMap, fieldNumber int, protoName, extendee string, def int32) *Extension[int32] {
	return &Extension[int32]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "optional enum " + values.FullName(),
		def:      def,
		ops: extensionOps[int32]{
			traverse: func(v Visitor, value int32, n int) error {
				return v.VisitSingularEnumField(RawEnum{Values: values, Raw: value}, n)
			},
			decode: func(d Decoder, v *int32) error { return d.DecodeSingularEnumField(values, v) },
			equal:  func(a, b int32) bool { return a == b },
			clone:  cloneSame[int32],
		},
	}
}

// RepeatedRawEnumExtension describes a repeated enum extension; packed
// selects the packed wire form.
func RepeatedRawEnumExtension(values *EnumValueMap, fieldNumber int, protoName, extendee string, packed bool) *Extension[[]int32] {
	visit := VisitRepeatedEnum[RawEnum]
	if packed {
		visit = VisitPackedEnum[RawEnum]
	}
	return &Extension[[]int32]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "repeated enum " + values.FullName(),
		ops: extensionOps[[]int32]{
			traverse: func(v Visitor, value []int32, n int) error {
				return visit(v, RawEnums(values, value), n)
			},
			decode: func(d Decoder, v *[]int32) error { return d.DecodeRepeatedEnumField(values, v) },
			equal:  slices.Equal[[]int32],
			clone:  func(vs []int32) ([]int32, error) { return slices.Clone(vs), nil },
		},
	}
}

// RawEnums boxes enum numbers for visiting.
func RawEnums(values *EnumValueMap, numbers []int32) []RawEnum {
	out := make([]RawEnum, len(numbers))
	for i, n := range numbers {
		out[i] = RawEnum{Values: values, Raw: n}
	}
	return out
}

func OptionalRuntimeMessageExtension(fieldNumber int, protoName, extendee, messageName string, newMessage func() Message) *Extension[Message] {
	return &Extension[Message]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "optional message " + messageName,
		ops: extensionOps[Message]{
			traverse: func(v Visitor, value Message, n int) error {
				if value == nil {
					return nil
				}
				return v.VisitSingularMessageField(value, n)
			},
			decode: func(d Decoder, v *Message) error {
				if *v == nil {
					*v = newMessage()
				}
				return d.DecodeSingularMessageField(*v)
			},
			equal: MessagesEqual,
			clone: func(m Message) (Message, error) { return CloneRuntimeMessage(m, newMessage) },
		},
	}
}

func RepeatedRuntimeMessageExtension(fieldNumber int, protoName, extendee, messageName string, newMessage func() Message) *Extension[[]Message] {
	return &Extension[[]Message]{
		number:   fieldNumber,
		name:     protoName,
		extendee: extendee,
		typeName: "repeated message " + messageName,
		ops: extensionOps[[]Message]{
			traverse: VisitRepeatedMessage[Message],
			decode: func(d Decoder, v *[]Message) error {
				return d.DecodeRepeatedMessageField(func() Message {
					m := newMessage()
					*v = append(*v, m)
					return m
				})
			},
			equal: func(a, b []Message) bool { return slices.EqualFunc(a, b, MessagesEqual) },
			clone: func(ms []Message) ([]Message, error) {
				return cloneSlice(ms, func(m Message) (Message, error) { return CloneRuntimeMessage(m, newMessage) })
			},
		},
	}
}

// CloneRuntimeMessage deep-copies m, using Cloner when m implements it and a
// binary round trip into newMessage() otherwise.
func CloneRuntimeMessage(m Message, newMessage func() Message) (Message, error) {
	if m == nil {
		return nil, nil
	}
	if c, ok := m.(Cloner); ok {
		return c.CloneMessage()
	}
	out := newMessage()
	if err := copyByEncoding(m, out); err != nil {
		return nil, err
	}
	return out, nil
}
