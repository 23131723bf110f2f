package codec

// NameEntry is one row of a message's name table.
type NameEntry struct {
	Number int
	Proto  string
	// JSON defaults to the protoc camel-case form of Proto.
	JSON string
}

// NameMap resolves field numbers to names and back for one message type.
// It is built once per type and never mutated afterwards.
type NameMap struct {
	byNumber map[int]NameEntry
	byName   map[string]int
}

func NewNameMap(entries ...NameEntry) *NameMap {
	m := &NameMap{
		byNumber: make(map[int]NameEntry, len(entries)),
		byName:   make(map[string]int, 2*len(entries)),
	}
	for _, e := range entries {
		if e.JSON == "" {
			e.JSON = jsonCamelCase(e.Proto)
		}
		m.byNumber[e.Number] = e
		m.byName[e.Proto] = e.Number
		m.byName[e.JSON] = e.Number
	}
	return m
}

func (m *NameMap) ProtoName(number int) (string, bool) {
	if m == nil {
		return "", false
	}
	e, ok := m.byNumber[number]
	return e.Proto, ok
}

func (m *NameMap) JSONName(number int) (string, bool) {
	if m == nil {
		return "", false
	}
	e, ok := m.byNumber[number]
	return e.JSON, ok
}

// Number accepts either the proto or the JSON name.
func (m *NameMap) Number(name string) (int, bool) {
	if m == nil {
		return 0, false
	}
	n, ok := m.byName[name]
	return n, ok
}

// jsonCamelCase derives the default JSON name the way protoc does:
// underscores are dropped and a lowercase letter after one is upper-cased.
// Every other byte keeps its case, the first included.
func jsonCamelCase(s string) string {
	out := make([]byte, 0, len(s))
	afterUnderscore := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' {
			if afterUnderscore && 'a' <= c && c <= 'z' {
				c -= 'a' - 'A'
			}
			out = append(out, c)
		}
		afterUnderscore = c == '_'
	}
	return string(out)
}
