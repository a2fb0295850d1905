// ABOUTME: Tagged JSON value with ordered object members and int/real distinction
// ABOUTME: Carrier type for RPC envelopes; construction and inspection only, no interpretation

package jsonval

// Kind identifies the JSON type a Value carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindBool
	KindInt
	KindReal
)

// String returns the lowercase JSON type name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	}
	return "unknown"
}

// Member is one name/value entry of an object. Objects are member slices,
// not maps: insertion order survives construction, serialization, and parsing.
type Member struct {
	Name  string
	Value Value
}

// Value is an immutable tagged JSON value. The zero value is JSON null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  []Member
}

// Null returns the JSON null value.
func Null() Value {
	return Value{}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Int returns an integer value.
func Int(n int64) Value {
	return Value{kind: KindInt, i: n}
}

// Real returns a floating-point value.
func Real(f float64) Value {
	return Value{kind: KindReal, f: f}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array returns an array value holding elems in order.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// Object returns an object value holding members in order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{kind: KindObject, obj: members}
}

// Field builds an object member.
func Field(name string, v Value) Member {
	return Member{Name: name, Value: v}
}

// Kind returns the JSON type of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// AsBool returns the boolean payload. ok is false for any other kind.
func (v Value) AsBool() (b, ok bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer payload. ok is false for any other kind,
// including reals: no silent truncation.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsReal returns the numeric payload as float64. Integer values convert.
func (v Value) AsReal() (float64, bool) {
	switch v.kind {
	case KindReal:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the string payload. ok is false for any other kind.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsArray returns the element slice. Callers must not mutate it.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsObject returns the member slice. Callers must not mutate it.
func (v Value) AsObject() ([]Member, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Get returns the value of the first member named name. ok is false when
// v is not an object or has no such member.
func (v Value) Get(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.obj {
		if m.Name == name {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Equal reports deep equality. Object comparison is order-sensitive, so two
// objects with the same members in different order are not equal; the wire
// format is order-sensitive too.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindReal:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for i := range v.obj {
			if v.obj[i].Name != o.obj[i].Name || !v.obj[i].Value.Equal(o.obj[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
