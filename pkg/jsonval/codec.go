// ABOUTME: Compact JSON serialization and parsing for Value using easyjson
// ABOUTME: Writer preserves member order and disables HTML escaping; parser keeps int/real apart

package jsonval

import (
	"fmt"
	"strconv"

	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// Marshal renders v as compact JSON. Member order is emitted exactly as
// constructed and HTML characters are not escaped, matching the legacy
// writer the wire format was defined against.
func Marshal(v Value) []byte {
	w := jwriter.Writer{NoEscapeHTML: true}
	v.WriteJSON(&w)
	data, _ := w.BuildBytes()
	return data
}

// WriteJSON appends the compact JSON encoding of v to w.
func (v Value) WriteJSON(w *jwriter.Writer) {
	switch v.kind {
	case KindObject:
		w.RawByte('{')
		for i, m := range v.obj {
			if i > 0 {
				w.RawByte(',')
			}
			w.String(m.Name)
			w.RawByte(':')
			m.Value.WriteJSON(w)
		}
		w.RawByte('}')
	case KindArray:
		w.RawByte('[')
		for i, e := range v.arr {
			if i > 0 {
				w.RawByte(',')
			}
			e.WriteJSON(w)
		}
		w.RawByte(']')
	case KindString:
		w.String(v.s)
	case KindBool:
		w.Bool(v.b)
	case KindInt:
		w.Int64(v.i)
	case KindReal:
		w.Float64(v.f)
	default:
		w.RawString("null")
	}
}

// Parse decodes a single JSON document. Trailing non-whitespace bytes are an
// error. Numbers become KindInt when they parse exactly as int64 and KindReal
// otherwise.
func Parse(data []byte) (Value, error) {
	l := jlexer.Lexer{Data: data}
	v := parseValue(&l)
	if err := l.Error(); err != nil {
		return Value{}, fmt.Errorf("parsing json: %w", err)
	}
	l.Consumed()
	if err := l.Error(); err != nil {
		return Value{}, fmt.Errorf("parsing json: %w", err)
	}
	return v, nil
}

// parseValue reads one value from l. Errors are accumulated on the lexer;
// the returned Value is meaningless once l.Error() is non-nil.
func parseValue(l *jlexer.Lexer) Value {
	if l.IsNull() {
		l.Skip()
		return Value{}
	}
	switch {
	case l.IsDelim('{'):
		obj := []Member{}
		l.Delim('{')
		for !l.IsDelim('}') {
			name := l.String()
			l.WantColon()
			obj = append(obj, Member{Name: name, Value: parseValue(l)})
			l.WantComma()
		}
		l.Delim('}')
		return Value{kind: KindObject, obj: obj}
	case l.IsDelim('['):
		arr := []Value{}
		l.Delim('[')
		for !l.IsDelim(']') {
			arr = append(arr, parseValue(l))
			l.WantComma()
		}
		l.Delim(']')
		return Value{kind: KindArray, arr: arr}
	default:
		return parseScalar(l)
	}
}

// parseScalar handles string, bool, and number tokens. The lexer exposes
// raw token bytes only, so the token is re-lexed by its first byte.
func parseScalar(l *jlexer.Lexer) Value {
	raw := l.Raw()
	if l.Error() != nil || len(raw) == 0 {
		return Value{}
	}
	switch raw[0] {
	case '"':
		sub := jlexer.Lexer{Data: raw}
		s := sub.String()
		if err := sub.Error(); err != nil {
			l.AddError(err)
			return Value{}
		}
		return Value{kind: KindString, s: s}
	case 't', 'f':
		sub := jlexer.Lexer{Data: raw}
		b := sub.Bool()
		if err := sub.Error(); err != nil {
			l.AddError(err)
			return Value{}
		}
		return Value{kind: KindBool, b: b}
	default:
		if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return Value{kind: KindInt, i: n}
		}
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			l.AddError(fmt.Errorf("invalid number %q", raw))
			return Value{}
		}
		return Value{kind: KindReal, f: f}
	}
}

// String renders v as compact JSON.
func (v Value) String() string {
	return string(Marshal(v))
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return Marshal(v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
