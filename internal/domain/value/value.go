package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindBinary
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Field is a single named member of an object value.
type Field struct {
	Name  string
	Value Value
}

// Value is an immutable tagged union over the SCIM data model:
// null, boolean, number, string, binary, array, object.
// Objects preserve member declaration order. The zero Value has
// KindInvalid and matches nothing.
type Value struct {
	kind   Kind
	boolV  bool
	numV   float64
	strV   string
	binV   []byte
	elems  []Value
	fields []Field
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, boolV: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, numV: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, strV: s} }

// Binary returns a binary value. Binary values are only ever built through
// this constructor: JSON parsing yields strings for base64 content.
func Binary(data []byte) Value {
	cp := make([]byte, len(data))
	copy(cp, data)
	return Value{kind: KindBinary, binV: cp}
}

// Array returns an array value with the given elements in order.
func Array(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindArray, elems: cp}
}

// Object returns an object value with the given fields in order.
func Object(fields ...Field) Value {
	cp := make([]Field, len(fields))
	copy(cp, fields)
	return Value{kind: KindObject, fields: cp}
}

// F is shorthand for constructing an object Field.
func F(name string, v Value) Field { return Field{Name: name, Value: v} }

// Kind returns the variant of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBoolean reports whether the value is a boolean.
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }

// IsNumber reports whether the value is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString reports whether the value is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsBinary reports whether the value is binary.
func (v Value) IsBinary() bool { return v.kind == KindBinary }

// IsArray reports whether the value is an array.
func (v Value) IsArray() bool { return v.kind == KindArray }

// IsObject reports whether the value is an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsScalar reports whether the value is a leaf node: null, boolean,
// number, string, or binary.
func (v Value) IsScalar() bool {
	switch v.kind {
	case KindNull, KindBoolean, KindNumber, KindString, KindBinary:
		return true
	default:
		return false
	}
}

// Bool returns the boolean payload (false for other kinds).
func (v Value) Bool() bool { return v.boolV }

// Num returns the numeric payload (0 for other kinds).
func (v Value) Num() float64 { return v.numV }

// Str returns the string payload ("" for other kinds).
func (v Value) Str() string { return v.strV }

// Bytes returns the binary payload (nil for other kinds).
func (v Value) Bytes() []byte { return v.binV }

// Elements returns the array elements in order (nil for other kinds).
func (v Value) Elements() []Value { return v.elems }

// Fields returns the object fields in declaration order (nil for other kinds).
func (v Value) Fields() []Field { return v.fields }

// Len returns the element count for arrays and the field count for objects.
func (v Value) Len() int {
	if v.kind == KindArray {
		return len(v.elems)
	}
	return len(v.fields)
}

// Field looks up an object member by name. Lookup prefers an exact match,
// then falls back to a case-insensitive match, since SCIM attribute names
// are case-insensitive.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	for _, f := range v.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return Value{}, false
}

// WithField returns a copy of an object value with the named field set.
// An existing field (matched case-insensitively) is replaced in place,
// preserving declaration order; otherwise the field is appended.
// Calling WithField on a non-object returns the value unchanged.
func (v Value) WithField(name string, fv Value) Value {
	if v.kind != KindObject {
		return v
	}
	fields := make([]Field, len(v.fields))
	copy(fields, v.fields)
	for i, f := range fields {
		if strings.EqualFold(f.Name, name) {
			fields[i] = Field{Name: f.Name, Value: fv}
			return Value{kind: KindObject, fields: fields}
		}
	}
	fields = append(fields, Field{Name: name, Value: fv})
	return Value{kind: KindObject, fields: fields}
}

// Equal reports deep structural equality. Numbers compare by value,
// arrays element-wise in order, objects by member set with order ignored
// (member names compare case-sensitively, as in JSON).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.boolV == o.boolV
	case KindNumber:
		return v.numV == o.numV
	case KindString:
		return v.strV == o.strV
	case KindBinary:
		return bytes.Equal(v.binV, o.binV)
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for _, f := range v.fields {
			of, ok := fieldExact(o, f.Name)
			if !ok || !f.Value.Equal(of) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func fieldExact(v Value, name string) (Value, bool) {
	for _, f := range v.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Parse decodes a JSON document into a Value, preserving object member order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if dec.More() {
		return Value{}, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// MustParse decodes a JSON document or panics. Intended for tests and
// static literals.
func MustParse(data string) Value {
	v, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("decode JSON: %w", err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var fields []Field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("decode object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, Field{Name: key, Value: v})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return Value{}, fmt.Errorf("decode object end: %w", err)
	}
	return Value{kind: KindObject, fields: fields}, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return Value{}, fmt.Errorf("decode array end: %w", err)
	}
	return Value{kind: KindArray, elems: elems}, nil
}

// MarshalJSON encodes the value as JSON, writing object members in
// declaration order. Binary values encode as base64 strings.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull, KindInvalid:
		buf.WriteString("null")
	case KindBoolean:
		buf.WriteString(strconv.FormatBool(v.boolV))
	case KindNumber:
		buf.WriteString(strconv.FormatFloat(v.numV, 'g', -1, 64))
	case KindString:
		return encodeString(buf, v.strV)
	case KindBinary:
		return encodeString(buf, base64.StdEncoding.EncodeToString(v.binV))
	case KindArray:
		buf.WriteByte('[')
		for i, el := range v.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := el.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, f.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := f.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	buf.Write(b)
	return nil
}

// String renders the value as compact JSON for logs and diagnostics.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<invalid value: %v>", err)
	}
	return string(b)
}
