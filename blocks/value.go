package blocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Type tags the variant held by a Value.
type Type int

const (
	TypeNull Type = iota
	TypeString
	TypeNumber
	TypeBool
	TypeArray
	TypeObject
)

// Object is an insertion-ordered JSON object.
type Object = orderedmap.OrderedMap[string, Value]

// Value is a JSON value whose objects keep their key order.
type Value struct {
	typ Type
	str string
	b   bool
	arr []Value
	obj *orderedmap.OrderedMap[string, Value]
}

func NewObject() *Object {
	return orderedmap.New[string, Value]()
}

func Null() Value                { return Value{} }
func String(s string) Value      { return Value{typ: TypeString, str: s} }
func Bool(b bool) Value          { return Value{typ: TypeBool, b: b} }
func Number(n json.Number) Value { return Value{typ: TypeNumber, str: n.String()} }
func Int(n int64) Value          { return Value{typ: TypeNumber, str: fmt.Sprint(n)} }
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{typ: TypeArray, arr: items}
}

func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{typ: TypeObject, obj: o}
}

func (v Value) Type() Type { return v.typ }

func (v Value) IsNull() bool { return v.typ == TypeNull }

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	if v.typ != TypeString {
		return "", false
	}
	return v.str, true
}

func (v Value) Number() (json.Number, bool) {
	if v.typ != TypeNumber {
		return "", false
	}
	return json.Number(v.str), true
}

func (v Value) BoolValue() (bool, bool) {
	if v.typ != TypeBool {
		return false, false
	}
	return v.b, true
}

func (v Value) Items() []Value {
	if v.typ != TypeArray {
		return nil
	}
	return v.arr
}

func (v Value) Object() *Object {
	if v.typ != TypeObject {
		return nil
	}
	return v.obj
}

// Interface converts v into plain Go values (map[string]interface{}, []interface{}, ...).
func (v Value) Interface() interface{} {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeNumber:
		return json.Number(v.str)
	case TypeBool:
		return v.b
	case TypeArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case TypeObject:
		out := make(map[string]interface{}, v.obj.Len())
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.typ {
	case TypeNull:
		buf.WriteString("null")
	case TypeString:
		b, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case TypeNumber:
		buf.WriteString(v.str)
	case TypeBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case TypeArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case TypeObject:
		return encodeObject(buf, v.obj)
	}
	return nil
}

func encodeObject(buf *bytes.Buffer, o *Object) error {
	buf.WriteByte('{')
	if o != nil {
		first := true
		for pair := o.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			k, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := pair.Value.encode(buf); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	*v = parsed
	return nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("unexpected object key %v", keyTok)
				}
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.Set(key, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return ObjectValue(obj), nil
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}
