package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "null"
}

// Value is one entry of a node's data payload: string, number, bool, list or map.
// The zero Value is null.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []Value
	m    map[string]Value
}

func StringValue(s string) Value        { return Value{kind: KindString, str: s} }
func NumberValue(n float64) Value       { return Value{kind: KindNumber, num: n} }
func BoolValue(b bool) Value            { return Value{kind: KindBool, b: b} }
func ListValue(items ...Value) Value    { return Value{kind: KindList, list: items} }
func MapValue(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string payload and true when v holds a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsNumber returns the numeric payload and true when v holds a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean payload and true when v holds a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// List returns the items of a list value, nil otherwise.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Map returns the entries of a map value, nil otherwise.
func (v Value) Map() map[string]Value {
	if v.kind != KindMap {
		return nil
	}
	return v.m
}

// MarshalJSON encodes v as the plain JSON value it represents.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		items := v.list
		if items == nil {
			items = []Value{}
		}
		return json.Marshal(items)
	case KindMap:
		m := v.m
		if m == nil {
			m = map[string]Value{}
		}
		return json.Marshal(m)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes any JSON value into the matching variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return NumberValue(n), nil
	case float64:
		return NumberValue(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			iv, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, iv)
		}
		return ListValue(items...), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			iv, err := valueFromAny(item)
			if err != nil {
				return Value{}, err
			}
			m[k] = iv
		}
		return MapValue(m), nil
	}
	return Value{}, fmt.Errorf("unsupported data value of type %T", raw)
}

// NodeData is the free-form key/value payload of a node.
type NodeData map[string]Value

// Keys returns the payload keys in lexical order.
func (d NodeData) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scan implements sql.Scanner for reading from database
func (d *NodeData) Scan(value any) error {
	if value == nil {
		*d = NodeData{}
		return nil
	}
	return scanJSON(value, d, "NodeData")
}

// Value implements driver.Valuer for writing to database
func (d NodeData) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
