package domain

import (
	"bytes"
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Value is a raw submitted answer: a scalar, a list of scalars, or a nested
// object keyed by sub-input id.
type Value struct {
	text     string
	items    []string
	children map[string]Value
}

func StringValue(s string) Value { return Value{text: s} }
func ListValue(items ...string) Value { return Value{items: items} }
func MapValue(children map[string]Value) Value { return Value{children: children} }

func (v Value) IsList() bool { return v.items != nil }
func (v Value) IsNested() bool { return v.children != nil }

// String flattens the value; list items are joined with ", ". Nested
// children follow sub-input order ("3.2" before "3.10").
func (v Value) String() string {
	switch {
	case v.children != nil:
		keys := make([]string, 0, len(v.children))
		for k := range v.children {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareInputIDs)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, v.children[k].String())
		}
		return strings.Join(parts, ", ")
	case v.items != nil:
		return strings.Join(v.items, ", ")
	}
	return v.text
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case v.children != nil:
		return json.Marshal(v.children)
	case v.items != nil:
		return json.Marshal(v.items)
	}
	return json.Marshal(v.text)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*v = Value{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '{':
		var m map[string]Value
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		v.children = m
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		v.items = make([]string, 0, len(raw))
		for _, r := range raw {
			s, err := scalarString(r)
			if err != nil {
				return err
			}
			v.items = append(v.items, s)
		}
	default:
		s, err := scalarString(b)
		if err != nil {
			return err
		}
		v.text = s
	}
	return nil
}

// compareInputIDs orders dotted ids segment by segment, numerically where
// both segments are integers.
func compareInputIDs(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		var c int
		if aerr == nil && berr == nil {
			c = cmp.Compare(an, bn)
		} else {
			c = strings.Compare(as[i], bs[i])
		}
		if c != 0 {
			return c
		}
	}
	return cmp.Compare(len(as), len(bs))
}

// scalarString keeps numbers and booleans in their literal JSON form.
func scalarString(b json.RawMessage) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(b), nil
}

// Lookup returns values[key] when present. Otherwise a dotted key such as
// "3.1" is walked level by level through nested values, failing on the first
// missing level.
func Lookup(values map[string]Value, key string) (Value, bool) {
	if v, ok := values[key]; ok {
		return v, true
	}
	if !strings.Contains(key, ".") {
		return Value{}, false
	}
	cur := values
	parts := strings.Split(key, ".")
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return Value{}, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if v.children == nil {
			return Value{}, false
		}
		cur = v.children
	}
	return Value{}, false
}
