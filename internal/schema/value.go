package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Value holds a field value: scalar text for string and date fields, items for list fields.
type Value struct {
	Text  string
	Items []string
}

func Text(s string) Value {
	return Value{Text: s}
}

func List(items ...string) Value {
	return Value{Items: items}
}

func (v Value) IsZero() bool {
	return strings.TrimSpace(v.Text) == "" && len(v.Items) == 0
}

// Equal compares scalars by text and lists as sets.
func (v Value) Equal(o Value) bool {
	if len(v.Items) == 0 && len(o.Items) == 0 {
		return v.Text == o.Text
	}
	a, b := set(v.Items), set(o.Items)
	return slices.Equal(a, b)
}

func set(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}

func (v Value) String() string {
	if len(v.Items) > 0 {
		return strings.Join(v.Items, "、")
	}
	return v.Text
}

func (v Value) Clone() Value {
	return Value{Text: v.Text, Items: slices.Clone(v.Items)}
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.Items != nil {
		return json.Marshal(v.Items)
	}
	return json.Marshal(v.Text)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = Value{Items: items}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Value{Text: s}
	return nil
}

var listSeparators = []string{"、", "，", ",", "；", ";", "/", "\n"}

// SplitList splits free text into list items on common separators.
func SplitList(s string) []string {
	for _, sep := range listSeparators[1:] {
		s = strings.ReplaceAll(s, sep, listSeparators[0])
	}
	var out []string
	for _, part := range strings.Split(s, listSeparators[0]) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Coerce shapes v to the declared type of f: lists get items, scalars get text.
func (f Field) Coerce(v Value) Value {
	if f.Type == TypeList {
		if len(v.Items) > 0 {
			return v
		}
		return List(SplitList(v.Text)...)
	}
	if len(v.Items) > 0 && v.Text == "" {
		return Text(strings.Join(v.Items, "、"))
	}
	return v
}

// Decode reads a raw JSON value for f. Null and empty values decode to the zero Value.
func (f Field) Decode(raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Value{}, nil
	}
	var v Value
	if err := v.UnmarshalJSON(raw); err != nil {
		// Numbers and booleans still carry usable text.
		var anyv any
		if jerr := json.Unmarshal(raw, &anyv); jerr != nil {
			return Value{}, fmt.Errorf("field %s: %w", f.Name, err)
		}
		v = Text(fmt.Sprint(anyv))
	}
	return f.Coerce(v), nil
}

// Present is the canonical value of an open-ended end date.
const Present = "至今"
